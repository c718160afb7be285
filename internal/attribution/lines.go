package attribution

import "sort"

// AttributionsToLineAttributions projects byte attributions onto content's
// lines: for each line, every distinct author whose byte attribution
// intersects that line contributes to that author's (compressed) LineRange
// set. A line touched only by the Human author yields a Human entry; a line
// touched by any other author additionally yields that author's entry —
// callers that need a single author per line apply CollapseByPrecedence.
func AttributionsToLineAttributions(content []byte, attrs []Attribution) []LineAttribution {
	if len(attrs) == 0 {
		return nil
	}
	offsets := lineOffsets(content)
	n := lineCount(content)

	linesByAuthor := make(map[string][]int)
	order := []string{}
	for line := 1; line <= n; line++ {
		start, end := lineStartEnd(offsets, content, line)
		for _, a := range attrs {
			if !intersectsLine(a, start, end) {
				continue
			}
			if _, ok := linesByAuthor[a.AuthorID]; !ok {
				order = append(order, a.AuthorID)
			}
			linesByAuthor[a.AuthorID] = append(linesByAuthor[a.AuthorID], line)
		}
	}

	var out []LineAttribution
	for _, author := range order {
		for _, r := range CompressLines(linesByAuthor[author]) {
			out = append(out, LineAttribution{StartLine: r.Start, EndLine: r.End, AuthorID: author})
		}
	}
	return out
}

func intersectsLine(a Attribution, lineStart, lineEnd int) bool {
	if lineStart == lineEnd {
		return a.Start <= lineStart && lineStart < a.End
	}
	return a.Start < lineEnd && a.End > lineStart
}

// CollapseByPrecedence reduces a possibly-multi-author-per-line
// LineAttribution set to exactly one author per line: any non-Human author
// wins over Human on a shared line.
func CollapseByPrecedence(lineAttrs []LineAttribution) []LineAttribution {
	winner := make(map[int]string)
	var lines []int
	for _, la := range lineAttrs {
		for line := la.StartLine; line <= la.EndLine; line++ {
			current, seen := winner[line]
			if !seen {
				winner[line] = la.AuthorID
				lines = append(lines, line)
				continue
			}
			if current == HumanAuthorID && la.AuthorID != HumanAuthorID {
				winner[line] = la.AuthorID
			}
		}
	}

	byAuthor := make(map[string][]int)
	var authors []string
	for _, line := range lines {
		a := winner[line]
		if _, ok := byAuthor[a]; !ok {
			authors = append(authors, a)
		}
		byAuthor[a] = append(byAuthor[a], line)
	}
	sort.Strings(authors)

	var out []LineAttribution
	for _, author := range authors {
		for _, r := range CompressLines(byAuthor[author]) {
			out = append(out, LineAttribution{StartLine: r.Start, EndLine: r.End, AuthorID: author})
		}
	}
	return out
}
