package attribution

import "sort"

// ExpandLines flattens a compressed, sorted, disjoint LineRange set into its
// full list of line numbers, in ascending order.
func ExpandLines(ranges []LineRange) []int {
	var lines []int
	for _, r := range ranges {
		for l := r.Start; l <= r.End; l++ {
			lines = append(lines, l)
		}
	}
	return lines
}

// CompressLines builds the canonical compressed LineRange set from an
// arbitrary set of line numbers: duplicates are dropped, the result is
// sorted, and adjacent or equal successors collapse into one Range. This is
// the inverse of ExpandLines — CompressLines(ExpandLines(r)) == r for any
// valid compressed input r.
func CompressLines(lines []int) []LineRange {
	if len(lines) == 0 {
		return nil
	}
	sorted := append([]int(nil), lines...)
	sort.Ints(sorted)

	var ranges []LineRange
	start, end := sorted[0], sorted[0]
	for _, l := range sorted[1:] {
		if l == end || l == end+1 {
			end = l
			continue
		}
		ranges = append(ranges, LineRange{Start: start, End: end})
		start, end = l, l
	}
	ranges = append(ranges, LineRange{Start: start, End: end})
	return ranges
}

// LineRangesContain reports whether line is covered by any range in ranges.
func LineRangesContain(ranges []LineRange, line int) bool {
	for _, r := range ranges {
		if r.Contains(line) {
			return true
		}
	}
	return false
}

// IntersectLines returns the line numbers common to both sets, sorted ascending.
func IntersectLines(ranges []LineRange, lines []int) []int {
	var out []int
	for _, l := range lines {
		if LineRangesContain(ranges, l) {
			out = append(out, l)
		}
	}
	return out
}

// lineOffsets returns, for a content buffer, the byte offset at which each
// 1-based line begins, plus the content's total length as a sentinel end.
// lineOffsets(content)[i] is the start offset of line i+1.
func lineOffsets(content []byte) []int {
	offsets := []int{0}
	for i, b := range content {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

// lineCount returns the number of lines in content under the convention that
// a trailing newline does not create a phantom empty final line.
func lineCount(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := 0
	for _, b := range content {
		if b == '\n' {
			n++
		}
	}
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}

// lineStartEnd returns the half-open byte range [start, end) of 1-based line.
// end excludes the trailing newline unless the buffer's final line has none.
func lineStartEnd(offsets []int, content []byte, line int) (start, end int) {
	start = offsets[line-1]
	if line < len(offsets) {
		end = offsets[line] - 1 // exclude the '\n'
	} else {
		end = len(content)
	}
	if end < start {
		end = start
	}
	return start, end
}

// LineRangesToCharRanges converts an inclusive line-range set to half-open
// byte ranges [start_of_line(a), end_of_line(b)) over content, one byte range
// per LineRange.
func LineRangesToCharRanges(content []byte, ranges []LineRange) [][2]int {
	offsets := lineOffsets(content)
	out := make([][2]int, 0, len(ranges))
	for _, r := range ranges {
		start, _ := lineStartEnd(offsets, content, r.Start)
		_, end := lineStartEnd(offsets, content, r.End)
		out = append(out, [2]int{start, end})
	}
	return out
}

// byteInCharRanges reports whether offset falls in any of ranges.
func byteInCharRanges(ranges [][2]int, offset int) bool {
	for _, r := range ranges {
		if offset >= r[0] && offset < r[1] {
			return true
		}
	}
	return false
}
