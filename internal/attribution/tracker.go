package attribution

import (
	"sort"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Update computes the new byte attributions for a file after an edit, per
// rules T1-T5: unchanged spans keep their old author (T1), inserted spans
// belong to authorID/timestamp (T2), deletions vanish (T3), overlapping
// input is resolved by "greatest timestamp wins, ties to the later entry"
// (T4), and any byte of oldContent not covered by oldAttrs is treated as
// Human at timestamp-1 before the diff is applied (T5).
func Update(oldContent, newContent []byte, oldAttrs []Attribution, authorID string, timestamp int64) []Attribution {
	resolved := resolveCoverage(oldContent, oldAttrs, timestamp-1)

	dmp := diffmatchpatch.New()
	text1, text2, lineArray := dmp.DiffLinesToChars(string(oldContent), string(newContent))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(text1, text2, false), lineArray)

	var out []Attribution
	oldOffset, newOffset := 0, 0
	for _, d := range diffs {
		length := len(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			delta := newOffset - oldOffset
			out = append(out, clipRuns(resolved, oldOffset, oldOffset+length, delta)...)
			oldOffset += length
			newOffset += length
		case diffmatchpatch.DiffInsert:
			if length > 0 {
				out = append(out, Attribution{Start: newOffset, End: newOffset + length, AuthorID: authorID, Timestamp: timestamp})
			}
			newOffset += length
		case diffmatchpatch.DiffDelete:
			oldOffset += length
		}
	}

	return coalesce(out)
}

// resolveCoverage resolves an (possibly overlapping, possibly partial)
// attribution list for content into a fully-covering, non-overlapping,
// time-ordered run list: for every byte position the attribution with the
// greatest timestamp wins, ties favor the later entry in oldAttrs; any
// uncovered byte is filled with Human at gapTimestamp.
func resolveCoverage(content []byte, oldAttrs []Attribution, gapTimestamp int64) []Attribution {
	n := len(content)
	if n == 0 {
		return nil
	}
	owner := make([]int, n) // index into oldAttrs + 1; 0 means uncovered
	best := make([]int64, n)
	for i, a := range oldAttrs {
		start, end := a.Start, a.End
		if start < 0 {
			start = 0
		}
		if end > n {
			end = n
		}
		for pos := start; pos < end; pos++ {
			if owner[pos] == 0 || a.Timestamp >= best[pos] {
				owner[pos] = i + 1
				best[pos] = a.Timestamp
			}
		}
	}

	var runs []Attribution
	start := 0
	for start < n {
		o := owner[start]
		end := start + 1
		for end < n && owner[end] == o {
			end++
		}
		if o == 0 {
			runs = append(runs, Attribution{Start: start, End: end, AuthorID: HumanAuthorID, Timestamp: gapTimestamp})
		} else {
			a := oldAttrs[o-1]
			runs = append(runs, Attribution{Start: start, End: end, AuthorID: a.AuthorID, Timestamp: a.Timestamp})
		}
		start = end
	}
	return runs
}

// clipRuns returns the portions of runs (sorted, non-overlapping, over old
// coordinates) that fall within [oldStart, oldEnd), translated into new
// coordinates by adding delta.
func clipRuns(runs []Attribution, oldStart, oldEnd, delta int) []Attribution {
	var out []Attribution
	for _, r := range runs {
		start, end := r.Start, r.End
		if end <= oldStart || start >= oldEnd {
			continue
		}
		if start < oldStart {
			start = oldStart
		}
		if end > oldEnd {
			end = oldEnd
		}
		if start >= end {
			continue
		}
		out = append(out, Attribution{Start: start + delta, End: end + delta, AuthorID: r.AuthorID, Timestamp: r.Timestamp})
	}
	return out
}

// coalesce sorts by (start, timestamp) and merges adjacent entries sharing
// an author and timestamp, as the tracker algorithm's final step requires.
func coalesce(attrs []Attribution) []Attribution {
	if len(attrs) == 0 {
		return nil
	}
	sort.Slice(attrs, func(i, j int) bool {
		if attrs[i].Start != attrs[j].Start {
			return attrs[i].Start < attrs[j].Start
		}
		return attrs[i].Timestamp < attrs[j].Timestamp
	})

	out := []Attribution{attrs[0]}
	for _, a := range attrs[1:] {
		last := &out[len(out)-1]
		if a.Start == last.End && a.AuthorID == last.AuthorID && a.Timestamp == last.Timestamp {
			last.End = a.End
			continue
		}
		out = append(out, a)
	}
	return out
}
