// Package attribution implements the byte-range attribution algebra: given a
// file's previous content and attributions plus its new content, it derives
// updated attributions that preserve untouched author spans through an
// arbitrary edit (T1-T5), and projects byte ranges to line ranges for
// publication.
package attribution

import (
	"encoding/json"
	"fmt"
)

// HumanAuthorID is the sentinel author id for human-authored bytes/lines.
const HumanAuthorID = "human"

// Attribution is a half-open byte range [Start, End) tagged with the author
// that wrote it and the checkpoint timestamp that produced it.
type Attribution struct {
	Start     int    `json:"start"`
	End       int    `json:"end"`
	AuthorID  string `json:"author_id"`
	Timestamp int64  `json:"timestamp"`
}

// LineAttribution is a closed, 1-based line range [StartLine, EndLine] tagged
// with an author. Derived from Attribution + file content.
type LineAttribution struct {
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	AuthorID  string `json:"author_id"`
}

// LineRange is either a single 1-based line number or an inclusive [start,end]
// pair. It serializes as a bare JSON number for a single line, or a two-element
// array for a range, matching the wire format of the system this tracks
// authorship for.
type LineRange struct {
	Start int
	End   int // Start == End for a single line.
}

// NewSingle returns a single-line range.
func NewSingle(line int) LineRange { return LineRange{Start: line, End: line} }

// NewRange returns an inclusive range; panics if end < start.
func NewRange(start, end int) LineRange {
	if end < start {
		panic("attribution: invalid line range")
	}
	return LineRange{Start: start, End: end}
}

// IsSingle reports whether the range covers exactly one line.
func (r LineRange) IsSingle() bool { return r.Start == r.End }

// Contains reports whether line is within the range.
func (r LineRange) Contains(line int) bool { return line >= r.Start && line <= r.End }

func (r LineRange) MarshalJSON() ([]byte, error) {
	if r.IsSingle() {
		return json.Marshal(r.Start)
	}
	return json.Marshal([2]int{r.Start, r.End})
}

func (r *LineRange) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		r.Start, r.End = n, n
		return nil
	}
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("line range must be a number or a [start,end] array: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("line range array must have exactly 2 elements, got %d", len(pair))
	}
	r.Start, r.End = pair[0], pair[1]
	return nil
}
