// Package statsview renders a commit's AuthorshipLog as a human-readable
// terminal summary (spec §7: "Terminal stats are printed on stdout after
// commit unless suppressed"). This is presentation only — core attribution
// never depends on anything in this package.
package statsview

import (
	"sort"

	"github.com/attrgit/attrgit/internal/attribution"
	"github.com/attrgit/attrgit/internal/noteschema"
)

// Summary is the line-count breakdown of one commit's authorship note.
type Summary struct {
	HumanLines int
	AILines    int
	// ByTool sums AI-authored lines per AgentID.Tool (e.g. "claude-code").
	ByTool map[string]int
}

// Summarize walks every file attestation and tallies line counts by author,
// looking up each non-human hash's tool in note.Metadata.Prompts.
func Summarize(note *noteschema.AuthorshipLog) Summary {
	s := Summary{ByTool: make(map[string]int)}
	if note == nil {
		return s
	}

	for _, fa := range note.Attestations {
		for _, entry := range fa.Entries {
			n := countLines(entry.LineRanges)
			if entry.Hash == attribution.HumanAuthorID {
				s.HumanLines += n
				continue
			}
			s.AILines += n
			tool := "unknown"
			if rec, ok := note.Metadata.Prompts[entry.Hash]; ok && rec.AgentID != nil && rec.AgentID.Tool != "" {
				tool = rec.AgentID.Tool
			}
			s.ByTool[tool] += n
		}
	}
	return s
}

func countLines(ranges []attribution.LineRange) int {
	n := 0
	for _, r := range ranges {
		n += r.End - r.Start + 1
	}
	return n
}

// tools returns s.ByTool's keys sorted by descending line count, ties broken
// alphabetically, for deterministic rendering.
func (s Summary) tools() []string {
	names := make([]string, 0, len(s.ByTool))
	for name := range s.ByTool {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.ByTool[names[i]] != s.ByTool[names[j]] {
			return s.ByTool[names[i]] > s.ByTool[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}
