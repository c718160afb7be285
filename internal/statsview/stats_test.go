package statsview_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/attrgit/attrgit/internal/attribution"
	"github.com/attrgit/attrgit/internal/noteschema"
	"github.com/attrgit/attrgit/internal/statsview"
)

func TestSummarize(t *testing.T) {
	note := &noteschema.AuthorshipLog{
		Attestations: []noteschema.FileAttestation{
			{FilePath: "a.go", Entries: []noteschema.AttestationEntry{
				{Hash: attribution.HumanAuthorID, LineRanges: []attribution.LineRange{attribution.NewRange(1, 10)}},
				{Hash: "hash1", LineRanges: []attribution.LineRange{attribution.NewRange(11, 15)}},
			}},
			{FilePath: "b.go", Entries: []noteschema.AttestationEntry{
				{Hash: "hash2", LineRanges: []attribution.LineRange{attribution.NewSingle(1)}},
			}},
		},
		Metadata: noteschema.Metadata{
			Prompts: map[string]noteschema.PromptRecord{
				"hash1": {AgentID: &noteschema.AgentID{Tool: "claude-code"}},
				"hash2": {AgentID: &noteschema.AgentID{Tool: "gemini-cli"}},
			},
		},
	}

	s := statsview.Summarize(note)
	require.Equal(t, 10, s.HumanLines)
	require.Equal(t, 6, s.AILines)
	require.Equal(t, 5, s.ByTool["claude-code"])
	require.Equal(t, 1, s.ByTool["gemini-cli"])
}

func TestSummarizeNilNote(t *testing.T) {
	s := statsview.Summarize(nil)
	require.Equal(t, 0, s.HumanLines)
	require.Equal(t, 0, s.AILines)
}

func TestRenderNoPanicOnEmpty(t *testing.T) {
	require.NotPanics(t, func() {
		statsview.Render(statsview.Summary{})
	})
}
