// Package workinglog implements the per-base-commit, append-only checkpoint
// ledger (spec §4.4): persisting checkpoints, retrieving content-addressed
// snapshots, and constructing a new checkpoint from the current working
// tree change set.
package workinglog

import (
	"github.com/attrgit/attrgit/internal/attribution"
	"github.com/attrgit/attrgit/internal/noteschema"
)

// Kind distinguishes who produced a checkpoint's edits.
type Kind string

const (
	KindHuman   Kind = "Human"
	KindAiAgent Kind = "AiAgent"
	KindAiTab   Kind = "AiTab"
)

// HumanAuthorID is the sentinel author id used for Human-kind checkpoints.
const HumanAuthorID = attribution.HumanAuthorID

// Entry is one file's record within a checkpoint.
type Entry struct {
	File             string                          `json:"file"`
	BlobSHA          string                          `json:"blob_sha"`
	Attributions     []attribution.Attribution        `json:"attributions"`
	LineAttributions []attribution.LineAttribution     `json:"line_attributions"`
}

// LineStats summarizes additions/deletions per author kind for a checkpoint,
// informative only — it is not consulted by the projection pipeline.
type LineStats struct {
	HumanAdditions   int `json:"human_additions"`
	HumanDeletions   int `json:"human_deletions"`
	AiAgentAdditions int `json:"ai_agent_additions"`
	AiAgentDeletions int `json:"ai_agent_deletions"`
	AiTabAdditions   int `json:"ai_tab_additions"`
	AiTabDeletions   int `json:"ai_tab_deletions"`
}

// Checkpoint is one atomic record in a working log.
type Checkpoint struct {
	Kind       Kind                  `json:"kind"`
	Snapshot   string                `json:"snapshot"`
	Author     string                `json:"author"`
	Timestamp  int64                 `json:"timestamp"`
	AgentID    *noteschema.AgentID   `json:"agent_id"`
	Transcript *noteschema.Transcript `json:"transcript"`
	Entries    []Entry               `json:"entries"`
	LineStats  *LineStats            `json:"line_stats,omitempty"`
}

// AuthorID returns the attribution author id this checkpoint's edits should
// be recorded under: the human sentinel for Kind Human, or a short
// deterministic hash of the agent session for AI kinds.
func (c *Checkpoint) AuthorID() string {
	if c.Kind == KindHuman || c.AgentID == nil {
		return HumanAuthorID
	}
	return AgentHash(c.AgentID.ID, c.AgentID.Tool)
}

// EntryFor returns the entry for path, if present.
func (c *Checkpoint) EntryFor(path string) (*Entry, bool) {
	for i := range c.Entries {
		if c.Entries[i].File == path {
			return &c.Entries[i], true
		}
	}
	return nil, false
}
