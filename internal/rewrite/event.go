// Package rewrite implements the RewriteReconciler (spec §4.6): it consumes
// RewriteLogEvent records produced by history-modifying git hooks and
// rewrites authorship notes onto the commits a rewrite produces, so that
// line-level authorship survives rebase, cherry-pick, amend, reset, and
// merge the way it survives a plain commit.
package rewrite

import (
	"encoding/json"
)

// Kind identifies which history-modifying operation produced an event.
type Kind string

const (
	KindCommit                Kind = "Commit"
	KindCommitAmend           Kind = "CommitAmend"
	KindCherryPick            Kind = "CherryPick"
	KindRebaseStep            Kind = "RebaseStep"
	KindRebaseInteractiveStep Kind = "RebaseInteractiveStep"
	KindRebaseBatch           Kind = "RebaseBatch"
	KindMergeSquash           Kind = "MergeSquash"
	KindResetSoft             Kind = "ResetSoft"
	KindResetMixed            Kind = "ResetMixed"
	KindResetMerge            Kind = "ResetMerge"
	KindResetHard             Kind = "ResetHard"
	KindMerge                 Kind = "Merge"
)

// Pair is one source->new commit correspondence within a rebase batch.
type Pair struct {
	Source string `json:"source"`
	New    string `json:"new"`
}

// Event is one RewriteLogEvent record (spec §6 "rewrite_log.jsonl").
// Fields are a tagged union: only the subset relevant to Kind is populated.
type Event struct {
	Kind      Kind  `json:"kind"`
	Timestamp int64 `json:"timestamp"`

	// CommitAmend
	Original string `json:"original,omitempty"`
	Amended  string `json:"amended,omitempty"`

	// CherryPick / RebaseStep / RebaseInteractiveStep
	SourceCommit string `json:"source_commit,omitempty"`
	NewCommit    string `json:"new_commit,omitempty"`
	NewParent    string `json:"new_parent,omitempty"`

	// RebaseBatch
	Pairs []Pair `json:"pairs,omitempty"`

	// MergeSquash
	SourceHead   string `json:"source_head,omitempty"`
	BaseHead     string `json:"base_head,omitempty"`
	SquashCommit string `json:"squash_commit,omitempty"`

	// ResetSoft / ResetMixed / ResetMerge / ResetHard
	OldHead      string   `json:"old_head,omitempty"`
	TargetCommit string   `json:"target_commit,omitempty"`
	Pathspec     []string `json:"pathspec,omitempty"`

	// Merge
	MergeCommit string `json:"merge_commit,omitempty"`
	FirstParent string `json:"first_parent,omitempty"`
	HasResolved bool   `json:"has_resolved,omitempty"`

	HumanAuthor string `json:"human_author,omitempty"`
}

// Marshal serializes e for appending to the rewrite log.
func Marshal(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// isValidLine reports whether a rewrite-log line parses as an Event,
// matching spec §7's "malformed lines are silently skipped" forward-compat
// policy: a line from a future, unrecognized schema still round-trips
// through json.Unmarshal into whatever fields overlap, so this only filters
// out lines that are not even valid JSON objects.
func isValidLine(line []byte) bool {
	var e Event
	return json.Unmarshal(line, &e) == nil
}
