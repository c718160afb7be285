package workinglog

import (
	"encoding/json"

	"github.com/attrgit/attrgit/internal/repostorage"
)

// Log is the working log for a single base commit: an append-only
// checkpoint sequence plus its content-addressed blob store.
type Log struct {
	store      *repostorage.Store
	baseCommit string
}

// Open returns the working log keyed by baseCommit ("" means the
// empty-repository pseudo-parent).
func Open(store *repostorage.Store, baseCommit string) *Log {
	return &Log{store: store, baseCommit: baseCommit}
}

// BaseCommit returns the base commit (or "" for the initial pseudo-parent) this log is keyed by.
func (l *Log) BaseCommit() string { return l.baseCommit }

// ReadAllCheckpoints parses every line of checkpoints.jsonl, oldest first.
// Malformed lines are silently skipped (spec §7 forward-compat policy).
func (l *Log) ReadAllCheckpoints() ([]Checkpoint, error) {
	lines, err := l.store.WorkingLogLines(l.baseCommit)
	if err != nil {
		return nil, err
	}
	checkpoints := make([]Checkpoint, 0, len(lines))
	for _, line := range lines {
		var cp Checkpoint
		if err := json.Unmarshal(line, &cp); err != nil {
			continue
		}
		checkpoints = append(checkpoints, cp)
	}
	return checkpoints, nil
}

// AppendCheckpoint serializes and appends one checkpoint.
func (l *Log) AppendCheckpoint(cp Checkpoint) error {
	line, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	return l.store.AppendWorkingLogLine(l.baseCommit, line)
}

// PersistFileVersion idempotently content-addresses a file snapshot.
func (l *Log) PersistFileVersion(content []byte) (string, error) {
	return l.store.PersistBlob(l.baseCommit, content)
}

// GetFileVersion retrieves a previously persisted snapshot by content hash.
func (l *Log) GetFileVersion(contentHash string) ([]byte, error) {
	return l.store.ReadBlob(l.baseCommit, contentHash)
}

// Reset truncates checkpoints.jsonl, retaining the blob store.
func (l *Log) Reset() error {
	return l.store.TruncateWorkingLog(l.baseCommit)
}

// Delete removes the entire working log, checkpoints and blobs.
func (l *Log) Delete() error {
	return l.store.DeleteWorkingLog(l.baseCommit)
}
