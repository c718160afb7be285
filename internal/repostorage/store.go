// Package repostorage owns the on-disk layout under a repository's git
// directory where attrgit keeps working logs, content-addressed file
// snapshots, and the rewrite-event log (spec §4.2). It knows nothing about
// the JSON shape of a checkpoint or a rewrite event — it operates on raw
// lines and byte blobs, leaving encoding to internal/workinglog and
// internal/rewrite.
package repostorage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/attrgit/attrgit/internal/paths"
)

// Store is the on-disk repostorage handle for the current repository.
type Store struct{}

// New returns a Store bound to the current repository (resolved lazily
// through internal/paths on each call, since the working directory can
// change between hook invocations within one process only in tests).
func New() *Store { return &Store{} }

// WorkingLogLines reads the checkpoints.jsonl file for a base commit, one
// element per line, oldest first. A missing file returns (nil, nil).
func (s *Store) WorkingLogLines(baseCommit string) ([][]byte, error) {
	path, err := paths.CheckpointsFile(baseCommit)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the git directory, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read working log %s: %w", baseCommit, err)
	}
	return splitLines(data), nil
}

// AppendWorkingLogLine appends one serialized checkpoint line, creating the
// working log directory on first use.
func (s *Store) AppendWorkingLogLine(baseCommit string, line []byte) error {
	dir, err := paths.WorkingLogDir(baseCommit)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create working log dir %s: %w", baseCommit, err)
	}
	path, err := paths.CheckpointsFile(baseCommit)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // fixed mode, path derived from git dir
	if err != nil {
		return fmt.Errorf("open working log %s: %w", baseCommit, err)
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append working log %s: %w", baseCommit, err)
	}
	return f.Sync()
}

// TruncateWorkingLog empties checkpoints.jsonl, keeping the blob store intact.
func (s *Store) TruncateWorkingLog(baseCommit string) error {
	path, err := paths.CheckpointsFile(baseCommit)
	if err != nil {
		return err
	}
	if err := os.Truncate(path, 0); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("truncate working log %s: %w", baseCommit, err)
	}
	return nil
}

// DeleteWorkingLog removes the entire working log directory (checkpoints and blobs).
func (s *Store) DeleteWorkingLog(baseCommit string) error {
	dir, err := paths.WorkingLogDir(baseCommit)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete working log %s: %w", baseCommit, err)
	}
	return nil
}

// PersistBlob content-addresses content under the base commit's blob store,
// writing it idempotently (a write-then-rename keeps concurrent writers of
// the same content safe and never leaves a partial file at the final path).
func (s *Store) PersistBlob(baseCommit string, content []byte) (string, error) {
	hash := ContentHash(content)
	dir, err := paths.BlobsDir(baseCommit)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create blob dir %s: %w", baseCommit, err)
	}
	final := filepath.Join(dir, hash)
	if _, err := os.Stat(final); err == nil {
		return hash, nil
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write temp blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close temp blob: %w", err)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename temp blob into place: %w", err)
	}
	return hash, nil
}

// ReadBlob returns the content of a previously persisted snapshot.
func (s *Store) ReadBlob(baseCommit, hash string) ([]byte, error) {
	dir, err := paths.BlobsDir(baseCommit)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, hash)) //nolint:gosec // hash is a sha256 hex digest, not user input
	if err != nil {
		return nil, fmt.Errorf("read blob %s/%s: %w", baseCommit, hash, err)
	}
	return data, nil
}

// ContentHash returns the hex SHA-256 digest used as a content-addressed blob key.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
