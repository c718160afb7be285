package repostorage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/attrgit/attrgit/internal/paths"
)

// RewriteLogLines reads the rewrite log, newest-first, one element per line.
// A missing file returns (nil, nil).
func (s *Store) RewriteLogLines() ([][]byte, error) {
	path, err := paths.RewriteLogFile()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the git directory, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read rewrite log: %w", err)
	}
	return splitLines(data), nil
}

// AppendRewriteEvent prepends one serialized event to the rewrite log: it
// reads the existing newest-first log, drops any line isValid rejects
// (malformed lines from an older or damaged write), prepends the new line,
// and trims the result to paths.RewriteLogMaxEvents before rewriting the
// file in place.
func (s *Store) AppendRewriteEvent(eventJSON []byte, isValid func([]byte) bool) error {
	existing, err := s.RewriteLogLines()
	if err != nil {
		return err
	}

	kept := make([][]byte, 0, len(existing)+1)
	kept = append(kept, eventJSON)
	for _, line := range existing {
		if isValid(line) {
			kept = append(kept, line)
		}
	}
	if len(kept) > paths.RewriteLogMaxEvents {
		kept = kept[:paths.RewriteLogMaxEvents]
	}

	path, err := paths.RewriteLogFile()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create ai dir: %w", err)
	}

	var out []byte
	for _, line := range kept {
		out = append(out, line...)
		out = append(out, '\n')
	}
	if err := os.WriteFile(path, out, 0o640); err != nil { //nolint:gosec // fixed mode, path derived from git dir
		return fmt.Errorf("rewrite rewrite log: %w", err)
	}
	return nil
}
