package gitfacade

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// AddedHunk is one contiguous run of added lines on the "to" side of a diff,
// as reported by a -U0 unified diff hunk header ("@@ -a,b +c,d @@").
type AddedHunk struct {
	// StartLine is the 1-based first added line in the "to" content.
	StartLine int
	// LineCount is the number of added lines (0 for a pure deletion hunk).
	LineCount int
}

var hunkHeaderRE = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// DiffAddedLines returns the added-line hunks between a path's content at
// `from` and at `to` (both commit-ish). Pass EmptyTreeSHA as `from` to diff
// against nothing (whole file is added).
func (f *Facade) DiffAddedLines(ctx context.Context, from, to, path string) ([]AddedHunk, error) {
	out, err := f.run(ctx, "diff", "--no-color", "-U0", from, to, "--", path)
	if err != nil {
		return nil, fmt.Errorf("diff %s %s -- %s: %w", from, to, path, err)
	}
	return parseAddedHunks(string(out)), nil
}

// DiffWorkdirAddedLines diffs a path between a commit-ish and the working
// tree (uncommitted changes), including untracked files when against EmptyTreeSHA.
func (f *Facade) DiffWorkdirAddedLines(ctx context.Context, from, path string) ([]AddedHunk, error) {
	out, err := f.run(ctx, "diff", "--no-color", "-U0", from, "--", path)
	if err != nil {
		return nil, fmt.Errorf("diff %s -- %s: %w", from, path, err)
	}
	return parseAddedHunks(string(out)), nil
}

// parseAddedHunks extracts the "+start,count" side of every hunk header in a
// -U0 unified diff. A hunk with no "+" lines (pure deletion) is skipped.
func parseAddedHunks(diff string) []AddedHunk {
	var hunks []AddedHunk
	for _, line := range strings.Split(diff, "\n") {
		if !strings.HasPrefix(line, "@@ ") {
			continue
		}
		m := hunkHeaderRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		start, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		count := 1
		if m[4] != "" {
			count, err = strconv.Atoi(m[4])
			if err != nil {
				continue
			}
		}
		if count == 0 {
			continue
		}
		hunks = append(hunks, AddedHunk{StartLine: start, LineCount: count})
	}
	return hunks
}

// NameStatusEntry is one line of `git diff --name-status`.
type NameStatusEntry struct {
	Status string // "A", "M", "D", "R100", ...
	Path   string
	// OldPath is set for renames/copies.
	OldPath string
}

// ChangedFiles lists the files that differ between two tree-ish revisions.
func (f *Facade) ChangedFiles(ctx context.Context, from, to string) ([]NameStatusEntry, error) {
	out, err := f.run(ctx, "diff", "--no-color", "--name-status", "-M", from, to)
	if err != nil {
		return nil, fmt.Errorf("diff --name-status %s %s: %w", from, to, err)
	}
	var entries []NameStatusEntry
	for _, line := range splitNonEmptyLines(string(out)) {
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			continue
		}
		if strings.HasPrefix(fields[0], "R") || strings.HasPrefix(fields[0], "C") {
			if len(fields) < 3 {
				continue
			}
			entries = append(entries, NameStatusEntry{Status: fields[0], OldPath: fields[1], Path: fields[2]})
			continue
		}
		entries = append(entries, NameStatusEntry{Status: fields[0], Path: fields[1]})
	}
	return entries, nil
}
