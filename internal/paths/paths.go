// Package paths resolves the on-disk layout attrgit keeps inside a repository's
// git directory: working logs, content-addressed blobs, and the rewrite log.
// See docs on RepoStorage in the design notes for the full layout.
package paths

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// Namespace is the top-level directory under the git directory that holds
// all attrgit-managed state.
const Namespace = "ai"

// InitialBaseCommit is the sentinel working-log key used for the empty-repo
// case, before any commit exists. It is never passed to a git command.
const InitialBaseCommit = "initial"

// NotesRefPrefix is the git notes namespace authorship logs are published under.
const NotesRefPrefix = "refs/notes/ai"

// RewriteLogMaxEvents bounds the rewrite log (spec: N ~= 200).
const RewriteLogMaxEvents = 200

var (
	gitDirMu       sync.RWMutex
	gitDirCache    string
	gitDirCacheDir string
)

// GitDir returns the repository's git directory (".git" for a normal
// checkout, the linked worktree's private dir for a worktree, or the bare
// repo root for `--bare`). Result is cached per working directory.
func GitDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}

	gitDirMu.RLock()
	if gitDirCache != "" && gitDirCacheDir == cwd {
		cached := gitDirCache
		gitDirMu.RUnlock()
		return cached, nil
	}
	gitDirMu.RUnlock()

	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--absolute-git-dir")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("resolve git directory: %w", err)
	}
	dir := strings.TrimSpace(string(out))

	gitDirMu.Lock()
	gitDirCache = dir
	gitDirCacheDir = cwd
	gitDirMu.Unlock()

	return dir, nil
}

// ClearCache drops the cached git directory. Tests use this after chdir'ing
// into a fresh repository.
func ClearCache() {
	gitDirMu.Lock()
	gitDirCache = ""
	gitDirCacheDir = ""
	gitDirMu.Unlock()
}

// AiDir returns "<gitdir>/ai".
func AiDir() (string, error) {
	gitDir, err := GitDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(gitDir, Namespace), nil
}

// WorkingLogsDir returns "<gitdir>/ai/working_logs".
func WorkingLogsDir() (string, error) {
	aiDir, err := AiDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(aiDir, "working_logs"), nil
}

// BaseCommitKey sanitizes a base commit SHA (or "") into its on-disk
// directory name, mapping the empty/initial case to InitialBaseCommit.
func BaseCommitKey(baseCommit string) string {
	if baseCommit == "" {
		return InitialBaseCommit
	}
	return baseCommit
}

// WorkingLogDir returns "<gitdir>/ai/working_logs/<base-sha-or-initial>".
func WorkingLogDir(baseCommit string) (string, error) {
	root, err := WorkingLogsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, BaseCommitKey(baseCommit)), nil
}

// CheckpointsFile returns the path to a working log's checkpoints.jsonl.
func CheckpointsFile(baseCommit string) (string, error) {
	dir, err := WorkingLogDir(baseCommit)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "checkpoints.jsonl"), nil
}

// BlobsDir returns the content-addressed snapshot store for a working log.
func BlobsDir(baseCommit string) (string, error) {
	dir, err := WorkingLogDir(baseCommit)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "blobs"), nil
}

// RewriteLogFile returns "<gitdir>/ai/rewrite_log.jsonl".
func RewriteLogFile() (string, error) {
	aiDir, err := AiDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(aiDir, "rewrite_log.jsonl"), nil
}

// NotesRef returns the git notes ref a commit's authorship note is stored
// under: "refs/notes/ai/<commit>".
func NotesRef(commitSHA string) string {
	return NotesRefPrefix + "/" + commitSHA
}

// IsBareRepository reports whether core.bare is true for the current repository.
func IsBareRepository() (bool, error) {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--is-bare-repository")
	out, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("check bare repository: %w", err)
	}
	return strings.TrimSpace(string(out)) == "true", nil
}
