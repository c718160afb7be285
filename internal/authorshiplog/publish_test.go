package authorshiplog_test

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/attrgit/attrgit/internal/attribution"
	"github.com/attrgit/attrgit/internal/authorshiplog"
	"github.com/attrgit/attrgit/internal/gitfacade"
	"github.com/attrgit/attrgit/internal/noteschema"
	"github.com/attrgit/attrgit/internal/paths"
	"github.com/attrgit/attrgit/internal/repostorage"
	"github.com/attrgit/attrgit/internal/workinglog"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	env := append(os.Environ(),
		"GIT_AUTHOR_NAME=Test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=Test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	run := func(args ...string) string {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = env
		out, err := cmd.CombinedOutput()
		require.NoErrorf(t, err, "git %v: %s", args, out)
		return string(out)
	}
	run("init", "--initial-branch=main")
	return dir
}

func gitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoErrorf(t, err, "git %v: %s", args, out)
	return string(out)
}

func chdirTo(t *testing.T, dir string) {
	t.Helper()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(cwd)
		paths.ClearCache()
	})
	paths.ClearCache()
}

// TestPublishScenarioA models spec Scenario A: a human-committed base file
// is extended with AI-written lines, all of which are committed as-is.
func TestPublishScenarioA(t *testing.T) {
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("Base line 1\nBase line 2\n"), 0o644))
	gitOutput(t, dir, "-C", dir, "add", "a.txt")
	gitOutput(t, dir, "-C", dir, "commit", "-m", "base",
		"-c", "user.name=Test", "-c", "user.email=test@example.com")
	head := trimNLLocal(gitOutput(t, dir, "-C", dir, "rev-parse", "HEAD"))

	chdirTo(t, dir)
	facade := gitfacade.New("git", gitfacade.GlobalArgs{"-C", dir})
	store := repostorage.New()
	log := workinglog.Open(store, head)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("Base line 1\nBase line 2\nNEW\nHello\nWorld\n"), 0o644))

	cp, err := workinglog.RunCheckpoint(context.Background(), facade, log, workinglog.Input{
		Kind: workinglog.KindAiAgent, Author: "agent",
		AgentID:   &noteschema.AgentID{Tool: "claude-code", ID: "sess1", Model: "m1"},
		Timestamp: 1000, HeadRev: head,
	})
	require.NoError(t, err)
	require.NotNil(t, cp)

	gitOutput(t, dir, "-C", dir, "add", "a.txt")
	gitOutput(t, dir, "-C", dir, "commit", "-m", "add lines",
		"-c", "user.name=Test", "-c", "user.email=test@example.com")
	commitSHA := trimNLLocal(gitOutput(t, dir, "-C", dir, "rev-parse", "HEAD"))

	err = authorshiplog.Publish(context.Background(), facade, store, authorshiplog.PublishInput{
		BaseCommit: head, CommitSHA: commitSHA, HumanAuthor: "Test <test@example.com>",
	})
	require.NoError(t, err)

	noteData, ok, err := facade.NotesShow(context.Background(), commitSHA)
	require.NoError(t, err)
	require.True(t, ok)

	var note noteschema.AuthorshipLog
	require.NoError(t, json.Unmarshal(noteData, &note))
	fa, ok := note.FindFile("a.txt")
	require.True(t, ok)

	var aiEntry *noteschema.AttestationEntry
	for i := range fa.Entries {
		if fa.Entries[i].Hash != attribution.HumanAuthorID {
			aiEntry = &fa.Entries[i]
		}
	}
	require.NotNil(t, aiEntry)
	require.Equal(t, []int{3, 4, 5}, attribution.ExpandLines(aiEntry.LineRanges))

	rec, ok := note.Metadata.Prompts[aiEntry.Hash]
	require.True(t, ok)
	require.Equal(t, 0, rec.OverridenLines)

	// Fully committed: the working log must be gone.
	remaining, err := log.ReadAllCheckpoints()
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func trimNLLocal(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
