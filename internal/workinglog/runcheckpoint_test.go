package workinglog_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/attrgit/attrgit/internal/gitfacade"
	"github.com/attrgit/attrgit/internal/paths"
	"github.com/attrgit/attrgit/internal/repostorage"
	"github.com/attrgit/attrgit/internal/workinglog"
)

func initRepoWithCommit(t *testing.T, content string) (dir string, headSHA string) {
	t.Helper()
	dir = t.TempDir()
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
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(content), 0o644))
	run("add", "a.txt")
	run("commit", "-m", "base")

	cmd := exec.Command("git", "-C", dir, "rev-parse", "HEAD")
	out, err := cmd.Output()
	require.NoError(t, err)
	headSHA = trimNL(string(out))
	return dir, headSHA
}

func trimNL(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func chdir(t *testing.T, dir string) {
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

func TestRunCheckpointScenarioA(t *testing.T) {
	dir, head := initRepoWithCommit(t, "Base line 1\nBase line 2\n")
	chdir(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("Base line 1\nBase line 2\nNEW\nHello\nWorld\n"), 0o644))

	facade := gitfacade.New("git", gitfacade.GlobalArgs{"-C", dir})
	store := repostorage.New()
	log := workinglog.Open(store, head)

	cp, err := workinglog.RunCheckpoint(context.Background(), facade, log, workinglog.Input{
		Kind:      workinglog.KindAiAgent,
		Author:    "agent",
		AgentID:   nil,
		Timestamp: 1000,
		HeadRev:   head,
	})
	require.NoError(t, err)
	require.NotNil(t, cp)
	require.Len(t, cp.Entries, 1)

	entry := cp.Entries[0]
	require.Equal(t, "a.txt", entry.File)

	all, err := log.ReadAllCheckpoints()
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestRunCheckpointNoChangesIsNoop(t *testing.T) {
	dir, head := initRepoWithCommit(t, "unchanged\n")
	chdir(t, dir)

	facade := gitfacade.New("git", gitfacade.GlobalArgs{"-C", dir})
	store := repostorage.New()
	log := workinglog.Open(store, head)

	cp, err := workinglog.RunCheckpoint(context.Background(), facade, log, workinglog.Input{
		Kind:      workinglog.KindHuman,
		Author:    "human",
		Timestamp: 1000,
		HeadRev:   head,
	})
	require.NoError(t, err)
	require.Nil(t, cp)
}
