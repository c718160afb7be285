package gitfacade_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/attrgit/attrgit/internal/gitfacade"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=Test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoErrorf(t, err, "git %v: %s", args, out)
	}
	run("init", "--initial-branch=main")
	return dir
}

func newFacade(dir string) *gitfacade.Facade {
	return gitfacade.New("git", gitfacade.GlobalArgs{"-C", dir})
}

func TestHeadUnbornRepository(t *testing.T) {
	dir := initRepo(t)
	f := newFacade(dir)
	_, err := f.Head(context.Background())
	require.Error(t, err)
	var gitErr *gitfacade.Error
	require.ErrorAs(t, err, &gitErr)
}

func TestCommitTreeAndNotesRoundTrip(t *testing.T) {
	dir := initRepo(t)
	f := newFacade(dir)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello\n"), 0o644))
	blobSHA, err := f.HashObject(ctx, []byte("hello\n"), true)
	require.NoError(t, err)
	require.Len(t, blobSHA, 40)

	out, err := exec.Command("git", "-C", dir, "update-index", "--add", "--cacheinfo", "100644,"+blobSHA+",a.txt").CombinedOutput()
	require.NoErrorf(t, err, "%s", out)

	tree, err := f.WriteTree(ctx)
	require.NoError(t, err)

	identity := gitfacade.Identity{Name: "Test", Email: "test@example.com", Date: "1700000000 +0000"}
	commitSHA, err := f.NewCommit(ctx, tree, nil, "initial commit\n", identity, identity)
	require.NoError(t, err)
	require.Len(t, commitSHA, 40)

	err = f.NotesAdd(ctx, commitSHA, []byte(`{"attestations":[]}`))
	require.NoError(t, err)

	note, ok, err := f.NotesShow(ctx, commitSHA)
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"attestations":[]}`, string(note))
}

func TestNotesShowMissing(t *testing.T) {
	dir := initRepo(t)
	f := newFacade(dir)
	ctx := context.Background()

	tree, err := f.WriteTree(ctx)
	require.NoError(t, err)
	identity := gitfacade.Identity{Name: "Test", Email: "test@example.com", Date: "1700000000 +0000"}
	commitSHA, err := f.NewCommit(ctx, tree, nil, "empty\n", identity, identity)
	require.NoError(t, err)

	_, ok, err := f.NotesShow(ctx, commitSHA)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDiffAddedLinesWholeFile(t *testing.T) {
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("one\ntwo\nthree\n"), 0o644))
	out, err := exec.Command("git", "-C", dir, "add", "a.txt").CombinedOutput()
	require.NoErrorf(t, err, "%s", out)

	f := newFacade(dir)
	ctx := context.Background()
	tree, err := f.WriteTree(ctx)
	require.NoError(t, err)

	hunks, err := f.DiffAddedLines(ctx, gitfacade.EmptyTreeSHA, tree, "a.txt")
	require.NoError(t, err)
	require.Equal(t, []gitfacade.AddedHunk{{StartLine: 1, LineCount: 3}}, hunks)
}

func TestNewCommitUpdateRefCAS(t *testing.T) {
	dir := initRepo(t)
	f := newFacade(dir)
	ctx := context.Background()
	identity := gitfacade.Identity{Name: "Test", Email: "test@example.com", Date: "1700000000 +0000"}
	ref := "refs/heads/synthetic"

	tree, err := f.WriteTree(ctx)
	require.NoError(t, err)
	first, err := f.NewCommit(ctx, tree, nil, "first\n", identity, identity, ref)
	require.NoError(t, err)

	exists, err := f.RefExists(ctx, ref)
	require.NoError(t, err)
	require.True(t, exists)

	second, err := f.NewCommit(ctx, tree, []string{first}, "second\n", identity, identity, ref)
	require.NoError(t, err)

	// A CAS against the now-stale first commit must fail: the ref already
	// moved to second.
	_, err = f.NewCommit(ctx, tree, []string{first}, "conflicting\n", identity, identity, ref)
	require.Error(t, err)

	out, err := exec.Command("git", "-C", dir, "rev-parse", ref).CombinedOutput()
	require.NoError(t, err)
	require.Equal(t, second, strings.TrimSpace(string(out)))
}

func TestStatusUntracked(t *testing.T) {
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "untracked.txt"), []byte("x"), 0o644))

	f := newFacade(dir)
	entries, err := f.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "untracked.txt", entries[0].Path)
	require.Equal(t, byte('?'), entries[0].StagedStatus)
}
