package repostorage_test

import (
	"encoding/json"
	"os"
	"os/exec"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/attrgit/attrgit/internal/paths"
	"github.com/attrgit/attrgit/internal/repostorage"
)

func chdirToNewRepo(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	out, err := exec.Command("git", "-C", dir, "init", "--initial-branch=main").CombinedOutput()
	require.NoErrorf(t, err, "%s", out)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(cwd)
		paths.ClearCache()
	})
	paths.ClearCache()
}

func TestWorkingLogAppendAndRead(t *testing.T) {
	chdirToNewRepo(t)
	s := repostorage.New()

	require.NoError(t, s.AppendWorkingLogLine("initial", []byte(`{"n":1}`)))
	require.NoError(t, s.AppendWorkingLogLine("initial", []byte(`{"n":2}`)))

	lines, err := s.WorkingLogLines("initial")
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte(`{"n":1}`), []byte(`{"n":2}`)}, lines)
}

func TestWorkingLogMissingReturnsNil(t *testing.T) {
	chdirToNewRepo(t)
	s := repostorage.New()
	lines, err := s.WorkingLogLines("deadbeef")
	require.NoError(t, err)
	require.Nil(t, lines)
}

func TestPersistBlobIdempotent(t *testing.T) {
	chdirToNewRepo(t)
	s := repostorage.New()

	h1, err := s.PersistBlob("initial", []byte("hello\n"))
	require.NoError(t, err)
	h2, err := s.PersistBlob("initial", []byte("hello\n"))
	require.NoError(t, err)
	require.Equal(t, h1, h2)

	content, err := s.ReadBlob("initial", h1)
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(content))
}

func TestAppendRewriteEventTrimsAndDedupsMalformed(t *testing.T) {
	chdirToNewRepo(t)
	s := repostorage.New()

	isValid := func(line []byte) bool {
		var v any
		return json.Unmarshal(line, &v) == nil
	}

	require.NoError(t, s.AppendRewriteEvent([]byte(`{"kind":"Commit"}`), isValid))
	require.NoError(t, s.AppendRewriteEvent([]byte(`not json`), isValid))
	require.NoError(t, s.AppendRewriteEvent([]byte(`{"kind":"CommitAmend"}`), isValid))

	lines, err := s.RewriteLogLines()
	require.NoError(t, err)
	// newest-first: CommitAmend was appended last, and the malformed line
	// from the previous append was dropped on the next append.
	require.Equal(t, [][]byte{
		[]byte(`{"kind":"CommitAmend"}`),
		[]byte(`{"kind":"Commit"}`),
	}, lines)
}

func TestAppendRewriteEventTrimsToMax(t *testing.T) {
	chdirToNewRepo(t)
	s := repostorage.New()
	isValid := func(line []byte) bool {
		var v any
		return json.Unmarshal(line, &v) == nil
	}

	for i := 0; i < paths.RewriteLogMaxEvents+10; i++ {
		require.NoError(t, s.AppendRewriteEvent([]byte(`{"n":`+strconv.Itoa(i)+`}`), isValid))
	}

	lines, err := s.RewriteLogLines()
	require.NoError(t, err)
	require.Len(t, lines, paths.RewriteLogMaxEvents)
}
