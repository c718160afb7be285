package rewrite_test

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/attrgit/attrgit/internal/attribution"
	"github.com/attrgit/attrgit/internal/gitfacade"
	"github.com/attrgit/attrgit/internal/noteschema"
	"github.com/attrgit/attrgit/internal/paths"
	"github.com/attrgit/attrgit/internal/repostorage"
	"github.com/attrgit/attrgit/internal/rewrite"
	"github.com/attrgit/attrgit/internal/workinglog"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	run := func(args ...string) string {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=Test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoErrorf(t, err, "git %v: %s", args, out)
		return string(out)
	}
	run("init", "--initial-branch=main")
	return dir
}

func commitFile(t *testing.T, dir, path, content, message string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, path), []byte(content), 0o644))
	run := func(args ...string) string {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=Test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoErrorf(t, err, "git %v: %s", args, out)
		return string(out)
	}
	run("add", path)
	run("commit", "-m", message)
	return trimNL(run("rev-parse", "HEAD"))
}

func trimNL(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
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

// TestReconcileCherryPickPropagatesAttribution builds a source commit with a
// published AI attestation, simulates a cherry-pick producing an unrelated
// new commit with the same file content, and verifies the attestation
// propagates unchanged onto the new commit.
func TestReconcileCherryPickPropagatesAttribution(t *testing.T) {
	dir := initRepo(t)
	chdirTo(t, dir)
	facade := gitfacade.New("git", gitfacade.GlobalArgs{"-C", dir})
	store := repostorage.New()
	ctx := context.Background()

	sourceSHA := commitFile(t, dir, "a.txt", "line1\nline2\nline3\n", "source")

	note := noteschema.AuthorshipLog{
		Attestations: []noteschema.FileAttestation{
			{FilePath: "a.txt", Entries: []noteschema.AttestationEntry{
				{Hash: attribution.HumanAuthorID, LineRanges: []attribution.LineRange{attribution.NewRange(1, 2)}},
				{Hash: "aihash1", LineRanges: []attribution.LineRange{attribution.NewSingle(3)}},
			}},
		},
		Metadata: noteschema.Metadata{
			Prompts: map[string]noteschema.PromptRecord{
				"aihash1": {OverridenLines: 0, HumanAuthor: "Test <test@example.com>"},
			},
			HumanAuthor: "Test <test@example.com>",
		},
	}
	data, err := json.Marshal(note)
	require.NoError(t, err)
	require.NoError(t, facade.NotesAdd(ctx, sourceSHA, data))

	// Simulate a cherry-pick onto a different branch that reproduces the
	// same file content verbatim under a new commit SHA.
	runGit := func(args ...string) string {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=Other", "GIT_AUTHOR_EMAIL=other@example.com",
			"GIT_COMMITTER_NAME=Other", "GIT_COMMITTER_EMAIL=other@example.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoErrorf(t, err, "git %v: %s", args, out)
		return string(out)
	}
	runGit("checkout", "--orphan", "other")
	runGit("rm", "-rf", "--cached", ".")
	newSHA := commitFile(t, dir, "a.txt", "line1\nline2\nline3\n", "picked")

	err = rewrite.Reconcile(ctx, facade, store, rewrite.Event{
		Kind:         rewrite.KindCherryPick,
		SourceCommit: sourceSHA,
		NewCommit:    newSHA,
	})
	require.NoError(t, err)

	newNoteData, ok, err := facade.NotesShow(ctx, newSHA)
	require.NoError(t, err)
	require.True(t, ok)

	var newNote noteschema.AuthorshipLog
	require.NoError(t, json.Unmarshal(newNoteData, &newNote))
	fa, ok := newNote.FindFile("a.txt")
	require.True(t, ok)

	var aiEntry *noteschema.AttestationEntry
	for i := range fa.Entries {
		if fa.Entries[i].Hash == "aihash1" {
			aiEntry = &fa.Entries[i]
		}
	}
	require.NotNil(t, aiEntry)
	require.Equal(t, []int{3}, attribution.ExpandLines(aiEntry.LineRanges))
}

// TestReconcileRebaseStepWithTargetBranchDivergence covers Scenario D: the
// target branch the rebase lands on has already diverged from the picked
// commit's own parent, for reasons unrelated to the rewrite. The
// merge-base-anchored propagation must still attribute the AI-authored line
// to the AI hash, and must not sweep the target branch's own independent
// addition into the propagated attestation.
func TestReconcileRebaseStepWithTargetBranchDivergence(t *testing.T) {
	dir := initRepo(t)
	chdirTo(t, dir)
	facade := gitfacade.New("git", gitfacade.GlobalArgs{"-C", dir})
	store := repostorage.New()
	ctx := context.Background()

	base := commitFile(t, dir, "a.txt", "one\ntwo\nthree\n", "base")

	sourceSHA := commitFile(t, dir, "a.txt", "one-ai\ntwo\nthree\n", "feature")
	note := noteschema.AuthorshipLog{
		Attestations: []noteschema.FileAttestation{
			{FilePath: "a.txt", Entries: []noteschema.AttestationEntry{
				{Hash: "aihash1", LineRanges: []attribution.LineRange{attribution.NewSingle(1)}},
				{Hash: attribution.HumanAuthorID, LineRanges: []attribution.LineRange{attribution.NewRange(2, 3)}},
			}},
		},
		Metadata: noteschema.Metadata{
			Prompts: map[string]noteschema.PromptRecord{
				"aihash1": {OverridenLines: 0, HumanAuthor: "Test <test@example.com>"},
			},
			HumanAuthor: "Test <test@example.com>",
		},
	}
	data, err := json.Marshal(note)
	require.NoError(t, err)
	require.NoError(t, facade.NotesAdd(ctx, sourceSHA, data))

	// Target branch independently appends an unrelated line on top of base,
	// with no knowledge of sourceSHA's edit.
	out, err := exec.Command("git", "-C", dir, "checkout", base).CombinedOutput()
	require.NoErrorf(t, err, "%s", out)
	newParent := commitFile(t, dir, "a.txt", "one\ntwo\nthree\nfour-human\n", "diverged")

	// The rewrite lands sourceSHA's edit on top of newParent: both hunks are
	// disjoint, so the rebase applies cleanly.
	newSHA := commitFile(t, dir, "a.txt", "one-ai\ntwo\nthree\nfour-human\n", "rebased")

	err = rewrite.Reconcile(ctx, facade, store, rewrite.Event{
		Kind:         rewrite.KindRebaseStep,
		SourceCommit: sourceSHA,
		NewCommit:    newSHA,
		NewParent:    newParent,
	})
	require.NoError(t, err)

	newNoteData, ok, err := facade.NotesShow(ctx, newSHA)
	require.NoError(t, err)
	require.True(t, ok)
	var newNote noteschema.AuthorshipLog
	require.NoError(t, json.Unmarshal(newNoteData, &newNote))
	fa, ok := newNote.FindFile("a.txt")
	require.True(t, ok)

	var aiLines []int
	for _, e := range fa.Entries {
		lines := attribution.ExpandLines(e.LineRanges)
		require.NotContains(t, lines, 4, "line 4 is the target branch's own unrelated addition, never attested by source")
		if e.Hash == "aihash1" {
			aiLines = lines
		}
	}
	require.Equal(t, []int{1}, aiLines)
}

// TestReconcileCherryPickIsIdempotent covers I6: re-running the same
// CherryPick event twice must produce byte-identical notes both times.
func TestReconcileCherryPickIsIdempotent(t *testing.T) {
	dir := initRepo(t)
	chdirTo(t, dir)
	facade := gitfacade.New("git", gitfacade.GlobalArgs{"-C", dir})
	store := repostorage.New()
	ctx := context.Background()

	sourceSHA := commitFile(t, dir, "a.txt", "line1\nline2\nline3\n", "source")
	note := noteschema.AuthorshipLog{
		Attestations: []noteschema.FileAttestation{
			{FilePath: "a.txt", Entries: []noteschema.AttestationEntry{
				{Hash: attribution.HumanAuthorID, LineRanges: []attribution.LineRange{attribution.NewRange(1, 2)}},
				{Hash: "aihash1", LineRanges: []attribution.LineRange{attribution.NewSingle(3)}},
			}},
		},
		Metadata: noteschema.Metadata{
			Prompts: map[string]noteschema.PromptRecord{
				"aihash1": {OverridenLines: 0, HumanAuthor: "Test <test@example.com>"},
			},
			HumanAuthor: "Test <test@example.com>",
		},
	}
	data, err := json.Marshal(note)
	require.NoError(t, err)
	require.NoError(t, facade.NotesAdd(ctx, sourceSHA, data))

	out, err := exec.Command("git", "-C", dir, "checkout", "--orphan", "other").CombinedOutput()
	require.NoErrorf(t, err, "%s", out)
	out, err = exec.Command("git", "-C", dir, "rm", "-rf", "--cached", ".").CombinedOutput()
	require.NoErrorf(t, err, "%s", out)
	newSHA := commitFile(t, dir, "a.txt", "line1\nline2\nline3\n", "picked")

	event := rewrite.Event{Kind: rewrite.KindCherryPick, SourceCommit: sourceSHA, NewCommit: newSHA}

	require.NoError(t, rewrite.Reconcile(ctx, facade, store, event))
	first, ok, err := facade.NotesShow(ctx, newSHA)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, rewrite.Reconcile(ctx, facade, store, event))
	second, ok, err := facade.NotesShow(ctx, newSHA)
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, first, second)
}

// TestReconcileSoftResetReconstructsWorkingLog covers Scenario E: resetting
// past two commits reconstructs one synthetic checkpoint per discarded
// commit, oldest first, with each commit's attested lines keeping their
// hash and its unattested lines defaulting to Human.
func TestReconcileSoftResetReconstructsWorkingLog(t *testing.T) {
	dir := initRepo(t)
	chdirTo(t, dir)
	facade := gitfacade.New("git", gitfacade.GlobalArgs{"-C", dir})
	store := repostorage.New()
	ctx := context.Background()

	target := commitFile(t, dir, "a.txt", "base\n", "base")
	c1 := commitFile(t, dir, "a.txt", "base\nc1line\n", "c1")
	note := noteschema.AuthorshipLog{
		Attestations: []noteschema.FileAttestation{
			{FilePath: "a.txt", Entries: []noteschema.AttestationEntry{
				{Hash: "aihash1", LineRanges: []attribution.LineRange{attribution.NewSingle(2)}},
			}},
		},
		Metadata: noteschema.Metadata{HumanAuthor: "Test <test@example.com>"},
	}
	data, err := json.Marshal(note)
	require.NoError(t, err)
	require.NoError(t, facade.NotesAdd(ctx, c1, data))
	c2 := commitFile(t, dir, "a.txt", "base\nc1line\nc2line\n", "c2")

	err = rewrite.Reconcile(ctx, facade, store, rewrite.Event{
		Kind:         rewrite.KindResetMixed,
		OldHead:      c2,
		TargetCommit: target,
		HumanAuthor:  "Test <test@example.com>",
		Timestamp:    1700000000000,
	})
	require.NoError(t, err)

	checkpoints, err := workinglog.Open(store, target).ReadAllCheckpoints()
	require.NoError(t, err)
	require.Len(t, checkpoints, 2, "one synthetic checkpoint per discarded commit, oldest first")

	entry1, ok := checkpoints[0].EntryFor("a.txt")
	require.True(t, ok)
	require.Len(t, entry1.Attributions, 1)
	require.Equal(t, "aihash1", entry1.Attributions[0].AuthorID)

	entry2, ok := checkpoints[1].EntryFor("a.txt")
	require.True(t, ok)
	require.Len(t, entry2.Attributions, 1)
	require.Equal(t, attribution.HumanAuthorID, entry2.Attributions[0].AuthorID)

	oldLines, err := store.WorkingLogLines(c2)
	require.NoError(t, err)
	require.Empty(t, oldLines, "old head's working log is discarded after reconstruction")
}

func TestReconcileResetHardDeletesWorkingLog(t *testing.T) {
	dir := initRepo(t)
	chdirTo(t, dir)
	facade := gitfacade.New("git", gitfacade.GlobalArgs{"-C", dir})
	store := repostorage.New()

	require.NoError(t, store.AppendWorkingLogLine("deadbeef", []byte(`{"kind":"Human"}`)))
	lines, err := store.WorkingLogLines("deadbeef")
	require.NoError(t, err)
	require.Len(t, lines, 1)

	err = rewrite.Reconcile(context.Background(), facade, store, rewrite.Event{
		Kind:    rewrite.KindResetHard,
		OldHead: "deadbeef",
	})
	require.NoError(t, err)

	lines, err = store.WorkingLogLines("deadbeef")
	require.NoError(t, err)
	require.Empty(t, lines)
}
