package gitfacade

import (
	"context"
	"fmt"
	"strings"

	"github.com/attrgit/attrgit/internal/paths"
)

// Identity is a commit author/committer identity and timestamp, threaded
// through as GIT_{AUTHOR,COMMITTER}_{NAME,EMAIL,DATE} so commit-tree
// reproduces the identity of the commit it is re-creating rather than the
// identity of whoever is running attrgit.
type Identity struct {
	Name  string
	Email string
	// Date is a git-accepted date string, e.g. "1700000000 -0700".
	Date string
}

func (id Identity) authorEnv() []string {
	return []string{
		"GIT_AUTHOR_NAME=" + id.Name,
		"GIT_AUTHOR_EMAIL=" + id.Email,
		"GIT_AUTHOR_DATE=" + id.Date,
	}
}

func (id Identity) committerEnv() []string {
	return []string{
		"GIT_COMMITTER_NAME=" + id.Name,
		"GIT_COMMITTER_EMAIL=" + id.Email,
		"GIT_COMMITTER_DATE=" + id.Date,
	}
}

// NewCommit creates a commit object with the given tree, parents, message,
// and author/committer identities. If updateRef is supplied (spec §4.1
// "commit(..., update_ref?)"), the named ref is moved to the new commit by
// compare-and-swap against its first parent — or against ZeroOID when there
// is no parent — so the move fails atomically if the ref moved out from
// under the caller.
func (f *Facade) NewCommit(ctx context.Context, tree string, parents []string, message string, author, committer Identity, updateRef ...string) (string, error) {
	env := append(author.authorEnv(), committer.committerEnv()...)
	sha, err := f.CommitTree(ctx, tree, parents, message, env)
	if err != nil {
		return "", err
	}
	if len(updateRef) == 0 || updateRef[0] == "" {
		return sha, nil
	}
	oldSHA := ZeroOID
	if len(parents) > 0 {
		oldSHA = parents[0]
	}
	if err := f.UpdateRefCAS(ctx, updateRef[0], sha, oldSHA); err != nil {
		return "", err
	}
	return sha, nil
}

// NotesAdd writes (overwriting) the authorship note attached to a commit,
// under the fixed "refs/notes/ai/<commit>" namespace (spec §4.5).
func (f *Facade) NotesAdd(ctx context.Context, commitSHA string, content []byte) error {
	ref := paths.NotesRef(commitSHA)
	if _, err := f.runWithStdin(ctx, content, "notes", "--ref="+ref, "add", "-f", "-F", "-", commitSHA); err != nil {
		return fmt.Errorf("notes add %s: %w", commitSHA, err)
	}
	return nil
}

// NotesShow reads the authorship note attached to a commit, returning
// (nil, false, nil) if no note exists.
func (f *Facade) NotesShow(ctx context.Context, commitSHA string) ([]byte, bool, error) {
	ref := paths.NotesRef(commitSHA)
	out, err := f.run(ctx, "notes", "--ref="+ref, "show", commitSHA)
	if err != nil {
		var gitErr *Error
		if ok := isExitCode(err, &gitErr, 1); ok && strings.Contains(gitErr.Stderr, "no note found") {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("notes show %s: %w", commitSHA, err)
	}
	return out, true, nil
}

// NotesCopy duplicates the authorship note from one commit to another,
// overwriting any note already on the destination. Used when a rewrite
// produces a new commit SHA for unchanged content (spec §4.6 idempotence).
func (f *Facade) NotesCopy(ctx context.Context, fromCommit, toCommit string) error {
	note, ok, err := f.NotesShow(ctx, fromCommit)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	return f.NotesAdd(ctx, toCommit, note)
}

// CheckoutBranch switches the working tree to an existing local branch.
func (f *Facade) CheckoutBranch(ctx context.Context, branch string) error {
	if _, err := f.run(ctx, "checkout", branch); err != nil {
		return fmt.Errorf("checkout %s: %w", branch, err)
	}
	return nil
}

// Fetch runs `git fetch` for the given remote and refspecs.
func (f *Facade) Fetch(ctx context.Context, remote string, refspecs ...string) error {
	args := append([]string{"fetch", remote}, refspecs...)
	if _, err := f.run(ctx, args...); err != nil {
		return fmt.Errorf("fetch %s: %w", remote, err)
	}
	return nil
}
