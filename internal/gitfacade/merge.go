package gitfacade

import (
	"context"
	"fmt"
)

// MergeTreesFavorOurs performs an in-memory three-way merge of two tree-ish
// revisions against their common base, resolving any textual conflict in
// favor of "ours" (theirSide). It never touches the index or working tree.
// Used by the rewrite reconciler to recompute attribution coordinates across
// a rebase/cherry-pick without checking anything out (spec §4.6).
func (f *Facade) MergeTreesFavorOurs(ctx context.Context, base, ours, theirs string) (string, error) {
	out, err := f.run(ctx, "merge-tree", "-z", "--merge-base="+base, "-X", "ours", ours, theirs)
	if err != nil {
		return "", fmt.Errorf("merge-tree %s %s %s: %w", base, ours, theirs, err)
	}
	return trim(out), nil
}

// CommitTree creates a commit object from an existing tree and explicit
// parents, returning its SHA. It does not move any ref.
func (f *Facade) CommitTree(ctx context.Context, tree string, parents []string, message string, env []string) (string, error) {
	args := []string{"commit-tree", tree}
	for _, p := range parents {
		args = append(args, "-p", p)
	}
	out, err := f.runWithEnv(ctx, env, []byte(message), args...)
	if err != nil {
		return "", fmt.Errorf("commit-tree %s: %w", tree, err)
	}
	return trim(out), nil
}

// WriteTree writes the current index as a tree object and returns its SHA.
func (f *Facade) WriteTree(ctx context.Context) (string, error) {
	out, err := f.run(ctx, "write-tree")
	if err != nil {
		return "", fmt.Errorf("write-tree: %w", err)
	}
	return trim(out), nil
}

// UpdateRefCAS moves a ref to newSHA, failing atomically if it currently
// points somewhere other than oldSHA (compare-and-swap). Pass a 40-zero SHA
// as oldSHA to require that the ref not already exist.
func (f *Facade) UpdateRefCAS(ctx context.Context, ref, newSHA, oldSHA string) error {
	args := []string{"update-ref", ref, newSHA, oldSHA}
	if _, err := f.run(ctx, args...); err != nil {
		return fmt.Errorf("update-ref %s %s: %w", ref, newSHA, err)
	}
	return nil
}
