package gitfacade

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Head returns the current HEAD commit SHA, or an error if the repository
// has no commits yet (unborn HEAD).
func (f *Facade) Head(ctx context.Context) (string, error) {
	out, err := f.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return trim(out), nil
}

// RevparseSingle resolves an arbitrary revision expression (branch, tag,
// "HEAD~2", partial SHA, ...) to a full object id.
func (f *Facade) RevparseSingle(ctx context.Context, rev string) (string, error) {
	out, err := f.run(ctx, "rev-parse", "--verify", rev+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", rev, err)
	}
	return trim(out), nil
}

// Workdir returns the repository's working tree root, or "" for a bare repository.
func (f *Facade) Workdir(ctx context.Context) (string, error) {
	out, err := f.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", nil //nolint:nilerr // bare repositories have no toplevel; caller treats "" as bare
	}
	return trim(out), nil
}

// Remotes returns the configured remote names.
func (f *Facade) Remotes(ctx context.Context) ([]string, error) {
	out, err := f.run(ctx, "remote")
	if err != nil {
		return nil, fmt.Errorf("list remotes: %w", err)
	}
	return splitNonEmptyLines(string(out)), nil
}

// RemoteURL returns the fetch URL configured for a remote.
func (f *Facade) RemoteURL(ctx context.Context, remote string) (string, error) {
	out, err := f.run(ctx, "remote", "get-url", remote)
	if err != nil {
		return "", fmt.Errorf("get-url %s: %w", remote, err)
	}
	return trim(out), nil
}

// ConfigGet reads a single-valued config key, returning ("", nil) if unset.
func (f *Facade) ConfigGet(ctx context.Context, key string) (string, error) {
	out, err := f.run(ctx, "config", "--get", key)
	if err != nil {
		var gitErr *Error
		if isExitCode(err, &gitErr, 1) {
			return "", nil
		}
		return "", fmt.Errorf("config get %s: %w", key, err)
	}
	return trim(out), nil
}

// ConfigSet writes a config key in the repository-local config file.
func (f *Facade) ConfigSet(ctx context.Context, key, value string) error {
	if _, err := f.run(ctx, "config", "--local", key, value); err != nil {
		return fmt.Errorf("config set %s: %w", key, err)
	}
	return nil
}

// FindBlob returns the raw content of a blob object.
func (f *Facade) FindBlob(ctx context.Context, sha string) ([]byte, error) {
	out, err := f.run(ctx, "cat-file", "blob", sha)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", sha, err)
	}
	return out, nil
}

// HashObject writes content as a loose blob and returns its object id.
// write controls whether the blob is persisted (false only hashes it).
func (f *Facade) HashObject(ctx context.Context, content []byte, write bool) (string, error) {
	args := []string{"hash-object", "--stdin"}
	if write {
		args = append(args, "-w")
	}
	out, err := f.runWithStdin(ctx, content, args...)
	if err != nil {
		return "", fmt.Errorf("hash-object: %w", err)
	}
	return trim(out), nil
}

// TreeEntry is one line of `git ls-tree`.
type TreeEntry struct {
	Mode string
	Type string
	SHA  string
	Path string
}

// LsTree lists the direct or recursive (if recursive is true) entries of a tree-ish.
func (f *Facade) LsTree(ctx context.Context, treeish string, recursive bool) ([]TreeEntry, error) {
	args := []string{"ls-tree"}
	if recursive {
		args = append(args, "-r")
	}
	args = append(args, treeish)
	out, err := f.run(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("ls-tree %s: %w", treeish, err)
	}
	var entries []TreeEntry
	for _, line := range splitNonEmptyLines(string(out)) {
		meta, path, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		fields := strings.Fields(meta)
		if len(fields) != 3 {
			continue
		}
		entries = append(entries, TreeEntry{Mode: fields[0], Type: fields[1], SHA: fields[2], Path: path})
	}
	return entries, nil
}

// ListCommitFiles lists every path present in a commit's tree.
func (f *Facade) ListCommitFiles(ctx context.Context, commitSHA string) ([]string, error) {
	entries, err := f.LsTree(ctx, commitSHA, true)
	if err != nil {
		return nil, fmt.Errorf("list commit files %s: %w", commitSHA, err)
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type == "blob" {
			paths = append(paths, e.Path)
		}
	}
	return paths, nil
}

// FileAtRevision returns a path's content as of a revision, or (nil, false,
// nil) if the path does not exist in that tree.
func (f *Facade) FileAtRevision(ctx context.Context, rev, path string) ([]byte, bool, error) {
	out, err := f.run(ctx, "show", rev+":"+path)
	if err != nil {
		var gitErr *Error
		if isExitCode(err, &gitErr, 128) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("show %s:%s: %w", rev, path, err)
	}
	return out, true, nil
}

// StatusEntry is one changed path reported by `git status --porcelain=v2`.
type StatusEntry struct {
	// Path is the working-tree-relative path.
	Path string
	// StagedStatus is the XY staged-side code ('M', 'A', 'D', 'R', '?', ...).
	StagedStatus byte
	// WorktreeStatus is the XY unstaged-side code.
	WorktreeStatus byte
}

// Status returns the repository's working tree and index status.
func (f *Facade) Status(ctx context.Context) ([]StatusEntry, error) {
	out, err := f.run(ctx, "status", "--porcelain=v2", "--untracked-files=all")
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	var entries []StatusEntry
	for _, line := range splitNonEmptyLines(string(out)) {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "1", "2": // ordinary or renamed/copied changed entry
			if len(fields[1]) != 2 {
				continue
			}
			path := fields[len(fields)-1]
			if fields[0] == "2" {
				// Renamed entries append "<path>\t<origPath>"; keep the new path only.
				path, _, _ = strings.Cut(path, "\t")
			}
			entries = append(entries, StatusEntry{
				Path:           path,
				StagedStatus:   fields[1][0],
				WorktreeStatus: fields[1][1],
			})
		case "?": // untracked
			entries = append(entries, StatusEntry{Path: fields[1], StagedStatus: '?', WorktreeStatus: '?'})
		case "u": // unmerged
			if len(fields) < 2 {
				continue
			}
			entries = append(entries, StatusEntry{Path: fields[len(fields)-1], StagedStatus: 'U', WorktreeStatus: 'U'})
		}
	}
	return entries, nil
}

// HasUncommittedChanges reports whether the working tree or index has any changes.
func (f *Facade) HasUncommittedChanges(ctx context.Context) (bool, error) {
	entries, err := f.Status(ctx)
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}

// MergeBase returns the best common ancestor of two revisions.
func (f *Facade) MergeBase(ctx context.Context, a, b string) (string, error) {
	out, err := f.run(ctx, "merge-base", a, b)
	if err != nil {
		return "", fmt.Errorf("merge-base %s %s: %w", a, b, err)
	}
	return trim(out), nil
}

// RefExists reports whether a ref name currently resolves to an object.
func (f *Facade) RefExists(ctx context.Context, ref string) (bool, error) {
	_, err := f.run(ctx, "rev-parse", "--verify", "--quiet", ref)
	if err != nil {
		var gitErr *Error
		if isExitCode(err, &gitErr, 1) {
			return false, nil
		}
		return false, fmt.Errorf("rev-parse --verify %s: %w", ref, err)
	}
	return true, nil
}

func isExitCode(err error, target **Error, code int) bool {
	ge, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = ge
	return ge.ExitCode == code
}

func splitNonEmptyLines(s string) []string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimRight(l, "\r")
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// ParseInt is a small helper shared by callers parsing numeric hunk header fields.
func ParseInt(s string) (int, error) {
	return strconv.Atoi(s)
}

// RevList returns the commits in (from, to] — exclusive of from, inclusive
// of to — oldest first (`git rev-list --reverse`).
func (f *Facade) RevList(ctx context.Context, from, to string) ([]string, error) {
	rangeExpr := to
	if from != "" {
		rangeExpr = from + ".." + to
	}
	out, err := f.run(ctx, "rev-list", "--reverse", rangeExpr)
	if err != nil {
		return nil, fmt.Errorf("rev-list %s: %w", rangeExpr, err)
	}
	return splitNonEmptyLines(string(out)), nil
}

// Parent returns a commit's first parent, or ("", false, nil) if it has none
// (a root commit).
func (f *Facade) Parent(ctx context.Context, commitSHA string) (string, bool, error) {
	sha, err := f.RevparseSingle(ctx, commitSHA+"^")
	if err != nil {
		var gitErr *Error
		if isExitCode(err, &gitErr, 128) {
			return "", false, nil
		}
		return "", false, err
	}
	return sha, true, nil
}

// Parents returns all of a commit's parents, in order (zero for a root
// commit, two or more for a merge commit).
func (f *Facade) Parents(ctx context.Context, commitSHA string) ([]string, error) {
	out, err := f.run(ctx, "rev-list", "--parents", "-n", "1", commitSHA)
	if err != nil {
		return nil, fmt.Errorf("list parents of %s: %w", commitSHA, err)
	}
	fields := strings.Fields(trim(out))
	if len(fields) <= 1 {
		return nil, nil
	}
	return fields[1:], nil
}

// ZeroOID is the all-zeroes object id git uses to mean "ref did not
// previously exist" or "ref was deleted" in hook stdin protocols.
const ZeroOID = "0000000000000000000000000000000000000000"
