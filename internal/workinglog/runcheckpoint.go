package workinglog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/attrgit/attrgit/internal/attribution"
	"github.com/attrgit/attrgit/internal/gitfacade"
	"github.com/attrgit/attrgit/internal/noteschema"
)

// maxTextSniffBytes bounds how much of a file is inspected for a NUL byte
// when classifying it as text vs binary (spec §9 open question resolution).
const maxTextSniffBytes = 8192

// Input bundles everything RunCheckpoint needs beyond the working log and
// git facade it is handed explicitly.
type Input struct {
	Kind       Kind
	Author     string
	AgentID    *noteschema.AgentID
	Transcript *noteschema.Transcript
	Timestamp  int64
	// HeadRev is the commit a fresh working log's attributions are seeded
	// from via blame; empty for the empty-repository pseudo-parent.
	HeadRev string
}

// RunCheckpoint builds and appends one checkpoint from the current working
// tree change set (spec §4.4). It returns (nil, nil) if nothing changed.
func RunCheckpoint(ctx context.Context, facade *gitfacade.Facade, log *Log, in Input) (*Checkpoint, error) {
	workdir, err := facade.Workdir(ctx)
	if err != nil {
		return nil, err
	}

	priorCheckpoints, err := log.ReadAllCheckpoints()
	if err != nil {
		return nil, err
	}
	isFreshLog := len(priorCheckpoints) == 0

	paths, err := changedPaths(ctx, facade, priorCheckpoints)
	if err != nil {
		return nil, err
	}

	authorID := (&Checkpoint{Kind: in.Kind, AgentID: in.AgentID}).AuthorID()

	var entries []Entry
	for _, path := range paths {
		entry, ok, err := buildEntry(ctx, facade, log, path, priorCheckpoints, isFreshLog, in, workdir, authorID)
		if err != nil {
			return nil, err
		}
		if ok {
			entries = append(entries, entry)
		}
	}

	if len(entries) == 0 {
		return nil, nil
	}

	cp := Checkpoint{
		Kind:       in.Kind,
		Author:     in.Author,
		Timestamp:  in.Timestamp,
		AgentID:    in.AgentID,
		Transcript: in.Transcript,
		Entries:    entries,
		Snapshot:   combinedSnapshotHash(entries),
	}
	if err := log.AppendCheckpoint(cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// changedPaths is the union of every git-status-changed text path (excluding
// unmerged files) and every path that appears in a prior checkpoint (so a
// file that has returned to its pre-edit state is still considered, to
// record its disappearance from the working log's live set).
func changedPaths(ctx context.Context, facade *gitfacade.Facade, priorCheckpoints []Checkpoint) ([]string, error) {
	statusEntries, err := facade.Status(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []string
	for _, e := range statusEntries {
		if e.StagedStatus == 'U' || e.WorktreeStatus == 'U' {
			continue
		}
		if !seen[e.Path] {
			seen[e.Path] = true
			out = append(out, e.Path)
		}
	}
	for _, cp := range priorCheckpoints {
		for _, entry := range cp.Entries {
			if !seen[entry.File] {
				seen[entry.File] = true
				out = append(out, entry.File)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func buildEntry(
	ctx context.Context,
	facade *gitfacade.Facade,
	log *Log,
	path string,
	priorCheckpoints []Checkpoint,
	isFreshLog bool,
	in Input,
	workdir string,
	authorID string,
) (Entry, bool, error) {
	current, currentExists, err := readWorkdirFile(workdir, path)
	if err != nil {
		return Entry{}, false, err
	}

	previous, previousAttrs, err := previousVersion(ctx, facade, log, path, priorCheckpoints, isFreshLog, in)
	if err != nil {
		return Entry{}, false, err
	}

	if isBinary(current) || isBinary(previous) {
		return Entry{}, false, nil
	}
	if currentExists && string(current) == string(previous) {
		return Entry{}, false, nil
	}
	if !currentExists && len(previous) == 0 {
		return Entry{}, false, nil
	}

	newAttrs := attribution.Update(previous, current, previousAttrs, authorID, in.Timestamp)
	lineAttrs := attribution.AttributionsToLineAttributions(current, newAttrs)

	blobSHA, err := log.PersistFileVersion(current)
	if err != nil {
		return Entry{}, false, err
	}

	return Entry{
		File:             path,
		BlobSHA:          blobSHA,
		Attributions:     newAttrs,
		LineAttributions: lineAttrs,
	}, true, nil
}

// previousVersion resolves a path's previous content and seed attributions:
// from the most recent prior checkpoint entry if one exists, otherwise from
// HEAD (blame-seeded on a fresh log, unattributed otherwise — Update's own
// T5 gap fill then attributes it to Human).
func previousVersion(
	ctx context.Context,
	facade *gitfacade.Facade,
	log *Log,
	path string,
	priorCheckpoints []Checkpoint,
	isFreshLog bool,
	in Input,
) ([]byte, []attribution.Attribution, error) {
	for i := len(priorCheckpoints) - 1; i >= 0; i-- {
		entry, ok := priorCheckpoints[i].EntryFor(path)
		if !ok {
			continue
		}
		content, err := log.GetFileVersion(entry.BlobSHA)
		if err != nil {
			return nil, nil, err
		}
		return content, entry.Attributions, nil
	}

	if in.HeadRev == "" {
		return nil, nil, nil
	}
	content, ok, err := facade.FileAtRevision(ctx, in.HeadRev, path)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, nil
	}
	if !isFreshLog {
		return content, nil, nil
	}

	seeded, err := seedFromBlame(ctx, facade, in.HeadRev, path, content, in.Timestamp)
	if err != nil {
		return content, nil, nil //nolint:nilerr // blame seeding is best-effort; fall back to ungapped content
	}
	return content, seeded, nil
}

// seedFromBlame restricts HEAD blame to non-Human authors so that earlier AI
// attributions from prior commits persist into a fresh working log.
func seedFromBlame(ctx context.Context, facade *gitfacade.Facade, headRev, path string, content []byte, timestamp int64) ([]attribution.Attribution, error) {
	blame, err := facade.Blame(ctx, headRev, path)
	if err != nil {
		return nil, err
	}

	lineHash := make(map[int]string)
	noteCache := make(map[string]*noteschema.AuthorshipLog)
	for _, bl := range blame {
		note, ok := noteCache[bl.CommitSHA]
		if !ok {
			note = readNote(ctx, facade, bl.CommitSHA)
			noteCache[bl.CommitSHA] = note
		}
		if note == nil {
			continue
		}
		fa, ok := note.FindFile(path)
		if !ok {
			continue
		}
		for _, e := range fa.Entries {
			if e.Hash == attribution.HumanAuthorID {
				continue
			}
			for _, line := range attribution.ExpandLines(e.LineRanges) {
				if line == bl.Line {
					lineHash[line] = e.Hash
				}
			}
		}
	}
	if len(lineHash) == 0 {
		return nil, nil
	}

	byHash := make(map[string][]int)
	for line, hash := range lineHash {
		byHash[hash] = append(byHash[hash], line)
	}

	var attrs []attribution.Attribution
	for hash, lines := range byHash {
		ranges := attribution.CompressLines(lines)
		for _, cr := range attribution.LineRangesToCharRanges(content, ranges) {
			attrs = append(attrs, attribution.Attribution{Start: cr[0], End: cr[1], AuthorID: hash, Timestamp: timestamp - 1})
		}
	}
	sort.Slice(attrs, func(i, j int) bool { return attrs[i].Start < attrs[j].Start })
	return attrs, nil
}

func readNote(ctx context.Context, facade *gitfacade.Facade, commitSHA string) *noteschema.AuthorshipLog {
	data, ok, err := facade.NotesShow(ctx, commitSHA)
	if err != nil || !ok {
		return nil
	}
	var note noteschema.AuthorshipLog
	if err := json.Unmarshal(data, &note); err != nil {
		return nil
	}
	return &note
}

func readWorkdirFile(workdir, path string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(workdir, path)) //nolint:gosec // path comes from git status/ls-tree output scoped to the repository
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func isBinary(content []byte) bool {
	n := len(content)
	if n > maxTextSniffBytes {
		n = maxTextSniffBytes
	}
	for _, b := range content[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}

func combinedSnapshotHash(entries []Entry) string {
	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].File < sorted[j].File })
	h := sha256.New()
	for _, e := range sorted {
		h.Write([]byte(e.File))
		h.Write([]byte{0})
		h.Write([]byte(e.BlobSHA))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
