package rewrite

import (
	"context"
	"fmt"
	"sort"

	"github.com/attrgit/attrgit/internal/attribution"
	"github.com/attrgit/attrgit/internal/authorshiplog"
	"github.com/attrgit/attrgit/internal/gitfacade"
	"github.com/attrgit/attrgit/internal/logging"
	"github.com/attrgit/attrgit/internal/noteschema"
	"github.com/attrgit/attrgit/internal/repostorage"
	"github.com/attrgit/attrgit/internal/workinglog"
)

// Reconcile dispatches one rewrite event to its per-kind reconciliation
// logic (spec §4.6 "Per-event behavior"). Failures are never fatal to the
// wrapped git command: per spec §7, callers log and leave existing notes
// untouched rather than aborting.
func Reconcile(ctx context.Context, facade *gitfacade.Facade, store *repostorage.Store, e Event) error {
	switch e.Kind {
	case KindCommit:
		// Pure addition; §4.5's post-commit projection already handled it.
		return nil

	case KindCommitAmend:
		return reconcileAmend(ctx, facade, store, e)

	case KindCherryPick, KindRebaseStep, KindRebaseInteractiveStep:
		return threeWayPropagate(ctx, facade, e.SourceCommit, e.NewCommit, e.NewParent)

	case KindRebaseBatch:
		for _, p := range e.Pairs {
			if err := threeWayPropagate(ctx, facade, p.Source, p.New, ""); err != nil {
				logging.Error(ctx, "rebase batch pair reconciliation failed",
					"source", p.Source, "new", p.New, "error", err.Error())
			}
		}
		return nil

	case KindMergeSquash:
		return reconcileMergeSquash(ctx, facade, e)

	case KindResetSoft, KindResetMixed, KindResetMerge:
		return reconcileSoftReset(ctx, facade, store, e)

	case KindResetHard:
		return workinglog.Open(store, e.OldHead).Delete()

	case KindMerge:
		return reconcileMerge(ctx, facade, store, e)

	default:
		return nil
	}
}

// reconcileAmend implements spec §4.6 CommitAmend: the original's attested
// lines survive where the amended diff still added them, overlaid with
// whatever new AI content the working log contributed to the amend itself.
func reconcileAmend(ctx context.Context, facade *gitfacade.Facade, store *repostorage.Store, e Event) error {
	parent, hasParent, err := facade.Parent(ctx, e.Amended)
	if err != nil {
		return fmt.Errorf("resolve parent of %s: %w", e.Amended, err)
	}
	diffFrom := parent
	if !hasParent {
		parent = ""
		diffFrom = gitfacade.EmptyTreeSHA
	}

	originalNote, ok, err := authorshiplog.ReadNote(ctx, facade, e.Original)
	if err != nil {
		return err
	}

	carried := make(map[string]map[int]string) // file -> (line -> hash)
	prompts := make(map[string]noteschema.PromptRecord)

	if ok {
		for _, fa := range originalNote.Attestations {
			committedHunks, err := facade.DiffAddedLines(ctx, diffFrom, e.Amended, fa.FilePath)
			if err != nil {
				return fmt.Errorf("diff added lines %s: %w", fa.FilePath, err)
			}
			committed := make(map[int]bool)
			for _, h := range committedHunks {
				for l := h.StartLine; l < h.StartLine+h.LineCount; l++ {
					committed[l] = true
				}
			}

			lineHash := make(map[int]string)
			for _, entry := range fa.Entries {
				for _, line := range attribution.ExpandLines(entry.LineRanges) {
					if committed[line] {
						lineHash[line] = entry.Hash
					}
				}
			}
			if len(lineHash) > 0 {
				carried[fa.FilePath] = lineHash
				for _, entry := range fa.Entries {
					if entry.Hash == attribution.HumanAuthorID {
						continue
					}
					if rec, ok := originalNote.Metadata.Prompts[entry.Hash]; ok {
						prompts[entry.Hash] = rec
					}
				}
			}
		}
	}

	attestations, newPrompts, checkpoints, unstagedByPath, err := authorshiplog.Project(ctx, facade, store, parent, e.Amended, e.HumanAuthor)
	if err != nil {
		return err
	}
	for hash, rec := range newPrompts {
		prompts[hash] = rec
	}
	for _, fa := range attestations {
		lineHash := carried[fa.FilePath]
		if lineHash == nil {
			lineHash = make(map[int]string)
			carried[fa.FilePath] = lineHash
		}
		for _, entry := range fa.Entries {
			for _, line := range attribution.ExpandLines(entry.LineRanges) {
				lineHash[line] = entry.Hash // overlay: new working-log content wins
			}
		}
	}

	if len(carried) == 0 {
		return nil
	}

	paths := make([]string, 0, len(carried))
	for path := range carried {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	final := make([]noteschema.FileAttestation, 0, len(paths))
	for _, path := range paths {
		entries := authorshiplog.EntriesFromLineHash(carried[path])
		if len(entries) == 0 {
			continue
		}
		final = append(final, noteschema.FileAttestation{FilePath: path, Entries: entries})
	}
	if len(final) == 0 {
		return nil
	}

	humanAuthor := e.HumanAuthor
	if humanAuthor == "" && ok {
		humanAuthor = originalNote.Metadata.HumanAuthor
	}
	if err := authorshiplog.WriteNote(ctx, facade, e.Amended, final, prompts, parent, humanAuthor); err != nil {
		return err
	}
	return authorshiplog.Handoff(store, parent, e.Amended, checkpoints, unstagedByPath)
}

// reconcileMergeSquash implements spec §4.6 MergeSquash: every contributing
// commit from base_head (exclusive) to source_head (inclusive), in
// topological order, is three-way-propagated onto the squash commit; later
// commits win on overlapping lines since each pass overwrites lineHash.
func reconcileMergeSquash(ctx context.Context, facade *gitfacade.Facade, e Event) error {
	commits, err := facade.RevList(ctx, e.BaseHead, e.SourceHead)
	if err != nil {
		return fmt.Errorf("list squash source commits: %w", err)
	}

	fileLineHash := make(map[string]map[int]string)
	prompts := make(map[string]noteschema.PromptRecord)

	for _, commit := range commits {
		note, ok, err := authorshiplog.ReadNote(ctx, facade, commit)
		if err != nil {
			logging.Error(ctx, "reading squash source note failed", "commit", commit, "error", err.Error())
			continue
		}
		if !ok {
			continue
		}
		mergedTree := mergeBaseTree(ctx, facade, commit, e.BaseHead, true, e.SquashCommit)
		for _, fa := range note.Attestations {
			sourceContent, ok, err := facade.FileAtRevision(ctx, commit, fa.FilePath)
			if err != nil || !ok {
				continue
			}
			newContent, ok, err := facade.FileAtRevision(ctx, e.SquashCommit, fa.FilePath)
			if err != nil || !ok {
				continue
			}
			var mergedContent []byte
			if mergedTree != "" {
				if c, ok, err := facade.FileAtRevision(ctx, mergedTree, fa.FilePath); err == nil && ok {
					mergedContent = c
				}
			}
			lineHash := fileLineHash[fa.FilePath]
			if lineHash == nil {
				lineHash = make(map[int]string)
				fileLineHash[fa.FilePath] = lineHash
			}
			projectFileOntoLineHash(sourceContent, mergedContent, newContent, fa.Entries, lineHash)
		}
		for hash, rec := range note.Metadata.Prompts {
			prompts[hash] = rec
		}
	}

	if len(fileLineHash) == 0 {
		return nil
	}

	paths := make([]string, 0, len(fileLineHash))
	for path := range fileLineHash {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var attestations []noteschema.FileAttestation
	referenced := make(map[string]bool)
	for _, path := range paths {
		entries := authorshiplog.EntriesFromLineHash(fileLineHash[path])
		if len(entries) == 0 {
			continue
		}
		for _, entry := range entries {
			referenced[entry.Hash] = true
		}
		attestations = append(attestations, noteschema.FileAttestation{FilePath: path, Entries: entries})
	}
	if len(attestations) == 0 {
		return nil
	}

	final := make(map[string]noteschema.PromptRecord, len(referenced))
	for hash := range referenced {
		if rec, ok := prompts[hash]; ok {
			final[hash] = rec
		}
	}
	return authorshiplog.WriteNote(ctx, facade, e.SquashCommit, attestations, final, e.BaseHead, e.HumanAuthor)
}

// reconcileSoftReset implements spec §4.6 ResetSoft/ResetMixed/ResetMerge:
// the commits being "uncommitted" become synthetic checkpoints in a working
// log rebuilt for target_commit, one checkpoint per discarded commit, oldest
// first, so the lines they added read as uncommitted edits again.
func reconcileSoftReset(ctx context.Context, facade *gitfacade.Facade, store *repostorage.Store, e Event) error {
	commits, err := facade.RevList(ctx, e.TargetCommit, e.OldHead)
	if err != nil {
		return fmt.Errorf("list discarded commits: %w", err)
	}
	if len(commits) == 0 {
		return nil
	}

	newLog := workinglog.Open(store, e.TargetCommit)
	pathspec := pathspecSet(e.Pathspec)

	for _, commit := range commits {
		parent, hasParent, err := facade.Parent(ctx, commit)
		if err != nil {
			logging.Error(ctx, "resolving parent during soft reset reconstruction failed", "commit", commit, "error", err.Error())
			continue
		}
		parentRev := parent
		if !hasParent {
			parentRev = gitfacade.EmptyTreeSHA
		}

		note, hasNote, err := authorshiplog.ReadNote(ctx, facade, commit)
		if err != nil {
			logging.Error(ctx, "reading note during soft reset reconstruction failed", "commit", commit, "error", err.Error())
			hasNote = false
		}
		files, err := facade.ListCommitFiles(ctx, commit)
		if err != nil {
			logging.Error(ctx, "listing files during soft reset reconstruction failed", "commit", commit, "error", err.Error())
			continue
		}

		var entries []workinglog.Entry
		for _, path := range files {
			if len(pathspec) > 0 && !pathspec[path] {
				continue
			}
			hunks, err := facade.DiffAddedLines(ctx, parentRev, commit, path)
			if err != nil || len(hunks) == 0 {
				continue
			}
			content, ok, err := facade.FileAtRevision(ctx, commit, path)
			if err != nil || !ok {
				continue
			}

			lineHash := make(map[int]string)
			for _, h := range hunks {
				for l := h.StartLine; l < h.StartLine+h.LineCount; l++ {
					lineHash[l] = attribution.HumanAuthorID
				}
			}
			if hasNote {
				if fa, ok := note.FindFile(path); ok {
					for _, entry := range fa.Entries {
						for _, line := range attribution.ExpandLines(entry.LineRanges) {
							if _, wasAdded := lineHash[line]; wasAdded {
								lineHash[line] = entry.Hash
							}
						}
					}
				}
			}

			byHash := make(map[string][]int)
			for line, hash := range lineHash {
				byHash[hash] = append(byHash[hash], line)
			}
			var finalAttrs []attribution.Attribution
			for hash, lines := range byHash {
				for _, cr := range attribution.LineRangesToCharRanges(content, attribution.CompressLines(lines)) {
					finalAttrs = append(finalAttrs, attribution.Attribution{Start: cr[0], End: cr[1], AuthorID: hash, Timestamp: e.Timestamp})
				}
			}
			sort.Slice(finalAttrs, func(i, j int) bool { return finalAttrs[i].Start < finalAttrs[j].Start })

			blobSHA, err := newLog.PersistFileVersion(content)
			if err != nil {
				return fmt.Errorf("persist blob during soft reset reconstruction: %w", err)
			}
			entries = append(entries, workinglog.Entry{
				File:             path,
				BlobSHA:          blobSHA,
				Attributions:     finalAttrs,
				LineAttributions: attribution.AttributionsToLineAttributions(content, finalAttrs),
			})
		}

		if len(entries) == 0 {
			continue
		}
		cp := workinglog.Checkpoint{
			Kind:      workinglog.KindHuman,
			Author:    e.HumanAuthor,
			Timestamp: e.Timestamp,
			Entries:   entries,
		}
		if err := newLog.AppendCheckpoint(cp); err != nil {
			return fmt.Errorf("append reconstructed checkpoint: %w", err)
		}
	}

	return workinglog.Open(store, e.OldHead).Delete()
}

// reconcileMerge implements spec §4.6 Merge (non-squash): both parents'
// notes remain valid as-is; only if the merge itself introduced resolved
// changes does §4.5 run, with the merge commit's first parent as base.
func reconcileMerge(ctx context.Context, facade *gitfacade.Facade, store *repostorage.Store, e Event) error {
	if !e.HasResolved {
		return nil
	}
	return authorshiplog.Publish(ctx, facade, store, authorshiplog.PublishInput{
		BaseCommit:  e.FirstParent,
		CommitSHA:   e.MergeCommit,
		HumanAuthor: e.HumanAuthor,
	})
}

func pathspecSet(pathspec []string) map[string]bool {
	if len(pathspec) == 0 {
		return nil
	}
	set := make(map[string]bool, len(pathspec))
	for _, p := range pathspec {
		set[p] = true
	}
	return set
}

