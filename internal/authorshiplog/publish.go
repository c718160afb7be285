package authorshiplog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/attrgit/attrgit/internal/attribution"
	"github.com/attrgit/attrgit/internal/gitfacade"
	"github.com/attrgit/attrgit/internal/noteschema"
	"github.com/attrgit/attrgit/internal/repostorage"
	"github.com/attrgit/attrgit/internal/workinglog"
)

// PublishInput bundles everything Publish needs to run the post-commit
// projection pipeline for one commit (spec §4.5).
type PublishInput struct {
	// BaseCommit is the working log's key ("" for the initial pseudo-parent,
	// published under gitfacade.EmptyTreeSHA semantics).
	BaseCommit string
	CommitSHA  string
	HumanAuthor string
}

// Publish runs the full post-commit projection pipeline: it reads the
// working log for BaseCommit, projects it onto CommitSHA's committed lines,
// attaches the resulting AuthorshipLog as a git note, and performs the
// working-log handoff (delete if fully committed, otherwise rebuild keyed by
// CommitSHA with only the still-unstaged attributions).
func Publish(ctx context.Context, facade *gitfacade.Facade, store *repostorage.Store, in PublishInput) error {
	attestations, prompts, checkpoints, unstagedByPath, err := Project(ctx, facade, store, in.BaseCommit, in.CommitSHA, in.HumanAuthor)
	if err != nil {
		return err
	}
	if len(attestations) == 0 {
		return nil
	}
	if err := WriteNote(ctx, facade, in.CommitSHA, attestations, prompts, in.BaseCommit, in.HumanAuthor); err != nil {
		return err
	}
	return Handoff(store, in.BaseCommit, in.CommitSHA, checkpoints, unstagedByPath)
}

// Project runs steps 1-8 of the pipeline (spec §4.5) without writing
// anything: it reads the working log for baseCommit and projects it onto
// commitSHA's committed lines. Exported so reconciliation paths that must
// overlay this projection onto carried-forward attestations (e.g.
// CommitAmend) can do so before a single, merged WriteNote call.
func Project(ctx context.Context, facade *gitfacade.Facade, store *repostorage.Store, baseCommit, commitSHA, humanAuthor string) (
	attestations []noteschema.FileAttestation,
	prompts map[string]noteschema.PromptRecord,
	checkpoints []workinglog.Checkpoint,
	unstagedByPath map[string][]int,
	err error,
) {
	log := workinglog.Open(store, baseCommit)
	checkpoints, err = log.ReadAllCheckpoints()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("read working log: %w", err)
	}
	if len(checkpoints) == 0 {
		return nil, nil, checkpoints, nil, nil
	}

	committedFiles, err := facade.ListCommitFiles(ctx, commitSHA)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("list commit files: %w", err)
	}
	inCommit := make(map[string]bool, len(committedFiles))
	for _, p := range committedFiles {
		inCommit[p] = true
	}

	diffFrom := baseCommit
	if diffFrom == "" {
		diffFrom = gitfacade.EmptyTreeSHA
	}

	paths := workingLogPaths(checkpoints, inCommit)

	prompts = make(map[string]noteschema.PromptRecord)
	unstagedByPath = make(map[string][]int)

	for _, path := range paths {
		committedHunks, err := facade.DiffAddedLines(ctx, diffFrom, commitSHA, path)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("diff added lines %s: %w", path, err)
		}
		unstagedHunks, err := facade.DiffWorkdirAddedLines(ctx, commitSHA, path)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("diff workdir added lines %s: %w", path, err)
		}
		committedLines := hunkLines(committedHunks)
		unstagedLines := hunkLines(unstagedHunks)
		sort.Ints(unstagedLines)
		unstagedByPath[path] = unstagedLines

		events := fileEvents(checkpoints, path)
		final, everAssigned := aggregateLineAuthors(events)
		committedLineHash := filterToCommitted(final, unstagedLines, committedLines)
		if len(committedLineHash) == 0 {
			continue
		}

		groups := groupByHash(committedLineHash)
		entries := make([]noteschema.AttestationEntry, 0, len(groups))
		for _, g := range groups {
			entries = append(entries, noteschema.AttestationEntry{Hash: g.Hash, LineRanges: g.Ranges})
			if g.Hash == attribution.HumanAuthorID {
				continue
			}
			if _, ok := prompts[g.Hash]; ok {
				continue
			}
			rec := noteschema.PromptRecord{
				OverridenLines: overriddenLines(g.Hash, final, everAssigned),
				HumanAuthor:    humanAuthor,
			}
			if agentID, transcript := promptDetail(checkpoints, g.Hash); agentID != nil || transcript != nil {
				rec.AgentID = agentID
				if transcript != nil {
					rec.Messages = transcript.Messages
				}
			}
			prompts[g.Hash] = rec
		}

		attestations = append(attestations, noteschema.FileAttestation{FilePath: path, Entries: entries})
	}

	return attestations, prompts, checkpoints, unstagedByPath, nil
}

// WriteNote serializes attestations and prompts into an AuthorshipLog and
// attaches it to commitSHA (spec §4.5 step 9).
func WriteNote(ctx context.Context, facade *gitfacade.Facade, commitSHA string, attestations []noteschema.FileAttestation, prompts map[string]noteschema.PromptRecord, baseCommit, humanAuthor string) error {
	authorshipLog := noteschema.AuthorshipLog{
		Attestations: attestations,
		Metadata: noteschema.Metadata{
			Prompts:     prompts,
			BaseCommit:  baseCommit,
			HumanAuthor: humanAuthor,
		},
	}
	data, err := json.Marshal(authorshipLog)
	if err != nil {
		return fmt.Errorf("marshal authorship log: %w", err)
	}
	return facade.NotesAdd(ctx, commitSHA, data)
}

// workingLogPaths is the set of paths touched by any checkpoint entry that
// also appear in the commit's tree, sorted for deterministic iteration.
func workingLogPaths(checkpoints []workinglog.Checkpoint, inCommit map[string]bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, cp := range checkpoints {
		for _, e := range cp.Entries {
			if !inCommit[e.File] || seen[e.File] {
				continue
			}
			seen[e.File] = true
			out = append(out, e.File)
		}
	}
	sort.Strings(out)
	return out
}

// fileEvents projects a path's checkpoint entries, oldest first, into the
// working-directory-coordinate line events aggregateLineAuthors replays.
func fileEvents(checkpoints []workinglog.Checkpoint, path string) []lineEvent {
	var events []lineEvent
	for _, cp := range checkpoints {
		entry, ok := cp.EntryFor(path)
		if !ok {
			continue
		}
		hash := checkpointHash(cp)
		collapsed := attribution.CollapseByPrecedence(entry.LineAttributions)
		for _, la := range collapsed {
			lines := make([]int, 0, la.EndLine-la.StartLine+1)
			for l := la.StartLine; l <= la.EndLine; l++ {
				lines = append(lines, l)
			}
			// A collapsed Human line range still carries its own identity
			// (HumanAuthorID), independent of the checkpoint's own hash.
			if la.AuthorID == attribution.HumanAuthorID {
				events = append(events, lineEvent{Hash: attribution.HumanAuthorID, Lines: lines})
				continue
			}
			events = append(events, lineEvent{Hash: hash, Lines: lines})
		}
	}
	return events
}

// checkpointHash returns the attestation hash a checkpoint's non-Human lines
// publish under: Human itself for Human checkpoints, PromptHash otherwise.
func checkpointHash(cp workinglog.Checkpoint) string {
	if cp.Kind == workinglog.KindHuman {
		return attribution.HumanAuthorID
	}
	return PromptHash(cp)
}

// promptDetail finds the AgentID and transcript of the first checkpoint that
// published under hash, for populating metadata.prompts.
func promptDetail(checkpoints []workinglog.Checkpoint, hash string) (*noteschema.AgentID, *noteschema.Transcript) {
	for _, cp := range checkpoints {
		if checkpointHash(cp) == hash {
			return cp.AgentID, cp.Transcript
		}
	}
	return nil, nil
}

func hunkLines(hunks []gitfacade.AddedHunk) []int {
	var lines []int
	for _, h := range hunks {
		for l := h.StartLine; l < h.StartLine+h.LineCount; l++ {
			lines = append(lines, l)
		}
	}
	return lines
}

// Handoff implements the spec §4.5 "Working-log handoff" paragraph: delete
// the working log for baseCommit if no unstaged AI-authored lines remain,
// otherwise rebuild a new working log keyed by commitSHA containing only the
// still-unstaged attributions. A nil or empty checkpoints list is a no-op
// delete of baseCommit's (possibly already-absent) working log.
func Handoff(store *repostorage.Store, baseCommit, commitSHA string, checkpoints []workinglog.Checkpoint, unstagedByPath map[string][]int) error {
	oldLog := workinglog.Open(store, baseCommit)
	if len(checkpoints) == 0 {
		return oldLog.Delete()
	}

	anyUnstaged := false
	for _, lines := range unstagedByPath {
		if len(lines) > 0 {
			anyUnstaged = true
			break
		}
	}
	if !anyUnstaged {
		return oldLog.Delete()
	}

	newLog := workinglog.Open(store, commitSHA)
	for _, cp := range checkpoints {
		var survivors []workinglog.Entry
		for _, e := range cp.Entries {
			unstagedLines := unstagedByPath[e.File]
			if len(unstagedLines) == 0 {
				continue
			}
			content, err := oldLog.GetFileVersion(e.BlobSHA)
			if err != nil {
				return fmt.Errorf("read blob for handoff %s: %w", e.File, err)
			}
			charRanges := attribution.LineRangesToCharRanges(content, attribution.CompressLines(unstagedLines))
			filtered := filterAttributionsToRanges(e.Attributions, charRanges)
			if len(filtered) == 0 {
				continue
			}
			blobSHA, err := newLog.PersistFileVersion(content)
			if err != nil {
				return fmt.Errorf("persist blob for handoff %s: %w", e.File, err)
			}
			survivors = append(survivors, workinglog.Entry{
				File:             e.File,
				BlobSHA:          blobSHA,
				Attributions:     filtered,
				LineAttributions: attribution.AttributionsToLineAttributions(content, filtered),
			})
		}
		if len(survivors) == 0 {
			continue
		}
		newCP := cp
		newCP.Entries = survivors
		if err := newLog.AppendCheckpoint(newCP); err != nil {
			return fmt.Errorf("append handoff checkpoint: %w", err)
		}
	}

	return oldLog.Delete()
}

// filterAttributionsToRanges clips attribution byte ranges to their
// intersection with ranges, dropping spans that fall entirely outside it.
func filterAttributionsToRanges(attrs []attribution.Attribution, ranges [][2]int) []attribution.Attribution {
	var out []attribution.Attribution
	for _, a := range attrs {
		for _, r := range ranges {
			start, end := a.Start, a.End
			if start < r[0] {
				start = r[0]
			}
			if end > r[1] {
				end = r[1]
			}
			if start < end {
				out = append(out, attribution.Attribution{Start: start, End: end, AuthorID: a.AuthorID, Timestamp: a.Timestamp})
			}
		}
	}
	return out
}
