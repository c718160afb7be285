package rewrite

import (
	"context"
	"fmt"

	"github.com/attrgit/attrgit/internal/attribution"
	"github.com/attrgit/attrgit/internal/authorshiplog"
	"github.com/attrgit/attrgit/internal/gitfacade"
	"github.com/attrgit/attrgit/internal/noteschema"
)

// unattributedSentinel marks spans attribution.Update introduces that did
// not exist in source's attestations (new or reflowed content with no prior
// label). propagateFile drops these: per spec §4.6 step 3, "drop labels
// that land on lines that do not exist in the new commit" — symmetrically, a
// line that has no old label gets none here either, since this reconciler
// only ever propagates existing authorship, it never originates it.
const unattributedSentinel = "\x00unattributed"

// propagateFile diffs fromContent against toContent using the same T1-T5
// engine attribution.Update applies to ordinary edits, keeping only the
// spans that survive as "equal" runs relative to fromAttrs (T1). Reusing
// attribution.Update here is deliberate: an "equal run keeps its old
// author" is exactly what reconciliation needs, and T5's gap-fill already
// gives any unattributed span of fromContent a Human default, which is the
// correct fallback when the source note was built before tracking began.
func propagateFile(fromContent, toContent []byte, fromAttrs []attribution.Attribution) []attribution.Attribution {
	propagated := attribution.Update(fromContent, toContent, fromAttrs, unattributedSentinel, 0)
	kept := make([]attribution.Attribution, 0, len(propagated))
	for _, a := range propagated {
		if a.AuthorID == unattributedSentinel {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

// mergeBaseTree computes spec §4.6 step 1-2 of CherryPick/Rebase-step
// reconciliation: the merge base of sourceCommit and newParent, merged
// against newCommit favoring sourceCommit's own content on any conflict.
// This anchors the line propagation below on the tree the rewrite was
// actually meant to produce, rather than diffing sourceCommit straight
// against newCommit: without it, content newParent already carried before
// the rewrite landed (unrelated branch divergence) is indistinguishable
// from content the rewrite itself introduced. Returns "" if newCommit has
// no parent to anchor on, or if the merge itself cannot be computed (a
// genuinely incompatible tree shape); callers fall back to propagating
// directly from source to new in that case.
func mergeBaseTree(ctx context.Context, facade *gitfacade.Facade, sourceCommit, newParent string, hasNewParent bool, newCommit string) string {
	mb := gitfacade.EmptyTreeSHA
	if hasNewParent {
		m, err := facade.MergeBase(ctx, sourceCommit, newParent)
		if err != nil {
			return ""
		}
		mb = m
	}
	merged, err := facade.MergeTreesFavorOurs(ctx, mb, sourceCommit, newCommit)
	if err != nil {
		return ""
	}
	return merged
}

// lineAttestationsToByteAttrs converts a file's published attestation
// entries (line-range coordinates) into byte Attributions over content, for
// feeding into propagateFile/attribution.Update.
func lineAttestationsToByteAttrs(content []byte, entries []noteschema.AttestationEntry) []attribution.Attribution {
	var attrs []attribution.Attribution
	for _, e := range entries {
		for _, cr := range attribution.LineRangesToCharRanges(content, e.LineRanges) {
			attrs = append(attrs, attribution.Attribution{Start: cr[0], End: cr[1], AuthorID: e.Hash, Timestamp: 0})
		}
	}
	return attrs
}

// projectFileOntoLineHash propagates one file's source attestations onto
// newContent and folds the result into lineHash (commit-coordinate line ->
// attestation hash), so callers can accumulate multiple contributing
// commits (spec §4.6 MergeSquash) before building the final attestation.
//
// When mergedContent is non-nil it is the file's content in the spec §4.6
// step 2 merge-base-anchored tree, and propagation runs in two hops:
// source -> merged, then merged -> new. The first hop keeps only the
// labels that survive onto the tree the rewrite was meant to produce; the
// second hop accounts for whatever the actual new commit does differently
// from that (further edits, conflict resolution). When mergedContent is
// nil (no merge base could be computed) propagation falls back to a
// single direct hop from source to new.
func projectFileOntoLineHash(sourceContent, mergedContent, newContent []byte, entries []noteschema.AttestationEntry, lineHash map[int]string) {
	sourceAttrs := lineAttestationsToByteAttrs(sourceContent, entries)

	bridged := sourceAttrs
	bridgeContent := sourceContent
	if mergedContent != nil {
		bridged = propagateFile(sourceContent, mergedContent, sourceAttrs)
		bridgeContent = mergedContent
	}
	propagated := propagateFile(bridgeContent, newContent, bridged)

	lineAttrs := attribution.AttributionsToLineAttributions(newContent, propagated)
	for _, la := range attribution.CollapseByPrecedence(lineAttrs) {
		for line := la.StartLine; line <= la.EndLine; line++ {
			lineHash[line] = la.AuthorID
		}
	}
}

// threeWayPropagate implements spec §4.6 step 1-4 for a single
// source->new commit pair: it reads source's authorship note, propagates
// every attested file's line labels onto the new commit's content, and
// writes the resulting AuthorshipLog as new's note. Carries forward
// source's metadata.prompts for every hash that survives. newParentHint, if
// non-empty, is used as new_parent directly (the hook that recorded the
// event already knows it); otherwise it is resolved from newCommit itself.
func threeWayPropagate(ctx context.Context, facade *gitfacade.Facade, sourceCommit, newCommit, newParentHint string) error {
	sourceNote, ok, err := authorshiplog.ReadNote(ctx, facade, sourceCommit)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	newParent, hasNewParent := newParentHint, newParentHint != ""
	if !hasNewParent {
		newParent, hasNewParent, err = facade.Parent(ctx, newCommit)
		if err != nil {
			return fmt.Errorf("resolve parent of %s: %w", newCommit, err)
		}
	}
	mergedTree := mergeBaseTree(ctx, facade, sourceCommit, newParent, hasNewParent, newCommit)

	var attestations []noteschema.FileAttestation
	referencedHashes := make(map[string]bool)

	for _, fa := range sourceNote.Attestations {
		sourceContent, ok, err := facade.FileAtRevision(ctx, sourceCommit, fa.FilePath)
		if err != nil {
			return fmt.Errorf("read %s at %s: %w", fa.FilePath, sourceCommit, err)
		}
		if !ok {
			continue
		}
		newContent, ok, err := facade.FileAtRevision(ctx, newCommit, fa.FilePath)
		if err != nil {
			return fmt.Errorf("read %s at %s: %w", fa.FilePath, newCommit, err)
		}
		if !ok {
			// File removed entirely by the rewrite; nothing to attest.
			continue
		}
		var mergedContent []byte
		if mergedTree != "" {
			if c, ok, err := facade.FileAtRevision(ctx, mergedTree, fa.FilePath); err == nil && ok {
				mergedContent = c
			}
		}

		lineHash := make(map[int]string)
		projectFileOntoLineHash(sourceContent, mergedContent, newContent, fa.Entries, lineHash)
		if len(lineHash) == 0 {
			continue
		}

		entries := authorshiplog.EntriesFromLineHash(lineHash)
		for _, e := range entries {
			referencedHashes[e.Hash] = true
		}
		attestations = append(attestations, noteschema.FileAttestation{FilePath: fa.FilePath, Entries: entries})
	}

	if len(attestations) == 0 {
		return nil
	}

	prompts := make(map[string]noteschema.PromptRecord, len(referencedHashes))
	for hash := range referencedHashes {
		if hash == attribution.HumanAuthorID {
			continue
		}
		if rec, ok := sourceNote.Metadata.Prompts[hash]; ok {
			prompts[hash] = rec
		}
	}

	return authorshiplog.WriteNote(ctx, facade, newCommit, attestations, prompts, sourceNote.Metadata.BaseCommit, sourceNote.Metadata.HumanAuthor)
}
