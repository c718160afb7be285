package wrapper

import (
	"context"
	"time"

	"github.com/attrgit/attrgit/internal/gitfacade"
	"github.com/attrgit/attrgit/internal/noteschema"
	"github.com/attrgit/attrgit/internal/repostorage"
	"github.com/attrgit/attrgit/internal/workinglog"
)

// CurrentBaseCommit returns the working log key for the repository's
// current state: HEAD's SHA, or "" for the empty-repository pseudo-parent
// when HEAD is unborn.
func CurrentBaseCommit(ctx context.Context, facade *gitfacade.Facade) string {
	head, err := facade.Head(ctx)
	if err != nil {
		return ""
	}
	return head
}

// RecordCheckpoint runs and appends one checkpoint against the repository's
// current working log (spec §4.4), a no-op if nothing changed.
func RecordCheckpoint(
	ctx context.Context,
	facade *gitfacade.Facade,
	store *repostorage.Store,
	kind workinglog.Kind,
	author string,
	agentID *noteschema.AgentID,
	transcript *noteschema.Transcript,
) (*workinglog.Checkpoint, error) {
	baseCommit := CurrentBaseCommit(ctx, facade)
	log := workinglog.Open(store, baseCommit)

	cp, err := workinglog.RunCheckpoint(ctx, facade, log, workinglog.Input{
		Kind:       kind,
		Author:     author,
		AgentID:    agentID,
		Transcript: transcript,
		Timestamp:  time.Now().Unix(),
		HeadRev:    baseCommit,
	})
	if err != nil {
		return nil, err
	}
	return cp, nil
}
