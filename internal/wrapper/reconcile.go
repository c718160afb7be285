package wrapper

import (
	"context"

	"github.com/attrgit/attrgit/internal/gitfacade"
	"github.com/attrgit/attrgit/internal/repostorage"
	"github.com/attrgit/attrgit/internal/rewrite"
)

// ReconcileEvent appends e to the rewrite log and immediately runs its
// reconciliation (spec §4.6). Appending first means a crash mid-reconcile
// still leaves a durable record an operator can replay.
func ReconcileEvent(ctx context.Context, facade *gitfacade.Facade, store *repostorage.Store, e rewrite.Event) error {
	if err := rewrite.Append(store, e); err != nil {
		return err
	}
	return rewrite.Reconcile(ctx, facade, store, e)
}
