package wrapper

import (
	"context"

	"github.com/attrgit/attrgit/internal/authorshiplog"
	"github.com/attrgit/attrgit/internal/gitfacade"
	"github.com/attrgit/attrgit/internal/repostorage"
)

// PublishCommit runs the post-commit projection pipeline for commitSHA
// (spec §4.5), resolving its base commit from its first parent.
func PublishCommit(ctx context.Context, facade *gitfacade.Facade, store *repostorage.Store, commitSHA string) error {
	parent, hasParent, err := facade.Parent(ctx, commitSHA)
	if err != nil {
		return err
	}
	baseCommit := parent
	if !hasParent {
		baseCommit = ""
	}

	humanAuthor, err := ResolveHumanAuthor(ctx, facade)
	if err != nil {
		return err
	}

	return authorshiplog.Publish(ctx, facade, store, authorshiplog.PublishInput{
		BaseCommit:  baseCommit,
		CommitSHA:   commitSHA,
		HumanAuthor: humanAuthor,
	})
}
