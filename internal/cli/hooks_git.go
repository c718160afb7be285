package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/attrgit/attrgit/internal/gitfacade"
	"github.com/attrgit/attrgit/internal/logging"
	"github.com/attrgit/attrgit/internal/repostorage"
	"github.com/attrgit/attrgit/internal/rewrite"
	"github.com/attrgit/attrgit/internal/wrapper"
)

// newHooksGitCmd groups the handlers the native git hooks `attrgit init`
// installs invoke. They are the authoritative source for rewrite events
// internal/wrapper cannot observe on its own (commit --amend and rebase's
// old/new commit pairs), and a safety net for commits made outside attrgit
// entirely (an IDE calling git directly).
func newHooksGitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "git",
		Short:  "Git hook handlers",
		Hidden: true,
	}
	cmd.AddCommand(newHooksGitPostCommitCmd())
	cmd.AddCommand(newHooksGitPrePushCmd())
	cmd.AddCommand(newHooksGitPostRewriteCmd())
	cmd.AddCommand(newHooksGitReferenceTransactionCmd())
	return cmd
}

func newHooksGitPostCommitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post-commit",
		Args:  cobra.NoArgs,
		Short: "Handle the post-commit git hook",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := logging.WithComponent(context.Background(), "hooks.post-commit")
			facade, store, err := facadeAndStore()
			if err != nil {
				return err
			}
			head, err := facade.Head(ctx)
			if err != nil {
				return nil //nolint:nilerr // unborn HEAD; nothing to project
			}
			if err := wrapper.PublishCommit(ctx, facade, store, head); err != nil {
				logging.Error(ctx, "post-commit authorship projection failed", "commit", head, "error", err.Error())
			}
			return nil
		},
	}
}

func newHooksGitPrePushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pre-push <remote> [url]",
		Args:  cobra.RangeArgs(1, 2),
		Short: "Handle the pre-push git hook",
		RunE: func(_ *cobra.Command, args []string) error {
			ctx := logging.WithComponent(context.Background(), "hooks.pre-push")
			// Drain stdin per the pre-push hook protocol; the wrapper-level
			// `attrgit push` interception already pushes the notes refspec
			// once the underlying push succeeds, so this is a safety net
			// logging hook that does no further work for a direct git push.
			_, _ = io.Copy(io.Discard, os.Stdin)
			logging.Debug(ctx, "pre-push invoked", "remote", args[0])
			return nil
		},
	}
}

func newHooksGitPostRewriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "post-rewrite <command>",
		Args:  cobra.ExactArgs(1),
		Short: "Handle the post-rewrite git hook",
		RunE: func(_ *cobra.Command, args []string) error {
			ctx := logging.WithComponent(context.Background(), "hooks.post-rewrite")
			facade, store, err := facadeAndStore()
			if err != nil {
				return err
			}
			pairs, err := readRewritePairs(os.Stdin)
			if err != nil {
				return err
			}
			if len(pairs) == 0 {
				return nil
			}

			humanAuthor, _ := wrapper.ResolveHumanAuthor(ctx, facade) //nolint:errcheck // best-effort attribution label
			now := time.Now().Unix()

			switch args[0] {
			case "amend":
				p := pairs[0]
				event := rewrite.Event{
					Kind:        rewrite.KindCommitAmend,
					Timestamp:   now,
					Original:    p.Source,
					Amended:     p.New,
					HumanAuthor: humanAuthor,
				}
				if err := wrapper.ReconcileEvent(ctx, facade, store, event); err != nil {
					logging.Error(ctx, "amend reconciliation failed", "error", err.Error())
				}
			default: // "rebase"
				event := rewrite.Event{
					Kind:        rewrite.KindRebaseBatch,
					Timestamp:   now,
					Pairs:       pairs,
					HumanAuthor: humanAuthor,
				}
				if err := wrapper.ReconcileEvent(ctx, facade, store, event); err != nil {
					logging.Error(ctx, "rebase batch reconciliation failed", "error", err.Error())
				}
			}
			return nil
		},
	}
}

func newHooksGitReferenceTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "reference-transaction <state>",
		Args:   cobra.ExactArgs(1),
		Short:  "Handle the reference-transaction git hook",
		Hidden: true,
		RunE: func(_ *cobra.Command, args []string) error {
			ctx := logging.WithComponent(context.Background(), "hooks.reference-transaction")
			// Only the "committed" state reflects refs that actually moved;
			// "prepared"/"aborted" must not trigger reconciliation.
			if args[0] != "committed" {
				_, _ = io.Copy(io.Discard, os.Stdin)
				return nil
			}
			facade, store, err := facadeAndStore()
			if err != nil {
				return err
			}

			updates, err := readRefUpdates(os.Stdin)
			if err != nil {
				return err
			}
			for _, u := range updates {
				if u.ref != "HEAD" || u.oldValue == gitfacade.ZeroOID || u.newValue == gitfacade.ZeroOID {
					continue
				}
				handleMergeCommit(ctx, facade, store, u.newValue)
			}
			return nil
		},
	}
}

// handleMergeCommit appends and reconciles a Merge event when HEAD moved to
// a commit with more than one parent: plain `git merge` (non-squash, non
// fast-forward) fires no post-rewrite hook, so reference-transaction is the
// only native hook that can observe it.
func handleMergeCommit(ctx context.Context, facade *gitfacade.Facade, store *repostorage.Store, newHead string) {
	parents, err := facade.Parents(ctx, newHead)
	if err != nil || len(parents) < 2 {
		return
	}
	humanAuthor, _ := wrapper.ResolveHumanAuthor(ctx, facade) //nolint:errcheck // best-effort attribution label
	event := rewrite.Event{
		Kind:        rewrite.KindMerge,
		Timestamp:   time.Now().Unix(),
		MergeCommit: newHead,
		FirstParent: parents[0],
		// Publish no-ops when the merge's base working log is empty, so
		// always attempting it is cheaper than detecting real conflict
		// resolution from a reference-transaction hook's limited view.
		HasResolved: true,
		HumanAuthor: humanAuthor,
	}
	if err := wrapper.ReconcileEvent(ctx, facade, store, event); err != nil {
		logging.Error(ctx, "merge reconciliation failed", "error", err.Error())
	}
}

type refUpdate struct {
	oldValue, newValue, ref string
}

func readRefUpdates(r io.Reader) ([]refUpdate, error) {
	var updates []refUpdate
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 3 {
			continue
		}
		updates = append(updates, refUpdate{oldValue: fields[0], newValue: fields[1], ref: fields[2]})
	}
	return updates, scanner.Err()
}

func readRewritePairs(r io.Reader) ([]rewrite.Pair, error) {
	var pairs []rewrite.Pair
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		pairs = append(pairs, rewrite.Pair{Source: fields[0], New: fields[1]})
	}
	return pairs, scanner.Err()
}
