// Package wrapper implements attrgit's interception of the git verbs spec §6
// names as "observed by the core" (commit, reset, cherry-pick, push): the
// pre/post bookkeeping a plain git-hooks install cannot cover, because
// either the information only exists in the invocation's own argv (reset's
// mode flag, cherry-pick's source revision) or because git never invokes a
// hook for the operation at all (plain `git reset` fires no hook).
// Everything else (commit --amend, rebase, merge, plain commit) is instead
// reconstructed by the native git hooks `attrgit init` installs
// (internal/cli's hidden `hooks git ...` subtree), which is the
// authoritative source for old/new commit pairs.
package wrapper

import (
	"context"
	"strings"
	"time"

	"github.com/attrgit/attrgit/internal/config"
	"github.com/attrgit/attrgit/internal/gitfacade"
	"github.com/attrgit/attrgit/internal/logging"
	"github.com/attrgit/attrgit/internal/passthrough"
	"github.com/attrgit/attrgit/internal/repostorage"
	"github.com/attrgit/attrgit/internal/rewrite"
	"github.com/attrgit/attrgit/internal/workinglog"
)

// Run dispatches one full `attrgit <git-args...>` invocation: it resolves
// the configured git binary, splits off global arguments, runs whatever
// pre/post bookkeeping the verb needs around the passthrough exec, and
// returns the exit code the parent process should mirror.
func Run(ctx context.Context, rawArgs []string) (int, error) {
	cfg, err := config.Load()
	if err != nil {
		return -1, err
	}
	gitBinary, err := cfg.ResolveGitBinary()
	if err != nil {
		return -1, err
	}

	global, rest := splitGlobalArgs(rawArgs)
	facade := gitfacade.New(gitBinary, global)
	store := repostorage.New()
	verb, verbArgs := firstVerb(rest)

	switch verb {
	case "commit":
		return runCommit(ctx, facade, store, gitBinary, rawArgs)
	case "reset":
		return runReset(ctx, facade, store, gitBinary, rawArgs, verbArgs)
	case "cherry-pick":
		return runCherryPick(ctx, facade, store, gitBinary, rawArgs, verbArgs)
	case "push":
		return runPush(ctx, facade, gitBinary, rawArgs, verbArgs)
	default:
		return passthrough.Exec(ctx, gitBinary, rawArgs)
	}
}

func runCommit(ctx context.Context, facade *gitfacade.Facade, store *repostorage.Store, gitBinary string, rawArgs []string) (int, error) {
	author, err := ResolveHumanAuthor(ctx, facade)
	if err == nil {
		if _, cpErr := RecordCheckpoint(ctx, facade, store, workinglog.KindHuman, author, nil, nil); cpErr != nil {
			logging.Error(ctx, "pre-commit checkpoint failed", "error", cpErr.Error())
		}
	} else {
		logging.Error(ctx, "resolving human author for pre-commit checkpoint failed", "error", err.Error())
	}

	code, err := passthrough.Exec(ctx, gitBinary, rawArgs)
	if err != nil || code != 0 {
		return code, err
	}

	head, headErr := facade.Head(ctx)
	if headErr != nil {
		logging.Error(ctx, "resolving HEAD after commit failed", "error", headErr.Error())
		return code, nil
	}
	if pubErr := PublishCommit(ctx, facade, store, head); pubErr != nil {
		logging.Error(ctx, "post-commit authorship projection failed", "commit", head, "error", pubErr.Error())
	}
	return code, nil
}

func runReset(ctx context.Context, facade *gitfacade.Facade, store *repostorage.Store, gitBinary string, rawArgs, verbArgs []string) (int, error) {
	oldHead, err := facade.Head(ctx)
	if err != nil {
		return passthrough.Exec(ctx, gitBinary, rawArgs)
	}

	kind, target, pathspec := parseResetArgs(verbArgs)

	code, err := passthrough.Exec(ctx, gitBinary, rawArgs)
	if err != nil || code != 0 {
		return code, err
	}

	targetSHA, resolveErr := facade.RevparseSingle(ctx, target)
	if resolveErr != nil {
		logging.Error(ctx, "resolving reset target failed", "target", target, "error", resolveErr.Error())
		return code, nil
	}
	humanAuthor, _ := ResolveHumanAuthor(ctx, facade) //nolint:errcheck // best-effort attribution label, never blocks reset

	event := rewrite.Event{
		Kind:         kind,
		Timestamp:    time.Now().Unix(),
		OldHead:      oldHead,
		TargetCommit: targetSHA,
		Pathspec:     pathspec,
		HumanAuthor:  humanAuthor,
	}
	if reconcileErr := ReconcileEvent(ctx, facade, store, event); reconcileErr != nil {
		logging.Error(ctx, "reset reconciliation failed", "error", reconcileErr.Error())
	}
	return code, nil
}

func runCherryPick(ctx context.Context, facade *gitfacade.Facade, store *repostorage.Store, gitBinary string, rawArgs, verbArgs []string) (int, error) {
	source, ok := singleCherryPickSource(verbArgs)
	if !ok {
		return passthrough.Exec(ctx, gitBinary, rawArgs)
	}
	sourceSHA, err := facade.RevparseSingle(ctx, source)
	if err != nil {
		return passthrough.Exec(ctx, gitBinary, rawArgs)
	}

	code, err := passthrough.Exec(ctx, gitBinary, rawArgs)
	if err != nil || code != 0 {
		return code, err
	}

	newHead, headErr := facade.Head(ctx)
	if headErr != nil {
		logging.Error(ctx, "resolving HEAD after cherry-pick failed", "error", headErr.Error())
		return code, nil
	}
	event := rewrite.Event{
		Kind:         rewrite.KindCherryPick,
		Timestamp:    time.Now().Unix(),
		SourceCommit: sourceSHA,
		NewCommit:    newHead,
	}
	if reconcileErr := ReconcileEvent(ctx, facade, store, event); reconcileErr != nil {
		logging.Error(ctx, "cherry-pick reconciliation failed", "error", reconcileErr.Error())
	}
	if pubErr := PublishCommit(ctx, facade, store, newHead); pubErr != nil {
		logging.Error(ctx, "post-cherry-pick authorship projection failed", "error", pubErr.Error())
	}
	return code, nil
}

func runPush(ctx context.Context, facade *gitfacade.Facade, gitBinary string, rawArgs, verbArgs []string) (int, error) {
	code, err := passthrough.Exec(ctx, gitBinary, rawArgs)
	if err != nil || code != 0 {
		return code, err
	}

	remote := "origin"
	for _, a := range verbArgs {
		if !strings.HasPrefix(a, "-") {
			remote = a
			break
		}
	}
	// Best-effort: the main refspec push already succeeded, so a failure to
	// sync notes must never surface as the wrapped command's exit code.
	if _, notesErr := passthrough.Exec(ctx, gitBinary, []string{"push", remote, "refs/notes/ai/*:refs/notes/ai/*"}); notesErr != nil {
		logging.Error(ctx, "pushing authorship notes failed", "remote", remote, "error", notesErr.Error())
	}
	return code, nil
}

// firstVerb returns the first non-flag token in args (the git subcommand)
// and everything after it.
func firstVerb(args []string) (string, []string) {
	for i, a := range args {
		if !strings.HasPrefix(a, "-") {
			return a, args[i+1:]
		}
	}
	return "", nil
}

// globalFlagsWithValue are git global options that consume a separate
// following argument when not given as --flag=value (spec §9).
var globalFlagsWithValue = map[string]bool{
	"-C": true, "-c": true, "--git-dir": true, "--work-tree": true,
	"--namespace": true, "--super-prefix": true,
}

// splitGlobalArgs separates git's global options (preserved verbatim for
// every facade invocation, per spec §4.1) from the subcommand and its args.
func splitGlobalArgs(args []string) (global gitfacade.GlobalArgs, rest []string) {
	i := 0
	for i < len(args) {
		a := args[i]
		if !strings.HasPrefix(a, "-") {
			break
		}
		global = append(global, a)
		if globalFlagsWithValue[a] && !strings.Contains(a, "=") && i+1 < len(args) {
			i++
			global = append(global, args[i])
		}
		i++
	}
	return global, args[i:]
}
