package wrapper

import (
	"strings"

	"github.com/attrgit/attrgit/internal/rewrite"
)

// parseResetArgs extracts the rewrite.Kind a `git reset` invocation maps to,
// its target tree-ish (defaulting to "HEAD"), and any trailing pathspec.
// Only the wrapper sees these flags; reset fires no git hook that could
// recover the mode on its own (spec §9).
func parseResetArgs(args []string) (kind rewrite.Kind, target string, pathspec []string) {
	kind = rewrite.KindResetMixed
	target = "HEAD"

	var positional []string
	sawTarget := false
	afterSeparator := false
	for _, a := range args {
		switch {
		case afterSeparator:
			positional = append(positional, a)
		case a == "--":
			afterSeparator = true
		case a == "--soft":
			kind = rewrite.KindResetSoft
		case a == "--mixed" || a == "--keep":
			kind = rewrite.KindResetMixed
		case a == "--hard":
			kind = rewrite.KindResetHard
		case a == "--merge":
			kind = rewrite.KindResetMerge
		case strings.HasPrefix(a, "-"):
			// Ignore unrecognized flags (-q, -p, --pathspec-from-file, ...).
		case !sawTarget:
			target = a
			sawTarget = true
		default:
			positional = append(positional, a)
		}
	}
	return kind, target, positional
}

// singleCherryPickSource reports the sole commit-ish argument of a plain
// (non-sequence, non-flag-modified) `git cherry-pick <commit>` invocation,
// the only shape the wrapper can unambiguously attribute a source commit
// for. Anything else (multiple commits, ranges, --continue/--abort/--skip,
// -n/--no-commit) falls through to plain passthrough.
func singleCherryPickSource(args []string) (string, bool) {
	var positional []string
	for _, a := range args {
		switch {
		case strings.HasPrefix(a, "-"):
			return "", false
		default:
			positional = append(positional, a)
		}
	}
	if len(positional) != 1 {
		return "", false
	}
	return positional[0], true
}
