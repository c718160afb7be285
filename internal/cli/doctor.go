package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/spf13/cobra"

	"github.com/attrgit/attrgit/internal/config"
	"github.com/attrgit/attrgit/internal/gitfacade"
	"github.com/attrgit/attrgit/internal/paths"
)

// newDoctorCmd checks the three things most likely to silently break
// authorship tracking: a usable git binary, hooks actually installed, and
// the notes namespace being reachable (spec §6 "attrgit doctor").
func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that attrgit is correctly installed in this repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := context.Background()
			out := cmd.OutOrStdout()
			ok := true

			cfg, err := config.Load()
			if err != nil {
				fmt.Fprintf(out, "✗ config: %v\n", err)
				ok = false
			} else if gitBinary, err := cfg.ResolveGitBinary(); err != nil {
				fmt.Fprintf(out, "✗ git binary: %v\n", err)
				ok = false
			} else {
				fmt.Fprintf(out, "✓ git binary: %s\n", gitBinary)

				facade := gitfacade.New(gitBinary, nil)
				if _, err := facade.Head(ctx); err != nil {
					fmt.Fprintln(out, "  (no commits yet; this is fine for a fresh repository)")
				}
			}

			gitDir, err := paths.GitDir()
			if err != nil {
				fmt.Fprintf(out, "✗ not a git repository: %v\n", err)
				return NewSilentError(err)
			}
			fmt.Fprintf(out, "✓ git directory: %s\n", gitDir)

			hooksDir := filepath.Join(gitDir, "hooks")
			var missing []string
			for name := range installedHooks {
				if _, err := os.Stat(filepath.Join(hooksDir, name)); err != nil {
					missing = append(missing, name)
				}
			}
			if len(missing) > 0 {
				fmt.Fprintf(out, "✗ missing hooks: %s (run `attrgit init`)\n", strings.Join(missing, ", "))
				ok = false
			} else {
				fmt.Fprintln(out, "✓ all hooks installed")
			}

			if bareErr := checkNotBare(filepath.Dir(gitDir)); bareErr != nil {
				fmt.Fprintf(out, "✗ %v\n", bareErr)
				ok = false
			} else {
				fmt.Fprintln(out, "✓ working tree present")
			}

			if !ok {
				return NewSilentError(fmt.Errorf("attrgit is not fully set up in this repository"))
			}
			fmt.Fprintln(out, "attrgit looks healthy.")
			return nil
		},
	}
}

// checkNotBare confirms repoRoot has a working tree, via go-git rather than
// shelling out: a bare repository has no index for git's own hooks to act
// on, so every wrapper operation attrgit intercepts would be a no-op there.
func checkNotBare(repoRoot string) error {
	repo, err := git.PlainOpen(repoRoot)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}
	if _, err := repo.Worktree(); err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return errors.New("bare repository: attrgit requires a working tree")
		}
		return fmt.Errorf("inspect worktree: %w", err)
	}
	return nil
}
