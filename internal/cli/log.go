package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/attrgit/attrgit/internal/authorshiplog"
	"github.com/attrgit/attrgit/internal/config"
	"github.com/attrgit/attrgit/internal/gitfacade"
	"github.com/attrgit/attrgit/internal/statsview"
)

// newLogCmd implements `attrgit log`, an authorship-filtered view of the
// commit history read from attrgit's notes rather than from git log itself
// (spec §6).
func newLogCmd() *cobra.Command {
	var fileFilter string
	var authorFilter string

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show commit-by-commit authorship summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if authorFilter != "" && authorFilter != "human" && authorFilter != "ai" {
				return NewSilentError(errors.New(`--author must be "human" or "ai"`))
			}

			ctx := context.Background()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			gitBinary, err := cfg.ResolveGitBinary()
			if err != nil {
				return err
			}
			facade := gitfacade.New(gitBinary, nil)

			head, err := facade.Head(ctx)
			if err != nil {
				return NewSilentError(errors.New("no commits yet"))
			}
			commits, err := facade.RevList(ctx, "", head)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i := len(commits) - 1; i >= 0; i-- {
				sha := commits[i]
				note, hasNote, err := authorshiplog.ReadNote(ctx, facade, sha)
				if err != nil || !hasNote {
					continue
				}
				if fileFilter != "" {
					if _, found := note.FindFile(fileFilter); !found {
						continue
					}
				}
				summary := statsview.Summarize(note)
				if authorFilter == "human" && summary.HumanLines == 0 {
					continue
				}
				if authorFilter == "ai" && summary.AILines == 0 {
					continue
				}
				fmt.Fprintf(out, "%s  %s\n", shortSHA(sha), statsview.Render(summary))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fileFilter, "file", "", "only show commits touching this file")
	cmd.Flags().StringVar(&authorFilter, "author", "", `filter by "human" or "ai" authorship`)
	return cmd
}

func shortSHA(sha string) string {
	if len(sha) > 10 {
		return sha[:10]
	}
	return sha
}
