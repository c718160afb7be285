package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/attrgit/attrgit/internal/authorshiplog"
	"github.com/attrgit/attrgit/internal/config"
	"github.com/attrgit/attrgit/internal/gitfacade"
	"github.com/attrgit/attrgit/internal/statsview"
)

// newShowCmd implements `attrgit show <commit>`: the authorship note's
// summary plus its full JSON, for a single commit (spec §6).
func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <commit>",
		Short: "Show the authorship note attached to a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			sha, err := facade.RevparseSingle(ctx, args[0])
			if err != nil {
				return NewSilentError(fmt.Errorf("unknown revision %q", args[0]))
			}

			note, hasNote, err := authorshiplog.ReadNote(ctx, facade, sha)
			if err != nil {
				return err
			}
			if !hasNote {
				return NewSilentError(errors.New("no authorship note attached to this commit"))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, statsview.RenderBoxed(shortSHA(sha), statsview.Summarize(note)))
			fmt.Fprintln(out)

			data, err := json.MarshalIndent(note, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal authorship note: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		},
	}
}
