package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/attrgit/attrgit/internal/agent"
	"github.com/attrgit/attrgit/internal/logging"
	"github.com/attrgit/attrgit/internal/workinglog"
	"github.com/attrgit/attrgit/internal/wrapper"
)

// newHooksAgentCmd groups the handlers an AI coding tool's own hook
// configuration invokes (e.g. Claude Code's PostToolUse, Gemini CLI's
// after-edit event), each turning that tool's native JSON payload into a
// Checkpoint (spec §4.7).
func newHooksAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "agent",
		Short:  "AI agent tool hook handlers",
		Hidden: true,
	}
	for _, name := range agent.Names() {
		cmd.AddCommand(newHooksAgentToolCmd(name))
	}
	return cmd
}

func newHooksAgentToolCmd(tool string) *cobra.Command {
	return &cobra.Command{
		Use:   tool + " <event>",
		Args:  cobra.ExactArgs(1),
		Short: fmt.Sprintf("Handle a %s hook event", tool),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx := logging.WithComponent(context.Background(), "hooks.agent."+tool)

			src, ok := agent.Get(tool)
			if !ok {
				return fmt.Errorf("unknown agent tool %q", tool)
			}

			raw, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read %s hook payload: %w", tool, err)
			}

			agentID, transcript, err := src.ParseSession(raw)
			if err != nil {
				logging.Error(ctx, "parsing agent session failed", "tool", tool, "event", args[0], "error", err.Error())
				return nil
			}

			facade, store, err := facadeAndStore()
			if err != nil {
				return err
			}
			author := agentID.Tool + ":" + agentID.ID
			if _, err := wrapper.RecordCheckpoint(ctx, facade, store, workinglog.KindAiAgent, author, &agentID, &transcript); err != nil {
				logging.Error(ctx, "agent checkpoint failed", "tool", tool, "event", args[0], "error", err.Error())
			}
			return nil
		},
	}
}
