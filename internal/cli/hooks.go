package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/attrgit/attrgit/internal/config"
	"github.com/attrgit/attrgit/internal/gitfacade"
	"github.com/attrgit/attrgit/internal/logging"
	"github.com/attrgit/attrgit/internal/repostorage"
)

// newHooksCmd groups the internal commands the installed git hooks and
// agent tool hook configuration invoke — never called by a user directly
// (spec §6).
func newHooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "hooks",
		Short:  "Internal hook handlers",
		Hidden: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			runID := fmt.Sprintf("%d-%d", os.Getpid(), time.Now().UnixNano())
			return logging.Init(runID)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			logging.Close()
			return nil
		},
	}
	cmd.AddCommand(newHooksGitCmd())
	cmd.AddCommand(newHooksAgentCmd())
	return cmd
}

// facadeAndStore builds the git facade and repo storage handle every hook
// subcommand needs, resolved from the process-wide config.
func facadeAndStore() (*gitfacade.Facade, *repostorage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	gitBinary, err := cfg.ResolveGitBinary()
	if err != nil {
		return nil, nil, err
	}
	return gitfacade.New(gitBinary, nil), repostorage.New(), nil
}
