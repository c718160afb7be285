// Package cli wires attrgit's own user-facing subcommands (init, doctor,
// log, show) and the hidden hooks subtree invoked by the git hooks `attrgit
// init` installs and by AI agent tool hook configuration. Plain git verbs
// never reach this package — cmd/attrgit's main routes those straight to
// internal/wrapper before cobra ever parses them (spec §6 "the wrapper
// accepts the full git CLI unchanged").
package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/attrgit/attrgit/internal/config"
	"github.com/attrgit/attrgit/internal/telemetry"
	"github.com/attrgit/attrgit/internal/versioncheck"
)

// Version and Commit are overridden at build time via -ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

const gettingStarted = `

Getting Started:
  Run 'attrgit init' inside a git repository to install its commit hooks,
  then use git as you normally would — commit, rebase, cherry-pick, reset,
  merge, push. attrgit tracks which lines are human-written and which are
  AI-written behind the scenes.
`

// NewRootCmd builds attrgit's own command tree: init/doctor/log/show plus
// the hidden hooks subtree. Ordinary git verbs are handled entirely by
// internal/wrapper before this function is ever called.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "attrgit",
		Short:         "Line-level human/AI authorship tracking for git",
		Long:          "attrgit wraps git to track line-level authorship across commits, rebases, and merges." + gettingStarted,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			disableTelemetry := true
			if cfg, err := config.Load(); err == nil {
				disableTelemetry = cfg.DisableTelemetry
			}
			client := telemetry.NewClient(Version, disableTelemetry)
			defer client.Close()
			client.TrackCommand(cmd, "")
			versioncheck.CheckAndNotify(cmd, Version)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newLogCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newHooksCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("attrgit %s (%s)\n", Version, Commit)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
