// Command attrgit is a transparent wrapper around git that tracks
// line-level human vs AI authorship across commits, rebases, resets,
// cherry-picks, merges, and pushes (spec §1-§2). A thin entrypoint that
// cancels a shared context on interrupt and mirrors the wrapped process's
// exit behavior.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/attrgit/attrgit/internal/cli"
	"github.com/attrgit/attrgit/internal/wrapper"
)

// ownCommands are attrgit's own top-level subcommands; any other first
// argument is routed straight to internal/wrapper, which execs git itself
// (spec §6: "the wrapper accepts the full git CLI unchanged").
var ownCommands = map[string]bool{
	"init": true, "doctor": true, "log": true, "show": true,
	"hooks": true, "version": true, "help": true, "completion": true,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	args := os.Args[1:]
	if isOwnInvocation(args) {
		os.Exit(runOwnCommand(ctx))
	}

	code, err := wrapper.Run(ctx, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "attrgit:", err)
		if code < 0 {
			code = 1
		}
	}
	os.Exit(code)
}

// isOwnInvocation reports whether args should be parsed by attrgit's own
// cobra command tree rather than passed through to git.
func isOwnInvocation(args []string) bool {
	if len(args) == 0 {
		return true // bare `attrgit` prints help
	}
	first := args[0]
	if first == "-h" || first == "--help" || first == "--version" {
		return true
	}
	return ownCommands[first]
}

func runOwnCommand(ctx context.Context) int {
	rootCmd := cli.NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var silent *cli.SilentError
	switch {
	case errors.As(err, &silent):
		// Already reported by the subcommand itself.
	case strings.Contains(err.Error(), "unknown command") || strings.Contains(err.Error(), "unknown flag"):
		printUsageError(rootCmd, err)
	default:
		fmt.Fprintln(rootCmd.OutOrStderr(), err)
	}
	return 1
}

func printUsageError(cmd *cobra.Command, err error) {
	fmt.Fprint(cmd.OutOrStderr(), cmd.UsageString())
	fmt.Fprintf(cmd.OutOrStderr(), "\nError: %v\n", err)
}
