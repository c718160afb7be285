package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/attrgit/attrgit/internal/config"
	"github.com/attrgit/attrgit/internal/paths"
)

// installedHooks are the native git hooks `attrgit init` writes into
// .git/hooks, each a thin shell shim delegating to `attrgit hooks git
// <name>` (spec §6). reference-transaction and post-rewrite receive git's
// own stdin protocol unmodified; attrgit reads it itself.
var installedHooks = map[string]string{
	"post-commit":           "#!/bin/sh\nexec attrgit hooks git post-commit \"$@\"\n",
	"pre-push":              "#!/bin/sh\nexec attrgit hooks git pre-push \"$@\"\n",
	"post-rewrite":          "#!/bin/sh\nexec attrgit hooks git post-rewrite \"$@\"\n",
	"reference-transaction": "#!/bin/sh\nexec attrgit hooks git reference-transaction \"$@\"\n",
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Install attrgit's git hooks in the current repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gitDir, err := paths.GitDir()
			if err != nil {
				return NewSilentError(errors.New("not a git repository"))
			}

			hooksDir := filepath.Join(gitDir, "hooks")
			if err := os.MkdirAll(hooksDir, 0o755); err != nil {
				return fmt.Errorf("create hooks directory: %w", err)
			}

			for name, script := range installedHooks {
				path := filepath.Join(hooksDir, name)
				if err := writeHook(path, script); err != nil {
					return fmt.Errorf("install %s hook: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "installed %s\n", path)
			}

			repoRoot := filepath.Dir(gitDir)
			cfgPath := filepath.Join(repoRoot, config.FileName)
			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				disableTelemetry := promptDisableTelemetry(cmd)
				if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
					return fmt.Errorf("create config directory: %w", err)
				}
				if err := writeDefaultConfig(cfgPath, disableTelemetry); err != nil {
					return fmt.Errorf("write default config: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", cfgPath)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "attrgit is ready. Use git as usual.")
			return nil
		},
	}
}

// writeHook installs script at path, preserving an existing non-attrgit
// hook by refusing to overwrite it rather than silently discarding a
// developer's own hook.
func writeHook(path, script string) error {
	if existing, err := os.ReadFile(path); err == nil { //nolint:gosec // path is under the repo's own .git/hooks
		if string(existing) != script {
			return fmt.Errorf("%s already exists and was not installed by attrgit; remove it or merge manually", path)
		}
		return nil
	}
	return os.WriteFile(path, []byte(script), 0o755) //nolint:gosec // hooks must be executable
}

// promptDisableTelemetry asks for telemetry consent on a first `attrgit
// init`, defaulting to enabled. Skipped entirely on a non-interactive stdin
// (CI, scripted setup), where telemetry stays on by default.
func promptDisableTelemetry(cmd *cobra.Command) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}

	consent := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Help improve attrgit?").
				Description("Share anonymous usage data: which commands run, no file contents or prompt text.").
				Affirmative("Yes").
				Negative("No").
				Value(&consent),
		),
	).WithAccessible(!term.IsTerminal(int(os.Stdout.Fd())))

	if err := form.Run(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "telemetry prompt skipped:", err)
		return false
	}
	return !consent
}

// writeDefaultConfig writes the repository-local config file `attrgit init`
// creates on first run.
func writeDefaultConfig(path string, disableTelemetry bool) error {
	cfg := config.Config{DisableTelemetry: disableTelemetry}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644) //nolint:gosec // not sensitive, repo-local config
}
