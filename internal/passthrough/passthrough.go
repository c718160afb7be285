// Package passthrough execs the real git binary as a child process and
// mirrors its exit behavior exactly (spec §9 "Process-group discipline"):
// when stdin is not a TTY the child runs in its own process group and
// SIGINT/SIGTERM/SIGHUP/SIGQUIT are forwarded to that group; when stdin is a
// TTY the child stays in the foreground group so interactive git commands
// (editors, pagers) are not stopped by SIGTTIN/SIGTTOU.
package passthrough

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"golang.org/x/term"
)

// Exec runs gitBinary with args, inheriting stdio, and returns the exit code
// it should be mirrored with. A non-nil error is only ever a failure to
// start the child (binary missing, fork failure) — a nonzero git exit is
// reported solely through the returned code.
func Exec(ctx context.Context, gitBinary string, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, gitBinary, args...) //nolint:gosec // gitBinary is resolved via config.ResolveGitBinary, args are the user's own argv
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	foreground := term.IsTerminal(int(os.Stdin.Fd()))
	if !foreground {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	if err := cmd.Start(); err != nil {
		return -1, err
	}

	sigChan := make(chan os.Signal, 8)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-done:
				return
			case sig := <-sigChan:
				if foreground {
					continue
				}
				if unixSig, ok := sig.(syscall.Signal); ok {
					_ = syscall.Kill(-cmd.Process.Pid, unixSig)
				}
			}
		}
	}()

	err := cmd.Wait()
	signal.Stop(sigChan)
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
			return 128 + int(status.Signal()), nil
		}
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

func asExitError(err error, target **exec.ExitError) bool {
	ee, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}
	*target = ee
	return true
}
