package passthrough

import (
	"context"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/creack/pty"
)

// fakeGit is a tiny script standing in for the git binary: recorded tests
// never exec real git, only observe Exec's own process handling.
func fakeGit(t *testing.T, body string) string {
	t.Helper()
	path := t.TempDir() + "/fakegit"
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil { //nolint:gosec // test fixture
		t.Fatal(err)
	}
	return path
}

func TestExecMirrorsExitCode(t *testing.T) {
	bin := fakeGit(t, "exit 7\n")
	code, err := Exec(context.Background(), bin, nil)
	if err != nil {
		t.Fatalf("Exec() error = %v", err)
	}
	if code != 7 {
		t.Errorf("Exec() code = %d, want 7", code)
	}
}

// TestExecForegroundUnderPTY confirms that when stdin is a real terminal,
// Exec leaves the child in the caller's process group (no Setpgid) so an
// interactive editor invoked by git doesn't get stopped by SIGTTIN/SIGTTOU.
// A pty is the only way to give a test process a terminal-backed stdin.
func TestExecForegroundUnderPTY(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable in this environment: %v", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	oldStdin := os.Stdin
	os.Stdin = tty
	defer func() { os.Stdin = oldStdin }()

	bin := fakeGit(t, "exit 0\n")
	done := make(chan struct{})
	var code int
	var execErr error
	go func() {
		code, execErr = Exec(context.Background(), bin, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Exec did not return in time")
	}
	if execErr != nil {
		t.Fatalf("Exec() error = %v", execErr)
	}
	if code != 0 {
		t.Errorf("Exec() code = %d, want 0", code)
	}
}

func TestAsExitError(t *testing.T) {
	cmd := exec.Command(fakeGit(t, "exit 3\n"))
	err := cmd.Run()

	var exitErr *exec.ExitError
	if !asExitError(err, &exitErr) {
		t.Fatal("asExitError() = false, want true for a nonzero exit")
	}
	if exitErr.ExitCode() != 3 {
		t.Errorf("exitErr.ExitCode() = %d, want 3", exitErr.ExitCode())
	}

	var notExitErr *exec.ExitError
	if asExitError(context.Canceled, &notExitErr) {
		t.Error("asExitError() = true for a non-ExitError, want false")
	}
}
