// Package logging provides structured JSON logging for attrgit, built on log/slog.
//
// Diagnostics are gated behind ATTRGIT_LOG_LEVEL per spec §7 ("all other
// diagnostics go to a debug log gated by an env flag"); user-visible
// summaries are printed directly to stderr by callers instead.
package logging

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/attrgit/attrgit/internal/paths"
)

// LogLevelEnvVar controls the minimum level written to the log file.
const LogLevelEnvVar = "ATTRGIT_LOG_LEVEL"

// LogsDir is where per-invocation log files are written, relative to the git directory.
const LogsDir = "ai/logs"

var (
	logger       *slog.Logger
	logFile      *os.File
	logBufWriter *bufio.Writer
	currentRunID string
	mu           sync.RWMutex
)

// Init opens the log file for this invocation at "<gitdir>/ai/logs/<runID>.log".
// If the file cannot be created, logging falls back to stderr rather than
// failing the caller — per spec §7, tracking failures must never abort the
// wrapped git command.
func Init(runID string) error {
	mu.Lock()
	defer mu.Unlock()

	flushAndCloseLocked()

	level := parseLogLevel(os.Getenv(LogLevelEnvVar))

	gitDir, err := paths.GitDir()
	if err != nil {
		logger = createLogger(os.Stderr, level)
		return nil
	}

	logsPath := filepath.Join(gitDir, LogsDir)
	if err := os.MkdirAll(logsPath, 0o750); err != nil {
		logger = createLogger(os.Stderr, level)
		return nil
	}

	safeRunID := strings.NewReplacer("/", "_", "\\", "_").Replace(runID)
	f, err := os.OpenFile(filepath.Join(logsPath, safeRunID+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		logger = createLogger(os.Stderr, level)
		return nil
	}

	logFile = f
	logBufWriter = bufio.NewWriterSize(f, 8192)
	logger = createLogger(logBufWriter, level)
	currentRunID = runID
	return nil
}

// Close flushes and closes the log file. Safe to call multiple times.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	flushAndCloseLocked()
	currentRunID = ""
}

func flushAndCloseLocked() {
	if logBufWriter != nil {
		_ = logBufWriter.Flush()
		logBufWriter = nil
	}
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
}

func getLogger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func createLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type ctxKey int

const (
	componentKey ctxKey = iota
	commandKey
)

// WithComponent attaches a component name (e.g. "gitfacade", "rewrite") to the context.
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// WithCommand attaches the invoked git subcommand (e.g. "commit", "rebase") to the context.
func WithCommand(ctx context.Context, command string) context.Context {
	return context.WithValue(ctx, commandKey, command)
}

func attrsFromContext(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	var attrs []slog.Attr
	if v, ok := ctx.Value(componentKey).(string); ok && v != "" {
		attrs = append(attrs, slog.String("component", v))
	}
	if v, ok := ctx.Value(commandKey).(string); ok && v != "" {
		attrs = append(attrs, slog.String("command", v))
	}
	return attrs
}

func log(ctx context.Context, level slog.Level, msg string, attrs ...any) {
	l := getLogger()
	var allAttrs []any
	for _, a := range attrsFromContext(ctx) {
		allAttrs = append(allAttrs, a)
	}
	allAttrs = append(allAttrs, attrs...)
	l.Log(nil, level, msg, allAttrs...) //nolint:staticcheck // context values already flattened into attrs
}

// Debug logs at DEBUG level with context values automatically extracted.
func Debug(ctx context.Context, msg string, attrs ...any) { log(ctx, slog.LevelDebug, msg, attrs...) }

// Info logs at INFO level with context values automatically extracted.
func Info(ctx context.Context, msg string, attrs ...any) { log(ctx, slog.LevelInfo, msg, attrs...) }

// Warn logs at WARN level with context values automatically extracted.
func Warn(ctx context.Context, msg string, attrs ...any) { log(ctx, slog.LevelWarn, msg, attrs...) }

// Error logs at ERROR level with context values automatically extracted.
func Error(ctx context.Context, msg string, attrs ...any) { log(ctx, slog.LevelError, msg, attrs...) }

// LogDuration logs msg with a duration_ms attribute computed from start. Intended for defer.
func LogDuration(ctx context.Context, level slog.Level, msg string, start time.Time, attrs ...any) {
	all := append([]any{slog.Int64("duration_ms", time.Since(start).Milliseconds())}, attrs...)
	log(ctx, level, msg, all...)
}

// Errorf is a convenience that logs at ERROR and returns the formatted error unchanged,
// for the common "log and propagate" pattern at hook boundaries.
func Errorf(ctx context.Context, format string, args ...any) error {
	err := fmt.Errorf(format, args...)
	Error(ctx, err.Error())
	return err
}
