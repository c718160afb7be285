// Package config holds the process-wide configuration loaded once at
// startup and treated as read-only thereafter (spec §9 "Global state"):
// the git binary path, the allow-list of repository URLs hooks are enabled
// for, and the debug flag.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/attrgit/attrgit/internal/paths"
)

// EnvGitBinary overrides the git binary to invoke.
const EnvGitBinary = "ATTRGIT_GIT_BINARY"

// EnvDebug turns on verbose stderr diagnostics in addition to the debug log file.
const EnvDebug = "ATTRGIT_DEBUG"

// EnvLogLevel is re-exported for callers that want to read it without importing logging.
const EnvLogLevel = "ATTRGIT_LOG_LEVEL"

// FileName is the repository-local config file, relative to the repo root.
const FileName = ".attrgit/config.json"

// Config is the immutable, process-wide configuration.
type Config struct {
	// GitBinary is the resolved path (or bare name, relying on PATH) used for
	// every GitFacade invocation.
	GitBinary string `json:"-"`

	// Debug enables verbose stderr diagnostics alongside the JSON debug log.
	Debug bool `json:"-"`

	// AllowedRemotes restricts which remote URLs attrgit hooks activate for.
	// An empty list means "all repositories".
	AllowedRemotes []string `json:"allowed_remotes,omitempty"`

	// DisableTelemetry opts the repository out of anonymous usage pings.
	DisableTelemetry bool `json:"disable_telemetry,omitempty"`
}

var (
	once     sync.Once
	loaded   *Config
	loadErr  error
	loadLock sync.Mutex
)

// Load initializes the global Config from the environment and the
// repository-local config file, memoizing the result for the life of the
// process. Safe to call from multiple goroutines.
func Load() (*Config, error) {
	once.Do(func() {
		loaded, loadErr = load()
	})
	return loaded, loadErr
}

// Reset clears the memoized config. Tests use this to reload after changing
// the environment or working directory.
func Reset() {
	loadLock.Lock()
	defer loadLock.Unlock()
	once = sync.Once{}
	loaded = nil
	loadErr = nil
}

func load() (*Config, error) {
	cfg := &Config{
		GitBinary: "git",
	}

	if bin := os.Getenv(EnvGitBinary); bin != "" {
		cfg.GitBinary = bin
	}
	cfg.Debug = envTruthy(os.Getenv(EnvDebug))

	if root, err := repoRootOrEmpty(); err == nil && root != "" {
		if err := mergeFile(cfg, filepath.Join(root, FileName)); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is repo-root-relative, not user-controlled input
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var onDisk Config
	if err := json.Unmarshal(data, &onDisk); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.AllowedRemotes = onDisk.AllowedRemotes
	cfg.DisableTelemetry = onDisk.DisableTelemetry
	return nil
}

func repoRootOrEmpty() (string, error) {
	gitDir, err := paths.GitDir()
	if err != nil {
		return "", err
	}
	return filepath.Dir(gitDir), nil
}

func envTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// AllowsRemote reports whether hooks should be active given the repository's
// configured remote URLs. Matching is substring-based against the allow-list,
// mirroring the flexible matching a shell-script predecessor would use.
func (c *Config) AllowsRemote(remoteURLs []string) bool {
	if len(c.AllowedRemotes) == 0 {
		return true
	}
	for _, allowed := range c.AllowedRemotes {
		for _, remote := range remoteURLs {
			if strings.Contains(remote, allowed) {
				return true
			}
		}
	}
	return false
}

// ResolveGitBinary resolves GitBinary to an absolute path via exec.LookPath,
// surfacing a clear error if git is not installed or not on PATH.
func (c *Config) ResolveGitBinary() (string, error) {
	if filepath.IsAbs(c.GitBinary) {
		return c.GitBinary, nil
	}
	resolved, err := exec.LookPath(c.GitBinary)
	if err != nil {
		return "", fmt.Errorf("locate git binary %q: %w", c.GitBinary, err)
	}
	return resolved, nil
}
