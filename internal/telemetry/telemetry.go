// Package telemetry sends an opt-in, best-effort usage ping for each attrgit
// invocation: which subcommand ran, which agent tool (if any) triggered it,
// never file contents or prompt text. Disabled by default; opt-out always
// wins over opt-in.
package telemetry

import (
	"net"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/posthog/posthog-go"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// PostHogAPIKey is overridden at build time for production builds.
	PostHogAPIKey = "phc_development_key"
	// PostHogEndpoint is overridden at build time for production builds.
	PostHogEndpoint = "https://eu.i.posthog.com"
)

// Client records command executions.
type Client interface {
	TrackCommand(cmd *cobra.Command, agentTool string)
	Close()
}

// NoOpClient is used whenever telemetry is disabled.
type NoOpClient struct{}

func (NoOpClient) TrackCommand(*cobra.Command, string) {}
func (NoOpClient) Close()                              {}

type silentLogger struct{}

func (silentLogger) Logf(string, ...interface{})   {}
func (silentLogger) Debugf(string, ...interface{}) {}
func (silentLogger) Warnf(string, ...interface{})  {}
func (silentLogger) Errorf(string, ...interface{}) {}

// PostHogClient is the real telemetry client.
type PostHogClient struct {
	client     posthog.Client
	machineID  string
	cliVersion string
	mu         sync.RWMutex
}

// NewClient returns a PostHogClient if telemetry is enabled, or a NoOpClient
// otherwise. disableTelemetry (config.Config.DisableTelemetry) always wins.
//
//nolint:ireturn // factory: returns NoOpClient or PostHogClient depending on opt-out state
func NewClient(version string, disableTelemetry bool) Client {
	if disableTelemetry {
		return NoOpClient{}
	}
	if os.Getenv("ATTRGIT_TELEMETRY_OPTOUT") != "" {
		return NoOpClient{}
	}

	id, err := machineid.ProtectedID("attrgit")
	if err != nil {
		return NoOpClient{}
	}

	// A fast-timeout transport: telemetry must never delay the wrapped git
	// command's exit.
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 100 * time.Millisecond,
		}).DialContext,
		TLSHandshakeTimeout:   100 * time.Millisecond,
		ResponseHeaderTimeout: 100 * time.Millisecond,
	}

	client, err := posthog.NewWithConfig(PostHogAPIKey, posthog.Config{
		Endpoint:           PostHogEndpoint,
		ShutdownTimeout:    100 * time.Millisecond,
		BatchUploadTimeout: 200 * time.Millisecond,
		Transport:          transport,
		Logger:             silentLogger{},
		DisableGeoIP:       posthog.Ptr(true),
		DefaultEventProperties: posthog.NewProperties().
			Set("cli_version", version).
			Set("os", runtime.GOOS).
			Set("arch", runtime.GOARCH),
	})
	if err != nil {
		return NoOpClient{}
	}

	return &PostHogClient{client: client, machineID: id, cliVersion: version}
}

// TrackCommand records one command invocation. agentTool is the AgentID.Tool
// that triggered it via a hook, or "" for a direct CLI invocation.
func (p *PostHogClient) TrackCommand(cmd *cobra.Command, agentTool string) {
	if cmd == nil || cmd.Hidden {
		return
	}

	p.mu.RLock()
	id := p.machineID
	c := p.client
	p.mu.RUnlock()
	if c == nil {
		return
	}

	var flags []string
	cmd.Flags().Visit(func(flag *pflag.Flag) {
		flags = append(flags, flag.Name)
	})

	tool := agentTool
	if tool == "" {
		tool = "none"
	}
	props := posthog.NewProperties().
		Set("command", cmd.CommandPath()).
		Set("agent_tool", tool)
	if len(flags) > 0 {
		props.Set("flags", strings.Join(flags, ","))
	}

	//nolint:errcheck // best-effort telemetry; failures must not affect the CLI
	_ = c.Enqueue(posthog.Capture{
		DistinctId: id,
		Event:      "attrgit_command_executed",
		Properties: props,
	})
}

// Close flushes pending events. Bounded by the client's own ShutdownTimeout.
func (p *PostHogClient) Close() {
	p.mu.RLock()
	c := p.client
	p.mu.RUnlock()
	if c != nil {
		_ = c.Close()
	}
}
