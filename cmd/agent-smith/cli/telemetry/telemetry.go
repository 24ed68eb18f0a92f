// Package telemetry records anonymous usage events. It is disabled unless
// the operator opts in with AGENT_SMITH_TELEMETRY=1; a notification bridge
// that handles access tokens defaults to sending nothing anywhere it was
// not asked to.
package telemetry

import (
	"net"
	"net/http"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/posthog/posthog-go"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// PostHogAPIKey is set at build time for production.
	PostHogAPIKey = "phc_development_key"
	// PostHogEndpoint is set at build time for production.
	PostHogEndpoint = "https://eu.i.posthog.com"
)

// OptInEnvVar enables telemetry when set to a non-empty value.
const OptInEnvVar = "AGENT_SMITH_TELEMETRY"

// Client is the telemetry interface.
type Client interface {
	TrackCommand(cmd *cobra.Command)
	Close()
}

// NoOpClient is used whenever telemetry is disabled.
type NoOpClient struct{}

func (n *NoOpClient) TrackCommand(_ *cobra.Command) {}
func (n *NoOpClient) Close()                        {}

// silentLogger suppresses PostHog log output; timeouts are expected for
// best-effort telemetry and should not reach the operator.
type silentLogger struct{}

func (silentLogger) Logf(_ string, _ ...interface{})   {}
func (silentLogger) Debugf(_ string, _ ...interface{}) {}
func (silentLogger) Warnf(_ string, _ ...interface{})  {}
func (silentLogger) Errorf(_ string, _ ...interface{}) {}

// PostHogClient is the real client.
type PostHogClient struct {
	client     posthog.Client
	machineID  string
	cliVersion string
}

// NewClient returns a telemetry client. Without the opt-in variable, or if
// any part of setup fails, it returns the no-op client.
//
//nolint:ireturn // factory returns NoOpClient or PostHogClient by opt-in
func NewClient(version string) Client {
	if os.Getenv(OptInEnvVar) == "" {
		return &NoOpClient{}
	}

	id, err := machineid.ProtectedID("agent-smith")
	if err != nil {
		return &NoOpClient{}
	}

	// Fast timeouts everywhere: a hook command must never hang on telemetry.
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
		return &NoOpClient{}
	}

	return &PostHogClient{
		client:     client,
		machineID:  id,
		cliVersion: version,
	}
}

// TrackCommand records a command execution: command path and flag names
// only, never flag values, which may hold tokens and room IDs.
func (p *PostHogClient) TrackCommand(cmd *cobra.Command) {
	if cmd == nil || cmd.Hidden {
		return
	}

	var flags []string
	cmd.Flags().Visit(func(flag *pflag.Flag) {
		flags = append(flags, flag.Name)
	})

	props := posthog.NewProperties().
		Set("command", cmd.CommandPath())
	if len(flags) > 0 {
		props.Set("flags", strings.Join(flags, ","))
	}

	//nolint:errcheck // best-effort telemetry
	_ = p.client.Enqueue(posthog.Capture{
		DistinctId: p.machineID,
		Event:      "cli_command_executed",
		Properties: props,
	})
}

// Close flushes pending events.
func (p *PostHogClient) Close() {
	if p.client != nil {
		_ = p.client.Close()
	}
}
