// Package cli wires up the agent-smith command tree.
package cli

import (
	"fmt"
	"runtime"

	"github.com/agent-smith/cli/cmd/agent-smith/cli/config"
	"github.com/agent-smith/cli/cmd/agent-smith/cli/hooks"
	"github.com/agent-smith/cli/cmd/agent-smith/cli/logging"
	"github.com/agent-smith/cli/cmd/agent-smith/cli/telemetry"
	"github.com/agent-smith/cli/cmd/agent-smith/cli/versioncheck"
	"github.com/spf13/cobra"
)

const rootHelp = `

Examples:
  agent-smith send "hello world"      send a message directly
  agent-smith -c .env send "hello"    send using a config file
  agent-smith install                 install Claude Code hooks interactively

Environment Variables:
  MATRIX_HOMESERVER    Matrix server URL (e.g. https://matrix.example.org)
  MATRIX_ACCESS_TOKEN  Matrix access token
  MATRIX_ROOM_ID       Target room ID (e.g. !abc:example.org)
  LOG_LEVEL            Logging level (default: warn)
`

// Version information (set at build time).
var (
	Version = "dev"
	Commit  = "unknown"
)

// connectionFlags holds the persistent Matrix connection flags shared by
// every subcommand.
type connectionFlags struct {
	configPath string
	homeserver string
	token      string
	room       string
}

// desired maps the flags onto the hook configuration baked into installed
// commands.
func (f *connectionFlags) desired() hooks.Desired {
	return hooks.Desired{
		ConfigPath: f.configPath,
		Homeserver: f.homeserver,
		Token:      f.token,
		Room:       f.room,
	}
}

// overrides builds the config override map: config file values first,
// explicit flags on top.
func (f *connectionFlags) overrides() (map[string]string, error) {
	overrides := make(map[string]string)
	if f.configPath != "" {
		fileValues, err := config.LoadFile(f.configPath)
		if err != nil {
			return nil, err
		}
		for k, v := range fileValues {
			overrides[k] = v
		}
	}
	if f.homeserver != "" {
		overrides[config.EnvHomeserver] = f.homeserver
	}
	if f.token != "" {
		overrides[config.EnvToken] = f.token
	}
	if f.room != "" {
		overrides[config.EnvRoom] = f.room
	}
	return overrides, nil
}

// resolve returns the full connection config or an error naming every
// missing value.
func (f *connectionFlags) resolve() (*config.Config, error) {
	overrides, err := f.overrides()
	if err != nil {
		return nil, err
	}
	return config.Load(overrides)
}

func NewRootCmd() *cobra.Command {
	conn := &connectionFlags{}

	cmd := &cobra.Command{
		Use:   "agent-smith",
		Short: "Send Claude Code lifecycle notifications to a Matrix room",
		Long: "agent-smith forwards Claude Code Stop and Notification hook events " +
			"to a Matrix chat room, and installs the hooks that make that happen." + rootHelp,
		// Let main.go handle error printing to avoid duplication
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			config.LoadDotenv()
			logging.Init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			telemetryClient := telemetry.NewClient(Version)
			defer telemetryClient.Close()
			telemetryClient.TrackCommand(cmd)

			versioncheck.CheckAndNotify(cmd, Version)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&conn.configPath, "config", "c", "", "path to config file (dotenv format with MATRIX_* variables)")
	flags.StringVar(&conn.homeserver, "homeserver", "", "Matrix homeserver URL")
	flags.StringVar(&conn.token, "token", "", "Matrix access token")
	flags.StringVar(&conn.room, "room", "", "Matrix room ID")

	cmd.AddCommand(newSendCmd(conn))
	cmd.AddCommand(newStopCmd(conn))
	cmd.AddCommand(newNotifyCmd(conn))
	cmd.AddCommand(newInstallCmd(conn))
	cmd.AddCommand(newDoctorCmd(conn))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("agent-smith %s (%s)\n", Version, Commit)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
