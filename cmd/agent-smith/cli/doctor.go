package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/agent-smith/cli/cmd/agent-smith/cli/hooks"
	"github.com/agent-smith/cli/cmd/agent-smith/cli/matrix"
	"github.com/agent-smith/cli/cmd/agent-smith/cli/paths"
	"github.com/agent-smith/cli/cmd/agent-smith/cli/review"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newDoctorCmd(conn *connectionFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, hook installation, and connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, conn)
		},
	}
}

func runDoctor(cmd *cobra.Command, conn *connectionFlags) error {
	out := cmd.OutOrStdout()

	cfg, cfgErr := conn.resolve()
	if cfgErr != nil {
		fmt.Fprintf(out, "Configuration: incomplete\n  %v\n", cfgErr)
	} else {
		fmt.Fprintf(out, "Configuration: ok (homeserver %s, room %s)\n", cfg.Homeserver, cfg.RoomID)
	}

	if pager := review.PagerCommand(os.Getenv, exec.LookPath); pager != nil {
		fmt.Fprintf(out, "Pager: %s\n", strings.Join(pager, " "))
	} else {
		fmt.Fprintln(out, "Pager: none found, diffs will print directly")
	}

	reportHookStatus(out)

	if cfgErr != nil || !review.IsInteractive() {
		return nil
	}

	send := false
	prompt := huh.NewConfirm().
		Title("Send a test message to the room?").
		Value(&send)
	if err := prompt.Run(); err != nil || !send {
		return nil
	}

	client := matrix.NewClient(cfg.Homeserver, cfg.AccessToken)
	if _, err := client.SendText(cmd.Context(), cfg.RoomID, "agent-smith test message"); err != nil {
		return err
	}
	fmt.Fprintln(out, "Test message sent")
	return nil
}

// reportHookStatus prints whether the user-level settings file carries our
// hook entries.
func reportHookStatus(out io.Writer) {
	path, err := paths.UserSettingsPath()
	if err != nil {
		fmt.Fprintf(out, "Hooks: cannot locate settings (%v)\n", err)
		return
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(out, "Hooks: not installed (%s missing), run 'agent-smith install'\n", path)
		return
	}
	if err != nil {
		fmt.Fprintf(out, "Hooks: cannot read %s (%v)\n", path, err)
		return
	}

	var settings map[string]json.RawMessage
	if err := json.Unmarshal(data, &settings); err != nil {
		fmt.Fprintf(out, "Hooks: %s is not valid JSON (%v)\n", path, err)
		return
	}

	if hooks.Installed(settings, hooks.ProgramName) {
		fmt.Fprintf(out, "Hooks: installed in %s\n", path)
	} else {
		fmt.Fprintf(out, "Hooks: not installed in %s, run 'agent-smith install'\n", path)
	}
}
