package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/agent-smith/cli/cmd/agent-smith/cli/format"
	"github.com/agent-smith/cli/cmd/agent-smith/cli/matrix"
	"github.com/agent-smith/cli/redact"
	"github.com/spf13/cobra"
)

// newStopCmd handles the Stop lifecycle hook: Claude Code pipes the event
// JSON to stdin and we forward a completion message to Matrix.
func newStopCmd(conn *connectionFlags) *cobra.Command {
	return &cobra.Command{
		Use:    "stop",
		Short:  "Handle a Claude Code Stop hook event from stdin",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading hook input: %w", err)
			}
			slog.Debug("stop hook event", "payload", redact.Payload(raw))

			var ev format.StopEvent
			if err := json.Unmarshal(raw, &ev); err != nil {
				return fmt.Errorf("parsing hook input: %w", err)
			}

			msg, ok := format.StopMessage(ev)
			if !ok {
				// stop_hook_active means we were invoked from our own
				// continuation; sending again would loop.
				slog.Debug("skipping stop event", "session", ev.SessionID)
				return nil
			}

			return sendHookMessage(cmd, conn, msg)
		},
	}
}

// newNotifyCmd handles the Notification lifecycle hook.
func newNotifyCmd(conn *connectionFlags) *cobra.Command {
	return &cobra.Command{
		Use:    "notify",
		Short:  "Handle a Claude Code Notification hook event from stdin",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading hook input: %w", err)
			}
			slog.Debug("notification hook event", "payload", redact.Payload(raw))

			var ev format.NotifyEvent
			if err := json.Unmarshal(raw, &ev); err != nil {
				return fmt.Errorf("parsing hook input: %w", err)
			}

			return sendHookMessage(cmd, conn, format.NotifyMessage(ev))
		},
	}
}

func sendHookMessage(cmd *cobra.Command, conn *connectionFlags, msg string) error {
	cfg, err := conn.resolve()
	if err != nil {
		return err
	}

	client := matrix.NewClient(cfg.Homeserver, cfg.AccessToken)
	eventID, err := client.SendText(cmd.Context(), cfg.RoomID, msg)
	if err != nil {
		return err
	}
	slog.Debug("hook message sent", "room", cfg.RoomID, "event_id", eventID)
	return nil
}
