package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/agent-smith/cli/cmd/agent-smith/cli/matrix"
	"github.com/spf13/cobra"
)

func newSendCmd(conn *connectionFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "send <message>...",
		Short: "Send a message to the configured Matrix room",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := conn.resolve()
			if err != nil {
				return err
			}

			client := matrix.NewClient(cfg.Homeserver, cfg.AccessToken)
			body := strings.Join(args, " ")
			eventID, err := client.SendText(cmd.Context(), cfg.RoomID, body)
			if err != nil {
				return err
			}

			slog.Debug("message sent", "room", cfg.RoomID, "event_id", eventID)
			fmt.Fprintln(cmd.OutOrStdout(), "Message sent")
			return nil
		},
	}
}
