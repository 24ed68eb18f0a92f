package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/agent-smith/cli/cmd/agent-smith/cli/hooks"
	"github.com/agent-smith/cli/cmd/agent-smith/cli/jsonutil"
	"github.com/agent-smith/cli/cmd/agent-smith/cli/paths"
	"github.com/agent-smith/cli/cmd/agent-smith/cli/review"
	"github.com/agent-smith/cli/redact"
	"github.com/spf13/cobra"
)

func newInstallCmd(conn *connectionFlags) *cobra.Command {
	var project bool

	cmd := &cobra.Command{
		Use:   "install [settings-path]",
		Short: "Install Claude Code hooks into settings.json",
		Long: `Install Stop and Notification hooks into a Claude Code settings file.

The merge preserves everything already in the file and replaces any hook
entries previously installed by agent-smith, so running install again after
changing flags updates the hooks in place. The resulting change is shown as
a diff and only written after confirmation. When stdin or stdout is not a
terminal the diff is printed and nothing is written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveSettingsPath(args, project)
			if err != nil {
				return err
			}
			ins := &installer{
				out:           cmd.OutOrStdout(),
				isInteractive: review.IsInteractive,
				display: func(text string) {
					review.ShowInPager(text, cmd.OutOrStdout())
				},
				confirm: func(ctx context.Context) bool {
					return review.Confirm(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
				},
			}
			return ins.run(cmd.Context(), path, conn.desired())
		},
	}

	cmd.Flags().BoolVar(&project, "project", false, "install into the enclosing repository's .claude/settings.json")

	return cmd
}

func resolveSettingsPath(args []string, project bool) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if project {
		return paths.ProjectSettingsPath()
	}
	return paths.UserSettingsPath()
}

// installer runs the install flow with its environment interactions
// injected so tests can drive every branch.
type installer struct {
	out           io.Writer
	isInteractive func() bool
	display       func(text string)
	confirm       func(ctx context.Context) bool
}

func (ins *installer) run(ctx context.Context, path string, desired hooks.Desired) error {
	current := map[string]json.RawMessage{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// A missing settings file behaves like an empty one.
	case err != nil:
		return fmt.Errorf("reading %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, &current); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	oldText, err := jsonutil.MarshalSettings(current)
	if err != nil {
		return fmt.Errorf("serializing %s: %w", path, err)
	}

	merged, err := hooks.Merge(current, desired, hooks.ProgramName)
	if err != nil {
		return fmt.Errorf("merging hooks into %s: %w", path, err)
	}
	newText, err := jsonutil.MarshalSettings(merged)
	if err != nil {
		return fmt.Errorf("serializing %s: %w", path, err)
	}

	diff, err := review.Diff(path, string(oldText), string(newText))
	if err != nil {
		return fmt.Errorf("diffing %s: %w", path, err)
	}
	// The diff embeds the access token when --token was given.
	slog.Debug("computed settings diff", "path", path, "diff", redact.Token(diff, desired.Token))
	if diff == "" {
		fmt.Fprintln(ins.out, "No changes needed.")
		return nil
	}

	if !ins.isInteractive() {
		fmt.Fprint(ins.out, diff)
		return nil
	}

	ins.display(review.Colorize(diff))

	if !ins.confirm(ctx) {
		fmt.Fprintln(ins.out, "No changes applied.")
		return nil
	}

	if err := writeSettingsFile(path, newText); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(ins.out, "Changes written to %s\n", path)
	return nil
}

// writeSettingsFile replaces the settings file in one step so a crash
// mid-write cannot leave truncated JSON behind.
func writeSettingsFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
