// Package paths resolves where agent-smith reads and writes files: the
// Claude Code settings file (user-level or project-level) and the tool's
// own global config directory.
package paths

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// ClaudeSettingsFileName is the settings file used by Claude Code.
const ClaudeSettingsFileName = "settings.json"

// globalConfigDirName is the tool's directory under the user's home.
const globalConfigDirName = ".config/agent-smith"

// UserSettingsPath returns the user-level Claude Code settings file,
// ~/.claude/settings.json.
func UserSettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".claude", ClaudeSettingsFileName), nil
}

// ProjectSettingsPath returns the project-level settings file,
// <repo-root>/.claude/settings.json, for the repository enclosing the
// working directory. Errors when not inside a git repository.
func ProjectSettingsPath() (string, error) {
	root, err := repoRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, ".claude", ClaudeSettingsFileName), nil
}

// repoRoot finds the worktree root of the repository enclosing the working
// directory, walking up through parent directories like git itself does.
func repoRoot() (string, error) {
	repo, err := git.PlainOpenWithOptions(".", &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("not inside a git repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("resolving repository worktree: %w", err)
	}
	return wt.Filesystem.Root(), nil
}

// GlobalConfigDir returns ~/.config/agent-smith, creating it if needed.
func GlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	dir := filepath.Join(home, globalConfigDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return dir, nil
}
