// Package versioncheck notifies the operator when a newer agent-smith
// release is available. Checks are rate-limited through an on-disk cache
// and silent on every failure: an update nag must never break a hook.
package versioncheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agent-smith/cli/cmd/agent-smith/cli/paths"
	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"
)

// githubAPIURL is the endpoint for the latest release. A var so tests can
// point it at a local server.
var githubAPIURL = "https://api.github.com/repos/agent-smith/cli/releases/latest"

const (
	// checkInterval is the minimum time between checks.
	checkInterval = 24 * time.Hour

	// httpTimeout bounds the GitHub API request.
	httpTimeout = 2 * time.Second

	// cacheFileName lives in the global config directory.
	cacheFileName = "version_check.json"
)

// versionCache records when the last check ran.
type versionCache struct {
	LastCheckTime time.Time `json:"last_check_time"`
}

// githubRelease is the slice of the GitHub API response we read.
type githubRelease struct {
	TagName    string `json:"tag_name"`
	Prerelease bool   `json:"prerelease"`
}

// CheckAndNotify checks for a newer release and prints a notice when one
// exists. Hidden commands (the hook handlers) and dev builds are skipped,
// and all errors are swallowed.
func CheckAndNotify(cmd *cobra.Command, currentVersion string) {
	if cmd.Hidden {
		return
	}
	if currentVersion == "dev" || currentVersion == "" {
		return
	}

	cache, err := loadCache()
	if err != nil {
		cache = &versionCache{}
	}
	if time.Since(cache.LastCheckTime) < checkInterval {
		return
	}

	latest, fetchErr := fetchLatestVersion()

	// Update the cache regardless of outcome so failures are not retried on
	// every invocation.
	cache.LastCheckTime = time.Now()
	_ = saveCache(cache)

	if fetchErr != nil {
		return
	}
	if isOutdated(currentVersion, latest) {
		fmt.Fprintf(cmd.ErrOrStderr(),
			"\nA newer version of agent-smith is available: %s (current: %s)\n",
			latest, currentVersion)
	}
}

func cacheFilePath() (string, error) {
	dir, err := paths.GlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, cacheFileName), nil
}

func loadCache() (*versionCache, error) {
	filePath, err := cacheFilePath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filePath) //nolint:gosec // path is under the global config dir
	if err != nil {
		return nil, fmt.Errorf("reading cache file: %w", err)
	}
	var cache versionCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("parsing cache: %w", err)
	}
	return &cache, nil
}

// saveCache writes the cache atomically: temp file then rename.
func saveCache(cache *versionCache) error {
	filePath, err := cacheFilePath()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(filePath), ".version_check_tmp_")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), filePath); err != nil {
		return fmt.Errorf("renaming cache file: %w", err)
	}
	return nil
}

func fetchLatestVersion() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, githubAPIURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "agent-smith")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching release info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return parseRelease(body)
}

// parseRelease extracts the latest stable version tag, skipping prereleases.
func parseRelease(body []byte) (string, error) {
	var release githubRelease
	if err := json.Unmarshal(body, &release); err != nil {
		return "", fmt.Errorf("parsing JSON: %w", err)
	}
	if release.Prerelease {
		return "", errors.New("only prerelease versions available")
	}
	if release.TagName == "" {
		return "", errors.New("empty tag name")
	}
	return release.TagName, nil
}

// isOutdated reports current < latest under semver.
func isOutdated(current, latest string) bool {
	if !strings.HasPrefix(current, "v") {
		current = "v" + current
	}
	if !strings.HasPrefix(latest, "v") {
		latest = "v" + latest
	}
	return semver.Compare(current, latest) < 0
}
