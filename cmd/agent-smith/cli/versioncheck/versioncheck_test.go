package versioncheck

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

func TestIsOutdated(t *testing.T) {
	tests := []struct {
		current string
		latest  string
		want    bool
		desc    string
	}{
		{"1.0.0", "1.0.1", true, "patch version bump"},
		{"1.0.0", "1.1.0", true, "minor version bump"},
		{"1.0.0", "2.0.0", true, "major version bump"},
		{"1.0.1", "1.0.0", false, "current is newer"},
		{"1.0.0", "1.0.0", false, "same version"},
		{"v1.0.0", "v1.0.1", true, "with v prefix"},
		{"v1.0.0", "1.0.1", true, "mixed v prefix"},
		{"1.0.0-rc1", "1.0.0", true, "prerelease in current"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := isOutdated(tt.current, tt.latest); got != tt.want {
				t.Errorf("isOutdated(%q, %q) = %v, want %v", tt.current, tt.latest, got, tt.want)
			}
		})
	}
}

func TestParseRelease(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"stable release", `{"tag_name": "v1.2.3", "prerelease": false}`, "v1.2.3", false},
		{"prerelease skipped", `{"tag_name": "v2.0.0-rc1", "prerelease": true}`, "", true},
		{"empty tag", `{"tag_name": "", "prerelease": false}`, "", true},
		{"garbage", `not json`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRelease([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRelease() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseRelease() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	now := time.Now().Round(time.Second)
	if err := saveCache(&versionCache{LastCheckTime: now}); err != nil {
		t.Fatalf("saveCache() error = %v", err)
	}

	loaded, err := loadCache()
	if err != nil {
		t.Fatalf("loadCache() error = %v", err)
	}
	if !loaded.LastCheckTime.Equal(now) {
		t.Errorf("LastCheckTime = %v, want %v", loaded.LastCheckTime, now)
	}
}

func TestCheckAndNotify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"tag_name": "v9.9.9", "prerelease": false}`))
	}))
	defer srv.Close()

	oldURL := githubAPIURL
	githubAPIURL = srv.URL
	defer func() { githubAPIURL = oldURL }()

	newCmd := func() (*cobra.Command, *bytes.Buffer) {
		var errOut bytes.Buffer
		cmd := &cobra.Command{Use: "x"}
		cmd.SetErr(&errOut)
		return cmd, &errOut
	}

	t.Run("outdated version gets a notice", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		cmd, errOut := newCmd()
		CheckAndNotify(cmd, "1.0.0")
		if !strings.Contains(errOut.String(), "v9.9.9") {
			t.Errorf("no update notice printed: %q", errOut.String())
		}
	})

	t.Run("rate limited by cache", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		cmd, _ := newCmd()
		CheckAndNotify(cmd, "1.0.0")

		cmd, errOut := newCmd()
		CheckAndNotify(cmd, "1.0.0")
		if errOut.String() != "" {
			t.Errorf("second check within the interval printed: %q", errOut.String())
		}
	})

	t.Run("dev build skipped", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		cmd, errOut := newCmd()
		CheckAndNotify(cmd, "dev")
		if errOut.String() != "" {
			t.Errorf("dev build got a notice: %q", errOut.String())
		}
	})

	t.Run("hidden command skipped", func(t *testing.T) {
		t.Setenv("HOME", t.TempDir())
		cmd, errOut := newCmd()
		cmd.Hidden = true
		CheckAndNotify(cmd, "1.0.0")
		if errOut.String() != "" {
			t.Errorf("hidden command got a notice: %q", errOut.String())
		}
	})
}
