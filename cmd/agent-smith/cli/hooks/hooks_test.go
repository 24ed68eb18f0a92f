package hooks

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/kballard/go-shellquote"
)

func mustMerge(t *testing.T, settings map[string]json.RawMessage, desired Desired) map[string]json.RawMessage {
	t.Helper()
	out, err := Merge(settings, desired, ProgramName)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	return out
}

func decodeGroups(t *testing.T, settings map[string]json.RawMessage, event string) []Group {
	t.Helper()
	var table map[string]json.RawMessage
	if err := json.Unmarshal(settings["hooks"], &table); err != nil {
		t.Fatalf("parsing hooks table: %v", err)
	}
	var groups []Group
	if err := json.Unmarshal(table[event], &groups); err != nil {
		t.Fatalf("parsing %s groups: %v", event, err)
	}
	return groups
}

func TestMergeIntoEmptySettings(t *testing.T) {
	out := mustMerge(t, map[string]json.RawMessage{}, Desired{})

	for _, event := range []string{EventStop, EventNotify} {
		groups := decodeGroups(t, out, event)
		if len(groups) != 1 {
			t.Fatalf("%s: got %d groups, want 1", event, len(groups))
		}
		if len(groups[0].Hooks) != 1 {
			t.Fatalf("%s: got %d hooks, want 1", event, len(groups[0].Hooks))
		}
		h := groups[0].Hooks[0]
		if h.Type != "command" {
			t.Errorf("%s: hook type = %q, want %q", event, h.Type, "command")
		}
		if !h.Async {
			t.Errorf("%s: hook is not async", event)
		}
	}

	stop := decodeGroups(t, out, EventStop)[0]
	if stop.Matcher != "" {
		t.Errorf("Stop matcher = %q, want empty", stop.Matcher)
	}
	if stop.Hooks[0].Command != "agent-smith stop" {
		t.Errorf("Stop command = %q, want %q", stop.Hooks[0].Command, "agent-smith stop")
	}

	notify := decodeGroups(t, out, EventNotify)[0]
	if notify.Matcher != "permission_prompt|idle_prompt|elicitation_dialog" {
		t.Errorf("Notification matcher = %q", notify.Matcher)
	}
	if notify.Hooks[0].Command != "agent-smith notify" {
		t.Errorf("Notification command = %q, want %q", notify.Hooks[0].Command, "agent-smith notify")
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	tests := []struct {
		name    string
		desired Desired
		want    string
	}{
		{
			name:    "room ID gets escaped",
			desired: Desired{Room: "!abc:example.org"},
			want:    `agent-smith --room \!abc:example.org stop`,
		},
		{
			name:    "plain URL stays unquoted",
			desired: Desired{Homeserver: "https://matrix.example.org"},
			want:    "agent-smith --homeserver https://matrix.example.org stop",
		},
		{
			name:    "config path",
			desired: Desired{ConfigPath: "/etc/agent-smith/config.env"},
			want:    "agent-smith -c /etc/agent-smith/config.env stop",
		},
		{
			name: "all flags in order",
			desired: Desired{
				ConfigPath: "my config.env",
				Homeserver: "https://matrix.example.org",
				Token:      "syt_secret",
				Room:       "!abc:example.org",
			},
			want: `agent-smith -c 'my config.env' --homeserver https://matrix.example.org` +
				` --token syt_secret --room \!abc:example.org stop`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mustMerge(t, map[string]json.RawMessage{}, tt.desired)
			got := decodeGroups(t, out, EventStop)[0].Hooks[0].Command
			if got != tt.want {
				t.Errorf("command = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMergeCommandLineSplitsBack(t *testing.T) {
	// Whatever escaping Join chooses, a shell must recover the original
	// flag values.
	desired := Desired{
		ConfigPath: "my config.env",
		Homeserver: "https://matrix.example.org",
		Token:      "syt_secret",
		Room:       "!abc:example.org",
	}
	out := mustMerge(t, map[string]json.RawMessage{}, desired)
	cmd := decodeGroups(t, out, EventStop)[0].Hooks[0].Command

	argv, err := shellquote.Split(cmd)
	if err != nil {
		t.Fatalf("Split(%q) error = %v", cmd, err)
	}
	want := []string{
		"agent-smith",
		"-c", "my config.env",
		"--homeserver", "https://matrix.example.org",
		"--token", "syt_secret",
		"--room", "!abc:example.org",
		"stop",
	}
	if !reflect.DeepEqual(argv, want) {
		t.Errorf("Split(%q) = %v, want %v", cmd, argv, want)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	desired := Desired{Homeserver: "https://matrix.example.org", Room: "!abc:example.org"}

	once := mustMerge(t, map[string]json.RawMessage{}, desired)
	twice := mustMerge(t, once, desired)

	a, err := json.Marshal(once)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(twice)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("second merge changed the document:\nfirst:  %s\nsecond: %s", a, b)
	}
}

func TestMergeReplacesStaleOwnEntries(t *testing.T) {
	settings := map[string]json.RawMessage{
		"hooks": json.RawMessage(`{
			"Stop": [
				{"hooks": [{"type": "command", "command": "agent-smith --room '!old:example.org' stop", "async": true}]}
			]
		}`),
	}

	out := mustMerge(t, settings, Desired{Room: "!new:example.org"})
	groups := decodeGroups(t, out, EventStop)
	if len(groups) != 1 {
		t.Fatalf("got %d Stop groups, want 1", len(groups))
	}
	cmd := groups[0].Hooks[0].Command
	if !strings.Contains(cmd, "!new:example.org") {
		t.Errorf("command not updated: %q", cmd)
	}
	if strings.Contains(cmd, "!old:example.org") {
		t.Errorf("stale entry survived: %q", cmd)
	}
}

func TestMergePreservesForeignContent(t *testing.T) {
	foreignGroup := `{"matcher":"custom","hooks":[{"type":"command","command":"other-tool stop","timeout":30}],"extra":{"nested":true}}`
	settings := map[string]json.RawMessage{
		"model":       json.RawMessage(`"opus"`),
		"permissions": json.RawMessage(`{"allow": ["Bash(ls:*)"]}`),
		"hooks": json.RawMessage(`{
			"Stop": [` + foreignGroup + `],
			"PreToolUse": [{"matcher":"Bash","hooks":[{"type":"command","command":"lint"}]}]
		}`),
	}

	out := mustMerge(t, settings, Desired{})

	if string(out["model"]) != `"opus"` {
		t.Errorf("model key changed: %s", out["model"])
	}
	if string(out["permissions"]) != `{"allow": ["Bash(ls:*)"]}` {
		t.Errorf("permissions key changed: %s", out["permissions"])
	}

	var table map[string]json.RawMessage
	if err := json.Unmarshal(out["hooks"], &table); err != nil {
		t.Fatal(err)
	}
	if _, ok := table["PreToolUse"]; !ok {
		t.Error("unmanaged PreToolUse event was dropped")
	}

	var stopGroups []json.RawMessage
	if err := json.Unmarshal(table[EventStop], &stopGroups); err != nil {
		t.Fatal(err)
	}
	if len(stopGroups) != 2 {
		t.Fatalf("got %d Stop groups, want foreign + ours", len(stopGroups))
	}
	// The foreign group keeps its position and its exact bytes, unknown
	// fields included.
	if !bytes.Equal(stopGroups[0], json.RawMessage(foreignGroup)) {
		t.Errorf("foreign group altered:\ngot  %s\nwant %s", stopGroups[0], foreignGroup)
	}
	var ours Group
	if err := json.Unmarshal(stopGroups[1], &ours); err != nil {
		t.Fatal(err)
	}
	if ours.Hooks[0].Command != "agent-smith stop" {
		t.Errorf("our group not appended last: %s", stopGroups[1])
	}
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	settings := map[string]json.RawMessage{
		"hooks": json.RawMessage(`{"Stop": []}`),
	}
	before, err := json.Marshal(settings)
	if err != nil {
		t.Fatal(err)
	}

	mustMerge(t, settings, Desired{})

	after, err := json.Marshal(settings)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Errorf("input mutated:\nbefore: %s\nafter:  %s", before, after)
	}
}

func TestMergeMalformedShapes(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]json.RawMessage
	}{
		{
			name:     "hooks table is not an object",
			settings: map[string]json.RawMessage{"hooks": json.RawMessage(`["not", "a", "table"]`)},
		},
		{
			name:     "event list is not an array",
			settings: map[string]json.RawMessage{"hooks": json.RawMessage(`{"Stop": {"hooks": []}}`)},
		},
		{
			name:     "group is not an object",
			settings: map[string]json.RawMessage{"hooks": json.RawMessage(`{"Stop": ["just a string"]}`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Merge(tt.settings, Desired{}, ProgramName); err == nil {
				t.Error("Merge() succeeded on corrupted settings, want error")
			}
		})
	}
}

func TestTokenContainmentOwnership(t *testing.T) {
	// A foreign wrapper script that mentions the token is claimed by the
	// merge and replaced. Documented behavior.
	settings := map[string]json.RawMessage{
		"hooks": json.RawMessage(`{
			"Stop": [{"hooks": [{"type": "command", "command": "/usr/local/bin/run-agent-smith-wrapper"}]}]
		}`),
	}

	out := mustMerge(t, settings, Desired{})
	groups := decodeGroups(t, out, EventStop)
	if len(groups) != 1 {
		t.Fatalf("got %d Stop groups, want 1", len(groups))
	}
	if groups[0].Hooks[0].Command != "agent-smith stop" {
		t.Errorf("wrapper mentioning the token was not replaced: %q", groups[0].Hooks[0].Command)
	}
}

func TestInstalled(t *testing.T) {
	if Installed(map[string]json.RawMessage{}, ProgramName) {
		t.Error("Installed() = true on empty settings")
	}

	merged := mustMerge(t, map[string]json.RawMessage{}, Desired{})
	if !Installed(merged, ProgramName) {
		t.Error("Installed() = false right after Merge()")
	}

	// One managed event alone is not enough.
	partial := map[string]json.RawMessage{
		"hooks": json.RawMessage(`{"Stop": [{"hooks": [{"type": "command", "command": "agent-smith stop"}]}]}`),
	}
	if Installed(partial, ProgramName) {
		t.Error("Installed() = true with only the Stop hook present")
	}
}
