// Package hooks merges agent-smith's Claude Code hook entries into a
// settings document. The merge is a full replace of our own prior entries,
// which makes repeated installs idempotent, and it never touches settings it
// does not own: unknown top-level keys, unknown hook events, and other
// tools' hook groups all pass through as raw JSON.
package hooks

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

// ProgramName is the identity token embedded in every hook command this tool
// writes. A hook group is considered ours when any of its commands contain
// this token. Substring containment is deliberate: entries written by older
// installs with different flags or paths are still recognized and replaced
// rather than duplicated. It also means a foreign command that happens to
// mention the token is treated as ours; known sharp edge, kept for
// compatibility with prior releases.
const ProgramName = "agent-smith"

// The two hook events agent-smith manages.
const (
	EventStop   = "Stop"
	EventNotify = "Notification"
)

// notifyMatcher selects the notification subtypes worth forwarding to chat.
const notifyMatcher = "permission_prompt|idle_prompt|elicitation_dialog"

// Command is a single hook command entry in settings.json.
type Command struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Async   bool   `json:"async"`
}

// Group is one entry in an event's hook list: an optional matcher plus the
// commands to run.
type Group struct {
	Matcher string    `json:"matcher,omitempty"`
	Hooks   []Command `json:"hooks"`
}

// Desired holds the connection parameters baked into the installed hook
// commands so the hooks work without environment variables at runtime.
// Every field is optional.
type Desired struct {
	ConfigPath string
	Homeserver string
	Token      string
	Room       string
}

// commandLine builds the shell command installed for a hook subcommand,
// quoting each flag value.
func (d Desired) commandLine(token, subcommand string) string {
	parts := []string{token}
	if d.ConfigPath != "" {
		parts = append(parts, "-c", shellquote.Join(d.ConfigPath))
	}
	if d.Homeserver != "" {
		parts = append(parts, "--homeserver", shellquote.Join(d.Homeserver))
	}
	if d.Token != "" {
		parts = append(parts, "--token", shellquote.Join(d.Token))
	}
	if d.Room != "" {
		parts = append(parts, "--room", shellquote.Join(d.Room))
	}
	parts = append(parts, subcommand)
	return strings.Join(parts, " ")
}

// ownershipProbe is the minimal shape needed to inspect an existing group's
// commands. Unknown fields in foreign groups are irrelevant here; the raw
// bytes are what gets preserved.
type ownershipProbe struct {
	Hooks []struct {
		Command string `json:"command"`
	} `json:"hooks"`
}

// isOwnedGroup reports whether a hook group was written by this tool,
// identified by token containment in any of its command strings. A group
// that is not a JSON object indicates a corrupted settings file and is
// reported rather than silently repaired.
func isOwnedGroup(raw json.RawMessage, token string) (bool, error) {
	var probe ownershipProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false, fmt.Errorf("malformed hook entry: %w", err)
	}
	for _, h := range probe.Hooks {
		if strings.Contains(h.Command, token) {
			return true, nil
		}
	}
	return false, nil
}

// Merge returns a new settings document with agent-smith's Stop and
// Notification hooks installed. The input map is never modified. For each
// managed event, prior groups owned by token are dropped and exactly one
// fresh group is appended after any foreign groups, which keep their order.
//
// Malformed shapes at the hooks key (a non-object hooks table, a non-array
// event list, a non-object group) are errors: they mean the settings file is
// corrupted and should not be silently rewritten.
func Merge(settings map[string]json.RawMessage, desired Desired, token string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(settings)+1)
	for k, v := range settings {
		out[k] = v
	}

	table := make(map[string]json.RawMessage)
	if raw, ok := out["hooks"]; ok {
		if err := json.Unmarshal(raw, &table); err != nil {
			return nil, fmt.Errorf("parsing hooks table: %w", err)
		}
	}

	for _, event := range []string{EventStop, EventNotify} {
		var groups []json.RawMessage
		if raw, ok := table[event]; ok {
			if err := json.Unmarshal(raw, &groups); err != nil {
				return nil, fmt.Errorf("parsing %s hooks: %w", event, err)
			}
		}

		kept := make([]json.RawMessage, 0, len(groups)+1)
		for _, g := range groups {
			owned, err := isOwnedGroup(g, token)
			if err != nil {
				return nil, fmt.Errorf("%s hooks: %w", event, err)
			}
			if !owned {
				kept = append(kept, g)
			}
		}

		fresh, err := json.Marshal(managedGroup(event, desired, token))
		if err != nil {
			return nil, fmt.Errorf("marshaling %s hook: %w", event, err)
		}
		kept = append(kept, fresh)

		rebuilt, err := json.Marshal(kept)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s hooks: %w", event, err)
		}
		table[event] = rebuilt
	}

	rebuilt, err := json.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("marshaling hooks table: %w", err)
	}
	out["hooks"] = rebuilt
	return out, nil
}

// Installed reports whether every managed event already has a hook group
// owned by token. Malformed shapes count as not installed.
func Installed(settings map[string]json.RawMessage, token string) bool {
	rawTable, ok := settings["hooks"]
	if !ok {
		return false
	}
	var table map[string]json.RawMessage
	if err := json.Unmarshal(rawTable, &table); err != nil {
		return false
	}

	for _, event := range []string{EventStop, EventNotify} {
		var groups []json.RawMessage
		if err := json.Unmarshal(table[event], &groups); err != nil {
			return false
		}
		found := false
		for _, g := range groups {
			if owned, err := isOwnedGroup(g, token); err == nil && owned {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// managedGroup synthesizes the hook group installed for an event. Hooks run
// async so Claude Code never waits on a chat round-trip.
func managedGroup(event string, desired Desired, token string) Group {
	g := Group{}
	switch event {
	case EventNotify:
		g.Matcher = notifyMatcher
		g.Hooks = []Command{{Type: "command", Command: desired.commandLine(token, "notify"), Async: true}}
	default:
		g.Hooks = []Command{{Type: "command", Command: desired.commandLine(token, "stop"), Async: true}}
	}
	return g
}
