// Package format turns Claude Code hook payloads into chat messages.
package format

import (
	"fmt"
	"path/filepath"
)

// StopEvent is the JSON payload of a Stop hook invocation.
type StopEvent struct {
	SessionID      string `json:"session_id"`
	CWD            string `json:"cwd"`
	StopHookActive bool   `json:"stop_hook_active"`
}

// NotifyEvent is the JSON payload of a Notification hook invocation.
// Message is a pointer: an absent key gets a default while an explicit
// empty string passes through as-is.
type NotifyEvent struct {
	NotificationType string  `json:"notification_type"`
	Message          *string `json:"message"`
	Title            string  `json:"title"`
	CWD              string  `json:"cwd"`
}

// notifyLabels maps notification subtypes to human labels.
var notifyLabels = map[string]string{
	"permission_prompt":  "Permission needed",
	"idle_prompt":        "Waiting for input",
	"elicitation_dialog": "Question for you",
}

// StopMessage formats a Stop event. ok is false when stop_hook_active is
// set, meaning the event was triggered by a stop hook itself and forwarding
// it would loop.
func StopMessage(ev StopEvent) (msg string, ok bool) {
	if ev.StopHookActive {
		return "", false
	}
	session := ev.SessionID
	if session == "" {
		session = "unknown"
	}
	if len(session) > 8 {
		session = session[:8]
	}
	return fmt.Sprintf("Task complete in **%s** (session `%s`)", projectName(ev.CWD), session), true
}

// NotifyMessage formats a Notification event.
func NotifyMessage(ev NotifyEvent) string {
	label, known := notifyLabels[ev.NotificationType]
	if !known {
		label = "Notification"
	}
	message := "Input needed"
	if ev.Message != nil {
		message = *ev.Message
	}
	project := projectName(ev.CWD)
	if ev.Title != "" {
		return fmt.Sprintf("%s in **%s** — %s: %s", label, project, ev.Title, message)
	}
	return fmt.Sprintf("%s in **%s**: %s", label, project, message)
}

func projectName(cwd string) string {
	if cwd == "" {
		return "unknown"
	}
	return filepath.Base(cwd)
}
