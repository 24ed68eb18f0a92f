// Package matrix is a minimal Matrix client-server API client: enough to
// put one m.room.message event into one room.
package matrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// requestTimeout bounds a single send. Hooks run async, but a hung
// homeserver should still not pin a process for minutes.
const requestTimeout = 30 * time.Second

// Client sends messages to a Matrix homeserver using an access token.
type Client struct {
	homeserver string
	token      string
	http       *http.Client
}

// NewClient builds a client for the given homeserver URL and access token.
func NewClient(homeserver, token string) *Client {
	return &Client{
		homeserver: strings.TrimRight(homeserver, "/"),
		token:      token,
		http:       &http.Client{Timeout: requestTimeout},
	}
}

// messageContent is the m.room.message event body.
type messageContent struct {
	MsgType string `json:"msgtype"`
	Body    string `json:"body"`
}

// sendResponse is the success payload of PUT /rooms/.../send.
type sendResponse struct {
	EventID string `json:"event_id"`
}

// apiError is the standard Matrix error payload.
type apiError struct {
	Errcode string `json:"errcode"`
	Error   string `json:"error"`
}

// SendText puts a plain-text m.room.message event into roomID and returns
// the event ID. The transaction ID is a fresh UUID, so retries on the caller
// side become distinct events rather than silent dedups.
func (c *Client) SendText(ctx context.Context, roomID, body string) (string, error) {
	endpoint := fmt.Sprintf("%s/_matrix/client/v3/rooms/%s/send/m.room.message/%s",
		c.homeserver, url.PathEscape(roomID), uuid.NewString())

	payload, err := json.Marshal(messageContent{MsgType: "m.text", Body: body})
	if err != nil {
		return "", fmt.Errorf("encoding message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Errcode != "" {
			return "", fmt.Errorf("matrix send failed: %s (%s)", apiErr.Error, apiErr.Errcode)
		}
		return "", fmt.Errorf("matrix send failed: status %d", resp.StatusCode)
	}

	var sent sendResponse
	if err := json.Unmarshal(respBody, &sent); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	return sent.EventID, nil
}
