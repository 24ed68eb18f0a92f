// Package jsonutil serializes JSON the way agent-smith writes it to disk:
// two-space indentation and a single trailing newline. Both the installer
// diff and the final settings write go through this so the two always agree.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MarshalSettings renders v with 2-space indentation and a trailing newline.
// The trailing newline comes from json.Encoder and keeps written files
// POSIX-clean.
func MarshalSettings(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}
	return buf.Bytes(), nil
}
