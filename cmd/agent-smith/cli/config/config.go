// Package config resolves the Matrix connection parameters from CLI flag
// overrides, an optional dotenv config file, and environment variables, in
// that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/subosito/gotenv"
)

// Environment variables read when no override is supplied.
const (
	EnvHomeserver = "MATRIX_HOMESERVER"
	EnvToken      = "MATRIX_ACCESS_TOKEN"
	EnvRoom       = "MATRIX_ROOM_ID"
)

// descriptions shown when a required variable is missing.
var required = []struct {
	name, description string
}{
	{EnvHomeserver, "Matrix homeserver URL (e.g. https://matrix.example.org)"},
	{EnvToken, "Matrix access token"},
	{EnvRoom, "Matrix room ID (e.g. !abc:example.org)"},
}

// Config is a fully resolved Matrix connection.
type Config struct {
	Homeserver  string
	AccessToken string
	RoomID      string
}

// Load resolves the connection from overrides first, then the environment.
// All three required values must resolve; the error lists every missing one
// with its description so the operator can fix them in a single pass.
func Load(overrides map[string]string) (*Config, error) {
	values := make(map[string]string, len(required))
	var missing []string
	for _, req := range required {
		value := overrides[req.name]
		if value == "" {
			value = os.Getenv(req.name)
		}
		if value == "" {
			missing = append(missing, fmt.Sprintf("  %s - %s", req.name, req.description))
			continue
		}
		values[req.name] = value
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables:\n%s", strings.Join(missing, "\n"))
	}
	return &Config{
		Homeserver:  values[EnvHomeserver],
		AccessToken: values[EnvToken],
		RoomID:      values[EnvRoom],
	}, nil
}

// LoadFile reads MATRIX_* variables from a dotenv-format config file.
// Non-MATRIX keys and empty values are ignored.
func LoadFile(path string) (map[string]string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the -c flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	defer f.Close()

	parsed, err := gotenv.StrictParse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	values := make(map[string]string)
	for k, v := range parsed {
		if strings.HasPrefix(k, "MATRIX_") && v != "" {
			values[k] = v
		}
	}
	return values, nil
}

// LoadDotenv loads a .env file from the working directory into the process
// environment when one exists. Existing variables are never overwritten.
func LoadDotenv() {
	_ = gotenv.Load()
}
