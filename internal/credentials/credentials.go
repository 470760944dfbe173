// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package credentials loads the API access token stored by the desktop
// note-taking app. The app keeps a supabase.json file whose workos_tokens
// field is itself a JSON-encoded object carrying access_token.
package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrMissingFile is returned when the credentials file does not exist.
	ErrMissingFile = errors.New("credentials file missing")

	// ErrNoToken is returned when the file parses but holds no usable token.
	ErrNoToken = errors.New("access token missing")
)

type supabaseFile struct {
	WorkOSTokens *string `json:"workos_tokens"`
}

type workOSTokens struct {
	AccessToken string `json:"access_token"`
}

// Load reads the credentials file at path and returns the access token.
// Every failure is a configuration error: the caller aborts the run.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w at %s", ErrMissingFile, path)
		}
		return "", fmt.Errorf("reading credentials %s: %w", path, err)
	}
	return Parse(data)
}

// Parse extracts the access token from the contents of a credentials file.
func Parse(data []byte) (string, error) {
	var f supabaseFile
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("parsing credentials: %w", err)
	}
	if f.WorkOSTokens == nil {
		return "", fmt.Errorf("%w: workos_tokens key missing", ErrNoToken)
	}

	var tokens workOSTokens
	if err := json.Unmarshal([]byte(*f.WorkOSTokens), &tokens); err != nil {
		return "", fmt.Errorf("parsing workos_tokens: %w", err)
	}

	token := strings.TrimSpace(tokens.AccessToken)
	if token == "" {
		return "", fmt.Errorf("%w: access_token is null or empty", ErrNoToken)
	}
	return token, nil
}

// Resolve returns override when it is non-empty, otherwise the token
// loaded from path.
func Resolve(override, path string) (string, error) {
	if v := strings.TrimSpace(override); v != "" {
		return v, nil
	}
	return Load(path)
}
