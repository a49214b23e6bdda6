// Package testutil provides testing utilities for saple-cli.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// CreateTempConfig creates a temporary config file with the given content.
// The file is automatically cleaned up when the test finishes.
func CreateTempConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config content: %v", err)
	}
	return path
}

// WithConfigFile writes a config pointing at serverURL and sets SAPLE_CONFIG.
func WithConfigFile(t *testing.T, serverURL string) string {
	t.Helper()

	path := CreateTempConfig(t, fmt.Sprintf(`server_url: %s
cache:
  enabled: false
  ttl: 1m
http:
  timeout: 5s
  rate_limit: 0
  burst: 1
`, serverURL))

	t.Setenv("SAPLE_CONFIG", path)
	return path
}

// WithCredentials writes a credentials file holding a valid access token and
// points SAPLE_CREDENTIALS at it.
func WithCredentials(t *testing.T, accessToken string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "credentials.json")
	data, err := json.Marshal(map[string]interface{}{
		"access_token":  accessToken,
		"refresh_token": "refresh-" + accessToken,
		"expires_at":    time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		"user": map[string]string{
			"sub":   "user-1",
			"email": "owner@example.com",
			"name":  "Owner",
		},
	})
	if err != nil {
		t.Fatalf("failed to encode credentials: %v", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("failed to write credentials: %v", err)
	}

	t.Setenv("SAPLE_CREDENTIALS", path)
	return path
}

// WriteFile creates a file with content under dir and returns its path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
