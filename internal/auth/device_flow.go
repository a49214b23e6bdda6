package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/browser"
)

const deviceCodeGrant = "urn:ietf:params:oauth:grant-type:device_code"

// DefaultScopes are requested on login.
var DefaultScopes = []string{"openid", "profile", "email", "offline_access"}

type DeviceCodeResponse struct {
	DeviceCode              string `json:"device_code"`
	UserCode                string `json:"user_code"`
	VerificationURI         string `json:"verification_uri"`
	VerificationURIComplete string `json:"verification_uri_complete"`
	ExpiresIn               int    `json:"expires_in"`
	Interval                int    `json:"interval"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	IDToken      string `json:"id_token,omitempty"`
}

// ExpiresAt converts ExpiresIn to an absolute time relative to now.
func (t *TokenResponse) ExpiresAt(now time.Time) time.Time {
	return now.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// TokenError is an OAuth error returned by the token endpoint.
type TokenError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *TokenError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("token request failed with status %d", e.StatusCode)
	}
	if e.Description == "" {
		return "token request failed: " + e.Code
	}
	return fmt.Sprintf("token request failed: %s - %s", e.Code, e.Description)
}

func (e *TokenError) pending() bool {
	return e.Code == "authorization_pending" || e.Code == "slow_down"
}

// RequestDeviceCode starts a device authorization.
func (c *Client) RequestDeviceCode(ctx context.Context, config *OIDCConfig, scopes []string) (*DeviceCodeResponse, error) {
	resp, err := c.r.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"client_id": c.clientID,
			"scope":     strings.Join(scopes, " "),
		}).
		Post(config.DeviceAuthorizationEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to send device code request: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("device authorization endpoint returned status %d: %s", resp.StatusCode(), resp.String())
	}

	var out DeviceCodeResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to parse device code response: %w", err)
	}
	return &out, nil
}

// PollForToken polls the token endpoint every interval seconds until the user
// approves, the code expires after expiresIn seconds, or ctx is done.
func (c *Client) PollForToken(ctx context.Context, config *OIDCConfig, deviceCode string, interval, expiresIn int) (*TokenResponse, error) {
	if interval <= 0 {
		interval = 5
	}
	pollInterval := time.Duration(interval) * time.Second
	deadline := time.NewTimer(time.Duration(expiresIn) * time.Second)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-deadline.C:
			return nil, fmt.Errorf("authentication timeout: authorization was not completed within %d seconds", expiresIn)

		case <-ticker.C:
			token, err := c.exchange(ctx, config, map[string]string{
				"grant_type":  deviceCodeGrant,
				"device_code": deviceCode,
			})
			var tokenErr *TokenError
			if errors.As(err, &tokenErr) && tokenErr.pending() {
				if tokenErr.Code == "slow_down" {
					pollInterval += c.slowDown
					ticker.Reset(pollInterval)
				}
				continue
			}
			if err != nil {
				return nil, err
			}
			return token, nil
		}
	}
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, config *OIDCConfig, refreshToken string) (*TokenResponse, error) {
	token, err := c.exchange(ctx, config, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("refresh failed: %w", err)
	}
	return token, nil
}

func (c *Client) exchange(ctx context.Context, config *OIDCConfig, form map[string]string) (*TokenResponse, error) {
	form["client_id"] = c.clientID

	resp, err := c.r.R().SetContext(ctx).SetFormData(form).Post(config.TokenEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to send token request: %w", err)
	}

	if !resp.IsSuccess() {
		tokenErr := &TokenError{StatusCode: resp.StatusCode()}
		var body struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if json.Unmarshal(resp.Body(), &body) == nil {
			tokenErr.Code = body.Error
			tokenErr.Description = body.ErrorDescription
		}
		return nil, tokenErr
	}

	var token TokenResponse
	if err := json.Unmarshal(resp.Body(), &token); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	return &token, nil
}

// OpenBrowser opens url in the user's browser.
func OpenBrowser(url string) error {
	if url == "" {
		return fmt.Errorf("cannot open browser: empty URL provided")
	}
	if err := browser.OpenURL(url); err != nil {
		return fmt.Errorf("failed to open browser automatically, please open this URL manually:\n%s\nError: %w", url, err)
	}
	return nil
}
