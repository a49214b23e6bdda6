// Package auth implements OIDC device-flow sign-in and the local credential
// store that supplies bearer tokens to the API client.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// OIDCConfig is the subset of the discovery document the CLI needs.
type OIDCConfig struct {
	Issuer                      string `json:"issuer"`
	DeviceAuthorizationEndpoint string `json:"device_authorization_endpoint"`
	TokenEndpoint               string `json:"token_endpoint"`
	UserinfoEndpoint            string `json:"userinfo_endpoint"`
	AuthorizationEndpoint       string `json:"authorization_endpoint,omitempty"`
	JwksURI                     string `json:"jwks_uri,omitempty"`
}

// Client talks to one identity provider on behalf of a registered client id.
type Client struct {
	r        *resty.Client
	clientID string
	slowDown time.Duration
}

// NewClient returns an OIDC client. A zero timeout leaves requests bounded
// only by their context.
func NewClient(clientID string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	}
	return &Client{r: r, clientID: clientID, slowDown: 5 * time.Second}
}

// ClientID returns the client id sent with every request.
func (c *Client) ClientID() string {
	return c.clientID
}

// Discover fetches and validates the issuer's discovery document.
func (c *Client) Discover(ctx context.Context, issuerURL string) (*OIDCConfig, error) {
	discoveryURL := strings.TrimSuffix(issuerURL, "/") + "/.well-known/openid-configuration"

	resp, err := c.r.R().SetContext(ctx).Get(discoveryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discovery document: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("discovery endpoint returned status %d", resp.StatusCode())
	}

	var config OIDCConfig
	if err := json.Unmarshal(resp.Body(), &config); err != nil {
		return nil, fmt.Errorf("failed to parse discovery document: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *OIDCConfig) validate() error {
	required := []struct{ name, value string }{
		{"issuer", c.Issuer},
		{"device_authorization_endpoint", c.DeviceAuthorizationEndpoint},
		{"token_endpoint", c.TokenEndpoint},
		{"userinfo_endpoint", c.UserinfoEndpoint},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("missing required field: %s", f.name)
		}
	}
	return nil
}

// UserInfo identifies the signed-in user.
type UserInfo struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// UserInfo fetches the profile of the token's owner.
func (c *Client) UserInfo(ctx context.Context, config *OIDCConfig, accessToken string) (*UserInfo, error) {
	resp, err := c.r.R().SetContext(ctx).SetAuthToken(accessToken).Get(config.UserinfoEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("userinfo endpoint returned status %d: %s", resp.StatusCode(), resp.String())
	}

	var info UserInfo
	if err := json.Unmarshal(resp.Body(), &info); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	return &info, nil
}
