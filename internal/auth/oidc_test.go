package auth

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/saple-ai/saple-cli/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discoveryDoc(base string) map[string]interface{} {
	return map[string]interface{}{
		"issuer":                        base,
		"device_authorization_endpoint": base + "/oauth/device_authorization",
		"token_endpoint":                base + "/oauth/token",
		"userinfo_endpoint":             base + "/oauth/userinfo",
	}
}

func TestDiscover_ValidIssuer(t *testing.T) {
	mock := testutil.NewMockServer(t)
	mock.OnJSON("GET", "/.well-known/openid-configuration", http.StatusOK, discoveryDoc("https://auth.example.com"))

	c := NewClient("saple-cli", time.Second)
	config, err := c.Discover(context.Background(), mock.URL+"/")
	require.NoError(t, err)

	assert.Equal(t, "https://auth.example.com", config.Issuer)
	assert.Equal(t, "https://auth.example.com/oauth/token", config.TokenEndpoint)
}

func TestDiscover_MissingRequiredFields(t *testing.T) {
	mock := testutil.NewMockServer(t)
	mock.OnJSON("GET", "/.well-known/openid-configuration", http.StatusOK, map[string]string{"issuer": "https://auth.example.com"})

	c := NewClient("saple-cli", time.Second)
	config, err := c.Discover(context.Background(), mock.URL)
	assert.Nil(t, config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required field: device_authorization_endpoint")
}

func TestDiscover_Unreachable(t *testing.T) {
	c := NewClient("saple-cli", time.Second)
	_, err := c.Discover(context.Background(), "http://invalid.test.local.nonexistent")
	assert.Error(t, err)
}

func TestRequestDeviceCode(t *testing.T) {
	mock := testutil.NewMockServer(t)
	mock.On("POST", "/oauth/device_authorization", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "saple-cli", r.PostForm.Get("client_id"))
		assert.Equal(t, "openid email", r.PostForm.Get("scope"))
		testutil.WithJSONResponse(http.StatusOK, map[string]interface{}{
			"device_code":               "dev-code",
			"user_code":                 "WDJB-MJHT",
			"verification_uri":          "https://auth.example.com/device",
			"verification_uri_complete": "https://auth.example.com/device?user_code=WDJB-MJHT",
			"expires_in":                1800,
			"interval":                  5,
		})(w, r)
	})

	c := NewClient("saple-cli", time.Second)
	resp, err := c.RequestDeviceCode(context.Background(), &OIDCConfig{
		DeviceAuthorizationEndpoint: mock.URL + "/oauth/device_authorization",
	}, []string{"openid", "email"})
	require.NoError(t, err)

	assert.Equal(t, "WDJB-MJHT", resp.UserCode)
	assert.Equal(t, 5, resp.Interval)
}

func TestRequestDeviceCode_InvalidClient(t *testing.T) {
	mock := testutil.NewMockServer(t)
	mock.OnJSON("POST", "/oauth/device_authorization", http.StatusBadRequest, map[string]string{"error": "invalid_client"})

	c := NewClient("bad", time.Second)
	resp, err := c.RequestDeviceCode(context.Background(), &OIDCConfig{
		DeviceAuthorizationEndpoint: mock.URL + "/oauth/device_authorization",
	}, DefaultScopes)
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestPollForToken_PendingThenSuccess(t *testing.T) {
	var calls atomic.Int32
	mock := testutil.NewMockServer(t)
	mock.On("POST", "/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, deviceCodeGrant, r.PostForm.Get("grant_type"))
		assert.Equal(t, "dev-code", r.PostForm.Get("device_code"))

		if calls.Add(1) < 2 {
			testutil.WithJSONResponse(http.StatusBadRequest, map[string]string{"error": "authorization_pending"})(w, r)
			return
		}
		testutil.WithJSONResponse(http.StatusOK, map[string]interface{}{
			"access_token":  "access",
			"refresh_token": "refresh",
			"expires_in":    3600,
			"token_type":    "Bearer",
		})(w, r)
	})

	c := NewClient("saple-cli", time.Second)
	token, err := c.PollForToken(context.Background(), &OIDCConfig{TokenEndpoint: mock.URL + "/oauth/token"}, "dev-code", 1, 10)
	require.NoError(t, err)

	assert.Equal(t, "access", token.AccessToken)
	assert.Equal(t, "refresh", token.RefreshToken)
	assert.EqualValues(t, 2, calls.Load())
}

func TestPollForToken_SlowDownBacksOff(t *testing.T) {
	var calls atomic.Int32
	mock := testutil.NewMockServer(t)
	mock.On("POST", "/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			testutil.WithJSONResponse(http.StatusBadRequest, map[string]string{"error": "slow_down"})(w, r)
			return
		}
		testutil.WithJSONResponse(http.StatusOK, map[string]interface{}{"access_token": "token123", "expires_in": 60})(w, r)
	})

	c := NewClient("saple-cli", time.Second)
	c.slowDown = time.Second

	start := time.Now()
	token, err := c.PollForToken(context.Background(), &OIDCConfig{TokenEndpoint: mock.URL + "/oauth/token"}, "dev-code", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "token123", token.AccessToken)
	assert.GreaterOrEqual(t, time.Since(start), 3*time.Second, "second poll waits interval plus back-off")
}

func TestPollForToken_Denied(t *testing.T) {
	mock := testutil.NewMockServer(t)
	mock.OnJSON("POST", "/oauth/token", http.StatusBadRequest, map[string]string{
		"error":             "access_denied",
		"error_description": "User denied authorization",
	})

	c := NewClient("saple-cli", time.Second)
	token, err := c.PollForToken(context.Background(), &OIDCConfig{TokenEndpoint: mock.URL + "/oauth/token"}, "dev-code", 1, 10)
	assert.Nil(t, token)

	var tokenErr *TokenError
	require.ErrorAs(t, err, &tokenErr)
	assert.Equal(t, "access_denied", tokenErr.Code)
	assert.Equal(t, "token request failed: access_denied - User denied authorization", err.Error())
}

func TestPollForToken_Timeout(t *testing.T) {
	mock := testutil.NewMockServer(t)
	mock.OnJSON("POST", "/oauth/token", http.StatusBadRequest, map[string]string{"error": "authorization_pending"})

	c := NewClient("saple-cli", time.Second)
	_, err := c.PollForToken(context.Background(), &OIDCConfig{TokenEndpoint: mock.URL + "/oauth/token"}, "dev-code", 1, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestPollForToken_Cancelled(t *testing.T) {
	mock := testutil.NewMockServer(t)
	mock.OnJSON("POST", "/oauth/token", http.StatusBadRequest, map[string]string{"error": "authorization_pending"})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	c := NewClient("saple-cli", time.Second)
	_, err := c.PollForToken(ctx, &OIDCConfig{TokenEndpoint: mock.URL + "/oauth/token"}, "dev-code", 1, 60)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRefresh(t *testing.T) {
	mock := testutil.NewMockServer(t)
	mock.On("POST", "/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "old-refresh", r.PostForm.Get("refresh_token"))
		testutil.WithJSONResponse(http.StatusOK, map[string]interface{}{
			"access_token":  "new-access",
			"refresh_token": "new-refresh",
			"expires_in":    3600,
		})(w, r)
	})

	c := NewClient("saple-cli", time.Second)
	token, err := c.Refresh(context.Background(), &OIDCConfig{TokenEndpoint: mock.URL + "/oauth/token"}, "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "new-access", token.AccessToken)
}

func TestRefresh_InvalidGrant(t *testing.T) {
	mock := testutil.NewMockServer(t)
	mock.OnJSON("POST", "/oauth/token", http.StatusBadRequest, map[string]string{"error": "invalid_grant"})

	c := NewClient("saple-cli", time.Second)
	_, err := c.Refresh(context.Background(), &OIDCConfig{TokenEndpoint: mock.URL + "/oauth/token"}, "revoked")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestUserInfo(t *testing.T) {
	mock := testutil.NewMockServer(t)
	mock.On("GET", "/oauth/userinfo", func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertHeader(t, r, "Authorization", "Bearer valid")
		testutil.WithJSONResponse(http.StatusOK, map[string]string{"sub": "u1", "email": "a@b.c", "name": "A"})(w, r)
	})
	mock.OnJSON("GET", "/oauth/userinfo-denied", http.StatusUnauthorized, map[string]string{"error": "invalid_token"})

	c := NewClient("saple-cli", time.Second)
	info, err := c.UserInfo(context.Background(), &OIDCConfig{UserinfoEndpoint: mock.URL + "/oauth/userinfo"}, "valid")
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", info.Email)

	_, err = c.UserInfo(context.Background(), &OIDCConfig{UserinfoEndpoint: mock.URL + "/oauth/userinfo-denied"}, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestOpenBrowser_EmptyURL(t *testing.T) {
	err := OpenBrowser("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty URL")
}
