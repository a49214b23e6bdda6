package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotLoggedIn means no credentials are stored.
	ErrNotLoggedIn = errors.New("not logged in, run 'saple login'")
	// ErrSessionExpired means the access token expired and could not be refreshed.
	ErrSessionExpired = errors.New("session expired, run 'saple login' again")
)

// Source loads the stored session and refreshes it when it expires.
// It satisfies api.TokenSource.
type Source struct {
	path   string
	issuer string
	oidc   *Client
	log    *zap.Logger

	mu    sync.Mutex
	creds *Credentials
}

// NewSource returns a token source backed by the credentials file at path.
// issuer is used for refresh when the stored session does not record one.
func NewSource(path, issuer string, oidc *Client, log *zap.Logger) *Source {
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{path: path, issuer: issuer, oidc: oidc, log: log}
}

// Token returns a valid access token, refreshing and persisting it if needed.
func (s *Source) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.creds == nil {
		creds, err := Load(s.path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", ErrNotLoggedIn
			}
			return "", err
		}
		s.creds = creds
	}

	if !s.creds.IsExpired() {
		return s.creds.AccessToken, nil
	}
	if !s.creds.CanRefresh() || s.oidc == nil {
		return "", ErrSessionExpired
	}

	if err := s.refresh(ctx); err != nil {
		s.log.Warn("token refresh failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}
	return s.creds.AccessToken, nil
}

func (s *Source) refresh(ctx context.Context) error {
	issuer := s.creds.IssuerURL
	if issuer == "" {
		issuer = s.issuer
	}

	config, err := s.oidc.Discover(ctx, issuer)
	if err != nil {
		return err
	}

	token, err := s.oidc.Refresh(ctx, config, s.creds.RefreshToken)
	if err != nil {
		return err
	}

	next := *s.creds
	next.AccessToken = token.AccessToken
	next.ExpiresAt = token.ExpiresAt(time.Now())
	if token.RefreshToken != "" {
		next.RefreshToken = token.RefreshToken
	}
	if err := Save(&next, s.path); err != nil {
		return err
	}

	s.log.Debug("access token refreshed", zap.Time("expires_at", next.ExpiresAt))
	s.creds = &next
	return nil
}
