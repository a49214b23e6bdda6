// Package api is the typed client for the Saple backend REST API.
//
// Every call attaches the bearer token from the injected TokenSource. Non-2xx
// responses come back as *Error; failures without a usable response wrap
// ErrTransport. Nothing is retried automatically.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TokenSource supplies the bearer token for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource backed by a fixed token.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Tokens     TokenSource
	Timeout    time.Duration
	RateLimit  float64 // requests per second, 0 disables limiting
	Burst      int
	Logger     *zap.Logger
	HTTPClient *http.Client
}

// Client talks to the backend over HTTP+JSON.
type Client struct {
	r      *resty.Client
	tokens TokenSource
	log    *zap.Logger
}

// New creates a client for the backend at opts.BaseURL.
func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var r *resty.Client
	if opts.HTTPClient != nil {
		r = resty.NewWithClient(opts.HTTPClient)
	} else {
		r = resty.New()
	}

	r.SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetLogger(log.Sugar())
	if opts.Timeout > 0 {
		r.SetTimeout(opts.Timeout)
	}

	c := &Client{r: r, tokens: opts.Tokens, log: log}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	r.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		if limiter != nil {
			if err := limiter.Wait(req.Context()); err != nil {
				return err
			}
		}
		if c.tokens != nil {
			token, err := c.tokens.Token(req.Context())
			if err != nil {
				return fmt.Errorf("failed to obtain access token: %w", err)
			}
			if token != "" {
				req.SetAuthToken(token)
			}
		}
		if key := IdempotencyKey(req.Context()); key != "" {
			req.SetHeader("Idempotency-Key", key)
		}
		return nil
	})

	r.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		log.Debug("api response",
			zap.String("method", resp.Request.Method),
			zap.String("url", resp.Request.URL),
			zap.Int("status", resp.StatusCode()),
			zap.Duration("duration", resp.Time()),
		)
		return nil
	})

	return c
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.r.BaseURL
}

type idempotencyKey struct{}

// WithIdempotencyKey attaches an Idempotency-Key header value to requests made with ctx.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey{}, key)
}

// IdempotencyKey returns the key attached with WithIdempotencyKey, or "".
func IdempotencyKey(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	key, _ := ctx.Value(idempotencyKey{}).(string)
	return key
}

// do executes a JSON request and decodes a successful body into out (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	req := c.r.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	return c.handle(method, path, resp, err, out)
}

func (c *Client) handle(method, path string, resp *resty.Response, err error, out interface{}) error {
	if err != nil {
		c.log.Warn("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}

	if !resp.IsSuccess() {
		apiErr := parseError(resp.StatusCode(), resp.Body())
		c.log.Debug("api error response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", apiErr.StatusCode),
			zap.String("body", apiErr.Body),
		)
		return apiErr
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		c.log.Warn("api response decode failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return fmt.Errorf("%w: failed to decode %s %s response: %w", ErrTransport, method, path, err)
	}
	return nil
}
