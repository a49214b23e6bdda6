package api

import (
	"context"
	"net/http"
	"net/url"
)

func botPath(id string, suffix string) string {
	return "/bots/" + url.PathEscape(id) + "/" + suffix
}

// CreateBot creates an agent with only its name set.
func (c *Client) CreateBot(ctx context.Context, name string) (*Bot, error) {
	var out createBotResponse
	if err := c.do(ctx, http.MethodPost, "/bots/create/", map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return &out.Bot, nil
}

// ListBots returns the agents of the current workspace.
func (c *Client) ListBots(ctx context.Context) ([]Bot, error) {
	var out listBotsResponse
	if err := c.do(ctx, http.MethodGet, "/bots/list/", nil, &out); err != nil {
		return nil, err
	}
	return out.Bots, nil
}

// GetBot fetches a single agent.
func (c *Client) GetBot(ctx context.Context, id string) (*Bot, error) {
	var out Bot
	if err := c.do(ctx, http.MethodGet, botPath(id, ""), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateBot persists the full configuration of an agent.
func (c *Client) UpdateBot(ctx context.Context, id string, cfg BotConfig) error {
	return c.do(ctx, http.MethodPut, botPath(id, "update/"), cfg, nil)
}

// TrainBot triggers training. The returned status is opaque; it is not polled.
func (c *Client) TrainBot(ctx context.Context, id string) (*TrainResult, error) {
	var out TrainResult
	if err := c.do(ctx, http.MethodPost, botPath(id, "train/"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
