package api

import (
	"context"
	"net/http"
)

// CurrentWorkspace returns the caller's workspace. A 404 means the user has
// no workspace yet and is reported as (nil, nil), not as an error.
func (c *Client) CurrentWorkspace(ctx context.Context) (*Workspace, error) {
	var out Workspace
	err := c.do(ctx, http.MethodGet, "/workspace/current/", nil, &out)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateWorkspace creates the caller's workspace.
func (c *Client) CreateWorkspace(ctx context.Context, name string) (*Workspace, error) {
	var out createWorkspaceResponse
	if err := c.do(ctx, http.MethodPost, "/workspace/create/", map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return &out.Workspace, nil
}
