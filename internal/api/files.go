package api

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
)

// UploadFiles sends files as one multipart request (field "files").
// Success may be partial: check UploadResult.Rejected.
func (c *Client) UploadFiles(ctx context.Context, botID string, files []UploadFile) (*UploadResult, error) {
	path := botPath(botID, "upload/")

	req := c.r.R().SetContext(ctx)
	for _, f := range files {
		req.SetFileReader("files", f.Name, bytes.NewReader(f.Data))
	}

	resp, err := req.Post(path)

	var out UploadResult
	if err := c.handle(http.MethodPost, path, resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListFiles returns the persisted training files of an agent.
func (c *Client) ListFiles(ctx context.Context, botID string) ([]File, error) {
	var out []File
	if err := c.do(ctx, http.MethodGet, botPath(botID, "files/"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteFile removes one persisted training file.
func (c *Client) DeleteFile(ctx context.Context, botID, fileID string) error {
	return c.do(ctx, http.MethodDelete, botPath(botID, "files/"+url.PathEscape(fileID)+"/"), nil, nil)
}
