package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// GetJSON performs a GET and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.doJSON(ctx, http.MethodGet, path, "", nil, out)
}

// PostJSON performs a POST with a JSON body, decoding the response into out
// when out is non-nil.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.doJSON(ctx, http.MethodPost, path, "application/json", body, out)
}

// PostForm submits a prepared multipart body.
func (c *Client) PostForm(ctx context.Context, path, contentType string, body []byte, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, contentType, body, out)
}

// PatchForm submits a prepared multipart body as a sparse patch.
func (c *Client) PatchForm(ctx context.Context, path, contentType string, body []byte, out any) error {
	return c.doJSON(ctx, http.MethodPatch, path, contentType, body, out)
}

// Delete performs a DELETE, discarding any response body.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.doJSON(ctx, http.MethodDelete, path, "", nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	resp, err := c.Do(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
