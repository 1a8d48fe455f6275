package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// RequestOption decorates an outgoing request.
type RequestOption func(*http.Request)

// WithHeader sets a request header.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// WithBasicAuth sets HTTP basic credentials.
func WithBasicAuth(user, password string) RequestOption {
	return func(r *http.Request) { r.SetBasicAuth(user, password) }
}

// URL joins path onto the configured base URL.
func (c *Client) URL(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// DoJSON sends in (when non-nil) as a JSON body and decodes a 2xx answer
// into out (when non-nil). Error answers are translated by ParseResponseError.
func (c *Client) DoJSON(ctx context.Context, method, path string, in, out any, opts ...RequestOption) error {
	var body io.Reader = http.NoBody
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", c.cfg.Name, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", c.cfg.Name, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	return c.Send(req, out)
}

// Send executes a prepared request and decodes a 2xx JSON answer into out.
func (c *Client) Send(req *http.Request, out any) error {
	resp, err := c.Do(req)
	if err != nil {
		var se *ServerError
		if errors.As(err, &se) {
			return mapStatus(se.Status, se.Body, c.cfg.Name)
		}
		if errors.Is(err, ErrCircuitOpen) {
			return mapStatus(http.StatusServiceUnavailable, []byte("circuit open"), c.cfg.Name)
		}
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ParseResponseError(resp, c.cfg.Name)
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", c.cfg.Name, err)
	}
	return nil
}
