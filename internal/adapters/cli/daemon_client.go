package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DaemonClient talks to the quayplan daemon over its HTTP API
type DaemonClient struct {
	base string
	http *http.Client
}

// NewDaemonClient creates a client against the given base address
func NewDaemonClient(base string) *DaemonClient {
	return &DaemonClient{
		base: base,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError mirrors the daemon's error envelope
type apiError struct {
	Error struct {
		Kind    string `json:"kind"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *DaemonClient) do(ctx context.Context, method, path string, query url.Values, body, into interface{}) error {
	u := c.base + "/api/v1" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.base, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && ae.Error.Message != "" {
			if ae.Error.Code != "" {
				return fmt.Errorf("%s [%s]: %s", ae.Error.Kind, ae.Error.Code, ae.Error.Message)
			}
			return fmt.Errorf("%s: %s", ae.Error.Kind, ae.Error.Message)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	if into == nil {
		return nil
	}
	return json.Unmarshal(raw, into)
}

// Get issues a GET and decodes the JSON response into the target
func (c *DaemonClient) Get(ctx context.Context, path string, query url.Values, into interface{}) error {
	return c.do(ctx, http.MethodGet, path, query, nil, into)
}

// Post issues a POST with a JSON body
func (c *DaemonClient) Post(ctx context.Context, path string, body, into interface{}) error {
	return c.do(ctx, http.MethodPost, path, nil, body, into)
}

// Put issues a PUT with a JSON body
func (c *DaemonClient) Put(ctx context.Context, path string, body, into interface{}) error {
	return c.do(ctx, http.MethodPut, path, nil, body, into)
}

// Delete issues a DELETE
func (c *DaemonClient) Delete(ctx context.Context, path string, into interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, into)
}

// Health checks the daemon liveness endpoint (outside /api/v1)
func (c *DaemonClient) Health(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/healthz", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("daemon unreachable at %s: %w", c.base, err)
	}
	defer resp.Body.Close()
	var out struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Status, nil
}
