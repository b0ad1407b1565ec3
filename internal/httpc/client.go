// Package httpc is a small client for the focuscam HTTP API with
// sensible transport timeouts.
package httpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default timeouts for HTTP operations.
const (
	DefaultTimeout         = 30 * time.Second
	DefaultConnectTimeout  = 10 * time.Second
	DefaultKeepAlive       = 30 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
)

// NewHTTPClient creates an *http.Client with the given overall timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DefaultConnectTimeout,
				KeepAlive: DefaultKeepAlive,
			}).DialContext,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       DefaultIdleConnTimeout,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("focuscam: %d %s", e.Status, e.Message)
}

// Photo is the subset of a published photo the client needs.
type Photo struct {
	ID          string `json:"id"`
	Page        string `json:"page"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Size        int    `json:"size"`
	URL         string `json:"url"`
}

// Client talks to one focuscam server.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient creates a client for baseURL, e.g. "http://localhost:8080".
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{base: u, http: NewHTTPClient(timeout)}, nil
}

// Capture asks the server to capture on page and returns the photo.
func (c *Client) Capture(ctx context.Context, page string, smart bool) (*Photo, error) {
	path := "/api/capture/" + url.PathEscape(page)
	if smart {
		path += "?smart=true"
	}

	var p Photo
	if err := c.doJSON(ctx, http.MethodPost, path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Download fetches a photo's bytes by its reference URL.
func (c *Client) Download(ctx context.Context, ref string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, ref)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Release drops a photo on the server. It reports whether the photo was
// still live.
func (c *Client) Release(ctx context.Context, ref string) (bool, error) {
	var out struct {
		Released bool `json:"released"`
	}
	if err := c.doJSON(ctx, http.MethodDelete, ref, &out); err != nil {
		return false, err
	}
	return out.Released, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, v any) error {
	resp, err := c.do(ctx, method, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.ResolveReference(ref).String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		var body struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&body) != nil || body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{Status: resp.StatusCode, Message: body.Error}
	}
	return resp, nil
}
