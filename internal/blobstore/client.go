// Package blobstore wraps the host application's remote file API: a flat,
// overwrite-only store with one file per request and no partial updates.
package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lumipack/lumipack-app/internal/jsonutil"
)

const (
	uploadPath      = "/api/files/upload"
	deletePath      = "/api/files/delete"
	filesPathPrefix = "/user/files/"
)

// Client talks to the host's remote file store. It performs no retries: a
// single failed attempt is reported to the caller, which owns retry policy.
type Client struct {
	baseURL string
	httpc   *http.Client
	headers map[string]string
	logger  *slog.Logger
}

type Option func(*Client) error

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) error {
		if h == nil {
			return fmt.Errorf("nil http client")
		}
		c.httpc = h
		return nil
	}
}

// WithHeader adds a header (typically auth) sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) error {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("empty header key")
		}
		c.headers[key] = value
		return nil
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) error {
		if l == nil {
			return fmt.Errorf("nil logger")
		}
		c.logger = l
		return nil
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("baseURL is empty")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   http.DefaultClient,
		headers: map[string]string{},
		logger:  slog.Default(),
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

type uploadBody struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

type deleteBody struct {
	Path string `json:"path"`
}

// Save serializes obj and transmits it as a full overwrite of key.
// Failures propagate, carrying the response status and body text.
func (c *Client) Save(ctx context.Context, key string, obj any) error {
	body, err := json.Marshal(uploadBody{
		Name: key,
		Data: jsonutil.Base64JSONEncode(obj),
	})
	if err != nil {
		return fmt.Errorf("upload %q: encode: %w", key, err)
	}

	resp, err := c.post(ctx, uploadPath, body)
	if err != nil {
		return fmt.Errorf("upload %q: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("upload %q: status %d: %s", key, resp.StatusCode, readBodyText(resp.Body))
	}
	return nil
}

// Load fetches key with a cache-defeating query parameter. It returns nil
// for a missing file, and nil (with a logged warning) on any other failure:
// absence is a normal state at this layer and must not be fatal to callers.
func (c *Client) Load(ctx context.Context, key string) ([]byte, error) {
	u := fmt.Sprintf("%s%s%s?nocache=%d",
		c.baseURL, filesPathPrefix, url.PathEscape(key), time.Now().UnixNano())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", key, err)
	}
	c.applyHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Warn("blobstore load failed", "key", key, "err", err)
		return nil, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.logger.Warn("blobstore load: unexpected status", "key", key, "status", resp.StatusCode)
		return nil, nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("blobstore load: read body failed", "key", key, "err", err)
		return nil, nil
	}
	return raw, nil
}

// Delete removes key from the store. It never returns an error; callers
// that care about success must check the boolean.
func (c *Client) Delete(ctx context.Context, key string) bool {
	body, err := json.Marshal(deleteBody{Path: filesPathPrefix[1:] + key})
	if err != nil {
		c.logger.Warn("blobstore delete: encode failed", "key", key, "err", err)
		return false
	}

	resp, err := c.post(ctx, deletePath, body)
	if err != nil {
		c.logger.Warn("blobstore delete failed", "key", key, "err", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("blobstore delete: unexpected status", "key", key, "status", resp.StatusCode)
		return false
	}
	return true
}

// ProbeAvailability issues one cheap existence check against the index
// file. Both "exists" and "not found" count as available; only a transport
// failure reports the store as unavailable.
func (c *Client) ProbeAvailability(ctx context.Context) bool {
	u := fmt.Sprintf("%s%s%s?nocache=%d",
		c.baseURL, filesPathPrefix, url.PathEscape(IndexFileKey), time.Now().UnixNano())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false
	}
	c.applyHeaders(req)

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Warn("blobstore probe failed", "err", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return true
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)
	return c.httpc.Do(req)
}

func (c *Client) applyHeaders(req *http.Request) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}

func readBodyText(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}
