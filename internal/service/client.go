// Package service is the REST client for the semantic-layer server: query
// submission, query-log access, DMV metadata, project updates and publishing,
// warehouse metadata and the license check. Responses map onto the error
// taxonomy in pkg/core; no request is ever retried here.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ailink-labs/ailink/internal/dictutil"
	"github.com/ailink-labs/ailink/pkg/core"
)

// Config locates one organization's published project on a server.
type Config struct {
	// ServerURL is the base URL, without a trailing slash.
	ServerURL    string
	Organization string

	// Project is the published project name queries run against.
	Project string

	// Token is sent as a bearer token on every request.
	Token string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client talks to one server on behalf of one organization.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// New builds a client from the config.
func New(cfg Config) *Client {
	c := &Client{cfg: cfg, http: cfg.HTTPClient, logger: cfg.Logger}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Project returns the published project name the client is bound to.
func (c *Client) Project() string { return c.cfg.Project }

// Get, Post, Patch, Put and Delete are generic request helpers for endpoints
// the typed surface below does not cover. Every request carries the bearer
// token and maps error responses onto the pkg/core taxonomy.

func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

func (c *Client) Post(ctx context.Context, url string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPost, url, body)
}

func (c *Client) Patch(ctx context.Context, url string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPatch, url, body)
}

func (c *Client) Put(ctx context.Context, url string, body []byte) ([]byte, error) {
	return c.do(ctx, http.MethodPut, url, body)
}

func (c *Client) Delete(ctx context.Context, url string) ([]byte, error) {
	return c.do(ctx, http.MethodDelete, url, nil)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	c.logger.Debug("service request", slog.String("method", method), slog.String("url", url))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, responseError(resp.StatusCode, data)
	}
	return data, nil
}

// responseError maps an error response onto the typed taxonomy.
func responseError(status int, body []byte) error {
	msg := responseMessage(body)
	switch status {
	case http.StatusBadRequest:
		return &core.ValidationError{Msg: msg}
	case http.StatusUnauthorized:
		return &core.AuthenticationError{Msg: msg}
	case http.StatusForbidden:
		return &core.AccessError{Msg: msg}
	case http.StatusNotFound:
		return &core.InaccessibleAPIError{Msg: msg}
	case http.StatusInternalServerError:
		return &core.ServerError{Msg: msg}
	case http.StatusServiceUnavailable:
		return &core.DisabledDesignCenterError{Msg: msg}
	default:
		return fmt.Errorf("service returned status %d: %s", status, msg)
	}
}

// responseMessage coalesces the three message fields an error body can carry
// into one line, deduplicating equal fields. Non-JSON bodies pass through
// verbatim.
func responseMessage(body []byte) string {
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return string(body)
	}
	reason := dictutil.GetString(decoded, "status", "message")
	message := dictutil.GetString(decoded, "response", "message")
	verbose := dictutil.GetString(decoded, "response", "error")

	if reason == "" && message == "" && verbose == "" {
		return string(body)
	}
	switch {
	case reason == message && reason == verbose:
		return reason
	case reason == message || message == verbose:
		return reason + ": " + verbose
	default:
		return reason + ": " + message + ", " + verbose
	}
}
