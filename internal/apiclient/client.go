// Package apiclient talks to the attendance backend REST API.
//
// Every request except sign-in carries the bearer token of the caller's
// TokenStore. A 403 answer is retried exactly once after the stored refresh
// token has been swapped in; there is no other retry or backoff.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://attendance-backend-24xu.onrender.com/api/v1"
	DefaultTimeout = 8 * time.Second

	signInPath = "sign-in"
)

// TokenStore holds the bearer and refresh tokens of one signed-in user.
type TokenStore interface {
	Token() string
	RefreshToken() string
	SetToken(token string)
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	tokens  TokenStore
}

func New(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{baseURL: base, http: hc, logger: logger}
}

// WithTokens returns a copy of c that authenticates with tokens.
func (c *Client) WithTokens(tokens TokenStore) *Client {
	cp := *c
	cp.tokens = tokens
	return &cp
}

// Error is a non-success answer from the API.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// Message returns the server supplied text of err, or fallback when there is none.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return fallback
}

// IsStatus reports whether err is an API error with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

type envelope struct {
	Status  *bool           `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
}

// call sends req and decodes the data member of the response envelope into out.
// It returns the envelope so callers can read the message.
func (c *Client) call(ctx context.Context, req request, out any) (*envelope, error) {
	raw, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", req.path, err)
		}
	}
	if env.Status != nil && !*env.Status {
		msg := env.Error
		if msg == "" {
			msg = env.Message
		}
		return &env, &Error{StatusCode: http.StatusOK, Message: msg}
	}
	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &env, fmt.Errorf("decode %s data: %w", req.path, err)
		}
	}
	return &env, nil
}

func (c *Client) send(ctx context.Context, req request) ([]byte, error) {
	var payload []byte
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", req.path, err)
		}
		payload = b
	}

	status, body, err := c.attempt(ctx, req, payload, c.currentToken(req.path))
	if err != nil {
		return nil, err
	}
	if status == http.StatusForbidden && req.path != signInPath && c.tokens != nil {
		if refresh := c.tokens.RefreshToken(); refresh != "" {
			c.tokens.SetToken(refresh)
			c.logger.Info("api retry with refresh token", slog.String("path", req.path))
			status, body, err = c.attempt(ctx, req, payload, refresh)
			if err != nil {
				return nil, err
			}
		}
	}
	if status < 200 || status > 299 {
		apiErr := &Error{StatusCode: status, Message: errorText(body)}
		c.logger.Warn("api error",
			slog.String("method", req.method),
			slog.String("path", req.path),
			slog.Int("status", status),
			slog.String("message", apiErr.Message),
		)
		return nil, apiErr
	}
	return body, nil
}

func (c *Client) currentToken(path string) string {
	if path == signInPath || c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

func (c *Client) attempt(ctx context.Context, req request, payload []byte, token string) (int, []byte, error) {
	target := c.baseURL + "/" + strings.TrimLeft(req.path, "/")
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", req.path, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("api request",
		slog.String("method", req.method),
		slog.String("path", req.path),
		slog.Int("body_bytes", len(payload)),
	)
	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Error("api transport error",
			slog.String("method", req.method),
			slog.String("path", req.path),
			slog.Any("error", err),
		)
		return 0, nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read %s response: %w", req.path, err)
	}
	c.logger.Info("api response",
		slog.String("method", req.method),
		slog.String("path", req.path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)
	return resp.StatusCode, respBody, nil
}

func errorText(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
