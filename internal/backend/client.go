package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// User-facing messages attached to failed backend calls. Keyed off HTTP
// status; the backend-provided message wins where the table allows it.
const (
	MsgNetwork      = "Backend is not reachable (network error)."
	MsgBadRequest   = "Bad request."
	MsgUnauthorized = "Unauthorized."
	MsgForbidden    = "Forbidden."
	MsgNotFound     = "Not found."
	MsgConflict     = "Conflict."
	MsgServerError  = "Server error."
	MsgFailed       = "Request failed."
)

// Error is the normalized failure for any backend call. UserMessage is
// derived once at the transport boundary; callers surface it as-is.
type Error struct {
	Status      int
	Message     string
	UserMessage string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return "backend: " + e.UserMessage
	}
	if e.Message != "" {
		return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend: status %d", e.Status)
}

// UserMessage extracts the user-facing message from err, falling back to a
// generic one for non-backend errors.
func UserMessage(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.UserMessage
	}
	return MsgFailed
}

// Observer receives a count for each completed backend call.
type Observer interface {
	ObserveBackendRequest(method, outcome string)
}

// Client issues JSON requests against the warehouse backend. A single
// configured instance is shared by every repository; one attempt per call,
// no retry or backoff.
type Client struct {
	baseURL  string
	httpc    *http.Client
	logger   *slog.Logger
	observer Observer
}

// New constructs a Client for baseURL (no trailing slash expected).
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// SetObserver installs a metrics hook for outbound calls.
func (c *Client) SetObserver(o Observer) {
	c.observer = o
}

func (c *Client) observe(method, outcome string) {
	if c.observer != nil {
		c.observer.ObserveBackendRequest(method, outcome)
	}
}

// Get issues a GET for path with optional query params, decoding the JSON
// response into out when out is non-nil.
func (c *Client) Get(ctx context.Context, path string, params Params, out any) error {
	return c.do(ctx, http.MethodGet, path+Encode(params), nil, out)
}

// Post issues a POST with an optional JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Warn("backend unreachable", slog.String("method", method), slog.String("path", path), slog.Any("error", err))
		c.observe(method, "network")
		return &Error{UserMessage: MsgNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		c.observe(method, "error")
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		be := &Error{Status: resp.StatusCode, Message: backendMessage(data)}
		be.UserMessage = userMessage(be.Status, be.Message)
		c.logger.Warn("backend call failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", be.Status))
		return be
	}

	c.observe(method, "ok")

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// backendMessage pulls the optional {message} or {error} string out of an
// error payload.
func backendMessage(data []byte) string {
	var shape struct {
		Message any `json:"message"`
		Error   any `json:"error"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return ""
	}
	if s, ok := shape.Message.(string); ok && s != "" {
		return s
	}
	if s, ok := shape.Error.(string); ok && s != "" {
		return s
	}
	return ""
}

func userMessage(status int, backendMsg string) string {
	switch {
	case status == http.StatusBadRequest:
		return orDefault(backendMsg, MsgBadRequest)
	case status == http.StatusUnauthorized:
		return MsgUnauthorized
	case status == http.StatusForbidden:
		return MsgForbidden
	case status == http.StatusNotFound:
		return MsgNotFound
	case status == http.StatusConflict:
		return orDefault(backendMsg, MsgConflict)
	case status >= 500:
		return orDefault(backendMsg, MsgServerError)
	default:
		return orDefault(backendMsg, MsgFailed)
	}
}

func orDefault(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
