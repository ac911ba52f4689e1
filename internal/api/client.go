// Package api is the HTTP mutation client for the scoring backend. Every
// operation takes the room id plus a credential or claim context, and on
// success returns a normalized Room that replaces local state wholesale.
// No operation applies a speculative local mutation before the server
// acknowledges.
package api

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

	"github.com/bidascore/bidascore-go/internal/model"
)

// Client is an HTTP client for the scoring API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client. token is the session token of the
// authenticated user, or empty for anonymous access.
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: newLoggingTransport(http.DefaultTransport, logger),
		},
	}
}

// SetToken updates the client's session token
func (c *Client) SetToken(token string) {
	c.token = token
}

// APIError represents an error response from the API
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an API error
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// Unwrap maps the HTTP status onto the model's error taxonomy so callers
// can match with errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return model.ErrRoomNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return model.ErrAccessDenied
	case http.StatusConflict:
		return model.ErrRoomFinished
	default:
		return nil
	}
}

// IsAccessError reports whether err is an access failure (wrong PIN or
// unknown room) rather than a transient network error
func IsAccessError(err error) bool {
	return errors.Is(err, model.ErrAccessDenied) || errors.Is(err, model.ErrRoomNotFound)
}

// do performs an HTTP request and returns the raw response body. Error
// responses are decoded into APIError; transport failures are returned
// as-is so they stay distinguishable from access errors.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: string(respBody)}
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			apiErr.Code = errResp.Error.Code
			apiErr.Message = errResp.Error.Message
		}
		return nil, apiErr
	}

	return respBody, nil
}
