// Package gateway implements external API adapters.
// Following Hexagonal Architecture: outbound adapters for external services.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://graph.facebook.com/v19.0"

// PlatformError wraps any transport failure, non-2xx response or
// platform-reported error envelope from a Graph API call. The message is the
// platform's own error text when one was returned.
type PlatformError struct {
	StatusCode int    // HTTP status, 0 for transport failures
	Code       int    // Facebook error code, 0 when absent
	Message    string
	Err        error
}

func (e *PlatformError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("platform error (code %d): %s", e.Code, e.Message)
	}
	if e.Message != "" {
		return "platform error: " + e.Message
	}
	return fmt.Sprintf("platform error: %v", e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }

// graphError is the Graph API error envelope.
type graphError struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		FBTraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}

// Client is a thin authenticated wrapper around the Facebook Graph API.
// The access token is supplied per call, so a single client is safe to share
// across apps and pages. No retries here; retry policy belongs to callers.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a Graph API client against the production endpoint.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
	}
}

// NewClientWithBaseURL creates a client against an alternate endpoint.
// Used by tests to point at a local server.
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

// Request issues one Graph API call. The access token is passed as the
// access_token query parameter; body, when non-nil, is sent as JSON.
// Any failure comes back as a *PlatformError.
func (c *Client) Request(ctx context.Context, method, path, accessToken string, params url.Values, body any) (json.RawMessage, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", accessToken)

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &PlatformError{Message: "marshal request body", Err: err}
		}
		reqBody = bytes.NewReader(data)
	}

	reqURL := c.baseURL + "/" + path
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, &PlatformError{Message: "build request", Err: err}
	}
	req.URL.RawQuery = params.Encode()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Graph API request failed", "method", method, "path", path, "error", err)
		return nil, &PlatformError{Message: "graph api request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &PlatformError{StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}

	// Error envelopes usually come with a non-2xx status, but the platform can
	// also report errors inside a 200 body.
	var envelope graphError
	if json.Unmarshal(respBody, &envelope) == nil && envelope.Error.Message != "" {
		slog.Error("Graph API error",
			"status_code", resp.StatusCode,
			"error_code", envelope.Error.Code,
			"error_message", envelope.Error.Message,
			"fbtrace_id", envelope.Error.FBTraceID,
		)
		return nil, &PlatformError{
			StatusCode: resp.StatusCode,
			Code:       envelope.Error.Code,
			Message:    envelope.Error.Message,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Error("Graph API unexpected status",
			"status_code", resp.StatusCode,
			"path", path,
			"body", string(respBody),
		)
		return nil, &PlatformError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}

	return respBody, nil
}
