package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wolfman30/appointment-ai-site/pkg/logging"
)

// maxReplyBytes bounds how much of a reply body is read.
const maxReplyBytes = 1 << 20

// Assistant produces a reply for one user turn of a conversation.
type Assistant interface {
	Reply(ctx context.Context, sessionID, message string) (string, error)
}

// ReplyRequest is the body posted to the assistant endpoint.
type ReplyRequest struct {
	SessionID string `json:"sessionID"`
	Message   string `json:"message"`
}

// ReplyResponse is the body returned by the assistant endpoint. A missing
// message decodes to the empty string.
type ReplyResponse struct {
	Message string `json:"message"`
}

// StatusError reports a non-2xx response from the assistant endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat: assistant returned status %d: %s", e.StatusCode, e.Body)
}

// HTTPAssistant calls the remote assistant over HTTP.
type HTTPAssistant struct {
	endpoint   string
	httpClient *http.Client
	logger     *logging.Logger
}

// ClientOption is a functional option for configuring the HTTPAssistant.
type ClientOption func(*HTTPAssistant)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPAssistant) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClientLogger sets a custom logger.
func WithClientLogger(logger *logging.Logger) ClientOption {
	return func(c *HTTPAssistant) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewHTTPAssistant creates a client for the endpoint, e.g.
// "http://localhost:8000/chat". The session applies the per-call timeout;
// the HTTP client timeout only guards against a missing context deadline.
func NewHTTPAssistant(endpoint string, opts ...ClientOption) *HTTPAssistant {
	c := &HTTPAssistant{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL the client posts to.
func (c *HTTPAssistant) Endpoint() string {
	return c.endpoint
}

// Reply posts the user message and returns the reply text. Any non-2xx status,
// transport failure or undecodable body is returned as an error.
func (c *HTTPAssistant) Reply(ctx context.Context, sessionID, message string) (string, error) {
	body, err := json.Marshal(ReplyRequest{SessionID: sessionID, Message: message})
	if err != nil {
		return "", fmt.Errorf("chat: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("chat: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat: assistant request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	var out ReplyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxReplyBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("chat: decode reply: %w", err)
	}

	c.logger.Debug("chat: assistant replied",
		"session_id", sessionID,
		"status", resp.StatusCode,
		"length", len(out.Message),
	)
	return out.Message, nil
}
