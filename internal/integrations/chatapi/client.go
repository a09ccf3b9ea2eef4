package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"chat-client/internal/domain"
)

const (
	defaultBaseURL = "http://localhost:5000"
	defaultTimeout = 30 * time.Second

	headerCorrelationID = "X-Correlation-Id"
	headerAPIKey        = "X-Api-Key"
)

// chatRequest is the request body of the chat endpoint.
type chatRequest struct {
	Message string `json:"message"`
}

// chatResponse is the envelope returned by the chat endpoint on every status.
type chatResponse struct {
	Success   *bool  `json:"success"`
	Response  string `json:"response,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`
}

// healthResponse is the minimal shape of the health endpoint.
type healthResponse struct {
	Status        string `json:"status"`
	APIConfigured bool   `json:"api_configured"`
}

// HTTPStatusError captures non-2xx responses whose body is not a chat envelope.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("chatapi: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// APIError is a response that arrived intact but was marked unsuccessful.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

// ServerMessage is the backend's own description of the failure.
func (e *APIError) ServerMessage() string {
	return e.Message
}

// CredentialSource supplies the current credential at request time.
type CredentialSource interface {
	Credential() string
}

// Client speaks the chat backend's send/health contract.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	credentials CredentialSource
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

func WithCredentials(src CredentialSource) Option {
	return func(c *Client) {
		c.credentials = src
	}
}

// NewClient creates a Client. Without options it targets a backend on
// localhost:5000 with a 30s timeout and sends no credential.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		return nil, errors.New("chatapi: base url must not be empty")
	}
	if !strings.HasPrefix(c.baseURL, "http://") && !strings.HasPrefix(c.baseURL, "https://") {
		return nil, fmt.Errorf("chatapi: base url %q must be http or https", c.baseURL)
	}
	return c, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func endpointURL(baseURL, path string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	base = strings.TrimSuffix(base, "/api")
	return base + "/api/" + path
}

// Chat sends one message. A reply marked unsuccessful yields *APIError; an
// undecodable non-2xx reply yields *HTTPStatusError; anything else is a
// transport failure.
func (c *Client) Chat(ctx context.Context, message string) (domain.Reply, error) {
	body, err := json.Marshal(chatRequest{Message: message})
	if err != nil {
		return domain.Reply{}, fmt.Errorf("chatapi: marshal request: %w", err)
	}

	url := endpointURL(c.baseURL, "chat")
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if reqErr != nil {
		return domain.Reply{}, fmt.Errorf("chatapi: create request: %w", reqErr)
	}
	req.Header.Set("Content-Type", "application/json")
	c.decorate(req)

	status, raw, err := c.do(req)
	if err != nil {
		return domain.Reply{}, fmt.Errorf("chatapi: request failed: %w", err)
	}

	var payload chatResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil || payload.Success == nil {
		if status < 200 || status >= 300 {
			return domain.Reply{}, &HTTPStatusError{StatusCode: status, URL: url, Body: truncate(string(raw), 512)}
		}
		if decErr == nil {
			decErr = errors.New("missing success flag")
		}
		return domain.Reply{}, fmt.Errorf("chatapi: decode response: %w", decErr)
	}

	if !*payload.Success {
		msg := strings.TrimSpace(payload.Error)
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", status)
		}
		return domain.Reply{}, &APIError{StatusCode: status, Message: msg}
	}

	return domain.Reply{
		Content:   payload.Response,
		Timestamp: strings.TrimSpace(payload.Timestamp),
	}, nil
}

// Health asks the readiness endpoint whether the backend is configured.
func (c *Client) Health(ctx context.Context) (domain.HealthStatus, error) {
	url := endpointURL(c.baseURL, "health")
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if reqErr != nil {
		return domain.HealthStatus{}, fmt.Errorf("chatapi: create health request: %w", reqErr)
	}
	c.decorate(req)

	status, raw, err := c.do(req)
	if err != nil {
		return domain.HealthStatus{}, fmt.Errorf("chatapi: health request failed: %w", err)
	}
	if status < 200 || status >= 300 {
		return domain.HealthStatus{}, &HTTPStatusError{StatusCode: status, URL: url, Body: truncate(string(raw), 512)}
	}

	var payload healthResponse
	if decErr := json.Unmarshal(raw, &payload); decErr != nil {
		return domain.HealthStatus{}, fmt.Errorf("chatapi: decode health response: %w", decErr)
	}
	return domain.HealthStatus{
		Reachable:  true,
		Configured: payload.APIConfigured,
		Status:     payload.Status,
	}, nil
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set(headerCorrelationID, newUUID())
	if c.credentials == nil {
		return
	}
	if key := strings.TrimSpace(c.credentials.Credential()); key != "" {
		req.Header.Set(headerAPIKey, key)
	}
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		return 0, nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return res.StatusCode, nil, fmt.Errorf("read response body: %w", err)
	}
	return res.StatusCode, buf, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var newUUID = func() string {
	return uuid.NewString()
}
