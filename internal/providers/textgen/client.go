package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"studio-server/internal/domain"
)

// Terminal statuses reported by the intermediary status endpoint.
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Options configures the text generation intermediary client.
type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

// Client talks to the text generation intermediary. The intermediary has no
// webhook channel, so callers submit a request and then poll the status
// endpoint until a terminal state arrives.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// SubmitRequest captures the inputs for a text submission.
type SubmitRequest struct {
	Prompt string
	Model  string
}

// Submission acknowledges an accepted text request.
type Submission struct {
	RequestID string
	Payload   []byte
}

// StatusResponse is one poll observation.
type StatusResponse struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

type submitBody struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

type submitResponse struct {
	RequestID string `json:"requestId"`
}

type statusBody struct {
	RequestID string `json:"requestId"`
}

// NewClient constructs a client with sane defaults.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8090"
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// Submit places a text generation request and returns the intermediary's
// request id.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*Submission, error) {
	body, err := json.Marshal(submitBody{Prompt: req.Prompt, Model: req.Model})
	if err != nil {
		return nil, fmt.Errorf("textgen: encode request: %w", err)
	}
	raw, err := c.post(ctx, "/generate", body)
	if err != nil {
		return nil, err
	}
	var decoded submitResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: textgen: decode response: %v", domain.ErrMalformedResponse, err)
	}
	if strings.TrimSpace(decoded.RequestID) == "" {
		return nil, fmt.Errorf("%w: textgen: response missing requestId", domain.ErrMalformedResponse)
	}
	return &Submission{RequestID: decoded.RequestID, Payload: body}, nil
}

// CheckStatus performs one status query for the request.
func (c *Client) CheckStatus(ctx context.Context, requestID string) (*StatusResponse, error) {
	body, err := json.Marshal(statusBody{RequestID: requestID})
	if err != nil {
		return nil, fmt.Errorf("textgen: encode status request: %w", err)
	}
	raw, err := c.post(ctx, "/status", body)
	if err != nil {
		return nil, err
	}
	var decoded StatusResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: textgen: decode status response: %v", domain.ErrMalformedResponse, err)
	}
	return &decoded, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("textgen: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: textgen: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: textgen: read response: %v", domain.ErrProviderUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: textgen: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}
	return raw, nil
}
