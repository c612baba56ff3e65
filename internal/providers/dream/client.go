package dream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"studio-server/internal/domain"
	"studio-server/internal/infra"
)

// Options configures the Dream API client.
type Options struct {
	APIKey         string
	BaseURL        string
	ImageModel     string
	VideoModel     string
	WebhookURL     string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the Dream generation API. Dream accepts a
// submission and reports progress asynchronously through webhook deliveries;
// the client's only job is to place the request and capture the external id
// verbatim.
type Client struct {
	apiKey     string
	baseURL    string
	imageModel string
	videoModel string
	webhookURL string
	httpClient *http.Client
	logger     *infra.Logger
}

// ImageRequest captures the inputs for an image submission.
type ImageRequest struct {
	Prompt      string
	AspectRatio string
	Model       string
}

// VideoRequest captures the inputs for a video submission.
type VideoRequest struct {
	Prompt        string
	InputImageURL string
	Model         string
}

// Submission is the provider's acknowledgement of an accepted request.
type Submission struct {
	// ID is the provider-assigned identifier, used later as the
	// reconciliation key for webhook lookups.
	ID string
	// Payload is the exact JSON body that was sent, kept as the immutable
	// request snapshot.
	Payload []byte
}

type submitBody struct {
	Prompt        string `json:"prompt"`
	AspectRatio   string `json:"aspect_ratio,omitempty"`
	InputImageURL string `json:"input_image_url,omitempty"`
	Model         string `json:"model"`
	WebhookURL    string `json:"webhook_url,omitempty"`
}

type submitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.dream.example.com/v1"
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = "dream-image-xl"
	}
	videoModel := strings.TrimSpace(opts.VideoModel)
	if videoModel == "" {
		videoModel = "dream-video-1"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		imageModel: imageModel,
		videoModel: videoModel,
		webhookURL: strings.TrimSpace(opts.WebhookURL),
		httpClient: httpClient,
		logger:     logger,
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// SubmitImage places an image generation request.
func (c *Client) SubmitImage(ctx context.Context, req ImageRequest) (*Submission, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.imageModel
	}
	aspect := strings.TrimSpace(req.AspectRatio)
	if aspect == "" {
		aspect = "16:9"
	}
	return c.submit(ctx, submitBody{
		Prompt:      req.Prompt,
		AspectRatio: aspect,
		Model:       model,
		WebhookURL:  c.webhookURL,
	})
}

// SubmitVideo places a video generation request.
func (c *Client) SubmitVideo(ctx context.Context, req VideoRequest) (*Submission, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.videoModel
	}
	return c.submit(ctx, submitBody{
		Prompt:        req.Prompt,
		InputImageURL: req.InputImageURL,
		Model:         model,
		WebhookURL:    c.webhookURL,
	})
}

func (c *Client) submit(ctx context.Context, payload submitBody) (*Submission, error) {
	if !c.HasCredentials() {
		return nil, domain.ErrMissingCredential
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("dream: encode request: %w", err)
	}
	endpoint := c.baseURL + "/generations"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("dream: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: dream: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: dream: read response: %v", domain.ErrProviderUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var detail submitResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Detail != "" {
			return nil, fmt.Errorf("%w: dream: status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, detail.Detail)
		}
		return nil, fmt.Errorf("%w: dream: status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var decoded submitResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: dream: decode response: %v", domain.ErrMalformedResponse, err)
	}
	if strings.TrimSpace(decoded.ID) == "" {
		return nil, fmt.Errorf("%w: dream: response missing id", domain.ErrMalformedResponse)
	}
	c.logger.Debug().Str("external_request_id", decoded.ID).Msg("dream: submission accepted")
	return &Submission{ID: decoded.ID, Payload: body}, nil
}
