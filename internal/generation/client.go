package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/drawspace/drawspace-backend/pkg/config"
	pkgerrors "github.com/drawspace/drawspace-backend/pkg/errors"
)

const (
	defaultBaseURL            = "https://api.openai.com/v1"
	errorBodyReadLimit  int64 = 4096
	defaultHTTPTimeout        = 60 * time.Second
)

// Client wraps the image-generation provider's HTTP API. The provider is an
// opaque collaborator: prompts go out, image URLs come back.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the image provider client from configuration.
func NewClient(cfg config.GenerationConfig, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "generation api key is required")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

type imageRequest struct {
	Prompt string `json:"prompt"`
	Image  string `json:"image,omitempty"`
	Size   string `json:"size,omitempty"`
	N      int    `json:"n"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

type providerError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// GenerateImage submits a prompt and returns the provider-hosted image URL.
func (c *Client) GenerateImage(ctx context.Context, prompt, size string) (string, error) {
	return c.submit(ctx, "images/generations", imageRequest{Prompt: prompt, Size: size, N: 1})
}

// EditImage submits a source image plus an edit instruction.
func (c *Client) EditImage(ctx context.Context, imageURL, prompt, size string) (string, error) {
	return c.submit(ctx, "images/edits", imageRequest{Prompt: prompt, Image: imageURL, Size: size, N: 1})
}

func (c *Client) submit(ctx context.Context, path string, req imageRequest) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "generation client not configured")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal image request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+path, bytes.NewReader(payload))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build image request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute image request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", c.mapProviderError(resp)
	}

	var apiResp imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode image response")
	}
	if len(apiResp.Data) == 0 || apiResp.Data[0].URL == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "provider returned no image")
	}
	return apiResp.Data[0].URL, nil
}

// mapProviderError normalizes provider failures: validation-class responses
// keep the provider's detail so the caller can relay it, everything else is
// a dependency error.
func (c *Client) mapProviderError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	var detail providerError
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &detail); err == nil && detail.Error.Message != "" {
		message = detail.Error.Message
	}

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
		return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{
			"provider_status": resp.StatusCode,
			"provider_code":   detail.Error.Code,
		})
	}

	return pkgerrors.Wrap(
		pkgerrors.CodeDependency,
		fmt.Errorf("status %d: %s", resp.StatusCode, message),
		"image request failed",
	).WithDetails(map[string]any{"provider_status": resp.StatusCode})
}
