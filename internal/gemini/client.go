package gemini

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

	"home-rugs-studio/internal/room"
)

const (
	DefaultModel      = "gemini-3-pro-image-preview"
	DefaultBaseURL    = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion = "v1beta"
)

// KeySource yields the API key to use for the next call. It is read on
// every request so a key selected at runtime takes effect immediately.
type KeySource interface {
	APIKey() string
}

type StaticKey string

func (k StaticKey) APIKey() string { return string(k) }

type Options struct {
	Keys       KeySource
	BaseURL    string
	APIVersion string
	Model      string
	ImageSize  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the generateContent REST endpoint directly.
type Client struct {
	keys       KeySource
	baseURL    string
	apiVersion string
	model      string
	imageSize  string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	keys := opts.Keys
	if keys == nil {
		keys = StaticKey("")
	}

	return &Client{
		keys:       keys,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		model:      model,
		imageSize:  strings.TrimSpace(opts.ImageSize),
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

// Generate sends one request and returns the first image in the reply.
// It never retries.
func (c *Client) Generate(ctx context.Context, req room.Request) (room.Image, error) {
	if c.httpClient == nil {
		return room.Image{}, errors.New("http client is nil")
	}
	apiKey := strings.TrimSpace(c.keys.APIKey())
	if apiKey == "" {
		return room.Image{}, fmt.Errorf("%w: no API key configured", ErrCredentialInvalid)
	}

	payload := generateContentRequest{
		Contents: []content{{Role: "user", Parts: buildParts(req)}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
			ImageConfig: &imageConfig{
				AspectRatio: req.AspectRatio,
				ImageSize:   firstNonEmpty(req.ImageSize, c.imageSize),
			},
		},
	}

	start := time.Now()
	decoded, err := c.generateContent(ctx, apiKey, payload)
	if err != nil {
		c.logger.Warn("gemini generate failed", "model", c.model, "dur_ms", time.Since(start).Milliseconds(), "err", err)
		return room.Image{}, err
	}

	img, err := extractImage(decoded)
	if err != nil {
		c.logger.Warn("gemini returned no image", "model", c.model, "err", err)
		return room.Image{}, err
	}

	c.logger.Info("gemini image generated",
		"model", c.model,
		"attachments", len(req.Attachments),
		"aspect_ratio", req.AspectRatio,
		"dur_ms", time.Since(start).Milliseconds(),
	)
	return img, nil
}

func buildParts(req room.Request) []part {
	parts := make([]part, 0, len(req.Attachments)+1)
	for _, img := range req.Attachments {
		parts = append(parts, part{InlineData: &blob{
			Data:     stripDataURLPrefix(img.Data),
			MimeType: img.MimeType,
		}})
	}
	return append(parts, part{Text: req.Text})
}

func (c *Client) generateContent(ctx context.Context, apiKey string, payload generateContentRequest) (generateContentResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		return generateContentResponse{}, decodeAPIError(httpResp.StatusCode, rawBody)
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return generateContentResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return decoded, nil
}

func decodeAPIError(httpStatus int, raw []byte) error {
	apiErr := &APIError{HTTPStatus: httpStatus, Message: strings.TrimSpace(string(raw))}

	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error.Message != "" {
		apiErr.Code = env.Error.Code
		apiErr.Status = env.Error.Status
		apiErr.Message = env.Error.Message
		for _, d := range env.Error.Details {
			if d.Reason != "" {
				apiErr.Reason = d.Reason
				break
			}
		}
	}
	if httpStatus == http.StatusUnauthorized && apiErr.Status == "" {
		apiErr.Status = "UNAUTHENTICATED"
	}

	return classify(apiErr, apiErr.Status, apiErr.Reason, apiErr.Message)
}

func extractImage(resp generateContentResponse) (room.Image, error) {
	if len(resp.Candidates) == 0 {
		return room.Image{}, ErrNoImage
	}

	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" {
			mime := p.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			return room.Image{Data: p.InlineData.Data, MimeType: mime}, nil
		}
		text.WriteString(p.Text)
	}

	if t := strings.TrimSpace(text.String()); t != "" {
		return room.Image{}, &ContentError{Text: t}
	}
	return room.Image{}, ErrNoImage
}

func stripDataURLPrefix(value string) string {
	if strings.HasPrefix(value, "data:") {
		if idx := strings.IndexByte(value, ','); idx >= 0 {
			return value[idx+1:]
		}
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
