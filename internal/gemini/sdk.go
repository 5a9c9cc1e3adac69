package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"home-rugs-studio/internal/room"
)

// SDKClient generates images through the google.golang.org/genai SDK. It
// follows the same contract as Client.
type SDKClient struct {
	keys       KeySource
	baseURL    string
	apiVersion string
	model      string
	imageSize  string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewSDK(opts Options) *SDKClient {
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
	return &SDKClient{
		keys:       keys,
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		apiVersion: strings.TrimSpace(opts.APIVersion),
		model:      model,
		imageSize:  strings.TrimSpace(opts.ImageSize),
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

func (c *SDKClient) Generate(ctx context.Context, req room.Request) (room.Image, error) {
	apiKey := strings.TrimSpace(c.keys.APIKey())
	if apiKey == "" {
		return room.Image{}, fmt.Errorf("%w: no API key configured", ErrCredentialInvalid)
	}

	// The key may change between calls, so the SDK client is built per request.
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  c.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    c.baseURL,
			APIVersion: c.apiVersion,
		},
	})
	if err != nil {
		return room.Image{}, fmt.Errorf("create genai client: %w", err)
	}

	parts := make([]*genai.Part, 0, len(req.Attachments)+1)
	for i, img := range req.Attachments {
		data, err := base64.StdEncoding.DecodeString(stripDataURLPrefix(img.Data))
		if err != nil {
			return room.Image{}, fmt.Errorf("decode attachment %d: %w", i, err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, img.MimeType))
	}
	parts = append(parts, genai.NewPartFromText(req.Text))

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: req.AspectRatio,
			ImageSize:   firstNonEmpty(req.ImageSize, c.imageSize),
		},
	}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, c.model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg)
	if err != nil {
		err = classifySDKError(err)
		c.logger.Warn("genai generate failed", "model", c.model, "dur_ms", time.Since(start).Milliseconds(), "err", err)
		return room.Image{}, err
	}

	img, err := extractSDKImage(resp)
	if err != nil {
		c.logger.Warn("genai returned no image", "model", c.model, "err", err)
		return room.Image{}, err
	}
	c.logger.Info("genai image generated",
		"model", c.model,
		"attachments", len(req.Attachments),
		"aspect_ratio", req.AspectRatio,
		"dur_ms", time.Since(start).Milliseconds(),
	)
	return img, nil
}

func extractSDKImage(resp *genai.GenerateContentResponse) (room.Image, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return room.Image{}, ErrNoImage
	}

	var text strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p == nil {
			continue
		}
		if p.InlineData != nil && len(p.InlineData.Data) > 0 {
			mime := p.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return room.Image{Data: base64.StdEncoding.EncodeToString(p.InlineData.Data), MimeType: mime}, nil
		}
		text.WriteString(p.Text)
	}
	if t := strings.TrimSpace(text.String()); t != "" {
		return room.Image{}, &ContentError{Text: t}
	}
	return room.Image{}, ErrNoImage
}

func classifySDKError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classify(err, apiErr.Status, sdkReason(apiErr.Details), apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return classify(err, apiErrPtr.Status, sdkReason(apiErrPtr.Details), apiErrPtr.Message)
	}
	return err
}

func sdkReason(details []map[string]any) string {
	for _, d := range details {
		if reason, ok := d["reason"].(string); ok && reason != "" {
			return reason
		}
	}
	return ""
}
