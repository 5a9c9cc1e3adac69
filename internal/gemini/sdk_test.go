package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"google.golang.org/genai"

	"home-rugs-studio/internal/room"
)

func newTestSDKClient(t *testing.T, key string, handler http.HandlerFunc) *SDKClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSDK(Options{
		Keys:       StaticKey(key),
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
}

func TestSDKGenerateSendsOrderedParts(t *testing.T) {
	var got generateContentRequest
	var gotKey, gotPath string

	client := newTestSDKClient(t, "k-123", func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"here"},{"inlineData":{"mimeType":"image/webp","data":"T1VU"}}]}}]}`)
	})

	req := room.Request{
		Text:        "PROMPT",
		Attachments: []room.Image{{Data: "WA==", MimeType: "image/png"}, {Data: "data:image/jpeg;base64,UjE=", MimeType: "image/jpeg"}},
		AspectRatio: "3:4",
		ImageSize:   "2K",
	}
	img, err := client.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if img.Data != "T1VU" || img.MimeType != "image/webp" {
		t.Errorf("image = %+v", img)
	}

	if gotKey != "k-123" {
		t.Errorf("api key header = %q", gotKey)
	}
	if !strings.HasSuffix(gotPath, "/models/"+DefaultModel+":generateContent") {
		t.Errorf("path = %q", gotPath)
	}
	if len(got.Contents) != 1 {
		t.Fatalf("contents = %d", len(got.Contents))
	}
	parts := got.Contents[0].Parts
	if len(parts) != 3 {
		t.Fatalf("parts = %d", len(parts))
	}
	if parts[0].InlineData == nil || parts[0].InlineData.Data != "WA==" || parts[0].InlineData.MimeType != "image/png" {
		t.Errorf("part 0 = %+v", parts[0])
	}
	if parts[1].InlineData == nil || parts[1].InlineData.Data != "UjE=" {
		t.Errorf("part 1 should carry the stripped data url, got %+v", parts[1])
	}
	if parts[2].Text != "PROMPT" || parts[2].InlineData != nil {
		t.Errorf("text must be the last part, got %+v", parts[2])
	}
	ic := got.GenerationConfig.ImageConfig
	if ic == nil || ic.AspectRatio != "3:4" || ic.ImageSize != "2K" {
		t.Errorf("image config = %+v", ic)
	}
}

func TestSDKGenerateMissingKeySkipsRequest(t *testing.T) {
	var calls atomic.Int32
	client := newTestSDKClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := client.Generate(context.Background(), room.Request{Text: "x"})
	if !errors.Is(err, ErrCredentialInvalid) {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 0 {
		t.Error("request sent without a key")
	}
}

func TestSDKGenerateClassifiesErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		credential bool
	}{
		{
			name:       "entity not found",
			status:     http.StatusNotFound,
			body:       `{"error":{"code":404,"message":"Requested entity was not found.","status":"NOT_FOUND"}}`,
			credential: true,
		},
		{
			name:       "invalid key reason",
			status:     http.StatusBadRequest,
			body:       `{"error":{"code":400,"message":"invalid argument","status":"INVALID_ARGUMENT","details":[{"@type":"type.googleapis.com/google.rpc.ErrorInfo","reason":"API_KEY_INVALID"}]}}`,
			credential: true,
		},
		{
			name:       "unauthenticated",
			status:     http.StatusUnauthorized,
			body:       `{"error":{"code":401,"message":"missing","status":"UNAUTHENTICATED"}}`,
			credential: true,
		},
		{
			name:   "quota",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`,
		},
		{
			name:   "plain text body",
			status: http.StatusBadRequest,
			body:   "bad request",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestSDKClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := client.Generate(context.Background(), room.Request{Text: "x"})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrCredentialInvalid); got != tt.credential {
				t.Errorf("credential invalid = %v, want %v (err %v)", got, tt.credential, err)
			}
			var apiErr genai.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("provider error lost: %v", err)
			}
			if apiErr.Code != tt.status {
				t.Errorf("code = %d", apiErr.Code)
			}
		})
	}
}

func TestSDKGenerateTextOnlyResponse(t *testing.T) {
	client := newTestSDKClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"I cannot draw that."}]}}]}`)
	})

	_, err := client.Generate(context.Background(), room.Request{Text: "x"})
	var contentErr *ContentError
	if !errors.As(err, &contentErr) {
		t.Fatalf("err = %v", err)
	}
	if err.Error() != "generation failed: I cannot draw that." {
		t.Errorf("message = %q", err.Error())
	}
}

func TestSDKGenerateNoCandidates(t *testing.T) {
	client := newTestSDKClient(t, "k", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	})

	if _, err := client.Generate(context.Background(), room.Request{Text: "x"}); !errors.Is(err, ErrNoImage) {
		t.Fatalf("err = %v", err)
	}
}

func TestExtractSDKImageDefaultsMime(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				nil,
				{Text: "caption"},
				{InlineData: &genai.Blob{Data: []byte("A")}},
			}},
		}},
	}

	img, err := extractSDKImage(resp)
	if err != nil {
		t.Fatal(err)
	}
	if img.Data != "QQ==" || img.MimeType != "image/png" {
		t.Errorf("image = %+v", img)
	}
	if _, err := extractSDKImage(nil); !errors.Is(err, ErrNoImage) {
		t.Errorf("nil response: %v", err)
	}
}

func TestSDKReasonFromDetails(t *testing.T) {
	details := []map[string]any{
		{"@type": "type.googleapis.com/google.rpc.Help"},
		{"@type": "type.googleapis.com/google.rpc.ErrorInfo", "reason": "API_KEY_INVALID"},
	}
	if got := sdkReason(details); got != "API_KEY_INVALID" {
		t.Errorf("reason = %q", got)
	}
	if got := sdkReason(nil); got != "" {
		t.Errorf("empty details -> %q", got)
	}
}
