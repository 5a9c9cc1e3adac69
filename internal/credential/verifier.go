package credential

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GenAIVerifier confirms a key by fetching the model's metadata.
type GenAIVerifier struct {
	Model string
}

func (v GenAIVerifier) Verify(ctx context.Context, key string) error {
	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := strings.TrimSpace(v.Model)
	if model == "" {
		return fmt.Errorf("verifier model is empty")
	}
	if _, err := client.GenerativeModel(model).Info(ctx); err != nil {
		return fmt.Errorf("fetch model info: %w", err)
	}
	return nil
}
