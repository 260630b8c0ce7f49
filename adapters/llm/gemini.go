package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/satriahrh/campus-chat/domain"
)

// GeminiAnswerer answers prompts with a Gemini model instead of the
// self-hosted generation endpoint. Credentials come from the environment
// (GOOGLE_API_KEY / GEMINI_API_KEY or Vertex settings), as genai resolves
// them.
type GeminiAnswerer struct {
	client *genai.Client
	model  string
}

var _ domain.Answerer = (*GeminiAnswerer)(nil)

func NewGeminiAnswerer(ctx context.Context, model string) (*GeminiAnswerer, error) {
	client, err := genai.NewClient(
		ctx,
		&genai.ClientConfig{
			HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiAnswerer{client: client, model: model}, nil
}

func (g *GeminiAnswerer) Answer(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{MaxOutputTokens: int32(maxTokens)},
	)
	if err != nil {
		return "", fmt.Errorf("%w: generate content: %w", domain.ErrReplyUnavailable, err)
	}

	// An empty candidate list yields "", which the session turns into the
	// fallback text.
	return resp.Text(), nil
}
