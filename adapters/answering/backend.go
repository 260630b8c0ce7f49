package answering

import (
	"context"
	"fmt"

	"github.com/satriahrh/campus-chat/adapters/llm"
	"github.com/satriahrh/campus-chat/config"
	"github.com/satriahrh/campus-chat/domain"
)

// FromConfig builds the answerer selected by ANSWER_BACKEND.
func FromConfig(ctx context.Context, cfg *config.Config) (domain.Answerer, error) {
	switch cfg.AnswerBackend {
	case config.BackendHTTP:
		return NewHTTPAnswerer(cfg.AnswerURL, cfg.AnswerTimeout), nil
	case config.BackendGemini:
		gemini, err := llm.NewGeminiAnswerer(ctx, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return gemini, nil
	default:
		return nil, fmt.Errorf("unknown answer backend %q", cfg.AnswerBackend)
	}
}
