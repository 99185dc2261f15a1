// Package ai wraps the language-model providers and the two prompts built on
// them: job extraction and cold-email composition.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/khrees2412/coldreach/internal/config"
)

// Generator sends a prompt to a language model and returns its text reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

const providerTimeout = 2 * time.Minute

// NewGenerator returns the Generator for cfg.AIProvider.
func NewGenerator(ctx context.Context, cfg *config.Config) (Generator, error) {
	client := &http.Client{Timeout: providerTimeout}

	switch cfg.AIProvider {
	case "gemini":
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("gemini API key not configured. Run: coldreach config set --key gemini_key --value YOUR_KEY")
		}
		return NewGeminiGenerator(ctx, cfg.GeminiKey, cfg.DefaultModel)
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key not configured. Run: coldreach config set --key openai_key --value YOUR_KEY")
		}
		return NewChatCompletions(client, "https://api.openai.com", cfg.OpenAIKey, modelOr(cfg.DefaultModel, "gpt-4o-mini")), nil
	case "lmstudio":
		return NewChatCompletions(client, cfg.LMStudioURL, "", modelOr(cfg.DefaultModel, "local-model")), nil
	case "ollama":
		return NewOllama(client, cfg.OllamaURL, modelOr(cfg.DefaultModel, "llama3.2")), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.AIProvider)
	}
}

func modelOr(model, fallback string) string {
	if model == "" {
		return fallback
	}
	return model
}
