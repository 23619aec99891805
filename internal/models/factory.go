package models

import (
	"context"
	"fmt"

	"github.com/novolabs/novo/internal/config"
)

// NewVisionModel picks an adapter from config: OpenRouter when its key is
// set, otherwise Gemini. Returns nil when neither provider is configured;
// callers degrade to scripted responses.
func NewVisionModel(ctx context.Context, cfg config.Config) (VisionModel, error) {
	switch {
	case cfg.OpenRouterKey != "":
		model := cfg.VisionModel
		if model == "" {
			model = "anthropic/claude-sonnet-4"
		}
		return NewOpenRouterVision(cfg.OpenRouterKey, model)
	case cfg.GoogleAPIKey != "":
		model := cfg.VisionModel
		if model == "" {
			model = "gemini-2.5-flash"
		}
		return NewGeminiVision(ctx, cfg.GoogleAPIKey, model)
	default:
		return nil, fmt.Errorf("no vision provider configured")
	}
}
