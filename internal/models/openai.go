package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// openaiVision wraps an OpenAI-compatible chat client for image analysis.
// With the OpenRouter base URL it reaches any vision-capable model behind
// that gateway.
type openaiVision struct {
	client *openai.Client
	model  string
}

// NewOpenRouterVision returns a VisionModel backed by OpenRouter.
func NewOpenRouterVision(apiKey, model string) (VisionModel, error) {
	return newOpenAIVision(apiKey, model, openRouterBaseURL)
}

func newOpenAIVision(apiKey, model, baseURL string) (VisionModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	return &openaiVision{client: &client, model: model}, nil
}

// Describe implements VisionModel.
func (m *openaiVision) Describe(ctx context.Context, imageDataURL string, kind AnalysisKind) (string, error) {
	if m == nil || m.client == nil {
		return "", fmt.Errorf("vision model not configured")
	}
	if strings.TrimSpace(imageDataURL) == "" {
		return "", fmt.Errorf("image is required")
	}
	prompt, err := promptFor(kind)
	if err != nil {
		return "", err
	}

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(prompt),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: imageDataURL,
		}),
	}

	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(parts),
		},
		Model: openai.ChatModel(m.model),
	})
	if err != nil {
		return "", fmt.Errorf("vision completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in vision response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty vision response")
	}
	return content, nil
}
