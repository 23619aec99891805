package models

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/novolabs/novo/internal/images"
)

// geminiVision analyzes images through the Gemini API.
type geminiVision struct {
	client *genai.Client
	model  string
}

// NewGeminiVision returns a VisionModel backed by Gemini.
func NewGeminiVision(ctx context.Context, apiKey, model string) (VisionModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &geminiVision{client: client, model: model}, nil
}

// Describe implements VisionModel.
func (m *geminiVision) Describe(ctx context.Context, imageDataURL string, kind AnalysisKind) (string, error) {
	if m == nil || m.client == nil {
		return "", fmt.Errorf("vision model not configured")
	}
	prompt, err := promptFor(kind)
	if err != nil {
		return "", err
	}

	mime, data, err := images.DecodeDataURL(imageDataURL, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	content := genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(data, mime),
	}, genai.RoleUser)

	resp, err := m.client.Models.GenerateContent(ctx, m.model, []*genai.Content{content}, nil)
	if err != nil {
		return "", fmt.Errorf("vision generation: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty vision response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("vision response contained no text")
	}
	return text, nil
}
