// Package models provides vision adapters for the model providers.
package models

import (
	"context"
	"fmt"
)

// AnalysisKind selects the prompt flavor for an image description.
type AnalysisKind string

const (
	AnalysisGeneral     AnalysisKind = "general"
	AnalysisEmotions    AnalysisKind = "emotions"
	AnalysisFashion     AnalysisKind = "fashion"
	AnalysisSceneChange AnalysisKind = "scene-change"
)

// VisionModel describes an image for the avatar to speak about.
type VisionModel interface {
	Describe(ctx context.Context, imageDataURL string, kind AnalysisKind) (string, error)
}

var prompts = map[AnalysisKind]string{
	AnalysisGeneral: `Describe what you see in this camera frame in two or three
warm, conversational sentences. Focus on the person and their surroundings.`,
	AnalysisEmotions: `Look at the person's facial expression and body language.
Describe their apparent mood in one or two sentences. Do not diagnose.`,
	AnalysisFashion: `Describe the person's outfit: garments, colors, fit and
overall style. Offer one friendly styling suggestion. Keep it to three sentences.`,
	AnalysisSceneChange: `Compare against a typical retail-kiosk background and
describe what is notable or changed in this frame, in one or two sentences.`,
}

func promptFor(kind AnalysisKind) (string, error) {
	prompt, ok := prompts[kind]
	if !ok {
		return "", fmt.Errorf("unknown analysis kind: %q", kind)
	}
	return prompt, nil
}
