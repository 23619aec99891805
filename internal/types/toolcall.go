package types

import "time"

// PendingToolCall bridges a server-side webhook event to a polling client.
// Stored transiently with a short TTL.
type PendingToolCall struct {
	ToolCallID string    `json:"toolCallId"`
	Name       string    `json:"name"`
	Parameters string    `json:"parameters"`
	Timestamp  time.Time `json:"timestamp"`
}

// DetectedCommand is the result of matching transcribed speech against the
// command table. Ephemeral; produced and consumed within one event pass.
type DetectedCommand struct {
	Type          string            `json:"type"`
	Confidence    float64           `json:"confidence"`
	OriginalText  string            `json:"originalText"`
	ExtractedData map[string]string `json:"extractedData,omitempty"`
}
