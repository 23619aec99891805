// Package whatsapp sends messages through the Green API gateway and
// answers inbound messages with simple keyword replies.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.green-api.com"

// Client talks to the Green API gateway.
type Client struct {
	instanceID string
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a gateway client.
func NewClient(instanceID, token string) *Client {
	return &Client{
		instanceID: instanceID,
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SetBaseURL overrides the gateway endpoint. Tests only.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// Configured reports whether gateway credentials are present.
func (c *Client) Configured() bool {
	return c != nil && c.instanceID != "" && c.token != ""
}

// Send delivers a text message to a phone number in international format.
func (c *Client) Send(ctx context.Context, phone, message string) error {
	if !c.Configured() {
		return fmt.Errorf("whatsapp gateway is not configured")
	}
	phone = strings.TrimPrefix(strings.TrimSpace(phone), "+")
	if phone == "" {
		return fmt.Errorf("phone number is required")
	}

	endpoint := fmt.Sprintf("%s/waInstance%s/sendMessage/%s", c.baseURL, c.instanceID, c.token)
	body, err := json.Marshal(map[string]string{
		"chatId":  phone + "@c.us",
		"message": message,
	})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send whatsapp message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("whatsapp gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// AutoReply returns the canned response for an inbound message, or "" when
// the message should be ignored.
func AutoReply(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	if lowered == "" {
		return ""
	}
	switch {
	case containsAny(lowered, "hello", "hi", "hey", "shalom"):
		return "Hi! I'm NoVo, your fashion companion. Visit the NoVo kiosk to chat with me by voice."
	case containsAny(lowered, "help", "what can you do"):
		return "I can chat about your look, the weather and fashion trends. Come by the NoVo kiosk and say hello!"
	case containsAny(lowered, "photo", "picture"):
		return "Pictures are taken at the kiosk camera. Ask me there and I'll snap one for you."
	default:
		return "Thanks for your message! I'm best in person, come talk to me at the NoVo kiosk."
	}
}

// containsAny matches short keywords on word boundaries so "this" does not
// count as "hi"; longer phrases match as substrings.
func containsAny(text string, keywords ...string) bool {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	for _, kw := range keywords {
		if len(kw) <= 3 {
			for _, f := range fields {
				if f == kw {
					return true
				}
			}
			continue
		}
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
