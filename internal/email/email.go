// Package email sends transactional mail through Resend.
package email

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/resend/resend-go/v2"

	"github.com/novolabs/novo/internal/types"
)

// Sender delivers NoVo's outbound mail.
type Sender struct {
	client *resend.Client
	from   string
}

// NewSender returns a Sender. An empty API key yields an unconfigured
// sender whose methods fail with a descriptive error.
func NewSender(apiKey, from string) *Sender {
	s := &Sender{from: from}
	if apiKey != "" {
		s.client = resend.NewClient(apiKey)
	}
	return s
}

// Configured reports whether the sender can deliver mail.
func (s *Sender) Configured() bool {
	return s != nil && s.client != nil
}

// SendPicture mails the captured photo to the user.
func (s *Sender) SendPicture(ctx context.Context, to, imageURL string) error {
	if err := s.check(to); err != nil {
		return err
	}
	if strings.TrimSpace(imageURL) == "" {
		return fmt.Errorf("image url is required")
	}

	body := fmt.Sprintf(`<div style="font-family:sans-serif">
<h2>Your picture from NoVo</h2>
<p>Here is the photo we took together. Hope you like it!</p>
<img src=%q alt="Your photo" style="max-width:100%%;border-radius:8px"/>
</div>`, imageURL)

	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: "Your picture from NoVo",
		Html:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to send picture email: %w", err)
	}
	return nil
}

// SendSummary mails the conversation transcript, personalized with what is
// known about the user.
func (s *Sender) SendSummary(ctx context.Context, to string, messages []types.Message, profile *types.UserProfile) error {
	if err := s.check(to); err != nil {
		return err
	}

	greeting := "Hi"
	if profile != nil && profile.Name != "" {
		greeting = "Hi " + html.EscapeString(profile.Name)
	}

	var lines strings.Builder
	for _, msg := range messages {
		speaker := "You"
		if msg.Role == types.RoleAssistant {
			speaker = "NoVo"
		}
		fmt.Fprintf(&lines, "<p><strong>%s:</strong> %s</p>\n", speaker, html.EscapeString(msg.Content))
	}

	body := fmt.Sprintf(`<div style="font-family:sans-serif">
<h2>%s, here's what we talked about</h2>
%s
<p>Come back anytime!<br/>— NoVo</p>
</div>`, greeting, lines.String())

	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: "Your conversation with NoVo",
		Html:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to send summary email: %w", err)
	}
	return nil
}

func (s *Sender) check(to string) error {
	if !s.Configured() {
		return fmt.Errorf("email sender is not configured")
	}
	if !strings.Contains(to, "@") {
		return fmt.Errorf("invalid recipient address: %q", to)
	}
	return nil
}
