package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAutoReplyKeywords(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"hello there", "fashion companion"},
		{"hi", "fashion companion"},
		{"can you help me?", "weather and fashion trends"},
		{"send me a photo", "kiosk camera"},
		{"this is something else", "come talk to me"},
	}
	for _, tc := range cases {
		got := AutoReply(tc.text)
		if !strings.Contains(got, tc.want) {
			t.Fatalf("AutoReply(%q) = %q, want substring %q", tc.text, got, tc.want)
		}
	}
}

func TestAutoReplyEmptyIgnored(t *testing.T) {
	if got := AutoReply("   "); got != "" {
		t.Fatalf("expected empty reply for blank message, got %q", got)
	}
}

func TestSend(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"idMessage":"x"}`))
	}))
	defer srv.Close()

	c := NewClient("1101", "token123")
	c.SetBaseURL(srv.URL)

	if err := c.Send(context.Background(), "+972521234567", "hello"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if gotPath != "/waInstance1101/sendMessage/token123" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotBody["chatId"] != "972521234567@c.us" || gotBody["message"] != "hello" {
		t.Fatalf("unexpected body: %#v", gotBody)
	}
}

func TestSendUnconfigured(t *testing.T) {
	c := NewClient("", "")
	if err := c.Send(context.Background(), "972521234567", "hello"); err == nil {
		t.Fatalf("expected error when gateway is not configured")
	}
}
