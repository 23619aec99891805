package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/novolabs/novo/internal/config"
	"github.com/novolabs/novo/internal/storage"
	"github.com/novolabs/novo/internal/tooling"
	"github.com/novolabs/novo/internal/types"
	"github.com/novolabs/novo/internal/webhook"
)

func newTestServer(t *testing.T) (*Server, *storage.Store) {
	t.Helper()
	cfg := config.Config{
		Addr:          ":0",
		AppURL:        "http://localhost:8080",
		AllowedOrigin: "*",
		HumeAPIKey:    "test-hume-key",
		AdminPIN:      "4321",
		UploadDir:     t.TempDir(),
		MaxImageBytes: 10 * 1024 * 1024,
	}
	store := storage.NewMemoryStore(time.Minute)

	registry := tooling.NewRegistry()
	if err := tooling.RegisterBuiltins(registry, tooling.Deps{
		Sessions: store.Sessions,
		Users:    store.Users,
		Quiet:    tooling.NewQuiet(),
		Camera:   tooling.NewCamera(),
	}); err != nil {
		t.Fatalf("failed to register builtins: %v", err)
	}
	dispatcher := tooling.NewDispatcher(registry, tooling.NewPending(time.Minute), tooling.NewQuiet(), tooling.NewCamera())

	return New(cfg, store, dispatcher, nil, nil, nil, nil, nil), store
}

func postJSON(t *testing.T, handler http.Handler, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func getPath(t *testing.T, handler http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := postJSON(t, router, "/api/sessions", map[string]any{"action": "start"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("start returned %d: %s", rec.Code, rec.Body.String())
	}
	var started struct {
		SessionID string `json:"sessionId"`
	}
	decode(t, rec, &started)
	if started.SessionID == "" {
		t.Fatal("start should return a session ID")
	}

	rec = postJSON(t, router, "/api/sessions", map[string]any{
		"action":    "message",
		"sessionId": started.SessionID,
		"role":      "user",
		"content":   "hi",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("message returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = getPath(t, router, "/api/sessions/"+started.SessionID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get returned %d: %s", rec.Code, rec.Body.String())
	}
	var fetched struct {
		Session types.Session `json:"session"`
	}
	decode(t, rec, &fetched)
	if len(fetched.Session.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fetched.Session.Messages))
	}
	msg := fetched.Session.Messages[0]
	if msg.Role != types.RoleUser || msg.Content != "hi" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestSessionMessageDeduplication(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := postJSON(t, router, "/api/sessions", map[string]any{"action": "start"}, nil)
	var started struct {
		SessionID string `json:"sessionId"`
	}
	decode(t, rec, &started)

	line := map[string]any{"action": "message", "sessionId": started.SessionID, "role": "user", "content": "same line"}
	postJSON(t, router, "/api/sessions", line, nil)
	rec = postJSON(t, router, "/api/sessions", line, nil)
	var dup struct {
		Duplicate bool `json:"duplicate"`
	}
	decode(t, rec, &dup)
	if !dup.Duplicate {
		t.Fatal("repeated line should be flagged as a duplicate")
	}

	rec = getPath(t, router, "/api/sessions/"+started.SessionID, nil)
	var fetched struct {
		Session types.Session `json:"session"`
	}
	decode(t, rec, &fetched)
	if len(fetched.Session.Messages) != 1 {
		t.Fatalf("expected 1 message after duplicate, got %d", len(fetched.Session.Messages))
	}
}

func TestMessageExtractionEnrichesProfile(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()
	header := map[string]string{"X-Forwarded-For": "203.0.113.7"}

	rec := postJSON(t, router, "/api/sessions", map[string]any{"action": "start"}, header)
	var started struct {
		SessionID string `json:"sessionId"`
	}
	decode(t, rec, &started)

	postJSON(t, router, "/api/sessions", map[string]any{
		"action":    "message",
		"sessionId": started.SessionID,
		"role":      "user",
		"content":   "my name is Dana and my email is dana@example.com",
	}, header)

	rec = getPath(t, router, "/api/users?ip=203.0.113.7", nil)
	var fetched struct {
		Profile *types.UserProfile `json:"profile"`
	}
	decode(t, rec, &fetched)
	if fetched.Profile == nil {
		t.Fatal("expected a profile for the message sender")
	}
	if fetched.Profile.Name != "Dana" {
		t.Fatalf("expected name Dana, got %q", fetched.Profile.Name)
	}
	if fetched.Profile.Email != "dana@example.com" {
		t.Fatalf("expected extracted email, got %q", fetched.Profile.Email)
	}
}

func TestUserActions(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := postJSON(t, router, "/api/users", map[string]any{
		"action": "update",
		"ip":     "198.51.100.4",
		"update": map[string]any{"name": "Noa", "location": "Haifa"},
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("update returned %d: %s", rec.Code, rec.Body.String())
	}

	postJSON(t, router, "/api/users", map[string]any{"action": "addNote", "ip": "198.51.100.4", "note": "likes jazz"}, nil)
	postJSON(t, router, "/api/users", map[string]any{"action": "confirmIdentity", "ip": "198.51.100.4"}, nil)

	rec = getPath(t, router, "/api/users?ip=198.51.100.4", nil)
	var fetched struct {
		Profile *types.UserProfile `json:"profile"`
	}
	decode(t, rec, &fetched)
	if fetched.Profile == nil {
		t.Fatal("expected a profile")
	}
	if fetched.Profile.Name != "Noa" || fetched.Profile.Location != "Haifa" {
		t.Fatalf("unexpected profile fields %+v", fetched.Profile)
	}
	if len(fetched.Profile.Notes) != 1 || fetched.Profile.Notes[0] != "likes jazz" {
		t.Fatalf("expected the note, got %v", fetched.Profile.Notes)
	}
	if !fetched.Profile.IdentityConfirmed {
		t.Fatal("identity should be confirmed")
	}

	rec = postJSON(t, router, "/api/users", map[string]any{"action": "teleport", "ip": "198.51.100.4"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown action should return 400, got %d", rec.Code)
	}
}

func TestAdminRoutesRequirePIN(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := getPath(t, router, "/api/admin/users", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing PIN should return 401, got %d", rec.Code)
	}
	rec = getPath(t, router, "/api/admin/users", map[string]string{"x-admin-pin": "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong PIN should return 401, got %d", rec.Code)
	}
	rec = getPath(t, router, "/api/admin/users", map[string]string{"x-admin-pin": "4321"})
	if rec.Code != http.StatusOK {
		t.Fatalf("correct PIN should return 200, got %d", rec.Code)
	}
}

func TestHumeWebhookSignatureVerification(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	body := []byte(`{"type":"chat_started"}`)
	now := time.Now()
	headers := func(sig, ts string) map[string]string {
		return map[string]string{
			"X-Hume-AI-Webhook-Signature": sig,
			"X-Hume-AI-Webhook-Timestamp": ts,
		}
	}
	send := func(payload []byte, h map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/hume", bytes.NewReader(payload))
		for k, v := range h {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	ts := fmt.Sprintf("%d", now.Unix())
	sig := webhook.Sign(ts, body, "test-hume-key")

	if rec := send(body, headers(sig, ts)); rec.Code != http.StatusOK {
		t.Fatalf("valid webhook should return 200, got %d: %s", rec.Code, rec.Body.String())
	}

	tampered := []byte(`{"type":"chat_ended"}`)
	if rec := send(tampered, headers(sig, ts)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("tampered body should return 401, got %d", rec.Code)
	}

	// A captured signature replayed under a refreshed timestamp must not pass.
	refreshed := fmt.Sprintf("%d", now.Add(time.Minute).Unix())
	if rec := send(body, headers(sig, refreshed)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("replayed signature with a fresh timestamp should return 401, got %d", rec.Code)
	}

	stale := fmt.Sprintf("%d", now.Add(-5*time.Minute).Unix())
	staleSig := webhook.Sign(stale, body, "test-hume-key")
	if rec := send(body, headers(staleSig, stale)); rec.Code != http.StatusBadRequest {
		t.Fatalf("stale timestamp should return 400 even with a valid signature, got %d", rec.Code)
	}
}

func TestWebhookBridgesToolCallsToPolling(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := postJSON(t, router, "/api/hume/webhook", map[string]any{
		"type":       "tool_call",
		"toolCallId": "tc-1",
		"name":       "take_picture",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = getPath(t, router, "/api/tools/pending", nil)
	var polled struct {
		ToolCalls []types.PendingToolCall `json:"toolCalls"`
	}
	decode(t, rec, &polled)
	if len(polled.ToolCalls) != 1 || polled.ToolCalls[0].ToolCallID != "tc-1" {
		t.Fatalf("expected the bridged call, got %+v", polled.ToolCalls)
	}

	rec = getPath(t, router, "/api/tools/pending", nil)
	decode(t, rec, &polled)
	if len(polled.ToolCalls) != 0 {
		t.Fatalf("polling should consume calls, got %+v", polled.ToolCalls)
	}
}

func TestWebhookDetectsVoiceCommands(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := postJSON(t, router, "/api/hume/webhook", map[string]any{
		"type": "user_message",
		"text": "what am I wearing today?",
	}, nil)
	var resp struct {
		Command *types.DetectedCommand `json:"command"`
	}
	decode(t, rec, &resp)
	if resp.Command == nil || resp.Command.Type != "vision_request" {
		t.Fatalf("expected a vision_request command, got %+v", resp.Command)
	}

	rec = getPath(t, router, "/api/tools/pending", nil)
	var polled struct {
		ToolCalls []types.PendingToolCall `json:"toolCalls"`
	}
	decode(t, rec, &polled)
	if len(polled.ToolCalls) != 1 || polled.ToolCalls[0].Name != "analyze_vision" {
		t.Fatalf("expected a bridged analyze_vision call, got %+v", polled.ToolCalls)
	}
}

func TestWebhookCountsProsodyMessagesPerChat(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	angry := func(extra map[string]any) map[string]any {
		payload := map[string]any{
			"type":          "user_message",
			"chatId":        "chat-42",
			"prosodyScores": map[string]float64{"Anger": 0.9},
		}
		for k, v := range extra {
			payload[k] = v
		}
		return payload
	}
	post := func(payload map[string]any) string {
		rec := postJSON(t, router, "/api/hume/webhook", payload, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("webhook returned %d: %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Emotion string `json:"emotion"`
		}
		decode(t, rec, &resp)
		return resp.Emotion
	}

	// The first two prosody messages of a chat settle in before strong
	// scores show through, even when the payload claims a later index.
	if got := post(angry(map[string]any{"messageIndex": 50})); got != "neutral" {
		t.Fatalf("first message should stay neutral, got %q", got)
	}
	if got := post(angry(nil)); got != "neutral" {
		t.Fatalf("second message should stay neutral, got %q", got)
	}
	if got := post(angry(nil)); got != "angry" {
		t.Fatalf("third message should surface the prosody, got %q", got)
	}

	// A fresh chat starts its own count.
	if got := post(map[string]any{
		"type":          "user_message",
		"chatId":        "chat-43",
		"prosodyScores": map[string]float64{"Anger": 0.9},
	}); got != "neutral" {
		t.Fatalf("new chat should start at the warmup, got %q", got)
	}
}

func TestImageSaveCompletesDeferredCapture(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := postJSON(t, router, "/api/tools/execute", map[string]any{
		"toolCallId": "cap-9",
		"name":       "take_picture",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("take_picture returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, router, "/api/images/save", map[string]any{
		"toolCallId": "cap-9",
		"filename":   "selfie.png",
		"image":      "data:image/png;base64,aGVsbG8gd29ybGQ=",
	}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("image save returned %d: %s", rec.Code, rec.Body.String())
	}
	var saved struct {
		Filename string `json:"filename"`
	}
	decode(t, rec, &saved)
	if saved.Filename != "selfie.png" {
		t.Fatalf("expected selfie.png, got %q", saved.Filename)
	}

	rec = getPath(t, router, "/api/tools/result/cap-9", nil)
	var result struct {
		Ready  bool           `json:"ready"`
		Result tooling.Result `json:"result"`
	}
	decode(t, rec, &result)
	if !result.Ready || result.Result.Content == "" {
		t.Fatalf("expected a completed capture result, got %+v", result)
	}
}

func TestImageSaveRejectsBadPayloads(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := postJSON(t, router, "/api/images/save", map[string]any{
		"filename": "anim.gif",
		"image":    "data:image/gif;base64,aGVsbG8=",
	}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("gif payload should return 400, got %d", rec.Code)
	}

	rec = postJSON(t, router, "/api/images/save", map[string]any{}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing image should return 400, got %d", rec.Code)
	}
}

func TestWeatherFallsBackWithoutProvider(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := getPath(t, router, "/api/weather", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("weather returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Description string `json:"description"`
	}
	decode(t, rec, &resp)
	if resp.Description == "" {
		t.Fatal("weather should always describe something")
	}
}

func TestFashionTrends(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := getPath(t, router, "/api/fashion/trends?season=winter", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("trends returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Trends struct {
			Season string   `json:"season"`
			Styles []string `json:"styles"`
		} `json:"trends"`
	}
	decode(t, rec, &resp)
	if resp.Trends.Season != "winter" || len(resp.Trends.Styles) == 0 {
		t.Fatalf("unexpected trends %+v", resp.Trends)
	}
}
