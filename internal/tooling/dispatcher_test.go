package tooling

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/novolabs/novo/internal/models"
)

type fakeVision struct {
	reply string
	err   error
	kind  models.AnalysisKind
}

func (f *fakeVision) Describe(ctx context.Context, imageDataURL string, kind models.AnalysisKind) (string, error) {
	f.kind = kind
	return f.reply, f.err
}

func newTestDispatcher(t *testing.T, deps Deps) *Dispatcher {
	t.Helper()
	if deps.Quiet == nil {
		deps.Quiet = NewQuiet()
	}
	if deps.Camera == nil {
		deps.Camera = NewCamera()
	}
	registry := NewRegistry()
	if err := RegisterBuiltins(registry, deps); err != nil {
		t.Fatalf("failed to register builtins: %v", err)
	}
	return NewDispatcher(registry, NewPending(0), deps.Quiet, deps.Camera)
}

func TestDispatchUnknownToolAcknowledges(t *testing.T) {
	d := newTestDispatcher(t, Deps{})

	result, err := d.Dispatch(context.Background(), Call{ID: "c1", Name: "do_a_backflip"})
	if err != nil {
		t.Fatalf("unknown tool should not error, got %v", err)
	}
	if result.Content == "" {
		t.Fatal("unknown tool should still produce a spoken acknowledgment")
	}
}

func TestDispatchSuppressesDuplicateCallIDs(t *testing.T) {
	quiet := NewQuiet()
	d := newTestDispatcher(t, Deps{Quiet: quiet})

	call := Call{ID: "dup-1", Name: "be_quiet"}
	if _, err := d.Dispatch(context.Background(), call); err != nil {
		t.Fatalf("first dispatch failed: %v", err)
	}
	if !quiet.Active() {
		t.Fatal("be_quiet should activate quiet mode")
	}

	quiet.Resume()
	if _, err := d.Dispatch(context.Background(), call); err != nil {
		t.Fatalf("duplicate dispatch failed: %v", err)
	}
	if quiet.Active() {
		t.Fatal("duplicate call ID should not re-run the tool")
	}
}

func TestDispatchRejectsInvalidParameters(t *testing.T) {
	d := newTestDispatcher(t, Deps{})

	_, err := d.Dispatch(context.Background(), Call{ID: "c2", Name: "open_browser", Parameters: `{"url": 42}`})
	var toolErr *Error
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if toolErr.Code != "invalid_parameters" {
		t.Fatalf("expected invalid_parameters, got %q", toolErr.Code)
	}
	if toolErr.Content == "" {
		t.Fatal("parameter errors should carry spoken content")
	}
}

func TestTakePictureDefersAndCompletes(t *testing.T) {
	d := newTestDispatcher(t, Deps{})

	result, err := d.Dispatch(context.Background(), Call{ID: "cam-1", Name: "take_picture"})
	if err != nil {
		t.Fatalf("take_picture failed: %v", err)
	}
	if !result.Deferred {
		t.Fatal("take_picture should defer until the browser captures a frame")
	}
	if d.Pending().Outstanding() != 1 {
		t.Fatalf("expected 1 outstanding call, got %d", d.Pending().Outstanding())
	}

	final := Result{Content: "Got it, lovely picture!"}
	if !d.Complete("cam-1", final) {
		t.Fatal("completion of an outstanding call should succeed")
	}
	if d.Complete("cam-1", final) {
		t.Fatal("second completion of the same call should be a no-op")
	}

	got, ok := d.TakeResult("cam-1")
	if !ok {
		t.Fatal("completed result should be retrievable once")
	}
	if got.Content != final.Content {
		t.Fatalf("expected %q, got %q", final.Content, got.Content)
	}
	if _, ok := d.TakeResult("cam-1"); ok {
		t.Fatal("TakeResult should consume the result")
	}
}

func TestAnalyzeVisionWithCameraOff(t *testing.T) {
	vision := &fakeVision{reply: "a sunny room"}
	d := newTestDispatcher(t, Deps{Vision: vision})

	result, err := d.Dispatch(context.Background(), Call{ID: "v1", Name: "analyze_vision"})
	if err != nil {
		t.Fatalf("analyze_vision with camera off should not error, got %v", err)
	}
	if !strings.Contains(result.Content, "camera") {
		t.Fatalf("expected a camera prompt, got %q", result.Content)
	}
	if vision.kind != "" {
		t.Fatal("vision model should not be called while the camera is off")
	}
}

func TestAnalyzeVisionDescribesLastFrame(t *testing.T) {
	vision := &fakeVision{reply: "a person smiling at the screen"}
	camera := NewCamera()
	camera.SetLastImage("data:image/png;base64,aGVsbG8=")
	d := newTestDispatcher(t, Deps{Vision: vision, Camera: camera})

	result, err := d.Dispatch(context.Background(), Call{ID: "v2", Name: "analyze_vision", Parameters: `{"kind":"emotions"}`})
	if err != nil {
		t.Fatalf("analyze_vision failed: %v", err)
	}
	if !strings.HasPrefix(result.Content, "I can see through the camera:") {
		t.Fatalf("expected the camera prefix, got %q", result.Content)
	}
	if !strings.Contains(result.Content, vision.reply) {
		t.Fatalf("expected the model description in %q", result.Content)
	}
	if vision.kind != models.AnalysisEmotions {
		t.Fatalf("expected emotions analysis, got %q", vision.kind)
	}
}

func TestSendEmailPictureWithoutCapture(t *testing.T) {
	d := newTestDispatcher(t, Deps{})

	_, err := d.Dispatch(context.Background(), Call{
		ID:         "e1",
		Name:       "send_email_picture",
		Parameters: `{"email":"dana@example.com"}`,
	})
	var toolErr *Error
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if toolErr.Code != "missing_image" {
		t.Fatalf("expected missing_image, got %q", toolErr.Code)
	}
}

func TestSendPictureEmailAliasReachesTheTool(t *testing.T) {
	d := newTestDispatcher(t, Deps{})

	// The alias must hit the real implementation, not the unknown-tool
	// acknowledgment; without a capture that means a missing_image error.
	_, err := d.Dispatch(context.Background(), Call{
		ID:         "alias-1",
		Name:       "send_picture_email",
		Parameters: `{"email":"dana@example.com"}`,
	})
	var toolErr *Error
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected *Error from the aliased tool, got %v", err)
	}
	if toolErr.Code != "missing_image" {
		t.Fatalf("expected missing_image, got %q", toolErr.Code)
	}
}

func TestRegisterAliasRejectsUnknownTarget(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterAlias("ghost", "not_registered"); err == nil {
		t.Fatal("alias to an unregistered tool should fail")
	}
}

func TestOpenBrowserNormalizesScheme(t *testing.T) {
	d := newTestDispatcher(t, Deps{})

	result, err := d.Dispatch(context.Background(), Call{
		ID:         "b1",
		Name:       "open_browser",
		Parameters: `{"url":"example.com/news"}`,
	})
	if err != nil {
		t.Fatalf("open_browser failed: %v", err)
	}
	if result.URL != "https://example.com/news" {
		t.Fatalf("expected https scheme added, got %q", result.URL)
	}

	_, err = d.Dispatch(context.Background(), Call{
		ID:         "b2",
		Name:       "open_browser",
		Parameters: `{"url":"ftp://example.com"}`,
	})
	var toolErr *Error
	if !errors.As(err, &toolErr) || toolErr.Code != "invalid_url" {
		t.Fatalf("expected invalid_url for a non-http scheme, got %v", err)
	}
}

func TestOpenTranslatorBuildsURL(t *testing.T) {
	d := newTestDispatcher(t, Deps{})

	result, err := d.Dispatch(context.Background(), Call{
		ID:         "t1",
		Name:       "open_translator",
		Parameters: `{"text":"shalom","target_language":"fr"}`,
	})
	if err != nil {
		t.Fatalf("open_translator failed: %v", err)
	}
	if !strings.Contains(result.URL, "translate.google.com") {
		t.Fatalf("expected a translator URL, got %q", result.URL)
	}
	if !strings.Contains(result.URL, "tl=fr") || !strings.Contains(result.URL, "text=shalom") {
		t.Fatalf("expected language and text in %q", result.URL)
	}
}

func TestResumeTalkingClearsQuiet(t *testing.T) {
	quiet := NewQuiet()
	d := newTestDispatcher(t, Deps{Quiet: quiet})

	if _, err := d.Dispatch(context.Background(), Call{ID: "q1", Name: "be_quiet", Parameters: `{"duration_seconds":30}`}); err != nil {
		t.Fatalf("be_quiet failed: %v", err)
	}
	if !quiet.Active() {
		t.Fatal("quiet mode should be active")
	}
	if _, err := d.Dispatch(context.Background(), Call{ID: "q2", Name: "resume_talking"}); err != nil {
		t.Fatalf("resume_talking failed: %v", err)
	}
	if quiet.Active() {
		t.Fatal("resume_talking should clear quiet mode")
	}
}
