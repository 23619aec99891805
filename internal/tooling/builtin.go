package tooling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/novolabs/novo/internal/email"
	"github.com/novolabs/novo/internal/geo"
	"github.com/novolabs/novo/internal/models"
	"github.com/novolabs/novo/internal/storage"
	"github.com/novolabs/novo/internal/types"
	"github.com/novolabs/novo/internal/weather"
)

// Deps are the collaborators the built-in tools draw on. Nil members
// degrade the matching tools to spoken apologies instead of failures.
type Deps struct {
	Vision   models.VisionModel
	Email    *email.Sender
	Weather  *weather.Client
	Quiet    *Quiet
	Camera   *Camera
	Sessions storage.SessionStore
	Users    storage.UserStore
}

// RegisterBuiltins wires the standard NoVo tool set into the registry.
func RegisterBuiltins(r *Registry, deps Deps) error {
	tools := []Tool{
		&takePictureTool{},
		&sendEmailPictureTool{deps: deps},
		&sendEmailSummaryTool{deps: deps},
		&analyzeVisionTool{deps: deps},
		&getWeatherTool{deps: deps},
		&beQuietTool{quiet: deps.Quiet},
		&resumeTalkingTool{quiet: deps.Quiet},
		&openBrowserTool{},
		&openTranslatorTool{},
	}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	// Some vendor configs name the picture email tool the other way round.
	return r.RegisterAlias("send_picture_email", "send_email_picture")
}

type takePictureTool struct{}

func (t *takePictureTool) Name() string        { return "take_picture" }
func (t *takePictureTool) Description() string { return "Opens the camera and captures a frame." }
func (t *takePictureTool) Immediate() bool     { return false }

func (t *takePictureTool) Schema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object"}
}

func (t *takePictureTool) Execute(ctx context.Context, params map[string]any) (Result, error) {
	return Result{
		Content:  "Opening the camera now. Strike a pose and I'll take the picture!",
		Deferred: true,
	}, nil
}

type sendEmailPictureTool struct {
	deps Deps
}

func (t *sendEmailPictureTool) Name() string { return "send_email_picture" }
func (t *sendEmailPictureTool) Description() string {
	return "Emails the most recent captured picture to the user."
}
func (t *sendEmailPictureTool) Immediate() bool { return false }

func (t *sendEmailPictureTool) Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"email":     {Type: "string", Description: "Recipient email address."},
			"image_url": {Type: "string", Description: "Picture to send; defaults to the last capture."},
		},
		Required: []string{"email"},
	}
}

func (t *sendEmailPictureTool) Execute(ctx context.Context, params map[string]any) (Result, error) {
	to := strings.TrimSpace(stringParam(params, "email"))
	if to == "" {
		return Result{}, newError("missing_email", "I need your email address first. What is it?", nil)
	}

	imageURL := stringParam(params, "image_url")
	if imageURL == "" && t.deps.Camera != nil {
		imageURL = t.deps.Camera.LastImage()
	}
	if imageURL == "" {
		return Result{}, newError("missing_image", "I haven't taken a picture yet. Want me to take one first?", nil)
	}

	if err := t.deps.Email.SendPicture(ctx, to, imageURL); err != nil {
		return Result{}, newError("email_failed", "I couldn't send that email just now. Let's try again in a moment.", err)
	}
	return Result{Content: fmt.Sprintf("Done! I've sent the picture to %s.", to)}, nil
}

type sendEmailSummaryTool struct {
	deps Deps
}

func (t *sendEmailSummaryTool) Name() string { return "send_email_summary" }
func (t *sendEmailSummaryTool) Description() string {
	return "Emails a transcript of the conversation to the user."
}
func (t *sendEmailSummaryTool) Immediate() bool { return false }

func (t *sendEmailSummaryTool) Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"email":      {Type: "string", Description: "Recipient email address."},
			"session_id": {Type: "string", Description: "Session whose transcript to send."},
			"ip":         {Type: "string", Description: "Client IP used to look up the profile."},
		},
		Required: []string{"email"},
	}
}

func (t *sendEmailSummaryTool) Execute(ctx context.Context, params map[string]any) (Result, error) {
	to := strings.TrimSpace(stringParam(params, "email"))
	if to == "" {
		return Result{}, newError("missing_email", "I need your email address first. What is it?", nil)
	}

	var messages []types.Message
	if id := stringParam(params, "session_id"); id != "" && t.deps.Sessions != nil {
		session, err := t.deps.Sessions.Get(ctx, id)
		if err == nil {
			messages = session.Messages
		} else if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("failed to load session for summary", "session_id", id, "error", err)
		}
	}

	var profile *types.UserProfile
	if ip := stringParam(params, "ip"); ip != "" && t.deps.Users != nil {
		p, err := t.deps.Users.Get(ctx, ip)
		if err == nil {
			profile = p
		} else if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("failed to load profile for summary", "ip", ip, "error", err)
		}
	}

	if err := t.deps.Email.SendSummary(ctx, to, messages, profile); err != nil {
		return Result{}, newError("email_failed", "I couldn't send the summary just now. Let's try again in a moment.", err)
	}
	return Result{Content: fmt.Sprintf("All set! I've emailed the conversation summary to %s.", to)}, nil
}

type analyzeVisionTool struct {
	deps Deps
}

func (t *analyzeVisionTool) Name() string { return "analyze_vision" }
func (t *analyzeVisionTool) Description() string {
	return "Describes what the camera currently sees."
}
func (t *analyzeVisionTool) Immediate() bool { return false }

func (t *analyzeVisionTool) Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"image": {Type: "string", Description: "Camera frame as a data URL."},
			"kind":  {Type: "string", Description: "Analysis flavor.", Enum: []any{"general", "emotions", "fashion", "scene-change"}},
		},
	}
}

func (t *analyzeVisionTool) Execute(ctx context.Context, params map[string]any) (Result, error) {
	image := stringParam(params, "image")
	if image == "" && t.deps.Camera != nil {
		image = t.deps.Camera.LastImage()
	}
	cameraOn := t.deps.Camera != nil && t.deps.Camera.Active()
	if image == "" || !cameraOn {
		return Result{
			Content: "My camera isn't on yet, so I can't see you. Ask the user to say \"turn on the camera\" or tap the camera button, then ask me again.",
		}, nil
	}
	if t.deps.Vision == nil {
		return Result{}, newError("vision_unavailable", "My eyes aren't working right now, sorry! Let's keep chatting.", nil)
	}

	kind := models.AnalysisKind(stringParam(params, "kind"))
	if kind == "" {
		kind = models.AnalysisGeneral
	}
	description, err := t.deps.Vision.Describe(ctx, image, kind)
	if err != nil {
		return Result{}, newError("vision_failed", "I couldn't get a good look just now. Give me a second and ask again.", err)
	}
	// Prefixed so the voice model repeats the observation instead of
	// claiming it can't see.
	return Result{Content: "I can see through the camera: " + description}, nil
}

type getWeatherTool struct {
	deps Deps
}

func (t *getWeatherTool) Name() string        { return "get_weather" }
func (t *getWeatherTool) Description() string { return "Reports current weather and the forecast." }
func (t *getWeatherTool) Immediate() bool     { return false }

func (t *getWeatherTool) Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"latitude":  {Type: "number"},
			"longitude": {Type: "number"},
		},
	}
}

func (t *getWeatherTool) Execute(ctx context.Context, params map[string]any) (Result, error) {
	if t.deps.Weather == nil {
		return Result{Content: weather.FallbackReport().Describe()}, nil
	}
	lat, okLat := floatParam(params, "latitude")
	lon, okLon := floatParam(params, "longitude")
	if !okLat || !okLon {
		loc := geo.FallbackLocation()
		lat, lon = loc.Latitude, loc.Longitude
	}

	// Get hands back a fallback report on upstream failure; the session
	// should not go silent over a weather hiccup.
	report, err := t.deps.Weather.Get(ctx, lat, lon)
	if err != nil {
		slog.Warn("weather lookup failed, speaking fallback", "error", err)
	}
	return Result{Content: report.Describe()}, nil
}

type beQuietTool struct {
	quiet *Quiet
}

func (t *beQuietTool) Name() string        { return "be_quiet" }
func (t *beQuietTool) Description() string { return "Stops talking until asked to resume." }
func (t *beQuietTool) Immediate() bool     { return true }

func (t *beQuietTool) Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"duration_seconds": {Type: "number", Description: "How long to stay quiet."},
		},
	}
}

func (t *beQuietTool) Execute(ctx context.Context, params map[string]any) (Result, error) {
	if t.quiet == nil {
		return Result{Content: "Okay, going quiet."}, nil
	}
	if seconds, ok := floatParam(params, "duration_seconds"); ok && seconds > 0 {
		t.quiet.SetFor(time.Duration(seconds * float64(time.Second)))
	} else {
		t.quiet.SetFor(0)
	}
	return Result{Content: "Okay, I'll be quiet now. Just say the word when you want me back."}, nil
}

type resumeTalkingTool struct {
	quiet *Quiet
}

func (t *resumeTalkingTool) Name() string        { return "resume_talking" }
func (t *resumeTalkingTool) Description() string { return "Resumes talking after quiet mode." }
func (t *resumeTalkingTool) Immediate() bool     { return true }

func (t *resumeTalkingTool) Schema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object"}
}

func (t *resumeTalkingTool) Execute(ctx context.Context, params map[string]any) (Result, error) {
	if t.quiet != nil {
		t.quiet.Resume()
	}
	return Result{Content: "I'm back! What were we talking about?"}, nil
}

type openBrowserTool struct{}

func (t *openBrowserTool) Name() string        { return "open_browser" }
func (t *openBrowserTool) Description() string { return "Opens a web page in a new tab." }
func (t *openBrowserTool) Immediate() bool     { return true }

func (t *openBrowserTool) Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"url": {Type: "string", Description: "Page to open."},
		},
		Required: []string{"url"},
	}
}

func (t *openBrowserTool) Execute(ctx context.Context, params map[string]any) (Result, error) {
	raw := strings.TrimSpace(stringParam(params, "url"))
	if raw == "" {
		return Result{}, newError("missing_url", "Which page should I open?", nil)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return Result{}, newError("invalid_url", "That doesn't look like a page I can open.", err)
	}
	return Result{
		Content: fmt.Sprintf("Opening %s for you.", parsed.Host),
		URL:     parsed.String(),
	}, nil
}

type openTranslatorTool struct{}

func (t *openTranslatorTool) Name() string        { return "open_translator" }
func (t *openTranslatorTool) Description() string { return "Opens a translator for the given text." }
func (t *openTranslatorTool) Immediate() bool     { return true }

func (t *openTranslatorTool) Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"text":            {Type: "string", Description: "Text to translate."},
			"target_language": {Type: "string", Description: "Two-letter target language code."},
		},
	}
}

func (t *openTranslatorTool) Execute(ctx context.Context, params map[string]any) (Result, error) {
	target := strings.TrimSpace(stringParam(params, "target_language"))
	if target == "" {
		target = "en"
	}
	values := url.Values{
		"sl": {"auto"},
		"tl": {target},
		"op": {"translate"},
	}
	if text := strings.TrimSpace(stringParam(params, "text")); text != "" {
		values.Set("text", text)
	}
	translator := "https://translate.google.com/?" + values.Encode()
	return Result{
		Content: "Opening the translator for you.",
		URL:     translator,
	}, nil
}
