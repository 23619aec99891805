package command

import (
	"testing"
)

func TestDetectCommandTypes(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"turn on the camera", TypeEnableCamera},
		{"can you see me", TypeEnableCamera},
		{"how do I look today", TypeVisionRequest},
		{"what am I wearing", TypeVisionRequest},
		{"take a picture of me", TypeTakePicture},
		{"shoot", TypeTakePicture},
		{"email me the picture", TypeSendEmailPicture},
		{"send me the summary please", TypeSendEmailSummary},
	}
	for _, tc := range cases {
		d := NewDetector()
		got := d.Detect(tc.text)
		if got == nil {
			t.Fatalf("Detect(%q) returned nil, want %s", tc.text, tc.want)
		}
		if got.Type != tc.want {
			t.Fatalf("Detect(%q) = %s, want %s", tc.text, got.Type, tc.want)
		}
		if got.OriginalText != tc.text {
			t.Fatalf("Detect(%q) lost original text: %q", tc.text, got.OriginalText)
		}
	}
}

func TestDetectShortTextReturnsNil(t *testing.T) {
	d := NewDetector()
	for _, text := range []string{"", "a", "hi", "  go  "} {
		if got := d.Detect(text); got != nil {
			t.Fatalf("Detect(%q) = %#v, want nil", text, got)
		}
	}
}

func TestDetectNoMatchReturnsNil(t *testing.T) {
	d := NewDetector()
	if got := d.Detect("tell me about the weather in Paris"); got != nil {
		t.Fatalf("expected nil for unmatched text, got %#v", got)
	}
}

func TestDetectDebounceSuppressesRepeat(t *testing.T) {
	d := NewDetector()
	if got := d.Detect("take a picture"); got == nil {
		t.Fatalf("expected first delivery to match")
	}
	if got := d.Detect("Take a Picture"); got != nil {
		t.Fatalf("expected duplicate within window to be suppressed, got %#v", got)
	}
}

func TestDetectPriorityOrder(t *testing.T) {
	// Matches both enable_camera and vision_request patterns; table order
	// makes enable_camera win.
	d := NewDetector()
	got := d.Detect("turn on the camera, how do I look")
	if got == nil || got.Type != TypeEnableCamera {
		t.Fatalf("expected enable_camera to win by table order, got %#v", got)
	}
}

func TestDetectConfidenceBounds(t *testing.T) {
	d := NewDetector()
	got := d.Detect("snap")
	if got == nil {
		t.Fatalf("expected match")
	}
	if got.Confidence < 0.7 || got.Confidence > 1.0 {
		t.Fatalf("confidence out of range: %f", got.Confidence)
	}

	d = NewDetector()
	rich := d.Detect("take a picture, a photo, a selfie, snap and capture it")
	if rich == nil {
		t.Fatalf("expected match")
	}
	if rich.Confidence <= got.Confidence {
		t.Fatalf("expected more hints to raise confidence: %f <= %f", rich.Confidence, got.Confidence)
	}
}

func TestDetectExtractsEmail(t *testing.T) {
	d := NewDetector()
	got := d.Detect("send the picture to ada@example.com please")
	if got == nil || got.Type != TypeSendEmailPicture {
		t.Fatalf("unexpected detection: %#v", got)
	}
	if got.ExtractedData["email"] != "ada@example.com" {
		t.Fatalf("expected extracted email, got %#v", got.ExtractedData)
	}
}
