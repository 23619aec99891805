package emotion

import "testing"

func TestBlendStrongFearSurfaces(t *testing.T) {
	got := Blend(map[string]float64{"Fear": 0.9}, "", 5)
	if got != Fear {
		t.Fatalf("expected fear at score 0.9, got %s", got)
	}
}

func TestBlendWeakFearDistrusted(t *testing.T) {
	got := Blend(map[string]float64{"Fear": 0.3}, "", 5)
	if got == Fear {
		t.Fatalf("fear must not surface at score 0.3")
	}
	if got != Neutral {
		t.Fatalf("expected neutral fallback without text, got %s", got)
	}
}

func TestBlendWeakSadFallsBackToText(t *testing.T) {
	got := Blend(map[string]float64{"Sadness": 0.2}, "I am so happy today", 5)
	if got != Happy {
		t.Fatalf("expected text emotion to win over weak sadness, got %s", got)
	}
}

func TestBlendGreetingOverrideEarlyInSession(t *testing.T) {
	got := Blend(map[string]float64{"Fear": 0.95}, "hello there", 1)
	if got != Happy {
		t.Fatalf("expected happy on greeting during warmup, got %s", got)
	}
	got = Blend(map[string]float64{"Joy": 0.95}, "the weather is nice", 2)
	if got != Neutral {
		t.Fatalf("expected neutral during warmup without greeting, got %s", got)
	}
	got = Blend(map[string]float64{"Joy": 0.95}, "the weather is nice", 3)
	if got != Happy {
		t.Fatalf("expected prosody to apply after warmup, got %s", got)
	}
}

func TestBlendPositiveProsodyLowThreshold(t *testing.T) {
	got := Blend(map[string]float64{"Excitement": 0.16}, "", 5)
	if got != Excited {
		t.Fatalf("expected excited above 0.15, got %s", got)
	}
}

func TestBlendTextWinsOverNeutralProsody(t *testing.T) {
	got := Blend(map[string]float64{"Calmness": 0.8}, "that is disgusting, gross", 5)
	if got != Disgust {
		t.Fatalf("expected text emotion over neutral prosody, got %s", got)
	}
}

func TestBlendDefaultsToHappy(t *testing.T) {
	got := Blend(nil, "mmm", 5)
	if got != Happy {
		t.Fatalf("expected happy default with no signal, got %s", got)
	}
}

func TestTopProsodyUnmappedLabel(t *testing.T) {
	e, score := TopProsody(map[string]float64{"Galaxy Brain": 0.9})
	if e != Neutral || score != 0.9 {
		t.Fatalf("unmapped label must map to neutral, got %s %f", e, score)
	}
}

func TestAnalyzeTextEarlyBonus(t *testing.T) {
	// "sad" appears once early; "happy" appears once late in a long text.
	text := "sad news today, but the rest of this very long sentence eventually turns out happy"
	got, ok := AnalyzeText(text)
	if !ok {
		t.Fatalf("expected a keyword match")
	}
	if got != Sad {
		t.Fatalf("expected early keyword to win, got %s", got)
	}
}

func TestAnalyzeTextNoMatch(t *testing.T) {
	if _, ok := AnalyzeText("the quick brown fox"); ok {
		t.Fatalf("expected no match")
	}
}
