// Package command recognizes spoken intents that should bypass the voice
// model's own tool calling and be handled directly.
package command

import (
	"regexp"
	"strings"
	"time"

	"github.com/novolabs/novo/internal/cache"
	"github.com/novolabs/novo/internal/types"
)

// Command types, in priority order.
const (
	TypeEnableCamera     = "enable_camera"
	TypeVisionRequest    = "vision_request"
	TypeTakePicture      = "take_picture"
	TypeSendEmailPicture = "send_email_picture"
	TypeSendEmailSummary = "send_email_summary"
)

const (
	minTextLength  = 3
	debounceWindow = 2 * time.Second
	baseConfidence = 0.7
	hintConfidence = 0.3
	maxConfidence  = 1.0
)

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// category is one entry of the ordered command table. Slice order is
// priority: the first category with a matching pattern wins.
type category struct {
	kind     string
	patterns []*regexp.Regexp
	hints    []string
}

var categories = []category{
	{
		kind: TypeEnableCamera,
		patterns: compile(
			`(?i)\b(turn|switch)\s+(on|up)\s+(the\s+)?(camera|video|cam)\b`,
			`(?i)\benable\s+(the\s+)?(camera|video|cam)\b`,
			`(?i)\bopen\s+(the\s+)?camera\b`,
			`(?i)\b(start|activate)\s+(the\s+)?(camera|video)\b`,
			`(?i)\bcan\s+you\s+see\s+me\b`,
		),
		hints: []string{"camera", "video", "see", "look", "watch"},
	},
	{
		kind: TypeVisionRequest,
		patterns: compile(
			`(?i)\bhow\s+(do|does)\s+(i|my\s+\w+)\s+look\b`,
			`(?i)\bwhat\s+(am\s+i|are\s+we)\s+wearing\b`,
			`(?i)\bwhat\s+do\s+you\s+(see|think\s+of\s+(my|this))\b`,
			`(?i)\b(check|rate|describe)\s+(my|this)\s+(outfit|look|style|dress)\b`,
			`(?i)\bdo\s+you\s+like\s+(my|this)\s+(outfit|look|dress|shirt)\b`,
		),
		hints: []string{"look", "wearing", "outfit", "style", "dress", "fashion"},
	},
	{
		kind: TypeTakePicture,
		patterns: compile(
			`(?i)\btake\s+(a\s+|the\s+|my\s+)?(picture|photo|pic|selfie|snapshot)\b`,
			`(?i)\b(snap|shoot)\b`,
			`(?i)\bphoto\s+of\s+me\b`,
			`(?i)\bcapture\s+(this|me|a\s+moment)\b`,
		),
		hints: []string{"picture", "photo", "selfie", "snap", "capture"},
	},
	{
		kind: TypeSendEmailPicture,
		patterns: compile(
			`(?i)\b(send|email|mail)\s+(me\s+)?(the\s+|that\s+|this\s+|a\s+)?(picture|photo|pic|image)\b`,
			`(?i)\b(picture|photo|pic)\s+to\s+my\s+email\b`,
			`(?i)\bemail\s+it\s+to\s+me\b`,
		),
		hints: []string{"email", "send", "mail", "picture", "photo"},
	},
	{
		kind: TypeSendEmailSummary,
		patterns: compile(
			`(?i)\b(send|email|mail)\s+(me\s+)?(the\s+|a\s+)?(summary|transcript|conversation|recap)\b`,
			`(?i)\bsummary\s+to\s+my\s+email\b`,
			`(?i)\bemail\s+me\s+what\s+we\s+talked\s+about\b`,
		),
		hints: []string{"email", "summary", "transcript", "conversation", "send"},
	},
}

// Detector matches transcribed text against the command table. The voice
// vendor delivers some transcripts twice, so identical text is suppressed
// for a short window.
type Detector struct {
	recent *cache.Cache[struct{}]
}

// NewDetector returns a Detector.
func NewDetector() *Detector {
	return &Detector{recent: cache.New[struct{}](debounceWindow)}
}

// Detect returns the first matching command, or nil when the text is too
// short, matches nothing, or repeats within the debounce window.
func (d *Detector) Detect(text string) *types.DetectedCommand {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minTextLength {
		return nil
	}

	key := strings.ToLower(trimmed)
	if _, seen := d.recent.Get(key); seen {
		return nil
	}

	for _, cat := range categories {
		if !cat.matches(trimmed) {
			continue
		}
		d.recent.Set(key, struct{}{})
		cmd := &types.DetectedCommand{
			Type:         cat.kind,
			Confidence:   cat.confidence(key),
			OriginalText: trimmed,
		}
		if email := emailPattern.FindString(trimmed); email != "" {
			cmd.ExtractedData = map[string]string{"email": email}
		}
		return cmd
	}
	return nil
}

func (cat category) matches(text string) bool {
	for _, p := range cat.patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// confidence is 0.7 plus a share of 0.3 for each context-hint keyword
// present, capped at 1.0. Hints are independent of the matched pattern.
func (cat category) confidence(lowered string) float64 {
	if len(cat.hints) == 0 {
		return baseConfidence
	}
	matched := 0
	for _, hint := range cat.hints {
		if strings.Contains(lowered, hint) {
			matched++
		}
	}
	score := baseConfidence + float64(matched)/float64(len(cat.hints))*hintConfidence
	if score > maxConfidence {
		score = maxConfidence
	}
	return score
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}
