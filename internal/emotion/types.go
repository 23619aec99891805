// Package emotion picks a display emotion for the avatar from vocal-tone
// scores and spoken text.
package emotion

// Emotion is one of the avatar's ten display states.
type Emotion string

const (
	Happy      Emotion = "happy"
	Excited    Emotion = "excited"
	Sad        Emotion = "sad"
	Angry      Emotion = "angry"
	Surprised  Emotion = "surprised"
	Fear       Emotion = "fear"
	Disgust    Emotion = "disgust"
	Thinking   Emotion = "thinking"
	Suspicious Emotion = "suspicious"
	Neutral    Emotion = "neutral"
)

// prosodyMap collapses the vendor's fine-grained prosody labels onto the
// display enum. Unmapped labels fall back to Neutral.
var prosodyMap = map[string]Emotion{
	"Admiration":             Happy,
	"Adoration":              Happy,
	"Aesthetic Appreciation": Happy,
	"Amusement":              Happy,
	"Anger":                  Angry,
	"Annoyance":              Angry,
	"Anxiety":                Fear,
	"Awe":                    Surprised,
	"Awkwardness":            Suspicious,
	"Boredom":                Neutral,
	"Calmness":               Neutral,
	"Concentration":          Thinking,
	"Confusion":              Thinking,
	"Contemplation":          Thinking,
	"Contempt":               Disgust,
	"Contentment":            Happy,
	"Craving":                Excited,
	"Desire":                 Excited,
	"Determination":          Excited,
	"Disappointment":         Sad,
	"Disapproval":            Disgust,
	"Disgust":                Disgust,
	"Distress":               Fear,
	"Doubt":                  Suspicious,
	"Ecstasy":                Excited,
	"Embarrassment":          Suspicious,
	"Empathic Pain":          Sad,
	"Enthusiasm":             Excited,
	"Entrancement":           Surprised,
	"Envy":                   Suspicious,
	"Excitement":             Excited,
	"Fear":                   Fear,
	"Gratitude":              Happy,
	"Guilt":                  Sad,
	"Horror":                 Fear,
	"Interest":               Thinking,
	"Joy":                    Happy,
	"Love":                   Happy,
	"Nostalgia":              Sad,
	"Pain":                   Sad,
	"Pride":                  Happy,
	"Realization":            Surprised,
	"Relief":                 Happy,
	"Romance":                Happy,
	"Sadness":                Sad,
	"Sarcasm":                Suspicious,
	"Satisfaction":           Happy,
	"Shame":                  Sad,
	"Surprise (negative)":    Surprised,
	"Surprise (positive)":    Surprised,
	"Sympathy":               Sad,
	"Tiredness":              Neutral,
	"Triumph":                Excited,
}

// MapProsodyLabel maps a vendor prosody label to a display emotion.
func MapProsodyLabel(label string) Emotion {
	if mapped, ok := prosodyMap[label]; ok {
		return mapped
	}
	return Neutral
}

// TopProsody returns the highest-scoring vendor label mapped to the display
// enum, along with its score. An empty score map yields Neutral, 0.
func TopProsody(scores map[string]float64) (Emotion, float64) {
	top := ""
	best := 0.0
	for label, score := range scores {
		if score > best || (score == best && label < top) {
			top = label
			best = score
		}
	}
	if top == "" {
		return Neutral, 0
	}
	return MapProsodyLabel(top), best
}
