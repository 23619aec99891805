package emotion

// Hand-tuned resolution thresholds. There is no calibration procedure
// behind these values; they were chosen by watching the avatar.
const (
	positiveTrust   = 0.15
	prosodyTrust    = 0.2
	distressedTrust = 0.4
)

// warmupMessages is how many prosody messages are distrusted at the start
// of a session; the vendor's model is unreliable on the first utterances.
const warmupMessages = 2

// Blend resolves a display emotion from the prosody score map and the
// spoken text. messageIndex is the 1-based count of prosody messages seen
// in this session.
func Blend(scores map[string]float64, text string, messageIndex int) Emotion {
	prosody, score := TopProsody(scores)

	if messageIndex <= warmupMessages {
		if containsGreeting(text) {
			return Happy
		}
		return Neutral
	}

	textEmotion, hasText := AnalyzeText(text)

	// Positive prosody is trusted on weak signal.
	if (prosody == Happy || prosody == Excited) && score > positiveTrust {
		return prosody
	}

	// Fear and sadness need high confidence to surface; the avatar should
	// not look distressed on a weak signal.
	if prosody == Fear || prosody == Sad {
		if score >= distressedTrust {
			return prosody
		}
		if hasText {
			return textEmotion
		}
		return Neutral
	}

	if hasText && (prosody == Neutral || prosody == Thinking || score < prosodyTrust) {
		return textEmotion
	}

	if prosody != Neutral && score > prosodyTrust {
		return prosody
	}

	if hasText {
		return textEmotion
	}
	// Never leave the avatar visibly flat during active speech.
	return Happy
}
