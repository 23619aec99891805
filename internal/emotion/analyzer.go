package emotion

import "strings"

// earlyWindow is the prefix length that gives keywords extra weight; words
// near the start of an utterance carry more of its emotional tone.
const earlyWindow = 50

const earlyBonus = 0.5

var keywordTable = []struct {
	emotion  Emotion
	keywords []string
}{
	{Happy, []string{"happy", "great", "wonderful", "love", "awesome", "nice", "glad", "thank"}},
	{Excited, []string{"excited", "amazing", "fantastic", "incredible", "wow", "can't wait"}},
	{Sad, []string{"sad", "unhappy", "depressed", "miss", "lonely", "cry", "sorry"}},
	{Angry, []string{"angry", "mad", "furious", "hate", "annoyed", "terrible"}},
	{Surprised, []string{"surprised", "unexpected", "no way", "really", "unbelievable"}},
	{Fear, []string{"scared", "afraid", "terrified", "nervous", "worried", "anxious"}},
	{Disgust, []string{"disgusting", "gross", "awful", "yuck", "nasty"}},
	{Thinking, []string{"think", "wonder", "maybe", "hmm", "consider", "not sure"}},
	{Suspicious, []string{"suspicious", "doubt", "weird", "strange", "fishy"}},
	{Neutral, []string{"okay", "fine", "alright"}},
}

// AnalyzeText guesses an emotion from keyword occurrences. Keywords in the
// first 50 characters count extra. Returns ok=false when nothing matches.
func AnalyzeText(text string) (Emotion, bool) {
	lowered := strings.ToLower(text)
	early := lowered
	if len(early) > earlyWindow {
		early = early[:earlyWindow]
	}

	best := Neutral
	bestScore := 0.0
	for _, row := range keywordTable {
		score := 0.0
		for _, kw := range row.keywords {
			count := strings.Count(lowered, kw)
			if count == 0 {
				continue
			}
			score += float64(count)
			if strings.Contains(early, kw) {
				score += earlyBonus
			}
		}
		if score > bestScore {
			best = row.emotion
			bestScore = score
		}
	}
	if bestScore == 0 {
		return Neutral, false
	}
	return best, true
}

var greetingWords = []string{"hello", "hi", "hey", "shalom"}

var greetingPhrases = []string{"good morning", "good afternoon", "good evening"}

// containsGreeting reports whether the text opens a conversation. Single
// greeting words are matched on word boundaries so "this" does not count
// as "hi".
func containsGreeting(text string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range greetingPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	for _, field := range strings.FieldsFunc(lowered, func(r rune) bool {
		return !('a' <= r && r <= 'z')
	}) {
		for _, w := range greetingWords {
			if field == w {
				return true
			}
		}
	}
	return false
}
