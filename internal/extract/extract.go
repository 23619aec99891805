// Package extract pulls personal details out of chat text so profiles can
// be enriched as the conversation goes.
package extract

import (
	"regexp"
	"strings"

	"github.com/novolabs/novo/internal/types"
)

var (
	emailRe    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe    = regexp.MustCompile(`\+?\d[\d\s\-().]{7,}\d`)
	nameRe     = regexp.MustCompile(`(?i)\bmy name is ([A-Za-z][A-Za-z'\-]+(?: [A-Za-z][A-Za-z'\-]+)?)`)
	altNameRe  = regexp.MustCompile(`(?i)\bcall me ([A-Za-z][A-Za-z'\-]+)`)
	birthdayRe = regexp.MustCompile(`(?i)\bmy birthday is (?:on )?([A-Za-z0-9 ,/\-]{3,30}?)(?:\.|,|$)`)
	ageRe      = regexp.MustCompile(`(?i)\bI(?:'m| am) (\d{1,3}) years old\b`)
	relationRe = regexp.MustCompile(`(?i)\bI(?:'m| am) (single|married|divorced|widowed|engaged|in a relationship)\b`)
	workAsRe   = regexp.MustCompile(`(?i)\bI work as an? ([A-Za-z][A-Za-z \-]{2,40}?)(?:\.|,| at | for |$)`)
	jobRe      = regexp.MustCompile(`(?i)\bI(?:'m| am) an? ([A-Za-z][A-Za-z\-]+(?: [A-Za-z\-]+)?) by (?:trade|profession)\b`)
	employerRe = regexp.MustCompile(`(?i)\bI work (?:at|for) ([A-Za-z0-9][A-Za-z0-9 .&\-]{1,40}?)(?:\.|,| as |$)`)
	liveInRe   = regexp.MustCompile(`(?i)\bI live in ([A-Za-z][A-Za-z .\-]{1,40}?)(?:\.|,|$)`)
	fromRe     = regexp.MustCompile(`(?i)\bI(?:'m| am) from ([A-Za-z][A-Za-z .\-]{1,40}?)(?:\.|,|$)`)
)

// Scan returns the personal details found in text. Unmatched fields stay
// empty; the caller merges the result into the stored profile.
func Scan(text string) types.ProfileUpdate {
	var update types.ProfileUpdate

	if m := emailRe.FindString(text); m != "" {
		update.Email = strings.ToLower(m)
	}
	if m := nameRe.FindStringSubmatch(text); m != nil {
		update.Name = title(trimNameTail(m[1]))
	} else if m := altNameRe.FindStringSubmatch(text); m != nil {
		update.Name = title(m[1])
	}
	if m := phoneRe.FindString(text); m != "" && looksLikePhone(m) {
		update.Phone = strings.TrimSpace(m)
	}
	if m := birthdayRe.FindStringSubmatch(text); m != nil {
		update.Birthday = strings.TrimSpace(m[1])
	}
	if m := ageRe.FindStringSubmatch(text); m != nil {
		update.Age = m[1]
	}
	if m := relationRe.FindStringSubmatch(text); m != nil {
		update.RelationshipStatus = strings.ToLower(m[1])
	}
	if m := workAsRe.FindStringSubmatch(text); m != nil {
		update.Occupation = strings.TrimSpace(strings.ToLower(m[1]))
	} else if m := jobRe.FindStringSubmatch(text); m != nil {
		update.Occupation = strings.TrimSpace(strings.ToLower(m[1]))
	}
	if m := employerRe.FindStringSubmatch(text); m != nil {
		update.Employer = strings.TrimSpace(m[1])
	}
	if m := liveInRe.FindStringSubmatch(text); m != nil {
		update.Location = strings.TrimSpace(m[1])
	} else if m := fromRe.FindStringSubmatch(text); m != nil {
		update.Location = strings.TrimSpace(m[1])
	}

	return update
}

// looksLikePhone filters out digit runs that are really dates or amounts.
func looksLikePhone(s string) bool {
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 9 && digits <= 15
}

// trimNameTail drops a trailing conjunction the two-word name capture
// swallows in sentences like "my name is Dana and I live in Haifa".
func trimNameTail(s string) string {
	words := strings.Fields(s)
	if len(words) == 2 {
		switch strings.ToLower(words[1]) {
		case "and", "but", "so", "by":
			return words[0]
		}
	}
	return s
}

func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
