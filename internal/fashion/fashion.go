// Package fashion serves seasonal style-trend context for the avatar.
// Trend data is static; the original fell back to the same tables whenever
// its upstream API failed, so the tables are the source of truth here.
package fashion

import (
	"strings"
	"time"
)

// Trends is the style context for one season and audience.
type Trends struct {
	Season   string   `json:"season"`
	Region   string   `json:"region"`
	Audience string   `json:"audience"`
	Styles   []string `json:"styles"`
	Colors   []string `json:"colors"`
	Tips     []string `json:"tips"`
}

var seasonStyles = map[string][]string{
	"spring": {"light layering", "pastel knitwear", "cropped trousers", "trench coats"},
	"summer": {"linen sets", "oversized shirts", "flowy maxi dresses", "sporty sandals"},
	"autumn": {"earth-tone layering", "leather jackets", "chunky boots", "wide-leg denim"},
	"winter": {"long wool coats", "turtlenecks", "quilted puffers", "knit midi dresses"},
}

var seasonColors = map[string][]string{
	"spring": {"sage green", "butter yellow", "lavender"},
	"summer": {"white", "ocean blue", "coral"},
	"autumn": {"rust", "chocolate brown", "olive"},
	"winter": {"charcoal", "burgundy", "ivory"},
}

var seasonTips = map[string][]string{
	"spring": {"one pastel piece is enough to carry an outfit", "layer pieces you can shed by noon"},
	"summer": {"breathable fabrics beat any print", "sunglasses are part of the outfit"},
	"autumn": {"texture mixing reads expensive", "a scarf ties mismatched layers together"},
	"winter": {"monochrome looks lengthen the silhouette", "invest in the coat, economize elsewhere"},
}

// CurrentSeason derives the northern-hemisphere season from a date.
func CurrentSeason(now time.Time) string {
	switch now.Month() {
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	case time.September, time.October, time.November:
		return "autumn"
	default:
		return "winter"
	}
}

// Get returns trends for the season. Season may be empty, meaning the
// current one; audience defaults to "everyone".
func Get(season, region, audience string, now time.Time) Trends {
	season = strings.ToLower(strings.TrimSpace(season))
	if _, ok := seasonStyles[season]; !ok {
		season = CurrentSeason(now)
	}
	if region = strings.TrimSpace(region); region == "" {
		region = "global"
	}
	if audience = strings.ToLower(strings.TrimSpace(audience)); audience == "" {
		audience = "everyone"
	}
	return Trends{
		Season:   season,
		Region:   region,
		Audience: audience,
		Styles:   seasonStyles[season],
		Colors:   seasonColors[season],
		Tips:     seasonTips[season],
	}
}

// Describe renders the trends as a spoken-friendly sentence.
func (t Trends) Describe() string {
	var b strings.Builder
	b.WriteString("This ")
	b.WriteString(t.Season)
	b.WriteString(", the looks to know are ")
	b.WriteString(strings.Join(t.Styles, ", "))
	b.WriteString(". Colors of the moment: ")
	b.WriteString(strings.Join(t.Colors, ", "))
	b.WriteString(".")
	return b.String()
}
