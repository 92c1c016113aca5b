// Package classifier assigns a category and urgency to report descriptions
// using fixed keyword tables, and performs the local profanity check.
//
// All tables are ordered slices, not maps: the table order is the canonical
// tie-break order. Category ties keep the first category that reached the
// maximum score; urgency scanning returns on the first matching keyword.
package classifier

import (
	"strings"

	"report-triage-pipeline/models"
)

type categoryRule struct {
	name     string
	keywords []string
}

// categoryRules in canonical order. A category's score is the number of its
// keywords appearing as substrings of the normalized description.
var categoryRules = []categoryRule{
	{"Road & Traffic", []string{
		"pothole", "road", "traffic", "accident",
		"signal", "junction", "speed breaker", "footpath",
	}},
	{"Garbage & Sanitation", []string{
		"garbage", "trash", "waste", "dirty",
		"dustbin", "sanitation", "sewage",
	}},
	{"Water & Drainage", []string{
		"water", "leak", "pipe", "drain",
		"drainage", "flood",
	}},
	{"Electricity", []string{
		"electric", "power", "wire", "pole",
		"outage", "transformer",
	}},
	{"Street Lighting", []string{
		"streetlight", "street light", "lamp",
		"light", "dark",
	}},
	{"Public Safety", []string{
		"fire", "collapse", "crime", "hazard", "gas",
	}},
	{"Parks & Recreation", []string{
		"park", "bench", "playground", "garden",
		"tree", "lawn", "maintenance",
	}},
}

// highUrgencyKeywords in canonical order; first match wins and
// short-circuits the medium scan.
var highUrgencyKeywords = []string{
	"fire", "accident", "collapse", "electrocution", "gas leak",
	"collision", "roadblock", "hit and run", "bridge collapse",
	"road caved in", "burning", "smoke", "blast", "explosion",
	"short circuit", "electric spark", "transformer burst",
	"flood", "waterlogging", "sewage overflow", "pipe burst",
	"contaminated water", "garbage overflow", "dead animal",
	"toxic smell", "epidemic", "dengue outbreak", "cholera",
	"violence", "crime", "theft", "robbery", "building collapse",
	"wall collapse", "tree fallen", "landslide", "power outage",
	"electric shock", "streetlight sparks", "ambulance needed",
	"emergency help",
}

var mediumUrgencyKeywords = []string{
	"broken", "leak", "overflow", "not working", "damaged",
}

var abusiveWords = []string{
	"fuck", "shit", "bitch", "asshole", "idiot", "bastard",
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// DetectCategory returns the category whose keywords score the strictly
// highest substring-match count against the description, or
// models.CategoryOther when no keyword matches at all.
func DetectCategory(description string) string {
	text := normalize(description)
	best := models.CategoryOther
	maxScore := 0

	for _, rule := range categoryRules {
		score := 0
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > maxScore {
			maxScore = score
			best = rule.name
		}
	}

	return best
}

// DetectUrgency scans the high-urgency keywords first (any match returns
// high immediately), then the medium set, and defaults to low.
func DetectUrgency(description string) string {
	text := normalize(description)

	for _, kw := range highUrgencyKeywords {
		if strings.Contains(text, kw) {
			return models.UrgencyHigh
		}
	}
	for _, kw := range mediumUrgencyKeywords {
		if strings.Contains(text, kw) {
			return models.UrgencyMedium
		}
	}
	return models.UrgencyLow
}

// PriorityFor maps an urgency level to its priority label.
func PriorityFor(urgency string) string {
	switch urgency {
	case models.UrgencyHigh:
		return models.PriorityUrgent
	case models.UrgencyMedium:
		return models.PriorityMedium
	case models.UrgencyLow:
		return models.PriorityLow
	default:
		return models.PriorityMedium
	}
}

// IsAbusive applies the local case-insensitive profanity word list. This is
// a conservative check applied unconditionally; an external moderation
// signal may additionally flag the same text.
func IsAbusive(description string) bool {
	text := normalize(description)
	for _, w := range abusiveWords {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
