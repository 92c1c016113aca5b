package textsim

import "strings"

// stopWords are removed from both token sets before scoring so that filler
// words never count toward a match.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "must": {}, "can": {},
	"this": {}, "that": {}, "these": {}, "those": {},
}

// containmentBoost is the floor applied when one full string contains the
// other, covering short-description containment like "pothole" inside
// "big pothole near market".
const containmentBoost = 0.7

// Similarity returns a score in [0, 1] for two free-text strings: Jaccard
// similarity over lower-cased, whitespace-tokenized, stop-word-filtered word
// sets. If either filtered set is empty the score is 0. When one full
// lower-cased string contains the other and both sets were non-empty, the
// score is raised to at least containmentBoost, never lowered.
func Similarity(a, b string) float64 {
	aWords := tokenSet(a)
	bWords := tokenSet(b)

	if len(aWords) == 0 || len(bWords) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range aWords {
		if _, ok := bWords[w]; ok {
			intersection++
		}
	}
	union := len(aWords) + len(bWords) - intersection

	similarity := float64(intersection) / float64(union)

	aLower := strings.ToLower(strings.TrimSpace(a))
	bLower := strings.ToLower(strings.TrimSpace(b))
	if strings.Contains(aLower, bLower) || strings.Contains(bLower, aLower) {
		if similarity < containmentBoost {
			similarity = containmentBoost
		}
	}

	return similarity
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if _, stop := stopWords[w]; stop {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}
