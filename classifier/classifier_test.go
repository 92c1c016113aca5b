package classifier

import (
	"testing"

	"report-triage-pipeline/models"
)

func TestDetectCategory(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{
			name:        "road report",
			description: "there is a huge pothole on the road",
			want:        "Road & Traffic",
		},
		{
			name:        "no civic keywords",
			description: "nice weather today",
			want:        models.CategoryOther,
		},
		{
			name:        "garbage report",
			description: "garbage and trash piling up near the dustbin",
			want:        "Garbage & Sanitation",
		},
		{
			name:        "water report",
			description: "water leaking from a broken pipe",
			want:        "Water & Drainage",
		},
		{
			name:        "case insensitive",
			description: "STREETLIGHT not working, very DARK",
			want:        "Street Lighting",
		},
		{
			// "fire" and "gas" hit Public Safety twice; "road" hits
			// Road & Traffic once.
			name:        "highest count wins",
			description: "gas cylinder caught fire next to the road",
			want:        "Public Safety",
		},
		{
			// One keyword each; ties keep the first category in canonical
			// order to reach the maximum.
			name:        "tie keeps first category",
			description: "pothole next to the garbage pile",
			want:        "Road & Traffic",
		},
		{
			name:        "empty description",
			description: "",
			want:        models.CategoryOther,
		},
	}
	for _, tt := range tests {
		if got := DetectCategory(tt.description); got != tt.want {
			t.Errorf("%s: DetectCategory(%q) = %q, want %q", tt.name, tt.description, got, tt.want)
		}
	}
}

func TestDetectCategoryIdempotent(t *testing.T) {
	desc := "there is a huge pothole on the road"
	first := DetectCategory(desc)
	for i := 0; i < 10; i++ {
		if got := DetectCategory(desc); got != first {
			t.Fatalf("DetectCategory not deterministic: %q then %q", first, got)
		}
	}
}

func TestDetectUrgency(t *testing.T) {
	tests := []struct {
		name        string
		description string
		want        string
	}{
		{
			// "fire" (high) short-circuits even though "market" context
			// could also match medium keywords elsewhere in the text.
			name:        "high beats medium",
			description: "fire near the market",
			want:        models.UrgencyHigh,
		},
		{
			name:        "medium keyword",
			description: "the bench in the park is broken",
			want:        models.UrgencyMedium,
		},
		{
			name:        "no keywords",
			description: "faded zebra crossing near school",
			want:        models.UrgencyLow,
		},
		{
			name:        "gas leak is high even though leak is medium",
			description: "gas leak near the junction",
			want:        models.UrgencyHigh,
		},
		{
			name:        "empty description",
			description: "",
			want:        models.UrgencyLow,
		},
	}
	for _, tt := range tests {
		if got := DetectUrgency(tt.description); got != tt.want {
			t.Errorf("%s: DetectUrgency(%q) = %q, want %q", tt.name, tt.description, got, tt.want)
		}
	}
}

func TestDetectUrgencyIdempotent(t *testing.T) {
	desc := "fire near the market"
	first := DetectUrgency(desc)
	for i := 0; i < 10; i++ {
		if got := DetectUrgency(desc); got != first {
			t.Fatalf("DetectUrgency not deterministic: %q then %q", first, got)
		}
	}
}

func TestPriorityFor(t *testing.T) {
	tests := []struct {
		urgency string
		want    string
	}{
		{models.UrgencyHigh, models.PriorityUrgent},
		{models.UrgencyMedium, models.PriorityMedium},
		{models.UrgencyLow, models.PriorityLow},
		{"unknown", models.PriorityMedium},
		{"", models.PriorityMedium},
	}
	for _, tt := range tests {
		if got := PriorityFor(tt.urgency); got != tt.want {
			t.Errorf("PriorityFor(%q) = %q, want %q", tt.urgency, got, tt.want)
		}
	}
}

func TestIsAbusive(t *testing.T) {
	tests := []struct {
		description string
		want        bool
	}{
		{"this is fucking ridiculous", true},
		{"SHIT everywhere on the street", true},
		{"garbage not collected for a week", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsAbusive(tt.description); got != tt.want {
			t.Errorf("IsAbusive(%q) = %v, want %v", tt.description, got, tt.want)
		}
	}
}
