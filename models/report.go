package models

// Decision statuses.
const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// Urgency levels assigned by the rule classifier.
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

// Priority labels derived from urgency.
const (
	PriorityUrgent = "urgent"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// CategoryOther is the terminal sentinel category. Reports classified as
// "Other" are rejected and never become duplicate candidates.
const CategoryOther = "Other"

// AnonymousUserID is assigned when a report comes in without a user.
const AnonymousUserID = "anon"

// Report is a single citizen submission. It is consumed exactly once by the
// triage pipeline and never mutated; the pipeline produces a Decision instead.
type Report struct {
	ReportID    string   `json:"report_id"`
	Description string   `json:"description"`
	UserID      string   `json:"user_id,omitempty"`
	Image       []byte   `json:"image_bytes,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// HasLocation reports whether the submission carries a coordinate pair.
func (r *Report) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Decision is the outcome of triaging one report.
// Invariants: Accept == (Status == StatusAccepted); Reason is always set.
type Decision struct {
	ReportID   string `json:"report_id"`
	Accept     bool   `json:"accept"`
	Status     string `json:"status"`
	Category   string `json:"category,omitempty"`
	Department string `json:"department,omitempty"`
	Urgency    string `json:"urgency,omitempty"`
	Priority   string `json:"priority,omitempty"`
	Reason     string `json:"reason"`
}

// DecisionRecord is what gets persisted for every decided submission,
// accepted or rejected. Raw image bytes are never stored, only the derived
// perceptual hash (hex) when an image was supplied. Records are append-only
// and immutable once written.
type DecisionRecord struct {
	Timestamp   string   `json:"timestamp,omitempty"`
	ReportID    string   `json:"report_id"`
	Description string   `json:"description"`
	UserID      string   `json:"user_id,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Accept      bool     `json:"accept"`
	Status      string   `json:"status"`
	Category    string   `json:"category,omitempty"`
	Urgency     string   `json:"urgency,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	Reason      string   `json:"reason"`
	ImageHash   string   `json:"image_hash,omitempty"`
	ImageLabel  string   `json:"image_label,omitempty"`
}

// HasLocation reports whether the record carries a coordinate pair.
func (r *DecisionRecord) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// IsAcceptedCandidate reports whether the record is eligible as a duplicate
// candidate. Only accepted records are ever compared against.
func (r *DecisionRecord) IsAcceptedCandidate() bool {
	return r.Accept && r.Status == StatusAccepted
}

// DecisionStats summarizes the decision store for the stats endpoint.
type DecisionStats struct {
	TotalDecisions int            `json:"total_decisions"`
	Accepted       int            `json:"accepted"`
	Rejected       int            `json:"rejected"`
	ByCategory     map[string]int `json:"by_category"`
}
