// Package pipeline orchestrates report triage: Validate -> Classify ->
// Moderate -> Dedupe -> Decide. Every decided submission is persisted,
// accepted or not, and no internal fault ever escapes as a panic.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"report-triage-pipeline/classifier"
	"report-triage-pipeline/config"
	"report-triage-pipeline/dedup"
	"report-triage-pipeline/fingerprint"
	"report-triage-pipeline/metrics"
	"report-triage-pipeline/models"
	"report-triage-pipeline/store"

	"github.com/apex/log"
)

// Decision reasons.
const (
	ReasonAccepted           = "Report accepted successfully"
	ReasonDescriptionMissing = "Description is required"
	ReasonCategoryUnresolved = "Unable to determine issue category from description"
	ReasonAbusiveLanguage    = "Abusive language detected"
	ReasonDuplicate          = "Duplicate spam (same image and description already reported)"
	ReasonLegacyDuplicate    = "Duplicate spam (same user, text, location, and image)"
)

// Outcome labels for metrics.
const (
	outcomeAccepted        = "accepted"
	outcomeValidation      = "validation"
	outcomeCategory        = "category"
	outcomeModeration      = "moderation"
	outcomeDuplicate       = "duplicate"
	outcomeProcessingError = "processing_error"
)

// TextModerator is the optional external moderation capability.
type TextModerator interface {
	IsProfane(ctx context.Context, text string) (bool, error)
}

// ImageLabeler is the optional external image labeling capability. Its
// label is advisory: stored with the record, never part of accept/reject.
type ImageLabeler interface {
	ClassifyImage(ctx context.Context, image []byte) (string, error)
}

// Publisher publishes accepted decision records for downstream consumers.
type Publisher interface {
	Publish(message interface{}) error
}

// Service is the report triage pipeline.
type Service struct {
	cfg       *config.Config
	store     store.Store
	detector  *dedup.Detector
	moderator TextModerator
	labeler   ImageLabeler
	publisher Publisher
	fp        dedup.Fingerprinter
}

// NewService wires the pipeline. moderator, labeler and publisher may be
// nil; the corresponding signals are then simply absent.
func NewService(cfg *config.Config, s store.Store, detector *dedup.Detector) *Service {
	return &Service{
		cfg:      cfg,
		store:    s,
		detector: detector,
		fp:       fingerprint.Compute,
	}
}

// WithModerator attaches the external moderation capability.
func (s *Service) WithModerator(m TextModerator) *Service {
	s.moderator = m
	return s
}

// WithLabeler attaches the external image labeling capability.
func (s *Service) WithLabeler(l ImageLabeler) *Service {
	s.labeler = l
	return s
}

// WithPublisher attaches the accepted-decision publisher.
func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

// WithFingerprinter replaces the fingerprint function (used in tests).
func (s *Service) WithFingerprinter(fp dedup.Fingerprinter) *Service {
	s.fp = fp
	return s
}

// ClassifyReport triages one submission and returns its Decision. The
// returned error is non-nil only when the decision could not be durably
// recorded; every other fault is converted into a rejected Decision.
func (s *Service) ClassifyReport(ctx context.Context, report *models.Report) (decision models.Decision, err error) {
	started := time.Now()
	outcome := outcomeProcessingError
	defer func() {
		metrics.DecisionsTotal.WithLabelValues(outcome).Inc()
		metrics.ProcessingDurationSeconds.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
	}()

	// The pipeline must never panic past its boundary: a fault becomes an
	// "Other" rejection with a processing-error reason.
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Recovered from panic while triaging report %s: %v", report.ReportID, r)
			decision = models.Decision{
				ReportID:   report.ReportID,
				Accept:     false,
				Status:     models.StatusRejected,
				Category:   models.CategoryOther,
				Department: models.CategoryOther,
				Reason:     fmt.Sprintf("Processing error: %v", r),
			}
			err = s.persist(ctx, report, &decision, "", "")
		}
	}()

	// Validate.
	desc := strings.TrimSpace(report.Description)
	if desc == "" {
		outcome = outcomeValidation
		return s.reject(report, "", ReasonDescriptionMissing), nil
	}

	// Classify. "Other" is terminal: the report never reaches dedupe.
	category := classifier.DetectCategory(desc)
	if category == models.CategoryOther {
		outcome = outcomeCategory
		decision = s.reject(report, category, ReasonCategoryUnresolved)
		return decision, s.persist(ctx, report, &decision, "", "")
	}

	// Moderate: local keyword list OR the external signal. The external
	// call is bounded by its client timeout and degrades to absent.
	if s.isAbusive(ctx, desc) {
		outcome = outcomeModeration
		decision = s.reject(report, category, ReasonAbusiveLanguage)
		return decision, s.persist(ctx, report, &decision, "", "")
	}

	// Dedupe, when enabled.
	if reason := s.duplicateReason(ctx, report, desc, category); reason != "" {
		outcome = outcomeDuplicate
		decision = s.reject(report, category, reason)
		return decision, s.persist(ctx, report, &decision, "", "")
	}

	// Decide: accept.
	urgency := classifier.DetectUrgency(desc)
	priority := classifier.PriorityFor(urgency)

	imageHash := ""
	if len(report.Image) > 0 {
		if fp, fpErr := s.fp(report.Image); fpErr == nil {
			imageHash = fp.String()
		} else {
			log.Warnf("No fingerprint for report %s image: %v", report.ReportID, fpErr)
		}
	}

	imageLabel := s.labelImage(ctx, report)

	decision = models.Decision{
		ReportID:   report.ReportID,
		Accept:     true,
		Status:     models.StatusAccepted,
		Category:   category,
		Department: category,
		Urgency:    urgency,
		Priority:   priority,
		Reason:     ReasonAccepted,
	}
	if err := s.persist(ctx, report, &decision, imageHash, imageLabel); err != nil {
		return decision, err
	}

	outcome = outcomeAccepted
	s.publishAccepted(report, &decision, imageHash, imageLabel)
	return decision, nil
}

// isAbusive OR-combines the local keyword check with the external
// moderation signal. An external failure means the signal is absent, not
// that the report is blocked.
func (s *Service) isAbusive(ctx context.Context, desc string) bool {
	if classifier.IsAbusive(desc) {
		return true
	}
	if s.moderator == nil {
		return false
	}
	flagged, err := s.moderator.IsProfane(ctx, desc)
	if err != nil {
		log.Debugf("External moderation signal absent: %v", err)
		return false
	}
	return flagged
}

// duplicateReason runs the configured duplicate checks and returns the
// rejection reason, or "" when the report is not a duplicate.
func (s *Service) duplicateReason(ctx context.Context, report *models.Report, desc, category string) string {
	if s.cfg.EnableDuplicateCheck {
		if s.detector.IsComprehensiveDuplicate(ctx, report.Image, desc, category, report.Latitude, report.Longitude) {
			return ReasonDuplicate
		}
	}

	// Legacy single-signal path. Only meaningful for registered users
	// with a location.
	if s.cfg.EnableLegacyDuplicateCheck {
		userID := report.UserID
		if userID != "" && userID != models.AnonymousUserID && report.HasLocation() {
			if s.detector.IsDuplicate(ctx, userID, desc, category) &&
				s.detector.IsDuplicateLocation(ctx, *report.Latitude, *report.Longitude, category, s.cfg.LegacyLocationThreshold) {
				return ReasonLegacyDuplicate
			}
		}
	}
	return ""
}

// labelImage asks the optional vision capability for an advisory label.
func (s *Service) labelImage(ctx context.Context, report *models.Report) string {
	if s.labeler == nil || len(report.Image) == 0 {
		return ""
	}
	label, err := s.labeler.ClassifyImage(ctx, report.Image)
	if err != nil {
		log.Debugf("Image label unavailable for report %s: %v", report.ReportID, err)
		return ""
	}
	return label
}

func (s *Service) reject(report *models.Report, category, reason string) models.Decision {
	return models.Decision{
		ReportID:   report.ReportID,
		Accept:     false,
		Status:     models.StatusRejected,
		Category:   category,
		Department: category,
		Reason:     reason,
	}
}

// persist appends the decided submission. Raw image bytes are never
// stored, only the derived fingerprint and label. A persistence failure is
// the one fault that propagates: an outcome that cannot be recorded must
// not silently look accepted.
func (s *Service) persist(ctx context.Context, report *models.Report, decision *models.Decision, imageHash, imageLabel string) error {
	userID := report.UserID
	if userID == "" {
		userID = models.AnonymousUserID
	}

	rec := &models.DecisionRecord{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		ReportID:    report.ReportID,
		Description: report.Description,
		UserID:      userID,
		Latitude:    report.Latitude,
		Longitude:   report.Longitude,
		Accept:      decision.Accept,
		Status:      decision.Status,
		Category:    decision.Category,
		Urgency:     decision.Urgency,
		Priority:    decision.Priority,
		Reason:      decision.Reason,
		ImageHash:   imageHash,
		ImageLabel:  imageLabel,
	}

	if err := s.store.SaveDecision(ctx, rec); err != nil {
		metrics.StoreAppendErrorsTotal.Inc()
		return fmt.Errorf("failed to persist decision for report %s: %w", report.ReportID, err)
	}
	return nil
}

// publishAccepted forwards the accepted record downstream, best-effort.
func (s *Service) publishAccepted(report *models.Report, decision *models.Decision, imageHash, imageLabel string) {
	if s.publisher == nil {
		return
	}
	message := struct {
		models.Decision
		ImageHash  string `json:"image_hash,omitempty"`
		ImageLabel string `json:"image_label,omitempty"`
	}{
		Decision:   *decision,
		ImageHash:  imageHash,
		ImageLabel: imageLabel,
	}
	if err := s.publisher.Publish(message); err != nil {
		log.Errorf("Failed to publish accepted report %s: %v", report.ReportID, err)
	}
}
