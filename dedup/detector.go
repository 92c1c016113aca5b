// Package dedup decides whether an incoming report is a re-submission of a
// previously accepted one.
//
// The comprehensive check requires BOTH an image match and text similarity;
// location only pre-filters candidates. Location or text alone produces
// false positives (the same intersection gets reported by many citizens with
// similar wording), so image evidence is the hard gate.
package dedup

import (
	"context"
	"errors"
	"strings"

	"report-triage-pipeline/fingerprint"
	"report-triage-pipeline/geo"
	"report-triage-pipeline/metrics"
	"report-triage-pipeline/models"
	"report-triage-pipeline/store"
	"report-triage-pipeline/textsim"

	"github.com/apex/log"
)

// Options are the detector thresholds.
type Options struct {
	// ImageHashThreshold is the maximum Hamming distance between
	// fingerprints; 0 requires bit-for-bit identical fingerprints.
	ImageHashThreshold int
	// TextSimilarityThreshold is the minimum description similarity.
	TextSimilarityThreshold float64
	// LocationThresholdMeters bounds the candidate pool when the incoming
	// report has coordinates.
	LocationThresholdMeters float64
}

// DefaultOptions mirror the production thresholds.
func DefaultOptions() Options {
	return Options{
		ImageHashThreshold:      0,
		TextSimilarityThreshold: 0.6,
		LocationThresholdMeters: 50.0,
	}
}

// Fingerprinter derives a perceptual hash from image bytes.
type Fingerprinter func([]byte) (fingerprint.Fingerprint, error)

// Detector scans the accepted-record snapshot for duplicates. All checks
// fail open: an internal error means "not a duplicate", never a blocked
// submission.
type Detector struct {
	store store.Store
	opts  Options
	fp    Fingerprinter
}

// NewDetector creates a detector over the given store.
func NewDetector(s store.Store, opts Options) *Detector {
	return &Detector{store: s, opts: opts, fp: fingerprint.Compute}
}

// WithFingerprinter replaces the fingerprint function (used in tests).
func (d *Detector) WithFingerprinter(fp Fingerprinter) *Detector {
	d.fp = fp
	return d
}

// IsComprehensiveDuplicate reports whether the submission matches a
// previously accepted record on image AND text, within the same category,
// optionally pre-filtered by location:
//
//  1. No image means no duplicate: image evidence is mandatory.
//  2. The candidate pool is all accepted records, restricted to those
//     within LocationThresholdMeters when coordinates are present.
//  3. A candidate must match the category (case-insensitive), pass the
//     image gate (exact fingerprint at threshold 0, else Hamming distance
//     within threshold) and then reach the text similarity threshold.
//     The first qualifying record wins.
func (d *Detector) IsComprehensiveDuplicate(ctx context.Context, image []byte, description, category string, lat, lon *float64) bool {
	if len(image) == 0 {
		return false
	}

	fp, err := d.fp(image)
	if err != nil {
		if !errors.Is(err, fingerprint.ErrNoFingerprint) {
			log.Warnf("Fingerprint failed during duplicate check: %v", err)
		}
		return false
	}

	accepted, err := d.store.LoadAccepted(ctx)
	if err != nil {
		log.Errorf("Failed to load accepted records for duplicate check: %v", err)
		return false
	}
	if len(accepted) == 0 {
		return false
	}

	pool := d.filterByLocation(accepted, lat, lon)
	metrics.DuplicateCandidatesScanned.Observe(float64(len(pool)))

	categoryNorm := strings.ToLower(category)
	for i := range pool {
		rec := &pool[i]
		if strings.ToLower(rec.Category) != categoryNorm {
			continue
		}
		if !d.imageMatches(fp, rec.ImageHash) {
			continue
		}
		similarity := textsim.Similarity(description, rec.Description)
		if similarity >= d.opts.TextSimilarityThreshold {
			log.Infof("Comprehensive duplicate: report %s matches (similarity %.2f)",
				rec.ReportID, similarity)
			return true
		}
	}
	return false
}

// filterByLocation restricts the pool to records within the configured
// radius when the incoming report has coordinates; otherwise the pool is
// every accepted record. The s2 covering is a coarse superset filter; the
// haversine distance is the deciding check.
func (d *Detector) filterByLocation(accepted []models.DecisionRecord, lat, lon *float64) []models.DecisionRecord {
	if lat == nil || lon == nil {
		return accepted
	}

	neighborhood := geo.NewNeighborhood(*lat, *lon, d.opts.LocationThresholdMeters)
	pool := make([]models.DecisionRecord, 0, len(accepted))
	for _, rec := range accepted {
		if !rec.HasLocation() {
			continue
		}
		if !neighborhood.Contains(*rec.Latitude, *rec.Longitude) {
			continue
		}
		if geo.DistanceMeters(*lat, *lon, *rec.Latitude, *rec.Longitude) <= d.opts.LocationThresholdMeters {
			pool = append(pool, rec)
		}
	}
	return pool
}

// imageMatches applies the image hard gate against a stored fingerprint.
// A record with no stored fingerprint cannot match.
func (d *Detector) imageMatches(fp fingerprint.Fingerprint, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	stored, err := fingerprint.Parse(storedHash)
	if err != nil {
		return false
	}
	if d.opts.ImageHashThreshold == 0 {
		return fp == stored
	}
	return fp.Distance(stored) <= d.opts.ImageHashThreshold
}

// IsDuplicate is the legacy single-signal check: an exact, normalized
// user + description + category match against an accepted record. Retained
// as independently callable; the default pipeline path does not use it.
func (d *Detector) IsDuplicate(ctx context.Context, userID, description, category string) bool {
	accepted, err := d.store.LoadAccepted(ctx)
	if err != nil {
		log.Errorf("Failed to load accepted records for duplicate check: %v", err)
		return false
	}

	userNorm := normalizeUser(userID)
	descNorm := normalizeText(description)
	categoryNorm := strings.ToLower(category)

	for i := range accepted {
		rec := &accepted[i]
		if normalizeUser(rec.UserID) == userNorm &&
			normalizeText(rec.Description) == descNorm &&
			strings.ToLower(rec.Category) == categoryNorm {
			return true
		}
	}
	return false
}

// IsDuplicateLocation is the legacy proximity check: any accepted record of
// the same category within thresholdMeters counts as a duplicate. Retained
// as independently callable; the default pipeline path does not use it.
func (d *Detector) IsDuplicateLocation(ctx context.Context, lat, lon float64, category string, thresholdMeters float64) bool {
	accepted, err := d.store.LoadAccepted(ctx)
	if err != nil {
		log.Errorf("Failed to load accepted records for duplicate check: %v", err)
		return false
	}

	categoryNorm := strings.ToLower(category)
	for i := range accepted {
		rec := &accepted[i]
		if strings.ToLower(rec.Category) != categoryNorm {
			continue
		}
		if !rec.HasLocation() {
			continue
		}
		if geo.DistanceMeters(lat, lon, *rec.Latitude, *rec.Longitude) <= thresholdMeters {
			return true
		}
	}
	return false
}

// normalizeText lower-cases and collapses runs of whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

func normalizeUser(userID string) string {
	if userID == "" {
		return models.AnonymousUserID
	}
	return strings.ToLower(userID)
}
