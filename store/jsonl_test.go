package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"report-triage-pipeline/models"
)

func newTestStore(t *testing.T) *JSONLStore {
	t.Helper()
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "dataset.jsonl"))
	if err != nil {
		t.Fatalf("NewJSONLStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func acceptedRecord(id, category string) *models.DecisionRecord {
	return &models.DecisionRecord{
		ReportID:    id,
		Description: "garbage pile near the market",
		UserID:      "user-1",
		Accept:      true,
		Status:      models.StatusAccepted,
		Category:    category,
		Urgency:     models.UrgencyMedium,
		Priority:    models.PriorityMedium,
		Reason:      "Report accepted successfully",
	}
}

func rejectedRecord(id string) *models.DecisionRecord {
	return &models.DecisionRecord{
		ReportID:    id,
		Description: "nice weather today",
		Accept:      false,
		Status:      models.StatusRejected,
		Category:    models.CategoryOther,
		Reason:      "Unable to determine issue category from description",
	}
}

func TestSaveAndLoadAccepted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveDecision(ctx, acceptedRecord("r1", "Garbage & Sanitation")); err != nil {
		t.Fatalf("SaveDecision failed: %v", err)
	}
	if err := s.SaveDecision(ctx, rejectedRecord("r2")); err != nil {
		t.Fatalf("SaveDecision failed: %v", err)
	}
	if err := s.SaveDecision(ctx, acceptedRecord("r3", "Road & Traffic")); err != nil {
		t.Fatalf("SaveDecision failed: %v", err)
	}

	accepted, err := s.LoadAccepted(ctx)
	if err != nil {
		t.Fatalf("LoadAccepted failed: %v", err)
	}
	if len(accepted) != 2 {
		t.Fatalf("LoadAccepted returned %d records, want 2", len(accepted))
	}
	// Insertion order preserved.
	if accepted[0].ReportID != "r1" || accepted[1].ReportID != "r3" {
		t.Errorf("unexpected order: %s, %s", accepted[0].ReportID, accepted[1].ReportID)
	}
}

func TestRejectedRecordsAreNeverCandidates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// A record with accept=true but a non-accepted status must not leak
	// into the candidate pool either.
	inconsistent := acceptedRecord("r1", "Road & Traffic")
	inconsistent.Status = models.StatusRejected
	if err := s.SaveDecision(ctx, inconsistent); err != nil {
		t.Fatalf("SaveDecision failed: %v", err)
	}
	if err := s.SaveDecision(ctx, rejectedRecord("r2")); err != nil {
		t.Fatalf("SaveDecision failed: %v", err)
	}

	accepted, err := s.LoadAccepted(ctx)
	if err != nil {
		t.Fatalf("LoadAccepted failed: %v", err)
	}
	if len(accepted) != 0 {
		t.Errorf("LoadAccepted returned %d records, want 0", len(accepted))
	}
}

func TestLoadAcceptedEmptyStore(t *testing.T) {
	s := newTestStore(t)

	accepted, err := s.LoadAccepted(context.Background())
	if err != nil {
		t.Fatalf("LoadAccepted failed: %v", err)
	}
	if len(accepted) != 0 {
		t.Errorf("LoadAccepted on empty store returned %d records", len(accepted))
	}
}

func TestInvalidLinesAreSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.jsonl")
	s, err := NewJSONLStore(path)
	if err != nil {
		t.Fatalf("NewJSONLStore failed: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	if err := s.SaveDecision(ctx, acceptedRecord("r1", "Road & Traffic")); err != nil {
		t.Fatalf("SaveDecision failed: %v", err)
	}
	// Simulate a torn line from a crashed writer.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("failed to open dataset: %v", err)
	}
	if _, err := f.WriteString(`{"report_id": "torn`); err != nil {
		t.Fatalf("failed to write torn line: %v", err)
	}
	f.Close()

	accepted, err := s.LoadAccepted(ctx)
	if err != nil {
		t.Fatalf("LoadAccepted failed: %v", err)
	}
	if len(accepted) != 1 || accepted[0].ReportID != "r1" {
		t.Errorf("expected the single valid record, got %v", accepted)
	}
}

func TestLoadRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.SaveDecision(ctx, acceptedRecord(fmt.Sprintf("r%d", i), "Road & Traffic")); err != nil {
			t.Fatalf("SaveDecision failed: %v", err)
		}
	}

	recent, err := s.LoadRecent(ctx, 3)
	if err != nil {
		t.Fatalf("LoadRecent failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("LoadRecent returned %d records, want 3", len(recent))
	}
	if recent[0].ReportID != "r4" || recent[2].ReportID != "r2" {
		t.Errorf("expected newest first, got %s .. %s", recent[0].ReportID, recent[2].ReportID)
	}

	// Limit larger than the store returns everything.
	recent, err = s.LoadRecent(ctx, 50)
	if err != nil {
		t.Fatalf("LoadRecent failed: %v", err)
	}
	if len(recent) != 5 {
		t.Errorf("LoadRecent returned %d records, want 5", len(recent))
	}
}

func TestConcurrentAppendsAreLineAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				rec := acceptedRecord(fmt.Sprintf("w%d-r%d", w, i), "Road & Traffic")
				if err := s.SaveDecision(ctx, rec); err != nil {
					t.Errorf("SaveDecision failed: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	accepted, err := s.LoadAccepted(ctx)
	if err != nil {
		t.Fatalf("LoadAccepted failed: %v", err)
	}
	if len(accepted) != writers*perWriter {
		t.Errorf("LoadAccepted returned %d records, want %d (interleaved lines?)",
			len(accepted), writers*perWriter)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.SaveDecision(ctx, acceptedRecord(fmt.Sprintf("a%d", i), "Road & Traffic")); err != nil {
			t.Fatalf("SaveDecision failed: %v", err)
		}
	}
	if err := s.SaveDecision(ctx, rejectedRecord("r1")); err != nil {
		t.Fatalf("SaveDecision failed: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalDecisions != 4 || stats.Accepted != 3 || stats.Rejected != 1 {
		t.Errorf("Stats = %+v, want 4 total / 3 accepted / 1 rejected", stats)
	}
	if stats.ByCategory["Road & Traffic"] != 3 {
		t.Errorf("ByCategory[Road & Traffic] = %d, want 3", stats.ByCategory["Road & Traffic"])
	}
}
