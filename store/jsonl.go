package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"report-triage-pipeline/models"

	"github.com/apex/log"
)

// JSONLStore is the default append-only line-delimited decision store. One
// JSON record per line; writers never interleave partial lines and every
// append is synced to disk before the call returns.
type JSONLStore struct {
	path string

	mu   sync.Mutex
	file *os.File
}

// NewJSONLStore opens (creating if needed) the dataset file at path.
func NewJSONLStore(path string) (*JSONLStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dataset directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file %s: %w", path, err)
	}

	log.Infof("Decision store at %s", path)
	return &JSONLStore{path: path, file: file}, nil
}

// SaveDecision appends the record as one JSON line. The mutex plus a single
// Write call keep the line atomic under concurrent submissions; Sync makes
// it durable before the pipeline reports success.
func (s *JSONLStore) SaveDecision(ctx context.Context, rec *models.DecisionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal decision record: %w", err)
	}
	line := append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("failed to append decision record: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync dataset file: %w", err)
	}
	return nil
}

// LoadAccepted scans the current file contents and returns accepted records
// in insertion order. Invalid lines are skipped, not fatal: a reader must
// survive a torn tail line from a crashed writer.
func (s *JSONLStore) LoadAccepted(ctx context.Context) ([]models.DecisionRecord, error) {
	records, err := s.loadAll()
	if err != nil {
		return nil, err
	}

	accepted := make([]models.DecisionRecord, 0, len(records))
	for _, rec := range records {
		if rec.IsAcceptedCandidate() {
			accepted = append(accepted, rec)
		}
	}
	return accepted, nil
}

// LoadRecent returns up to limit of the newest records, newest first.
func (s *JSONLStore) LoadRecent(ctx context.Context, limit int) ([]models.DecisionRecord, error) {
	records, err := s.loadAll()
	if err != nil {
		return nil, err
	}

	if limit > len(records) {
		limit = len(records)
	}
	recent := make([]models.DecisionRecord, 0, limit)
	for i := len(records) - 1; i >= 0 && len(recent) < limit; i-- {
		recent = append(recent, records[i])
	}
	return recent, nil
}

// Stats summarizes every decided submission in the store.
func (s *JSONLStore) Stats(ctx context.Context) (*models.DecisionStats, error) {
	records, err := s.loadAll()
	if err != nil {
		return nil, err
	}

	stats := &models.DecisionStats{ByCategory: make(map[string]int)}
	for _, rec := range records {
		stats.TotalDecisions++
		if rec.Status == models.StatusAccepted {
			stats.Accepted++
		} else {
			stats.Rejected++
		}
		if rec.Category != "" {
			stats.ByCategory[rec.Category]++
		}
	}
	return stats, nil
}

// Close closes the append handle.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

func (s *JSONLStore) loadAll() ([]models.DecisionRecord, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open dataset file %s: %w", s.path, err)
	}
	defer file.Close()

	var records []models.DecisionRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec models.DecisionRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			log.Warnf("Skipping invalid dataset line: %v", err)
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}
	return records, nil
}
