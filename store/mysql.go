package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"report-triage-pipeline/config"
	"report-triage-pipeline/models"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is the optional database-backed decision store, selected with
// STORE_BACKEND=mysql. Same append-only contract as the JSONL store: rows
// are inserted once and never updated.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore connects to MySQL and ensures the decisions table exists.
func NewMySQLStore(cfg *config.Config) (*MySQLStore, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &MySQLStore{db: db}
	if err := s.ensureDecisionsTable(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	log.Infof("Decision store connected to %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)
	return s, nil
}

func (s *MySQLStore) ensureDecisionsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS decisions (
			seq INT NOT NULL AUTO_INCREMENT,
			ts TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			report_id VARCHAR(255) NOT NULL,
			description TEXT NOT NULL,
			user_id VARCHAR(255),
			latitude DOUBLE,
			longitude DOUBLE,
			accept BOOLEAN NOT NULL,
			status VARCHAR(16) NOT NULL,
			category VARCHAR(64),
			urgency VARCHAR(16),
			priority VARCHAR(16),
			reason VARCHAR(255) NOT NULL,
			image_hash CHAR(16),
			image_label VARCHAR(255),
			PRIMARY KEY (seq),
			INDEX report_id_index (report_id),
			INDEX status_index (status),
			INDEX category_index (category)
		)
	`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create decisions table: %w", err)
	}
	return nil
}

// SaveDecision inserts one decided submission.
func (s *MySQLStore) SaveDecision(ctx context.Context, rec *models.DecisionRecord) error {
	query := `
		INSERT INTO decisions
			(report_id, description, user_id, latitude, longitude,
			 accept, status, category, urgency, priority, reason,
			 image_hash, image_label)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var lat, lon any
	if rec.HasLocation() {
		lat, lon = *rec.Latitude, *rec.Longitude
	}

	_, err := s.db.ExecContext(ctx, query,
		rec.ReportID, rec.Description, rec.UserID, lat, lon,
		rec.Accept, rec.Status, rec.Category, rec.Urgency, rec.Priority,
		rec.Reason, nullIfEmpty(rec.ImageHash), nullIfEmpty(rec.ImageLabel))
	if err != nil {
		return fmt.Errorf("failed to insert decision record: %w", err)
	}
	return nil
}

// LoadAccepted returns all accepted records in insertion order.
func (s *MySQLStore) LoadAccepted(ctx context.Context) ([]models.DecisionRecord, error) {
	query := `
		SELECT ts, report_id, description, user_id, latitude, longitude,
		       accept, status, category, urgency, priority, reason,
		       image_hash, image_label
		FROM decisions
		WHERE accept = TRUE AND status = ?
		ORDER BY seq
	`

	rows, err := s.db.QueryContext(ctx, query, models.StatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to query accepted records: %w", err)
	}
	defer rows.Close()

	return scanDecisionRows(rows)
}

// LoadRecent returns up to limit of the newest records, newest first.
func (s *MySQLStore) LoadRecent(ctx context.Context, limit int) ([]models.DecisionRecord, error) {
	query := `
		SELECT ts, report_id, description, user_id, latitude, longitude,
		       accept, status, category, urgency, priority, reason,
		       image_hash, image_label
		FROM decisions
		ORDER BY seq DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent records: %w", err)
	}
	defer rows.Close()

	return scanDecisionRows(rows)
}

func scanDecisionRows(rows *sql.Rows) ([]models.DecisionRecord, error) {
	var records []models.DecisionRecord
	for rows.Next() {
		var (
			rec        models.DecisionRecord
			ts         time.Time
			userID     sql.NullString
			lat, lon   sql.NullFloat64
			category   sql.NullString
			urgency    sql.NullString
			priority   sql.NullString
			imageHash  sql.NullString
			imageLabel sql.NullString
		)
		if err := rows.Scan(&ts, &rec.ReportID, &rec.Description, &userID,
			&lat, &lon, &rec.Accept, &rec.Status, &category, &urgency,
			&priority, &rec.Reason, &imageHash, &imageLabel); err != nil {
			return nil, fmt.Errorf("failed to scan decision record: %w", err)
		}
		rec.Timestamp = ts.UTC().Format(time.RFC3339)
		rec.UserID = userID.String
		if lat.Valid && lon.Valid {
			latV, lonV := lat.Float64, lon.Float64
			rec.Latitude, rec.Longitude = &latV, &lonV
		}
		rec.Category = category.String
		rec.Urgency = urgency.String
		rec.Priority = priority.String
		rec.ImageHash = imageHash.String
		rec.ImageLabel = imageLabel.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate decision records: %w", err)
	}
	return records, nil
}

// Stats summarizes every decided submission.
func (s *MySQLStore) Stats(ctx context.Context) (*models.DecisionStats, error) {
	stats := &models.DecisionStats{ByCategory: make(map[string]int)}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(status = ?), 0),
		       COALESCE(SUM(status <> ?), 0)
		FROM decisions
	`, models.StatusAccepted, models.StatusAccepted).
		Scan(&stats.TotalDecisions, &stats.Accepted, &stats.Rejected)
	if err != nil {
		return nil, fmt.Errorf("failed to query decision totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*)
		FROM decisions
		WHERE category IS NOT NULL AND category <> ''
		GROUP BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query category counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		stats.ByCategory[category] = count
	}
	return stats, rows.Err()
}

// Close closes the database connection.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
