package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	seq                 INTEGER PRIMARY KEY AUTOINCREMENT,
	id                  TEXT NOT NULL UNIQUE,
	month               TEXT NOT NULL DEFAULT '',
	season              TEXT NOT NULL DEFAULT '',
	budget              TEXT NOT NULL DEFAULT '',
	activity_preference TEXT NOT NULL DEFAULT '',
	temperature         REAL,
	weather             TEXT NOT NULL DEFAULT '',
	group_size          INTEGER,
	suggested_place     TEXT NOT NULL DEFAULT '',
	created_at          TIMESTAMP NOT NULL
)`

// SQLiteStore keeps records in a single sqlite table
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create records table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Add appends a record
func (s *SQLiteStore) Add(ctx context.Context, r *models.ContextRecord) error {
	prepare(r)

	var temperature, groupSize interface{}
	if r.Temperature != nil {
		temperature = *r.Temperature
	}
	if r.GroupSize != nil {
		groupSize = *r.GroupSize
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (id, month, season, budget, activity_preference, temperature, weather, group_size, suggested_place, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Month, r.Season, r.Budget, r.ActivityPreference, temperature, r.Weather, groupSize, r.SuggestedPlace, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// List returns all records in insertion order
func (s *SQLiteStore) List(ctx context.Context) ([]models.ContextRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, month, season, budget, activity_preference, temperature, weather, group_size, suggested_place, created_at
		 FROM records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []models.ContextRecord{}
	for rows.Next() {
		var (
			r           models.ContextRecord
			temperature sql.NullFloat64
			groupSize   sql.NullInt64
			createdAt   time.Time
		)
		if err := rows.Scan(&r.ID, &r.Month, &r.Season, &r.Budget, &r.ActivityPreference,
			&temperature, &r.Weather, &groupSize, &r.SuggestedPlace, &createdAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if temperature.Valid {
			r.Temperature = models.Float64(temperature.Float64)
		}
		if groupSize.Valid {
			r.GroupSize = models.Int(int(groupSize.Int64))
		}
		r.CreatedAt = createdAt.UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

// Ping checks the database connection
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
