// Package store persists generation and answer results in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Modes recorded for a result.
const (
	ModeGenerate = "generate"
	ModeAnswer   = "answer"
)

// ErrNotFound is returned when a result ID does not exist.
var ErrNotFound = errors.New("result not found")

// Record is one persisted engine run.
type Record struct {
	ID           string    `json:"id"`
	Mode         string    `json:"mode"`
	Topic        string    `json:"topic,omitempty"`
	Question     string    `json:"question,omitempty"`
	TemplateID   string    `json:"template_id,omitempty"`
	Success      bool      `json:"success"`
	Attempts     int       `json:"attempts"`
	Source       string    `json:"source,omitempty"`
	SceneName    string    `json:"scene_name,omitempty"`
	ArtifactPath string    `json:"artifact_path,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListFilter narrows List results. Zero values mean no filtering.
type ListFilter struct {
	Mode    string
	Success *bool
	Limit   int
}

// Store wraps the SQLite results database.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// New opens (or creates) the results database at path.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		topic TEXT,
		question TEXT,
		template_id TEXT,
		success INTEGER NOT NULL,
		attempts INTEGER NOT NULL,
		source TEXT,
		scene_name TEXT,
		artifact_path TEXT,
		error_message TEXT,
		duration_ms INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);`)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts a record. The record's CreatedAt is set if zero.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	if rec.Mode != ModeGenerate && rec.Mode != ModeAnswer {
		return fmt.Errorf("invalid mode %q", rec.Mode)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT INTO results
		(id, mode, topic, question, template_id, success, attempts, source, scene_name, artifact_path, error_message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Mode,
		rec.Topic,
		rec.Question,
		rec.TemplateID,
		boolToInt(rec.Success),
		rec.Attempts,
		rec.Source,
		rec.SceneName,
		rec.ArtifactPath,
		rec.ErrorMessage,
		rec.DurationMS,
		rec.CreatedAt.Format(time.RFC3339),
	)
	return err
}

const recordColumns = "id, mode, topic, question, template_id, success, attempts, source, scene_name, artifact_path, error_message, duration_ms, created_at"

// Get returns one record by ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM results WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]*Record, error) {
	var builder strings.Builder
	builder.WriteString("SELECT " + recordColumns + " FROM results")

	var clauses []string
	var args []any
	if filter.Mode != "" {
		clauses = append(clauses, "mode = ?")
		args = append(args, filter.Mode)
	}
	if filter.Success != nil {
		clauses = append(clauses, "success = ?")
		args = append(args, boolToInt(*filter.Success))
	}
	if len(clauses) > 0 {
		builder.WriteString(" WHERE " + strings.Join(clauses, " AND "))
	}
	builder.WriteString(" ORDER BY datetime(created_at) DESC, id")
	if filter.Limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes a record by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, "DELETE FROM results WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*Record, error) {
	var rec Record
	var success int
	var createdAt string
	err := row.Scan(
		&rec.ID,
		&rec.Mode,
		&rec.Topic,
		&rec.Question,
		&rec.TemplateID,
		&success,
		&rec.Attempts,
		&rec.Source,
		&rec.SceneName,
		&rec.ArtifactPath,
		&rec.ErrorMessage,
		&rec.DurationMS,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Success = success == 1
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		rec.CreatedAt = t
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
