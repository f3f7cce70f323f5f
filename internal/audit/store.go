package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clauselens/clauselens/internal/db"
	"github.com/clauselens/clauselens/internal/extract"
)

// Store persists decision log entries.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Record inserts an entry, assigning its ID and timestamp.
func (s *Store) Record(ctx context.Context, entry Entry) (Entry, error) {
	entry.ID = uuid.New().String()
	entry.Timestamp = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (id, timestamp, query, uploaded_file, answer, decision, amount, justification, clause_mapping, status, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp.Format(time.RFC3339),
		entry.Query,
		entry.UploadedFile,
		entry.Answer,
		entry.Decision,
		entry.Amount,
		entry.Justification,
		clauseMappingJSON(entry.ClauseMapping),
		string(entry.Status),
		entry.Error,
		entry.DurationMS,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("inserting decision entry: %w", err)
	}
	return entry, nil
}

// QueryFilter narrows decision log queries.
type QueryFilter struct {
	Status Status
	Since  *time.Time
	Limit  int
	Offset int
}

// Query returns entries matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	query := `SELECT id, timestamp, query, uploaded_file, answer, decision, amount, justification, clause_mapping, status, error, duration_ms FROM decisions WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if filter.Since != nil {
		query += " AND timestamp >= ?"
		args = append(args, filter.Since.UTC().Format(time.RFC3339))
	}

	query += " ORDER BY timestamp DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ?"
	args = append(args, limit)

	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying decisions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetByID returns a single entry.
func (s *Store) GetByID(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, query, uploaded_file, answer, decision, amount, justification, clause_mapping, status, error, duration_ms
		FROM decisions WHERE id = ?`, id)
	return scanEntry(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		entry      Entry
		ts         string
		amount     sql.NullFloat64
		clausesRaw string
		status     string
	)

	err := row.Scan(
		&entry.ID,
		&ts,
		&entry.Query,
		&entry.UploadedFile,
		&entry.Answer,
		&entry.Decision,
		&amount,
		&entry.Justification,
		&clausesRaw,
		&status,
		&entry.Error,
		&entry.DurationMS,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("scanning decision entry: %w", err)
	}

	entry.Timestamp, _ = time.Parse(time.RFC3339, ts)
	entry.Status = Status(status)
	if amount.Valid {
		entry.Amount = &amount.Float64
	}

	var mappings []extract.ClauseMapping
	if err := json.Unmarshal([]byte(clausesRaw), &mappings); err == nil {
		entry.ClauseMapping = mappings
	}

	return entry, nil
}
