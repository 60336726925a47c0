package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/ripview/internal/db"
	"github.com/ziadkadry99/ripview/internal/extract"
)

// ErrNotFound is returned by GetByID for an unknown run.
var ErrNotFound = errors.New("benchmark run not found")

// Store provides persistence for benchmark runs.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Record inserts a run and its timings. If run.ID is empty a UUID is
// generated. The stored ID is returned.
func (s *Store) Record(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.RecordedAt.IsZero() {
		run.RecordedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO benchmark_runs (id, recorded_at, document, document_id, page, reference)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.RecordedAt.UTC().Format(time.DateTime),
		run.Document,
		run.DocumentID,
		run.Page,
		run.Reference,
	)
	if err != nil {
		return "", fmt.Errorf("inserting benchmark run: %w", err)
	}

	for lib, ops := range run.Timings {
		for op, ms := range ops {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO benchmark_timings (run_id, library, operation, ms) VALUES (?, ?, ?, ?)",
				run.ID, lib, op, ms,
			)
			if err != nil {
				return "", fmt.Errorf("inserting timing %s/%s: %w", lib, op, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing benchmark run: %w", err)
	}
	return run.ID, nil
}

// GetByID retrieves a single run with its timings.
func (s *Store) GetByID(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, recorded_at, document, document_id, page, reference
		FROM benchmark_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadTimings(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// QueryFilter controls which runs are returned by Query.
type QueryFilter struct {
	Document string
	Page     int
	Since    *time.Time
	Limit    int
	Offset   int
}

// Query returns runs matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Run, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.Document != "" {
		clauses = append(clauses, "document = ?")
		args = append(args, filter.Document)
	}
	if filter.Page > 0 {
		clauses = append(clauses, "page = ?")
		args = append(args, filter.Page)
	}
	if filter.Since != nil {
		clauses = append(clauses, "recorded_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}

	query := "SELECT id, recorded_at, document, document_id, page, reference FROM benchmark_runs"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY recorded_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying benchmark runs: %w", err)
	}
	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, *r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		if err := s.loadTimings(ctx, &runs[i]); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// DeleteBefore removes all runs older than the given time.
// Returns the number of deleted runs.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM benchmark_runs WHERE recorded_at < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old benchmark runs: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) loadTimings(ctx context.Context, run *Run) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT library, operation, ms FROM benchmark_timings WHERE run_id = ?", run.ID)
	if err != nil {
		return fmt.Errorf("querying timings for %s: %w", run.ID, err)
	}
	defer rows.Close()

	run.Timings = make(extract.BenchmarkResult)
	for rows.Next() {
		var (
			lib, op string
			ms      float64
		)
		if err := rows.Scan(&lib, &op, &ms); err != nil {
			return err
		}
		if run.Timings[lib] == nil {
			run.Timings[lib] = make(map[string]float64)
		}
		run.Timings[lib][op] = ms
	}
	return rows.Err()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		r  Run
		ts string
	)
	if err := sc.Scan(&r.ID, &ts, &r.Document, &r.DocumentID, &r.Page, &r.Reference); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if t, err := time.Parse(time.DateTime, ts); err == nil {
		r.RecordedAt = t
	} else if t, err := time.Parse(time.RFC3339, ts); err == nil {
		r.RecordedAt = t
	}
	return &r, nil
}
