// Package archive keeps the reports of finished conversions in Postgres.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dgallion1/hlzconv/internal/pipeline"
	"github.com/dgallion1/hlzconv/internal/report"
)

// ErrNotFound is returned when no conversion has the requested ID.
var ErrNotFound = errors.New("conversion not found")

// Store is a pgx-backed report archive.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database and checks the connection.
func Open(ctx context.Context, connStr string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Initialize creates the conversions table.
func (s *Store) Initialize(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS conversions (
			job_id       TEXT PRIMARY KEY,
			filename     TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			paragraphs   INTEGER NOT NULL,
			errors       INTEGER NOT NULL,
			warnings     INTEGER NOT NULL,
			counting     JSONB NOT NULL,
			inspections  JSONB NOT NULL,
			diff_stats   JSONB NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create conversions table: %w", err)
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS conversions_hash_idx ON conversions (content_hash)`)
	if err != nil {
		return fmt.Errorf("create hash index: %w", err)
	}
	return nil
}

// Summary is one archived conversion.
type Summary struct {
	JobID       string                 `json:"job_id"`
	Filename    string                 `json:"filename"`
	ContentHash string                 `json:"content_hash"`
	Paragraphs  int                    `json:"paragraphs"`
	Errors      int                    `json:"errors"`
	Warnings    int                    `json:"warnings"`
	Counting    []report.CountInfo     `json:"counting,omitempty"`
	Inspections []report.InspectionMsg `json:"inspections,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

type row struct {
	paragraphs, errors, warnings     int
	counting, inspections, diffStats []byte
}

func encode(r *report.Reports) (row, error) {
	var out row
	for _, c := range r.Counting {
		if c.Kind == report.CountParagraph {
			out.paragraphs = c.Count
		}
	}
	for _, m := range r.Inspections {
		switch m.Kind {
		case report.KindError:
			out.errors++
		case report.KindWarning:
			out.warnings++
		}
	}
	var err error
	if out.counting, err = json.Marshal(r.Counting); err != nil {
		return out, fmt.Errorf("marshal counting: %w", err)
	}
	if out.inspections, err = json.Marshal(r.Inspections); err != nil {
		return out, fmt.Errorf("marshal inspections: %w", err)
	}
	if out.diffStats, err = json.Marshal(r.DiffStats); err != nil {
		return out, fmt.Errorf("marshal diff stats: %w", err)
	}
	return out, nil
}

// Save archives one finished job, replacing an earlier row for the same ID.
func (s *Store) Save(ctx context.Context, rec pipeline.ArchiveRecord) error {
	if rec.Result == nil || rec.Result.Reports == nil {
		return fmt.Errorf("archive %s: no reports", rec.JobID)
	}
	r, err := encode(rec.Result.Reports)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO conversions (job_id, filename, content_hash, paragraphs, errors, warnings, counting, inspections, diff_stats)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (job_id) DO UPDATE SET
			filename = EXCLUDED.filename,
			content_hash = EXCLUDED.content_hash,
			paragraphs = EXCLUDED.paragraphs,
			errors = EXCLUDED.errors,
			warnings = EXCLUDED.warnings,
			counting = EXCLUDED.counting,
			inspections = EXCLUDED.inspections,
			diff_stats = EXCLUDED.diff_stats
	`, rec.JobID, rec.Filename, rec.ContentHash, r.paragraphs, r.errors, r.warnings, r.counting, r.inspections, r.diffStats)
	if err != nil {
		return fmt.Errorf("insert conversion %s: %w", rec.JobID, err)
	}
	return nil
}

// List returns the most recent conversions, newest first. A non-empty
// contentHash restricts the result to conversions of the same input.
func (s *Store) List(ctx context.Context, contentHash string, limit int) ([]Summary, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT job_id, filename, content_hash, paragraphs, errors, warnings, created_at
		FROM conversions
		WHERE $1 = '' OR content_hash = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, contentHash, limit)
	if err != nil {
		return nil, fmt.Errorf("query conversions: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.JobID, &sm.Filename, &sm.ContentHash, &sm.Paragraphs, &sm.Errors, &sm.Warnings, &sm.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversion: %w", err)
		}
		out = append(out, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversions: %w", err)
	}
	return out, nil
}

// Get returns one conversion with its counting and inspection reports.
func (s *Store) Get(ctx context.Context, jobID string) (*Summary, error) {
	var sm Summary
	var counting, inspections []byte
	err := s.pool.QueryRow(ctx, `
		SELECT job_id, filename, content_hash, paragraphs, errors, warnings, counting, inspections, created_at
		FROM conversions WHERE job_id = $1
	`, jobID).Scan(&sm.JobID, &sm.Filename, &sm.ContentHash, &sm.Paragraphs, &sm.Errors, &sm.Warnings, &counting, &inspections, &sm.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query conversion %s: %w", jobID, err)
	}
	if err := json.Unmarshal(counting, &sm.Counting); err != nil {
		return nil, fmt.Errorf("decode counting: %w", err)
	}
	if err := json.Unmarshal(inspections, &sm.Inspections); err != nil {
		return nil, fmt.Errorf("decode inspections: %w", err)
	}
	return &sm, nil
}
