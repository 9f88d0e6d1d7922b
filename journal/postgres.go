package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores the latest entry per run in the onboarding_runs table.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres creates a journal backed by the given pool.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// EnsureTable creates the onboarding_runs table if it does not exist.
func (p *Postgres) EnsureTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS onboarding_runs (
			run_id      TEXT PRIMARY KEY,
			step        TEXT NOT NULL,
			status      TEXT NOT NULL,
			partial     JSONB NOT NULL,
			error       TEXT,
			status_code INTEGER,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := p.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create onboarding_runs table: %w", err)
	}
	return nil
}

func (p *Postgres) Record(ctx context.Context, e Entry) error {
	partial, err := json.Marshal(e.Partial)
	if err != nil {
		return fmt.Errorf("failed to marshal partial result: %w", err)
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO onboarding_runs (run_id, step, status, partial, error, status_code, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, NULLIF($5, ''), NULLIF($6, 0), $7)
		ON CONFLICT (run_id)
		DO UPDATE SET
			step = EXCLUDED.step,
			status = EXCLUDED.status,
			partial = EXCLUDED.partial,
			error = EXCLUDED.error,
			status_code = EXCLUDED.status_code,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := p.db.Exec(ctx, query, e.RunID, e.Step, string(e.Status), string(partial), e.Error, e.StatusCode, e.UpdatedAt); err != nil {
		return fmt.Errorf("failed to record onboarding run %s: %w", e.RunID, err)
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, runID string) (Entry, error) {
	query := `
		SELECT run_id, step, status, partial, COALESCE(error, ''), COALESCE(status_code, 0), updated_at
		FROM onboarding_runs
		WHERE run_id = $1
	`
	var (
		row     rowEntry
		partial []byte
	)
	err := p.db.QueryRow(ctx, query, runID).Scan(&row.runID, &row.step, &row.status, &partial, &row.errMsg, &row.statusCode, &row.updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("failed to load onboarding run %s: %w", runID, err)
	}
	row.partial = partial
	return row.entry()
}

type rowEntry struct {
	runID      string
	step       string
	status     string
	partial    []byte
	errMsg     string
	statusCode int
	updatedAt  time.Time
}

func (r rowEntry) entry() (Entry, error) {
	e := Entry{
		RunID:      r.runID,
		Step:       r.step,
		Status:     Status(r.status),
		Error:      r.errMsg,
		StatusCode: r.statusCode,
		UpdatedAt:  r.updatedAt,
	}
	if len(r.partial) > 0 {
		if err := json.Unmarshal(r.partial, &e.Partial); err != nil {
			return Entry{}, fmt.Errorf("failed to decode partial result for run %s: %w", r.runID, err)
		}
	}
	return e, nil
}
