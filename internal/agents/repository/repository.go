// Package repository provides Postgres persistence for agent runs. The
// partial unique index on running rows is the transactional in-flight marker
// that prevents overlapping executions per (tenant, category).
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

type Run struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Category   string
	Status     string
	Error      *string
	StartedAt  time.Time
	FinishedAt *time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// StartRun inserts a running row for (tenant, category). Returns false when a
// run is already in flight; the index absorbs concurrent schedulers.
func (r *Repository) StartRun(ctx context.Context, tenantID uuid.UUID, category string) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO agent_runs (tenant_id, category)
		VALUES ($1, $2)
		ON CONFLICT (tenant_id, category) WHERE status = 'running'
		DO NOTHING
		RETURNING id
	`, tenantID, category).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.UUID{}, false, nil
	}
	if err != nil {
		return uuid.UUID{}, false, err
	}
	return id, true, nil
}

// FinishRun closes a running row with its outcome.
func (r *Repository) FinishRun(ctx context.Context, runID uuid.UUID, status string, runErr error) error {
	var errMsg *string
	if runErr != nil {
		msg := runErr.Error()
		errMsg = &msg
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE agent_runs SET status = $2, error = $3, finished_at = now()
		WHERE id = $1
	`, runID, status, errMsg)
	return err
}

// LastSuccess returns when the category last succeeded for a tenant. The
// scheduler measures due-ness from successful completions only, so a failing
// task retries on the next tick instead of waiting a full interval.
func (r *Repository) LastSuccess(ctx context.Context, tenantID uuid.UUID, category string) (time.Time, bool, error) {
	var finished *time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT MAX(finished_at) FROM agent_runs
		WHERE tenant_id = $1 AND category = $2 AND status = 'succeeded'
	`, tenantID, category).Scan(&finished)
	if err != nil {
		return time.Time{}, false, err
	}
	if finished == nil {
		return time.Time{}, false, nil
	}
	return *finished, true, nil
}

// ReapStuckRuns fails running rows older than the cutoff. A crashed worker
// must not block its (tenant, category) slot forever.
func (r *Repository) ReapStuckRuns(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE agent_runs
		SET status = 'failed', error = 'reaped: run exceeded deadline', finished_at = now()
		WHERE status = 'running' AND started_at < now() - make_interval(secs => $1)
	`, olderThan.Seconds())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RecentRuns lists the latest runs for a tenant, newest first.
func (r *Repository) RecentRuns(ctx context.Context, tenantID uuid.UUID, limit int) ([]Run, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, category, status, error, started_at, finished_at
		FROM agent_runs
		WHERE tenant_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.TenantID, &run.Category, &run.Status, &run.Error, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
