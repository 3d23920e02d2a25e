package repository

import (
	"context"
	"errors"
	"time"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/plan"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("subscription not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Subscription struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	Plan            plan.Plan
	Status          plan.Status
	BillingInterval string
	LeadsUsed       int
	PeriodStart     time.Time
	PeriodEnd       time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r *Repository) GetByTenant(ctx context.Context, tenantID uuid.UUID) (Subscription, error) {
	var sub Subscription
	err := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, plan, status, billing_interval, leads_used, period_start, period_end, created_at, updated_at
		FROM subscriptions WHERE tenant_id = $1
	`, tenantID).Scan(
		&sub.ID, &sub.TenantID, &sub.Plan, &sub.Status, &sub.BillingInterval,
		&sub.LeadsUsed, &sub.PeriodStart, &sub.PeriodEnd, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Subscription{}, ErrNotFound
	}
	return sub, err
}

// IncrementLeadUsage atomically bumps the current-period lead counter.
// A single UPDATE keeps concurrent lead-creation paths from undercounting.
func (r *Repository) IncrementLeadUsage(ctx context.Context, tenantID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE subscriptions SET leads_used = leads_used + 1, updated_at = now()
		WHERE tenant_id = $1
	`, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RolloverPeriod resets usage and advances the billing window. Invoked by the
// external billing system at period boundaries.
func (r *Repository) RolloverPeriod(ctx context.Context, tenantID uuid.UUID, start, end time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE subscriptions
		SET leads_used = 0, period_start = $2, period_end = $3, updated_at = now()
		WHERE tenant_id = $1
	`, tenantID, start, end)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountResource returns the current count of a tenant-owned countable
// resource. Lead usage comes from the subscription counter, not this query.
func (r *Repository) CountResource(ctx context.Context, tenantID uuid.UUID, resource plan.Resource) (int, error) {
	var query string
	switch resource {
	case plan.ResourcePhoneNumbers:
		query = `SELECT COUNT(*) FROM tenant_phone_numbers WHERE tenant_id = $1`
	case plan.ResourceTeamMembers:
		query = `SELECT COUNT(*) FROM tenant_members WHERE tenant_id = $1`
	default:
		return 0, nil
	}

	var count int
	err := r.pool.QueryRow(ctx, query, tenantID).Scan(&count)
	return count, err
}
