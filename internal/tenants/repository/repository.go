// Package repository provides Postgres persistence for tenants and their
// inbound phone number mappings.
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

var ErrNotFound = errors.New("tenant not found")

// AIConfig holds the per-tenant dispatcher behavior knobs.
type AIConfig struct {
	Greeting             string   `json:"greeting"`
	Tone                 string   `json:"tone"`
	Services             []string `json:"services"`
	PricingDeflection    string   `json:"pricingDeflection"`
	EscalationMessage    string   `json:"escalationMessage"`
	EscalationKeywords   []string `json:"escalationKeywords"`
	BudgetThresholdCents int64    `json:"budgetThresholdCents"`
}

// SubscriptionInfo is a read-only snapshot joined in at resolve time so the
// dispatcher path needs a single query per inbound message.
type SubscriptionInfo struct {
	Plan   plan.Plan
	Status plan.Status
}

// Found reports whether a subscription row exists for the tenant.
func (s SubscriptionInfo) Found() bool {
	return s.Plan != ""
}

type Tenant struct {
	ID           uuid.UUID
	Name         string
	Industry     string
	ServiceArea  string
	NotifyEmail  string
	AI           AIConfig
	Subscription SubscriptionInfo
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const tenantColumns = `
	t.id, t.name, t.industry, t.service_area, t.notify_email,
	t.greeting, t.tone, t.services, t.pricing_deflection,
	t.escalation_message, t.escalation_keywords, t.budget_threshold_cents,
	COALESCE(s.plan, ''), COALESCE(s.status, ''),
	t.created_at, t.updated_at`

func scanTenant(row pgx.Row) (Tenant, error) {
	var t Tenant
	err := row.Scan(
		&t.ID, &t.Name, &t.Industry, &t.ServiceArea, &t.NotifyEmail,
		&t.AI.Greeting, &t.AI.Tone, &t.AI.Services, &t.AI.PricingDeflection,
		&t.AI.EscalationMessage, &t.AI.EscalationKeywords, &t.AI.BudgetThresholdCents,
		&t.Subscription.Plan, &t.Subscription.Status,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tenant{}, ErrNotFound
	}
	return t, err
}

// ResolveByPhoneNumber maps an inbound business number (E.164) to its tenant.
// This is the hot path for every webhook, so it is a single indexed lookup.
func (r *Repository) ResolveByPhoneNumber(ctx context.Context, number string) (Tenant, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+tenantColumns+`
		FROM tenant_phone_numbers pn
		JOIN tenants t ON t.id = pn.tenant_id
		LEFT JOIN subscriptions s ON s.tenant_id = t.id
		WHERE pn.phone_number = $1
	`, number)
	return scanTenant(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Tenant, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants t
		LEFT JOIN subscriptions s ON s.tenant_id = t.id
		WHERE t.id = $1
	`, id)
	return scanTenant(row)
}

// GetSingle returns the tenant only when exactly one exists. Used by the
// development fallback when a number has no mapping.
func (r *Repository) GetSingle(ctx context.Context) (Tenant, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tenants`).Scan(&count); err != nil {
		return Tenant{}, err
	}
	if count != 1 {
		return Tenant{}, ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+tenantColumns+`
		FROM tenants t
		LEFT JOIN subscriptions s ON s.tenant_id = t.id
		LIMIT 1
	`)
	return scanTenant(row)
}

// UpdateAIConfig persists the dispatcher settings for a tenant.
func (r *Repository) UpdateAIConfig(ctx context.Context, tenantID uuid.UUID, cfg AIConfig, notifyEmail string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tenants
		SET greeting = $2, tone = $3, services = $4, pricing_deflection = $5,
		    escalation_message = $6, escalation_keywords = $7,
		    budget_threshold_cents = $8, notify_email = $9, updated_at = now()
		WHERE id = $1
	`, tenantID, cfg.Greeting, cfg.Tone, cfg.Services, cfg.PricingDeflection,
		cfg.EscalationMessage, cfg.EscalationKeywords, cfg.BudgetThresholdCents, notifyEmail)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPhoneNumbers returns the numbers mapped to a tenant.
func (r *Repository) ListPhoneNumbers(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT phone_number FROM tenant_phone_numbers
		WHERE tenant_id = $1 ORDER BY created_at
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var numbers []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}

// ListIDs returns every tenant ID. Background agents iterate over this set.
func (r *Repository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
