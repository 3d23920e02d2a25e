// Package repository provides Postgres persistence for leads.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

const (
	SourceVoice     = "voice"
	SourceSMS       = "sms"
	SourceYelp      = "yelp"
	SourceThumbtack = "thumbtack"
	SourceManual    = "manual"

	StatusNew               = "new"
	StatusContacted         = "contacted"
	StatusEstimateScheduled = "estimate_scheduled"
	StatusEscalated         = "escalated"
	StatusBooked            = "booked"
	StatusClosed            = "closed"
)

type Lead struct {
	ID                  uuid.UUID
	TenantID            uuid.UUID
	ConversationID      *uuid.UUID
	Source              string
	CustomerName        string
	CustomerPhone       string
	CustomerEmail       *string
	JobCategory         string
	Address             string
	Urgency             string
	PreferredDate       *time.Time
	Notes               string
	Status              string
	EscalationReason    *string
	EstimatedValueCents *int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewLead carries the fields for lead creation.
type NewLead struct {
	TenantID            uuid.UUID
	ConversationID      *uuid.UUID
	Source              string
	CustomerName        string
	CustomerPhone       string
	CustomerEmail       *string
	JobCategory         string
	Address             string
	Urgency             string
	PreferredDate       *time.Time
	Notes               string
	Status              string
	EscalationReason    *string
	EstimatedValueCents *int64
}

type ListFilter struct {
	Status string
	Source string
	Limit  int
	Offset int
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, tenant_id, conversation_id, source, customer_name, customer_phone,
	customer_email, job_category, address, urgency, preferred_date, notes,
	status, escalation_reason, estimated_value_cents, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.TenantID, &l.ConversationID, &l.Source, &l.CustomerName, &l.CustomerPhone,
		&l.CustomerEmail, &l.JobCategory, &l.Address, &l.Urgency, &l.PreferredDate, &l.Notes,
		&l.Status, &l.EscalationReason, &l.EstimatedValueCents, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return l, err
}

// Create inserts a lead unconditionally. Used for manual and ingested leads.
func (r *Repository) Create(ctx context.Context, lead NewLead) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (tenant_id, conversation_id, source, customer_name, customer_phone,
			customer_email, job_category, address, urgency, preferred_date, notes,
			status, escalation_reason, estimated_value_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+leadColumns,
		lead.TenantID, lead.ConversationID, lead.Source, lead.CustomerName, lead.CustomerPhone,
		lead.CustomerEmail, lead.JobCategory, lead.Address, lead.Urgency, lead.PreferredDate,
		lead.Notes, lead.Status, lead.EscalationReason, lead.EstimatedValueCents)
	return scanLead(row)
}

// CreateFromConversation inserts at most one lead per conversation. The
// partial unique index absorbs the race; when a lead already exists the
// existing row is returned and created is false.
func (r *Repository) CreateFromConversation(ctx context.Context, lead NewLead) (Lead, bool, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (tenant_id, conversation_id, source, customer_name, customer_phone,
			customer_email, job_category, address, urgency, preferred_date, notes,
			status, escalation_reason, estimated_value_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (tenant_id, conversation_id) WHERE conversation_id IS NOT NULL
		DO NOTHING
		RETURNING `+leadColumns,
		lead.TenantID, lead.ConversationID, lead.Source, lead.CustomerName, lead.CustomerPhone,
		lead.CustomerEmail, lead.JobCategory, lead.Address, lead.Urgency, lead.PreferredDate,
		lead.Notes, lead.Status, lead.EscalationReason, lead.EstimatedValueCents)

	created, err := scanLead(row)
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Lead{}, false, err
	}

	existing, err := r.GetByConversation(ctx, lead.TenantID, *lead.ConversationID)
	return existing, false, err
}

func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE tenant_id = $1 AND id = $2
	`, tenantID, id)
	return scanLead(row)
}

func (r *Repository) GetByConversation(ctx context.Context, tenantID, conversationID uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE tenant_id = $1 AND conversation_id = $2
	`, tenantID, conversationID)
	return scanLead(row)
}

func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]Lead, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE tenant_id = $1
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR source = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5
	`, tenantID, filter.Status, filter.Source, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// UpdateStatus transitions a lead's status.
func (r *Repository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET status = $3, updated_at = now()
		WHERE tenant_id = $1 AND id = $2
		RETURNING `+leadColumns,
		tenantID, id, status)
	return scanLead(row)
}

// ListByStatus returns leads in a given status across one tenant, oldest
// first. Background nurture agents work through this queue.
func (r *Repository) ListByStatus(ctx context.Context, tenantID uuid.UUID, status string, limit int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE tenant_id = $1 AND status = $2
		ORDER BY created_at
		LIMIT $3
	`, tenantID, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}
