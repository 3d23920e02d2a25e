// Package repository provides Postgres persistence for market opportunities
// discovered by the scanner agent.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Opportunity struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Title       string
	Description string
	Category    string
	Region      string
	Score       float64
	CreatedAt   time.Time
}

// NewOpportunity carries the fields for opportunity creation.
type NewOpportunity struct {
	TenantID    uuid.UUID
	Title       string
	Description string
	Category    string
	Region      string
	Score       float64
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, opp NewOpportunity) (Opportunity, error) {
	var created Opportunity
	err := r.pool.QueryRow(ctx, `
		INSERT INTO market_opportunities (tenant_id, title, description, category, region, score)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, tenant_id, title, description, category, region, score, created_at
	`, opp.TenantID, opp.Title, opp.Description, opp.Category, opp.Region, opp.Score).Scan(
		&created.ID, &created.TenantID, &created.Title, &created.Description,
		&created.Category, &created.Region, &created.Score, &created.CreatedAt,
	)
	return created, err
}

func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, limit int) ([]Opportunity, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, title, description, category, region, score, created_at
		FROM market_opportunities
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var opportunities []Opportunity
	for rows.Next() {
		var opp Opportunity
		if err := rows.Scan(
			&opp.ID, &opp.TenantID, &opp.Title, &opp.Description,
			&opp.Category, &opp.Region, &opp.Score, &opp.CreatedAt,
		); err != nil {
			return nil, err
		}
		opportunities = append(opportunities, opp)
	}
	return opportunities, rows.Err()
}
