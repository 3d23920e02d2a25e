// Package repository provides Postgres persistence for conversations and
// their message transcripts.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("conversation not found")

const (
	ChannelVoice = "voice"
	ChannelSMS   = "sms"

	StatusActive    = "active"
	StatusEscalated = "escalated"
	StatusClosed    = "closed"

	RoleCustomer  = "customer"
	RoleAssistant = "assistant"
)

type Conversation struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	CustomerAddress  string
	Channel          string
	Status           string
	EscalationReason *string
	Extracted        json.RawMessage
	LastActivityAt   time.Time
	CreatedAt        time.Time
}

type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Role           string
	Content        string
	CreatedAt      time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const conversationColumns = `id, tenant_id, customer_address, channel, status, escalation_reason, extracted, last_activity_at, created_at`

func scanConversation(row pgx.Row) (Conversation, error) {
	var c Conversation
	err := row.Scan(
		&c.ID, &c.TenantID, &c.CustomerAddress, &c.Channel, &c.Status,
		&c.EscalationReason, &c.Extracted, &c.LastActivityAt, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	return c, err
}

// GetOrCreateActive returns the active conversation for (tenant, customer,
// channel), creating one when none exists. A stale active conversation is
// closed first so a returning customer starts fresh. The partial unique index
// on active rows makes the INSERT ... ON CONFLICT DO NOTHING race-safe: two
// concurrent webhooks converge on the same row.
func (r *Repository) GetOrCreateActive(ctx context.Context, tenantID uuid.UUID, customerAddress, channel string, ttl time.Duration) (Conversation, bool, error) {
	if _, err := r.CloseIfStale(ctx, tenantID, customerAddress, channel, ttl); err != nil {
		return Conversation{}, false, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO conversations (tenant_id, customer_address, channel)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, customer_address, channel) WHERE status = 'active'
		DO NOTHING
		RETURNING `+conversationColumns,
		tenantID, customerAddress, channel)

	conv, err := scanConversation(row)
	if err == nil {
		return conv, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Conversation{}, false, err
	}

	// Lost the insert race or an active row already existed.
	row = r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE tenant_id = $1 AND customer_address = $2 AND channel = $3 AND status = 'active'
	`, tenantID, customerAddress, channel)
	conv, err = scanConversation(row)
	return conv, false, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Conversation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+` FROM conversations WHERE id = $1
	`, id)
	return scanConversation(row)
}

// AppendMessage stores a transcript turn and bumps the activity clock. The
// single CTE statement keeps both writes atomic; a half-applied append would
// leave a stale activity clock and feed the staleness sweep bad data.
func (r *Repository) AppendMessage(ctx context.Context, conversationID uuid.UUID, role, content string) (Message, error) {
	var msg Message
	err := r.pool.QueryRow(ctx, `
		WITH msg AS (
			INSERT INTO messages (conversation_id, role, content)
			VALUES ($1, $2, $3)
			RETURNING id, conversation_id, role, content, created_at
		), bump AS (
			UPDATE conversations SET last_activity_at = now() WHERE id = $1
		)
		SELECT id, conversation_id, role, content, created_at FROM msg
	`, conversationID, role, content).Scan(
		&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.CreatedAt,
	)
	if err != nil {
		return Message{}, err
	}
	return msg, nil
}

// RecentHistory returns up to limit most recent messages, oldest first, ready
// to feed a prompt in transcript order.
func (r *Repository) RecentHistory(ctx context.Context, conversationID uuid.UUID, limit int) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// SaveExtracted replaces the structured fields snapshot for a conversation.
func (r *Repository) SaveExtracted(ctx context.Context, conversationID uuid.UUID, extracted json.RawMessage) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE conversations SET extracted = $2 WHERE id = $1
	`, conversationID, extracted)
	return err
}

// MarkEscalated transitions an active conversation to escalated exactly once.
// Returns false when the conversation was already escalated or closed.
func (r *Repository) MarkEscalated(ctx context.Context, conversationID uuid.UUID, reason string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE conversations
		SET status = 'escalated', escalation_reason = $2, last_activity_at = now()
		WHERE id = $1 AND status = 'active'
	`, conversationID, reason)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Close marks an active conversation closed. Idempotent.
func (r *Repository) Close(ctx context.Context, conversationID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE conversations SET status = 'closed' WHERE id = $1 AND status = 'active'
	`, conversationID)
	return err
}

// CloseIfStale closes the active conversation for a customer when it has been
// quiet longer than the TTL. Idempotent.
func (r *Repository) CloseIfStale(ctx context.Context, tenantID uuid.UUID, customerAddress, channel string, ttl time.Duration) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE conversations SET status = 'closed'
		WHERE tenant_id = $1 AND customer_address = $2 AND channel = $3
		  AND status = 'active' AND last_activity_at < now() - make_interval(secs => $4)
	`, tenantID, customerAddress, channel, ttl.Seconds())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CloseAllStale closes every active conversation past the TTL, across all
// tenants. The sweeper agent runs this on a short interval.
func (r *Repository) CloseAllStale(ctx context.Context, ttl time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE conversations SET status = 'closed'
		WHERE status = 'active' AND last_activity_at < now() - make_interval(secs => $1)
	`, ttl.Seconds())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
