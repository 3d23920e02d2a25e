// Package service wires inbound channel events through tenant resolution,
// the conversation store, the extraction engine, and lead capture.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/plan"
	billing "github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/service"
	convrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/conversations/repository"
	leadrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/leads/repository"
	tenantrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/tenants/repository"

	"github.com/google/uuid"
)

// TenantResolver maps the business-side number of an inbound event to its
// owning tenant.
type TenantResolver interface {
	Resolve(ctx context.Context, businessNumber string) (tenantrepo.Tenant, error)
}

// ConversationStore is the persistence surface for conversation state.
type ConversationStore interface {
	GetOrCreateActive(ctx context.Context, tenantID uuid.UUID, customerAddress, channel string, ttl time.Duration) (convrepo.Conversation, bool, error)
	AppendMessage(ctx context.Context, conversationID uuid.UUID, role, content string) (convrepo.Message, error)
	RecentHistory(ctx context.Context, conversationID uuid.UUID, limit int) ([]convrepo.Message, error)
	SaveExtracted(ctx context.Context, conversationID uuid.UUID, extracted json.RawMessage) error
	MarkEscalated(ctx context.Context, conversationID uuid.UUID, reason string) (bool, error)
	Close(ctx context.Context, conversationID uuid.UUID) error
}

// LeadRecorder captures conversation-sourced leads idempotently.
type LeadRecorder interface {
	CreateFromConversation(ctx context.Context, lead leadrepo.NewLead) (leadrepo.Lead, bool, error)
}

// LimitChecker gates lead capture on the tenant's plan.
type LimitChecker interface {
	CheckLimit(ctx context.Context, tenantID uuid.UUID, resource plan.Resource) (billing.LimitDecision, error)
}
