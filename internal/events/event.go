// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// InMemoryBus is a type alias to the platform InMemoryBus.
type InMemoryBus = events.InMemoryBus

// NewInMemoryBus is a convenience re-export from platform/events.
var NewInMemoryBus = events.NewInMemoryBus

// =============================================================================
// Dispatcher Domain Events
// =============================================================================

// ConversationStarted is published when a first inbound event from a new
// customer creates a conversation.
type ConversationStarted struct {
	BaseEvent
	ConversationID  uuid.UUID `json:"conversationId"`
	TenantID        uuid.UUID `json:"tenantId"`
	CustomerAddress string    `json:"customerAddress"`
	Channel         string    `json:"channel"`
}

func (e ConversationStarted) EventName() string { return "dispatcher.conversation.started" }

// ConversationEscalated is published when the escalation policy forces a
// human handoff.
type ConversationEscalated struct {
	BaseEvent
	ConversationID  uuid.UUID `json:"conversationId"`
	TenantID        uuid.UUID `json:"tenantId"`
	CustomerAddress string    `json:"customerAddress"`
	Channel         string    `json:"channel"`
	Reason          string    `json:"reason"`
}

func (e ConversationEscalated) EventName() string { return "dispatcher.conversation.escalated" }

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCaptured is published when a structured lead is created, either from a
// finalized conversation extraction or manual entry.
type LeadCaptured struct {
	BaseEvent
	LeadID         uuid.UUID  `json:"leadId"`
	TenantID       uuid.UUID  `json:"tenantId"`
	ConversationID *uuid.UUID `json:"conversationId,omitempty"`
	Source         string     `json:"source"`
	CustomerName   string     `json:"customerName"`
	CustomerPhone  string     `json:"customerPhone"`
	JobCategory    string     `json:"jobCategory"`
	Urgency        string     `json:"urgency"`
}

func (e LeadCaptured) EventName() string { return "leads.lead.captured" }

// LeadStatusChanged is published when a lead transitions status.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	TenantID  uuid.UUID `json:"tenantId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
}

func (e LeadStatusChanged) EventName() string { return "leads.lead.status_changed" }

// =============================================================================
// Agent Domain Events
// =============================================================================

// MarketOpportunityFound is published when the market scanner records a new
// opportunity for a tenant.
type MarketOpportunityFound struct {
	BaseEvent
	OpportunityID uuid.UUID `json:"opportunityId"`
	TenantID      uuid.UUID `json:"tenantId"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
}

func (e MarketOpportunityFound) EventName() string { return "agents.market.opportunity_found" }

// AgentRunFinished is published when a scheduled agent run completes.
type AgentRunFinished struct {
	BaseEvent
	RunID    uuid.UUID `json:"runId"`
	TenantID uuid.UUID `json:"tenantId"`
	Category string    `json:"category"`
	Status   string    `json:"status"`
	Error    string    `json:"error,omitempty"`
}

func (e AgentRunFinished) EventName() string { return "agents.run.finished" }
