package transport

import (
	"time"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/leads/repository"

	"github.com/google/uuid"
)

// CreateLeadRequest is the payload for manual lead entry.
type CreateLeadRequest struct {
	CustomerName        string  `json:"customerName" validate:"required,max=200"`
	CustomerPhone       string  `json:"customerPhone" validate:"required,max=30"`
	CustomerEmail       *string `json:"customerEmail" validate:"omitempty,email"`
	JobCategory         string  `json:"jobCategory" validate:"max=100"`
	Address             string  `json:"address" validate:"max=300"`
	Urgency             string  `json:"urgency" validate:"omitempty,oneof=ASAP Flexible Specific-date"`
	PreferredDate       *string `json:"preferredDate" validate:"omitempty,datetime=2006-01-02"`
	Notes               string  `json:"notes" validate:"max=2000"`
	EstimatedValueCents *int64  `json:"estimatedValueCents" validate:"omitempty,min=0"`
}

// UpdateStatusRequest transitions a lead's status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new contacted estimate_scheduled escalated booked closed"`
}

// LeadResponse is the wire shape of a lead.
type LeadResponse struct {
	ID                  uuid.UUID  `json:"id"`
	ConversationID      *uuid.UUID `json:"conversationId,omitempty"`
	Source              string     `json:"source"`
	CustomerName        string     `json:"customerName"`
	CustomerPhone       string     `json:"customerPhone"`
	CustomerEmail       *string    `json:"customerEmail,omitempty"`
	JobCategory         string     `json:"jobCategory"`
	Address             string     `json:"address"`
	Urgency             string     `json:"urgency"`
	PreferredDate       *string    `json:"preferredDate,omitempty"`
	Notes               string     `json:"notes"`
	Status              string     `json:"status"`
	EscalationReason    *string    `json:"escalationReason,omitempty"`
	EstimatedValueCents *int64     `json:"estimatedValueCents,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// FromLead converts a repository lead to its wire shape.
func FromLead(l repository.Lead) LeadResponse {
	resp := LeadResponse{
		ID:                  l.ID,
		ConversationID:      l.ConversationID,
		Source:              l.Source,
		CustomerName:        l.CustomerName,
		CustomerPhone:       l.CustomerPhone,
		CustomerEmail:       l.CustomerEmail,
		JobCategory:         l.JobCategory,
		Address:             l.Address,
		Urgency:             l.Urgency,
		Notes:               l.Notes,
		Status:              l.Status,
		EscalationReason:    l.EscalationReason,
		EstimatedValueCents: l.EstimatedValueCents,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
	if l.PreferredDate != nil {
		d := l.PreferredDate.Format("2006-01-02")
		resp.PreferredDate = &d
	}
	return resp
}
