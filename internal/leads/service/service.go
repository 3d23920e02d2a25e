// Package service implements lead lifecycle management: creation from
// conversations, manual entry gated by plan limits, and status transitions.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/plan"
	billing "github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/service"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/events"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/leads/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/apperr"

	"github.com/google/uuid"
)

// validTransitions is the lead status machine. Leads are never destroyed,
// only moved forward (or parked in closed).
var validTransitions = map[string][]string{
	repository.StatusNew:               {repository.StatusContacted, repository.StatusEscalated, repository.StatusClosed},
	repository.StatusContacted:         {repository.StatusEstimateScheduled, repository.StatusEscalated, repository.StatusClosed},
	repository.StatusEstimateScheduled: {repository.StatusBooked, repository.StatusEscalated, repository.StatusClosed},
	repository.StatusEscalated:         {repository.StatusContacted, repository.StatusBooked, repository.StatusClosed},
	repository.StatusBooked:            {repository.StatusClosed},
	repository.StatusClosed:            {},
}

// Store is the persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, lead repository.NewLead) (repository.Lead, error)
	CreateFromConversation(ctx context.Context, lead repository.NewLead) (repository.Lead, bool, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (repository.Lead, error)
	List(ctx context.Context, tenantID uuid.UUID, filter repository.ListFilter) ([]repository.Lead, error)
	UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status string) (repository.Lead, error)
}

// LimitChecker gates lead creation on the tenant's plan.
type LimitChecker interface {
	CheckLimit(ctx context.Context, tenantID uuid.UUID, resource plan.Resource) (billing.LimitDecision, error)
	RecordLeadUsage(ctx context.Context, tenantID uuid.UUID) error
}

type Service struct {
	store    Store
	limits   LimitChecker
	eventBus events.Bus
}

func New(store Store, limits LimitChecker, eventBus events.Bus) *Service {
	return &Service{store: store, limits: limits, eventBus: eventBus}
}

// CreateManual creates a dashboard-entered lead, enforcing the plan's lead cap.
func (s *Service) CreateManual(ctx context.Context, lead repository.NewLead) (repository.Lead, error) {
	decision, err := s.limits.CheckLimit(ctx, lead.TenantID, plan.ResourceLeads)
	if err != nil {
		return repository.Lead{}, fmt.Errorf("check lead limit: %w", err)
	}
	if !decision.Allowed {
		return repository.Lead{}, apperr.LimitExceeded("lead limit reached for current plan", decision)
	}

	lead.Source = repository.SourceManual
	lead.ConversationID = nil
	if lead.Status == "" {
		lead.Status = repository.StatusNew
	}
	if lead.JobCategory == "" {
		lead.JobCategory = "General"
	}

	created, err := s.store.Create(ctx, lead)
	if err != nil {
		return repository.Lead{}, err
	}

	if err := s.limits.RecordLeadUsage(ctx, created.TenantID); err != nil {
		return repository.Lead{}, fmt.Errorf("record lead usage: %w", err)
	}

	s.publishCaptured(ctx, created)
	return created, nil
}

// CreateFromConversation records the lead extracted from a finished
// conversation. Idempotent per conversation; usage is only counted when a row
// was actually created.
func (s *Service) CreateFromConversation(ctx context.Context, lead repository.NewLead) (repository.Lead, bool, error) {
	if lead.ConversationID == nil {
		return repository.Lead{}, false, apperr.Validation("conversation id required")
	}
	if lead.Status == "" {
		lead.Status = repository.StatusNew
	}
	if lead.JobCategory == "" {
		lead.JobCategory = "General"
	}

	created, isNew, err := s.store.CreateFromConversation(ctx, lead)
	if err != nil {
		return repository.Lead{}, false, err
	}
	if !isNew {
		return created, false, nil
	}

	if err := s.limits.RecordLeadUsage(ctx, created.TenantID); err != nil {
		return repository.Lead{}, false, fmt.Errorf("record lead usage: %w", err)
	}

	s.publishCaptured(ctx, created)
	return created, true, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.store.GetByID(ctx, tenantID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, err
}

func (s *Service) List(ctx context.Context, tenantID uuid.UUID, filter repository.ListFilter) ([]repository.Lead, error) {
	return s.store.List(ctx, tenantID, filter)
}

// TransitionStatus moves a lead through the status machine.
func (s *Service) TransitionStatus(ctx context.Context, tenantID, id uuid.UUID, newStatus string) (repository.Lead, error) {
	lead, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return repository.Lead{}, err
	}

	if !transitionAllowed(lead.Status, newStatus) {
		return repository.Lead{}, apperr.Validation(
			fmt.Sprintf("cannot transition lead from %s to %s", lead.Status, newStatus))
	}

	updated, err := s.store.UpdateStatus(ctx, tenantID, id, newStatus)
	if err != nil {
		return repository.Lead{}, err
	}

	s.eventBus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    updated.ID,
		TenantID:  updated.TenantID,
		OldStatus: lead.Status,
		NewStatus: newStatus,
	})
	return updated, nil
}

func (s *Service) publishCaptured(ctx context.Context, lead repository.Lead) {
	s.eventBus.Publish(ctx, events.LeadCaptured{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         lead.ID,
		TenantID:       lead.TenantID,
		ConversationID: lead.ConversationID,
		Source:         lead.Source,
		CustomerName:   lead.CustomerName,
		CustomerPhone:  lead.CustomerPhone,
		JobCategory:    lead.JobCategory,
		Urgency:        lead.Urgency,
	})
}

func transitionAllowed(from, to string) bool {
	if from == to {
		return true
	}
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
