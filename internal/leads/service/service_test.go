package service

import (
	"context"
	"errors"
	"testing"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/plan"
	billing "github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/service"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/events"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/leads/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/apperr"

	"github.com/google/uuid"
)

type fakeLeadStore struct {
	leads   map[uuid.UUID]repository.Lead
	byConv  map[uuid.UUID]uuid.UUID
	created int
}

func newFakeLeadStore() *fakeLeadStore {
	return &fakeLeadStore{
		leads:  make(map[uuid.UUID]repository.Lead),
		byConv: make(map[uuid.UUID]uuid.UUID),
	}
}

func (f *fakeLeadStore) insert(lead repository.NewLead) repository.Lead {
	row := repository.Lead{
		ID:             uuid.New(),
		TenantID:       lead.TenantID,
		ConversationID: lead.ConversationID,
		Source:         lead.Source,
		CustomerName:   lead.CustomerName,
		CustomerPhone:  lead.CustomerPhone,
		JobCategory:    lead.JobCategory,
		Urgency:        lead.Urgency,
		Status:         lead.Status,
	}
	f.leads[row.ID] = row
	f.created++
	return row
}

func (f *fakeLeadStore) Create(_ context.Context, lead repository.NewLead) (repository.Lead, error) {
	return f.insert(lead), nil
}

func (f *fakeLeadStore) CreateFromConversation(_ context.Context, lead repository.NewLead) (repository.Lead, bool, error) {
	if existingID, ok := f.byConv[*lead.ConversationID]; ok {
		return f.leads[existingID], false, nil
	}
	row := f.insert(lead)
	f.byConv[*lead.ConversationID] = row.ID
	return row, true, nil
}

func (f *fakeLeadStore) GetByID(_ context.Context, _ uuid.UUID, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeLeadStore) List(_ context.Context, _ uuid.UUID, _ repository.ListFilter) ([]repository.Lead, error) {
	out := make([]repository.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		out = append(out, lead)
	}
	return out, nil
}

func (f *fakeLeadStore) UpdateStatus(_ context.Context, _ uuid.UUID, id uuid.UUID, status string) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	lead.Status = status
	f.leads[id] = lead
	return lead, nil
}

type fakeLimiter struct {
	decision billing.LimitDecision
	usage    int
}

func (f *fakeLimiter) CheckLimit(context.Context, uuid.UUID, plan.Resource) (billing.LimitDecision, error) {
	return f.decision, nil
}

func (f *fakeLimiter) RecordLeadUsage(context.Context, uuid.UUID) error {
	f.usage++
	return nil
}

type silentBus struct{}

func (silentBus) Publish(context.Context, events.Event)           {}
func (silentBus) PublishSync(context.Context, events.Event) error { return nil }
func (silentBus) Subscribe(string, events.Handler)                {}

func allowAll() *fakeLimiter {
	return &fakeLimiter{decision: billing.LimitDecision{Allowed: true, Limit: plan.Unlimited}}
}

func TestCreateManual_LimitDenied(t *testing.T) {
	store := newFakeLeadStore()
	limits := &fakeLimiter{decision: billing.LimitDecision{Allowed: false, Used: 100, Limit: 100, Reason: billing.ReasonLimitReached}}
	svc := New(store, limits, silentBus{})

	_, err := svc.CreateManual(context.Background(), repository.NewLead{TenantID: uuid.New(), CustomerName: "Sam"})
	if err == nil {
		t.Fatal("expected limit error")
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected structured app error, got %v", err)
	}
	if store.created != 0 {
		t.Fatal("denied create must not persist a lead")
	}
	if limits.usage != 0 {
		t.Fatal("denied create must not count usage")
	}
}

func TestCreateManual_ForcesManualSource(t *testing.T) {
	store := newFakeLeadStore()
	limits := allowAll()
	svc := New(store, limits, silentBus{})

	convID := uuid.New()
	lead, err := svc.CreateManual(context.Background(), repository.NewLead{
		TenantID:       uuid.New(),
		ConversationID: &convID,
		Source:         "voice",
		CustomerName:   "Sam",
	})
	if err != nil {
		t.Fatal(err)
	}
	if lead.Source != repository.SourceManual {
		t.Fatalf("expected manual source, got %q", lead.Source)
	}
	if lead.ConversationID != nil {
		t.Fatal("manual lead must not claim a conversation")
	}
	if lead.Status != repository.StatusNew || lead.JobCategory != "General" {
		t.Fatalf("defaults not applied: %+v", lead)
	}
	if limits.usage != 1 {
		t.Fatalf("expected one usage increment, got %d", limits.usage)
	}
}

func TestCreateFromConversation_IdempotentUsage(t *testing.T) {
	store := newFakeLeadStore()
	limits := allowAll()
	svc := New(store, limits, silentBus{})

	convID := uuid.New()
	lead := repository.NewLead{TenantID: uuid.New(), ConversationID: &convID, Source: "sms", CustomerName: "Sam"}

	first, isNew, err := svc.CreateFromConversation(context.Background(), lead)
	if err != nil {
		t.Fatal(err)
	}
	if !isNew {
		t.Fatal("expected new lead")
	}

	second, isNew, err := svc.CreateFromConversation(context.Background(), lead)
	if err != nil {
		t.Fatal(err)
	}
	if isNew {
		t.Fatal("expected idempotent repeat")
	}
	if second.ID != first.ID {
		t.Fatal("repeat returned a different lead")
	}
	if limits.usage != 1 {
		t.Fatalf("usage counted %d times, want 1", limits.usage)
	}
}

func TestCreateFromConversation_RequiresConversation(t *testing.T) {
	svc := New(newFakeLeadStore(), allowAll(), silentBus{})

	_, _, err := svc.CreateFromConversation(context.Background(), repository.NewLead{TenantID: uuid.New()})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestTransitionStatus(t *testing.T) {
	store := newFakeLeadStore()
	svc := New(store, allowAll(), silentBus{})
	tenantID := uuid.New()

	row := store.insert(repository.NewLead{TenantID: tenantID, Status: repository.StatusNew})

	updated, err := svc.TransitionStatus(context.Background(), tenantID, row.ID, repository.StatusContacted)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != repository.StatusContacted {
		t.Fatalf("expected contacted, got %q", updated.Status)
	}

	if _, err := svc.TransitionStatus(context.Background(), tenantID, row.ID, repository.StatusBooked); err == nil {
		t.Fatal("contacted -> booked must be rejected")
	}

	if _, err := svc.TransitionStatus(context.Background(), tenantID, row.ID, repository.StatusContacted); err != nil {
		t.Fatalf("same-status transition must be a no-op, got %v", err)
	}

	if _, err := svc.TransitionStatus(context.Background(), tenantID, row.ID, repository.StatusClosed); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.TransitionStatus(context.Background(), tenantID, row.ID, repository.StatusBooked); err == nil {
		t.Fatal("closed leads must not reopen")
	}
}
