package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/plan"
	billing "github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/service"
	convrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/conversations/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/dispatcher/engine"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/events"
	leadrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/leads/repository"
	tenantrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/tenants/repository"
	tenantsvc "github.com/majorpremiumllc/hustle-ai-sub001/internal/tenants/service"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/logger"

	"github.com/google/uuid"
)

type fakeResolver struct {
	tenant tenantrepo.Tenant
	err    error
}

func (f *fakeResolver) Resolve(context.Context, string) (tenantrepo.Tenant, error) {
	return f.tenant, f.err
}

type fakeStore struct {
	conv      convrepo.Conversation
	created   bool
	messages  []convrepo.Message
	extracted json.RawMessage
	escalated string
	closed    bool

	markEscalatedCalls int
}

func (f *fakeStore) GetOrCreateActive(_ context.Context, tenantID uuid.UUID, customer, channel string, _ time.Duration) (convrepo.Conversation, bool, error) {
	if f.conv.ID == (uuid.UUID{}) {
		f.conv = convrepo.Conversation{
			ID:              uuid.New(),
			TenantID:        tenantID,
			CustomerAddress: customer,
			Channel:         channel,
			Status:          convrepo.StatusActive,
			Extracted:       f.extracted,
		}
		f.created = true
		return f.conv, true, nil
	}
	f.conv.Extracted = f.extracted
	return f.conv, false, nil
}

func (f *fakeStore) AppendMessage(_ context.Context, conversationID uuid.UUID, role, content string) (convrepo.Message, error) {
	msg := convrepo.Message{ID: uuid.New(), ConversationID: conversationID, Role: role, Content: content}
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakeStore) RecentHistory(context.Context, uuid.UUID, int) ([]convrepo.Message, error) {
	return append([]convrepo.Message(nil), f.messages...), nil
}

func (f *fakeStore) SaveExtracted(_ context.Context, _ uuid.UUID, extracted json.RawMessage) error {
	f.extracted = extracted
	return nil
}

func (f *fakeStore) MarkEscalated(_ context.Context, _ uuid.UUID, reason string) (bool, error) {
	f.markEscalatedCalls++
	if f.escalated != "" {
		return false, nil
	}
	f.escalated = reason
	f.conv.Status = convrepo.StatusEscalated
	return true, nil
}

func (f *fakeStore) Close(context.Context, uuid.UUID) error {
	f.closed = true
	f.conv.Status = convrepo.StatusClosed
	return nil
}

type fakeLeads struct {
	leads []leadrepo.NewLead
}

func (f *fakeLeads) CreateFromConversation(_ context.Context, lead leadrepo.NewLead) (leadrepo.Lead, bool, error) {
	for _, existing := range f.leads {
		if existing.ConversationID != nil && lead.ConversationID != nil &&
			*existing.ConversationID == *lead.ConversationID {
			return leadrepo.Lead{ID: uuid.New(), TenantID: lead.TenantID}, false, nil
		}
	}
	f.leads = append(f.leads, lead)
	return leadrepo.Lead{ID: uuid.New(), TenantID: lead.TenantID}, true, nil
}

type fakeLimits struct {
	decision billing.LimitDecision
}

func (f *fakeLimits) CheckLimit(context.Context, uuid.UUID, plan.Resource) (billing.LimitDecision, error) {
	return f.decision, nil
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) names() []string {
	out := make([]string, 0, len(b.published))
	for _, e := range b.published {
		out = append(out, e.EventName())
	}
	return out
}

type fakeCfg struct{}

func (fakeCfg) GetConversationTTL() time.Duration { return 30 * time.Minute }
func (fakeCfg) GetSingleTenantFallback() bool     { return false }
func (fakeCfg) GetVoiceWebhookPath() string       { return "/webhooks/voice" }

func testTenant() tenantrepo.Tenant {
	return tenantrepo.Tenant{
		ID:       uuid.New(),
		Name:     "Hudson Handyman",
		Industry: "handyman",
		AI: tenantrepo.AIConfig{
			Greeting: "Hudson Handyman, how can we help?",
			Tone:     "friendly",
			Services: []string{"TV mounting", "Drywall", "Electrical"},
		},
	}
}

func newTestOrchestrator(resolver *fakeResolver, store *fakeStore, leads *fakeLeads, limits *fakeLimits, gen engine.Generator, bus *recordingBus) *Orchestrator {
	return NewOrchestrator(resolver, store, leads, limits, gen, bus, fakeCfg{}, logger.New("test"))
}

type scriptedGenerator struct {
	results []engine.GenerateResult
	calls   int
}

func (s *scriptedGenerator) Generate(context.Context, engine.GenerateRequest) (engine.GenerateResult, error) {
	result := s.results[s.calls]
	if s.calls < len(s.results)-1 {
		s.calls++
	}
	return result, nil
}

func TestHandleInbound_UnknownNumber(t *testing.T) {
	resolver := &fakeResolver{err: tenantsvc.ErrNoTenant}
	o := newTestOrchestrator(resolver, &fakeStore{}, &fakeLeads{}, &fakeLimits{}, &scriptedGenerator{results: []engine.GenerateResult{{}}}, &recordingBus{})

	_, err := o.HandleInbound(context.Background(), InboundEvent{Channel: convrepo.ChannelVoice, From: "+15550001111", To: "+15559990000"})
	if err != ErrTenantNotFound {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestHandleInbound_VoiceFirstTurnGreets(t *testing.T) {
	resolver := &fakeResolver{tenant: testTenant()}
	store := &fakeStore{}
	bus := &recordingBus{}
	o := newTestOrchestrator(resolver, store, &fakeLeads{}, &fakeLimits{}, &scriptedGenerator{results: []engine.GenerateResult{{}}}, bus)

	reply, err := o.HandleInbound(context.Background(), InboundEvent{
		Channel: convrepo.ChannelVoice,
		From:    "+1 (555) 000-1111",
		To:      "+15559990000",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reply.Greeting {
		t.Fatal("expected greeting turn")
	}
	if reply.Text != "Hudson Handyman, how can we help?" {
		t.Fatalf("expected tenant greeting, got %q", reply.Text)
	}
	if len(store.messages) != 1 || store.messages[0].Role != convrepo.RoleAssistant {
		t.Fatalf("expected one persisted assistant message, got %+v", store.messages)
	}
	if got := bus.names(); len(got) != 1 || got[0] != "dispatcher.conversation.started" {
		t.Fatalf("expected conversation started event, got %v", got)
	}
}

func TestHandleInbound_SMSConversationCapturesLead(t *testing.T) {
	resolver := &fakeResolver{tenant: testTenant()}
	store := &fakeStore{}
	leads := &fakeLeads{}
	bus := &recordingBus{}
	gen := &scriptedGenerator{results: []engine.GenerateResult{
		{Reply: "Happy to help! What's your name?", Fields: engine.Fields{JobType: "tv mounting"}},
		{Reply: "Thanks Sam. What's the address?", Fields: engine.Fields{CustomerName: "Sam"}},
		{Reply: "Got it. When works for you?", Fields: engine.Fields{Address: "12 Oak St"}},
		{Reply: "You're all set, we'll call to confirm.", Fields: engine.Fields{Urgency: "ASAP"}, WantsEnd: true},
	}}
	o := newTestOrchestrator(resolver, store, leads, &fakeLimits{decision: billing.LimitDecision{Allowed: true}}, gen, bus)

	texts := []string{
		"hi, do you mount TVs?",
		"I'm Sam",
		"12 Oak St",
		"as soon as possible please",
	}
	var last Reply
	for _, text := range texts {
		var err error
		last, err = o.HandleInbound(context.Background(), InboundEvent{
			Channel: convrepo.ChannelSMS,
			From:    "+15550001111",
			To:      "+15559990000",
			Text:    text,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if len(leads.leads) != 1 {
		t.Fatalf("expected exactly one captured lead, got %d", len(leads.leads))
	}
	lead := leads.leads[0]
	if lead.Source != convrepo.ChannelSMS {
		t.Fatalf("expected source sms, got %q", lead.Source)
	}
	if lead.JobCategory != "TV mounting" {
		t.Fatalf("expected normalized job category, got %q", lead.JobCategory)
	}
	if lead.CustomerName != "Sam" || lead.Address != "12 Oak St" || lead.Urgency != "ASAP" {
		t.Fatalf("lead fields wrong: %+v", lead)
	}
	if !last.EndCall {
		t.Fatal("expected end-of-conversation reply")
	}
	if !store.closed {
		t.Fatal("expected conversation closed after wrap-up")
	}
}

func TestHandleInbound_EscalatesOnceAndOverridesReply(t *testing.T) {
	resolver := &fakeResolver{tenant: testTenant()}
	store := &fakeStore{}
	leads := &fakeLeads{}
	bus := &recordingBus{}
	gen := &scriptedGenerator{results: []engine.GenerateResult{
		{Reply: "Sure, tell me more."},
	}}
	o := newTestOrchestrator(resolver, store, leads, &fakeLimits{decision: billing.LimitDecision{Allowed: true}}, gen, bus)

	event := InboundEvent{
		Channel: convrepo.ChannelSMS,
		From:    "+15550001111",
		To:      "+15559990000",
		Text:    "I need a full remodel of the kitchen",
	}

	reply, err := o.HandleInbound(context.Background(), event)
	if err != nil {
		t.Fatal(err)
	}
	if !reply.Escalated || !reply.EndCall {
		t.Fatalf("expected escalated terminal reply, got %+v", reply)
	}
	if reply.Text != defaultEscalation {
		t.Fatalf("expected escalation message to replace model reply, got %q", reply.Text)
	}
	if store.escalated != engine.ReasonFullRemodel {
		t.Fatalf("expected full_remodel recorded, got %q", store.escalated)
	}
	if len(leads.leads) != 1 || leads.leads[0].Status != leadrepo.StatusEscalated {
		t.Fatalf("expected escalated lead, got %+v", leads.leads)
	}

	// A follow-up on the same conversation must not publish a second
	// escalation event.
	event.Text = "yes, the remodel I mentioned"
	if _, err := o.HandleInbound(context.Background(), event); err != nil {
		t.Fatal(err)
	}
	escalations := 0
	for _, name := range bus.names() {
		if name == "dispatcher.conversation.escalated" {
			escalations++
		}
	}
	if escalations != 1 {
		t.Fatalf("expected one escalation event, got %d", escalations)
	}
	if len(leads.leads) != 1 {
		t.Fatalf("expected lead capture to stay idempotent, got %d leads", len(leads.leads))
	}
}

func TestHandleInbound_EscalationMessageKeepsDollarFigure(t *testing.T) {
	tenant := testTenant()
	tenant.AI.EscalationMessage = "Jobs over $2,000 go straight to the owner. Expect a call shortly."
	resolver := &fakeResolver{tenant: tenant}
	store := &fakeStore{}
	gen := &scriptedGenerator{results: []engine.GenerateResult{
		{Reply: "Sure, tell me more."},
	}}
	o := newTestOrchestrator(resolver, store, &fakeLeads{}, &fakeLimits{decision: billing.LimitDecision{Allowed: true}}, gen, &recordingBus{})

	reply, err := o.HandleInbound(context.Background(), InboundEvent{
		Channel: convrepo.ChannelSMS,
		From:    "+15550001111",
		To:      "+15559990000",
		Text:    "I want a full remodel of the basement",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reply.Escalated {
		t.Fatalf("expected escalation, got %+v", reply)
	}
	if reply.Text != tenant.AI.EscalationMessage {
		t.Fatalf("expected handoff message to survive the price scrub, got %q", reply.Text)
	}
}

func TestHandleInbound_LimitDenialSkipsLeadButReplies(t *testing.T) {
	resolver := &fakeResolver{tenant: testTenant()}
	store := &fakeStore{}
	leads := &fakeLeads{}
	gen := &scriptedGenerator{results: []engine.GenerateResult{
		{Reply: "All set!", Fields: engine.Fields{
			CustomerName: "Sam", JobType: "Drywall", Address: "12 Oak St", Urgency: "ASAP",
		}},
	}}
	limits := &fakeLimits{decision: billing.LimitDecision{Allowed: false, Reason: billing.ReasonLimitReached}}
	o := newTestOrchestrator(resolver, store, leads, limits, gen, &recordingBus{})

	reply, err := o.HandleInbound(context.Background(), InboundEvent{
		Channel: convrepo.ChannelSMS,
		From:    "+15550001111",
		To:      "+15559990000",
		Text:    "everything above",
	})
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != "All set!" {
		t.Fatalf("expected normal reply despite limit, got %q", reply.Text)
	}
	if len(leads.leads) != 0 {
		t.Fatalf("expected no lead past the plan cap, got %+v", leads.leads)
	}
}

func TestHandleInbound_PriceQuoteDeflected(t *testing.T) {
	resolver := &fakeResolver{tenant: testTenant()}
	gen := &scriptedGenerator{results: []engine.GenerateResult{
		{Reply: "That's usually $150."},
	}}
	o := newTestOrchestrator(resolver, &fakeStore{}, &fakeLeads{}, &fakeLimits{}, gen, &recordingBus{})

	reply, err := o.HandleInbound(context.Background(), InboundEvent{
		Channel: convrepo.ChannelSMS,
		From:    "+15550001111",
		To:      "+15559990000",
		Text:    "how much for tv mounting?",
	})
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != engine.DefaultDeflection {
		t.Fatalf("expected price deflection, got %q", reply.Text)
	}
}
