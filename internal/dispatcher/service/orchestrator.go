package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/plan"
	convrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/conversations/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/dispatcher/engine"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/events"
	leadrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/leads/repository"
	tenantrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/tenants/repository"
	tenantsvc "github.com/majorpremiumllc/hustle-ai-sub001/internal/tenants/service"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/config"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/logger"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/phone"
)

// ErrTenantNotFound signals an inbound event for a number no tenant owns.
// The webhook handler answers with a polite "not configured" message.
var ErrTenantNotFound = errors.New("no tenant configured for number")

const (
	historyLimit = 20

	defaultGreeting   = "Thanks for calling! How can we help you today?"
	defaultEscalation = "Let me get the owner on this right away. Someone will call you back shortly."
)

// InboundEvent is the validated form of a channel webhook.
type InboundEvent struct {
	Channel     string
	From        string
	To          string
	Text        string
	ProviderRef string
}

// Reply is what the channel transport renders back to the provider.
type Reply struct {
	Text      string
	Greeting  bool
	Escalated bool
	EndCall   bool
}

// Orchestrator coordinates one conversation turn end to end. All persistence
// happens synchronously before HandleInbound returns, so the webhook can
// treat a returned reply as fully committed.
type Orchestrator struct {
	tenants   TenantResolver
	store     ConversationStore
	leads     LeadRecorder
	limits    LimitChecker
	extractor *engine.Extractor
	eventBus  events.Bus
	cfg       config.DispatcherConfig
	log       *logger.Logger
}

func NewOrchestrator(
	tenants TenantResolver,
	store ConversationStore,
	leads LeadRecorder,
	limits LimitChecker,
	generator engine.Generator,
	eventBus events.Bus,
	cfg config.DispatcherConfig,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		tenants:   tenants,
		store:     store,
		leads:     leads,
		limits:    limits,
		extractor: engine.NewExtractor(generator),
		eventBus:  eventBus,
		cfg:       cfg,
		log:       log,
	}
}

// HandleInbound processes one inbound channel event and returns the reply to
// render. Persistence errors propagate so the webhook fails loudly and the
// channel retries; generation errors never do.
func (o *Orchestrator) HandleInbound(ctx context.Context, event InboundEvent) (Reply, error) {
	started := time.Now()

	tenant, err := o.tenants.Resolve(ctx, event.To)
	if errors.Is(err, tenantsvc.ErrNoTenant) {
		return Reply{}, ErrTenantNotFound
	}
	if err != nil {
		return Reply{}, fmt.Errorf("resolve tenant: %w", err)
	}

	customer := phone.NormalizeE164(event.From)
	if customer == "" {
		customer = strings.TrimSpace(event.From)
	}

	conv, created, err := o.store.GetOrCreateActive(ctx, tenant.ID, customer, event.Channel, o.cfg.GetConversationTTL())
	if err != nil {
		return Reply{}, fmt.Errorf("get conversation: %w", err)
	}
	if created {
		o.eventBus.Publish(ctx, events.ConversationStarted{
			BaseEvent:       events.NewBaseEvent(),
			ConversationID:  conv.ID,
			TenantID:        tenant.ID,
			CustomerAddress: customer,
			Channel:         event.Channel,
		})
	}

	// A voice call's first webhook carries no speech. Greet and listen.
	if event.Channel == convrepo.ChannelVoice && strings.TrimSpace(event.Text) == "" {
		greeting := tenant.AI.Greeting
		if greeting == "" {
			greeting = defaultGreeting
		}
		if _, err := o.store.AppendMessage(ctx, conv.ID, convrepo.RoleAssistant, greeting); err != nil {
			return Reply{}, fmt.Errorf("append greeting: %w", err)
		}
		return Reply{Text: greeting, Greeting: true}, nil
	}

	history, err := o.store.RecentHistory(ctx, conv.ID, historyLimit)
	if err != nil {
		return Reply{}, fmt.Errorf("load history: %w", err)
	}

	if _, err := o.store.AppendMessage(ctx, conv.ID, convrepo.RoleCustomer, event.Text); err != nil {
		return Reply{}, fmt.Errorf("append inbound: %w", err)
	}

	var known engine.Fields
	if len(conv.Extracted) > 0 {
		_ = json.Unmarshal(conv.Extracted, &known)
	}

	turns := make([]engine.Turn, 0, len(history))
	for _, msg := range history {
		turns = append(turns, engine.Turn{Role: msg.Role, Content: msg.Content})
	}

	result := o.extractor.NextTurn(ctx, engine.PromptConfig{
		BusinessName:      tenant.Name,
		Industry:          tenant.Industry,
		Tone:              tenant.AI.Tone,
		Services:          tenant.AI.Services,
		PricingDeflection: tenant.AI.PricingDeflection,
		Channel:           event.Channel,
	}, known, turns, event.Text)

	// Scrub prices from the generated text before any override so the
	// escalation handoff message survives even when it quotes the threshold.
	reply, _ := engine.DeflectPrices(result.Reply, tenant.AI.PricingDeflection)
	escalated := false

	decision := engine.ShouldEscalate(event.Text, result.Fields, result.Angry, engine.Policy{
		BudgetThresholdCents: tenant.AI.BudgetThresholdCents,
		Keywords:             tenant.AI.EscalationKeywords,
	})
	if decision.Escalate {
		changed, err := o.store.MarkEscalated(ctx, conv.ID, decision.Reason)
		if err != nil {
			return Reply{}, fmt.Errorf("mark escalated: %w", err)
		}

		reply = tenant.AI.EscalationMessage
		if reply == "" {
			reply = defaultEscalation
		}
		escalated = true

		if changed {
			o.eventBus.Publish(ctx, events.ConversationEscalated{
				BaseEvent:       events.NewBaseEvent(),
				ConversationID:  conv.ID,
				TenantID:        tenant.ID,
				CustomerAddress: customer,
				Channel:         event.Channel,
				Reason:          decision.Reason,
			})
		}
	}

	if _, err := o.store.AppendMessage(ctx, conv.ID, convrepo.RoleAssistant, reply); err != nil {
		return Reply{}, fmt.Errorf("append outbound: %w", err)
	}

	if extracted, err := json.Marshal(result.Fields); err == nil {
		if err := o.store.SaveExtracted(ctx, conv.ID, extracted); err != nil {
			return Reply{}, fmt.Errorf("save extracted: %w", err)
		}
	}

	if escalated || result.IsComplete {
		if err := o.captureLead(ctx, tenant, conv, event.Channel, customer, result.Fields, escalated, decision.Reason); err != nil {
			return Reply{}, err
		}
	}

	if result.WantsEnd && !escalated {
		if err := o.store.Close(ctx, conv.ID); err != nil {
			return Reply{}, fmt.Errorf("close conversation: %w", err)
		}
	}

	o.log.DispatchTurn(event.Channel, tenant.ID.String(), conv.ID.String(), escalated,
		float64(time.Since(started).Milliseconds()))

	return Reply{
		Text:      reply,
		Escalated: escalated,
		EndCall:   escalated || result.WantsEnd,
	}, nil
}

// captureLead records the lead for this conversation exactly once. Plan-limit
// denial skips capture but never fails the turn: the customer still gets a
// reply, the owner just does not get a lead row past the cap.
func (o *Orchestrator) captureLead(ctx context.Context, tenant tenantrepo.Tenant, conv convrepo.Conversation, channel, customer string, fields engine.Fields, escalated bool, reason string) error {
	decision, err := o.limits.CheckLimit(ctx, tenant.ID, plan.ResourceLeads)
	if err != nil {
		return fmt.Errorf("check lead limit: %w", err)
	}
	if !decision.Allowed {
		o.log.Warn("lead capture skipped, plan limit",
			"tenantId", tenant.ID, "used", decision.Used, "limit", decision.Limit, "reason", decision.Reason)
		return nil
	}

	status := leadrepo.StatusNew
	var escalationReason *string
	if escalated {
		status = leadrepo.StatusEscalated
		escalationReason = &reason
	}

	convID := conv.ID
	newLead := leadrepo.NewLead{
		TenantID:         tenant.ID,
		ConversationID:   &convID,
		Source:           channel,
		CustomerName:     fields.CustomerName,
		CustomerPhone:    customer,
		JobCategory:      fields.JobType,
		Address:          fields.Address,
		Urgency:          fields.Urgency,
		Notes:            fields.Notes,
		Status:           status,
		EscalationReason: escalationReason,
	}
	if fields.PreferredDate != "" {
		if d, err := time.Parse("2006-01-02", fields.PreferredDate); err == nil {
			newLead.PreferredDate = &d
		}
	}

	if _, _, err := o.leads.CreateFromConversation(ctx, newLead); err != nil {
		return fmt.Errorf("capture lead: %w", err)
	}
	return nil
}
