// Package notification turns domain events into owner-facing alerts.
package notification

import (
	"context"
	"errors"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/email"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/events"
	tenantrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/tenants/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/logger"

	"github.com/google/uuid"
)

// TenantLookup fetches the tenant owning an event, for the notify address.
type TenantLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (tenantrepo.Tenant, error)
}

// Notifier subscribes to dispatcher and lead events and emails the tenant's
// notify address. Delivery failures are logged, never propagated: alerts are
// best-effort and must not fail the originating operation.
type Notifier struct {
	tenants TenantLookup
	sender  email.Sender
	log     *logger.Logger
}

func New(tenants TenantLookup, sender email.Sender, log *logger.Logger) *Notifier {
	return &Notifier{tenants: tenants, sender: sender, log: log}
}

// Register subscribes the notifier to the event bus.
func (n *Notifier) Register(bus events.Bus) {
	bus.Subscribe(events.ConversationEscalated{}.EventName(), events.HandlerFunc(n.onEscalated))
	bus.Subscribe(events.LeadCaptured{}.EventName(), events.HandlerFunc(n.onLeadCaptured))
}

func (n *Notifier) onEscalated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.ConversationEscalated)
	if !ok {
		return nil
	}

	toEmail, tenantName, err := n.notifyAddress(ctx, e.TenantID)
	if err != nil || toEmail == "" {
		return err
	}

	alert := email.EscalationAlert{
		TenantName:    tenantName,
		CustomerPhone: e.CustomerAddress,
		Reason:        e.Reason,
		Channel:       e.Channel,
	}
	if err := n.sender.SendEscalationAlert(ctx, toEmail, alert); err != nil {
		n.log.Error("escalation alert delivery failed", "error", err, "tenantId", e.TenantID)
	}
	return nil
}

func (n *Notifier) onLeadCaptured(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadCaptured)
	if !ok {
		return nil
	}

	toEmail, tenantName, err := n.notifyAddress(ctx, e.TenantID)
	if err != nil || toEmail == "" {
		return err
	}

	alert := email.LeadAlert{
		TenantName:    tenantName,
		CustomerName:  e.CustomerName,
		CustomerPhone: e.CustomerPhone,
		JobCategory:   e.JobCategory,
		Urgency:       e.Urgency,
	}
	if err := n.sender.SendLeadAlert(ctx, toEmail, alert); err != nil {
		n.log.Error("lead alert delivery failed", "error", err, "tenantId", e.TenantID)
	}
	return nil
}

func (n *Notifier) notifyAddress(ctx context.Context, tenantID uuid.UUID) (string, string, error) {
	tenant, err := n.tenants.GetByID(ctx, tenantID)
	if errors.Is(err, tenantrepo.ErrNotFound) {
		return "", "", nil
	}
	if err != nil {
		n.log.Error("notification tenant lookup failed", "error", err, "tenantId", tenantID)
		return "", "", nil
	}
	return tenant.NotifyEmail, tenant.Name, nil
}
