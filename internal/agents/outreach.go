package agents

import (
	"context"
	"fmt"
	"time"

	leadrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/leads/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/logger"

	"github.com/google/uuid"
)

const outreachBatchSize = 25

// LeadQueue is the lead surface the outreach and nurture agents work from.
type LeadQueue interface {
	ListByStatus(ctx context.Context, tenantID uuid.UUID, status string, limit int) ([]leadrepo.Lead, error)
}

// Enqueuer hands individual sends to the background worker so a slow SMTP
// server never stalls a scheduler tick.
type Enqueuer interface {
	EnqueueOutreachEmail(ctx context.Context, payload OutreachEmailPayload) error
}

// EmailOutreachAgent drafts follow-up email for fresh leads that have an
// email address and queues the sends.
type EmailOutreachAgent struct {
	leads   LeadQueue
	tenants TenantReader
	queue   Enqueuer
	log     *logger.Logger
}

func NewEmailOutreachAgent(leads LeadQueue, tenants TenantReader, queue Enqueuer, log *logger.Logger) *EmailOutreachAgent {
	return &EmailOutreachAgent{leads: leads, tenants: tenants, queue: queue, log: log}
}

func (a *EmailOutreachAgent) Category() Category {
	return CategoryEmailOutreach
}

func (a *EmailOutreachAgent) Run(ctx context.Context, tenantID uuid.UUID) error {
	tenant, err := a.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}

	leads, err := a.leads.ListByStatus(ctx, tenantID, leadrepo.StatusNew, outreachBatchSize)
	if err != nil {
		return fmt.Errorf("list leads: %w", err)
	}

	queued := 0
	for _, lead := range leads {
		if lead.CustomerEmail == nil || *lead.CustomerEmail == "" {
			continue
		}
		payload := OutreachEmailPayload{
			TenantID: tenantID.String(),
			LeadID:   lead.ID.String(),
			ToEmail:  *lead.CustomerEmail,
			Subject:  fmt.Sprintf("Your %s request with %s", lead.JobCategory, tenant.Name),
			Body: fmt.Sprintf("Hi %s, thanks for reaching out to %s about your %s job. "+
				"We'd love to get you scheduled. Reply to this email or give us a call.",
				lead.CustomerName, tenant.Name, lead.JobCategory),
		}
		if err := a.queue.EnqueueOutreachEmail(ctx, payload); err != nil {
			return fmt.Errorf("enqueue outreach email: %w", err)
		}
		queued++
	}

	if queued > 0 {
		a.log.Info("outreach emails queued", "tenantId", tenantID, "count", queued)
	}
	return nil
}

// SMSOutreachAgent drafts text-message follow-ups for contacted leads. There
// is no outbound SMS provider wired yet, so drafts are logged for operator
// review.
// TODO: send through the channel provider's REST API once outbound messaging
// credentials are provisioned per tenant.
type SMSOutreachAgent struct {
	leads   LeadQueue
	tenants TenantReader
	log     *logger.Logger
}

func NewSMSOutreachAgent(leads LeadQueue, tenants TenantReader, log *logger.Logger) *SMSOutreachAgent {
	return &SMSOutreachAgent{leads: leads, tenants: tenants, log: log}
}

func (a *SMSOutreachAgent) Category() Category {
	return CategorySMSOutreach
}

func (a *SMSOutreachAgent) Run(ctx context.Context, tenantID uuid.UUID) error {
	tenant, err := a.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}

	leads, err := a.leads.ListByStatus(ctx, tenantID, leadrepo.StatusContacted, outreachBatchSize)
	if err != nil {
		return fmt.Errorf("list leads: %w", err)
	}

	for _, lead := range leads {
		if lead.CustomerPhone == "" {
			continue
		}
		a.log.Info("sms outreach draft",
			"tenantId", tenantID,
			"leadId", lead.ID,
			"to", lead.CustomerPhone,
			"body", fmt.Sprintf("Hi %s, %s here. Still interested in your %s job? Text back and we'll set up a time.",
				lead.CustomerName, tenant.Name, lead.JobCategory),
		)
	}
	return nil
}

// LeadNurtureAgent nudges leads that have sat in "new" for over a day with a
// follow-up email.
type LeadNurtureAgent struct {
	leads   LeadQueue
	tenants TenantReader
	queue   Enqueuer
	log     *logger.Logger
}

func NewLeadNurtureAgent(leads LeadQueue, tenants TenantReader, queue Enqueuer, log *logger.Logger) *LeadNurtureAgent {
	return &LeadNurtureAgent{leads: leads, tenants: tenants, queue: queue, log: log}
}

func (a *LeadNurtureAgent) Category() Category {
	return CategoryLeadNurture
}

func (a *LeadNurtureAgent) Run(ctx context.Context, tenantID uuid.UUID) error {
	tenant, err := a.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}

	leads, err := a.leads.ListByStatus(ctx, tenantID, leadrepo.StatusNew, outreachBatchSize)
	if err != nil {
		return fmt.Errorf("list leads: %w", err)
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	for _, lead := range leads {
		if lead.CreatedAt.After(cutoff) {
			continue
		}
		if lead.CustomerEmail == nil || *lead.CustomerEmail == "" {
			continue
		}
		payload := OutreachEmailPayload{
			TenantID: tenantID.String(),
			LeadID:   lead.ID.String(),
			ToEmail:  *lead.CustomerEmail,
			Subject:  fmt.Sprintf("Still need help with your %s job?", lead.JobCategory),
			Body: fmt.Sprintf("Hi %s, just checking in from %s. We still have availability "+
				"for your %s job this week if you'd like to get it on the calendar.",
				lead.CustomerName, tenant.Name, lead.JobCategory),
		}
		if err := a.queue.EnqueueOutreachEmail(ctx, payload); err != nil {
			return fmt.Errorf("enqueue nurture email: %w", err)
		}
	}
	return nil
}
