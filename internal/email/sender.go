// Package email delivers operational mail for tenants: escalation alerts,
// outreach, and nurture follow-ups.
package email

import "context"

// EscalationAlert carries what the business owner needs to call the customer
// back.
type EscalationAlert struct {
	TenantName    string
	CustomerPhone string
	CustomerName  string
	Reason        string
	Channel       string
	Transcript    []string
}

// LeadAlert notifies the owner of a freshly captured lead.
type LeadAlert struct {
	TenantName    string
	CustomerName  string
	CustomerPhone string
	JobCategory   string
	Urgency       string
	Address       string
}

// Sender is the outbound mail surface. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendEscalationAlert(ctx context.Context, toEmail string, alert EscalationAlert) error
	SendLeadAlert(ctx context.Context, toEmail string, alert LeadAlert) error
	SendOutreach(ctx context.Context, toEmail, subject, body string) error
}

// NoopSender drops all mail. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendEscalationAlert(context.Context, string, EscalationAlert) error { return nil }
func (NoopSender) SendLeadAlert(context.Context, string, LeadAlert) error             { return nil }
func (NoopSender) SendOutreach(context.Context, string, string, string) error         { return nil }

var _ Sender = NoopSender{}
