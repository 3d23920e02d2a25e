// Package agents runs the recurring autonomous work: market scanning,
// outreach, lead nurture, and conversation sweeping.
package agents

import (
	"encoding/json"
	"time"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/plan"

	"github.com/hibiken/asynq"
)

// Category identifies one recurring task kind.
type Category string

const (
	CategoryMarketScan        Category = "market-scan"
	CategoryEmailOutreach     Category = "email-outreach"
	CategorySMSOutreach       Category = "sms-outreach"
	CategoryLeadNurture       Category = "lead-nurture"
	CategoryConversationSweep Category = "conversation-sweep"
)

// Task is one entry of the fixed scheduling table.
type Task struct {
	Category Category
	Interval time.Duration
	// Feature gates the task on the tenant's plan; empty means ungated.
	Feature plan.Feature
	// Global tasks run once per tick across all tenants instead of per tenant.
	Global bool
}

// DefaultTasks is the scheduling table evaluated by every cron tick.
var DefaultTasks = []Task{
	{Category: CategoryMarketScan, Interval: 6 * time.Hour, Feature: plan.FeatureMarketScanner},
	{Category: CategoryEmailOutreach, Interval: 4 * time.Hour, Feature: plan.FeatureOutreach},
	{Category: CategorySMSOutreach, Interval: 4 * time.Hour, Feature: plan.FeatureOutreach},
	{Category: CategoryLeadNurture, Interval: time.Hour, Feature: plan.FeatureLeadNurture},
	{Category: CategoryConversationSweep, Interval: 10 * time.Minute, Global: true},
}

const TaskOutreachEmail = "agents.outreach.email"

// OutreachEmailPayload is the asynq payload for one outbound email.
type OutreachEmailPayload struct {
	TenantID string `json:"tenantId"`
	LeadID   string `json:"leadId"`
	ToEmail  string `json:"toEmail"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

func NewOutreachEmailTask(payload OutreachEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOutreachEmail, data), nil
}

func ParseOutreachEmailPayload(task *asynq.Task) (OutreachEmailPayload, error) {
	var payload OutreachEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OutreachEmailPayload{}, err
	}
	return payload, nil
}
