// Package service implements plan-limit and feature-gate checks against the
// tenant's current subscription.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/plan"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/repository"

	"github.com/google/uuid"
)

const (
	ReasonNoSubscription       = "no subscription"
	ReasonSubscriptionCanceled = "subscription canceled"
	ReasonLimitReached         = "limit reached"
)

// LimitDecision is the structured result of a limit check. Callers render
// upgrade prompts from this exact shape.
type LimitDecision struct {
	Allowed bool   `json:"allowed"`
	Used    int    `json:"used"`
	Limit   int    `json:"limit"`
	Reason  string `json:"reason,omitempty"`
}

// FeatureDecision is the structured result of a feature-gate check.
type FeatureDecision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// SubscriptionStore is the persistence surface the service needs.
type SubscriptionStore interface {
	GetByTenant(ctx context.Context, tenantID uuid.UUID) (repository.Subscription, error)
	IncrementLeadUsage(ctx context.Context, tenantID uuid.UUID) error
	RolloverPeriod(ctx context.Context, tenantID uuid.UUID, start, end time.Time) error
	CountResource(ctx context.Context, tenantID uuid.UUID, resource plan.Resource) (int, error)
}

type Service struct {
	store SubscriptionStore
}

func New(store SubscriptionStore) *Service {
	return &Service{store: store}
}

// CheckLimit compares current usage of a resource against the tenant's plan
// limits. A denied decision is normal control flow, not an error. An expired
// billing window rolls over lazily here, so usage resets the moment the new
// period starts even if the billing system's webhook is late.
func (s *Service) CheckLimit(ctx context.Context, tenantID uuid.UUID, resource plan.Resource) (LimitDecision, error) {
	sub, err := s.store.GetByTenant(ctx, tenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return LimitDecision{Allowed: false, Reason: ReasonNoSubscription}, nil
	}
	if err != nil {
		return LimitDecision{}, fmt.Errorf("load subscription: %w", err)
	}

	if sub.Status == plan.StatusCanceled {
		return LimitDecision{Allowed: false, Reason: ReasonSubscriptionCanceled}, nil
	}

	if now := time.Now(); !sub.PeriodEnd.IsZero() && !now.Before(sub.PeriodEnd) {
		start, end := nextPeriod(sub, now)
		if err := s.store.RolloverPeriod(ctx, tenantID, start, end); err != nil {
			return LimitDecision{}, fmt.Errorf("rollover period: %w", err)
		}
		sub.LeadsUsed = 0
		sub.PeriodStart, sub.PeriodEnd = start, end
	}

	limits := plan.LimitsFor(sub.Plan)
	cap := limits.Cap(resource)

	var used int
	if resource == plan.ResourceLeads {
		// Always the current period's counter, never lifetime totals.
		used = sub.LeadsUsed
	} else {
		used, err = s.store.CountResource(ctx, tenantID, resource)
		if err != nil {
			return LimitDecision{}, fmt.Errorf("count %s: %w", resource, err)
		}
	}

	if cap == plan.Unlimited {
		return LimitDecision{Allowed: true, Used: used, Limit: plan.Unlimited}, nil
	}

	decision := LimitDecision{Used: used, Limit: cap}
	if used >= cap {
		decision.Reason = ReasonLimitReached
		return decision, nil
	}
	decision.Allowed = true
	return decision, nil
}

// CheckFeature reports whether the tenant's plan includes a feature.
func (s *Service) CheckFeature(ctx context.Context, tenantID uuid.UUID, feature plan.Feature) (FeatureDecision, error) {
	sub, err := s.store.GetByTenant(ctx, tenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return FeatureDecision{Allowed: false, Reason: ReasonNoSubscription}, nil
	}
	if err != nil {
		return FeatureDecision{}, fmt.Errorf("load subscription: %w", err)
	}

	if sub.Status == plan.StatusCanceled {
		return FeatureDecision{Allowed: false, Reason: ReasonSubscriptionCanceled}, nil
	}

	if !plan.LimitsFor(sub.Plan).HasFeature(feature) {
		return FeatureDecision{Allowed: false, Reason: fmt.Sprintf("plan %s does not include %s", sub.Plan, feature)}, nil
	}
	return FeatureDecision{Allowed: true}, nil
}

// RecordLeadUsage bumps the period lead counter after a lead is created.
func (s *Service) RecordLeadUsage(ctx context.Context, tenantID uuid.UUID) error {
	return s.store.IncrementLeadUsage(ctx, tenantID)
}

// nextPeriod advances the billing window past now, stepping by the
// subscription's interval. Several missed windows in a row still land on a
// boundary aligned with the original period start.
func nextPeriod(sub repository.Subscription, now time.Time) (time.Time, time.Time) {
	step := func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	if sub.BillingInterval == "yearly" {
		step = func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }
	}
	start, end := sub.PeriodStart, sub.PeriodEnd
	for !now.Before(end) {
		start, end = end, step(end)
	}
	return start, end
}
