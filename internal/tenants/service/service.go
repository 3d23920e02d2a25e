// Package service implements tenant resolution and AI settings management.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/tenants/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/apperr"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/config"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/logger"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/phone"

	"github.com/google/uuid"
)

// ErrNoTenant is returned when an inbound number maps to no tenant.
var ErrNoTenant = errors.New("no tenant for number")

// Store is the persistence surface the service needs.
type Store interface {
	ResolveByPhoneNumber(ctx context.Context, number string) (repository.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Tenant, error)
	GetSingle(ctx context.Context) (repository.Tenant, error)
	UpdateAIConfig(ctx context.Context, tenantID uuid.UUID, cfg repository.AIConfig, notifyEmail string) error
	ListPhoneNumbers(ctx context.Context, tenantID uuid.UUID) ([]string, error)
}

type Service struct {
	store Store
	cfg   config.DispatcherConfig
	log   *logger.Logger
}

func New(store Store, cfg config.DispatcherConfig, log *logger.Logger) *Service {
	return &Service{store: store, cfg: cfg, log: log}
}

// Resolve maps the business-side number of an inbound message to its tenant.
// Numbers are normalized to E.164 before lookup so provider formatting
// differences ("+1 555..." vs "15555551234") hit the same row.
func (s *Service) Resolve(ctx context.Context, businessNumber string) (repository.Tenant, error) {
	normalized := phone.NormalizeE164(businessNumber)
	if normalized == "" {
		normalized = strings.TrimSpace(businessNumber)
	}

	tenant, err := s.store.ResolveByPhoneNumber(ctx, normalized)
	if err == nil {
		return tenant, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return repository.Tenant{}, fmt.Errorf("resolve tenant: %w", err)
	}

	// Development convenience only. In production an unmapped number is a
	// misconfiguration and must not leak another tenant's conversations.
	if s.cfg.GetSingleTenantFallback() {
		tenant, err = s.store.GetSingle(ctx)
		if err == nil {
			s.log.Warn("tenant resolved via single-tenant fallback", "number", normalized)
			return tenant, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return repository.Tenant{}, fmt.Errorf("resolve fallback tenant: %w", err)
		}
	}

	return repository.Tenant{}, ErrNoTenant
}

// GetAIConfig returns the dispatcher settings for a tenant.
func (s *Service) GetAIConfig(ctx context.Context, tenantID uuid.UUID) (repository.Tenant, error) {
	tenant, err := s.store.GetByID(ctx, tenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Tenant{}, apperr.NotFound("tenant not found")
	}
	return tenant, err
}

// UpdateAIConfig validates and persists the dispatcher settings.
func (s *Service) UpdateAIConfig(ctx context.Context, tenantID uuid.UUID, cfg repository.AIConfig, notifyEmail string) error {
	if cfg.BudgetThresholdCents < 0 {
		return apperr.Validation("budget threshold must not be negative")
	}
	if cfg.Tone == "" {
		cfg.Tone = "friendly"
	}
	if cfg.Services == nil {
		cfg.Services = []string{}
	}
	if cfg.EscalationKeywords == nil {
		cfg.EscalationKeywords = []string{}
	}
	for i, kw := range cfg.EscalationKeywords {
		cfg.EscalationKeywords[i] = strings.ToLower(strings.TrimSpace(kw))
	}

	err := s.store.UpdateAIConfig(ctx, tenantID, cfg, notifyEmail)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("tenant not found")
	}
	return err
}

// PhoneNumbers lists the numbers mapped to a tenant.
func (s *Service) PhoneNumbers(ctx context.Context, tenantID uuid.UUID) ([]string, error) {
	return s.store.ListPhoneNumbers(ctx, tenantID)
}
