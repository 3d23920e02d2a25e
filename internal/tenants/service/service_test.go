package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/tenants/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/logger"

	"github.com/google/uuid"
)

type fakeTenantStore struct {
	byNumber map[string]repository.Tenant
	single   *repository.Tenant
	updated  *repository.AIConfig
}

func (f *fakeTenantStore) ResolveByPhoneNumber(_ context.Context, number string) (repository.Tenant, error) {
	tenant, ok := f.byNumber[number]
	if !ok {
		return repository.Tenant{}, repository.ErrNotFound
	}
	return tenant, nil
}

func (f *fakeTenantStore) GetByID(context.Context, uuid.UUID) (repository.Tenant, error) {
	return repository.Tenant{}, repository.ErrNotFound
}

func (f *fakeTenantStore) GetSingle(context.Context) (repository.Tenant, error) {
	if f.single == nil {
		return repository.Tenant{}, repository.ErrNotFound
	}
	return *f.single, nil
}

func (f *fakeTenantStore) UpdateAIConfig(_ context.Context, _ uuid.UUID, cfg repository.AIConfig, _ string) error {
	f.updated = &cfg
	return nil
}

func (f *fakeTenantStore) ListPhoneNumbers(context.Context, uuid.UUID) ([]string, error) {
	return nil, nil
}

type resolverCfg struct {
	fallback bool
}

func (c resolverCfg) GetConversationTTL() time.Duration { return 30 * time.Minute }
func (c resolverCfg) GetSingleTenantFallback() bool     { return c.fallback }
func (c resolverCfg) GetVoiceWebhookPath() string       { return "/webhooks/voice" }

func TestResolve_NormalizesNumberBeforeLookup(t *testing.T) {
	tenant := repository.Tenant{ID: uuid.New(), Name: "Hudson Handyman"}
	store := &fakeTenantStore{byNumber: map[string]repository.Tenant{"+12125551234": tenant}}
	svc := New(store, resolverCfg{}, logger.New("test"))

	got, err := svc.Resolve(context.Background(), "(212) 555-1234")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != tenant.ID {
		t.Fatalf("resolved wrong tenant: %+v", got)
	}
}

func TestResolve_UnknownNumber(t *testing.T) {
	svc := New(&fakeTenantStore{byNumber: map[string]repository.Tenant{}}, resolverCfg{}, logger.New("test"))

	_, err := svc.Resolve(context.Background(), "+12125550000")
	if !errors.Is(err, ErrNoTenant) {
		t.Fatalf("expected ErrNoTenant, got %v", err)
	}
}

func TestResolve_SingleTenantFallback(t *testing.T) {
	tenant := repository.Tenant{ID: uuid.New()}
	store := &fakeTenantStore{byNumber: map[string]repository.Tenant{}, single: &tenant}

	// Fallback off: unknown number stays unknown.
	svc := New(store, resolverCfg{fallback: false}, logger.New("test"))
	if _, err := svc.Resolve(context.Background(), "+12125550000"); !errors.Is(err, ErrNoTenant) {
		t.Fatalf("expected ErrNoTenant with fallback off, got %v", err)
	}

	// Fallback on: the only tenant wins.
	svc = New(store, resolverCfg{fallback: true}, logger.New("test"))
	got, err := svc.Resolve(context.Background(), "+12125550000")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != tenant.ID {
		t.Fatalf("fallback resolved wrong tenant: %+v", got)
	}
}

func TestUpdateAIConfig_NormalizesInput(t *testing.T) {
	store := &fakeTenantStore{}
	svc := New(store, resolverCfg{}, logger.New("test"))

	err := svc.UpdateAIConfig(context.Background(), uuid.New(), repository.AIConfig{
		EscalationKeywords: []string{"  Insurance Claim ", "LAWSUIT"},
	}, "owner@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if store.updated.Tone != "friendly" {
		t.Fatalf("expected default tone, got %q", store.updated.Tone)
	}
	if store.updated.EscalationKeywords[0] != "insurance claim" || store.updated.EscalationKeywords[1] != "lawsuit" {
		t.Fatalf("keywords not normalized: %v", store.updated.EscalationKeywords)
	}
	if store.updated.Services == nil {
		t.Fatal("services must default to an empty slice")
	}
}

func TestUpdateAIConfig_RejectsNegativeThreshold(t *testing.T) {
	svc := New(&fakeTenantStore{}, resolverCfg{}, logger.New("test"))

	err := svc.UpdateAIConfig(context.Background(), uuid.New(), repository.AIConfig{BudgetThresholdCents: -1}, "")
	if err == nil {
		t.Fatal("expected validation error")
	}
}
