// Package dispatcher provides the inbound channel bounded context module.
// This file defines the module that encapsulates dispatcher setup and route
// registration.
package dispatcher

import (
	"context"
	"errors"

	billing "github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/service"
	convrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/conversations/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/dispatcher/engine"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/dispatcher/handler"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/dispatcher/service"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/events"
	apphttp "github.com/majorpremiumllc/hustle-ai-sub001/internal/http"
	leadsvc "github.com/majorpremiumllc/hustle-ai-sub001/internal/leads/service"
	tenantsvc "github.com/majorpremiumllc/hustle-ai-sub001/internal/tenants/service"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/config"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/logger"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ModuleConfig combines the config interfaces the dispatcher needs.
type ModuleConfig interface {
	config.DispatcherConfig
	config.GenAIConfig
}

// Module is the dispatcher bounded context module implementing http.Module.
type Module struct {
	handler      *handler.Handler
	orchestrator *service.Orchestrator
	store        *convrepo.Repository
}

// NewModule creates and initializes the dispatcher module. When generation is
// not configured the engine runs on its deterministic fallback replies, which
// keeps webhooks alive in environments without an API key.
func NewModule(
	ctx context.Context,
	pool *pgxpool.Pool,
	tenants *tenantsvc.Service,
	leads *leadsvc.Service,
	limits *billing.Service,
	eventBus events.Bus,
	cfg ModuleConfig,
	val *validator.Validator,
	log *logger.Logger,
) (*Module, error) {
	var generator engine.Generator
	if cfg.IsGenAIEnabled() {
		gemini, err := service.NewGeminiGenerator(ctx, cfg)
		if err != nil {
			return nil, err
		}
		generator = gemini
	} else {
		log.Warn("generation backend not configured, dispatcher will use fallback replies")
		generator = disabledGenerator{}
	}

	store := convrepo.New(pool)
	orchestrator := service.NewOrchestrator(tenants, store, leads, limits, generator, eventBus, cfg, log)
	h := handler.New(orchestrator, val, cfg, log)

	return &Module{handler: h, orchestrator: orchestrator, store: store}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "dispatcher"
}

// Orchestrator returns the turn orchestrator for cross-module use.
func (m *Module) Orchestrator() *service.Orchestrator {
	return m.orchestrator
}

// ConversationStore returns the conversation repository for the sweeper agent.
func (m *Module) ConversationStore() *convrepo.Repository {
	return m.store
}

// RegisterRoutes mounts the channel webhooks on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Webhooks.POST("/voice", m.handler.Voice)
	ctx.Webhooks.POST("/sms", m.handler.SMS)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

type disabledGenerator struct{}

func (disabledGenerator) Generate(context.Context, engine.GenerateRequest) (engine.GenerateResult, error) {
	return engine.GenerateResult{}, errors.New("generation disabled")
}
