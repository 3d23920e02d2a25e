// Package leads provides the lead management bounded context module.
package leads

import (
	billing "github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/service"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/events"
	apphttp "github.com/majorpremiumllc/hustle-ai-sub001/internal/http"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/leads/handler"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/leads/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/leads/service"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, limits *billing.Service, eventBus events.Bus, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, limits, eventBus)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead service for cross-module use (the dispatcher
// records conversation-sourced leads through it).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the lead repository for background agents.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/leads")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Create)
	group.GET("/:id", m.handler.Get)
	group.PATCH("/:id/status", m.handler.UpdateStatus)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
