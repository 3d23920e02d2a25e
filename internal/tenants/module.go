// Package tenants provides the tenant and AI-settings bounded context module.
package tenants

import (
	apphttp "github.com/majorpremiumllc/hustle-ai-sub001/internal/http"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/tenants/handler"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/tenants/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/tenants/service"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/config"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/logger"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the tenants bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the tenants module with all its dependencies.
func NewModule(pool *pgxpool.Pool, cfg config.DispatcherConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "tenants"
}

// Service returns the tenant resolver for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the tenant repository for background agents.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts tenant routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/settings")
	group.GET("/ai", m.handler.GetAISettings)
	group.PUT("/ai", m.handler.UpdateAISettings)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
