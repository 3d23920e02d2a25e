// Package billing provides the subscription and plan-limit bounded context module.
package billing

import (
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/handler"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/service"
	apphttp "github.com/majorpremiumllc/hustle-ai-sub001/internal/http"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the billing bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the billing module with all its dependencies.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	h := handler.New(svc, repo)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "billing"
}

// Service returns the limit-check service for cross-module use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts billing routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/billing")
	group.GET("/subscription", m.handler.GetSubscription)
	group.GET("/limits/:resource", m.handler.GetLimit)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
