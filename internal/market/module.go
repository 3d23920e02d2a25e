// Package market provides the market opportunity bounded context module.
package market

import (
	"net/http"
	"strconv"
	"time"

	apphttp "github.com/majorpremiumllc/hustle-ai-sub001/internal/http"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/market/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the market bounded context module implementing http.Module.
type Module struct {
	repo *repository.Repository
}

// NewModule creates and initializes the market module.
func NewModule(pool *pgxpool.Pool) *Module {
	return &Module{repo: repository.New(pool)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "market"
}

// Repository returns the opportunity repository for the scanner agent.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

type opportunityResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Region      string    `json:"region"`
	Score       float64   `json:"score"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (m *Module) list(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant", nil)
		return
	}

	limit := 0
	if v := c.Query("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	opportunities, err := m.repo.List(c.Request.Context(), tenantID, limit)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]opportunityResponse, 0, len(opportunities))
	for _, opp := range opportunities {
		out = append(out, opportunityResponse{
			ID:          opp.ID,
			Title:       opp.Title,
			Description: opp.Description,
			Category:    opp.Category,
			Region:      opp.Region,
			Score:       opp.Score,
			CreatedAt:   opp.CreatedAt,
		})
	}
	httpkit.OK(c, gin.H{"opportunities": out})
}

// RegisterRoutes mounts market routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/market/opportunities", m.list)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
