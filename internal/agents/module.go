package agents

import (
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/agents/repository"
	convrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/conversations/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/email"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/events"
	apphttp "github.com/majorpremiumllc/hustle-ai-sub001/internal/http"
	leadrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/leads/repository"
	marketrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/market/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/config"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/logger"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// ModuleConfig combines the config interfaces the agent scheduler needs.
type ModuleConfig interface {
	config.SchedulerConfig
	config.AgentAIConfig
	config.DispatcherConfig
}

// Deps are the cross-module collaborators the executors work against.
type Deps struct {
	Tenants       TenantStore
	Leads         *leadrepo.Repository
	Conversations *convrepo.Repository
	Market        *marketrepo.Repository
	Features      FeatureChecker
	Sender        email.Sender
	Queue         Enqueuer
	EventBus      events.Bus
}

// TenantStore joins the two tenant lookups the scheduler needs.
type TenantStore interface {
	TenantLister
	TenantReader
}

// Module is the agents bounded context module implementing http.Module.
type Module struct {
	runner *Runner
	loop   *Loop
	repo   *repository.Repository
	val    *validator.Validator
}

// NewModule assembles the runner with every executor registered. A nil redis
// client downgrades leasing to database-only guards.
func NewModule(
	pool *pgxpool.Pool,
	rdb *redis.Client,
	deps Deps,
	cfg ModuleConfig,
	val *validator.Validator,
	log *logger.Logger,
) (*Module, error) {
	repo := repository.New(pool)
	lease := NewLease(rdb)

	apiKey := ""
	if cfg.IsAgentAIEnabled() {
		apiKey = cfg.GetMoonshotAPIKey()
	}
	marketScan, err := NewMarketScanAgent(apiKey, deps.Tenants, deps.Market, deps.EventBus, log)
	if err != nil {
		return nil, err
	}

	executors := []Executor{
		marketScan,
		NewEmailOutreachAgent(deps.Leads, deps.Tenants, deps.Queue, log),
		NewSMSOutreachAgent(deps.Leads, deps.Tenants, log),
		NewLeadNurtureAgent(deps.Leads, deps.Tenants, deps.Queue, log),
		NewConversationSweepAgent(deps.Conversations, repo, cfg.GetConversationTTL(), log),
	}

	runner := NewRunner(DefaultTasks, executors, repo, deps.Tenants, deps.Features, lease, deps.EventBus, log)
	loop := NewLoop(runner, cfg.GetSchedulerTick(), log)

	return &Module{runner: runner, loop: loop, repo: repo, val: val}, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "agents"
}

// Runner exposes the scheduler for the agentd process.
func (m *Module) Runner() *Runner {
	return m.runner
}

// Loop exposes the tick loop for the agentd process.
func (m *Module) Loop() *Loop {
	return m.loop
}

// RegisterRoutes mounts the cron trigger and the manual agent controls.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	h := &handler{runner: m.runner, loop: m.loop, runs: m.repo, val: m.val}

	ctx.Cron.GET("/run", h.cronRun)

	group := ctx.Protected.Group("/agents")
	group.POST("/run", h.runAgent)
	group.POST("/control", h.control)
	group.GET("/runs", h.recentRuns)
}

var _ apphttp.Module = (*Module)(nil)
