package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/events"
	marketrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/market/repository"
	tenantrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/tenants/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/ai/moonshot"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/logger"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const marketScanInstruction = `You are a market analyst for local home-service businesses.
Given a business's industry, services, and service area, propose concrete demand
opportunities: seasonal spikes, underserved neighborhoods, trending job types.
Respond ONLY with a JSON array of objects with keys: title, description,
category, region, score (0-1 relevance).`

type scanOpportunity struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Region      string  `json:"region"`
	Score       float64 `json:"score"`
}

// TenantReader provides the tenant context the scanner prompts with.
type TenantReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (tenantrepo.Tenant, error)
}

// MarketScanAgent periodically asks an LLM agent for demand opportunities in
// each tenant's service area and records them.
type MarketScanAgent struct {
	runner         *runner.Runner
	sessionService session.Service
	appName        string
	tenants        TenantReader
	opportunities  *marketrepo.Repository
	eventBus       events.Bus
	log            *logger.Logger
	enabled        bool
}

// NewMarketScanAgent builds the scanner on the ADK runtime with a Kimi model.
// With no API key the agent is disabled and records empty successful runs, so
// unconfigured environments keep a clean scheduler report.
func NewMarketScanAgent(apiKey string, tenants TenantReader, opportunities *marketrepo.Repository, eventBus events.Bus, log *logger.Logger) (*MarketScanAgent, error) {
	a := &MarketScanAgent{
		appName:       "market_scanner",
		tenants:       tenants,
		opportunities: opportunities,
		eventBus:      eventBus,
		log:           log,
	}
	if apiKey == "" {
		return a, nil
	}

	kimi := moonshot.NewModel(moonshot.Config{APIKey: apiKey})

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "MarketScanner",
		Model:       kimi,
		Description: "Finds local demand opportunities for home-service businesses.",
		Instruction: marketScanInstruction,
	})
	if err != nil {
		return nil, fmt.Errorf("create market scanner agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        a.appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("create market scanner runner: %w", err)
	}

	a.runner = r
	a.sessionService = sessionService
	a.enabled = true
	return a, nil
}

func (a *MarketScanAgent) Category() Category {
	return CategoryMarketScan
}

func (a *MarketScanAgent) Run(ctx context.Context, tenantID uuid.UUID) error {
	if !a.enabled {
		return nil
	}

	tenant, err := a.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("load tenant: %w", err)
	}

	output, err := a.scan(ctx, tenant)
	if err != nil {
		return err
	}

	found, err := parseScanOutput(output)
	if err != nil {
		return err
	}

	for _, opp := range found {
		created, err := a.opportunities.Create(ctx, marketrepo.NewOpportunity{
			TenantID:    tenantID,
			Title:       opp.Title,
			Description: opp.Description,
			Category:    opp.Category,
			Region:      opp.Region,
			Score:       opp.Score,
		})
		if err != nil {
			return fmt.Errorf("store opportunity: %w", err)
		}
		a.eventBus.Publish(ctx, events.MarketOpportunityFound{
			BaseEvent:     events.NewBaseEvent(),
			OpportunityID: created.ID,
			TenantID:      tenantID,
			Title:         created.Title,
			Category:      created.Category,
		})
	}
	return nil
}

func (a *MarketScanAgent) scan(ctx context.Context, tenant tenantrepo.Tenant) (string, error) {
	userID := "scanner-" + tenant.ID.String()
	sessionID := uuid.New().String()

	if _, err := a.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   a.appName,
		UserID:    userID,
		SessionID: sessionID,
	}); err != nil {
		return "", fmt.Errorf("create scan session: %w", err)
	}
	defer func() {
		_ = a.sessionService.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   a.appName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	prompt := fmt.Sprintf("Business: %s\nIndustry: %s\nServices: %s\nService area: %s",
		tenant.Name, tenant.Industry, strings.Join(tenant.AI.Services, ", "), tenant.ServiceArea)

	runConfig := agent.RunConfig{
		StreamingMode: agent.StreamingModeNone,
	}

	var output strings.Builder
	for event, err := range a.runner.Run(ctx, userID, sessionID, genai.NewContentFromText(prompt, genai.RoleUser), runConfig) {
		if err != nil {
			return "", fmt.Errorf("run market scan: %w", err)
		}
		if event == nil || event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			if part != nil && part.Text != "" {
				output.WriteString(part.Text)
			}
		}
	}
	return output.String(), nil
}

// parseScanOutput tolerates models that wrap the JSON array in prose or
// markdown fences.
func parseScanOutput(output string) ([]scanOpportunity, error) {
	start := strings.Index(output, "[")
	end := strings.LastIndex(output, "]")
	if start < 0 || end <= start {
		return nil, errors.New("scan output contains no JSON array")
	}

	var found []scanOpportunity
	if err := json.Unmarshal([]byte(output[start:end+1]), &found); err != nil {
		return nil, fmt.Errorf("parse scan output: %w", err)
	}
	return found, nil
}
