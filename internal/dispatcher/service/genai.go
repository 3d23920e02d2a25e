package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/conversations/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/dispatcher/engine"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/config"

	"google.golang.org/genai"
)

// turnSchema constrains Gemini to the structured turn shape so the reply can
// be parsed without prompt-format drift.
var turnSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"reply": {Type: genai.TypeString},
		"fields": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"customerName":  {Type: genai.TypeString},
				"jobType":       {Type: genai.TypeString},
				"address":       {Type: genai.TypeString},
				"urgency":       {Type: genai.TypeString},
				"preferredDate": {Type: genai.TypeString},
				"notes":         {Type: genai.TypeString},
				"photoIntent":   {Type: genai.TypeBoolean},
			},
		},
		"wantsEnd": {Type: genai.TypeBoolean},
		"angry":    {Type: genai.TypeBoolean},
	},
	Required: []string{"reply"},
}

// GeminiGenerator implements engine.Generator against the Gemini API.
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiGenerator builds the production generator from application config.
func NewGeminiGenerator(ctx context.Context, cfg config.GenAIConfig) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GeminiGenerator{
		client:  client,
		model:   cfg.GetGeminiModel(),
		timeout: cfg.GetGenerationTimeout(),
	}, nil
}

// Generate runs one structured conversation turn. The per-call timeout keeps
// a slow provider from hanging the webhook; the caller degrades to the
// fallback reply on error.
func (g *GeminiGenerator) Generate(ctx context.Context, req engine.GenerateRequest) (engine.GenerateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		var role genai.Role = genai.RoleUser
		if turn.Role == repository.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(req.Message, genai.RoleUser))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    turnSchema,
	})
	if err != nil {
		return engine.GenerateResult{}, fmt.Errorf("generate turn: %w", err)
	}

	var result engine.GenerateResult
	if err := json.Unmarshal([]byte(resp.Text()), &result); err != nil {
		return engine.GenerateResult{}, fmt.Errorf("parse turn response: %w", err)
	}
	return result, nil
}

var _ engine.Generator = (*GeminiGenerator)(nil)
