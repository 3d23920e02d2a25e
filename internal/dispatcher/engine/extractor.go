package engine

import (
	"context"
	"strings"
)

// FallbackReply keeps the channel responsive when the generation backend is
// down or slow. Tenant-agnostic on purpose.
const FallbackReply = "Thanks for reaching out! Could you share your name, the job you need done, and the address? We'll get right back to you."

// Extractor runs one conversation turn: generate, merge fields, normalize
// the job type, and decide completeness.
type Extractor struct {
	generator Generator
}

func NewExtractor(generator Generator) *Extractor {
	return &Extractor{generator: generator}
}

// NextTurn produces the assistant reply and the updated field snapshot for
// one inbound customer message. Generator failure degrades to the canned
// fallback rather than failing the turn.
func (e *Extractor) NextTurn(ctx context.Context, cfg PromptConfig, known Fields, history []Turn, message string) TurnResult {
	req := GenerateRequest{
		System:  BuildSystemPrompt(cfg, known),
		History: history,
		Message: message,
	}

	result, err := e.generator.Generate(ctx, req)
	if err != nil {
		return TurnResult{
			Reply:    FallbackReply,
			Fields:   known,
			Fallback: true,
		}
	}

	merged := known.Merge(result.Fields)
	merged.JobType = NormalizeJobType(merged.JobType, cfg.Services)
	merged.Urgency = normalizeUrgency(merged.Urgency)

	reply := strings.TrimSpace(result.Reply)
	if reply == "" {
		reply = FallbackReply
	}

	return TurnResult{
		Reply:      reply,
		Fields:     merged,
		IsComplete: merged.Complete(),
		WantsEnd:   result.WantsEnd,
		Angry:      result.Angry,
	}
}

// NormalizeJobType snaps a free-text job description onto the tenant's
// service list, falling back to "General" when nothing matches. An empty
// input stays empty so completeness is not faked.
func NormalizeJobType(jobType string, services []string) string {
	if jobType == "" {
		return ""
	}
	lower := strings.ToLower(jobType)
	for _, svc := range services {
		svcLower := strings.ToLower(svc)
		if lower == svcLower || strings.Contains(lower, svcLower) || strings.Contains(svcLower, lower) {
			return svc
		}
	}
	if len(services) == 0 {
		return jobType
	}
	return "General"
}

func normalizeUrgency(urgency string) string {
	switch strings.ToLower(strings.TrimSpace(urgency)) {
	case "":
		return ""
	case "asap", "urgent", "emergency", "today", "now":
		return "ASAP"
	case "flexible", "whenever", "no rush":
		return "Flexible"
	default:
		return "Specific-date"
	}
}
