package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/majorpremiumllc/hustle-ai-sub001/platform/logger"

	"github.com/google/uuid"
)

// StaleCloser closes conversations that went quiet past their TTL.
type StaleCloser interface {
	CloseAllStale(ctx context.Context, ttl time.Duration) (int64, error)
}

// RunReaper fails agent runs whose worker died mid-flight.
type RunReaper interface {
	ReapStuckRuns(ctx context.Context, olderThan time.Duration) (int64, error)
}

// ConversationSweepAgent is the global housekeeping task. It closes stale
// conversations across all tenants and reaps agent runs stuck in "running".
type ConversationSweepAgent struct {
	conversations StaleCloser
	runs          RunReaper
	ttl           time.Duration
	log           *logger.Logger
}

func NewConversationSweepAgent(conversations StaleCloser, runs RunReaper, ttl time.Duration, log *logger.Logger) *ConversationSweepAgent {
	return &ConversationSweepAgent{conversations: conversations, runs: runs, ttl: ttl, log: log}
}

func (a *ConversationSweepAgent) Category() Category {
	return CategoryConversationSweep
}

func (a *ConversationSweepAgent) Run(ctx context.Context, _ uuid.UUID) error {
	closed, err := a.conversations.CloseAllStale(ctx, a.ttl)
	if err != nil {
		return fmt.Errorf("close stale conversations: %w", err)
	}

	reaped, err := a.runs.ReapStuckRuns(ctx, stuckRunCutoff)
	if err != nil {
		return fmt.Errorf("reap stuck runs: %w", err)
	}

	if closed > 0 || reaped > 0 {
		a.log.Info("sweep completed", "conversationsClosed", closed, "runsReaped", reaped)
	}
	return nil
}
