package agents

import (
	"context"
	"sync"
	"time"

	"github.com/majorpremiumllc/hustle-ai-sub001/platform/logger"
)

// Loop drives the runner on a fixed tick. Start and Stop are safe to call
// from handlers; the loop also stops when its parent context ends.
type Loop struct {
	runner *Runner
	tick   time.Duration
	log    *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewLoop(runner *Runner, tick time.Duration, log *logger.Logger) *Loop {
	if tick <= 0 {
		tick = time.Minute
	}
	return &Loop{runner: runner, tick: tick, log: log}
}

// Start begins ticking. Returns false when the loop is already running.
func (l *Loop) Start(parent context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return false
	}

	ctx, cancel := context.WithCancel(parent)
	l.cancel = cancel
	go l.run(ctx)
	l.log.Info("scheduler loop started", "tick", l.tick)
	return true
}

// Stop halts ticking. Returns false when the loop was not running.
func (l *Loop) Stop() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel == nil {
		return false
	}
	l.cancel()
	l.cancel = nil
	l.log.Info("scheduler loop stopped")
	return true
}

func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

func (l *Loop) run(ctx context.Context) {
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			reports := l.runner.RunDue(ctx, now)
			ran, failed := 0, 0
			for _, report := range reports {
				switch report.Status {
				case ReportRan:
					ran++
				case ReportFailed:
					failed++
				}
			}
			if ran > 0 || failed > 0 {
				l.log.Info("scheduler tick", "ran", ran, "failed", failed, "total", len(reports))
			}
		}
	}
}
