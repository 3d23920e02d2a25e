package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/agents"
	billingrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/repository"
	billingsvc "github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/service"
	convrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/conversations/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/email"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/events"
	leadrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/leads/repository"
	marketrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/market/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/notification"
	tenantrepo "github.com/majorpremiumllc/hustle-ai-sub001/internal/tenants/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/config"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/db"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/logger"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting agentd", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	sender := email.NewSenderFromConfig(cfg)

	tenantsRepo := tenantrepo.New(pool)
	notifier := notification.New(tenantsRepo, sender, log)
	notifier.Register(eventBus)

	val := validator.New()

	rdb := initRedis(cfg, log)
	if rdb != nil {
		defer rdb.Close()
	}

	queueClient, err := agents.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize agent queue client", "error", err)
		panic("failed to initialize agent queue client: " + err.Error())
	}
	defer func() { _ = queueClient.Close() }()

	agentsModule, err := agents.NewModule(pool, rdb, agents.Deps{
		Tenants:       tenantsRepo,
		Leads:         leadrepo.New(pool),
		Conversations: convrepo.New(pool),
		Market:        marketrepo.New(pool),
		Features:      billingsvc.New(billingrepo.New(pool)),
		Sender:        sender,
		Queue:         queueClient,
		EventBus:      eventBus,
	}, cfg, val, log)
	if err != nil {
		log.Error("failed to initialize agents module", "error", err)
		panic("failed to initialize agents module: " + err.Error())
	}

	worker, err := agents.NewWorker(cfg, sender, log)
	if err != nil {
		log.Error("failed to initialize agent worker", "error", err)
		panic("failed to initialize agent worker: " + err.Error())
	}

	agentsModule.Loop().Start(ctx)
	worker.Run(ctx)
}

func initRedis(cfg config.SchedulerConfig, log *logger.Logger) *redis.Client {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		log.Warn("REDIS_URL not configured; scheduler leases fall back to database guards")
		return nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Error("invalid REDIS_URL", "error", err)
		return nil
	}
	if opt.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig.InsecureSkipVerify = true
	}

	return redis.NewClient(opt)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
