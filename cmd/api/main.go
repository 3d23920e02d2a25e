package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/agents"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/dispatcher"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/email"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/events"
	apphttp "github.com/majorpremiumllc/hustle-ai-sub001/internal/http"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/http/router"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/leads"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/market"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/notification"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/tenants"
	"github.com/majorpremiumllc/hustle-ai-sub001/migrations"
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

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	rdb := initRedis(cfg, log)
	if rdb != nil {
		defer rdb.Close()
	}

	sender := email.NewSenderFromConfig(cfg)

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Notification hooks subscribe to domain events (not HTTP-facing)
	tenantsModule := tenants.NewModule(pool, cfg, val, log)
	notifier := notification.New(tenantsModule.Repository(), sender, log)
	notifier.Register(eventBus)

	billingModule := billing.NewModule(pool)
	leadsModule := leads.NewModule(pool, billingModule.Service(), eventBus, val)
	marketModule := market.NewModule(pool)

	dispatcherModule, err := dispatcher.NewModule(
		ctx, pool, tenantsModule.Service(), leadsModule.Service(),
		billingModule.Service(), eventBus, cfg, val, log,
	)
	if err != nil {
		log.Error("failed to initialize dispatcher module", "error", err)
		panic("failed to initialize dispatcher module: " + err.Error())
	}

	queue, closeQueue := initAgentQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	agentsModule, err := agents.NewModule(pool, rdb, agents.Deps{
		Tenants:       tenantsModule.Repository(),
		Leads:         leadsModule.Repository(),
		Conversations: dispatcherModule.ConversationStore(),
		Market:        marketModule.Repository(),
		Features:      billingModule.Service(),
		Sender:        sender,
		Queue:         queue,
		EventBus:      eventBus,
	}, cfg, val, log)
	if err != nil {
		log.Error("failed to initialize agents module", "error", err)
		panic("failed to initialize agents module: " + err.Error())
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			tenantsModule,
			billingModule,
			leadsModule,
			marketModule,
			dispatcherModule,
			agentsModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
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

func initAgentQueue(cfg config.SchedulerConfig, log *logger.Logger) (agents.Enqueuer, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; outreach email queue disabled")
		return noopQueue{}, nil
	}

	client, err := agents.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize agent queue client", "error", err)
		return noopQueue{}, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

type noopQueue struct{}

func (noopQueue) EnqueueOutreachEmail(context.Context, agents.OutreachEmailPayload) error {
	return nil
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
