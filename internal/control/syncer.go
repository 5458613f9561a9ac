package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pressly/goose/v3"

	"github.com/andomingos87/seleto-industrial-sub000/internal/core/config"
	"github.com/andomingos87/seleto-industrial-sub000/internal/health"
	"github.com/andomingos87/seleto-industrial-sub000/internal/infra/crm"
	redisclient "github.com/andomingos87/seleto-industrial-sub000/internal/infra/redis"
	"github.com/andomingos87/seleto-industrial-sub000/internal/infra/storage"
	"github.com/andomingos87/seleto-industrial-sub000/internal/infra/storage/memory"
	"github.com/andomingos87/seleto-industrial-sub000/internal/infra/storage/postgres"
	syncer "github.com/andomingos87/seleto-industrial-sub000/internal/sync"
	"github.com/andomingos87/seleto-industrial-sub000/internal/worker"
)

// Syncer is the main application struct that manages the sync worker
// lifecycle.
type Syncer struct {
	cfg          config.AppConfig
	db           *postgres.DB
	redisClient  *redisclient.Client
	crmClient    *crm.Client
	quotes       storage.QuoteRepository
	leads        storage.LeadRepository
	worker       *worker.Worker
	healthServer *health.Server
	log          *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSyncer creates a new Syncer instance with all dependencies initialized.
func NewSyncer(cfg config.AppConfig) (*Syncer, error) {
	log := slog.With("component", "control")

	s := &Syncer{
		cfg:  cfg,
		log:  log,
		done: make(chan struct{}),
	}

	// 1. Storage: postgres when configured, memory otherwise (local runs/tests)
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		s.db = db

		if err := goose.SetDialect("postgres"); err != nil {
			return nil, fmt.Errorf("failed to set goose dialect: %w", err)
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		s.quotes = postgres.NewQuoteRepo(db)
		s.leads = postgres.NewLeadRepo(db)
		log.Info("using postgres storage")
	} else {
		store := memory.NewMemoryStorage()
		s.quotes = memory.NewQuoteRepo(store)
		s.leads = memory.NewLeadRepo(store)
		log.Warn("no database configured, using in-memory storage")
	}

	// 2. Redis (optional): backs the per-lead sync lock
	var locker syncer.Locker
	if cfg.Redis.URL != "" {
		redisClient, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.redisClient = redisClient
		locker = redisClient
		log.Info("per-lead sync locking enabled")
	} else {
		log.Warn("no redis configured, concurrent syncs of the same lead may duplicate deals")
	}

	// 3. CRM client
	s.crmClient = crm.NewClient(cfg.CRM)
	if !s.crmClient.IsConfigured() {
		log.Warn("crm client not configured, sync runs will fail until base URL and token are set")
	}

	// 4. Orchestrator and worker
	orchestrator := syncer.NewOrchestrator(s.crmClient, s.quotes, locker)
	s.worker = worker.NewWorker(cfg.Worker, orchestrator, s.quotes, s.leads)

	// 5. Health server
	var dbPinger, redisPinger health.Pinger
	if s.db != nil {
		dbPinger = s.db
	}
	if s.redisClient != nil {
		redisPinger = s.redisClient
	}
	monitor := health.NewMonitor(dbPinger, redisPinger, s.crmClient.IsConfigured)
	s.healthServer = health.NewServer(monitor, cfg.Server.Port)

	return s, nil
}

// Start launches the worker and the health server.
func (s *Syncer) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	if s.db != nil {
		s.db.StartMetricsCollector(ctx)
	}

	go func() {
		defer close(s.done)
		s.worker.Start(ctx)
	}()

	go func() {
		s.log.Info("health server listening", "port", s.cfg.Server.Port)
		if err := s.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("health server stopped", "error", err)
		}
	}()

	s.log.Info("syncer started",
		"poll_interval", s.cfg.Worker.Interval,
		"batch_size", s.cfg.Worker.BatchSize)
	return nil
}

// Stop gracefully shuts everything down.
func (s *Syncer) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	// Wait for the in-flight batch to finish or the shutdown deadline.
	select {
	case <-s.done:
	case <-ctx.Done():
		s.log.Warn("shutdown deadline reached before worker stopped")
	}

	if err := s.healthServer.Stop(ctx); err != nil {
		s.log.Warn("failed to stop health server", "error", err)
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.log.Warn("failed to close redis", "error", err)
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Warn("failed to close database", "error", err)
		}
	}
	return nil
}
