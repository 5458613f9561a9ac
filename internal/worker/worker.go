package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/andomingos87/seleto-industrial-sub000/internal/core/domain"
	"github.com/andomingos87/seleto-industrial-sub000/internal/infra/storage"
	"github.com/andomingos87/seleto-industrial-sub000/internal/metrics"
	syncer "github.com/andomingos87/seleto-industrial-sub000/internal/sync"
)

// Config holds polling worker settings.
type Config struct {
	Interval  time.Duration `yaml:"interval"`
	BatchSize int           `yaml:"batch_size"`
}

// Worker periodically picks up pending quotes and runs the sync pipeline for
// each. Failed runs are recorded on the quote and left for operator triage;
// the worker never retries a failed run on its own.
type Worker struct {
	cfg          Config
	orchestrator *syncer.Orchestrator
	quotes       storage.QuoteRepository
	leads        storage.LeadRepository
	log          *slog.Logger
}

// NewWorker creates a polling sync worker.
func NewWorker(cfg Config, orchestrator *syncer.Orchestrator, quotes storage.QuoteRepository, leads storage.LeadRepository) *Worker {
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 20
	}
	return &Worker{
		cfg:          cfg,
		orchestrator: orchestrator,
		quotes:       quotes,
		leads:        leads,
		log:          slog.With("component", "worker"),
	}
}

// Start runs the polling loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.processBatch(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processBatch(ctx)
		}
	}
}

func (w *Worker) processBatch(ctx context.Context) {
	if count, err := w.quotes.CountPending(ctx); err == nil {
		metrics.QuotesPending.Set(float64(count))
	}

	pending, err := w.quotes.GetPending(ctx, w.cfg.BatchSize)
	if err != nil {
		w.log.Error("failed to fetch pending quotes", "error", err)
		return
	}

	for _, quote := range pending {
		if ctx.Err() != nil {
			return
		}
		w.processQuote(ctx, quote)
	}
}

func (w *Worker) processQuote(ctx context.Context, quote *domain.Quote) {
	log := w.log.With("quote_id", quote.ID, "lead_id", quote.LeadID)

	lead, err := w.leads.GetByID(ctx, quote.LeadID)
	if err != nil {
		log.Error("failed to load lead for quote", "error", err)
		return
	}

	if !lead.ShouldSync() {
		quote.Status = domain.QuoteStatusSkipped
		if err := w.quotes.Save(ctx, quote); err != nil {
			log.Error("failed to mark quote skipped", "error", err)
		}
		log.Debug("lead not eligible for sync", "temperature", lead.Temperature)
		return
	}

	opportunityID, err := w.orchestrator.Sync(ctx, *lead, quote, false)
	if err != nil {
		if errors.Is(err, syncer.ErrSyncInProgress) {
			log.Debug("sync already running elsewhere, will revisit")
			return
		}
		// Already recorded on the quote by the orchestrator.
		log.Error("sync failed", "error", err)
		return
	}

	log.Info("quote synced", "opportunity_id", opportunityID)
}
