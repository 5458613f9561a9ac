package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/andomingos87/seleto-industrial-sub000/internal/core/domain"
	"github.com/andomingos87/seleto-industrial-sub000/internal/infra/storage"
)

func TestQuoteRepo_SetOpportunityIDIsWriteOnce(t *testing.T) {
	store := NewMemoryStorage()
	repo := NewQuoteRepo(store)
	ctx := context.Background()

	quote := &domain.Quote{ID: uuid.New(), LeadID: uuid.New()}
	if err := repo.Save(ctx, quote); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := repo.SetOpportunityID(ctx, quote.ID, 100, false); err != nil {
		t.Fatalf("first write failed: %v", err)
	}

	err := repo.SetOpportunityID(ctx, quote.ID, 200, false)
	if !errors.Is(err, storage.ErrAlreadySynced) {
		t.Fatalf("expected ErrAlreadySynced, got %v", err)
	}

	got, _ := repo.GetByID(ctx, quote.ID)
	if got.OpportunityID == nil || *got.OpportunityID != 100 {
		t.Errorf("expected original id 100 preserved, got %v", got.OpportunityID)
	}

	// force overwrites
	if err := repo.SetOpportunityID(ctx, quote.ID, 200, true); err != nil {
		t.Fatalf("forced write failed: %v", err)
	}
	got, _ = repo.GetByID(ctx, quote.ID)
	if *got.OpportunityID != 200 {
		t.Errorf("expected forced overwrite to 200, got %d", *got.OpportunityID)
	}
}

func TestQuoteRepo_GetPendingExcludesSyncedAndFailed(t *testing.T) {
	store := NewMemoryStorage()
	repo := NewQuoteRepo(store)
	ctx := context.Background()

	pending := &domain.Quote{ID: uuid.New(), LeadID: uuid.New()}
	synced := &domain.Quote{ID: uuid.New(), LeadID: uuid.New()}
	failed := &domain.Quote{ID: uuid.New(), LeadID: uuid.New()}
	for _, q := range []*domain.Quote{pending, synced, failed} {
		if err := repo.Save(ctx, q); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if err := repo.SetOpportunityID(ctx, synced.ID, 1, false); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if err := repo.RecordSyncFailure(ctx, failed.ID, "boom"); err != nil {
		t.Fatalf("record failure failed: %v", err)
	}

	got, err := repo.GetPending(ctx, 10)
	if err != nil {
		t.Fatalf("GetPending failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != pending.ID {
		t.Errorf("expected only the pending quote, got %d quotes", len(got))
	}

	count, err := repo.CountPending(ctx)
	if err != nil || count != 1 {
		t.Errorf("expected 1 pending, got %d (%v)", count, err)
	}
}

func TestQuoteRepo_NotFound(t *testing.T) {
	repo := NewQuoteRepo(NewMemoryStorage())
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, storage.ErrQuoteNotFound) {
		t.Errorf("expected ErrQuoteNotFound, got %v", err)
	}
	if err := repo.SetOpportunityID(ctx, uuid.New(), 1, false); !errors.Is(err, storage.ErrQuoteNotFound) {
		t.Errorf("expected ErrQuoteNotFound, got %v", err)
	}
}

func TestLeadRepo_RoundTrip(t *testing.T) {
	store := NewMemoryStorage()
	repo := NewLeadRepo(store)
	ctx := context.Background()

	lead := &domain.LeadSnapshot{
		ID:          uuid.New(),
		Name:        "Maria",
		Temperature: domain.TemperatureHot,
	}
	if err := repo.Save(ctx, lead); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := repo.GetByID(ctx, lead.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Name != "Maria" || got.Temperature != domain.TemperatureHot {
		t.Errorf("unexpected lead: %+v", got)
	}

	if _, err := repo.GetByID(ctx, uuid.New()); !errors.Is(err, storage.ErrLeadNotFound) {
		t.Errorf("expected ErrLeadNotFound, got %v", err)
	}
}
