package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andomingos87/seleto-industrial-sub000/internal/core/domain"
	"github.com/andomingos87/seleto-industrial-sub000/internal/infra/storage"
)

// MemoryStorage is an in-memory backend used by tests and by local runs
// without a database.
type MemoryStorage struct {
	quotes map[uuid.UUID]*domain.Quote
	leads  map[uuid.UUID]*domain.LeadSnapshot
	mu     sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		quotes: make(map[uuid.UUID]*domain.Quote),
		leads:  make(map[uuid.UUID]*domain.LeadSnapshot),
	}
}

// -----------------------------------------------------------------------------
// Quote Repository
// -----------------------------------------------------------------------------

type QuoteRepo struct {
	store *MemoryStorage
}

func NewQuoteRepo(store *MemoryStorage) *QuoteRepo {
	return &QuoteRepo{store: store}
}

func (r *QuoteRepo) Save(ctx context.Context, quote *domain.Quote) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *quote
	if copied.Status == "" {
		copied.Status = domain.QuoteStatusPending
	}
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	copied.UpdatedAt = time.Now()
	r.store.quotes[quote.ID] = &copied
	return nil
}

func (r *QuoteRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	q, ok := r.store.quotes[id]
	if !ok {
		return nil, storage.ErrQuoteNotFound
	}
	copied := *q
	return &copied, nil
}

func (r *QuoteRepo) GetPending(ctx context.Context, limit int) ([]*domain.Quote, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var pending []*domain.Quote
	for _, q := range r.store.quotes {
		if q.OpportunityID == nil && q.Status == domain.QuoteStatusPending {
			copied := *q
			pending = append(pending, &copied)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (r *QuoteRepo) SetOpportunityID(ctx context.Context, id uuid.UUID, opportunityID int, force bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	q, ok := r.store.quotes[id]
	if !ok {
		return storage.ErrQuoteNotFound
	}
	if q.OpportunityID != nil && !force {
		return storage.ErrAlreadySynced
	}
	q.OpportunityID = &opportunityID
	q.Status = domain.QuoteStatusSynced
	q.LastSyncError = ""
	q.UpdatedAt = time.Now()
	return nil
}

func (r *QuoteRepo) RecordSyncFailure(ctx context.Context, id uuid.UUID, reason string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	q, ok := r.store.quotes[id]
	if !ok {
		return storage.ErrQuoteNotFound
	}
	q.Status = domain.QuoteStatusFailed
	q.LastSyncError = reason
	q.SyncAttempts++
	q.UpdatedAt = time.Now()
	return nil
}

func (r *QuoteRepo) CountPending(ctx context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, q := range r.store.quotes {
		if q.OpportunityID == nil && q.Status == domain.QuoteStatusPending {
			count++
		}
	}
	return count, nil
}

// -----------------------------------------------------------------------------
// Lead Repository
// -----------------------------------------------------------------------------

type LeadRepo struct {
	store *MemoryStorage
}

func NewLeadRepo(store *MemoryStorage) *LeadRepo {
	return &LeadRepo{store: store}
}

func (r *LeadRepo) Save(ctx context.Context, lead *domain.LeadSnapshot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *lead
	r.store.leads[lead.ID] = &copied
	return nil
}

func (r *LeadRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.LeadSnapshot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	l, ok := r.store.leads[id]
	if !ok {
		return nil, storage.ErrLeadNotFound
	}
	copied := *l
	return &copied, nil
}
