package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/andomingos87/seleto-industrial-sub000/internal/core/domain"
)

var (
	// ErrQuoteNotFound is returned when a quote doesn't exist
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrLeadNotFound is returned when a lead doesn't exist
	ErrLeadNotFound = errors.New("lead not found")

	// ErrAlreadySynced is returned when a write-once opportunity id is already set
	ErrAlreadySynced = errors.New("quote already carries an opportunity id")
)

// QuoteRepository handles quote persistence
type QuoteRepository interface {
	// Save inserts or updates a quote
	Save(ctx context.Context, quote *domain.Quote) error

	// GetByID retrieves a quote by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error)

	// GetPending retrieves quotes without an opportunity id, oldest first
	GetPending(ctx context.Context, limit int) ([]*domain.Quote, error)

	// SetOpportunityID writes the opportunity id onto a quote. The write is
	// once-only: a quote that already carries an id is left untouched and
	// ErrAlreadySynced is returned, unless force is set.
	SetOpportunityID(ctx context.Context, id uuid.UUID, opportunityID int, force bool) error

	// RecordSyncFailure stores the failing step and error for operator triage
	RecordSyncFailure(ctx context.Context, id uuid.UUID, reason string) error

	// CountPending returns the number of quotes awaiting sync
	CountPending(ctx context.Context) (int, error)
}

// LeadRepository handles lead snapshot persistence
type LeadRepository interface {
	// Save stores a lead snapshot
	Save(ctx context.Context, lead *domain.LeadSnapshot) error

	// GetByID retrieves a lead snapshot by id
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LeadSnapshot, error)
}
