package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andomingos87/seleto-industrial-sub000/internal/core/domain"
	"github.com/andomingos87/seleto-industrial-sub000/internal/infra/storage"
)

// QuoteRepo implements storage.QuoteRepository using PostgreSQL.
type QuoteRepo struct {
	db *DB
}

// NewQuoteRepo creates a new PostgreSQL quote repository.
func NewQuoteRepo(db *DB) *QuoteRepo {
	return &QuoteRepo{db: db}
}

type quoteRow struct {
	ID            uuid.UUID      `db:"id"`
	LeadID        uuid.UUID      `db:"lead_id"`
	OpportunityID sql.NullInt64  `db:"opportunity_id"`
	Status        string         `db:"status"`
	LastSyncError sql.NullString `db:"last_sync_error"`
	SyncAttempts  int            `db:"sync_attempts"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r quoteRow) toDomain() *domain.Quote {
	q := &domain.Quote{
		ID:           r.ID,
		LeadID:       r.LeadID,
		Status:       domain.QuoteStatus(r.Status),
		SyncAttempts: r.SyncAttempts,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.OpportunityID.Valid {
		id := int(r.OpportunityID.Int64)
		q.OpportunityID = &id
	}
	if r.LastSyncError.Valid {
		q.LastSyncError = r.LastSyncError.String
	}
	return q
}

// Save inserts or updates a quote.
func (r *QuoteRepo) Save(ctx context.Context, quote *domain.Quote) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO quotes (id, lead_id, opportunity_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, updated_at = now()`,
		quote.ID, quote.LeadID, nullableInt(quote.OpportunityID), string(quote.Status))
	if err != nil {
		return fmt.Errorf("failed to save quote: %w", err)
	}
	return nil
}

// GetByID retrieves a quote by id.
func (r *QuoteRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	var row quoteRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, lead_id, opportunity_id, status, last_sync_error, sync_attempts, created_at, updated_at
		FROM quotes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrQuoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return row.toDomain(), nil
}

// GetPending retrieves quotes without an opportunity id, oldest first.
func (r *QuoteRepo) GetPending(ctx context.Context, limit int) ([]*domain.Quote, error) {
	var rows []quoteRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, lead_id, opportunity_id, status, last_sync_error, sync_attempts, created_at, updated_at
		FROM quotes
		WHERE opportunity_id IS NULL AND status = $1
		ORDER BY created_at ASC
		LIMIT $2`, string(domain.QuoteStatusPending), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending quotes: %w", err)
	}

	quotes := make([]*domain.Quote, 0, len(rows))
	for _, row := range rows {
		quotes = append(quotes, row.toDomain())
	}
	return quotes, nil
}

// SetOpportunityID writes the opportunity id onto a quote. The guard clause
// keeps the write once-only unless force is set.
func (r *QuoteRepo) SetOpportunityID(ctx context.Context, id uuid.UUID, opportunityID int, force bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE quotes
		SET opportunity_id = $2, status = $3, last_sync_error = NULL, updated_at = now()
		WHERE id = $1 AND (opportunity_id IS NULL OR $4)`,
		id, opportunityID, string(domain.QuoteStatusSynced), force)
	if err != nil {
		return fmt.Errorf("failed to set opportunity id: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if affected == 0 {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return storage.ErrAlreadySynced
	}
	return nil
}

// RecordSyncFailure stores the failure reason and bumps the attempt counter.
func (r *QuoteRepo) RecordSyncFailure(ctx context.Context, id uuid.UUID, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE quotes
		SET status = $2, last_sync_error = $3, sync_attempts = sync_attempts + 1, updated_at = now()
		WHERE id = $1`,
		id, string(domain.QuoteStatusFailed), reason)
	if err != nil {
		return fmt.Errorf("failed to record sync failure: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return storage.ErrQuoteNotFound
	}
	return nil
}

// CountPending returns the number of quotes awaiting sync.
func (r *QuoteRepo) CountPending(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM quotes WHERE opportunity_id IS NULL AND status = $1`,
		string(domain.QuoteStatusPending))
	if err != nil {
		return 0, fmt.Errorf("failed to count pending quotes: %w", err)
	}
	return count, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
