package domain

import (
	"time"

	"github.com/google/uuid"
)

// QuoteStatus tracks where a quote sits in the sync lifecycle.
type QuoteStatus string

const (
	QuoteStatusPending QuoteStatus = "pending"
	QuoteStatusSynced  QuoteStatus = "synced"
	QuoteStatusFailed  QuoteStatus = "failed"
	QuoteStatusSkipped QuoteStatus = "skipped" // lead not eligible for sync
)

// Quote links a lead to a potential sale. The sync pipeline owns exactly one
// field on it: OpportunityID, the CRM deal id that doubles as the idempotency
// marker. Once set, subsequent syncs short-circuit unless forced.
type Quote struct {
	ID            uuid.UUID
	LeadID        uuid.UUID
	OpportunityID *int
	Status        QuoteStatus
	LastSyncError string
	SyncAttempts  int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Synced reports whether the quote already carries an opportunity id.
func (q *Quote) Synced() bool {
	return q.OpportunityID != nil
}
