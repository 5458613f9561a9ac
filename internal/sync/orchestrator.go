package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/andomingos87/seleto-industrial-sub000/internal/core/domain"
	"github.com/andomingos87/seleto-industrial-sub000/internal/infra/crm"
	"github.com/andomingos87/seleto-industrial-sub000/internal/infra/storage"
	"github.com/andomingos87/seleto-industrial-sub000/internal/metrics"
)

// ErrSyncInProgress is returned when another process holds the per-lead lock.
var ErrSyncInProgress = errors.New("sync already in progress for this lead")

// SyncError reports the failing pipeline step for a lead. Only mandatory
// steps produce one; best-effort steps are logged and skipped.
type SyncError struct {
	Step   string
	LeadID uuid.UUID
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync failed at %s for lead %s: %v", e.Step, e.LeadID, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// CRMClient is the surface of the resilient API client the orchestrator
// drives. Every method returns a nil id for absent or best-effort-failed
// results and an error only for retry-exhausted transport/server failures.
type CRMClient interface {
	IsConfigured() bool
	GetCityID(ctx context.Context, name, uf string) (*int, error)
	GetCompanyByTaxID(ctx context.Context, taxID string) (*int, error)
	CreateCompany(ctx context.Context, params crm.CompanyParams) (*int, error)
	CreatePerson(ctx context.Context, params crm.PersonParams) (*int, error)
	CreateDeal(ctx context.Context, params crm.DealParams) (*int, error)
	CreateNote(ctx context.Context, dealID int, content string) (*int, error)
}

// Locker serializes syncs of the same lead across processes. A nil Locker
// accepts the narrow duplicate-deal race between the idempotency check and
// the linkage write.
type Locker interface {
	AcquireSyncLock(ctx context.Context, leadID uuid.UUID, ttl time.Duration) (bool, error)
	ReleaseSyncLock(ctx context.Context, leadID uuid.UUID) error
	RefreshSyncLock(ctx context.Context, leadID uuid.UUID, ttl time.Duration) error
}

// Orchestrator turns a lead snapshot into CRM records exactly once. The
// pipeline is strictly sequential: city feeds company and person, company and
// person feed the deal, the deal feeds the note and the linkage write.
type Orchestrator struct {
	crm     CRMClient
	quotes  storage.QuoteRepository
	locks   Locker // optional
	lockTTL time.Duration
	log     *slog.Logger
}

// NewOrchestrator creates a sync orchestrator. locks may be nil.
func NewOrchestrator(client CRMClient, quotes storage.QuoteRepository, locks Locker) *Orchestrator {
	return &Orchestrator{
		crm:     client,
		quotes:  quotes,
		locks:   locks,
		lockTTL: 2 * time.Minute,
		log:     slog.With("component", "sync"),
	}
}

// fallback placeholders for sparse leads
const (
	placeholderContact  = "Contato WhatsApp"
	placeholderProduct  = "Interesse"
	placeholderLocation = "Brasil"
)

// Sync drives the pipeline for one lead/quote pair and returns the CRM
// opportunity id. A quote that already carries an id short-circuits with zero
// network calls unless force is set. Earlier-created entities are never
// rolled back on failure.
func (o *Orchestrator) Sync(ctx context.Context, lead domain.LeadSnapshot, quote *domain.Quote, force bool) (int, error) {
	start := time.Now()
	id, err := o.run(ctx, lead, quote, force)

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.SyncRunsTotal.WithLabelValues(outcome).Inc()
	metrics.SyncRunDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return id, err
}

func (o *Orchestrator) run(ctx context.Context, lead domain.LeadSnapshot, quote *domain.Quote, force bool) (int, error) {
	log := o.log.With("lead_id", lead.ID, "quote_id", quote.ID)

	// CHECK_EXISTING
	if quote.OpportunityID != nil && !force {
		log.Debug("quote already synced, skipping", "opportunity_id", *quote.OpportunityID)
		return *quote.OpportunityID, nil
	}

	if o.locks != nil {
		acquired, err := o.locks.AcquireSyncLock(ctx, lead.ID, o.lockTTL)
		if err != nil {
			log.Warn("sync lock unavailable, proceeding without it", "error", err)
		} else if !acquired {
			return 0, ErrSyncInProgress
		} else {
			defer func() {
				if err := o.locks.ReleaseSyncLock(context.WithoutCancel(ctx), lead.ID); err != nil {
					log.Warn("failed to release sync lock", "error", err)
				}
			}()

			stopRefresh := o.keepLockAlive(ctx, log, lead.ID)
			defer stopRefresh()

			// Re-check under the lock: a concurrent run may have finished
			// between the first check and the lock acquisition.
			if fresh, err := o.quotes.GetByID(ctx, quote.ID); err == nil && fresh.OpportunityID != nil && !force {
				log.Debug("quote synced by concurrent run", "opportunity_id", *fresh.OpportunityID)
				return *fresh.OpportunityID, nil
			}
		}
	}

	// LOOKUP_CITY (best-effort)
	cityID := o.lookupCity(ctx, log, lead)

	// DEDUPE_OR_CREATE_COMPANY (best-effort)
	companyID := o.resolveCompany(ctx, log, lead, cityID)

	// CREATE_PERSON (best-effort)
	personID := o.createPerson(ctx, log, lead, cityID, companyID)

	// CREATE_DEAL (mandatory)
	dealID, err := o.crm.CreateDeal(ctx, crm.DealParams{
		Title:     dealTitle(lead),
		PersonID:  personID,
		CompanyID: companyID,
	})
	if err != nil {
		return 0, o.failRun(ctx, log, quote, "create_deal", lead.ID, err)
	}
	if dealID == nil {
		return 0, o.failRun(ctx, log, quote, "create_deal", lead.ID,
			errors.New("deal creation returned no id"))
	}
	log.Info("deal created", "deal_id", *dealID)

	// CREATE_NOTE (best-effort)
	if _, err := o.crm.CreateNote(ctx, *dealID, noteContent(lead)); err != nil {
		metrics.SyncStepFailures.WithLabelValues("create_note").Inc()
		log.Warn("note creation failed, continuing", "error", err)
	}

	// PERSIST_LINKAGE: this write makes the next invocation idempotent.
	if err := o.quotes.SetOpportunityID(ctx, quote.ID, *dealID, force); err != nil {
		if errors.Is(err, storage.ErrAlreadySynced) {
			// A concurrent run won the race; its id stands.
			if fresh, getErr := o.quotes.GetByID(ctx, quote.ID); getErr == nil && fresh.OpportunityID != nil {
				log.Warn("concurrent sync persisted first, duplicate deal created",
					"kept_opportunity_id", *fresh.OpportunityID, "orphan_deal_id", *dealID)
				return *fresh.OpportunityID, nil
			}
		}
		return 0, o.failRun(ctx, log, quote, "persist_linkage", lead.ID, err)
	}
	quote.OpportunityID = dealID

	log.Info("lead synced", "opportunity_id", *dealID,
		"city_id", derefOrZero(cityID), "company_id", derefOrZero(companyID),
		"person_id", derefOrZero(personID))
	return *dealID, nil
}

// keepLockAlive extends the advisory lock TTL while the pipeline runs, so a
// run slower than the TTL cannot lose the lock to a concurrent process.
func (o *Orchestrator) keepLockAlive(ctx context.Context, log *slog.Logger, leadID uuid.UUID) func() {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(o.lockTTL / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := o.locks.RefreshSyncLock(ctx, leadID, o.lockTTL); err != nil {
					log.Warn("failed to refresh sync lock", "error", err)
				}
			}
		}
	}()
	return func() { close(done) }
}

func (o *Orchestrator) lookupCity(ctx context.Context, log *slog.Logger, lead domain.LeadSnapshot) *int {
	if lead.City == "" {
		return nil
	}
	cityID, err := o.crm.GetCityID(ctx, lead.City, lead.UF)
	if err != nil {
		metrics.SyncStepFailures.WithLabelValues("lookup_city").Inc()
		log.Warn("city lookup failed, continuing without city", "error", err)
		return nil
	}
	return cityID
}

// resolveCompany deduplicates by CNPJ before ever creating: an existing
// company is reused, otherwise one is created by name when a name is present.
func (o *Orchestrator) resolveCompany(ctx context.Context, log *slog.Logger, lead domain.LeadSnapshot, cityID *int) *int {
	if lead.TaxID != "" {
		companyID, err := o.crm.GetCompanyByTaxID(ctx, lead.TaxID)
		if err != nil {
			metrics.SyncStepFailures.WithLabelValues("dedupe_company").Inc()
			log.Warn("company lookup failed, continuing", "error", err)
		} else if companyID != nil {
			log.Debug("reusing existing company", "company_id", *companyID)
			return companyID
		}
	}

	if lead.CompanyName == "" {
		return nil
	}
	companyID, err := o.crm.CreateCompany(ctx, crm.CompanyParams{
		Name:   lead.CompanyName,
		CityID: cityID,
		TaxID:  lead.TaxID,
		Email:  lead.Email,
	})
	if err != nil {
		metrics.SyncStepFailures.WithLabelValues("create_company").Inc()
		log.Warn("company creation failed, continuing without company", "error", err)
		return nil
	}
	return companyID
}

func (o *Orchestrator) createPerson(ctx context.Context, log *slog.Logger, lead domain.LeadSnapshot, cityID, companyID *int) *int {
	name := lead.Name
	if name == "" {
		name = placeholderContact
	}

	params := crm.PersonParams{
		Name:      name,
		CityID:    cityID,
		CompanyID: companyID,
	}
	if lead.Phone != "" {
		params.Phones = []string{lead.Phone}
	}
	if lead.Email != "" {
		params.Emails = []string{lead.Email}
	}

	personID, err := o.crm.CreatePerson(ctx, params)
	if err != nil {
		metrics.SyncStepFailures.WithLabelValues("create_person").Inc()
		log.Warn("person creation failed, continuing without person", "error", err)
		return nil
	}
	return personID
}

func (o *Orchestrator) failRun(ctx context.Context, log *slog.Logger, quote *domain.Quote, step string, leadID uuid.UUID, cause error) error {
	metrics.SyncStepFailures.WithLabelValues(step).Inc()
	syncErr := &SyncError{Step: step, LeadID: leadID, Err: cause}
	log.Error("sync run failed", "step", step, "error", cause)

	if err := o.quotes.RecordSyncFailure(context.WithoutCancel(ctx), quote.ID, syncErr.Error()); err != nil {
		log.Warn("failed to record sync failure", "error", err)
	}
	return syncErr
}

func derefOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
