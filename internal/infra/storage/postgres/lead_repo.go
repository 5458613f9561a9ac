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

// LeadRepo implements storage.LeadRepository using PostgreSQL.
type LeadRepo struct {
	db *DB
}

// NewLeadRepo creates a new PostgreSQL lead repository.
func NewLeadRepo(db *DB) *LeadRepo {
	return &LeadRepo{db: db}
}

type leadRow struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	CompanyName string    `db:"company_name"`
	TaxID       string    `db:"tax_id"`
	City        string    `db:"city"`
	UF          string    `db:"uf"`
	Product     string    `db:"product"`
	Volume      string    `db:"volume"`
	Urgency     string    `db:"urgency"`
	KnowsSeller bool      `db:"knows_seller"`
	Temperature string    `db:"temperature"`
	Phone       string    `db:"phone"`
	Email       string    `db:"email"`
	CapturedAt  time.Time `db:"captured_at"`
}

// Save stores a lead snapshot.
func (r *LeadRepo) Save(ctx context.Context, lead *domain.LeadSnapshot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO leads (id, name, company_name, tax_id, city, uf, product, volume,
			urgency, knows_seller, temperature, phone, email, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			company_name = EXCLUDED.company_name,
			tax_id = EXCLUDED.tax_id,
			city = EXCLUDED.city,
			uf = EXCLUDED.uf,
			product = EXCLUDED.product,
			volume = EXCLUDED.volume,
			urgency = EXCLUDED.urgency,
			knows_seller = EXCLUDED.knows_seller,
			temperature = EXCLUDED.temperature,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email`,
		lead.ID, lead.Name, lead.CompanyName, lead.TaxID, lead.City, lead.UF,
		lead.Product, lead.Volume, lead.Urgency, lead.KnowsSeller,
		string(lead.Temperature), lead.Phone, lead.Email, lead.CapturedAt)
	if err != nil {
		return fmt.Errorf("failed to save lead: %w", err)
	}
	return nil
}

// GetByID retrieves a lead snapshot by id.
func (r *LeadRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.LeadSnapshot, error) {
	var row leadRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, name, company_name, tax_id, city, uf, product, volume,
			urgency, knows_seller, temperature, phone, email, captured_at
		FROM leads WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	return &domain.LeadSnapshot{
		ID:          row.ID,
		Name:        row.Name,
		CompanyName: row.CompanyName,
		TaxID:       row.TaxID,
		City:        row.City,
		UF:          row.UF,
		Product:     row.Product,
		Volume:      row.Volume,
		Urgency:     row.Urgency,
		KnowsSeller: row.KnowsSeller,
		Temperature: domain.Temperature(row.Temperature),
		Phone:       row.Phone,
		Email:       row.Email,
		CapturedAt:  row.CapturedAt,
	}, nil
}
