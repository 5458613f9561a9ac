package domain

import (
	"time"

	"github.com/google/uuid"
)

// Temperature classifies how ready a lead is to buy.
type Temperature string

const (
	TemperatureHot  Temperature = "hot"
	TemperatureWarm Temperature = "warm"
	TemperatureCold Temperature = "cold"
)

// LeadSnapshot is the read-only aggregate handed over by the conversation
// subsystem once enough fields have been collected. The sync pipeline consumes
// it in a single call and holds no further ownership.
type LeadSnapshot struct {
	ID          uuid.UUID
	Name        string
	CompanyName string
	TaxID       string // CNPJ, possibly formatted
	City        string
	UF          string
	Product     string
	Volume      string
	Urgency     string
	KnowsSeller bool
	Temperature Temperature
	Phone       string
	Email       string
	CapturedAt  time.Time
}

// ShouldSync reports whether a lead is eligible for CRM synchronization.
// Hot leads always sync. Warm leads sync only when both a name and a product
// of interest were collected. Cold leads never sync.
func (l LeadSnapshot) ShouldSync() bool {
	switch l.Temperature {
	case TemperatureHot:
		return true
	case TemperatureWarm:
		return l.Name != "" && l.Product != ""
	default:
		return false
	}
}
