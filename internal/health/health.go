package health

import (
	"context"
	"time"
)

// Status represents a component health state.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

// Check is the health snapshot of one dependency.
type Check struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Report aggregates per-component checks.
type Report map[string]Check

// Pinger is anything with a context-aware liveness probe.
type Pinger interface {
	Health(ctx context.Context) error
}

// Monitor checks the sync service's dependencies.
type Monitor struct {
	db            Pinger // nil when running on memory storage
	redis         Pinger // nil when locking is disabled
	crmConfigured func() bool
}

// NewMonitor creates a health monitor. db and redis may be nil.
func NewMonitor(db, redis Pinger, crmConfigured func() bool) *Monitor {
	return &Monitor{db: db, redis: redis, crmConfigured: crmConfigured}
}

// CheckHealth probes every wired dependency.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	report := Report{}

	if m.db != nil {
		report["database"] = pingCheck(ctx, m.db, StatusCritical)
	}
	if m.redis != nil {
		// Redis only backs the advisory lock; losing it degrades, not kills.
		report["redis"] = pingCheck(ctx, m.redis, StatusDegraded)
	}

	if m.crmConfigured() {
		report["crm"] = Check{Status: StatusHealthy}
	} else {
		report["crm"] = Check{Status: StatusCritical, Message: "missing base URL or token"}
	}

	return report
}

func pingCheck(ctx context.Context, p Pinger, onFailure Status) Check {
	if err := p.Health(ctx); err != nil {
		return Check{Status: onFailure, Message: err.Error()}
	}
	return Check{Status: StatusHealthy}
}
