package ports

import (
	"context"
	"time"

	"github.com/kpicentral/kpi-central/internal/core/domain"
)

// ListKPIsFilter carries all query parameters for listing KPIs.
// AssignedTo is always enforced by the service layer for employees.
type ListKPIsFilter struct {
	AssignedTo string    // empty = no filter (admin); non-empty = scoped to employee
	Department string    // optional
	Status     string    // optional
	Search     string    // optional: partial match on title
	DueBefore  time.Time // optional: due_date <= DueBefore
	Page       int       // 1-based; 0 disables pagination
	Limit      int
}

// KPIRepository defines persistence operations for KPIs.
type KPIRepository interface {
	Create(ctx context.Context, k *domain.KPI) (*domain.KPI, error)
	FindByID(ctx context.Context, id string) (*domain.KPI, error)
	// Update replaces the mutable fields of k and appends entry to its history.
	Update(ctx context.Context, k *domain.KPI, entry domain.KPIHistoryEntry) error
	Delete(ctx context.Context, id string) error
	// List returns a page of KPIs matching filter and the total count.
	List(ctx context.Context, filter ListKPIsFilter) ([]*domain.KPI, int64, error)
}
