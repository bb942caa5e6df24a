package ports

import (
	"context"
	"time"

	"github.com/kpicentral/kpi-central/internal/core/domain"
)

// CreateKPIInput carries all data needed to define and assign a KPI.
type CreateKPIInput struct {
	Title        string
	Description  string
	Department   string
	AssignedTo   string
	Target       float64
	Unit         string
	Weight       float64
	RewardPoints int
	DueDate      time.Time
}

// ListKPIsInput carries all parameters for the list endpoint.
type ListKPIsInput struct {
	Department string
	AssignedTo string
	Status     string
	Search     string
	Page       int
	Limit      int
}

// KPIView is a KPI plus the derived figures shown on dashboards.
type KPIView struct {
	*domain.KPI
	Completion float64 `json:"completion"`
	Overdue    bool    `json:"overdue"`
}

// ListKPIsResult is returned by List.
type ListKPIsResult struct {
	Items      []KPIView
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ReviewDecision is the admin verdict on a submitted KPI.
type ReviewDecision struct {
	Approve bool
	Note    string
}

// KPIService defines use-case operations for KPIs. Every method receives the
// caller so ownership can be enforced.
type KPIService interface {
	Create(ctx context.Context, caller *domain.Identity, input CreateKPIInput) (*KPIView, error)
	Get(ctx context.Context, caller *domain.Identity, id string) (*KPIView, error)
	List(ctx context.Context, caller *domain.Identity, input ListKPIsInput) (*ListKPIsResult, error)
	RecordProgress(ctx context.Context, caller *domain.Identity, id string, value float64, note string) (*KPIView, error)
	Submit(ctx context.Context, caller *domain.Identity, id string) (*KPIView, error)
	Review(ctx context.Context, caller *domain.Identity, id string, decision ReviewDecision) (*KPIView, error)
	Delete(ctx context.Context, caller *domain.Identity, id string) error
	Summary(ctx context.Context, caller *domain.Identity, department string) (*domain.DashboardSummary, error)
}
