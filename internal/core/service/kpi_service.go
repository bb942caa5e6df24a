package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kpicentral/kpi-central/internal/core/domain"
	"github.com/kpicentral/kpi-central/internal/core/ports"
)

const (
	defaultKPIPageSize = 20
	maxKPIPageSize     = 100
)

type KPIService struct {
	repo   ports.KPIRepository
	users  ports.UserRepository
	now    Clock
	logger zerolog.Logger
}

func NewKPIService(repo ports.KPIRepository, users ports.UserRepository, now Clock, logger zerolog.Logger) *KPIService {
	if now == nil {
		now = time.Now
	}
	return &KPIService{repo: repo, users: users, now: now, logger: logger}
}

// Create defines a KPI and assigns it to an existing employee. Admin only.
func (s *KPIService) Create(ctx context.Context, caller *domain.Identity, in ports.CreateKPIInput) (*ports.KPIView, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(in.Title) == "" || in.AssignedTo == "" || in.Target <= 0 {
		return nil, fmt.Errorf("%w: title, assignee and a positive target are required", domain.ErrInvalidKPI)
	}

	assignee, err := s.users.FindByID(ctx, in.AssignedTo)
	if err != nil {
		return nil, err
	}

	department := in.Department
	if department == "" {
		department = assignee.Department
	}
	weight := in.Weight
	if weight <= 0 {
		weight = 1
	}

	now := s.now().UTC()
	kpi := &domain.KPI{
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Department:   department,
		AssignedTo:   assignee.ID,
		CreatedBy:    caller.ID,
		Target:       in.Target,
		Unit:         in.Unit,
		Weight:       weight,
		RewardPoints: in.RewardPoints,
		DueDate:      in.DueDate.UTC(),
		Status:       domain.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
		History: []domain.KPIHistoryEntry{{
			Status:    domain.StatusPending,
			ActorID:   caller.ID,
			Timestamp: now,
		}},
	}

	created, err := s.repo.Create(ctx, kpi)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create kpi")
		return nil, err
	}

	s.logger.Info().Str("kpi_id", created.ID).Str("assigned_to", created.AssignedTo).Msg("kpi created")
	return s.view(created), nil
}

// Get returns a KPI. Employees only see their own.
func (s *KPIService) Get(ctx context.Context, caller *domain.Identity, id string) (*ports.KPIView, error) {
	kpi, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanAccessKPI(caller, kpi) {
		return nil, domain.ErrForbidden
	}
	return s.view(kpi), nil
}

// List returns a page of KPIs. Employees are always scoped to themselves.
func (s *KPIService) List(ctx context.Context, caller *domain.Identity, in ports.ListKPIsInput) (*ports.ListKPIsResult, error) {
	if caller == nil {
		return nil, domain.ErrForbidden
	}

	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit < 1 {
		limit = defaultKPIPageSize
	}
	if limit > maxKPIPageSize {
		limit = maxKPIPageSize
	}

	filter := ports.ListKPIsFilter{
		AssignedTo: in.AssignedTo,
		Department: in.Department,
		Status:     in.Status,
		Search:     in.Search,
		Page:       page,
		Limit:      limit,
	}
	if !caller.IsAdmin() {
		filter.AssignedTo = caller.ID
	}

	kpis, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]ports.KPIView, 0, len(kpis))
	for _, k := range kpis {
		items = append(items, *s.view(k))
	}

	return &ports.ListKPIsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// RecordProgress sets the current value of a KPI owned by caller. The first
// update moves a pending or rejected KPI to in_progress.
func (s *KPIService) RecordProgress(ctx context.Context, caller *domain.Identity, id string, value float64, note string) (*ports.KPIView, error) {
	if value < 0 {
		return nil, fmt.Errorf("%w: progress cannot be negative", domain.ErrInvalidKPI)
	}

	kpi, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanModifyKPI(caller, kpi) {
		return nil, domain.ErrForbidden
	}

	switch kpi.Status {
	case domain.StatusPending, domain.StatusRejected:
		kpi.Status = domain.StatusInProgress
	case domain.StatusInProgress:
	default:
		return nil, fmt.Errorf("%w: cannot record progress while %s", domain.ErrInvalidTransition, kpi.Status)
	}

	kpi.Current = value
	return s.apply(ctx, caller, kpi, note)
}

// Submit hands a KPI owned by caller over for review.
func (s *KPIService) Submit(ctx context.Context, caller *domain.Identity, id string) (*ports.KPIView, error) {
	kpi, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanModifyKPI(caller, kpi) {
		return nil, domain.ErrForbidden
	}
	if err := transition(kpi, domain.StatusSubmitted); err != nil {
		return nil, err
	}
	return s.apply(ctx, caller, kpi, "")
}

// Review approves or rejects a submitted KPI. Admin only.
func (s *KPIService) Review(ctx context.Context, caller *domain.Identity, id string, d ports.ReviewDecision) (*ports.KPIView, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	kpi, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next := domain.StatusRejected
	if d.Approve {
		next = domain.StatusApproved
	}
	if err := transition(kpi, next); err != nil {
		return nil, err
	}
	kpi.ReviewNote = d.Note

	return s.apply(ctx, caller, kpi, d.Note)
}

func (s *KPIService) Delete(ctx context.Context, caller *domain.Identity, id string) error {
	if !caller.IsAdmin() {
		return domain.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("kpi_id", id).Str("actor", caller.ID).Msg("kpi deleted")
	return nil
}

// Summary aggregates every KPI visible to caller. Admins may narrow it to a
// department; employees always get their own figures.
func (s *KPIService) Summary(ctx context.Context, caller *domain.Identity, department string) (*domain.DashboardSummary, error) {
	if caller == nil {
		return nil, domain.ErrForbidden
	}

	filter := ports.ListKPIsFilter{Department: department}
	if !caller.IsAdmin() {
		filter = ports.ListKPIsFilter{AssignedTo: caller.ID}
	}

	kpis, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	summary := domain.Summarize(kpis, s.now())
	return &summary, nil
}

func (s *KPIService) apply(ctx context.Context, caller *domain.Identity, kpi *domain.KPI, note string) (*ports.KPIView, error) {
	now := s.now().UTC()
	kpi.UpdatedAt = now
	entry := domain.KPIHistoryEntry{
		Status:    kpi.Status,
		Value:     kpi.Current,
		ActorID:   caller.ID,
		Timestamp: now,
		Note:      note,
	}
	if err := s.repo.Update(ctx, kpi, entry); err != nil {
		return nil, fmt.Errorf("update kpi %s: %w", kpi.ID, err)
	}
	kpi.History = append(kpi.History, entry)

	s.logger.Info().
		Str("kpi_id", kpi.ID).
		Str("status", string(kpi.Status)).
		Str("actor", caller.ID).
		Msg("kpi updated")

	return s.view(kpi), nil
}

func (s *KPIService) view(k *domain.KPI) *ports.KPIView {
	return &ports.KPIView{
		KPI:        k,
		Completion: k.Completion(),
		Overdue:    k.IsOverdue(s.now()),
	}
}

func transition(k *domain.KPI, next domain.KPIStatus) error {
	if !k.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, k.Status, next)
	}
	k.Status = next
	return nil
}
