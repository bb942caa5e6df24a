package domain

import (
	"errors"
	"time"
)

// KPIStatus represents the lifecycle state of a KPI.
type KPIStatus string

const (
	StatusPending    KPIStatus = "pending"
	StatusInProgress KPIStatus = "in_progress"
	StatusSubmitted  KPIStatus = "submitted"
	StatusApproved   KPIStatus = "approved"
	StatusRejected   KPIStatus = "rejected"
)

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[KPIStatus][]KPIStatus{
	StatusPending:    {StatusInProgress, StatusSubmitted},
	StatusInProgress: {StatusSubmitted},
	StatusSubmitted:  {StatusApproved, StatusRejected},
	StatusRejected:   {StatusInProgress},
}

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrKPINotFound       = errors.New("kpi not found")
	ErrInvalidKPI        = errors.New("invalid kpi")
	ErrForbidden         = errors.New("access forbidden")
)

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s KPIStatus) CanTransitionTo(next KPIStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s KPIStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// KPIHistoryEntry records a single status transition or progress update.
type KPIHistoryEntry struct {
	Status    KPIStatus `json:"status" bson:"status"`
	Value     float64   `json:"value" bson:"value"`
	ActorID   string    `json:"actor_id" bson:"actor_id"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Note      string    `json:"note,omitempty" bson:"note,omitempty"`
}

// KPI is a performance indicator assigned to one employee.
type KPI struct {
	ID           string            `json:"id" bson:"_id,omitempty"`
	Title        string            `json:"title" bson:"title"`
	Description  string            `json:"description,omitempty" bson:"description,omitempty"`
	Department   string            `json:"department,omitempty" bson:"department,omitempty"`
	AssignedTo   string            `json:"assigned_to" bson:"assigned_to"`
	CreatedBy    string            `json:"created_by" bson:"created_by"`
	Target       float64           `json:"target" bson:"target"`
	Current      float64           `json:"current" bson:"current"`
	Unit         string            `json:"unit,omitempty" bson:"unit,omitempty"`
	Weight       float64           `json:"weight" bson:"weight"`
	RewardPoints int               `json:"reward_points" bson:"reward_points"`
	DueDate      time.Time         `json:"due_date" bson:"due_date"`
	Status       KPIStatus         `json:"status" bson:"status"`
	ReviewNote   string            `json:"review_note,omitempty" bson:"review_note,omitempty"`
	CreatedAt    time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" bson:"updated_at"`
	History      []KPIHistoryEntry `json:"history" bson:"history"`
}

// Completion returns progress towards the target as a percentage in [0, 100].
func (k *KPI) Completion() float64 {
	if k.Target <= 0 {
		return 0
	}
	pct := k.Current / k.Target * 100
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return pct
}

// IsOverdue reports whether the due date has passed without approval.
func (k *KPI) IsOverdue(now time.Time) bool {
	if k.DueDate.IsZero() || k.Status == StatusApproved {
		return false
	}
	return now.After(k.DueDate)
}

// CanAccessKPI reports whether id may read k.
func CanAccessKPI(id *Identity, k *KPI) bool {
	if id == nil || k == nil {
		return false
	}
	return id.Role == RoleAdmin || k.AssignedTo == id.ID
}

// CanModifyKPI reports whether id may record progress on or submit k.
// Only the assignee may do so; admins review instead.
func CanModifyKPI(id *Identity, k *KPI) bool {
	if id == nil || k == nil {
		return false
	}
	return k.AssignedTo == id.ID
}

// DashboardSummary aggregates a set of KPIs for the dashboard.
type DashboardSummary struct {
	Total              int               `json:"total"`
	ByStatus           map[KPIStatus]int `json:"by_status"`
	AverageCompletion  float64           `json:"average_completion"`
	Overdue            int               `json:"overdue"`
	RewardPointsEarned int               `json:"reward_points_earned"`
}

// Summarize computes the dashboard figures for kpis at instant now.
func Summarize(kpis []*KPI, now time.Time) DashboardSummary {
	sum := DashboardSummary{ByStatus: make(map[KPIStatus]int)}
	var completion float64
	for _, k := range kpis {
		sum.Total++
		sum.ByStatus[k.Status]++
		completion += k.Completion()
		if k.IsOverdue(now) {
			sum.Overdue++
		}
		if k.Status == StatusApproved {
			sum.RewardPointsEarned += k.RewardPoints
		}
	}
	if sum.Total > 0 {
		sum.AverageCompletion = completion / float64(sum.Total)
	}
	return sum
}
