package handler

import (
	"time"

	"github.com/kpicentral/kpi-central/internal/core/domain"
)

// --- Request types ---

type createKPIRequest struct {
	Title        string    `json:"title"         validate:"required,max=200"`
	Description  string    `json:"description"   validate:"max=2000"`
	Department   string    `json:"department"    validate:"max=80"`
	AssignedTo   string    `json:"assigned_to"   validate:"required"`
	Target       float64   `json:"target"        validate:"required,gt=0"`
	Unit         string    `json:"unit"          validate:"max=32"`
	Weight       float64   `json:"weight"        validate:"gte=0"`
	RewardPoints int       `json:"reward_points" validate:"gte=0"`
	DueDate      time.Time `json:"due_date"      validate:"required"`
}

type progressRequest struct {
	Value *float64 `json:"value" validate:"required,gte=0"`
	Note  string   `json:"note"  validate:"max=500"`
}

type reviewRequest struct {
	Approve *bool  `json:"approve" validate:"required"`
	Note    string `json:"note"    validate:"max=500"`
}

// --- Response types ---
// Owned by the transport layer so the JSON contract does not follow storage
// changes.

type kpiHistoryResponse struct {
	Status    domain.KPIStatus `json:"status"`
	Value     float64          `json:"value"`
	ActorID   string           `json:"actor_id"`
	Timestamp time.Time        `json:"timestamp"`
	Note      string           `json:"note,omitempty"`
}

type kpiResponse struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Description  string               `json:"description,omitempty"`
	Department   string               `json:"department,omitempty"`
	AssignedTo   string               `json:"assigned_to"`
	CreatedBy    string               `json:"created_by"`
	Target       float64              `json:"target"`
	Current      float64              `json:"current"`
	Unit         string               `json:"unit,omitempty"`
	Weight       float64              `json:"weight"`
	RewardPoints int                  `json:"reward_points"`
	DueDate      time.Time            `json:"due_date"`
	Status       domain.KPIStatus     `json:"status"`
	ReviewNote   string               `json:"review_note,omitempty"`
	Completion   float64              `json:"completion"`
	Overdue      bool                 `json:"overdue"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	History      []kpiHistoryResponse `json:"history,omitempty"`
}

type kpiListResponse struct {
	Items      []kpiResponse `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
}
