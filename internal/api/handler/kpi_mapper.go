package handler

import (
	"github.com/kpicentral/kpi-central/internal/core/ports"
)

// --- Request → Service input ---

func toCreateKPIInput(req createKPIRequest) ports.CreateKPIInput {
	return ports.CreateKPIInput{
		Title:        req.Title,
		Description:  req.Description,
		Department:   req.Department,
		AssignedTo:   req.AssignedTo,
		Target:       req.Target,
		Unit:         req.Unit,
		Weight:       req.Weight,
		RewardPoints: req.RewardPoints,
		DueDate:      req.DueDate,
	}
}

// --- Service output → Response ---

// toKPIResponse maps a view to the wire shape. History is included only
// for single-KPI responses.
func toKPIResponse(v *ports.KPIView, withHistory bool) kpiResponse {
	resp := kpiResponse{
		ID:           v.ID,
		Title:        v.Title,
		Description:  v.Description,
		Department:   v.Department,
		AssignedTo:   v.AssignedTo,
		CreatedBy:    v.CreatedBy,
		Target:       v.Target,
		Current:      v.Current,
		Unit:         v.Unit,
		Weight:       v.Weight,
		RewardPoints: v.RewardPoints,
		DueDate:      v.DueDate,
		Status:       v.Status,
		ReviewNote:   v.ReviewNote,
		Completion:   v.Completion,
		Overdue:      v.Overdue,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
	if withHistory {
		resp.History = make([]kpiHistoryResponse, 0, len(v.History))
		for _, h := range v.History {
			resp.History = append(resp.History, kpiHistoryResponse{
				Status:    h.Status,
				Value:     h.Value,
				ActorID:   h.ActorID,
				Timestamp: h.Timestamp,
				Note:      h.Note,
			})
		}
	}
	return resp
}

func toKPIListResponse(res *ports.ListKPIsResult) kpiListResponse {
	items := make([]kpiResponse, 0, len(res.Items))
	for i := range res.Items {
		items = append(items, toKPIResponse(&res.Items[i], false))
	}
	return kpiListResponse{
		Items:      items,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	}
}
