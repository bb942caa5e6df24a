package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kpicentral/kpi-central/internal/api/metrics"
	"github.com/kpicentral/kpi-central/internal/api/response"
	"github.com/kpicentral/kpi-central/internal/core/domain"
	"github.com/kpicentral/kpi-central/internal/core/ports"
)

// KPIHandler handles HTTP requests for KPI operations and the dashboard.
type KPIHandler struct {
	service ports.KPIService
}

func NewKPIHandler(service ports.KPIService) *KPIHandler {
	return &KPIHandler{service: service}
}

// List handles GET /api/kpis. Employees only ever see their own KPIs.
//
// @Summary      List KPIs
// @Tags         kpis
// @Produce      json
// @Security     BearerAuth
// @Param        department   query     string  false  "Department"
// @Param        assigned_to  query     string  false  "Assignee user ID (admins only)"
// @Param        status       query     string  false  "Status"
// @Param        search       query     string  false  "Title search"
// @Param        page         query     int     false  "Page (1-based)"
// @Param        limit        query     int     false  "Page size (max 100)"
// @Success      200          {object}  response.Success{data=kpiListResponse}
// @Failure      400          {object}  response.Failure
// @Failure      401          {object}  response.Failure
// @Router       /api/kpis [get]
func (h *KPIHandler) List(c echo.Context, id *domain.Identity) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	status := c.QueryParam("status")
	if status != "" && !domain.KPIStatus(status).Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}

	res, err := h.service.List(c.Request().Context(), id, ports.ListKPIsInput{
		Department: c.QueryParam("department"),
		AssignedTo: c.QueryParam("assigned_to"),
		Status:     status,
		Search:     c.QueryParam("search"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "kpis retrieved", toKPIListResponse(res))
}

// Create handles POST /api/kpis.
//
// @Summary      Create a KPI
// @Tags         kpis
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createKPIRequest  true  "KPI definition"
// @Success      201   {object}  response.Success{data=kpiResponse}
// @Failure      400   {object}  response.Failure
// @Failure      403   {object}  response.Failure
// @Failure      404   {object}  response.Failure
// @Failure      422   {object}  response.Failure
// @Router       /api/kpis [post]
func (h *KPIHandler) Create(c echo.Context, id *domain.Identity) error {
	var req createKPIRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.service.Create(c.Request().Context(), id, toCreateKPIInput(req))
	if err != nil {
		return err
	}

	metrics.KPIsCreatedTotal.WithLabelValues(view.Department).Inc()
	return response.OK(c, http.StatusCreated, "kpi created", toKPIResponse(view, true))
}

// Get handles GET /api/kpis/:id.
//
// @Summary      Get a KPI
// @Tags         kpis
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "KPI ID"
// @Success      200  {object}  response.Success{data=kpiResponse}
// @Failure      403  {object}  response.Failure
// @Failure      404  {object}  response.Failure
// @Router       /api/kpis/{id} [get]
func (h *KPIHandler) Get(c echo.Context, id *domain.Identity) error {
	kpiID, err := pathID(c)
	if err != nil {
		return err
	}

	view, err := h.service.Get(c.Request().Context(), id, kpiID)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "kpi retrieved", toKPIResponse(view, true))
}

// RecordProgress handles PATCH /api/kpis/:id/progress.
//
// @Summary      Record progress
// @Tags         kpis
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "KPI ID"
// @Param        body  body      progressRequest  true  "Current value"
// @Success      200   {object}  response.Success{data=kpiResponse}
// @Failure      403   {object}  response.Failure
// @Failure      404   {object}  response.Failure
// @Failure      422   {object}  response.Failure
// @Router       /api/kpis/{id}/progress [patch]
func (h *KPIHandler) RecordProgress(c echo.Context, id *domain.Identity) error {
	kpiID, err := pathID(c)
	if err != nil {
		return err
	}
	var req progressRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.service.RecordProgress(c.Request().Context(), id, kpiID, *req.Value, req.Note)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "progress recorded", toKPIResponse(view, true))
}

// Submit handles POST /api/kpis/:id/submit.
//
// @Summary      Submit for review
// @Tags         kpis
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "KPI ID"
// @Success      200  {object}  response.Success{data=kpiResponse}
// @Failure      403  {object}  response.Failure
// @Failure      404  {object}  response.Failure
// @Failure      422  {object}  response.Failure
// @Router       /api/kpis/{id}/submit [post]
func (h *KPIHandler) Submit(c echo.Context, id *domain.Identity) error {
	kpiID, err := pathID(c)
	if err != nil {
		return err
	}

	view, err := h.service.Submit(c.Request().Context(), id, kpiID)
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "kpi submitted", toKPIResponse(view, true))
}

// Review handles POST /api/kpis/:id/review.
//
// @Summary      Approve or reject
// @Tags         kpis
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "KPI ID"
// @Param        body  body      reviewRequest  true  "Verdict"
// @Success      200   {object}  response.Success{data=kpiResponse}
// @Failure      403   {object}  response.Failure
// @Failure      404   {object}  response.Failure
// @Failure      422   {object}  response.Failure
// @Router       /api/kpis/{id}/review [post]
func (h *KPIHandler) Review(c echo.Context, id *domain.Identity) error {
	kpiID, err := pathID(c)
	if err != nil {
		return err
	}
	var req reviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.service.Review(c.Request().Context(), id, kpiID, ports.ReviewDecision{
		Approve: *req.Approve,
		Note:    req.Note,
	})
	if err != nil {
		return err
	}

	metrics.KPIReviewsTotal.WithLabelValues(string(view.Status)).Inc()
	return response.OK(c, http.StatusOK, "kpi reviewed", toKPIResponse(view, true))
}

// Delete handles DELETE /api/kpis/:id.
//
// @Summary      Delete a KPI
// @Tags         kpis
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "KPI ID"
// @Success      200  {object}  response.Success
// @Failure      403  {object}  response.Failure
// @Failure      404  {object}  response.Failure
// @Router       /api/kpis/{id} [delete]
func (h *KPIHandler) Delete(c echo.Context, id *domain.Identity) error {
	kpiID, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), id, kpiID); err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "kpi deleted", nil)
}

// Summary handles GET /api/dashboard/summary.
//
// @Summary      Dashboard summary
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Param        department  query     string  false  "Department (admins only)"
// @Success      200         {object}  response.Success{data=domain.DashboardSummary}
// @Failure      401         {object}  response.Failure
// @Router       /api/dashboard/summary [get]
func (h *KPIHandler) Summary(c echo.Context, id *domain.Identity) error {
	summary, err := h.service.Summary(c.Request().Context(), id, c.QueryParam("department"))
	if err != nil {
		return err
	}
	return response.OK(c, http.StatusOK, "summary retrieved", summary)
}
