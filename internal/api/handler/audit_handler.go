package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kpicentral/kpi-central/internal/api/response"
	"github.com/kpicentral/kpi-central/internal/core/domain"
	"github.com/kpicentral/kpi-central/internal/core/ports"
)

// AuditReader is the read side of the access trail.
type AuditReader interface {
	Recent(ctx context.Context, filter ports.AccessLogFilter) ([]domain.AccessRecord, error)
}

// AuditHandler exposes recent access records to administrators.
type AuditHandler struct {
	reader AuditReader
}

func NewAuditHandler(reader AuditReader) *AuditHandler {
	return &AuditHandler{reader: reader}
}

// List handles GET /api/system/audit.
//
// @Summary      Recent access records
// @Tags         system
// @Produce      json
// @Security     BearerAuth
// @Param        identity_id  query     string  false  "Filter by caller"
// @Param        outcome      query     string  false  "Filter by outcome (e.g. forbidden-role)"
// @Param        limit        query     int     false  "Max records (default 100, max 500)"
// @Success      200          {object}  response.Success{data=[]domain.AccessRecord}
// @Failure      403          {object}  response.Failure
// @Failure      429          {object}  response.Failure
// @Router       /api/system/audit [get]
func (h *AuditHandler) List(c echo.Context, _ *domain.Identity) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return err
	}

	records, err := h.reader.Recent(c.Request().Context(), ports.AccessLogFilter{
		IdentityID: c.QueryParam("identity_id"),
		Outcome:    c.QueryParam("outcome"),
		Limit:      limit,
	})
	if err != nil {
		return err
	}
	if records == nil {
		records = []domain.AccessRecord{}
	}
	return response.OK(c, http.StatusOK, "audit records retrieved", records)
}
