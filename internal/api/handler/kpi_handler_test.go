package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kpicentral/kpi-central/internal/core/domain"
	"github.com/kpicentral/kpi-central/internal/core/ports"
)

// stubKPIService records the last call and returns canned views.
type stubKPIService struct {
	view      *ports.KPIView
	err       error
	lastList  ports.ListKPIsInput
	lastInput ports.CreateKPIInput
	lastValue float64
	lastNote  string
	lastDec   ports.ReviewDecision
	lastDept  string
}

func (s *stubKPIService) Create(_ context.Context, _ *domain.Identity, in ports.CreateKPIInput) (*ports.KPIView, error) {
	s.lastInput = in
	return s.view, s.err
}

func (s *stubKPIService) Get(context.Context, *domain.Identity, string) (*ports.KPIView, error) {
	return s.view, s.err
}

func (s *stubKPIService) List(_ context.Context, _ *domain.Identity, in ports.ListKPIsInput) (*ports.ListKPIsResult, error) {
	s.lastList = in
	if s.err != nil {
		return nil, s.err
	}
	return &ports.ListKPIsResult{Items: []ports.KPIView{*s.view}, Total: 1, Page: 1, Limit: 20, TotalPages: 1}, nil
}

func (s *stubKPIService) RecordProgress(_ context.Context, _ *domain.Identity, _ string, value float64, note string) (*ports.KPIView, error) {
	s.lastValue, s.lastNote = value, note
	return s.view, s.err
}

func (s *stubKPIService) Submit(context.Context, *domain.Identity, string) (*ports.KPIView, error) {
	return s.view, s.err
}

func (s *stubKPIService) Review(_ context.Context, _ *domain.Identity, _ string, d ports.ReviewDecision) (*ports.KPIView, error) {
	s.lastDec = d
	return s.view, s.err
}

func (s *stubKPIService) Delete(context.Context, *domain.Identity, string) error {
	return s.err
}

func (s *stubKPIService) Summary(_ context.Context, _ *domain.Identity, department string) (*domain.DashboardSummary, error) {
	s.lastDept = department
	return &domain.DashboardSummary{Total: 3, ByStatus: map[domain.KPIStatus]int{domain.StatusPending: 3}}, s.err
}

func sampleView() *ports.KPIView {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	k := &domain.KPI{
		ID:         "kpi-1",
		Title:      "Close deals",
		Department: "sales",
		AssignedTo: "u1",
		Target:     10,
		Current:    5,
		Status:     domain.StatusInProgress,
		DueDate:    now.Add(48 * time.Hour),
		History: []domain.KPIHistoryEntry{
			{Status: domain.StatusPending, ActorID: "admin", Timestamp: now},
		},
	}
	return &ports.KPIView{KPI: k, Completion: 50}
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func TestKPIHandler_Create(t *testing.T) {
	stub := &stubKPIService{view: sampleView()}
	h := NewKPIHandler(stub)

	c, rec := newJSONContext(http.MethodPost, "/api/kpis",
		`{"title":"Close deals","assigned_to":"u1","target":10,"reward_points":25,"due_date":"2026-03-01T00:00:00Z"}`)
	if err := h.Create(c, admin); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.lastInput.RewardPoints != 25 || !stub.lastInput.DueDate.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected service input: %+v", stub.lastInput)
	}

	data := decodeData(t, rec)
	if data["id"] != "kpi-1" || data["completion"] != float64(50) {
		t.Fatalf("unexpected kpi payload: %v", data)
	}
	if history, ok := data["history"].([]any); !ok || len(history) != 1 {
		t.Fatalf("expected history on single kpi response, got %v", data["history"])
	}
}

func TestKPIHandler_Create_Validation(t *testing.T) {
	h := NewKPIHandler(&stubKPIService{view: sampleView()})

	c, _ := newJSONContext(http.MethodPost, "/api/kpis", `{"title":"x","target":-1}`)
	err := h.Create(c, admin)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestKPIHandler_List(t *testing.T) {
	stub := &stubKPIService{view: sampleView()}
	h := NewKPIHandler(stub)

	c, rec := newJSONContext(http.MethodGet, "/api/kpis?status=in_progress&search=deal&page=2&limit=10", "")
	if err := h.List(c, employee); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	want := ports.ListKPIsInput{Status: "in_progress", Search: "deal", Page: 2, Limit: 10}
	if stub.lastList != want {
		t.Fatalf("expected %+v, got %+v", want, stub.lastList)
	}

	data := decodeData(t, rec)
	items := data["items"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if _, ok := items[0].(map[string]any)["history"]; ok {
		t.Fatalf("list items should omit history")
	}

	c, _ = newJSONContext(http.MethodGet, "/api/kpis?status=done", "")
	var he *echo.HTTPError
	if err := h.List(c, employee); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %v", err)
	}
}

func TestKPIHandler_RecordProgress(t *testing.T) {
	stub := &stubKPIService{view: sampleView()}
	h := NewKPIHandler(stub)

	c, _ := newJSONContext(http.MethodPatch, "/api/kpis/kpi-1/progress", `{"value":0,"note":"reset"}`)
	if err := h.RecordProgress(withID(c, "kpi-1"), employee); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.lastValue != 0 || stub.lastNote != "reset" {
		t.Fatalf("unexpected progress call: %v %q", stub.lastValue, stub.lastNote)
	}

	c, _ = newJSONContext(http.MethodPatch, "/api/kpis/kpi-1/progress", `{"note":"no value"}`)
	if err := h.RecordProgress(withID(c, "kpi-1"), employee); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing value, got %v", err)
	}
}

func TestKPIHandler_ReviewSubmitDelete(t *testing.T) {
	stub := &stubKPIService{view: sampleView()}
	h := NewKPIHandler(stub)

	c, _ := newJSONContext(http.MethodPost, "/api/kpis/kpi-1/review", `{"approve":false,"note":"redo"}`)
	if err := h.Review(withID(c, "kpi-1"), admin); err != nil {
		t.Fatalf("review error: %v", err)
	}
	if stub.lastDec != (ports.ReviewDecision{Approve: false, Note: "redo"}) {
		t.Fatalf("unexpected decision: %+v", stub.lastDec)
	}

	c, _ = newJSONContext(http.MethodPost, "/api/kpis/kpi-1/review", `{"note":"missing verdict"}`)
	if err := h.Review(withID(c, "kpi-1"), admin); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	c, rec := newJSONContext(http.MethodPost, "/api/kpis/kpi-1/submit", "")
	if err := h.Submit(withID(c, "kpi-1"), employee); err != nil {
		t.Fatalf("submit error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	stub.err = domain.ErrForbidden
	c, _ = newJSONContext(http.MethodDelete, "/api/kpis/kpi-1", "")
	if err := h.Delete(withID(c, "kpi-1"), employee); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	c, _ = newJSONContext(http.MethodGet, "/api/kpis/", "")
	var he *echo.HTTPError
	if err := h.Get(c, employee); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing id, got %v", err)
	}
}

func TestKPIHandler_Summary(t *testing.T) {
	stub := &stubKPIService{view: sampleView()}
	h := NewKPIHandler(stub)

	c, rec := newJSONContext(http.MethodGet, "/api/dashboard/summary?department=sales", "")
	if err := h.Summary(c, admin); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.lastDept != "sales" {
		t.Fatalf("department not forwarded: %q", stub.lastDept)
	}
	if data := decodeData(t, rec); data["total"] != float64(3) {
		t.Fatalf("unexpected summary: %v", data)
	}
}

type stubAuditReader struct {
	filter ports.AccessLogFilter
}

func (s *stubAuditReader) Recent(_ context.Context, f ports.AccessLogFilter) ([]domain.AccessRecord, error) {
	s.filter = f
	return nil, nil
}

func TestAuditHandler_List(t *testing.T) {
	reader := &stubAuditReader{}
	h := NewAuditHandler(reader)

	c, rec := newJSONContext(http.MethodGet, "/api/system/audit?identity_id=u1&outcome=forbidden-role&limit=50", "")
	if err := h.List(c, admin); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	want := ports.AccessLogFilter{IdentityID: "u1", Outcome: "forbidden-role", Limit: 50}
	if reader.filter != want {
		t.Fatalf("expected %+v, got %+v", want, reader.filter)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Fatalf("expected empty data array, got %d %s", rec.Code, rec.Body.String())
	}
}
