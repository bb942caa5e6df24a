package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kpicentral/kpi-central/internal/core/domain"
	"github.com/kpicentral/kpi-central/internal/core/ports"
)

type stubKPIRepo struct {
	kpis       map[string]*domain.KPI
	seq        int
	lastFilter ports.ListKPIsFilter
}

func newStubKPIRepo() *stubKPIRepo {
	return &stubKPIRepo{kpis: make(map[string]*domain.KPI)}
}

func cloneKPI(k *domain.KPI) *domain.KPI {
	clone := *k
	clone.History = append([]domain.KPIHistoryEntry(nil), k.History...)
	return &clone
}

func (r *stubKPIRepo) Create(_ context.Context, k *domain.KPI) (*domain.KPI, error) {
	r.seq++
	created := cloneKPI(k)
	created.ID = fmt.Sprintf("kpi-%d", r.seq)
	r.kpis[created.ID] = cloneKPI(created)
	return created, nil
}

func (r *stubKPIRepo) FindByID(_ context.Context, id string) (*domain.KPI, error) {
	k, ok := r.kpis[id]
	if !ok {
		return nil, domain.ErrKPINotFound
	}
	return cloneKPI(k), nil
}

func (r *stubKPIRepo) Update(_ context.Context, k *domain.KPI, entry domain.KPIHistoryEntry) error {
	stored, ok := r.kpis[k.ID]
	if !ok {
		return domain.ErrKPINotFound
	}
	updated := cloneKPI(k)
	updated.History = append(stored.History, entry)
	r.kpis[k.ID] = updated
	return nil
}

func (r *stubKPIRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.kpis[id]; !ok {
		return domain.ErrKPINotFound
	}
	delete(r.kpis, id)
	return nil
}

func (r *stubKPIRepo) List(_ context.Context, filter ports.ListKPIsFilter) ([]*domain.KPI, int64, error) {
	r.lastFilter = filter
	var out []*domain.KPI
	for i := 1; i <= r.seq; i++ {
		k, ok := r.kpis[fmt.Sprintf("kpi-%d", i)]
		if !ok {
			continue
		}
		if filter.AssignedTo != "" && k.AssignedTo != filter.AssignedTo {
			continue
		}
		if filter.Department != "" && k.Department != filter.Department {
			continue
		}
		if filter.Status != "" && string(k.Status) != filter.Status {
			continue
		}
		out = append(out, cloneKPI(k))
	}
	return out, int64(len(out)), nil
}

type kpiFixture struct {
	svc   *KPIService
	repo  *stubKPIRepo
	clock *testClock
	admin *domain.Identity
	alice *domain.Identity
	bob   *domain.Identity
}

func newKPIFixture(t *testing.T) *kpiFixture {
	t.Helper()
	users := newStubUserRepo()
	users.users["admin"] = &domain.User{ID: "admin", Email: "admin@x.com", Role: domain.RoleAdmin, Department: "ops"}
	users.users["alice"] = &domain.User{ID: "alice", Email: "alice@x.com", Role: domain.RoleEmployee, Department: "sales"}
	users.users["bob"] = &domain.User{ID: "bob", Email: "bob@x.com", Role: domain.RoleEmployee, Department: "support"}

	identity := func(id string) *domain.Identity {
		i := users.users[id].Identity()
		return &i
	}

	f := &kpiFixture{
		repo:  newStubKPIRepo(),
		clock: newTestClock(),
		admin: identity("admin"),
		alice: identity("alice"),
		bob:   identity("bob"),
	}
	f.svc = NewKPIService(f.repo, users, f.clock.Now, zerolog.Nop())
	return f
}

func (f *kpiFixture) create(t *testing.T, assignee string, target float64) *ports.KPIView {
	t.Helper()
	v, err := f.svc.Create(context.Background(), f.admin, ports.CreateKPIInput{
		Title:        "Close deals",
		AssignedTo:   assignee,
		Target:       target,
		RewardPoints: 50,
		DueDate:      f.clock.now.Add(7 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	return v
}

func TestKPIService_Create(t *testing.T) {
	f := newKPIFixture(t)

	v := f.create(t, "alice", 10)
	if v.Status != domain.StatusPending {
		t.Fatalf("expected pending, got %s", v.Status)
	}
	if v.Department != "sales" {
		t.Fatalf("expected department inherited from assignee, got %q", v.Department)
	}
	if v.Weight != 1 {
		t.Fatalf("expected default weight 1, got %v", v.Weight)
	}
	if v.CreatedBy != "admin" || len(v.History) != 1 {
		t.Fatalf("unexpected creator or history: %+v", v.KPI)
	}
}

func TestKPIService_Create_Validation(t *testing.T) {
	f := newKPIFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, f.alice, ports.CreateKPIInput{Title: "x", AssignedTo: "alice", Target: 1}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for employee, got %v", err)
	}
	if _, err := f.svc.Create(ctx, f.admin, ports.CreateKPIInput{Title: " ", AssignedTo: "alice", Target: 1}); !errors.Is(err, domain.ErrInvalidKPI) {
		t.Fatalf("expected ErrInvalidKPI for blank title, got %v", err)
	}
	if _, err := f.svc.Create(ctx, f.admin, ports.CreateKPIInput{Title: "x", AssignedTo: "alice", Target: 0}); !errors.Is(err, domain.ErrInvalidKPI) {
		t.Fatalf("expected ErrInvalidKPI for zero target, got %v", err)
	}
	if _, err := f.svc.Create(ctx, f.admin, ports.CreateKPIInput{Title: "x", AssignedTo: "nobody", Target: 1}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for unknown assignee, got %v", err)
	}
}

func TestKPIService_Get_Ownership(t *testing.T) {
	f := newKPIFixture(t)
	ctx := context.Background()
	v := f.create(t, "alice", 10)

	if _, err := f.svc.Get(ctx, f.alice, v.ID); err != nil {
		t.Fatalf("assignee should read own kpi: %v", err)
	}
	if _, err := f.svc.Get(ctx, f.admin, v.ID); err != nil {
		t.Fatalf("admin should read any kpi: %v", err)
	}
	if _, err := f.svc.Get(ctx, f.bob, v.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for other employee, got %v", err)
	}
	if _, err := f.svc.Get(ctx, f.alice, "kpi-404"); !errors.Is(err, domain.ErrKPINotFound) {
		t.Fatalf("expected ErrKPINotFound, got %v", err)
	}
}

func TestKPIService_Lifecycle(t *testing.T) {
	f := newKPIFixture(t)
	ctx := context.Background()
	v := f.create(t, "alice", 10)

	got, err := f.svc.RecordProgress(ctx, f.alice, v.ID, 4, "first week")
	if err != nil {
		t.Fatalf("RecordProgress returned error: %v", err)
	}
	if got.Status != domain.StatusInProgress || got.Completion != 40 {
		t.Fatalf("expected in_progress at 40%%, got %s at %v", got.Status, got.Completion)
	}

	if _, err := f.svc.Review(ctx, f.admin, v.ID, ports.ReviewDecision{Approve: true}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition reviewing unsubmitted kpi, got %v", err)
	}

	if _, err := f.svc.Submit(ctx, f.alice, v.ID); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if _, err := f.svc.RecordProgress(ctx, f.alice, v.ID, 5, ""); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition recording progress on submitted kpi, got %v", err)
	}

	got, err = f.svc.Review(ctx, f.admin, v.ID, ports.ReviewDecision{Approve: false, Note: "needs evidence"})
	if err != nil {
		t.Fatalf("Review returned error: %v", err)
	}
	if got.Status != domain.StatusRejected || got.ReviewNote != "needs evidence" {
		t.Fatalf("expected rejected with note, got %s %q", got.Status, got.ReviewNote)
	}

	if _, err := f.svc.Submit(ctx, f.alice, v.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition resubmitting without rework, got %v", err)
	}

	if _, err := f.svc.RecordProgress(ctx, f.alice, v.ID, 10, "done"); err != nil {
		t.Fatalf("RecordProgress after rejection returned error: %v", err)
	}
	if _, err := f.svc.Submit(ctx, f.alice, v.ID); err != nil {
		t.Fatalf("resubmit returned error: %v", err)
	}
	got, err = f.svc.Review(ctx, f.admin, v.ID, ports.ReviewDecision{Approve: true})
	if err != nil {
		t.Fatalf("approve returned error: %v", err)
	}
	if got.Status != domain.StatusApproved {
		t.Fatalf("expected approved, got %s", got.Status)
	}

	stored := f.repo.kpis[v.ID]
	if len(stored.History) != 7 {
		t.Fatalf("expected 7 history entries, got %d", len(stored.History))
	}
}

func TestKPIService_ModifyRequiresAssignee(t *testing.T) {
	f := newKPIFixture(t)
	ctx := context.Background()
	v := f.create(t, "alice", 10)

	if _, err := f.svc.RecordProgress(ctx, f.bob, v.ID, 1, ""); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for other employee, got %v", err)
	}
	if _, err := f.svc.RecordProgress(ctx, f.admin, v.ID, 1, ""); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for admin progress, got %v", err)
	}
	if _, err := f.svc.Submit(ctx, f.bob, v.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden submitting another's kpi, got %v", err)
	}
	if _, err := f.svc.RecordProgress(ctx, f.alice, v.ID, -1, ""); !errors.Is(err, domain.ErrInvalidKPI) {
		t.Fatalf("expected ErrInvalidKPI for negative progress, got %v", err)
	}
	if _, err := f.svc.Review(ctx, f.alice, v.ID, ports.ReviewDecision{Approve: true}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for employee review, got %v", err)
	}
}

func TestKPIService_List_ScopesEmployees(t *testing.T) {
	f := newKPIFixture(t)
	ctx := context.Background()
	f.create(t, "alice", 10)
	f.create(t, "alice", 20)
	f.create(t, "bob", 5)

	res, err := f.svc.List(ctx, f.alice, ports.ListKPIsInput{AssignedTo: "bob", Limit: 500})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if res.Total != 2 || len(res.Items) != 2 {
		t.Fatalf("expected alice's 2 kpis, got %d", res.Total)
	}
	if f.repo.lastFilter.AssignedTo != "alice" {
		t.Fatalf("employee filter not forced to caller, got %q", f.repo.lastFilter.AssignedTo)
	}
	if res.Limit != maxKPIPageSize || res.Page != 1 || res.TotalPages != 1 {
		t.Fatalf("unexpected paging: %+v", res)
	}

	res, err = f.svc.List(ctx, f.admin, ports.ListKPIsInput{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if res.Total != 3 || res.Limit != defaultKPIPageSize {
		t.Fatalf("admin should see all 3 with default limit, got %d/%d", res.Total, res.Limit)
	}

	if _, err := f.svc.List(ctx, nil, ports.ListKPIsInput{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for anonymous list, got %v", err)
	}
}

func TestKPIService_Delete(t *testing.T) {
	f := newKPIFixture(t)
	ctx := context.Background()
	v := f.create(t, "alice", 10)

	if err := f.svc.Delete(ctx, f.alice, v.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for employee delete, got %v", err)
	}
	if err := f.svc.Delete(ctx, f.admin, v.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := f.svc.Delete(ctx, f.admin, v.ID); !errors.Is(err, domain.ErrKPINotFound) {
		t.Fatalf("expected ErrKPINotFound on second delete, got %v", err)
	}
}

func TestKPIService_Summary(t *testing.T) {
	f := newKPIFixture(t)
	ctx := context.Background()

	a := f.create(t, "alice", 10)
	f.create(t, "alice", 10)
	f.create(t, "bob", 10)

	if _, err := f.svc.RecordProgress(ctx, f.alice, a.ID, 10, ""); err != nil {
		t.Fatalf("RecordProgress returned error: %v", err)
	}
	if _, err := f.svc.Submit(ctx, f.alice, a.ID); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if _, err := f.svc.Review(ctx, f.admin, a.ID, ports.ReviewDecision{Approve: true}); err != nil {
		t.Fatalf("Review returned error: %v", err)
	}

	f.clock.Advance(8 * 24 * time.Hour)

	sum, err := f.svc.Summary(ctx, f.alice, "support")
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if sum.Total != 2 {
		t.Fatalf("employee summary should cover own kpis only, got %d", sum.Total)
	}
	if sum.ByStatus[domain.StatusApproved] != 1 || sum.ByStatus[domain.StatusPending] != 1 {
		t.Fatalf("unexpected status breakdown: %v", sum.ByStatus)
	}
	if sum.AverageCompletion != 50 {
		t.Fatalf("expected average completion 50, got %v", sum.AverageCompletion)
	}
	if sum.Overdue != 1 || sum.RewardPointsEarned != 50 {
		t.Fatalf("expected 1 overdue and 50 points, got %d and %d", sum.Overdue, sum.RewardPointsEarned)
	}

	sum, err = f.svc.Summary(ctx, f.admin, "support")
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if sum.Total != 1 {
		t.Fatalf("admin department summary should count 1 kpi, got %d", sum.Total)
	}
}
