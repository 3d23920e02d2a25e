package agents

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/agents/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/plan"
	billing "github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/service"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/events"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/logger"

	"github.com/google/uuid"
)

type memoryRunStore struct {
	mu        sync.Mutex
	running   map[string]uuid.UUID
	successes map[string]time.Time
	finished  []string
}

func newMemoryRunStore() *memoryRunStore {
	return &memoryRunStore{
		running:   make(map[string]uuid.UUID),
		successes: make(map[string]time.Time),
	}
}

func (s *memoryRunStore) key(tenantID uuid.UUID, category string) string {
	return tenantID.String() + "/" + category
}

func (s *memoryRunStore) StartRun(_ context.Context, tenantID uuid.UUID, category string) (uuid.UUID, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.key(tenantID, category)
	if _, inFlight := s.running[key]; inFlight {
		return uuid.UUID{}, false, nil
	}
	id := uuid.New()
	s.running[key] = id
	return id, true, nil
}

func (s *memoryRunStore) FinishRun(_ context.Context, runID uuid.UUID, status string, _ error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, id := range s.running {
		if id == runID {
			delete(s.running, key)
			if status == repository.StatusSucceeded {
				s.successes[key] = time.Now()
			}
			s.finished = append(s.finished, key+"="+status)
			return nil
		}
	}
	return errors.New("unknown run")
}

func (s *memoryRunStore) LastSuccess(_ context.Context, tenantID uuid.UUID, category string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.successes[s.key(tenantID, category)]
	return t, ok, nil
}

func (s *memoryRunStore) setLastSuccess(tenantID uuid.UUID, category string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successes[s.key(tenantID, category)] = at
}

type staticTenants struct {
	ids []uuid.UUID
}

func (s staticTenants) ListIDs(context.Context) ([]uuid.UUID, error) {
	return s.ids, nil
}

type countingExecutor struct {
	category Category
	mu       sync.Mutex
	runs     []uuid.UUID
	err      error
	panics   bool
}

func (e *countingExecutor) Category() Category { return e.category }

func (e *countingExecutor) Run(_ context.Context, tenantID uuid.UUID) error {
	e.mu.Lock()
	e.runs = append(e.runs, tenantID)
	e.mu.Unlock()
	if e.panics {
		panic("executor blew up")
	}
	return e.err
}

func (e *countingExecutor) runCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.runs)
}

type nullBus struct{}

func (nullBus) Publish(context.Context, events.Event)           {}
func (nullBus) PublishSync(context.Context, events.Event) error { return nil }
func (nullBus) Subscribe(string, events.Handler)                {}

type staticFeatures struct {
	denied map[plan.Feature]bool
}

func (s staticFeatures) CheckFeature(_ context.Context, _ uuid.UUID, feature plan.Feature) (billing.FeatureDecision, error) {
	if s.denied[feature] {
		return billing.FeatureDecision{Allowed: false, Reason: "plan does not include " + string(feature)}, nil
	}
	return billing.FeatureDecision{Allowed: true}, nil
}

func testRunner(tasks []Task, executors []Executor, store RunStore, tenants TenantLister) *Runner {
	return NewRunner(tasks, executors, store, tenants, staticFeatures{}, NewLease(nil), nullBus{}, logger.New("test"))
}

func reportFor(reports []RunReport, category Category, tenantID uuid.UUID) (RunReport, bool) {
	for _, r := range reports {
		if r.Task == category && r.TenantID == tenantID {
			return r, true
		}
	}
	return RunReport{}, false
}

func TestRunDue_RunsDueTasksForEveryTenant(t *testing.T) {
	tenantA, tenantB := uuid.New(), uuid.New()
	exec := &countingExecutor{category: CategoryLeadNurture}
	store := newMemoryRunStore()
	runner := testRunner(
		[]Task{{Category: CategoryLeadNurture, Interval: time.Hour}},
		[]Executor{exec},
		store,
		staticTenants{ids: []uuid.UUID{tenantA, tenantB}},
	)

	reports := runner.RunDue(context.Background(), time.Now())

	if exec.runCount() != 2 {
		t.Fatalf("expected 2 runs, got %d", exec.runCount())
	}
	for _, tenantID := range []uuid.UUID{tenantA, tenantB} {
		report, ok := reportFor(reports, CategoryLeadNurture, tenantID)
		if !ok || report.Status != ReportRan {
			t.Fatalf("expected ran report for %s, got %+v", tenantID, report)
		}
	}
}

func TestRunDue_SkipsNotYetDueWithETA(t *testing.T) {
	tenantID := uuid.New()
	exec := &countingExecutor{category: CategoryLeadNurture}
	store := newMemoryRunStore()
	store.setLastSuccess(tenantID, string(CategoryLeadNurture), time.Now().Add(-10*time.Minute))
	runner := testRunner(
		[]Task{{Category: CategoryLeadNurture, Interval: time.Hour}},
		[]Executor{exec},
		store,
		staticTenants{ids: []uuid.UUID{tenantID}},
	)

	reports := runner.RunDue(context.Background(), time.Now())

	if exec.runCount() != 0 {
		t.Fatalf("expected no runs, got %d", exec.runCount())
	}
	report, ok := reportFor(reports, CategoryLeadNurture, tenantID)
	if !ok || report.Status != ReportSkipped {
		t.Fatalf("expected skipped report, got %+v", report)
	}
	if report.NextDueInMs <= 0 || report.NextDueInMs > (50*time.Minute).Milliseconds() {
		t.Fatalf("expected ETA within 50m, got %dms", report.NextDueInMs)
	}
}

func TestRunDue_DueAgainAfterInterval(t *testing.T) {
	tenantID := uuid.New()
	exec := &countingExecutor{category: CategoryLeadNurture}
	store := newMemoryRunStore()
	store.setLastSuccess(tenantID, string(CategoryLeadNurture), time.Now().Add(-61*time.Minute))
	runner := testRunner(
		[]Task{{Category: CategoryLeadNurture, Interval: time.Hour}},
		[]Executor{exec},
		store,
		staticTenants{ids: []uuid.UUID{tenantID}},
	)

	reports := runner.RunDue(context.Background(), time.Now())

	report, ok := reportFor(reports, CategoryLeadNurture, tenantID)
	if !ok || report.Status != ReportRan {
		t.Fatalf("expected ran report past the interval, got %+v", report)
	}
}

func TestRunDue_InFlightRunSkipped(t *testing.T) {
	tenantID := uuid.New()
	exec := &countingExecutor{category: CategoryLeadNurture}
	store := newMemoryRunStore()
	if _, started, err := store.StartRun(context.Background(), tenantID, string(CategoryLeadNurture)); err != nil || !started {
		t.Fatal("failed to seed in-flight run")
	}
	runner := testRunner(
		[]Task{{Category: CategoryLeadNurture, Interval: time.Hour}},
		[]Executor{exec},
		store,
		staticTenants{ids: []uuid.UUID{tenantID}},
	)

	reports := runner.RunDue(context.Background(), time.Now())

	if exec.runCount() != 0 {
		t.Fatalf("expected in-flight guard to block the run, got %d runs", exec.runCount())
	}
	report, _ := reportFor(reports, CategoryLeadNurture, tenantID)
	if report.Status != ReportSkipped {
		t.Fatalf("expected skipped report, got %+v", report)
	}
}

func TestRunDue_FailureIsolatedPerTenant(t *testing.T) {
	tenantA, tenantB := uuid.New(), uuid.New()
	failing := &countingExecutor{category: CategoryEmailOutreach, err: errors.New("smtp refused")}
	healthy := &countingExecutor{category: CategoryLeadNurture}
	store := newMemoryRunStore()
	runner := testRunner(
		[]Task{
			{Category: CategoryEmailOutreach, Interval: 4 * time.Hour},
			{Category: CategoryLeadNurture, Interval: time.Hour},
		},
		[]Executor{failing, healthy},
		store,
		staticTenants{ids: []uuid.UUID{tenantA, tenantB}},
	)

	reports := runner.RunDue(context.Background(), time.Now())

	if healthy.runCount() != 2 {
		t.Fatalf("healthy task blocked by failing one: %d runs", healthy.runCount())
	}
	report, _ := reportFor(reports, CategoryEmailOutreach, tenantA)
	if report.Status != ReportFailed || report.Error == "" {
		t.Fatalf("expected failed report with error, got %+v", report)
	}

	// A failed run must not advance the success clock.
	if _, found, _ := store.LastSuccess(context.Background(), tenantA, string(CategoryEmailOutreach)); found {
		t.Fatal("failed run recorded as success")
	}
}

func TestRunDue_PanicRecovered(t *testing.T) {
	tenantID := uuid.New()
	exec := &countingExecutor{category: CategoryMarketScan, panics: true}
	store := newMemoryRunStore()
	runner := testRunner(
		[]Task{{Category: CategoryMarketScan, Interval: 6 * time.Hour}},
		[]Executor{exec},
		store,
		staticTenants{ids: []uuid.UUID{tenantID}},
	)

	reports := runner.RunDue(context.Background(), time.Now())

	report, _ := reportFor(reports, CategoryMarketScan, tenantID)
	if report.Status != ReportFailed {
		t.Fatalf("expected panic converted to failure, got %+v", report)
	}
	if len(store.running) != 0 {
		t.Fatal("panicked run left in running state")
	}
}

func TestRunNow_BypassesInterval(t *testing.T) {
	tenantID := uuid.New()
	exec := &countingExecutor{category: CategoryLeadNurture}
	store := newMemoryRunStore()
	store.setLastSuccess(tenantID, string(CategoryLeadNurture), time.Now())
	runner := testRunner(
		[]Task{{Category: CategoryLeadNurture, Interval: time.Hour}},
		[]Executor{exec},
		store,
		staticTenants{ids: []uuid.UUID{tenantID}},
	)

	reports := runner.RunNow(context.Background(), CategoryLeadNurture)

	if exec.runCount() != 1 {
		t.Fatalf("expected manual trigger to run, got %d", exec.runCount())
	}
	if len(reports) != 1 || reports[0].Status != ReportRan {
		t.Fatalf("expected ran report, got %+v", reports)
	}
}

func TestRunNow_UnknownCategory(t *testing.T) {
	runner := testRunner(DefaultTasks, nil, newMemoryRunStore(), staticTenants{})

	reports := runner.RunNow(context.Background(), Category("does-not-exist"))
	if len(reports) != 1 || reports[0].Status != ReportFailed {
		t.Fatalf("expected failed report for unknown category, got %+v", reports)
	}
}

func TestRunDue_GlobalTaskRunsOnce(t *testing.T) {
	exec := &countingExecutor{category: CategoryConversationSweep}
	store := newMemoryRunStore()
	runner := testRunner(
		[]Task{{Category: CategoryConversationSweep, Interval: 10 * time.Minute, Global: true}},
		[]Executor{exec},
		store,
		staticTenants{ids: []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}},
	)

	reports := runner.RunDue(context.Background(), time.Now())

	if exec.runCount() != 1 {
		t.Fatalf("global task must run once per tick, got %d", exec.runCount())
	}
	if len(reports) != 1 || reports[0].TenantID != uuid.Nil {
		t.Fatalf("expected single tenantless report, got %+v", reports)
	}
}

func TestRunDue_FeatureGateSkipsExcludedPlan(t *testing.T) {
	tenantID := uuid.New()
	exec := &countingExecutor{category: CategoryMarketScan}
	store := newMemoryRunStore()
	runner := NewRunner(
		[]Task{{Category: CategoryMarketScan, Interval: 6 * time.Hour, Feature: plan.FeatureMarketScanner}},
		[]Executor{exec},
		store,
		staticTenants{ids: []uuid.UUID{tenantID}},
		staticFeatures{denied: map[plan.Feature]bool{plan.FeatureMarketScanner: true}},
		NewLease(nil),
		nullBus{},
		logger.New("test"),
	)

	reports := runner.RunDue(context.Background(), time.Now())

	if exec.runCount() != 0 {
		t.Fatalf("expected no runs for an excluded feature, got %d", exec.runCount())
	}
	report, ok := reportFor(reports, CategoryMarketScan, tenantID)
	if !ok || report.Status != ReportSkipped {
		t.Fatalf("expected skipped report, got %+v", report)
	}
	if len(store.finished) != 0 {
		t.Fatalf("expected no run rows recorded, got %v", store.finished)
	}

	// A manual trigger honors the same gate.
	now := runner.RunNow(context.Background(), CategoryMarketScan)
	if exec.runCount() != 0 {
		t.Fatalf("expected manual run to stay gated, got %d runs", exec.runCount())
	}
	if len(now) != 1 || now[0].Status != ReportSkipped {
		t.Fatalf("expected skipped manual report, got %+v", now)
	}
}
