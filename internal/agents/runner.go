package agents

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/agents/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/plan"
	billing "github.com/majorpremiumllc/hustle-ai-sub001/internal/billing/service"
	"github.com/majorpremiumllc/hustle-ai-sub001/internal/events"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Run report statuses.
const (
	ReportRan     = "ran"
	ReportSkipped = "skipped"
	ReportFailed  = "failed"
)

const (
	runnerParallelism = 4
	// stuckRunCutoff bounds how long a crashed worker can hold a run slot.
	stuckRunCutoff = 2 * time.Hour
)

// Executor performs one category of agent work for one tenant. Global
// executors receive uuid.Nil.
type Executor interface {
	Category() Category
	Run(ctx context.Context, tenantID uuid.UUID) error
}

// RunReport is the per-task outcome of one scheduler tick.
type RunReport struct {
	Task        Category  `json:"task"`
	TenantID    uuid.UUID `json:"tenantId,omitempty"`
	Status      string    `json:"status"`
	NextDueInMs int64     `json:"nextDueInMs,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// TenantLister enumerates the tenants the per-tenant tasks fan out over.
type TenantLister interface {
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

// FeatureChecker gates per-tenant tasks on the tenant's plan.
type FeatureChecker interface {
	CheckFeature(ctx context.Context, tenantID uuid.UUID, feature plan.Feature) (billing.FeatureDecision, error)
}

// RunStore is the persistence surface for run bookkeeping.
type RunStore interface {
	StartRun(ctx context.Context, tenantID uuid.UUID, category string) (uuid.UUID, bool, error)
	FinishRun(ctx context.Context, runID uuid.UUID, status string, runErr error) error
	LastSuccess(ctx context.Context, tenantID uuid.UUID, category string) (time.Time, bool, error)
}

// Runner evaluates the task table and executes what is due. One task's
// failure never blocks the others; each outcome lands in the report list.
type Runner struct {
	tasks     []Task
	executors map[Category]Executor
	store     RunStore
	tenants   TenantLister
	features  FeatureChecker
	lease     *Lease
	eventBus  events.Bus
	log       *logger.Logger
}

func NewRunner(tasks []Task, executors []Executor, store RunStore, tenants TenantLister, features FeatureChecker, lease *Lease, eventBus events.Bus, log *logger.Logger) *Runner {
	byCategory := make(map[Category]Executor, len(executors))
	for _, e := range executors {
		byCategory[e.Category()] = e
	}
	return &Runner{
		tasks:     tasks,
		executors: byCategory,
		store:     store,
		tenants:   tenants,
		features:  features,
		lease:     lease,
		eventBus:  eventBus,
		log:       log,
	}
}

// Tasks returns the scheduling table.
func (r *Runner) Tasks() []Task {
	return r.tasks
}

// RunDue executes every due (tenant, task) pair and reports per-item
// outcomes. Tasks already in flight are skipped, never re-triggered.
func (r *Runner) RunDue(ctx context.Context, now time.Time) []RunReport {
	tenantIDs, err := r.tenants.ListIDs(ctx)
	if err != nil {
		r.log.Error("scheduler tenant listing failed", "error", err)
		return []RunReport{{Status: ReportFailed, Error: fmt.Sprintf("list tenants: %v", err)}}
	}

	var (
		mu      sync.Mutex
		reports []RunReport
	)
	appendReport := func(report RunReport) {
		mu.Lock()
		reports = append(reports, report)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runnerParallelism)

	for _, task := range r.tasks {
		task := task
		if task.Global {
			g.Go(func() error {
				appendReport(r.runGlobal(gctx, task, now))
				return nil
			})
			continue
		}
		for _, tenantID := range tenantIDs {
			tenantID := tenantID
			g.Go(func() error {
				appendReport(r.runForTenant(gctx, task, tenantID, now))
				return nil
			})
		}
	}

	g.Wait()
	return reports
}

// RunNow executes one category immediately for every tenant (or once, for a
// global task), bypassing the interval check but not the in-flight guard.
func (r *Runner) RunNow(ctx context.Context, category Category) []RunReport {
	task, ok := r.findTask(category)
	if !ok {
		return []RunReport{{Task: category, Status: ReportFailed, Error: "unknown task"}}
	}

	if task.Global {
		return []RunReport{r.execute(ctx, task, uuid.Nil)}
	}

	tenantIDs, err := r.tenants.ListIDs(ctx)
	if err != nil {
		return []RunReport{{Task: category, Status: ReportFailed, Error: fmt.Sprintf("list tenants: %v", err)}}
	}

	reports := make([]RunReport, 0, len(tenantIDs))
	for _, tenantID := range tenantIDs {
		reports = append(reports, r.execute(ctx, task, tenantID))
	}
	return reports
}

func (r *Runner) findTask(category Category) (Task, bool) {
	for _, task := range r.tasks {
		if task.Category == category {
			return task, true
		}
	}
	return Task{}, false
}

func (r *Runner) runForTenant(ctx context.Context, task Task, tenantID uuid.UUID, now time.Time) RunReport {
	last, found, err := r.store.LastSuccess(ctx, tenantID, string(task.Category))
	if err != nil {
		return RunReport{Task: task.Category, TenantID: tenantID, Status: ReportFailed, Error: err.Error()}
	}
	if found {
		if remaining := task.Interval - now.Sub(last); remaining > 0 {
			return RunReport{Task: task.Category, TenantID: tenantID, Status: ReportSkipped, NextDueInMs: remaining.Milliseconds()}
		}
	}
	return r.execute(ctx, task, tenantID)
}

func (r *Runner) runGlobal(ctx context.Context, task Task, now time.Time) RunReport {
	last, found, err := r.lease.LastGlobalSuccess(ctx, string(task.Category))
	if err != nil {
		return RunReport{Task: task.Category, Status: ReportFailed, Error: err.Error()}
	}
	if found {
		if remaining := task.Interval - now.Sub(last); remaining > 0 {
			return RunReport{Task: task.Category, Status: ReportSkipped, NextDueInMs: remaining.Milliseconds()}
		}
	}
	return r.execute(ctx, task, uuid.Nil)
}

func (r *Runner) execute(ctx context.Context, task Task, tenantID uuid.UUID) RunReport {
	executor, ok := r.executors[task.Category]
	if !ok {
		return RunReport{Task: task.Category, TenantID: tenantID, Status: ReportFailed, Error: "no executor registered"}
	}

	if !task.Global && task.Feature != "" {
		decision, err := r.features.CheckFeature(ctx, tenantID, task.Feature)
		if err != nil {
			return RunReport{Task: task.Category, TenantID: tenantID, Status: ReportFailed, Error: err.Error()}
		}
		if !decision.Allowed {
			r.log.Info("agent skipped, plan feature not included",
				"task", task.Category, "tenantId", tenantID, "reason", decision.Reason)
			return RunReport{Task: task.Category, TenantID: tenantID, Status: ReportSkipped}
		}
	}

	release, acquired, err := r.lease.Acquire(ctx, tenantID.String(), string(task.Category), task.Interval)
	if err != nil {
		return RunReport{Task: task.Category, TenantID: tenantID, Status: ReportFailed, Error: err.Error()}
	}
	if !acquired {
		return RunReport{Task: task.Category, TenantID: tenantID, Status: ReportSkipped}
	}
	defer release()

	var runID uuid.UUID
	if !task.Global {
		id, started, err := r.store.StartRun(ctx, tenantID, string(task.Category))
		if err != nil {
			return RunReport{Task: task.Category, TenantID: tenantID, Status: ReportFailed, Error: err.Error()}
		}
		if !started {
			return RunReport{Task: task.Category, TenantID: tenantID, Status: ReportSkipped}
		}
		runID = id
	}

	runErr := r.runIsolated(ctx, executor, tenantID)

	status := repository.StatusSucceeded
	reportStatus := ReportRan
	if runErr != nil {
		status = repository.StatusFailed
		reportStatus = ReportFailed
		r.log.AgentRun(string(task.Category), tenantID.String(), status, runErr)
	} else {
		r.log.AgentRun(string(task.Category), tenantID.String(), status, nil)
	}

	if task.Global {
		if runErr == nil {
			if err := r.lease.RecordGlobalSuccess(ctx, string(task.Category), time.Now()); err != nil {
				r.log.Error("record global success failed", "error", err, "task", task.Category)
			}
		}
	} else {
		if err := r.store.FinishRun(ctx, runID, status, runErr); err != nil {
			r.log.Error("finish run failed", "error", err, "task", task.Category, "tenantId", tenantID)
		}
		r.eventBus.Publish(ctx, events.AgentRunFinished{
			BaseEvent: events.NewBaseEvent(),
			RunID:     runID,
			TenantID:  tenantID,
			Category:  string(task.Category),
			Status:    status,
			Error:     errString(runErr),
		})
	}

	report := RunReport{Task: task.Category, TenantID: tenantID, Status: reportStatus}
	if runErr != nil {
		report.Error = runErr.Error()
	}
	return report
}

// runIsolated converts executor panics to errors so one bad task cannot take
// down the scheduler tick.
func (r *Runner) runIsolated(ctx context.Context, executor Executor, tenantID uuid.UUID) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("agent panic: %v", rec)
		}
	}()
	return executor.Run(ctx, tenantID)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
