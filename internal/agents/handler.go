package agents

import (
	"context"
	"net/http"
	"time"

	"github.com/majorpremiumllc/hustle-ai-sub001/internal/agents/repository"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/httpkit"
	"github.com/majorpremiumllc/hustle-ai-sub001/platform/validator"

	"github.com/gin-gonic/gin"
)

// manualRunWait bounds how long a manual trigger blocks before answering
// with a placeholder. The run keeps going in the background either way.
const manualRunWait = 15 * time.Second

type handler struct {
	runner *Runner
	loop   *Loop
	runs   *repository.Repository
	val    *validator.Validator
}

// cronRun executes every due task once. External cron services hit this
// endpoint; the loop in agentd covers deployments without one.
func (h *handler) cronRun(c *gin.Context) {
	now := time.Now()
	reports := h.runner.RunDue(c.Request.Context(), now)
	httpkit.OK(c, gin.H{
		"ranAt":   now.UTC().Format(time.RFC3339),
		"reports": reports,
	})
}

type runRequest struct {
	Agent string `json:"agent" validate:"required"`
}

// runAgent triggers one task immediately. Fast runs return their reports;
// slow runs answer 202 and finish in the background.
func (h *handler) runAgent(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	category := Category(req.Agent)
	if _, ok := h.runner.findTask(category); !ok {
		httpkit.Error(c, http.StatusBadRequest, "unknown agent", gin.H{"agent": req.Agent})
		return
	}

	done := make(chan []RunReport, 1)
	go func() {
		done <- h.runner.RunNow(context.WithoutCancel(c.Request.Context()), category)
	}()

	select {
	case reports := <-done:
		httpkit.OK(c, gin.H{"agent": req.Agent, "reports": reports})
	case <-time.After(manualRunWait):
		httpkit.JSON(c, http.StatusAccepted, gin.H{"agent": req.Agent, "status": "running"})
	}
}

type controlRequest struct {
	Action string `json:"action" validate:"required,oneof=start stop status"`
}

// control starts or stops the in-process scheduler loop.
func (h *handler) control(c *gin.Context) {
	var req controlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	switch req.Action {
	case "start":
		h.loop.Start(context.Background())
	case "stop":
		h.loop.Stop()
	}

	status := "stopped"
	if h.loop.Running() {
		status = "running"
	}
	httpkit.OK(c, gin.H{"status": status})
}

const recentRunsLimit = 50

type runView struct {
	ID         string  `json:"id"`
	Category   string  `json:"category"`
	Status     string  `json:"status"`
	Error      *string `json:"error,omitempty"`
	StartedAt  string  `json:"startedAt"`
	FinishedAt *string `json:"finishedAt,omitempty"`
}

// recentRuns lists the tenant's latest agent runs for the dashboard.
func (h *handler) recentRuns(c *gin.Context) {
	tenantID, ok := httpkit.TenantID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "missing tenant", nil)
		return
	}

	runs, err := h.runs.RecentRuns(c.Request.Context(), tenantID, recentRunsLimit)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to list runs", nil)
		return
	}

	views := make([]runView, 0, len(runs))
	for _, run := range runs {
		view := runView{
			ID:        run.ID.String(),
			Category:  run.Category,
			Status:    run.Status,
			Error:     run.Error,
			StartedAt: run.StartedAt.UTC().Format(time.RFC3339),
		}
		if run.FinishedAt != nil {
			finished := run.FinishedAt.UTC().Format(time.RFC3339)
			view.FinishedAt = &finished
		}
		views = append(views, view)
	}
	httpkit.OK(c, gin.H{"runs": views})
}
