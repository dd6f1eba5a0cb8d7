package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/hrnotify/internal/automation"
	"github.com/timmy/hrnotify/internal/domain"
	"github.com/timmy/hrnotify/internal/logger"
)

// RunHandler triggers automations and batches. Only one run is allowed at
// a time per process.
type RunHandler struct {
	controller *automation.Controller
	batches    *automation.BatchRunner

	mu            sync.RWMutex
	isRunning     bool
	current       string
	lastRunTime   time.Time
	lastRunStatus string
	lastTally     domain.DispatchTally
}

// NewRunHandler creates a new run handler.
func NewRunHandler(controller *automation.Controller, batches *automation.BatchRunner) *RunHandler {
	return &RunHandler{controller: controller, batches: batches}
}

// RunAutomationResponse is returned by RunAutomation.
type RunAutomationResponse struct {
	Automation string               `json:"automation"`
	Tally      domain.DispatchTally `json:"tally"`
}

// RunStatusResponse describes the current and last run.
type RunStatusResponse struct {
	IsRunning     bool                  `json:"is_running"`
	Current       string                `json:"current,omitempty"`
	LastRunTime   string                `json:"last_run_time,omitempty"`
	LastRunStatus string                `json:"last_run_status,omitempty"`
	LastTally     *domain.DispatchTally `json:"last_tally,omitempty"`
}

// BatchInfo describes a registered batch.
type BatchInfo struct {
	Name        string   `json:"name"`
	Automations []string `json:"automations"`
}

// ListAutomations returns the registered automations and batches.
func (h *RunHandler) ListAutomations(c *gin.Context) {
	batches := make([]BatchInfo, 0)
	for _, name := range h.batches.Batches() {
		names, _ := h.batches.Automations(name)
		batches = append(batches, BatchInfo{Name: name, Automations: names})
	}
	c.JSON(http.StatusOK, gin.H{
		"automations": h.controller.Automations(),
		"batches":     batches,
	})
}

// RunAutomation runs one automation synchronously.
func (h *RunHandler) RunAutomation(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.Param("name")

	if !h.controller.Has(name) {
		logger.CtxWarn(ctx, "Unknown automation requested: automation=%s, client_ip=%s", name, c.ClientIP())
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown automation: " + name})
		return
	}
	if !h.begin(name) {
		logger.CtxWarn(ctx, "Run request rejected: already running, automation=%s", name)
		c.JSON(http.StatusConflict, gin.H{"error": "A run is already in progress"})
		return
	}

	// The run outlives a dropped HTTP connection.
	tally, err := h.guard(func() (domain.DispatchTally, error) {
		return h.controller.Run(context.WithoutCancel(ctx), name)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, RunAutomationResponse{Automation: name, Tally: tally})
}

// RunBatch runs a batch synchronously. The query parameter parallel=true
// runs the automations of the batch concurrently.
func (h *RunHandler) RunBatch(c *gin.Context) {
	ctx := c.Request.Context()
	name := c.Param("name")
	parallel := c.Query("parallel") == "true"

	if _, ok := h.batches.Automations(name); !ok {
		logger.CtxWarn(ctx, "Unknown batch requested: batch=%s, client_ip=%s", name, c.ClientIP())
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown batch: " + name})
		return
	}
	if !h.begin(name) {
		logger.CtxWarn(ctx, "Run request rejected: already running, batch=%s", name)
		c.JSON(http.StatusConflict, gin.H{"error": "A run is already in progress"})
		return
	}

	var report automation.Report
	_, err := h.guard(func() (domain.DispatchTally, error) {
		var runErr error
		report, runErr = h.batches.Run(context.WithoutCancel(ctx), name, parallel)
		return report.Tally, runErr
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, automation.ErrUnknownBatch) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// Status reports whether a run is in progress and how the last one ended.
func (h *RunHandler) Status(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	resp := RunStatusResponse{
		IsRunning:     h.isRunning,
		Current:       h.current,
		LastRunStatus: h.lastRunStatus,
	}
	if !h.lastRunTime.IsZero() {
		resp.LastRunTime = h.lastRunTime.Format(time.RFC3339)
		tally := h.lastTally
		resp.LastTally = &tally
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RunHandler) begin(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.isRunning {
		return false
	}
	h.isRunning = true
	h.current = name
	return true
}

// guard runs fn and always releases the run slot. A panic in fn is
// returned as an error.
func (h *RunHandler) guard(fn func() (domain.DispatchTally, error)) (tally domain.DispatchTally, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run panicked: %v", r)
		}
		h.finish(tally, err)
	}()
	return fn()
}

func (h *RunHandler) finish(tally domain.DispatchTally, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.isRunning = false
	h.current = ""
	h.lastRunTime = time.Now()
	h.lastTally = tally
	if err != nil {
		h.lastRunStatus = "failed: " + err.Error()
	} else {
		h.lastRunStatus = "success"
	}
}
