package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskpilot/internal/logging"
	"taskpilot/internal/store"
	"taskpilot/pkg/models"
)

// cache key prefixes; mutations invalidate both.
const (
	taskListPrefix = "tasks:"
	statsPrefix    = "stats:"
)

// CreateTask accepts a task description and runs the full analysis
// pipeline before responding. Per-step failures are embedded in the
// response fields, never surfaced as an HTTP error.
func (h *Handler) CreateTask(c *gin.Context) {
	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
		return
	}

	task, err := h.analysis.Analyze(c.Request.Context(), &req)
	if err != nil {
		logging.S().Errorw("task analysis failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to analyze task"})
		return
	}

	h.invalidate(c)
	c.JSON(http.StatusCreated, taskResponse(task))
}

// ListTasks returns tasks filtered by status, category and priority.
// limit is clamped to 1..100 and defaults to 10.
func (h *Handler) ListTasks(c *gin.Context) {
	filter := store.TaskFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Priority: c.Query("priority"),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		filter.Limit = n
	}

	key := fmt.Sprintf("%slist:%s:%s:%s:%d",
		taskListPrefix, filter.Status, filter.Category, filter.Priority, filter.Limit)

	var cached []map[string]any
	if h.cache.GetJSON(c.Request.Context(), key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	tasks, err := h.store.ListTasks(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}

	resp := taskListResponse(tasks)
	h.cache.SetJSON(c.Request.Context(), key, resp)
	c.JSON(http.StatusOK, resp)
}

// GetTask returns one task by id.
func (h *Handler) GetTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	task, err := h.store.GetTask(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load task"})
		return
	}
	c.JSON(http.StatusOK, taskResponse(task))
}

// UpdateTask applies a partial update to a task's editable fields.
func (h *Handler) UpdateTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	task, err := h.store.UpdateTask(c.Request.Context(), id, &req)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task"})
		return
	}

	h.invalidate(c)
	c.JSON(http.StatusOK, taskResponse(task))
}

// TaskExecutions returns the audit trail for a task; 404 when the task has
// no recorded executions.
func (h *Handler) TaskExecutions(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	execs, err := h.store.ExecutionsByTask(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load executions"})
		return
	}
	if len(execs) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no executions found for task"})
		return
	}
	c.JSON(http.StatusOK, execs)
}

// ReanalyzeTask re-runs the whole analysis chain on an existing task,
// overwriting its analysis fields and appending fresh audit rows.
func (h *Handler) ReanalyzeTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	task, err := h.analysis.Reanalyze(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if err != nil {
		logging.S().Errorw("reanalysis failed", "task_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reanalyze task"})
		return
	}

	h.invalidate(c)
	c.JSON(http.StatusOK, taskResponse(task))
}

// ReviewTask runs the code reviewer over submitted snippets plus the
// task's technical breakdown.
func (h *Handler) ReviewTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "snippets are required"})
		return
	}

	task, err := h.analysis.Review(c.Request.Context(), id, req.Snippets)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to review task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"task_id": task.ID, "code_review": task.CodeReview})
}

func (h *Handler) invalidate(c *gin.Context) {
	h.cache.DeletePrefix(c.Request.Context(), taskListPrefix)
	h.cache.DeletePrefix(c.Request.Context(), statsPrefix)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return 0, false
	}
	return uint(id), true
}
