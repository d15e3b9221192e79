// Package handlers exposes the task-intake API over Gin.
package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"taskpilot/internal/analysis"
	"taskpilot/internal/cache"
	"taskpilot/internal/store"
	"taskpilot/pkg/models"
)

// Handler carries the dependencies shared by all HTTP endpoints.
type Handler struct {
	store    *store.Store
	analysis *analysis.Service
	cache    *cache.Cache
}

// NewHandler wires the API surface to its collaborators.
func NewHandler(st *store.Store, svc *analysis.Service, c *cache.Cache) *Handler {
	return &Handler{store: st, analysis: svc, cache: c}
}

// RegisterRoutes mounts the API under /api/v1.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	{
		tasks := v1.Group("/tasks")
		{
			tasks.POST("", h.CreateTask)
			tasks.GET("", h.ListTasks)
			tasks.GET("/:id", h.GetTask)
			tasks.PATCH("/:id", h.UpdateTask)
			tasks.GET("/:id/executions", h.TaskExecutions)
			tasks.POST("/:id/reanalyze", h.ReanalyzeTask)
			tasks.POST("/:id/review", h.ReviewTask)

			tasks.GET("/stats/categories", h.CategoryStats)
			tasks.GET("/stats/priorities", h.PriorityStats)
			tasks.GET("/stats/agent-performance", h.AgentPerformanceStats)
		}
	}
}

// taskResponse renders a task for the API. When classification failed, the
// category and priority fields carry the embedded error record instead of
// the (empty) flat strings, so consumers can branch on the error marker.
func taskResponse(task *models.Task) map[string]any {
	data, err := json.Marshal(task)
	if err != nil {
		return map[string]any{"id": task.ID}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{"id": task.ID}
	}

	if task.Classification.IsErr() {
		m["category"] = task.Classification.ErrRecord()
		m["priority"] = task.Classification.ErrRecord()
	}
	return m
}

func taskListResponse(tasks []models.Task) []map[string]any {
	out := make([]map[string]any, 0, len(tasks))
	for i := range tasks {
		out = append(out, taskResponse(&tasks[i]))
	}
	return out
}
