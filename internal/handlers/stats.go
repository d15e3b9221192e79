package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskpilot/internal/store"
	"taskpilot/pkg/models"
)

// CategoryStats returns task counts grouped by category.
func (h *Handler) CategoryStats(c *gin.Context) {
	const key = statsPrefix + "categories"

	var cached []store.CountBucket
	if h.cache.GetJSON(c.Request.Context(), key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	buckets, err := h.store.CategoryCounts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute category stats"})
		return
	}

	h.cache.SetJSON(c.Request.Context(), key, buckets)
	c.JSON(http.StatusOK, buckets)
}

// PriorityStats returns task counts grouped by priority.
func (h *Handler) PriorityStats(c *gin.Context) {
	const key = statsPrefix + "priorities"

	var cached []store.CountBucket
	if h.cache.GetJSON(c.Request.Context(), key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	buckets, err := h.store.PriorityCounts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute priority stats"})
		return
	}

	h.cache.SetJSON(c.Request.Context(), key, buckets)
	c.JSON(http.StatusOK, buckets)
}

// AgentPerformanceStats aggregates the audit trail per agent type.
func (h *Handler) AgentPerformanceStats(c *gin.Context) {
	const key = statsPrefix + "agent-performance"

	var cached []models.AgentPerformance
	if h.cache.GetJSON(c.Request.Context(), key, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	rows, err := h.store.AgentPerformance(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute agent performance"})
		return
	}

	h.cache.SetJSON(c.Request.Context(), key, rows)
	c.JSON(http.StatusOK, rows)
}
