package store

import (
	"context"

	"taskpilot/pkg/models"
)

// CountBucket is one label/count pair from an aggregate query.
type CountBucket struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// CategoryCounts groups tasks by category. Unclassified tasks appear under
// an empty label.
func (s *Store) CategoryCounts(ctx context.Context) ([]CountBucket, error) {
	var buckets []CountBucket
	err := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Select("category AS label, COUNT(*) AS count").
		Group("category").
		Order("count DESC").
		Scan(&buckets).Error
	return buckets, err
}

// PriorityCounts groups tasks by priority.
func (s *Store) PriorityCounts(ctx context.Context) ([]CountBucket, error) {
	var buckets []CountBucket
	err := s.db.WithContext(ctx).
		Model(&models.Task{}).
		Select("priority AS label, COUNT(*) AS count").
		Group("priority").
		Order("count DESC").
		Scan(&buckets).Error
	return buckets, err
}

// AgentPerformance aggregates audit rows per agent type: execution count,
// mean wall-clock seconds and success rate.
func (s *Store) AgentPerformance(ctx context.Context) ([]models.AgentPerformance, error) {
	var rows []models.AgentPerformance
	err := s.db.WithContext(ctx).
		Model(&models.AgentExecution{}).
		Select("agent_type, COUNT(*) AS executions, AVG(execution_time) AS avg_execution_time, AVG(CASE WHEN success THEN 1.0 ELSE 0.0 END) AS success_rate").
		Group("agent_type").
		Order("agent_type ASC").
		Scan(&rows).Error
	return rows, err
}
