package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"taskpilot/pkg/models"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the repository over tasks, audit rows and agent configs.
type Store struct {
	db *gorm.DB
}

// New wraps an open GORM handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Health pings the database.
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// CreateTask inserts a new task row.
func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	return s.db.WithContext(ctx).Create(task).Error
}

// GetTask fetches one task by id.
func (s *Store) GetTask(ctx context.Context, id uint) (*models.Task, error) {
	var task models.Task
	err := s.db.WithContext(ctx).First(&task, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// TaskFilter narrows ListTasks. Zero values mean "no constraint"; Limit is
// clamped to 1..100 with a default of 10.
type TaskFilter struct {
	Status   string
	Category string
	Priority string
	Limit    int
}

func (f TaskFilter) limit() int {
	switch {
	case f.Limit <= 0:
		return 10
	case f.Limit > 100:
		return 100
	default:
		return f.Limit
	}
}

// ListTasks returns tasks matching the filter, newest first.
func (s *Store) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	q := s.db.WithContext(ctx).Model(&models.Task{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}

	var tasks []models.Task
	err := q.Order("created_at DESC").Limit(filter.limit()).Find(&tasks).Error
	return tasks, err
}

// UpdateTask applies the non-nil fields of req to the task and returns the
// refreshed row.
func (s *Store) UpdateTask(ctx context.Context, id uint, req *models.UpdateTaskRequest) (*models.Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.UserStory != nil {
		updates["user_story"] = *req.UserStory
	}
	if req.Context != nil {
		updates["context"] = *req.Context
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if len(updates) == 0 {
		return task, nil
	}

	if err := s.db.WithContext(ctx).Model(task).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetTask(ctx, id)
}

// SaveTask persists the full task row, overwriting analysis columns. Used
// by the orchestrator after a run and by reanalysis.
func (s *Store) SaveTask(ctx context.Context, task *models.Task) error {
	return s.db.WithContext(ctx).Save(task).Error
}

// RecordExecution appends one audit row. Audit rows are never updated.
func (s *Store) RecordExecution(ctx context.Context, exec *models.AgentExecution) error {
	return s.db.WithContext(ctx).Create(exec).Error
}

// ExecutionsByTask returns all audit rows for a task, oldest first.
func (s *Store) ExecutionsByTask(ctx context.Context, taskID uint) ([]models.AgentExecution, error) {
	var execs []models.AgentExecution
	err := s.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("id ASC").
		Find(&execs).Error
	return execs, err
}

// AgentConfigs returns all per-agent configuration rows.
func (s *Store) AgentConfigs(ctx context.Context) ([]models.AgentConfig, error) {
	var configs []models.AgentConfig
	err := s.db.WithContext(ctx).Order("agent_type ASC").Find(&configs).Error
	return configs, err
}
