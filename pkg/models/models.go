// Package models defines the persistent entities for TaskPilot.
package models

import (
	"time"

	"taskpilot/internal/agents"
)

// Task statuses.
const (
	StatusOpen       = "Open"
	StatusAnalyzed   = "Analyzed"
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
)

// Task is an intake task together with the analysis artifacts produced by
// the agent pipeline. Each artifact column holds either the agent's
// structured payload or an embedded error record, never a bare null once the
// task has been analyzed.
type Task struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Description string `json:"description" gorm:"not null"`
	UserStory   string `json:"user_story,omitempty"`
	Context     string `json:"context,omitempty"`
	Status      string `json:"status" gorm:"default:'Open';index"`

	// Classification results (Task Analyzer agent). The flat columns hold
	// the validated values for filtering; Classification keeps the raw
	// analyzer result, including the error record when classification
	// failed.
	Category       string         `json:"category,omitempty" gorm:"index"`
	Priority       string         `json:"priority,omitempty" gorm:"index"`
	Classification *agents.Result `json:"-" gorm:"serializer:json"`

	// Product analysis
	UserStories       *agents.Result `json:"user_stories,omitempty" gorm:"serializer:json"`
	UXRecommendations *agents.Result `json:"ux_recommendations,omitempty" gorm:"serializer:json"`

	// Technical analysis
	DatabaseDesign *agents.Result `json:"database_design,omitempty" gorm:"serializer:json"`
	TechnicalTasks *agents.Result `json:"technical_tasks,omitempty" gorm:"serializer:json"`
	CodeReview     *agents.Result `json:"code_review,omitempty" gorm:"serializer:json"`

	// Quality analysis
	TestStrategy     *agents.Result `json:"test_strategy,omitempty" gorm:"serializer:json"`
	SecurityAnalysis *agents.Result `json:"security_analysis,omitempty" gorm:"serializer:json"`

	// Operations planning
	TimelineEstimate   *agents.Result `json:"timeline_estimate,omitempty" gorm:"serializer:json"`
	InfrastructurePlan *agents.Result `json:"infrastructure_plan,omitempty" gorm:"serializer:json"`
}

// AgentExecution is an append-only audit row describing one agent step (or
// one whole orchestration run for the summary row). Rows are never updated
// or deleted after creation.
type AgentExecution struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	ExecutedAt time.Time `json:"executed_at" gorm:"autoCreateTime"`

	TaskID    uint   `json:"task_id" gorm:"index;not null"`
	RunID     string `json:"run_id" gorm:"index"`
	AgentType string `json:"agent_type" gorm:"not null;index"`

	InputData  map[string]any `json:"input_data" gorm:"serializer:json"`
	OutputData map[string]any `json:"output_data" gorm:"serializer:json"`

	// ExecutionTime is wall-clock duration in seconds.
	ExecutionTime float64 `json:"execution_time"`
	Success       bool    `json:"success"`
	ErrorMessage  string  `json:"error_message,omitempty"`
}

// AgentConfig stores per-agent tuning knobs. Rows are seeded at migration
// time and toggled through the admin surface.
type AgentConfig struct {
	ID            uint           `json:"id" gorm:"primarykey"`
	UpdatedAt     time.Time      `json:"updated_at"`
	AgentType     string         `json:"agent_type" gorm:"uniqueIndex;not null"`
	Enabled       bool           `json:"enabled" gorm:"default:true"`
	Configuration map[string]any `json:"configuration" gorm:"serializer:json"`
}

// CreateTaskRequest is the POST /tasks payload.
type CreateTaskRequest struct {
	Description string `json:"description" binding:"required"`
	UserStory   string `json:"user_story"`
	Context     string `json:"context"`
}

// UpdateTaskRequest is the PATCH /tasks/:id payload. Nil pointers mean the
// field is left untouched.
type UpdateTaskRequest struct {
	Description *string `json:"description"`
	UserStory   *string `json:"user_story"`
	Context     *string `json:"context"`
	Status      *string `json:"status"`
	Category    *string `json:"category"`
	Priority    *string `json:"priority"`
}

// ReviewRequest is the POST /tasks/:id/review payload.
type ReviewRequest struct {
	Snippets []CodeSnippet `json:"snippets" binding:"required"`
}

// CodeSnippet is one file excerpt submitted for review.
type CodeSnippet struct {
	File string `json:"file"`
	Code string `json:"code"`
}

// AgentPerformance aggregates audit rows for one agent type.
type AgentPerformance struct {
	AgentType        string  `json:"agent_type"`
	Executions       int64   `json:"executions"`
	AvgExecutionTime float64 `json:"avg_execution_time"`
	SuccessRate      float64 `json:"success_rate"`
}
