package analysis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"taskpilot/internal/agents"
	"taskpilot/internal/logging"
	"taskpilot/internal/metrics"
	"taskpilot/internal/store"
	"taskpilot/pkg/models"
)

// runSummaryAgent is the agent_type label of the per-run audit summary row.
const runSummaryAgent = "analysis_run"

// Service orchestrates the agent pipeline and persists results.
type Service struct {
	suite *agents.Suite
	store *store.Store
}

// NewService wires the agent suite to the task store.
func NewService(suite *agents.Suite, st *store.Store) *Service {
	return &Service{suite: suite, store: st}
}

// Enabled reports whether the agent suite has a usable model backend.
func (s *Service) Enabled() bool {
	return s.suite.Enabled()
}

// Analyze creates a task row, runs the full agent pipeline on it and
// persists the combined result. Step failures are embedded in the task's
// artifact fields; only storage faults surface as errors.
func (s *Service) Analyze(ctx context.Context, req *models.CreateTaskRequest) (*models.Task, error) {
	task := &models.Task{
		Description: req.Description,
		UserStory:   req.UserStory,
		Context:     req.Context,
		Status:      models.StatusOpen,
	}
	if err := s.store.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	metrics.Get().TasksCreatedTotal.Inc()

	if err := s.run(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Reanalyze re-runs the whole pipeline on an existing task, overwriting its
// analysis fields in place and appending fresh audit rows.
func (s *Service) Reanalyze(ctx context.Context, taskID uint) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.run(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Review runs the code-review agent against a task's technical breakdown
// plus submitted snippets and stores the outcome on the task.
func (s *Service) Review(ctx context.Context, taskID uint, snippets []models.CodeSnippet) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	var tasksList any = []any{}
	if v, ok := task.TechnicalTasks.Field("tasks"); ok {
		tasksList = v
	}

	start := time.Now()
	result := s.suite.Technical.ReviewImplementation(ctx, tasksList, snippets)
	elapsed := time.Since(start)
	metrics.Get().RecordAgentExecution("code_reviewer", !result.IsErr(), elapsed)

	task.CodeReview = result
	if err := s.store.SaveTask(ctx, task); err != nil {
		return nil, err
	}

	s.audit(ctx, task.ID, uuid.NewString(), "code_reviewer",
		map[string]any{"snippets": len(snippets)}, result, elapsed)
	return task, nil
}

// run executes every pipeline step in order, fills the task's analysis
// fields, persists the row once, and writes the audit trail.
func (s *Service) run(ctx context.Context, task *models.Task) error {
	runID := uuid.NewString()
	rc := newRunContext(task.Description, task.UserStory, task.Context)
	runStart := time.Now()

	type stepRecord struct {
		agent   string
		result  *agents.Result
		elapsed time.Duration
	}
	var records []stepRecord

	for _, st := range pipeline(s.suite) {
		var result *agents.Result
		var elapsed time.Duration

		if failed := rc.failedDeps(st); len(failed) > 0 && st.policy == degradeSkip {
			result = agents.Err(dependencyError(st.agent, failed))
			logging.S().Warnw("pipeline step skipped",
				"step", st.field, "failed_dependencies", failed)
		} else {
			start := time.Now()
			result = st.run(ctx, rc)
			elapsed = time.Since(start)
			metrics.Get().RecordAgentExecution(st.agent, !result.IsErr(), elapsed)
		}

		rc.results[st.field] = result
		records = append(records, stepRecord{agent: st.agent, result: result, elapsed: elapsed})
	}

	s.apply(task, rc)
	if err := s.store.SaveTask(ctx, task); err != nil {
		return err
	}

	// Audit trail: one row per step plus a run summary. Run success means
	// no step produced an error record.
	success := true
	for _, rec := range records {
		if rec.result.IsErr() {
			success = false
		}
		s.audit(ctx, task.ID, runID, rec.agent,
			map[string]any{"description": task.Description}, rec.result, rec.elapsed)
	}

	runElapsed := time.Since(runStart)
	metrics.Get().RecordAnalysisRun(success, runElapsed)

	summary := &models.AgentExecution{
		TaskID:        task.ID,
		RunID:         runID,
		AgentType:     runSummaryAgent,
		InputData:     map[string]any{"description": task.Description},
		OutputData:    map[string]any{"category": task.Category, "priority": task.Priority},
		ExecutionTime: runElapsed.Seconds(),
		Success:       success,
	}
	if err := s.store.RecordExecution(ctx, summary); err != nil {
		logging.S().Errorw("failed to record run summary", "task_id", task.ID, "error", err)
	}

	logging.S().Infow("analysis run completed",
		"task_id", task.ID, "run_id", runID,
		"success", success, "duration_s", runElapsed.Seconds())
	return nil
}

// apply copies step results onto the task row.
func (s *Service) apply(task *models.Task, rc *runContext) {
	task.Classification = rc.results[fieldClassification]
	if c, ok := agents.ClassificationOf(task.Classification); ok {
		task.Category = c.Category
		task.Priority = c.Priority
		task.Status = models.StatusAnalyzed
	}

	task.UserStories = rc.results[fieldUserStories]
	task.UXRecommendations = rc.results[fieldUXRecommendations]
	task.DatabaseDesign = rc.results[fieldDatabaseDesign]
	task.TechnicalTasks = rc.results[fieldTechnicalTasks]
	task.TestStrategy = rc.results[fieldTestStrategy]
	task.SecurityAnalysis = rc.results[fieldSecurityAnalysis]
	task.TimelineEstimate = rc.results[fieldTimelineEstimate]
	task.InfrastructurePlan = rc.results[fieldInfrastructurePlan]
}

// audit appends one step-level audit row; failures are logged, not fatal.
func (s *Service) audit(ctx context.Context, taskID uint, runID, agent string, input map[string]any, result *agents.Result, elapsed time.Duration) {
	exec := &models.AgentExecution{
		TaskID:        taskID,
		RunID:         runID,
		AgentType:     agent,
		InputData:     input,
		OutputData:    resultToMap(result),
		ExecutionTime: elapsed.Seconds(),
		Success:       !result.IsErr(),
	}
	if result.IsErr() {
		exec.ErrorMessage = result.ErrRecord().Error()
	}
	if err := s.store.RecordExecution(ctx, exec); err != nil {
		logging.S().Errorw("failed to record agent execution",
			"task_id", taskID, "agent", agent, "error", err)
	}
}

// resultToMap renders a Result as a generic map for the audit row.
func resultToMap(r *agents.Result) map[string]any {
	if r == nil {
		return nil
	}
	if !r.IsErr() {
		return r.Payload()
	}
	data, err := json.Marshal(r.ErrRecord())
	if err != nil {
		return map[string]any{"error": true}
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{"error": true}
	}
	return m
}
