// Package analysis sequences the agent pipeline for one task and assembles
// the combined result. Steps run strictly in order; a failed step never
// aborts the run — downstream steps either receive degraded (empty) inputs
// or are skipped with a dependency error, depending on each step's declared
// policy.
package analysis

import (
	"context"
	"fmt"

	"taskpilot/internal/agents"
)

// degradePolicy says what a step does when an upstream dependency failed.
type degradePolicy int

const (
	// degradeDefault substitutes an empty list/object for the missing
	// upstream artifact and invokes the agent anyway.
	degradeDefault degradePolicy = iota

	// degradeSkip records a DependencyError without invoking the agent.
	degradeSkip
)

// Step field names. These double as the agent_type labels on audit rows'
// owning step and as keys into the run's result set.
const (
	fieldClassification     = "classification"
	fieldUserStories        = "user_stories"
	fieldUXRecommendations  = "ux_recommendations"
	fieldDatabaseDesign     = "database_design"
	fieldTechnicalTasks     = "technical_tasks"
	fieldTestStrategy       = "test_strategy"
	fieldSecurityAnalysis   = "security_analysis"
	fieldTimelineEstimate   = "timeline_estimate"
	fieldInfrastructurePlan = "infrastructure_plan"
)

// step declares one pipeline node: which agent runs, which upstream fields
// it needs, and how it degrades when they are missing.
type step struct {
	field  string
	agent  string
	needs  []string
	policy degradePolicy
	run    func(ctx context.Context, rc *runContext) *agents.Result
}

// runContext carries the task under analysis plus every step result
// produced so far.
type runContext struct {
	description string
	userStory   string
	taskContext string

	results map[string]*agents.Result
}

func newRunContext(description, userStory, taskContext string) *runContext {
	return &runContext{
		description: description,
		userStory:   userStory,
		taskContext: taskContext,
		results:     make(map[string]*agents.Result),
	}
}

// failedDeps returns the upstream fields of s that ended in an error.
func (rc *runContext) failedDeps(s step) []string {
	var failed []string
	for _, dep := range s.needs {
		if rc.results[dep].IsErr() {
			failed = append(failed, dep)
		}
	}
	return failed
}

// userStories returns the generated story list, or an empty list when the
// product step failed.
func (rc *runContext) userStories() any {
	if v, ok := rc.results[fieldUserStories].Field("user_stories"); ok {
		return v
	}
	return []any{}
}

// databaseDesign returns the schema payload, or an empty object.
func (rc *runContext) databaseDesign() any {
	if r := rc.results[fieldDatabaseDesign]; !r.IsErr() && r.Payload() != nil {
		return r.Payload()
	}
	return map[string]any{}
}

// technicalTasks returns the full breakdown payload, or an empty object.
func (rc *runContext) technicalTasks() any {
	if r := rc.results[fieldTechnicalTasks]; !r.IsErr() && r.Payload() != nil {
		return r.Payload()
	}
	return map[string]any{}
}

// tasksList returns just the task list from the breakdown, or an empty list.
func (rc *runContext) tasksList() any {
	if v, ok := rc.results[fieldTechnicalTasks].Field("tasks"); ok {
		return v
	}
	return []any{}
}

// pipeline builds the fixed step sequence over the agent suite.
func pipeline(suite *agents.Suite) []step {
	return []step{
		{
			field: fieldClassification,
			agent: "task_analyzer",
			run: func(ctx context.Context, rc *runContext) *agents.Result {
				return suite.Analyzer.Classify(ctx, rc.description, rc.userStory, rc.taskContext)
			},
		},
		{
			field: fieldUserStories,
			agent: "product_manager",
			run: func(ctx context.Context, rc *runContext) *agents.Result {
				return suite.Product.GenerateUserStories(ctx, rc.description, rc.taskContext)
			},
		},
		{
			field:  fieldUXRecommendations,
			agent:  "ux_designer",
			needs:  []string{fieldUserStories},
			policy: degradeSkip,
			run: func(ctx context.Context, rc *runContext) *agents.Result {
				return suite.Product.AnalyzeUX(ctx, rc.description, rc.userStories(), rc.taskContext)
			},
		},
		{
			field: fieldDatabaseDesign,
			agent: "db_architect",
			needs: []string{fieldUserStories},
			run: func(ctx context.Context, rc *runContext) *agents.Result {
				return suite.Technical.DesignDatabase(ctx, rc.userStories(), rc.taskContext)
			},
		},
		{
			field: fieldTechnicalTasks,
			agent: "tech_lead",
			needs: []string{fieldUserStories, fieldDatabaseDesign},
			run: func(ctx context.Context, rc *runContext) *agents.Result {
				return suite.Technical.BreakDownTasks(ctx, rc.description, rc.userStories(), rc.databaseDesign(), rc.taskContext)
			},
		},
		{
			field: fieldTestStrategy,
			agent: "qa_strategist",
			needs: []string{fieldTechnicalTasks},
			run: func(ctx context.Context, rc *runContext) *agents.Result {
				return suite.Quality.DesignTestStrategy(ctx, rc.description, rc.userStories(), rc.technicalTasks(), rc.taskContext)
			},
		},
		{
			field: fieldSecurityAnalysis,
			agent: "security_analyst",
			needs: []string{fieldTechnicalTasks},
			run: func(ctx context.Context, rc *runContext) *agents.Result {
				return suite.Quality.AnalyzeSecurity(ctx, rc.description, rc.technicalTasks(), rc.taskContext)
			},
		},
		{
			field: fieldTimelineEstimate,
			agent: "project_manager",
			needs: []string{fieldTechnicalTasks},
			run: func(ctx context.Context, rc *runContext) *agents.Result {
				return suite.Operations.EstimateTimeline(ctx, rc.tasksList(), rc.taskContext)
			},
		},
		{
			field: fieldInfrastructurePlan,
			agent: "devops_specialist",
			needs: []string{fieldTechnicalTasks},
			run: func(ctx context.Context, rc *runContext) *agents.Result {
				return suite.Operations.PlanInfrastructure(ctx, rc.description, rc.technicalTasks(), rc.taskContext)
			},
		},
	}
}

// dependencyError builds the failure record for a skipped step.
func dependencyError(agent string, failed []string) *agents.ErrorRecord {
	return agents.NewErrorRecord(agents.KindDependencyError, agent,
		fmt.Sprintf("upstream step(s) failed: %v", failed), "")
}
