package analysis

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot/internal/agents"
	"taskpilot/internal/ai"
	"taskpilot/internal/store"
	"taskpilot/pkg/models"
)

// roleStub answers each completion based on the requesting persona's role,
// so one client can script a whole pipeline run.
type roleStub struct {
	responses map[string]string
	calls     []string
}

func (r *roleStub) Complete(_ context.Context, req *ai.Request) (*ai.Response, error) {
	r.calls = append(r.calls, req.Role)
	content, ok := r.responses[req.Role]
	if !ok {
		return nil, fmt.Errorf("no scripted response for role %q", req.Role)
	}
	return &ai.Response{
		Provider:  ai.ProviderGemini,
		Content:   content,
		Duration:  time.Millisecond,
		CreatedAt: time.Now(),
	}, nil
}

func (r *roleStub) Provider() ai.Provider           { return ai.ProviderGemini }
func (r *roleStub) Healthy(_ context.Context) error { return nil }

func healthyResponses() map[string]string {
	return map[string]string{
		"Task Analyzer Agent": `{"category": "Feature Request", "priority": "Medium"}`,
		"Product Manager":     `{"user_stories": [{"role": "user", "goal": "toggle dark mode", "benefit": "less eye strain", "acceptance_criteria": ["persists"]}]}`,
		"UX Designer":         `{"recommendations": [{"aspect": "Theming", "suggestion": "Respect OS preference", "rationale": "Less setup"}]}`,
		"Database Architect":  `{"tables": [{"name": "preferences", "fields": [{"name": "id", "type": "uuid", "primary_key": true}]}]}`,
		"Tech Lead":           `{"tasks": [{"id": "BE-1", "title": "Add theme column", "type": "backend", "estimated_hours": 2}]}`,
		"QA Strategist":       `{"test_strategy": {"test_levels": {"unit_tests": []}}}`,
		"Security Analyst":    `{"security_analysis": {"risk_assessment": {"vulnerabilities": []}}}`,
		"Project Manager":     `{"timeline": {"total_weeks": 2, "sprints": []}}`,
		"DevOps Specialist":   `{"infrastructure": {"compute": {"type": "kubernetes"}}}`,
	}
}

func testService(t *testing.T, stub ai.Client) (*Service, *store.Store) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := store.Open("", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	st := store.New(db)

	router := ai.NewRouterWithClients(stub)
	return NewService(agents.NewSuite(router), st), st
}

func createReq() *models.CreateTaskRequest {
	return &models.CreateTaskRequest{
		Description: "Add dark mode",
		UserStory:   "As a user, I want a dark theme",
		Context:     "Requested by many users",
	}
}

func TestAnalyzeHappyPath(t *testing.T) {
	stub := &roleStub{responses: healthyResponses()}
	svc, st := testService(t, stub)
	ctx := context.Background()

	task, err := svc.Analyze(ctx, createReq())
	require.NoError(t, err)
	require.NotZero(t, task.ID)

	assert.Equal(t, "Feature Request", task.Category)
	assert.Equal(t, "Medium", task.Priority)
	assert.Equal(t, models.StatusAnalyzed, task.Status)

	for name, res := range map[string]*agents.Result{
		"user_stories":        task.UserStories,
		"ux_recommendations":  task.UXRecommendations,
		"database_design":     task.DatabaseDesign,
		"technical_tasks":     task.TechnicalTasks,
		"test_strategy":       task.TestStrategy,
		"security_analysis":   task.SecurityAnalysis,
		"timeline_estimate":   task.TimelineEstimate,
		"infrastructure_plan": task.InfrastructurePlan,
	} {
		assert.False(t, res.IsErr(), "field %s should be successful", name)
	}

	execs, err := st.ExecutionsByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, execs, 10) // 9 steps + 1 run summary

	summary := execs[len(execs)-1]
	assert.Equal(t, "analysis_run", summary.AgentType)
	assert.True(t, summary.Success)
	assert.NotEmpty(t, summary.RunID)
}

func TestProductFailureDegradesDownstream(t *testing.T) {
	responses := healthyResponses()
	responses["Product Manager"] = "sorry, I have no stories today"
	stub := &roleStub{responses: responses}
	svc, st := testService(t, stub)
	ctx := context.Background()

	task, err := svc.Analyze(ctx, createReq())
	require.NoError(t, err)

	require.True(t, task.UserStories.IsErr())
	assert.Equal(t, agents.KindJSONParsingError, task.UserStories.Kind())

	// UX is skipped with a dependency error, not invoked
	require.True(t, task.UXRecommendations.IsErr())
	assert.Equal(t, agents.KindDependencyError, task.UXRecommendations.Kind())
	assert.NotContains(t, stub.calls, "UX Designer")

	// everything downstream still ran on degraded inputs
	assert.False(t, task.DatabaseDesign.IsErr())
	assert.False(t, task.TechnicalTasks.IsErr())
	assert.False(t, task.TestStrategy.IsErr())
	assert.False(t, task.SecurityAnalysis.IsErr())
	assert.False(t, task.TimelineEstimate.IsErr())
	assert.False(t, task.InfrastructurePlan.IsErr())

	execs, err := st.ExecutionsByTask(ctx, task.ID)
	require.NoError(t, err)
	summary := execs[len(execs)-1]
	assert.False(t, summary.Success)
}

func TestClassifyFailureDoesNotBlockPipeline(t *testing.T) {
	responses := healthyResponses()
	responses["Task Analyzer Agent"] = `{"category": "Emergency", "priority": "High"}`
	stub := &roleStub{responses: responses}
	svc, _ := testService(t, stub)

	task, err := svc.Analyze(context.Background(), createReq())
	require.NoError(t, err)

	require.True(t, task.Classification.IsErr())
	assert.Equal(t, agents.KindInvalidStructureError, task.Classification.Kind())
	assert.Empty(t, task.Category)
	assert.Equal(t, models.StatusOpen, task.Status)

	assert.False(t, task.UserStories.IsErr())
	assert.False(t, task.InfrastructurePlan.IsErr())
}

func TestNoCredentialProducesLLMErrorsEverywhere(t *testing.T) {
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := store.Open("", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)

	svc := NewService(agents.NewSuite(ai.NewRouter("", "")), store.New(db))
	assert.False(t, svc.Enabled())

	task, err := svc.Analyze(context.Background(), createReq())
	require.NoError(t, err)

	require.True(t, task.Classification.IsErr())
	assert.Equal(t, agents.KindLLMError, task.Classification.Kind())
	require.True(t, task.UserStories.IsErr())
	assert.Equal(t, agents.KindLLMError, task.UserStories.Kind())
	// UX depends on user stories, so it reports the dependency, not the LLM
	assert.Equal(t, agents.KindDependencyError, task.UXRecommendations.Kind())
}

func TestReanalyzeOverwritesAndAppendsAudit(t *testing.T) {
	stub := &roleStub{responses: healthyResponses()}
	svc, st := testService(t, stub)
	ctx := context.Background()

	task, err := svc.Analyze(ctx, createReq())
	require.NoError(t, err)

	stub.responses["Task Analyzer Agent"] = `{"category": "Chore", "priority": "Low"}`
	again, err := svc.Reanalyze(ctx, task.ID)
	require.NoError(t, err)

	assert.Equal(t, task.ID, again.ID)
	assert.Equal(t, "Chore", again.Category)
	assert.Equal(t, "Low", again.Priority)

	execs, err := st.ExecutionsByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, execs, 20)

	tasks, err := st.ListTasks(ctx, store.TaskFilter{Limit: 100})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestReanalyzeUnknownTask(t *testing.T) {
	stub := &roleStub{responses: healthyResponses()}
	svc, _ := testService(t, stub)

	_, err := svc.Reanalyze(context.Background(), 404)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestReviewStoresCodeReviewResult(t *testing.T) {
	responses := healthyResponses()
	responses["Code Reviewer"] = `{"feedback": [{"file": "main.go", "line": 1, "type": "suggestion", "message": "handle the error"}]}`
	stub := &roleStub{responses: responses}
	svc, st := testService(t, stub)
	ctx := context.Background()

	task, err := svc.Analyze(ctx, createReq())
	require.NoError(t, err)

	reviewed, err := svc.Review(ctx, task.ID, []models.CodeSnippet{
		{File: "main.go", Code: "func main() {}"},
	})
	require.NoError(t, err)
	require.False(t, reviewed.CodeReview.IsErr())

	v, ok := reviewed.CodeReview.Field("feedback")
	require.True(t, ok)
	assert.Len(t, v, 1)

	execs, err := st.ExecutionsByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "code_reviewer", execs[len(execs)-1].AgentType)
}
