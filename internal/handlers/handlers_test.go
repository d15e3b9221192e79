package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpilot/internal/agents"
	"taskpilot/internal/ai"
	"taskpilot/internal/analysis"
	"taskpilot/internal/cache"
	"taskpilot/internal/store"
	"taskpilot/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// scriptedModel answers by persona role so one stub drives the whole
// pipeline.
type scriptedModel struct {
	responses map[string]string
}

func (s *scriptedModel) Complete(_ context.Context, req *ai.Request) (*ai.Response, error) {
	content, ok := s.responses[req.Role]
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

func (s *scriptedModel) Provider() ai.Provider           { return ai.ProviderGemini }
func (s *scriptedModel) Healthy(_ context.Context) error { return nil }

func scriptedResponses() map[string]string {
	return map[string]string{
		"Task Analyzer Agent": `{"category": "Feature Request", "priority": "Medium"}`,
		"Product Manager":     `{"user_stories": [{"role": "user", "goal": "dark mode", "benefit": "comfort", "acceptance_criteria": ["persists"]}]}`,
		"UX Designer":         `{"recommendations": [{"aspect": "Theming", "suggestion": "Follow OS setting", "rationale": "zero config"}]}`,
		"Database Architect":  `{"tables": [{"name": "preferences", "fields": [{"name": "id", "type": "uuid", "primary_key": true}]}]}`,
		"Tech Lead":           `{"tasks": [{"id": "BE-1", "title": "Add theme column", "type": "backend", "estimated_hours": 2}]}`,
		"QA Strategist":       `{"test_strategy": {"test_levels": {"unit_tests": []}}}`,
		"Security Analyst":    `{"security_analysis": {"risk_assessment": {"vulnerabilities": []}}}`,
		"Project Manager":     `{"timeline": {"total_weeks": 2, "sprints": []}}`,
		"DevOps Specialist":   `{"infrastructure": {"compute": {"type": "kubernetes"}}}`,
		"Code Reviewer":       `{"feedback": [{"file": "main.go", "line": 1, "type": "suggestion", "message": "handle the error"}]}`,
	}
}

type testEnv struct {
	router *gin.Engine
	store  *store.Store
}

func newTestEnv(t *testing.T, aiRouter *ai.Router) *testEnv {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := store.Open("", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)

	st := store.New(db)
	svc := analysis.NewService(agents.NewSuite(aiRouter), st)
	h := NewHandler(st, svc, cache.New(""))

	r := gin.New()
	h.RegisterRoutes(r)
	return &testEnv{router: r, store: st}
}

func scriptedEnv(t *testing.T) *testEnv {
	return newTestEnv(t, ai.NewRouterWithClients(&scriptedModel{responses: scriptedResponses()}))
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestCreateTaskReturnsAnalyzedTask(t *testing.T) {
	env := scriptedEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/tasks", models.CreateTaskRequest{
		Description: "Add dark mode",
		UserStory:   "As a user, I want a dark theme",
		Context:     "Many requests",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeMap(t, w)
	assert.Equal(t, "Feature Request", resp["category"])
	assert.Equal(t, "Medium", resp["priority"])
	assert.Equal(t, models.StatusAnalyzed, resp["status"])

	stories, ok := resp["user_stories"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, stories, "user_stories")
}

func TestCreateTaskRequiresDescription(t *testing.T) {
	env := scriptedEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/tasks", map[string]string{"user_story": "no description"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTaskWithoutCredentialEmbedsErrorRecords(t *testing.T) {
	env := newTestEnv(t, ai.NewRouter("", ""))

	w := env.do(t, http.MethodPost, "/api/v1/tasks", models.CreateTaskRequest{Description: "Add dark mode"})
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decodeMap(t, w)

	category, ok := resp["category"].(map[string]any)
	require.True(t, ok, "category should be error-shaped, got %T", resp["category"])
	assert.Equal(t, true, category["error"])
	assert.Equal(t, string(agents.KindLLMError), category["kind"])

	stories, ok := resp["user_stories"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, stories["error"])
}

func TestGetTaskNotFound(t *testing.T) {
	env := scriptedEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/tasks/999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/tasks/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTasksWithFilters(t *testing.T) {
	env := scriptedEnv(t)
	ctx := context.Background()

	seed := []models.Task{
		{Description: "a", Status: "Open", Category: "Bug Fix", Priority: "High"},
		{Description: "b", Status: "Open", Category: "Chore", Priority: "Low"},
		{Description: "c", Status: "Done", Category: "Bug Fix", Priority: "High"},
	}
	for i := range seed {
		require.NoError(t, env.store.CreateTask(ctx, &seed[i]))
	}

	w := env.do(t, http.MethodGet, "/api/v1/tasks?category=Bug+Fix", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = env.do(t, http.MethodGet, "/api/v1/tasks?status=Open&priority=Low", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0]["description"])

	w = env.do(t, http.MethodGet, "/api/v1/tasks?limit=junk", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateTask(t *testing.T) {
	env := scriptedEnv(t)

	created := decodeMap(t, env.do(t, http.MethodPost, "/api/v1/tasks",
		models.CreateTaskRequest{Description: "Fix crash"}))
	id := int(created["id"].(float64))

	w := env.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/tasks/%d", id),
		map[string]string{"status": models.StatusDone})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusDone, decodeMap(t, w)["status"])

	w = env.do(t, http.MethodPatch, "/api/v1/tasks/999", map[string]string{"status": "Done"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskExecutions(t *testing.T) {
	env := scriptedEnv(t)

	// a task with no audit rows yields 404
	task := &models.Task{Description: "manual"}
	require.NoError(t, env.store.CreateTask(context.Background(), task))
	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/tasks/%d/executions", task.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	created := decodeMap(t, env.do(t, http.MethodPost, "/api/v1/tasks",
		models.CreateTaskRequest{Description: "Add search"}))
	id := int(created["id"].(float64))

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/tasks/%d/executions", id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var execs []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &execs))
	assert.Len(t, execs, 10)
}

func TestReanalyzeOverwritesAnalysis(t *testing.T) {
	stub := &scriptedModel{responses: scriptedResponses()}
	env := newTestEnv(t, ai.NewRouterWithClients(stub))

	created := decodeMap(t, env.do(t, http.MethodPost, "/api/v1/tasks",
		models.CreateTaskRequest{Description: "Tune queries"}))
	id := int(created["id"].(float64))

	stub.responses["Task Analyzer Agent"] = `{"category": "Chore", "priority": "Low"}`
	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%d/reanalyze", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Chore", decodeMap(t, w)["category"])

	w = env.do(t, http.MethodPost, "/api/v1/tasks/999/reanalyze", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReviewTask(t *testing.T) {
	env := scriptedEnv(t)

	created := decodeMap(t, env.do(t, http.MethodPost, "/api/v1/tasks",
		models.CreateTaskRequest{Description: "Refactor parser"}))
	id := int(created["id"].(float64))

	w := env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%d/review", id),
		models.ReviewRequest{Snippets: []models.CodeSnippet{{File: "main.go", Code: "func main() {}"}}})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeMap(t, w)
	review, ok := resp["code_review"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, review, "feedback")

	w = env.do(t, http.MethodPost, fmt.Sprintf("/api/v1/tasks/%d/review", id), map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCategoryStatsSumToTaskCount(t *testing.T) {
	env := scriptedEnv(t)
	ctx := context.Background()

	categories := []string{"Bug Fix", "Bug Fix", "Chore", "Research", "Testing"}
	for _, cat := range categories {
		require.NoError(t, env.store.CreateTask(ctx, &models.Task{Description: "t", Category: cat, Priority: "Low"}))
	}

	w := env.do(t, http.MethodGet, "/api/v1/tasks/stats/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var buckets []store.CountBucket
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &buckets))

	var total int64
	for _, b := range buckets {
		total += b.Count
	}
	assert.Equal(t, int64(len(categories)), total)

	w = env.do(t, http.MethodGet, "/api/v1/tasks/stats/priorities", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAgentPerformanceStats(t *testing.T) {
	env := scriptedEnv(t)

	env.do(t, http.MethodPost, "/api/v1/tasks", models.CreateTaskRequest{Description: "Add export"})

	w := env.do(t, http.MethodGet, "/api/v1/tasks/stats/agent-performance", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var rows []models.AgentPerformance
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.NotEmpty(t, rows)

	byAgent := map[string]models.AgentPerformance{}
	for _, row := range rows {
		byAgent[row.AgentType] = row
	}
	perf, ok := byAgent["task_analyzer"]
	require.True(t, ok)
	assert.Equal(t, int64(1), perf.Executions)
	assert.Equal(t, 1.0, perf.SuccessRate)
}
