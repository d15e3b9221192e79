package agents

import (
	"context"
	"fmt"

	"taskpilot/internal/ai"
)

// Categories a task can be classified into.
var Categories = []string{
	"Bug Fix", "Feature Request", "Documentation", "Research", "Testing", "Chore",
}

// Priorities a task can be assigned.
var Priorities = []string{"High", "Medium", "Low"}

// Classification is the Task Analyzer's validated output.
type Classification struct {
	Category string `json:"category"`
	Priority string `json:"priority"`
}

// TaskAnalyzer classifies incoming tasks into a category and priority.
type TaskAnalyzer struct {
	agent *Agent
}

// NewTaskAnalyzer builds the classifier persona.
func NewTaskAnalyzer(router *ai.Router) *TaskAnalyzer {
	return &TaskAnalyzer{
		agent: NewAgent(router, "task_analyzer",
			"Task Analyzer Agent",
			"Analyze a given task description (and optional user story/context) to determine its category and priority. "+
				"You MUST ONLY output a single, valid JSON string with two keys: 'category' and 'priority'. "+
				"The 'category' MUST be one of: Bug Fix, Feature Request, Documentation, Research, Testing, Chore. "+
				"The 'priority' MUST be one of: High, Medium, Low.",
			"You are an expert project management assistant. Your strength lies in quickly "+
				"understanding the nature of a software development task and assigning it an "+
				"appropriate category and priority based on its description, user story, and any "+
				"provided context. You aim for consistency and clarity. "+
				"Predefined categories are: Bug Fix, Feature Request, Documentation, Research, Testing, Chore. "+
				"Predefined priorities are: High, Medium, Low."),
	}
}

// HasCapability reports whether a model backend is configured.
func (t *TaskAnalyzer) HasCapability() bool { return t.agent.HasCapability() }

// Classify determines the category and priority for a task. Out-of-set
// values from the model count as a structural failure.
func (t *TaskAnalyzer) Classify(ctx context.Context, description, userStory, taskContext string) *Result {
	prompt := fmt.Sprintf(
		"Analyze the following task details and determine its category and priority. "+
			"Description: '%s'. User Story: '%s'. Context: '%s'. "+
			"Return the category and priority as a JSON string with 'category' and 'priority' keys.",
		description, userStory, taskContext)

	expected := `A JSON string containing the 'category' and 'priority'. For example: {"category": "Bug Fix", "priority": "High"}`

	return t.agent.invoke(ctx, prompt, expected, validateClassification)
}

func validateClassification(payload map[string]any) *ErrorRecord {
	category, ok := payload["category"].(string)
	if !ok {
		return NewErrorRecord(KindInvalidStructureError, "",
			"parsed JSON is missing a string 'category'", "")
	}
	priority, ok := payload["priority"].(string)
	if !ok {
		return NewErrorRecord(KindInvalidStructureError, "",
			"parsed JSON is missing a string 'priority'", "")
	}
	if !contains(Categories, category) {
		return NewErrorRecord(KindInvalidStructureError, "",
			fmt.Sprintf("category %q is not one of the predefined categories", category), "")
	}
	if !contains(Priorities, priority) {
		return NewErrorRecord(KindInvalidStructureError, "",
			fmt.Sprintf("priority %q is not one of the predefined priorities", priority), "")
	}
	return nil
}

// ClassificationOf extracts the validated category/priority pair from a
// successful Classify result.
func ClassificationOf(r *Result) (Classification, bool) {
	if r == nil || r.IsErr() || r.payload == nil {
		return Classification{}, false
	}
	category, _ := r.payload["category"].(string)
	priority, _ := r.payload["priority"].(string)
	return Classification{Category: category, Priority: priority}, true
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
