package agents

import (
	"context"
	"fmt"

	"taskpilot/internal/ai"
)

// TechnicalAgents holds the engineering personas: a database architect, a
// tech lead, and a code reviewer.
type TechnicalAgents struct {
	dbArchitect  *Agent
	techLead     *Agent
	codeReviewer *Agent
}

// NewTechnicalAgents builds the engineering personas on the shared router.
func NewTechnicalAgents(router *ai.Router) *TechnicalAgents {
	return &TechnicalAgents{
		dbArchitect: NewAgent(router, "db_architect",
			"Database Architect",
			"Design scalable and efficient database schemas based on user stories and requirements. "+
				"Focus on data relationships, indexing strategies, and performance considerations.",
			"You are an expert database architect with extensive experience in designing "+
				"scalable database schemas for modern web applications. You excel at understanding "+
				"complex data relationships and optimizing for both performance and maintainability. "+
				"You consider factors like data integrity, scalability, and query optimization in "+
				"your designs."),
		techLead: NewAgent(router, "tech_lead",
			"Tech Lead",
			"Break down features into detailed technical tasks and plan implementation approach. "+
				"Consider architecture implications, technical debt, and best practices.",
			"You are a seasoned full-stack developer and software architect with years of "+
				"experience leading development teams. You excel at breaking down complex features "+
				"into manageable tasks while ensuring architectural consistency and code quality. "+
				"You always consider scalability, maintainability, and testing in your planning."),
		codeReviewer: NewAgent(router, "code_reviewer",
			"Code Reviewer",
			"Analyze code quality, suggest improvements, and ensure adherence to best practices. "+
				"Focus on code organization, patterns, and potential issues.",
			"You are a senior developer with expertise in code quality and software design "+
				"patterns. You have extensive experience reviewing code across various languages "+
				"and frameworks. You focus on maintainability, readability, and adherence to "+
				"best practices while being pragmatic about real-world constraints."),
	}
}

// HasCapability reports whether a model backend is configured.
func (t *TechnicalAgents) HasCapability() bool { return t.dbArchitect.HasCapability() }

// DesignDatabase produces a schema design from user stories. Successful
// payloads carry a "tables" list.
func (t *TechnicalAgents) DesignDatabase(ctx context.Context, userStories any, taskContext string) *Result {
	prompt := fmt.Sprintf(
		"Design a database schema based on these user stories:\n%s\nContext: %s\n"+
			"Create a JSON object defining the database schema. The main key should be 'tables', containing a list of table objects.\n"+
			"Each table object must have 'name' (string), 'fields' (list of field objects), and can optionally have "+
			"'relationships' (list of relationship objects) and 'indexes' (list of strings).\n"+
			"Each field object must have 'name' (string) and 'type' (string, e.g., VARCHAR(255), INTEGER, TEXT, BOOLEAN, TIMESTAMP, UUID). "+
			"Optional field attributes are 'primary_key' (boolean), 'unique' (boolean), 'not_null' (boolean), 'default' (any), and 'description' (string).\n"+
			"Each relationship object (if present) should specify 'table' (string, related table name), 'type' "+
			"(string, e.g., 'one_to_one', 'one_to_many'), and 'foreign_key' (string, column name).\n"+
			"The 'indexes' field for a table (if present) must be a list of strings, each naming a column or a "+
			"comma-separated list of columns for a composite index.\n"+
			"Optionally, include a top-level 'recommendations' key with a list of strings for best practices.",
		toJSON(userStories), taskContext)

	expected := `A JSON object containing database design. Example:
{
  "tables": [
    {
      "name": "users",
      "fields": [
        {"name": "id", "type": "uuid", "primary_key": true},
        {"name": "email", "type": "varchar", "indexed": true}
      ],
      "relationships": [
        {"table": "profiles", "type": "one_to_one"}
      ],
      "indexes": ["email"]
    }
  ],
  "recommendations": ["Add composite index for search performance"]
}`

	return t.dbArchitect.invoke(ctx, prompt, expected, requireList("tables"))
}

// BreakDownTasks turns a feature into implementation tasks. Successful
// payloads carry a "tasks" list.
func (t *TechnicalAgents) BreakDownTasks(ctx context.Context, description string, userStories, databaseDesign any, taskContext string) *Result {
	prompt := fmt.Sprintf(
		"Break down this feature into technical tasks:\n"+
			"Feature: %s\nUser Stories: %s\nDatabase Design: %s\nContext: %s\n"+
			"Create a JSON object with implementation tasks and technical considerations.",
		description, toJSON(userStories), toJSON(databaseDesign), taskContext)

	expected := `A JSON object containing tasks breakdown. Example:
{
  "tasks": [
    {
      "id": "BE-1",
      "title": "Implement user model",
      "description": "Create user model with fields...",
      "type": "backend",
      "dependencies": [],
      "estimated_hours": 4
    }
  ],
  "technical_considerations": ["API versioning needed"],
  "architectural_decisions": ["Use repository pattern"]
}`

	return t.techLead.invoke(ctx, prompt, expected, requireList("tasks"))
}

// ReviewImplementation reviews an implementation plan plus code snippets.
// Successful payloads carry a "feedback" list.
func (t *TechnicalAgents) ReviewImplementation(ctx context.Context, tasks, codeSnippets any) *Result {
	prompt := fmt.Sprintf(
		"Review these implementation tasks and code snippets:\n"+
			"Tasks: %s\nCode Snippets: %s\n"+
			"Provide a JSON object with code review feedback and recommendations.",
		toJSON(tasks), toJSON(codeSnippets))

	expected := `A JSON object containing review feedback. Example:
{
  "feedback": [
    {
      "file": "user_model.py",
      "line": 23,
      "type": "suggestion",
      "message": "Consider adding input validation"
    }
  ],
  "best_practices": ["Add error handling"],
  "security_considerations": ["Sanitize user input"]
}`

	return t.codeReviewer.invoke(ctx, prompt, expected, requireList("feedback"))
}
