package agents

import (
	"context"
	"fmt"

	"taskpilot/internal/ai"
)

// OperationsAgents holds the project manager and DevOps specialist personas.
type OperationsAgents struct {
	projectManager   *Agent
	devopsSpecialist *Agent
}

// NewOperationsAgents builds the operations personas on the shared router.
func NewOperationsAgents(router *ai.Router) *OperationsAgents {
	return &OperationsAgents{
		projectManager: NewAgent(router, "project_manager",
			"Project Manager",
			"Estimate time for tasks and create project timelines considering team velocity. "+
				"Focus on realistic scheduling and resource allocation.",
			"You are a skilled project manager with expertise in Agile methodologies. "+
				"You excel at estimating task complexity and duration based on team capabilities. "+
				"Your focus is on creating realistic timelines while identifying potential risks "+
				"and dependencies early in the planning process."),
		devopsSpecialist: NewAgent(router, "devops_specialist",
			"DevOps Specialist",
			"Evaluate infrastructure requirements and design CI/CD pipelines. "+
				"Focus on automation, scalability, and operational efficiency.",
			"You are an experienced DevOps engineer with expertise in cloud infrastructure "+
				"and deployment automation. You excel at designing scalable infrastructure and "+
				"implementing efficient CI/CD pipelines. You always consider security, "+
				"monitoring, and maintainability in your solutions."),
	}
}

// HasCapability reports whether a model backend is configured.
func (o *OperationsAgents) HasCapability() bool { return o.projectManager.HasCapability() }

// EstimateTimeline produces sprint-level time estimates for a task list.
// Successful payloads carry a "timeline" object.
func (o *OperationsAgents) EstimateTimeline(ctx context.Context, tasks any, taskContext string) *Result {
	teamVelocity := map[string]any{
		"sprint_length_weeks": 2,
		"avg_velocity_points": 30,
		"team_size":           5,
		"avg_hours_per_point": 4,
	}

	prompt := fmt.Sprintf(
		"Estimate timeline for these tasks considering team velocity:\n"+
			"Tasks: %s\nTeam Velocity: %s\nContext: %s\n"+
			"Create a JSON object with timeline estimates and recommendations.",
		toJSON(tasks), toJSON(teamVelocity), taskContext)

	expected := `A JSON object containing timeline estimates. Example:
{
  "timeline": {
    "total_weeks": 6,
    "total_story_points": 90,
    "sprints": [
      {
        "sprint": 1,
        "tasks": ["BE-1", "BE-2"],
        "story_points": 30
      }
    ]
  },
  "risks": ["Dependencies might delay delivery"],
  "recommendations": ["Consider parallel development"]
}`

	return o.projectManager.invoke(ctx, prompt, expected, requireObject("timeline"))
}

// PlanInfrastructure designs infrastructure and a CI/CD pipeline.
// Successful payloads carry an "infrastructure" object.
func (o *OperationsAgents) PlanInfrastructure(ctx context.Context, description string, technicalRequirements any, taskContext string) *Result {
	scaleRequirements := map[string]any{
		"expected_users":      1000,
		"peak_concurrent":     100,
		"data_storage_gb":     50,
		"availability_target": 0.99,
	}

	prompt := fmt.Sprintf(
		"Design infrastructure and CI/CD pipeline for this feature:\n"+
			"Feature: %s\nTechnical Requirements: %s\nScale Requirements: %s\nContext: %s\n"+
			"Create a JSON object with infrastructure and pipeline design.",
		description, toJSON(technicalRequirements), toJSON(scaleRequirements), taskContext)

	expected := `A JSON object containing infrastructure plan. Example:
{
  "infrastructure": {
    "compute": {
      "type": "kubernetes",
      "sizing": {
        "initial_nodes": 2,
        "autoscaling": {"min": 2, "max": 5}
      }
    },
    "storage": {
      "type": "managed_sql",
      "backup_strategy": "daily"
    }
  },
  "ci_cd": {
    "pipeline_stages": ["build", "test", "deploy"],
    "deployment_strategy": "blue-green"
  },
  "monitoring": ["cpu_usage", "error_rates"],
  "security_measures": ["waf", "ssl_termination"]
}`

	return o.devopsSpecialist.invoke(ctx, prompt, expected, requireObject("infrastructure"))
}
