package agents

import (
	"context"
	"fmt"

	"taskpilot/internal/ai"
)

// ProductAgents holds the product-facing personas: a product manager for
// user-story generation and a UX designer for experience analysis.
type ProductAgents struct {
	productManager *Agent
	uxDesigner     *Agent
}

// NewProductAgents builds both product personas on the shared router.
func NewProductAgents(router *ai.Router) *ProductAgents {
	return &ProductAgents{
		productManager: NewAgent(router, "product_manager",
			"Product Manager",
			"Generate comprehensive user stories for the given app idea. "+
				"Break down features into clear, actionable user stories that capture "+
				"user needs, desired outcomes, and business value.",
			"You are a detail-oriented product manager with years of experience in app development. "+
				"You excel at understanding user needs and translating them into clear, valuable features. "+
				"You focus on creating user stories that are specific, measurable, achievable, relevant, "+
				"and time-bound (SMART)."),
		uxDesigner: NewAgent(router, "ux_designer",
			"UX Designer",
			"Analyze user experience implications and suggest UI/UX improvements. "+
				"Evaluate proposed features from a user-centered design perspective "+
				"and provide specific recommendations for optimal user experience.",
			"You are a creative designer with deep expertise in user-centered design principles. "+
				"You have a proven track record of creating intuitive, accessible, and engaging user "+
				"interfaces. You always consider user needs, accessibility requirements, and current "+
				"design trends in your recommendations."),
	}
}

// HasCapability reports whether a model backend is configured.
func (p *ProductAgents) HasCapability() bool { return p.productManager.HasCapability() }

// GenerateUserStories produces user stories for a feature. Successful
// payloads carry a "user_stories" list.
func (p *ProductAgents) GenerateUserStories(ctx context.Context, description, taskContext string) *Result {
	prompt := fmt.Sprintf(
		"Generate user stories for the following feature:\n"+
			"Feature: %s\nContext: %s\n"+
			"Create a JSON object containing an array of user stories, where each story has "+
			"'role', 'goal', 'benefit', and 'acceptance_criteria' fields.",
		description, taskContext)

	expected := `A JSON string containing an array of user stories. Example:
{"user_stories": [
  {
    "role": "registered user",
    "goal": "reset my password",
    "benefit": "regain access to my account",
    "acceptance_criteria": ["Can request reset via email", "..."]
  }
]}`

	return p.productManager.invoke(ctx, prompt, expected, requireList("user_stories"))
}

// AnalyzeUX evaluates UX implications given the generated user stories.
// Successful payloads carry a "recommendations" list.
func (p *ProductAgents) AnalyzeUX(ctx context.Context, description string, userStories any, taskContext string) *Result {
	prompt := fmt.Sprintf(
		"Analyze the UX implications of this feature and provide recommendations:\n"+
			"Feature: %s\nUser Stories: %s\nContext: %s\n"+
			"Provide a JSON object with UX recommendations and potential issues.",
		description, toJSON(userStories), taskContext)

	expected := `A JSON string containing UX analysis. Example:
{
  "recommendations": [
    {
      "aspect": "Navigation",
      "suggestion": "Add breadcrumb navigation",
      "rationale": "Improves user orientation"
    }
  ],
  "potential_issues": ["..."],
  "accessibility_considerations": ["..."]
}`

	return p.uxDesigner.invoke(ctx, prompt, expected, requireList("recommendations"))
}
