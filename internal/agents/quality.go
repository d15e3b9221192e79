package agents

import (
	"context"
	"fmt"

	"taskpilot/internal/ai"
)

// QualityAgents holds the QA strategist and security analyst personas.
type QualityAgents struct {
	qaStrategist    *Agent
	securityAnalyst *Agent
}

// NewQualityAgents builds the quality personas on the shared router.
func NewQualityAgents(router *ai.Router) *QualityAgents {
	return &QualityAgents{
		qaStrategist: NewAgent(router, "qa_strategist",
			"QA Strategist",
			"Design comprehensive testing strategies including unit, integration, and e2e tests. "+
				"Focus on test coverage, automation, and quality assurance processes.",
			"You are an expert in quality assurance with deep knowledge of testing "+
				"methodologies and automation frameworks. You excel at designing comprehensive "+
				"test strategies that ensure robust and reliable software. You always consider "+
				"edge cases, error scenarios, and user workflows in your test plans."),
		securityAnalyst: NewAgent(router, "security_analyst",
			"Security Analyst",
			"Analyze security implications and requirements for proposed features. "+
				"Focus on identifying potential vulnerabilities and recommending security measures.",
			"You are an experienced cybersecurity expert specializing in web application "+
				"security. You have a strong background in identifying security risks and "+
				"implementing protective measures. You always consider the latest security "+
				"threats and best practices in your analysis."),
	}
}

// HasCapability reports whether a model backend is configured.
func (q *QualityAgents) HasCapability() bool { return q.qaStrategist.HasCapability() }

// DesignTestStrategy produces a test plan for the feature. Successful
// payloads carry a "test_strategy" object.
func (q *QualityAgents) DesignTestStrategy(ctx context.Context, description string, userStories, technicalSpecs any, taskContext string) *Result {
	prompt := fmt.Sprintf(
		"Design a comprehensive test strategy for this feature:\n"+
			"Feature: %s\nUser Stories: %s\nTechnical Specs: %s\nContext: %s\n"+
			"Create a JSON object detailing the test strategy and coverage plans "+
			"under a top-level 'test_strategy' key.",
		description, toJSON(userStories), toJSON(technicalSpecs), taskContext)

	expected := `A JSON object containing test strategy. Example:
{
  "test_strategy": {
    "test_levels": {
      "unit_tests": [
        {
          "component": "UserPreferences",
          "scenarios": ["Valid input", "Invalid input"],
          "coverage_targets": ["Methods", "Edge cases"]
        }
      ],
      "integration_tests": [
        {
          "flow": "Save preferences",
          "components": ["API", "Database"],
          "scenarios": ["Success", "Failure"]
        }
      ],
      "e2e_tests": ["Complete user workflow"]
    },
    "automation_approach": ["Jest", "Cypress"],
    "test_data_strategy": "Mock external services",
    "quality_gates": ["80% coverage", "Zero high-severity bugs"]
  }
}`

	return q.qaStrategist.invoke(ctx, prompt, expected, requireObject("test_strategy"))
}

// AnalyzeSecurity evaluates security implications of the feature.
// Successful payloads carry a "security_analysis" object.
func (q *QualityAgents) AnalyzeSecurity(ctx context.Context, description string, technicalSpecs any, taskContext string) *Result {
	dataHandling := map[string]any{
		"data_types": []string{"personal_info", "preferences"},
		"storage":    "encrypted_database",
		"retention":  "user_lifetime",
	}

	prompt := fmt.Sprintf(
		"Analyze security implications for this feature:\n"+
			"Feature: %s\nTechnical Specs: %s\nData Handling: %s\nContext: %s\n"+
			"Create a JSON object with security analysis and recommendations "+
			"under a top-level 'security_analysis' key.",
		description, toJSON(technicalSpecs), toJSON(dataHandling), taskContext)

	expected := `A JSON object containing security analysis. Example:
{
  "security_analysis": {
    "risk_assessment": {
      "vulnerabilities": [
        {
          "type": "Injection",
          "severity": "High",
          "mitigation": "Input validation"
        }
      ],
      "data_protection": [
        {
          "data_type": "personal_info",
          "measures": ["encryption", "access_control"]
        }
      ]
    },
    "security_requirements": ["Authentication", "Authorization"],
    "compliance_considerations": ["GDPR", "CCPA"],
    "recommendations": ["Implement rate limiting"]
  }
}`

	return q.securityAnalyst.invoke(ctx, prompt, expected, requireObject("security_analysis"))
}
