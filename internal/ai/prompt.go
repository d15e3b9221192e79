package ai

import "strings"

// systemPrompt composes the persona instructions shared by all providers.
func systemPrompt(req *Request) string {
	var sb strings.Builder
	sb.WriteString("You are ")
	sb.WriteString(req.Role)
	sb.WriteString(".\n\n")
	if req.Goal != "" {
		sb.WriteString("Your goal: ")
		sb.WriteString(req.Goal)
		sb.WriteString("\n\n")
	}
	if req.Backstory != "" {
		sb.WriteString("Background: ")
		sb.WriteString(req.Backstory)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Respond with valid JSON only. Do not add commentary outside the JSON value.")
	return sb.String()
}

// userPrompt composes the task prompt plus the expected-output hint.
func userPrompt(req *Request) string {
	if req.ExpectedOutput == "" {
		return req.Prompt
	}
	return req.Prompt + "\n\nExpected output:\n" + req.ExpectedOutput
}
