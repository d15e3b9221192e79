package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"taskpilot/internal/ai"
	"taskpilot/internal/jsonx"
	"taskpilot/internal/logging"
)

// Agent binds a persona (role, goal, backstory) to the shared model router.
type Agent struct {
	Name      string
	Role      string
	Goal      string
	Backstory string

	router *ai.Router
}

// NewAgent constructs a persona-configured agent on top of the router. The
// router carries the credential state, so capability is decided here at
// construction time rather than mid-run.
func NewAgent(router *ai.Router, name, role, goal, backstory string) *Agent {
	return &Agent{
		Name:      name,
		Role:      role,
		Goal:      goal,
		Backstory: backstory,
		router:    router,
	}
}

// HasCapability reports whether a language-model provider is configured.
func (a *Agent) HasCapability() bool {
	return a.router != nil && a.router.Available()
}

// Run submits one task prompt plus an expected-output hint and returns the
// model's raw text answer.
func (a *Agent) Run(ctx context.Context, taskPrompt, expectedOutput string) (string, error) {
	if !a.HasCapability() {
		return "", fmt.Errorf("agent %s: no language model configured", a.Name)
	}

	resp, err := a.router.Complete(ctx, &ai.Request{
		Role:           a.Role,
		Goal:           a.Goal,
		Backstory:      a.Backstory,
		Prompt:         taskPrompt,
		ExpectedOutput: expectedOutput,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// payloadValidator inspects a parsed JSON object and returns a failure
// record when the required structure is absent.
type payloadValidator func(payload map[string]any) *ErrorRecord

// invoke runs the agent once and applies the uniform failure mapping:
// missing capability, model invocation failure, unparseable output, a
// model-signaled error key, and structural validation, in that order.
func (a *Agent) invoke(ctx context.Context, taskPrompt, expectedOutput string, validate payloadValidator) *Result {
	if !a.HasCapability() {
		logging.S().Warnw("agent has no model configured", "agent", a.Name)
		return Err(NewErrorRecord(KindLLMError, a.Name,
			"language model not configured or initialization failed", ""))
	}

	raw, err := a.Run(ctx, taskPrompt, expectedOutput)
	if err != nil {
		logging.S().Errorw("agent invocation failed", "agent", a.Name, "error", err)
		return Err(NewErrorRecord(KindExecutionError, a.Name,
			fmt.Sprintf("model invocation failed: %v", err), ""))
	}

	parsed, ok := jsonx.Parse(raw)
	if !ok {
		logging.S().Errorw("agent output contained no recoverable JSON", "agent", a.Name)
		return Err(NewErrorRecord(KindJSONParsingError, a.Name,
			"failed to parse JSON from model output", raw))
	}

	payload, ok := parsed.(map[string]any)
	if !ok {
		return Err(NewErrorRecord(KindInvalidStructureError, a.Name,
			"model output is valid JSON but not an object", raw))
	}

	if _, hasErr := payload["error"]; hasErr {
		return Err(NewErrorRecord(KindUpstreamModelError, a.Name,
			"model response signaled an error instead of a payload", raw))
	}

	if validate != nil {
		if rec := validate(payload); rec != nil {
			rec.Agent = a.Name
			if rec.RawOutput == "" && len(raw) > 0 {
				if len(raw) > maxRawOutput {
					raw = raw[:maxRawOutput]
				}
				rec.RawOutput = raw
			}
			return Err(rec)
		}
	}

	return OK(payload)
}

// requireList validates that the payload holds a JSON array under key.
func requireList(key string) payloadValidator {
	return func(payload map[string]any) *ErrorRecord {
		v, ok := payload[key]
		if !ok {
			return NewErrorRecord(KindInvalidStructureError, "",
				fmt.Sprintf("parsed JSON is missing required %q list", key), "")
		}
		if _, isList := v.([]any); !isList {
			return NewErrorRecord(KindInvalidStructureError, "",
				fmt.Sprintf("required field %q is not a list", key), "")
		}
		return nil
	}
}

// requireObject validates that the payload holds a JSON object under key.
func requireObject(key string) payloadValidator {
	return func(payload map[string]any) *ErrorRecord {
		v, ok := payload[key]
		if !ok {
			return NewErrorRecord(KindInvalidStructureError, "",
				fmt.Sprintf("parsed JSON is missing required %q object", key), "")
		}
		if _, isObj := v.(map[string]any); !isObj {
			return NewErrorRecord(KindInvalidStructureError, "",
				fmt.Sprintf("required field %q is not an object", key), "")
		}
		return nil
	}
}

// toJSON renders a value for prompt embedding. Agent prompts carry upstream
// artifacts as indented JSON so the model sees structure, not Go syntax.
func toJSON(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
