// Package agents wraps the language-model router into role-configured
// analysis agents. Every agent operation returns a Result: either the
// model's validated structured payload or an ErrorRecord describing why no
// payload could be produced. Failures never propagate as Go errors to the
// orchestrator; they travel inside the Result so a single bad step cannot
// abort a run.
package agents

// ErrorKind classifies why an agent step failed to produce structured output.
type ErrorKind string

const (
	// KindLLMError means no language-model provider was configured or the
	// model handle could not be constructed.
	KindLLMError ErrorKind = "LLMError"

	// KindJSONParsingError means the recovery parser exhausted every
	// strategy without extracting a JSON value from the model output.
	KindJSONParsingError ErrorKind = "JSONParsingError"

	// KindInvalidStructureError means the output parsed as JSON but is
	// missing the required top-level key or has it with the wrong type.
	KindInvalidStructureError ErrorKind = "InvalidStructureError"

	// KindUpstreamModelError means the model's own JSON carried an explicit
	// error indicator instead of a payload.
	KindUpstreamModelError ErrorKind = "UpstreamModelError"

	// KindDependencyError means an upstream step in the pipeline failed and
	// this step was skipped rather than invoked.
	KindDependencyError ErrorKind = "DependencyError"

	// KindExecutionError means an unexpected failure occurred while invoking
	// the model (network fault, provider rejection, context cancellation).
	KindExecutionError ErrorKind = "ExecutionError"
)

// maxRawOutput bounds how much raw model text an ErrorRecord retains.
const maxRawOutput = 500

// ErrorRecord is the failure payload embedded in place of a successful
// result. IsError is always true on the wire so consumers can branch on the
// marker instead of guessing from shape.
type ErrorRecord struct {
	IsError   bool      `json:"error"`
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Agent     string    `json:"agent,omitempty"`
	RawOutput string    `json:"raw_output,omitempty"`
}

// NewErrorRecord builds an ErrorRecord, truncating rawOutput to a bounded
// length so oversized model dumps never bloat the stored row.
func NewErrorRecord(kind ErrorKind, agent, message, rawOutput string) *ErrorRecord {
	if len(rawOutput) > maxRawOutput {
		rawOutput = rawOutput[:maxRawOutput]
	}
	return &ErrorRecord{
		IsError:   true,
		Kind:      kind,
		Message:   message,
		Agent:     agent,
		RawOutput: rawOutput,
	}
}

// Error implements the error interface for logging convenience.
func (e *ErrorRecord) Error() string {
	return string(e.Kind) + ": " + e.Message
}
