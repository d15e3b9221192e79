package agents

import "encoding/json"

// Result is the tagged variant every agent operation produces: either a
// structured payload or an ErrorRecord, never both. It marshals as the
// payload itself on success and as the error object on failure, so API
// consumers and the database see one uniform shape per analysis field.
type Result struct {
	payload map[string]any
	errRec  *ErrorRecord
}

// OK wraps a successful payload.
func OK(payload map[string]any) *Result {
	return &Result{payload: payload}
}

// Err wraps a failure record.
func Err(rec *ErrorRecord) *Result {
	return &Result{errRec: rec}
}

// IsErr reports whether the result carries an ErrorRecord.
func (r *Result) IsErr() bool {
	return r != nil && r.errRec != nil
}

// Payload returns the successful payload, or nil for an error result.
func (r *Result) Payload() map[string]any {
	if r == nil {
		return nil
	}
	return r.payload
}

// ErrRecord returns the failure record, or nil for a successful result.
func (r *Result) ErrRecord() *ErrorRecord {
	if r == nil {
		return nil
	}
	return r.errRec
}

// Kind returns the error kind, or empty string for a successful result.
func (r *Result) Kind() ErrorKind {
	if r == nil || r.errRec == nil {
		return ""
	}
	return r.errRec.Kind
}

// Field extracts a named value from a successful payload.
func (r *Result) Field(key string) (any, bool) {
	if r == nil || r.payload == nil {
		return nil, false
	}
	v, ok := r.payload[key]
	return v, ok
}

// MarshalJSON emits the payload for a success and the error object for a
// failure.
func (r *Result) MarshalJSON() ([]byte, error) {
	if r.errRec != nil {
		return json.Marshal(r.errRec)
	}
	return json.Marshal(r.payload)
}

// UnmarshalJSON probes for the "error": true marker to decide which variant
// was stored.
func (r *Result) UnmarshalJSON(data []byte) error {
	var probe struct {
		IsError bool `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && probe.IsError {
		var rec ErrorRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return err
		}
		r.errRec = &rec
		r.payload = nil
		return nil
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	r.payload = payload
	r.errRec = nil
	return nil
}
