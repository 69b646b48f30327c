// Package envelope defines the uniform result every service handler returns.
package envelope

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Status is the outcome of a service run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Reserved keys always carried at the top level of the JSON form.
const (
	KeyService     = "service"
	KeyStatus      = "status"
	KeyProjectPath = "project_path"
	KeyMessage     = "message"
	KeyError       = "error"
)

var reserved = map[string]bool{
	KeyService: true, KeyStatus: true, KeyProjectPath: true, KeyMessage: true, KeyError: true,
}

// Envelope is the result of one service run. Error is non-empty exactly when
// Status is StatusFailed. Fields holds service specific values; consumers
// must tolerate keys they do not know.
type Envelope struct {
	Service     string
	Status      Status
	ProjectPath string
	Message     string
	Error       string
	Fields      map[string]any
}

// Completed builds a successful envelope.
func Completed(service, projectPath, message string, fields map[string]any) Envelope {
	return Envelope{
		Service:     service,
		Status:      StatusCompleted,
		ProjectPath: projectPath,
		Message:     message,
		Fields:      withoutReserved(fields),
	}
}

// Failed builds a failed envelope. A nil err still yields a non-empty Error.
func Failed(service, projectPath, message string, err error) Envelope {
	text := "unknown error"
	if err != nil && err.Error() != "" {
		text = err.Error()
	}
	return Envelope{
		Service:     service,
		Status:      StatusFailed,
		ProjectPath: projectPath,
		Message:     message,
		Error:       text,
		Fields:      map[string]any{},
	}
}

// WithFields returns a copy of e with extra fields merged in.
func (e Envelope) WithFields(fields map[string]any) Envelope {
	merged := make(map[string]any, len(e.Fields)+len(fields))
	for k, v := range e.Fields {
		merged[k] = v
	}
	for k, v := range withoutReserved(fields) {
		merged[k] = v
	}
	e.Fields = merged
	return e
}

// Failed reports whether the envelope carries an error.
func (e Envelope) Failed() bool {
	return e.Error != ""
}

// Validate checks the envelope invariants.
func (e Envelope) Validate() error {
	var errs []error
	if e.Service == "" {
		errs = append(errs, errors.New("envelope: service is empty"))
	}
	switch e.Status {
	case StatusCompleted:
		if e.Error != "" {
			errs = append(errs, errors.New("envelope: completed envelope carries an error"))
		}
	case StatusFailed:
		if e.Error == "" {
			errs = append(errs, errors.New("envelope: failed envelope has no error"))
		}
	default:
		errs = append(errs, fmt.Errorf("envelope: unknown status %q", e.Status))
	}
	return errors.Join(errs...)
}

// Keys returns the extra field names in sorted order.
func (e Envelope) Keys() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the raw value of an extra field.
func (e Envelope) Get(key string) (any, bool) {
	v, ok := e.Fields[key]
	return v, ok
}

// Int returns a numeric extra field as int, or 0 when absent or not numeric.
func (e Envelope) Int(key string) int {
	switch v := e.Fields[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}

// Float returns a numeric extra field as float64.
func (e Envelope) Float(key string) float64 {
	switch v := e.Fields[key].(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	default:
		return 0
	}
}

// Strings returns a list extra field as strings. Non-string items are
// formatted with %v.
func (e Envelope) Strings(key string) []string {
	switch v := e.Fields[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprintf("%v", item))
			}
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON flattens Fields next to the reserved keys. The error key is
// omitted for completed envelopes.
func (e Envelope) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(e.Fields)+5)
	for k, v := range e.Fields {
		if !reserved[k] {
			flat[k] = v
		}
	}
	flat[KeyService] = e.Service
	flat[KeyStatus] = e.Status
	flat[KeyProjectPath] = e.ProjectPath
	flat[KeyMessage] = e.Message
	if e.Error != "" {
		flat[KeyError] = e.Error
	}
	return json.Marshal(flat)
}

// UnmarshalJSON reads the reserved keys and keeps every other key in Fields.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("envelope: decode: %w", err)
	}
	str := func(key string) string {
		s, _ := raw[key].(string)
		return s
	}
	*e = Envelope{
		Service:     str(KeyService),
		Status:      Status(str(KeyStatus)),
		ProjectPath: str(KeyProjectPath),
		Message:     str(KeyMessage),
		Error:       str(KeyError),
		Fields:      withoutReserved(raw),
	}
	return nil
}

func withoutReserved(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if !reserved[k] {
			out[k] = v
		}
	}
	return out
}
