package domain

import (
	"fmt"
	"time"
)

// TransmissionError records a failure raised by a component while handling a signal.
type TransmissionError struct {
	Code          Code           `json:"code"`
	Message       string         `json:"message"`
	ComponentKind Kind           `json:"component_kind"`
	ComponentID   string         `json:"component_id"`
	ComponentName string         `json:"component_name"`
	OccurredAt    time.Time      `json:"occurred_at"`
	Context       map[string]any `json:"context,omitempty"`
	Recoverable   bool           `json:"recoverable"`
	Suggestion    string         `json:"suggestion,omitempty"`
}

// NewTransmissionError creates an error attributed to the component id.
// The message defaults to the code description.
func NewTransmissionError(code Code, id Identity, recoverable bool) *TransmissionError {
	return &TransmissionError{
		Code:          code,
		Message:       code.Description(),
		ComponentKind: id.Kind,
		ComponentID:   id.ID,
		ComponentName: id.Name,
		OccurredAt:    time.Now(),
		Recoverable:   recoverable,
	}
}

// Error implements the error interface.
func (e *TransmissionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target matches this error by code.
func (e *TransmissionError) Is(target error) bool {
	if t, ok := target.(*TransmissionError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithMessage overrides the default message.
func (e *TransmissionError) WithMessage(format string, args ...any) *TransmissionError {
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// WithContext attaches a key/value to the diagnostic context.
func (e *TransmissionError) WithContext(key string, value any) *TransmissionError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion attaches an operator hint.
func (e *TransmissionError) WithSuggestion(s string) *TransmissionError {
	e.Suggestion = s
	return e
}

// Clone returns a copy that shares no maps with e.
func (e *TransmissionError) Clone() *TransmissionError {
	out := *e
	if e.Context != nil {
		out.Context = make(map[string]any, len(e.Context))
		for k, v := range e.Context {
			out.Context[k] = v
		}
	}
	return &out
}

// Outcome converts the error into a failed outcome without a signal.
func (e *TransmissionError) Outcome() Outcome {
	return Outcome{ErrorMessage: e.Message, ErrorCode: e.Code}
}

// DegradedOutcome converts the error into a failed outcome that still carries sig.
func (e *TransmissionError) DegradedOutcome(sig Signal) Outcome {
	return Outcome{ErrorMessage: e.Message, ErrorCode: e.Code, Signal: &sig}
}

// CloneErrors copies an error log so callers never hold live references.
func CloneErrors(log []*TransmissionError) []*TransmissionError {
	out := make([]*TransmissionError, len(log))
	for i, e := range log {
		out[i] = e.Clone()
	}
	return out
}
