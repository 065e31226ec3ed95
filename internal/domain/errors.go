package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrUpstream    = errors.New("upstream failure")
	ErrPersistence = errors.New("persistence failure")
	ErrNotFound    = errors.New("not found")
)

// ValidationError carries field level problems in the flattened shape the
// browser client renders.
type ValidationError struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

// NewValidationError returns an empty error ready to collect problems.
func NewValidationError() *ValidationError {
	return &ValidationError{FormErrors: []string{}, FieldErrors: map[string][]string{}}
}

// AddField records a problem against a request field.
func (e *ValidationError) AddField(field, msg string) {
	e.FieldErrors[field] = append(e.FieldErrors[field], msg)
}

// AddForm records a problem that is not tied to a field.
func (e *ValidationError) AddForm(msg string) {
	e.FormErrors = append(e.FormErrors, msg)
}

// Empty reports whether nothing was recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || (len(e.FormErrors) == 0 && len(e.FieldErrors) == 0)
}

func (e *ValidationError) Error() string {
	parts := append([]string(nil), e.FormErrors...)
	fields := make([]string, 0, len(e.FieldErrors))
	for field := range e.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.FieldErrors[field], ", ")))
	}
	if len(parts) == 0 {
		return ErrValidation.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UpstreamError reports a failed call to one of the generative services.
// StatusCode is zero when the service could not be reached.
type UpstreamError struct {
	Service    string
	StatusCode int
	Body       string
	Hint       string
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	var msg string
	switch {
	case e.Message != "":
		msg = e.Message
	case e.StatusCode != 0:
		msg = fmt.Sprintf("%s error %d: %s", e.Service, e.StatusCode, e.Body)
	case e.Err != nil:
		msg = fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
	default:
		msg = fmt.Sprintf("%s request failed", e.Service)
	}
	return msg + e.Hint
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstream}
	}
	return []error{ErrUpstream, e.Err}
}

// PersistenceError wraps a filesystem failure while storing artifacts.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist artifacts: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }
