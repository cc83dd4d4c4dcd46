package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateIssue checks an Issue for constraint violations.
// It returns a *ValidationError if any rules fail, or nil if the issue is valid.
func ValidateIssue(i *Issue) error {
	var ve ValidationError

	msg := strings.TrimSpace(i.Message)
	if msg == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "message", Message: "is required"})
	} else if len([]rune(msg)) > 4000 {
		ve.Errors = append(ve.Errors, FieldError{Field: "message", Message: "must be 4000 characters or fewer"})
	}

	if !i.Type.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{Field: "type", Message: fmt.Sprintf("invalid value %q", i.Type)})
	}
	if !i.Severity.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{Field: "severity", Message: fmt.Sprintf("invalid value %q", i.Severity)})
	}
	if !i.Status.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{Field: "status", Message: fmt.Sprintf("invalid value %q", i.Status)})
	}
	if i.Scope != ScopeMain && i.Scope != ScopeTest {
		ve.Errors = append(ve.Errors, FieldError{Field: "scope", Message: fmt.Sprintf("invalid value %q", i.Scope)})
	}
	if strings.TrimSpace(i.Rule) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "rule", Message: "is required"})
	}
	if strings.TrimSpace(i.Project) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "project", Message: "is required"})
	}

	// Resolution consistency with Status.
	resolved := i.Status == StatusResolved || i.Status == StatusClosed
	if resolved && i.Resolution == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "resolution", Message: "is required when status is resolved or closed"})
	}

	if i.CreatedAt.IsZero() {
		ve.Errors = append(ve.Errors, FieldError{Field: "creationDate", Message: "is required"})
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}
