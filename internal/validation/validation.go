package validation

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errors collects every field problem found in one request
type Errors []ValidationError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}

// Add records a problem with field
func (e *Errors) Add(field, message string) {
	*e = append(*e, ValidationError{Field: field, Message: message})
}

// Require records field as missing when value is blank
func (e *Errors) Require(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.Add(field, fmt.Sprintf("%s is required", humanize(field)))
	}
}

// RequirePositive records field as missing when value is below one
func (e *Errors) RequirePositive(field string, value int) {
	if value < 1 {
		e.Add(field, fmt.Sprintf("%s is required", humanize(field)))
	}
}

// Err returns nil when nothing was collected
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Fields lists the offending field names in order
func (e Errors) Fields() []string {
	fields := make([]string, len(e))
	for i, fe := range e {
		fields[i] = fe.Field
	}
	return fields
}

// New returns a single-field validation failure
func New(field, message string) error {
	return Errors{{Field: field, Message: message}}
}

func humanize(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
