package form

import (
	"fmt"
	"sort"
	"strings"
)

// Field names as the front-end knows them.
const (
	FieldDenomID   = "denomId"
	FieldName      = "name"
	FieldSymbol    = "symbol"
	FieldURI       = "uri"
	FieldData      = "data"
	FieldRecipient = "recipient"
)

// Result contains the outcome of validating a form.
type Result struct {
	// Fields maps a field name to the messages of its failed rules.
	Fields map[string][]string `json:"fields"`
	// Degraded lists fields whose remote checks could not run. Those
	// fields passed, the chain decides at submission.
	Degraded []string `json:"degraded,omitempty"`
}

func newResult() *Result {
	return &Result{Fields: make(map[string][]string)}
}

func (r *Result) add(field, message string) {
	r.Fields[field] = append(r.Fields[field], message)
}

// Valid reports whether every rule passed.
func (r *Result) Valid() bool {
	return len(r.Fields) == 0
}

// Err returns nil for a valid form and a *ValidationError otherwise.
func (r *Result) Err() error {
	if r.Valid() {
		return nil
	}
	fields := make(map[string][]string, len(r.Fields))
	for field, messages := range r.Fields {
		fields[field] = append([]string(nil), messages...)
	}
	return &ValidationError{Fields: fields}
}

// ValidationError contains details about the fields that failed validation.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[name], ", ")))
	}
	return "invalid form: " + strings.Join(parts, "; ")
}
