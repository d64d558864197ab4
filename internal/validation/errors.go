// Package validation holds the request checks that run before anything is
// written. Every check reports problems as FieldErrors keyed by JSON field name.
package validation

import (
	"sort"
	"strings"
)

// FieldErrors maps a request field to its validation messages.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, message string) {
	for _, m := range fe[field] {
		if m == message {
			return
		}
	}
	fe[field] = append(fe[field], message)
}

func (fe FieldErrors) HasErrors() bool {
	return len(fe) > 0
}

// Err returns fe as an error, or nil when it is empty.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(fe[f], " "))
	}
	return strings.Join(parts, "; ")
}

// Field builds a single-field error.
func Field(field, message string) FieldErrors {
	return FieldErrors{field: {message}}
}
