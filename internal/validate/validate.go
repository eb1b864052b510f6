// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package validate collects field-level input errors.
package validate

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"
)

// Errors maps a field name to its error messages.
type Errors map[string][]string

// Add records a message for field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Has reports whether field has any errors.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// Err returns e as an error, or nil if no field failed.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for field := range e {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	var b strings.Builder
	b.WriteString("invalid input:")
	for _, field := range fields {
		for _, msg := range e[field] {
			b.WriteString(" ")
			b.WriteString(field)
			b.WriteString(": ")
			b.WriteString(msg)
			b.WriteString(";")
		}
	}
	return b.String()
}

// Field returns a single-field error.
func Field(field, message string) Errors {
	return Errors{field: {message}}
}

// Email checks that value is a bare email address.
func Email(errs Errors, field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		errs.Add(field, "This field is required.")
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		errs.Add(field, "Enter a valid email address.")
	}
}

// Required checks that value is not blank.
func Required(errs Errors, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, "This field is required.")
	}
}

// MaxLength checks that value has at most n characters.
func MaxLength(errs Errors, field, value string, n int) {
	if len([]rune(value)) > n {
		errs.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", n))
	}
}
