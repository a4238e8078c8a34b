package domain

import (
	"fmt"
	"strings"
)

// ValidationError reports a client-caused ingestion failure: required fields
// missing from the payload or fields that could not be parsed as numbers.
// The HTTP layer maps it to a 400 response.
type ValidationError struct {
	Kind    Kind
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "non-numeric fields: "+strings.Join(e.Invalid, ", "))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("invalid %s payload", e.Kind)
	}
	return fmt.Sprintf("invalid %s payload: %s", e.Kind, strings.Join(parts, "; "))
}

// StoreError reports an infrastructure failure talking to the document store.
// Op identifies the gateway operation ("insert", "read", "fetch ids",
// "delete batch", ...). The HTTP layer maps it to a 500 response.
type StoreError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Kind.Collection(), e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
