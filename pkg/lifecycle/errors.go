// Copyright 2025 Certen Protocol

package lifecycle

import (
	"fmt"
	"strings"
)

// Kind classifies an Error the way the HTTP surface maps it to a status
// code (spec §6.3): validation and unknown-chain are surfaced to the
// caller, handler failures are surfaced too but distinctly (spec §7:
// "the engine surfaces errors that the caller can act on").
type Kind string

const (
	KindValidation     Kind = "VALIDATION"
	KindUnknownChain   Kind = "UNKNOWN_CHAIN"
	KindHandlerFailure Kind = "HANDLER_FAILURE"
	KindStoreFailure   Kind = "STORE_FAILURE"
	KindNotFound       Kind = "NOT_FOUND"
)

// FieldError names one invalid reveal field and why.
type FieldError struct {
	Field   string
	Message string
}

// Error is the structured error every lifecycle operation returns on
// failure: Kind plus a human message, and for KindValidation the full set
// of offending fields rather than just the first one found.
type Error struct {
	Kind        Kind
	Message     string
	FieldErrors []FieldError
	Cause       error
}

func (e *Error) Error() string {
	if len(e.FieldErrors) > 0 {
		var parts []string
		for _, fe := range e.FieldErrors {
			parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
		}
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(parts, "; "))
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }
