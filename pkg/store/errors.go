// Copyright 2025 Certen Protocol
//
// Package store provides sentinel errors for record-store operations.

package store

import "errors"

// Sentinel errors for record store operations.
var (
	// ErrNotFound is returned when a requested record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned by Create for a duplicate ID. Callers
	// should treat this as a non-fatal warning, not an error (spec C1).
	ErrAlreadyExists = errors.New("record already exists")
)
