package models

import "errors"

// Sync and storage failures. Use errors.Is to check them.
var (
	// ErrNotFound is returned when the remote store has no document for the identity
	ErrNotFound = errors.New("progress not found")
	// ErrUnauthorized is returned when the credential is expired or invalid
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTransport covers network and server failures
	ErrTransport = errors.New("transport failure")
	// ErrCorruptLocalState is returned when a cached snapshot fails validation
	ErrCorruptLocalState = errors.New("corrupt local state")
	// ErrConfigurationMissing means no remote store is configured
	ErrConfigurationMissing = errors.New("remote store is not configured")
)

// Session failures
var (
	ErrInvalidGrade = errors.New("invalid grade")
	ErrUnknownWord  = errors.New("unknown word")
	ErrInvalidState = errors.New("invalid session state")
	ErrNoCard       = errors.New("no card to show")
	ErrInvalidValue = errors.New("invalid setting value")
	ErrLoading      = errors.New("progress of the learner is loading")
)
