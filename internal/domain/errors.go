package domain

import "errors"

var (
	// ErrConflict indicates the user already holds an active timer.
	ErrConflict = errors.New("finish or stop your current timer first")

	// ErrNotFound indicates the referenced session does not exist. On stop
	// this means the session was already stopped.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidState indicates the operation is not valid from the session's
	// current state, or the caller does not own the session.
	ErrInvalidState = errors.New("invalid session state")

	// ErrStoreUnavailable indicates a durable-store I/O failure.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidRange indicates a malformed aggregation or export range.
	ErrInvalidRange = errors.New("invalid time range")

	// ErrInvalidArgument indicates a malformed request field.
	ErrInvalidArgument = errors.New("invalid argument")
)
