package sentinel

import "errors"

// Sentinel dependency errors. Stores should return these (optionally wrapped)
// so the service can translate them into domain errors exactly once.
var (
	// ErrDuplicateAccount signals a contact with the same
	// (account number, routing number) pair already exists for the user.
	ErrDuplicateAccount = errors.New("duplicate account")
	// ErrDuplicateLabel signals a contact with the same label already
	// exists for the user.
	ErrDuplicateLabel = errors.New("duplicate label")
)
