// Package store persists user contact lists. Implementations must enforce
// the per-user uniqueness invariants at the storage boundary so concurrent
// writes cannot create duplicates the pre-check missed.
package store

import (
	"context"

	"contacts/internal/contacts/models"
)

// Store is the durable list of contacts per user.
// Error Contract: AddContact returns sentinel.ErrDuplicateAccount or
// sentinel.ErrDuplicateLabel (optionally wrapped) when a uniqueness
// invariant would be violated.
type Store interface {
	// GetContacts returns the user's contacts in insertion order.
	GetContacts(ctx context.Context, username string) ([]models.Contact, error)
	// AddContact appends a contact to its owner's list.
	AddContact(ctx context.Context, contact models.Contact) error
}
