package store

import (
	"context"
	"sync"

	"contacts/internal/contacts/models"
	"contacts/internal/sentinel"
)

// MemoryStore keeps contacts in memory. It backs unit tests and the
// database-less dev mode, and intentionally favors clarity over performance.
type MemoryStore struct {
	mu       sync.RWMutex
	contacts map[string][]models.Contact
}

// NewMemory constructs an empty in-memory contact store.
func NewMemory() *MemoryStore {
	return &MemoryStore{contacts: make(map[string][]models.Contact)}
}

// GetContacts returns the user's contacts in insertion order.
func (s *MemoryStore) GetContacts(_ context.Context, username string) ([]models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.contacts[username]
	out := make([]models.Contact, len(list))
	copy(out, list)
	return out, nil
}

// AddContact appends a contact. The uniqueness checks run under the same
// lock as the append, so concurrent colliding writes settle to exactly one
// stored contact.
func (s *MemoryStore) AddContact(_ context.Context, contact models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.contacts[contact.Username] {
		if existing.AccountNum == contact.AccountNum && existing.RoutingNum == contact.RoutingNum {
			return sentinel.ErrDuplicateAccount
		}
		if existing.Label == contact.Label {
			return sentinel.ErrDuplicateLabel
		}
	}
	s.contacts[contact.Username] = append(s.contacts[contact.Username], contact)
	return nil
}
