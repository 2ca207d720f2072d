// Package service orchestrates the contact authorization and validation
// gate: sanitized input is validated structurally, checked against business
// rules, and only then appended to the store.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"contacts/internal/contacts/models"
	"contacts/internal/platform/metrics"
	"contacts/internal/sentinel"
	dErrors "contacts/pkg/domain-errors"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks ContactStore

// ContactStore defines the persistence interface for contact data.
// Error Contract: AddContact returns sentinel.ErrDuplicateAccount or
// sentinel.ErrDuplicateLabel (optionally wrapped) on a uniqueness violation.
type ContactStore interface {
	GetContacts(ctx context.Context, username string) ([]models.Contact, error)
	AddContact(ctx context.Context, contact models.Contact) error
}

// Service enforces contact validation and business rules. It holds no
// mutable state and is safe for concurrent use.
type Service struct {
	store           ContactStore
	localRoutingNum string
	logger          *slog.Logger
	metrics         *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service bound to the institution's local routing number.
func New(store ContactStore, localRoutingNum string, opts ...Option) *Service {
	s := &Service{
		store:           store,
		localRoutingNum: localRoutingNum,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetContacts returns the user's contacts in insertion order.
func (s *Service) GetContacts(ctx context.Context, username string) ([]models.Contact, error) {
	contacts, err := s.store.GetContacts(ctx, username)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to retrieve contacts list",
			"error", err,
			"username", username,
		)
		if s.metrics != nil {
			s.metrics.IncrementStorageErrors()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to retrieve contacts list")
	}
	if s.metrics != nil {
		s.metrics.IncrementContactsRetrieved()
	}
	return contacts, nil
}

// AddContact validates the candidate, enforces the business rules, and
// appends it to username's contact list. callerAcct is the caller's own
// account number taken from the verified token claims, never from the
// payload, so a user cannot dodge the self-reference rule by claiming a
// different account number in the body.
func (s *Service) AddContact(ctx context.Context, username, callerAcct string, req *models.NewContactRequest) error {
	if err := req.Validate(s.localRoutingNum); err != nil {
		s.logger.WarnContext(ctx, "rejected invalid contact",
			"error", err,
			"username", username,
		)
		if s.metrics != nil {
			s.metrics.IncrementValidationFailures()
		}
		return err
	}

	if err := s.checkContactAllowed(ctx, username, callerAcct, req); err != nil {
		if s.metrics != nil && dErrors.HasCode(err, dErrors.CodeConflict) {
			s.metrics.IncrementConflictRejections()
		}
		return err
	}

	contact := req.ToContact(username)
	if err := s.store.AddContact(ctx, contact); err != nil {
		// A concurrent write may have slipped past the pre-check; the
		// storage constraint is authoritative and reports the same conflict.
		if dup := translateDuplicate(err); dup != nil {
			if s.metrics != nil {
				s.metrics.IncrementConflictRejections()
			}
			return dup
		}
		s.logger.ErrorContext(ctx, "failed to add contact",
			"error", err,
			"username", username,
		)
		if s.metrics != nil {
			s.metrics.IncrementStorageErrors()
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add contact")
	}

	s.logger.InfoContext(ctx, "successfully added new contact", "username", username)
	if s.metrics != nil {
		s.metrics.IncrementContactsCreated()
	}
	return nil
}

// checkContactAllowed rejects self-referential and duplicate candidates.
// This read-then-decide pass gives a fast, descriptive rejection in the
// common case; the storage uniqueness constraints close the race it leaves.
func (s *Service) checkContactAllowed(ctx context.Context, username, callerAcct string, req *models.NewContactRequest) error {
	if *req.AccountNum == callerAcct && *req.RoutingNum == s.localRoutingNum {
		return dErrors.New(dErrors.CodeConflict, "may not add yourself to contacts")
	}

	existing, err := s.store.GetContacts(ctx, username)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to check existing contacts",
			"error", err,
			"username", username,
		)
		if s.metrics != nil {
			s.metrics.IncrementStorageErrors()
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add contact")
	}

	for _, contact := range existing {
		if contact.AccountNum == *req.AccountNum && contact.RoutingNum == *req.RoutingNum {
			return dErrors.New(dErrors.CodeConflict, "account already exists as a contact")
		}
		if contact.Label == *req.Label {
			return dErrors.New(dErrors.CodeConflict, "contact already exists with that label")
		}
	}
	return nil
}

// translateDuplicate maps storage-level uniqueness sentinels to the exact
// conflict errors the pre-check produces, or nil for other errors.
func translateDuplicate(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrDuplicateAccount):
		return dErrors.New(dErrors.CodeConflict, "account already exists as a contact")
	case errors.Is(err, sentinel.ErrDuplicateLabel):
		return dErrors.New(dErrors.CodeConflict, "contact already exists with that label")
	default:
		return nil
	}
}
