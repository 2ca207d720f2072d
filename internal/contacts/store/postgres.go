package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"contacts/internal/contacts/models"
	"contacts/internal/sentinel"

	"github.com/jackc/pgx/v5/pgconn"
)

// Constraint names from migrations/001_create_contacts.sql. The violated
// constraint decides which duplicate the caller is told about.
const (
	uniqueAccountConstraint = "contacts_unique_account"
	uniqueLabelConstraint   = "contacts_unique_label"
)

// PostgresStore persists contacts in PostgreSQL. The composite UNIQUE
// constraints are the authoritative guard against racing duplicate writes;
// violations are translated into the same sentinel errors the in-memory
// pre-check produces.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed contact store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetContacts returns the user's contacts in insertion order.
func (s *PostgresStore) GetContacts(ctx context.Context, username string) ([]models.Contact, error) {
	query := `
		SELECT username, label, account_num, routing_num, is_external
		FROM contacts
		WHERE username = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("get contacts: %w", err)
	}
	defer rows.Close()

	contacts := []models.Contact{}
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.Username, &c.Label, &c.AccountNum, &c.RoutingNum, &c.IsExternal); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get contacts: %w", err)
	}
	return contacts, nil
}

// AddContact appends a contact to its owner's list.
func (s *PostgresStore) AddContact(ctx context.Context, contact models.Contact) error {
	query := `
		INSERT INTO contacts (username, label, account_num, routing_num, is_external)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		contact.Username,
		contact.Label,
		contact.AccountNum,
		contact.RoutingNum,
		contact.IsExternal,
	)
	if err != nil {
		if dup := duplicateSentinel(err); dup != nil {
			return fmt.Errorf("add contact: %w", dup)
		}
		return fmt.Errorf("add contact: %w", err)
	}
	return nil
}

// duplicateSentinel maps a unique violation (SQLSTATE 23505) to the sentinel
// for the violated invariant, or nil if the error is not a unique violation.
func duplicateSentinel(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	if strings.Contains(pgErr.ConstraintName, uniqueLabelConstraint) {
		return sentinel.ErrDuplicateLabel
	}
	return sentinel.ErrDuplicateAccount
}
