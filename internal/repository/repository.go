// Package repository defines the persistence contracts for the resource
// types and provides Postgres and in-memory implementations behind them.
package repository

import (
	"context"
	"errors"

	"contactbook/internal/crud"
	"contactbook/internal/model"

	"github.com/google/uuid"
)

var ErrDuplicateEmail = errors.New("email already registered")

// ContactFilter selects contacts. Owner and IDs combine as a union: rows
// owned by Owner plus rows whose id is in IDs. With neither set, all rows
// match. Soft-deleted rows are excluded unless IncludeDeleted is set.
type ContactFilter struct {
	Owner          *uuid.UUID
	IDs            []uuid.UUID
	IncludeDeleted bool
}

// UserFilter selects users. Soft-deleted rows are excluded unless
// IncludeDeleted is set.
type UserFilter struct {
	Role           *model.Role
	IncludeDeleted bool
}

type ContactRepository interface {
	crud.Store[model.Contact, ContactFilter]
}

type UserRepository interface {
	crud.Store[model.User, UserFilter]
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// ExistingIDs filters ids down to the ones naming a live user.
	ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

// ShareRepository persists the contact/user share relation. It is owned by
// the contacts service and never exposed as a standalone resource.
type ShareRepository interface {
	ListByContact(ctx context.Context, contactID uuid.UUID) ([]*model.ContactShare, error)
	// ListByContacts batch-loads the shares for a whole result set in one
	// query, so attaching shared_with lists stays linear in result size.
	ListByContacts(ctx context.Context, contactIDs []uuid.UUID) ([]*model.ContactShare, error)
	// SharedContactIDs enumerates the distinct contact ids shared with a user.
	SharedContactIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Exists(ctx context.Context, contactID, userID uuid.UUID) (bool, error)
	InsertMany(ctx context.Context, shares []*model.ContactShare) error
	DeleteByContactUsers(ctx context.Context, contactID uuid.UUID, userIDs []uuid.UUID) error
	DeleteByContact(ctx context.Context, contactID uuid.UUID) error
}
