package model

import (
	"time"

	"github.com/google/uuid"
)

type Contact struct {
	ID          uuid.UUID  `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	Email       string     `json:"email,omitempty"`
	Address     string     `json:"address,omitempty"`
	Owner       uuid.UUID  `json:"owner"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	UpdatedBy   *uuid.UUID `json:"updated_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// ContactShare grants a non-owner user read access to one contact.
// The (ContactID, UserID) pair is unique; shares are never exposed as a
// standalone resource, only as the derived shared_with list on a contact.
type ContactShare struct {
	ID        uuid.UUID  `json:"id"`
	ContactID uuid.UUID  `json:"contact_id"`
	UserID    uuid.UUID  `json:"user_id"`
	SharedBy  *uuid.UUID `json:"shared_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
