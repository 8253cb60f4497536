// Package contacts specializes the generic CRUD service for the contact
// resource: ownership assignment on create, shared-visibility filtering on
// reads, and reconciliation of the share list against a caller-supplied
// shared_with target set.
package contacts

import (
	"context"
	"fmt"
	"sort"

	"contactbook/internal/crud"
	"contactbook/internal/model"
	"contactbook/internal/repository"
	"contactbook/internal/validator"

	"github.com/google/uuid"
)

var publicFields = []string{
	"id", "first_name", "last_name", "phone_number", "email", "address",
	"owner", "created_by", "updated_by", "created_at", "updated_at",
}

type contactRequest struct {
	FirstName   string     `json:"first_name" validate:"required,max=100"`
	LastName    string     `json:"last_name" validate:"required,max=100"`
	PhoneNumber string     `json:"phone_number" validate:"omitempty,max=30"`
	Email       string     `json:"email" validate:"omitempty,email"`
	Address     string     `json:"address" validate:"omitempty,max=255"`
	Owner       *uuid.UUID `json:"owner"`
}

// Metrics receives share reconciliation outcomes. A nil Metrics disables
// recording.
type Metrics interface {
	RecordShareReconciliation(ctx context.Context, added, removed int)
}

// UserDirectory reports which of a set of user ids belong to live users.
// Share targets are checked against it so both storage backends agree on
// what an unknown user means, instead of one hitting a foreign key.
type UserDirectory interface {
	ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

type Service struct {
	crud     *crud.Service[model.Contact, repository.ContactFilter]
	contacts repository.ContactRepository
	shares   repository.ShareRepository
	users    UserDirectory
	metrics  Metrics
}

func NewService(contactsRepo repository.ContactRepository, sharesRepo repository.ShareRepository, usersRepo UserDirectory, v *validator.Validator, metrics Metrics) *Service {
	s := &Service{contacts: contactsRepo, shares: sharesRepo, users: usersRepo, metrics: metrics}
	s.crud = crud.NewService[model.Contact, repository.ContactFilter](contactsRepo, crud.Options[model.Contact]{
		PublicFields:    publicFields,
		CreateValidator: validator.ForStruct[contactRequest](v),
		UpdateValidator: validator.ForPartialStruct[contactRequest](v),
		Policy:          &contactPolicy{shares: sharesRepo},
	})
	return s
}

// Create accepts normal contact fields plus an optional shared_with list of
// user ids. The list is never persisted on the contact itself; it is applied
// to the share relation after the contact exists. Owner defaults to the
// acting user unless explicitly supplied.
func (s *Service) Create(ctx context.Context, payload crud.Payload, actor *model.Actor) (crud.Record, error) {
	if err := ensureActor(actor); err != nil {
		return nil, err
	}

	payload, sharedWith, _, err := popSharedWith(payload)
	if err != nil {
		return nil, err
	}
	if _, ok := payload["owner"]; !ok {
		payload["owner"] = actor.ID.String()
	}

	created, err := s.crud.Create(ctx, payload, actor)
	if err != nil {
		return nil, err
	}
	id, owner, err := recordIdentity(created)
	if err != nil {
		return nil, err
	}

	if len(sharedWith) > 0 {
		if err := s.reconcileShares(ctx, id, sharedWith, owner, actor.ID); err != nil {
			return nil, err
		}
	}
	return s.FindByID(ctx, id, actor)
}

// FindAll returns exactly the contacts the actor may see: the ones they own
// plus the ones shared with them. The derived shared_with lists for the whole
// result set are loaded in one batched query.
func (s *Service) FindAll(ctx context.Context, filter repository.ContactFilter, actor *model.Actor) ([]crud.Record, error) {
	if err := ensureActor(actor); err != nil {
		return nil, err
	}

	sharedIDs, err := s.shares.SharedContactIDs(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	owner := actor.ID
	filter.Owner = &owner
	filter.IDs = sharedIDs

	records, err := s.crud.FindAll(ctx, filter, actor)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(records))
	for _, rec := range records {
		id, _, err := recordIdentity(rec)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	shares, err := s.shares.ListByContacts(ctx, ids)
	if err != nil {
		return nil, err
	}
	byContact := make(map[uuid.UUID][]string)
	for _, sh := range shares {
		byContact[sh.ContactID] = append(byContact[sh.ContactID], sh.UserID.String())
	}
	for i, rec := range records {
		attachSharedWith(rec, byContact[ids[i]])
	}
	return records, nil
}

func (s *Service) FindByID(ctx context.Context, id uuid.UUID, actor *model.Actor) (crud.Record, error) {
	if err := ensureActor(actor); err != nil {
		return nil, err
	}

	record, err := s.crud.FindByID(ctx, id, actor)
	if err != nil || record == nil {
		return nil, err
	}
	shares, err := s.shares.ListByContact(ctx, id)
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(shares))
	for _, sh := range shares {
		users = append(users, sh.UserID.String())
	}
	attachSharedWith(record, users)
	return record, nil
}

// Update accepts an optional shared_with list. When provided, the stored
// shares are reconciled against it; an empty list revokes every share.
func (s *Service) Update(ctx context.Context, id uuid.UUID, payload crud.Payload, actor *model.Actor) (crud.Record, error) {
	if err := ensureActor(actor); err != nil {
		return nil, err
	}

	payload, sharedWith, hasSharedWith, err := popSharedWith(payload)
	if err != nil {
		return nil, err
	}

	updated, err := s.crud.Update(ctx, id, payload, actor)
	if err != nil || updated == nil {
		return nil, err
	}

	if hasSharedWith {
		_, owner, err := recordIdentity(updated)
		if err != nil {
			return nil, err
		}
		if err := s.reconcileShares(ctx, id, sharedWith, owner, actor.ID); err != nil {
			return nil, err
		}
	}
	return s.FindByID(ctx, id, actor)
}

// Remove soft-deletes the contact and cascade-deletes its share records.
func (s *Service) Remove(ctx context.Context, id uuid.UUID, actor *model.Actor) (crud.Record, error) {
	if err := ensureActor(actor); err != nil {
		return nil, err
	}

	deleted, err := s.crud.Remove(ctx, id, actor)
	if err != nil || deleted == nil {
		return nil, err
	}
	if err := s.shares.DeleteByContact(ctx, id); err != nil {
		return nil, err
	}
	attachSharedWith(deleted, nil)
	return deleted, nil
}

func ensureActor(actor *model.Actor) error {
	if actor == nil || actor.ID == uuid.Nil {
		return crud.ErrUnauthorized
	}
	return nil
}

// popSharedWith splits the shared_with list off a payload, returning a copy
// with the key removed so it never reaches validation or persistence. A
// present value that is not an array of strings is rejected outright; treating
// it as an empty target would revoke every share on the contact.
func popSharedWith(payload crud.Payload) (crud.Payload, []string, bool, error) {
	out := make(crud.Payload, len(payload))
	for k, v := range payload {
		if k != "shared_with" {
			out[k] = v
		}
	}
	raw, ok := payload["shared_with"]
	if !ok {
		return out, nil, false, nil
	}
	users, err := sharedWithTargets(raw)
	if err != nil {
		return nil, nil, true, err
	}
	return out, users, true, nil
}

func sharedWithTargets(raw any) ([]string, error) {
	switch vs := raw.(type) {
	case []string:
		return vs, nil
	case []any:
		users := make([]string, 0, len(vs))
		for _, v := range vs {
			s, ok := v.(string)
			if !ok {
				return nil, errInvalidSharedWith()
			}
			users = append(users, s)
		}
		return users, nil
	default:
		return nil, errInvalidSharedWith()
	}
}

func errInvalidSharedWith() error {
	return &crud.ValidationError{Fields: []crud.FieldError{{
		Path:    "shared_with",
		Message: "must be an array of user ids",
	}}}
}

func recordIdentity(record crud.Record) (uuid.UUID, uuid.UUID, error) {
	id, err := recordUUID(record, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	owner, err := recordUUID(record, "owner")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return id, owner, nil
}

func recordUUID(record crud.Record, key string) (uuid.UUID, error) {
	raw, ok := record[key].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("contact record missing %s", key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("contact record has malformed %s: %w", key, err)
	}
	return id, nil
}

func attachSharedWith(record crud.Record, users []string) {
	if users == nil {
		users = []string{}
	}
	sort.Strings(users)
	record["shared_with"] = users
}
