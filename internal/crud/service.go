package crud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"contactbook/internal/model"

	"github.com/google/uuid"
)

type Options[T any] struct {
	// PublicFields lists the json field names that may be exposed to
	// callers. Empty means expose everything the record serializes to.
	PublicFields    []string
	CreateValidator Validator
	UpdateValidator Validator
	Policy          Policy[T]
}

// Service orchestrates authorization, validation, persistence and
// sanitization for one resource type T with filter type F.
type Service[T any, F any] struct {
	store Store[T, F]
	opts  Options[T]
}

func NewService[T any, F any](store Store[T, F], opts Options[T]) *Service[T, F] {
	return &Service[T, F]{store: store, opts: opts}
}

func (s *Service[T, F]) Create(ctx context.Context, payload Payload, actor *model.Actor) (Record, error) {
	if err := s.Authorize(ctx, ActionCreate, actor, nil); err != nil {
		return nil, err
	}
	clean, err := s.ValidateCreate(ctx, payload)
	if err != nil {
		return nil, err
	}
	stampAudit(clean, actor, true)

	record := new(T)
	if err := Decode(clean, record); err != nil {
		return nil, err
	}
	created, err := s.store.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return s.Sanitize(created)
}

func (s *Service[T, F]) FindAll(ctx context.Context, filter F, actor *model.Actor) ([]Record, error) {
	if err := s.Authorize(ctx, ActionList, actor, nil); err != nil {
		return nil, err
	}
	records, err := s.store.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		rec, err := s.Sanitize(r)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// FindByID returns the sanitized record, or nil when no record exists. The
// policy runs even when the record is absent so the response shape stays
// uniform; an existing record the actor may not see yields ErrForbidden.
func (s *Service[T, F]) FindByID(ctx context.Context, id uuid.UUID, actor *model.Actor) (Record, error) {
	record, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Authorize(ctx, ActionRead, actor, record); err != nil {
		if record == nil && errors.Is(err, ErrForbidden) {
			return nil, nil
		}
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	return s.Sanitize(record)
}

// Update applies a partial patch: fields absent from the payload are left
// untouched. Returns nil when no record exists.
func (s *Service[T, F]) Update(ctx context.Context, id uuid.UUID, payload Payload, actor *model.Actor) (Record, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Authorize(ctx, ActionUpdate, actor, existing); err != nil {
		if existing == nil && errors.Is(err, ErrForbidden) {
			return nil, nil
		}
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	clean, err := s.ValidateUpdate(ctx, payload)
	if err != nil {
		return nil, err
	}
	stampAudit(clean, actor, false)

	updated, err := s.store.Update(ctx, id, clean)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, nil
	}
	return s.Sanitize(updated)
}

// Remove deletes the record and returns its sanitized pre-deletion state,
// or nil when no record exists. Soft versus hard deletion is decided by the
// store.
func (s *Service[T, F]) Remove(ctx context.Context, id uuid.UUID, actor *model.Actor) (Record, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.Authorize(ctx, ActionDelete, actor, existing); err != nil {
		if existing == nil && errors.Is(err, ErrForbidden) {
			return nil, nil
		}
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if deleted == nil {
		return nil, nil
	}
	return s.Sanitize(deleted)
}

// Authorize runs the configured policy and maps a denial to ErrForbidden.
// A service without a policy allows everything.
func (s *Service[T, F]) Authorize(ctx context.Context, action Action, actor *model.Actor, resource *T) error {
	if s.opts.Policy == nil {
		return nil
	}
	ok, err := s.opts.Policy.Allow(ctx, action, actor, resource)
	if err != nil {
		return fmt.Errorf("authorize %s: %w", action, err)
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (s *Service[T, F]) ValidateCreate(ctx context.Context, payload Payload) (Payload, error) {
	if s.opts.CreateValidator == nil {
		return payload, nil
	}
	return s.opts.CreateValidator.Validate(ctx, payload)
}

func (s *Service[T, F]) ValidateUpdate(ctx context.Context, payload Payload) (Payload, error) {
	if s.opts.UpdateValidator == nil {
		return payload, nil
	}
	return s.opts.UpdateValidator.Validate(ctx, payload)
}

// Sanitize projects a record down to its public fields. The projection is a
// fresh plain object; the stored record is never mutated. An encoding failure
// is an error, not an absent record.
func (s *Service[T, F]) Sanitize(record *T) (Record, error) {
	if record == nil {
		return nil, nil
	}
	obj, err := toObject(record)
	if err != nil {
		return nil, err
	}
	if len(s.opts.PublicFields) == 0 {
		return obj, nil
	}
	out := make(Record, len(s.opts.PublicFields))
	for _, f := range s.opts.PublicFields {
		if v, ok := obj[f]; ok {
			out[f] = v
		}
	}
	return out, nil
}

// Decode projects a payload onto a typed record via its json tags. Shape
// mismatches (wrong types, malformed ids) surface as a *ValidationError.
func Decode(payload Payload, dst any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return decodeError(err)
	}
	return nil
}

// MergePatch applies a partial payload onto a copy of record, leaving fields
// absent from the patch untouched. Stores share this for update semantics.
func MergePatch[T any](record T, patch Payload) (T, error) {
	merged := record
	raw, err := json.Marshal(patch)
	if err != nil {
		return merged, fmt.Errorf("encode patch: %w", err)
	}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return merged, decodeError(err)
	}
	return merged, nil
}

func toObject(v any) (Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var obj Record
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return obj, nil
}

func decodeError(err error) error {
	var ute *json.UnmarshalTypeError
	if errors.As(err, &ute) {
		path := ute.Field
		if path == "" {
			path = "body"
		}
		return &ValidationError{Fields: []FieldError{{Path: path, Message: "invalid value"}}}
	}
	return &ValidationError{Fields: []FieldError{{Path: "body", Message: err.Error()}}}
}

func stampAudit(payload Payload, actor *model.Actor, create bool) {
	if actor == nil || actor.ID == uuid.Nil {
		return
	}
	if create {
		payload["created_by"] = actor.ID.String()
	}
	payload["updated_by"] = actor.ID.String()
}
