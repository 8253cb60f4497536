// Package crud provides a generic create/read/update/delete service for one
// resource type, with pluggable validation, a pluggable authorization policy
// and public-field sanitization. It is decoupled from HTTP concerns and from
// the concrete persistence backend.
package crud

import (
	"context"
	"errors"
	"fmt"

	"contactbook/internal/model"

	"github.com/google/uuid"
)

var (
	// ErrUnauthorized means no valid actor identity was presented.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the actor is known but the policy denied the action.
	ErrForbidden = errors.New("forbidden")
)

// Payload is an untrusted JSON-object request body.
type Payload map[string]any

// Record is the sanitized plain-object projection of a stored resource.
type Record map[string]any

type Action int

const (
	ActionList Action = iota
	ActionRead
	ActionCreate
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionList:
		return "list"
	case ActionRead:
		return "read"
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	}
	return "unknown"
}

// Policy decides whether an actor may perform an action on a resource.
// resource is nil for class-level checks (list, create); for read, update
// and delete it is the currently stored record, fetched before the check so
// the policy can inspect ownership.
type Policy[T any] interface {
	Allow(ctx context.Context, action Action, actor *model.Actor, resource *T) (bool, error)
}

// PolicyFunc adapts a function to the Policy interface.
type PolicyFunc[T any] func(ctx context.Context, action Action, actor *model.Actor, resource *T) (bool, error)

func (f PolicyFunc[T]) Allow(ctx context.Context, action Action, actor *model.Actor, resource *T) (bool, error) {
	return f(ctx, action, actor, resource)
}

type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError carries per-field messages so callers can render
// field-level feedback.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// Validator checks an untrusted payload and returns a normalized copy with
// unknown fields stripped, or a *ValidationError.
type Validator interface {
	Validate(ctx context.Context, payload Payload) (Payload, error)
}

// Store is the persistence contract for one resource type. FindByID, Update
// and Delete report an absent record as (nil, nil); absence is not an error
// at this layer. Delete returns the record as it was before deletion; whether
// deletion is soft or physical is the store's per-resource policy.
type Store[T any, F any] interface {
	Create(ctx context.Context, record *T) (*T, error)
	Find(ctx context.Context, filter F) ([]*T, error)
	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	Update(ctx context.Context, id uuid.UUID, patch Payload) (*T, error)
	Delete(ctx context.Context, id uuid.UUID) (*T, error)
}
