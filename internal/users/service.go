// Package users provides the user resource on top of the generic CRUD
// service. Anonymous callers may only register; admins have full access;
// everyone else is limited to their own record.
package users

import (
	"context"

	"contactbook/internal/crud"
	"contactbook/internal/model"
	"contactbook/internal/repository"
	"contactbook/internal/validator"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var publicFields = []string{
	"id", "username", "email", "role", "created_by", "updated_by",
	"created_at", "updated_at",
}

// CreateParams is the validated shape of a registration payload. The
// password never reaches the persisted record; only its bcrypt hash does.
type CreateParams struct {
	Username string     `json:"username" validate:"required,min=3,max=50"`
	Email    string     `json:"email" validate:"required,email"`
	Password string     `json:"password" validate:"required,password_strength"`
	Role     model.Role `json:"role" validate:"omitempty,oneof=user admin"`
}

type updateUserRequest struct {
	Username string     `json:"username" validate:"required,min=3,max=50"`
	Email    string     `json:"email" validate:"required,email"`
	Role     model.Role `json:"role" validate:"omitempty,oneof=user admin"`
}

type Service struct {
	crud  *crud.Service[model.User, repository.UserFilter]
	users repository.UserRepository
	v     *validator.Validator
}

func NewService(usersRepo repository.UserRepository, v *validator.Validator) *Service {
	s := &Service{users: usersRepo, v: v}
	s.crud = crud.NewService[model.User, repository.UserFilter](usersRepo, crud.Options[model.User]{
		PublicFields:    publicFields,
		CreateValidator: validator.ForStruct[CreateParams](v),
		UpdateValidator: validator.ForPartialStruct[updateUserRequest](v),
		Policy:          &userPolicy{},
	})
	return s
}

// Register validates params, hashes the password and persists the user.
// It returns the typed record for callers (the auth flow) that need more
// than the sanitized projection.
func (s *Service) Register(ctx context.Context, params CreateParams, actor *model.Actor) (*model.User, error) {
	if err := s.v.CheckStruct(ctx, params); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: string(hash),
		Role:         params.Role,
	}
	if actor != nil && actor.ID != uuid.Nil {
		id := actor.ID
		user.CreatedBy = &id
		user.UpdatedBy = &id
	}
	return s.users.Create(ctx, user)
}

func (s *Service) Create(ctx context.Context, payload crud.Payload, actor *model.Actor) (crud.Record, error) {
	if err := s.crud.Authorize(ctx, crud.ActionCreate, actor, nil); err != nil {
		return nil, err
	}
	clean, err := s.crud.ValidateCreate(ctx, payload)
	if err != nil {
		return nil, err
	}
	var params CreateParams
	if err := crud.Decode(clean, &params); err != nil {
		return nil, err
	}
	created, err := s.Register(ctx, params, actor)
	if err != nil {
		return nil, err
	}
	return s.crud.Sanitize(created)
}

func (s *Service) FindAll(ctx context.Context, filter repository.UserFilter, actor *model.Actor) ([]crud.Record, error) {
	return s.crud.FindAll(ctx, filter, actor)
}

func (s *Service) FindByID(ctx context.Context, id uuid.UUID, actor *model.Actor) (crud.Record, error) {
	return s.crud.FindByID(ctx, id, actor)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, payload crud.Payload, actor *model.Actor) (crud.Record, error) {
	return s.crud.Update(ctx, id, payload, actor)
}

func (s *Service) Remove(ctx context.Context, id uuid.UUID, actor *model.Actor) (crud.Record, error) {
	return s.crud.Remove(ctx, id, actor)
}

func (s *Service) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.users.FindByEmail(ctx, email)
}

func (s *Service) FindModelByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.users.FindByID(ctx, id)
}
