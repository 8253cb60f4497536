package users

import (
	"context"

	"contactbook/internal/crud"
	"contactbook/internal/model"

	"github.com/google/uuid"
)

type userPolicy struct{}

func (p *userPolicy) Allow(_ context.Context, action crud.Action, actor *model.Actor, resource *model.User) (bool, error) {
	if actor == nil || actor.ID == uuid.Nil {
		// registration is the only anonymous operation
		return action == crud.ActionCreate, nil
	}
	if actor.IsAdmin() {
		return true, nil
	}
	switch action {
	case crud.ActionList:
		return false, nil
	case crud.ActionCreate:
		return true, nil
	}
	if resource != nil {
		return resource.ID == actor.ID, nil
	}
	return false, nil
}
