package contacts

import (
	"context"

	"contactbook/internal/crud"
	"contactbook/internal/model"
	"contactbook/internal/repository"

	"github.com/google/uuid"
)

// contactPolicy: any authenticated user may create and list (visibility is
// filtered downstream, not denied outright); owners may do everything on
// their contacts; shared users get read access only.
type contactPolicy struct {
	shares repository.ShareRepository
}

func (p *contactPolicy) Allow(ctx context.Context, action crud.Action, actor *model.Actor, resource *model.Contact) (bool, error) {
	if actor == nil || actor.ID == uuid.Nil {
		return false, nil
	}
	if resource == nil {
		return action == crud.ActionCreate || action == crud.ActionList, nil
	}
	if resource.Owner == actor.ID {
		return true, nil
	}
	if action == crud.ActionRead {
		return p.shares.Exists(ctx, resource.ID, actor.ID)
	}
	return false, nil
}
