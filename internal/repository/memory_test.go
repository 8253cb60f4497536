package repository

import (
	"context"
	"testing"

	"contactbook/internal/crud"
	"contactbook/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryContactRepository_SoftDelete(t *testing.T) {
	repo := NewMemoryContactRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.Contact{FirstName: "Ada", LastName: "Lovelace", Owner: uuid.New()})
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted.DeletedAt)

	got, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	visible, err := repo.Find(ctx, ContactFilter{})
	require.NoError(t, err)
	assert.Empty(t, visible)

	all, err := repo.Find(ctx, ContactFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestMemoryContactRepository_FilterUnion(t *testing.T) {
	repo := NewMemoryContactRepository()
	ctx := context.Background()
	owner := uuid.New()

	mine, err := repo.Create(ctx, &model.Contact{FirstName: "A", LastName: "A", Owner: owner})
	require.NoError(t, err)
	listed, err := repo.Create(ctx, &model.Contact{FirstName: "B", LastName: "B", Owner: uuid.New()})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.Contact{FirstName: "C", LastName: "C", Owner: uuid.New()})
	require.NoError(t, err)

	got, err := repo.Find(ctx, ContactFilter{Owner: &owner, IDs: []uuid.UUID{listed.ID}})
	require.NoError(t, err)
	require.Len(t, got, 2)

	ids := map[uuid.UUID]bool{got[0].ID: true, got[1].ID: true}
	assert.True(t, ids[mine.ID])
	assert.True(t, ids[listed.ID])
}

func TestMemoryContactRepository_UpdatePreservesImmutableFields(t *testing.T) {
	repo := NewMemoryContactRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, &model.Contact{FirstName: "Ada", LastName: "Lovelace", Owner: uuid.New()})
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created.ID, crud.Payload{
		"first_name": "Grace",
		"id":         uuid.New().String(),
		"created_at": "2000-01-01T00:00:00Z",
	})
	require.NoError(t, err)

	assert.Equal(t, "Grace", updated.FirstName)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestMemoryUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, &model.User{Username: "a", Email: "a@example.com"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &model.User{Username: "b", Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	found, err := repo.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "a", found.Username)
}

func TestMemoryUserRepository_ExistingIDs(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	alive, err := repo.Create(ctx, &model.User{Username: "a", Email: "a@example.com"})
	require.NoError(t, err)
	gone, err := repo.Create(ctx, &model.User{Username: "b", Email: "b@example.com"})
	require.NoError(t, err)
	_, err = repo.Delete(ctx, gone.ID)
	require.NoError(t, err)

	existing, err := repo.ExistingIDs(ctx, []uuid.UUID{alive.ID, gone.ID, uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alive.ID}, existing)
}

func TestMemoryShareRepository_Lookups(t *testing.T) {
	repo := NewMemoryShareRepository()
	ctx := context.Background()
	contact1 := uuid.New()
	contact2 := uuid.New()
	user := uuid.New()

	err := repo.InsertMany(ctx, []*model.ContactShare{
		{ContactID: contact1, UserID: user},
		{ContactID: contact2, UserID: user},
		{ContactID: contact2, UserID: uuid.New()},
	})
	require.NoError(t, err)

	ids, err := repo.SharedContactIDs(ctx, user)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{contact1, contact2}, ids)

	ok, err := repo.Exists(ctx, contact1, user)
	require.NoError(t, err)
	assert.True(t, ok)

	batch, err := repo.ListByContacts(ctx, []uuid.UUID{contact1, contact2})
	require.NoError(t, err)
	assert.Len(t, batch, 3)

	require.NoError(t, repo.DeleteByContactUsers(ctx, contact1, []uuid.UUID{user}))
	ok, err = repo.Exists(ctx, contact1, user)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.DeleteByContact(ctx, contact2))
	remaining, err := repo.ListByContact(ctx, contact2)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
