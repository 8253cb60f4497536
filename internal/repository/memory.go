package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"contactbook/internal/crud"
	"contactbook/internal/model"

	"github.com/google/uuid"
)

// In-memory repositories, interchangeable with the Postgres ones. They back
// local development without a database and the service-level tests.

type MemoryContactRepository struct {
	mu       sync.RWMutex
	contacts map[uuid.UUID]model.Contact
}

func NewMemoryContactRepository() *MemoryContactRepository {
	return &MemoryContactRepository{contacts: make(map[uuid.UUID]model.Contact)}
}

func (r *MemoryContactRepository) Create(_ context.Context, contact *model.Contact) (*model.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *contact
	c.ID = uuid.New()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.DeletedAt = nil
	r.contacts[c.ID] = c
	return &c, nil
}

func (r *MemoryContactRepository) Find(_ context.Context, filter ContactFilter) ([]*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idSet := make(map[uuid.UUID]struct{}, len(filter.IDs))
	for _, id := range filter.IDs {
		idSet[id] = struct{}{}
	}

	var out []*model.Contact
	for _, c := range r.contacts {
		if c.DeletedAt != nil && !filter.IncludeDeleted {
			continue
		}
		if filter.Owner != nil || len(filter.IDs) > 0 {
			owned := filter.Owner != nil && c.Owner == *filter.Owner
			_, listed := idSet[c.ID]
			if !owned && !listed {
				continue
			}
		}
		copied := c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryContactRepository) FindByID(_ context.Context, id uuid.UUID) (*model.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contacts[id]
	if !ok || c.DeletedAt != nil {
		return nil, nil
	}
	copied := c
	return &copied, nil
}

func (r *MemoryContactRepository) Update(ctx context.Context, id uuid.UUID, patch crud.Payload) (*model.Contact, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}

	merged, err := crud.MergePatch(*existing, patch)
	if err != nil {
		return nil, err
	}
	merged.ID = existing.ID
	merged.CreatedBy = existing.CreatedBy
	merged.CreatedAt = existing.CreatedAt
	merged.DeletedAt = existing.DeletedAt
	merged.UpdatedAt = time.Now().UTC()

	r.mu.Lock()
	r.contacts[id] = merged
	r.mu.Unlock()
	return &merged, nil
}

func (r *MemoryContactRepository) Delete(ctx context.Context, id uuid.UUID) (*model.Contact, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}

	now := time.Now().UTC()
	existing.DeletedAt = &now
	existing.UpdatedAt = now

	r.mu.Lock()
	r.contacts[id] = *existing
	r.mu.Unlock()
	return existing, nil
}

type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]model.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[uuid.UUID]model.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email && u.DeletedAt == nil {
			return nil, ErrDuplicateEmail
		}
	}

	u := *user
	u.ID = uuid.New()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.DeletedAt = nil
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	r.users[u.ID] = u
	return &u, nil
}

func (r *MemoryUserRepository) Find(_ context.Context, filter UserFilter) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.User
	for _, u := range r.users {
		if u.DeletedAt != nil && !filter.IncludeDeleted {
			continue
		}
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		copied := u
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, nil
	}
	copied := u
	return &copied, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email && u.DeletedAt == nil {
			copied := u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) ExistingIDs(_ context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var existing []uuid.UUID
	for _, id := range ids {
		if u, ok := r.users[id]; ok && u.DeletedAt == nil {
			existing = append(existing, id)
		}
	}
	return existing, nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, id uuid.UUID, patch crud.Payload) (*model.User, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}

	merged, err := crud.MergePatch(*existing, patch)
	if err != nil {
		return nil, err
	}
	merged.ID = existing.ID
	merged.PasswordHash = existing.PasswordHash
	merged.CreatedBy = existing.CreatedBy
	merged.CreatedAt = existing.CreatedAt
	merged.DeletedAt = existing.DeletedAt
	merged.UpdatedAt = time.Now().UTC()

	r.mu.Lock()
	r.users[id] = merged
	r.mu.Unlock()
	return &merged, nil
}

func (r *MemoryUserRepository) Delete(ctx context.Context, id uuid.UUID) (*model.User, error) {
	existing, err := r.FindByID(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}

	now := time.Now().UTC()
	existing.DeletedAt = &now
	existing.UpdatedAt = now

	r.mu.Lock()
	r.users[id] = *existing
	r.mu.Unlock()
	return existing, nil
}

type MemoryShareRepository struct {
	mu     sync.RWMutex
	shares map[uuid.UUID]model.ContactShare
}

func NewMemoryShareRepository() *MemoryShareRepository {
	return &MemoryShareRepository{shares: make(map[uuid.UUID]model.ContactShare)}
}

func (r *MemoryShareRepository) ListByContact(_ context.Context, contactID uuid.UUID) ([]*model.ContactShare, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.ContactShare
	for _, s := range r.shares {
		if s.ContactID == contactID {
			copied := s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *MemoryShareRepository) ListByContacts(_ context.Context, contactIDs []uuid.UUID) ([]*model.ContactShare, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idSet := make(map[uuid.UUID]struct{}, len(contactIDs))
	for _, id := range contactIDs {
		idSet[id] = struct{}{}
	}
	var out []*model.ContactShare
	for _, s := range r.shares {
		if _, ok := idSet[s.ContactID]; ok {
			copied := s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *MemoryShareRepository) SharedContactIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, s := range r.shares {
		if s.UserID != userID {
			continue
		}
		if _, ok := seen[s.ContactID]; ok {
			continue
		}
		seen[s.ContactID] = struct{}{}
		ids = append(ids, s.ContactID)
	}
	return ids, nil
}

func (r *MemoryShareRepository) Exists(_ context.Context, contactID, userID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.shares {
		if s.ContactID == contactID && s.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryShareRepository) InsertMany(_ context.Context, shares []*model.ContactShare) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for _, share := range shares {
		s := *share
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		r.shares[s.ID] = s
	}
	return nil
}

func (r *MemoryShareRepository) DeleteByContactUsers(_ context.Context, contactID uuid.UUID, userIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idSet := make(map[uuid.UUID]struct{}, len(userIDs))
	for _, id := range userIDs {
		idSet[id] = struct{}{}
	}
	for id, s := range r.shares {
		if s.ContactID != contactID {
			continue
		}
		if _, ok := idSet[s.UserID]; ok {
			delete(r.shares, id)
		}
	}
	return nil
}

func (r *MemoryShareRepository) DeleteByContact(_ context.Context, contactID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.shares {
		if s.ContactID == contactID {
			delete(r.shares, id)
		}
	}
	return nil
}
