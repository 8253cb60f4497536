package contacts

import (
	"context"

	"contactbook/internal/model"

	"github.com/google/uuid"
)

// reconcileShares makes the stored share set for a contact match the target
// list by applying the symmetric difference: shares missing from the target
// are removed, targets missing a share are inserted, and shares present in
// both keep their original records (granter and creation metadata intact).
// Reconciling the same target twice is a no-op on the second call.
//
// The target list is untrusted: duplicates are collapsed, malformed ids and
// ids naming no live user are discarded, and the owner is dropped since they
// already have full access.
//
// The read-diff-write sequence is not atomic against a concurrent
// reconciliation of the same contact; the single-owner editing workload
// makes that an accepted trade-off.
func (s *Service) reconcileShares(ctx context.Context, contactID uuid.UUID, target []string, ownerID, sharedBy uuid.UUID) error {
	parsed := make([]uuid.UUID, 0, len(target))
	seen := make(map[uuid.UUID]struct{}, len(target))
	for _, raw := range target {
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil || id == ownerID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		parsed = append(parsed, id)
	}

	normalized := make(map[uuid.UUID]struct{}, len(parsed))
	if len(parsed) > 0 {
		known, err := s.users.ExistingIDs(ctx, parsed)
		if err != nil {
			return err
		}
		for _, id := range known {
			normalized[id] = struct{}{}
		}
	}

	existing, err := s.shares.ListByContact(ctx, contactID)
	if err != nil {
		return err
	}
	existingUsers := make(map[uuid.UUID]struct{}, len(existing))
	for _, sh := range existing {
		existingUsers[sh.UserID] = struct{}{}
	}

	var toAdd []*model.ContactShare
	for userID := range normalized {
		if _, ok := existingUsers[userID]; !ok {
			grantedBy := sharedBy
			toAdd = append(toAdd, &model.ContactShare{
				ContactID: contactID,
				UserID:    userID,
				SharedBy:  &grantedBy,
			})
		}
	}
	var toRemove []uuid.UUID
	for _, sh := range existing {
		if _, ok := normalized[sh.UserID]; !ok {
			toRemove = append(toRemove, sh.UserID)
		}
	}

	if err := s.shares.InsertMany(ctx, toAdd); err != nil {
		return err
	}
	if err := s.shares.DeleteByContactUsers(ctx, contactID, toRemove); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordShareReconciliation(ctx, len(toAdd), len(toRemove))
	}
	return nil
}
