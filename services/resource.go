// Package services is the access-control and data-access layer. Every
// create, read, update, delete and list on customers, bills, orders and
// inventory goes through here and is checked against the ownership policy
// before it reaches the store.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"billweave-backend/policy"
	"billweave-backend/store"

	"gorm.io/gorm"
)

// Record is the pointer side of an owned model.
type Record[T any] interface {
	*T
	GetID() string
	GetCreatedBy() string
	Stamp(ownerID string, now time.Time)
}

// Clock returns the current instant. Services take one so tests can pin time.
type Clock func() time.Time

// Resource implements the operations shared by every owned entity kind.
type Resource[T any, P Record[T]] struct {
	docs  *store.Collection[T]
	roles policy.RoleResolver
	order store.OrderBy
	now   Clock
}

func newResource[T any, P Record[T]](db *gorm.DB, roles policy.RoleResolver, order store.OrderBy, now Clock) Resource[T, P] {
	if now == nil {
		now = time.Now
	}
	return Resource[T, P]{
		docs:  store.NewCollection[T](db),
		roles: roles,
		order: order,
		now:   now,
	}
}

func (r *Resource[T, P]) clock() time.Time {
	return r.now().UTC()
}

// Create stamps the owner and timestamps on rec and stores it. Input is
// stored as given; callers validate.
func (r *Resource[T, P]) Create(ctx context.Context, rec P, ownerID string) (string, error) {
	if ownerID == "" {
		return "", ErrUnauthorized
	}
	rec.Stamp(ownerID, r.clock())
	if err := r.docs.Insert(ctx, (*T)(rec)); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", fmt.Errorf("create: %w", ErrConflict)
		}
		return "", fmt.Errorf("create: %w", err)
	}
	return rec.GetID(), nil
}

// GetByID reads one record without any ownership check. It returns nil, nil
// when the id is unknown. Use Get for anything a caller can reach.
func (r *Resource[T, P]) GetByID(ctx context.Context, id string) (*T, error) {
	rec, err := r.docs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	return rec, nil
}

// Get reads one record on behalf of actingUserID. Unknown ids are ErrNotFound
// and records owned by someone else are ErrUnauthorized unless the caller is
// an admin.
func (r *Resource[T, P]) Get(ctx context.Context, id, actingUserID string) (*T, error) {
	rec, _, err := r.load(ctx, id, actingUserID, policy.ActionView)
	return rec, err
}

// Update merges fields into the record after the ownership check. The owner,
// id and creation time cannot be changed this way.
func (r *Resource[T, P]) Update(ctx context.Context, id string, fields map[string]any, actingUserID string) error {
	if _, _, err := r.load(ctx, id, actingUserID, policy.ActionUpdate); err != nil {
		return err
	}
	return r.write(ctx, id, fields)
}

func (r *Resource[T, P]) Delete(ctx context.Context, id, actingUserID string) error {
	if _, _, err := r.load(ctx, id, actingUserID, policy.ActionDelete); err != nil {
		return err
	}
	if err := r.docs.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return fmt.Errorf("delete %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// ListAll returns every record for an admin and the caller's own records
// otherwise, in the collection's order.
func (r *Resource[T, P]) ListAll(ctx context.Context, actingUserID string) ([]T, error) {
	return r.list(ctx, actingUserID)
}

func (r *Resource[T, P]) list(ctx context.Context, actingUserID string, filters ...store.Filter) ([]T, error) {
	actor, err := policy.ActorFor(ctx, r.roles, actingUserID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionList, nil); err != nil {
		return nil, err
	}
	recs, err := r.docs.Query(ctx, append(scopeFilters(actor), filters...), r.order)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return recs, nil
}

// load fetches id and authorizes action on it for actingUserID.
func (r *Resource[T, P]) load(ctx context.Context, id, actingUserID string, action policy.Action) (*T, policy.Actor, error) {
	rec, err := r.docs.Get(ctx, id)
	if err != nil {
		return nil, policy.Actor{}, fmt.Errorf("get %s: %w", id, err)
	}
	if rec == nil {
		return nil, policy.Actor{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	actor, err := policy.ActorFor(ctx, r.roles, actingUserID)
	if err != nil {
		return nil, policy.Actor{}, err
	}
	if err := policy.Authorize(actor, action, P(rec)); err != nil {
		return nil, actor, err
	}
	return rec, actor, nil
}

func (r *Resource[T, P]) write(ctx context.Context, id string, fields map[string]any) error {
	patch := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		switch k {
		case "id", "created_by", "created_at", "updated_at":
			continue
		}
		patch[k] = v
	}
	patch["updated_at"] = r.clock()

	if err := r.docs.Update(ctx, id, patch); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return fmt.Errorf("update %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("update %s: %w", id, err)
	}
	return nil
}

// scopeFilters limits a query to what actor may see.
func scopeFilters(actor policy.Actor) []store.Filter {
	if actor.IsAdmin {
		return nil
	}
	return []store.Filter{store.Eq("created_by", actor.ID)}
}
