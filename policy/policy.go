// Package policy decides who may touch which record. There is one rule for
// every entity kind: admins may operate on anything, everyone else only on
// records they created.
package policy

import (
	"context"
	"errors"
)

// Action describes the kind of operation a user wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
)

var ErrUnauthorized = errors.New("unauthorized")

// Ownable is implemented by every record that carries a createdBy owner.
type Ownable interface {
	GetCreatedBy() string
}

// Actor is the account performing an operation.
type Actor struct {
	ID      string
	IsAdmin bool
}

// Authorize returns nil when actor may perform action on resource, and
// ErrUnauthorized otherwise. A nil resource (list/create) is allowed for any
// signed-in actor; visibility of lists is scoped by the caller.
func Authorize(actor Actor, action Action, resource Ownable) error {
	if actor.ID == "" {
		return ErrUnauthorized
	}
	if actor.IsAdmin {
		return nil
	}
	if resource == nil {
		if action == ActionList || action == ActionCreate {
			return nil
		}
		return ErrUnauthorized
	}
	if resource.GetCreatedBy() != actor.ID {
		return ErrUnauthorized
	}
	return nil
}

// ActorFor resolves accountID's role through roles.
func ActorFor(ctx context.Context, roles RoleResolver, accountID string) (Actor, error) {
	if accountID == "" {
		return Actor{}, ErrUnauthorized
	}
	isAdmin, err := roles.IsAdmin(ctx, accountID)
	if err != nil {
		return Actor{}, err
	}
	return Actor{ID: accountID, IsAdmin: isAdmin}, nil
}
