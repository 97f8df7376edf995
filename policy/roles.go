package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"billweave-backend/database"
	"billweave-backend/models"

	"gorm.io/gorm"
)

// RoleResolver answers "is this account an admin".
type RoleResolver interface {
	IsAdmin(ctx context.Context, accountID string) (bool, error)
	// Invalidate drops anything remembered about accountID. Call it after a
	// role change or account deletion.
	Invalidate(ctx context.Context, accountID string) error
}

// AccountRoleResolver fetches the account record on every call. An unknown
// account is simply not an admin.
type AccountRoleResolver struct {
	db *gorm.DB
}

func NewAccountRoleResolver(db *gorm.DB) *AccountRoleResolver {
	return &AccountRoleResolver{db: db}
}

func (r *AccountRoleResolver) IsAdmin(ctx context.Context, accountID string) (bool, error) {
	var account models.Account
	err := database.Conn(ctx, r.db).Where("id = ?", accountID).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("resolve role for %s: %w", accountID, err)
	}
	return account.IsAdmin(), nil
}

func (r *AccountRoleResolver) Invalidate(context.Context, string) error { return nil }

// RoleCache stores resolved admin flags for a short time.
type RoleCache interface {
	Get(ctx context.Context, accountID string) (isAdmin bool, found bool, err error)
	Set(ctx context.Context, accountID string, isAdmin bool, ttl time.Duration) error
	Delete(ctx context.Context, accountID string) error
}

// CachedRoleResolver wraps a resolver with a TTL cache, so the role claim is
// not re-fetched on every authorization check.
type CachedRoleResolver struct {
	inner RoleResolver
	cache RoleCache
	ttl   time.Duration
}

func NewCachedRoleResolver(inner RoleResolver, cache RoleCache, ttl time.Duration) *CachedRoleResolver {
	return &CachedRoleResolver{inner: inner, cache: cache, ttl: ttl}
}

func (r *CachedRoleResolver) IsAdmin(ctx context.Context, accountID string) (bool, error) {
	isAdmin, found, err := r.cache.Get(ctx, accountID)
	if err != nil {
		// A broken cache must not block authorization; fall through to the source.
		slog.Warn("role cache read failed", "account", accountID, "error", err)
	} else if found {
		return isAdmin, nil
	}

	isAdmin, err = r.inner.IsAdmin(ctx, accountID)
	if err != nil {
		return false, err
	}
	if err := r.cache.Set(ctx, accountID, isAdmin, r.ttl); err != nil {
		slog.Warn("role cache write failed", "account", accountID, "error", err)
	}
	return isAdmin, nil
}

func (r *CachedRoleResolver) Invalidate(ctx context.Context, accountID string) error {
	if err := r.inner.Invalidate(ctx, accountID); err != nil {
		return err
	}
	return r.cache.Delete(ctx, accountID)
}

// NewRoleResolver returns the plain account resolver when ttl is zero or no
// cache is given, and a cached one otherwise.
func NewRoleResolver(db *gorm.DB, cache RoleCache, ttl time.Duration) RoleResolver {
	base := NewAccountRoleResolver(db)
	if cache == nil || ttl <= 0 {
		return base
	}
	return NewCachedRoleResolver(base, cache, ttl)
}
