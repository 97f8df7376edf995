package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"billweave-backend/database"
	"billweave-backend/models"
	"billweave-backend/policy"
	"billweave-backend/store"

	"gorm.io/gorm"
)

// SessionRevoker ends every live session of an identity.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, identityID string) error
}

// Profile is what an account holder tells us about themselves.
type Profile struct {
	Name     string
	Phone    string
	ShopName string
}

// ProfilePatch is a self-service profile edit. Nil means unchanged.
type ProfilePatch struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	ShopName *string `json:"shop_name"`
}

type AccountService struct {
	db         *gorm.DB
	accounts   *store.Collection[models.Account]
	roles      policy.RoleResolver
	adminEmail string
	revoker    SessionRevoker
	now        Clock
}

// NewAccountService builds the account service. adminEmail is the address
// that is bootstrapped with the admin role; revoker may be nil.
func NewAccountService(db *gorm.DB, roles policy.RoleResolver, adminEmail string, revoker SessionRevoker, now Clock) *AccountService {
	if now == nil {
		now = time.Now
	}
	return &AccountService{
		db:         db,
		accounts:   store.NewCollection[models.Account](db),
		roles:      roles,
		adminEmail: normalizeEmail(adminEmail),
		revoker:    revoker,
		now:        now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EnsureAccount returns the account for email, creating it with id on first
// sight. A new account is an admin only when email is the configured admin
// address. created reports whether this call made the account.
func (s *AccountService) EnsureAccount(ctx context.Context, id, email string, profile Profile) (account *models.Account, created bool, err error) {
	email = normalizeEmail(email)
	if id == "" || email == "" {
		return nil, false, fmt.Errorf("%w: account needs an id and an email", ErrInvalidInput)
	}

	existing, err := s.FindByEmail(ctx, email)
	if err != nil || existing != nil {
		return existing, false, err
	}

	role := models.RoleUser
	if s.adminEmail != "" && email == s.adminEmail {
		role = models.RoleAdmin
	}
	now := s.now().UTC()
	account = &models.Account{
		ID:        id,
		Email:     email,
		Name:      profile.Name,
		Phone:     profile.Phone,
		ShopName:  profile.ShopName,
		Role:      role,
		IsBlocked: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = database.Conn(ctx, s.db).Transaction(func(tx *gorm.DB) error {
		return tx.Create(account).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent sign-in for the same email won the race.
		existing, err := s.FindByEmail(ctx, email)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("account %s: %w", email, ErrConflict)
	}
	if err != nil {
		return nil, false, fmt.Errorf("create account %s: %w", email, err)
	}
	slog.Info("account created", "account", account.ID, "role", account.Role)
	return account, true, nil
}

func (s *AccountService) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	accounts, err := s.accounts.Query(ctx, []store.Filter{store.Eq("email", normalizeEmail(email))}, store.OrderBy{})
	if err != nil {
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return &accounts[0], nil
}

// Get returns the account with id or ErrNotFound.
func (s *AccountService) Get(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.accounts.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", id, err)
	}
	if account == nil {
		return nil, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	return account, nil
}

func (s *AccountService) TouchLastLogin(ctx context.Context, id string) (time.Time, error) {
	now := s.now().UTC()
	if err := s.update(ctx, id, map[string]any{"last_login": now}); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// UpdateProfile edits the caller's own name, phone and shop name.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*models.Account, error) {
	fields := map[string]any{}
	if patch.Name != nil {
		fields["name"] = strings.TrimSpace(*patch.Name)
	}
	if patch.Phone != nil {
		fields["phone"] = strings.TrimSpace(*patch.Phone)
	}
	if patch.ShopName != nil {
		fields["shop_name"] = strings.TrimSpace(*patch.ShopName)
	}
	if len(fields) > 0 {
		if err := s.update(ctx, id, fields); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

// SetBlocked blocks or unblocks targetID. Blocking also ends the target's
// live sessions.
func (s *AccountService) SetBlocked(ctx context.Context, targetID string, blocked bool, actingUserID string) error {
	if err := s.requireAdmin(ctx, actingUserID); err != nil {
		return err
	}
	if err := s.update(ctx, targetID, map[string]any{"is_blocked": blocked}); err != nil {
		return err
	}
	if blocked && s.revoker != nil {
		if err := s.revoker.RevokeAll(ctx, targetID); err != nil {
			return fmt.Errorf("revoke sessions of %s: %w", targetID, err)
		}
	}
	slog.Info("account block changed", "account", targetID, "blocked", blocked, "by", actingUserID)
	return nil
}

func (s *AccountService) SetRole(ctx context.Context, targetID string, role models.Role, actingUserID string) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	if err := s.requireAdmin(ctx, actingUserID); err != nil {
		return err
	}
	if err := s.update(ctx, targetID, map[string]any{"role": role}); err != nil {
		return err
	}
	s.invalidateRole(ctx, targetID)
	slog.Info("account role changed", "account", targetID, "role", role, "by", actingUserID)
	return nil
}

// Delete removes targetID's account record and ends its sessions. The records
// it owns are kept.
func (s *AccountService) Delete(ctx context.Context, targetID, actingUserID string) error {
	if err := s.requireAdmin(ctx, actingUserID); err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, targetID); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return fmt.Errorf("account %s: %w", targetID, ErrNotFound)
		}
		return fmt.Errorf("delete account %s: %w", targetID, err)
	}
	s.invalidateRole(ctx, targetID)
	if s.revoker != nil {
		if err := s.revoker.RevokeAll(ctx, targetID); err != nil {
			return fmt.Errorf("revoke sessions of %s: %w", targetID, err)
		}
	}
	slog.Info("account deleted", "account", targetID, "by", actingUserID)
	return nil
}

// invalidateRole drops the cached role of id once the change is committed,
// so a concurrent check cannot cache the old role again in between.
func (s *AccountService) invalidateRole(ctx context.Context, id string) {
	database.AfterCommit(ctx, func() {
		if err := s.roles.Invalidate(context.WithoutCancel(ctx), id); err != nil {
			slog.Error("invalidate cached role failed", "account", id, "error", err)
		}
	})
}

// ListAll returns every account, newest first. Admins only.
func (s *AccountService) ListAll(ctx context.Context, actingUserID string) ([]models.Account, error) {
	if err := s.requireAdmin(ctx, actingUserID); err != nil {
		return nil, err
	}
	accounts, err := s.accounts.Query(ctx, nil, store.NewestFirst)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// IsAdmin resolves accountID's role through the configured resolver.
func (s *AccountService) IsAdmin(ctx context.Context, accountID string) (bool, error) {
	return s.roles.IsAdmin(ctx, accountID)
}

func (s *AccountService) requireAdmin(ctx context.Context, actingUserID string) error {
	actor, err := policy.ActorFor(ctx, s.roles, actingUserID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin {
		return ErrUnauthorized
	}
	return nil
}

func (s *AccountService) update(ctx context.Context, id string, fields map[string]any) error {
	fields["updated_at"] = s.now().UTC()
	if err := s.accounts.Update(ctx, id, fields); err != nil {
		if errors.Is(err, store.ErrNoDocument) {
			return fmt.Errorf("account %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("update account %s: %w", id, err)
	}
	return nil
}
