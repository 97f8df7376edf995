package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"billweave-backend/database/dbtest"
	"billweave-backend/identity"
	"billweave-backend/models"
	"billweave-backend/policy"
	"billweave-backend/services"
	"billweave-backend/session"

	"gorm.io/gorm"
)

type env struct {
	db       *gorm.DB
	provider *identity.LocalProvider
	accounts *services.AccountService
	manager  *session.Manager
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.Open(t)
	provider, err := identity.NewLocalProvider(db, identity.Options{Secret: []byte("s"), TokenTTL: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	accounts := services.NewAccountService(db, policy.NewRoleResolver(db, nil, 0), "boss@shop.test", provider, nil)
	m := session.NewManager(provider, accounts)
	t.Cleanup(m.Close)
	return &env{db: db, provider: provider, accounts: accounts, manager: m}
}

func TestFirstSignInBootstrapsOneAccount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	s, state, err := e.manager.SignUp(ctx, "ann@shop.test", "secret1", identity.Profile{Name: "Ann", ShopName: "Ann's"})
	if err != nil {
		t.Fatal(err)
	}
	if state.Account.ID != s.IdentityID || state.IsAdmin || state.Account.IsBlocked || state.Account.LastLogin == nil {
		t.Fatalf("state after sign up: %+v", state.Account)
	}
	if state.Account.ShopName != "Ann's" {
		t.Fatalf("profile not copied: %+v", state.Account)
	}

	_, again, err := e.manager.SignIn(ctx, "ann@shop.test", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if again.Account.ID != state.Account.ID {
		t.Fatalf("second sign-in got account %s", again.Account.ID)
	}
	var n int64
	e.db.Model(&models.Account{}).Count(&n)
	if n != 1 {
		t.Fatalf("accounts = %d, want 1", n)
	}
}

func TestAdminAddressGetsAdminRole(t *testing.T) {
	e := newEnv(t)
	_, state, err := e.manager.SignUp(context.Background(), "Boss@Shop.test", "secret1", identity.Profile{})
	if err != nil {
		t.Fatal(err)
	}
	if !state.IsAdmin || state.Account.Role != models.RoleAdmin {
		t.Fatalf("expected admin: %+v", state)
	}
}

func TestBlockedAccountIsSignedOut(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	s, _, err := e.manager.SignUp(ctx, "eve@shop.test", "secret1", identity.Profile{})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.db.Model(&models.Account{}).Where("id = ?", s.IdentityID).Update("is_blocked", true).Error; err != nil {
		t.Fatal(err)
	}

	got, state, err := e.manager.SignIn(ctx, "eve@shop.test", "secret1")
	if !errors.Is(err, session.ErrBlockedAccount) || got != nil || state != nil {
		t.Fatalf("blocked sign in: %v, %v, %v", got, state, err)
	}

	// The session issued for the refused sign-in was revoked; only the earlier one is left.
	var live int64
	e.db.Model(&models.Session{}).Where("identity_id = ? AND revoked_at IS NULL", s.IdentityID).Count(&live)
	if live != 1 {
		t.Fatalf("live sessions = %d, want only the pre-block one", live)
	}
	if _, err := e.manager.Current(ctx, s.SessionID, s.IdentityID); !errors.Is(err, session.ErrBlockedAccount) {
		t.Fatalf("current for blocked account: %v", err)
	}
}

func TestAdminBlockRevokesSessions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, admin, err := e.manager.SignUp(ctx, "boss@shop.test", "secret1", identity.Profile{})
	if err != nil {
		t.Fatal(err)
	}
	user, _, err := e.manager.SignUp(ctx, "u@shop.test", "secret1", identity.Profile{})
	if err != nil {
		t.Fatal(err)
	}

	if err := e.accounts.SetBlocked(ctx, user.IdentityID, true, admin.Account.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.provider.Verify(ctx, user.Token); !errors.Is(err, identity.ErrSessionRevoked) {
		t.Fatalf("blocked user's token: %v", err)
	}
}
