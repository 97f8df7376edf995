package services_test

import (
	"context"
	"errors"
	"testing"

	"billweave-backend/database"
	"billweave-backend/models"
	"billweave-backend/services"
)

type revokeRecorder struct {
	revoked []string
}

func (r *revokeRecorder) RevokeAll(_ context.Context, identityID string) error {
	r.revoked = append(r.revoked, identityID)
	return nil
}

func TestEnsureAccountBootstrap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acct, created, err := f.accounts.EnsureAccount(ctx, "id-new", "New@Shop.test ", services.Profile{Name: "New", ShopName: "Stitch"})
	if err != nil || !created {
		t.Fatalf("first ensure: %+v, %v, %v", acct, created, err)
	}
	if acct.Role != models.RoleUser || acct.IsBlocked || acct.Email != "new@shop.test" || acct.ShopName != "Stitch" {
		t.Fatalf("unexpected account: %+v", acct)
	}

	again, created, err := f.accounts.EnsureAccount(ctx, "id-other", "new@shop.test", services.Profile{})
	if err != nil || created || again.ID != "id-new" {
		t.Fatalf("second ensure: %+v, %v, %v", again, created, err)
	}
	var n int64
	f.db.Model(&models.Account{}).Where("email = ?", "new@shop.test").Count(&n)
	if n != 1 {
		t.Fatalf("accounts for email = %d", n)
	}
}

func TestEnsureAccountAdminAddress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accounts := services.NewAccountService(f.db, f.roles, "owner@shop.test", nil, f.clock.Now)

	acct, created, err := accounts.EnsureAccount(ctx, "id-owner", "OWNER@shop.test", services.Profile{})
	if err != nil || !created || acct.Role != models.RoleAdmin {
		t.Fatalf("admin bootstrap: %+v, %v, %v", acct, created, err)
	}
}

func TestAdminAccountManagement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rec := &revokeRecorder{}
	f.accounts = services.NewAccountService(f.db, f.roles, "admin@shop.test", rec, f.clock.Now)

	if err := f.accounts.SetBlocked(ctx, bobID, true, aliceID); !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("non-admin block: %v", err)
	}
	if err := f.accounts.SetBlocked(ctx, bobID, true, adminID); err != nil {
		t.Fatal(err)
	}
	bob, _ := f.accounts.Get(ctx, bobID)
	if !bob.IsBlocked || len(rec.revoked) != 1 || rec.revoked[0] != bobID {
		t.Fatalf("block: %+v revoked %v", bob, rec.revoked)
	}

	if err := f.accounts.SetRole(ctx, aliceID, models.RoleAdmin, adminID); err != nil {
		t.Fatal(err)
	}
	if admin, _ := f.accounts.IsAdmin(ctx, aliceID); !admin {
		t.Fatal("alice should be admin")
	}
	if err := f.accounts.SetRole(ctx, aliceID, "owner", adminID); !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("bad role: %v", err)
	}

	list, err := f.accounts.ListAll(ctx, aliceID)
	if err != nil || len(list) != 3 {
		t.Fatalf("list: %d, %v", len(list), err)
	}

	if err := f.accounts.Delete(ctx, bobID, adminID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.accounts.Get(ctx, bobID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("get deleted: %v", err)
	}
	if err := f.accounts.Delete(ctx, bobID, adminID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("delete twice: %v", err)
	}
}

// cacheSpy is a RoleResolver that records invalidations.
type cacheSpy struct {
	invalidated []string
}

func (c *cacheSpy) IsAdmin(context.Context, string) (bool, error) { return true, nil }

func (c *cacheSpy) Invalidate(_ context.Context, id string) error {
	c.invalidated = append(c.invalidated, id)
	return nil
}

func TestRoleInvalidationWaitsForCommit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	spy := &cacheSpy{}
	accounts := services.NewAccountService(f.db, spy, "admin@shop.test", nil, f.clock.Now)

	err := database.Transaction(ctx, f.db, func(ctx context.Context) error {
		if err := accounts.SetRole(ctx, aliceID, models.RoleAdmin, adminID); err != nil {
			return err
		}
		if len(spy.invalidated) != 0 {
			t.Errorf("invalidated before commit: %v", spy.invalidated)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(spy.invalidated) != 1 || spy.invalidated[0] != aliceID {
		t.Fatalf("after commit: %v", spy.invalidated)
	}

	rollback := errors.New("rollback")
	err = database.Transaction(ctx, f.db, func(ctx context.Context) error {
		if err := accounts.SetRole(ctx, bobID, models.RoleAdmin, adminID); err != nil {
			return err
		}
		return rollback
	})
	if !errors.Is(err, rollback) {
		t.Fatalf("rollback: %v", err)
	}
	if len(spy.invalidated) != 1 {
		t.Fatalf("rolled back change was invalidated: %v", spy.invalidated)
	}
}

func TestProfileAndLastLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	name, shop := "Alice K", "  Alice Tailors "
	acct, err := f.accounts.UpdateProfile(ctx, aliceID, services.ProfilePatch{Name: &name, ShopName: &shop})
	if err != nil {
		t.Fatal(err)
	}
	if acct.Name != "Alice K" || acct.ShopName != "Alice Tailors" || acct.Role != models.RoleUser {
		t.Fatalf("profile: %+v", acct)
	}

	at, err := f.accounts.TouchLastLogin(ctx, aliceID)
	if err != nil {
		t.Fatal(err)
	}
	acct, _ = f.accounts.Get(ctx, aliceID)
	if acct.LastLogin == nil || !acct.LastLogin.Equal(at) {
		t.Fatalf("last login = %v, want %v", acct.LastLogin, at)
	}
	if _, err := f.accounts.TouchLastLogin(ctx, "ghost"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("touch missing: %v", err)
	}
}
