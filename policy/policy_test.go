package policy_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"billweave-backend/database/dbtest"
	"billweave-backend/models"
	"billweave-backend/policy"
)

type owned string

func (o owned) GetCreatedBy() string { return string(o) }

func TestAuthorize(t *testing.T) {
	admin := policy.Actor{ID: "a1", IsAdmin: true}
	user := policy.Actor{ID: "u1"}

	cases := []struct {
		name   string
		actor  policy.Actor
		action policy.Action
		res    policy.Ownable
		want   bool
	}{
		{"owner may update", user, policy.ActionUpdate, owned("u1"), true},
		{"other user denied", user, policy.ActionView, owned("u2"), false},
		{"admin may delete anything", admin, policy.ActionDelete, owned("u2"), true},
		{"list without resource", user, policy.ActionList, nil, true},
		{"view without resource", user, policy.ActionView, nil, false},
		{"anonymous denied", policy.Actor{}, policy.ActionList, nil, false},
		{"empty owner never matches", user, policy.ActionView, owned(""), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := policy.Authorize(tc.actor, tc.action, tc.res)
			if got := err == nil; got != tc.want {
				t.Fatalf("Authorize = %v, want allowed=%v", err, tc.want)
			}
			if err != nil && !errors.Is(err, policy.ErrUnauthorized) {
				t.Fatalf("unexpected error type %v", err)
			}
		})
	}
}

func TestAccountRoleResolver(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	if err := db.Create(&models.Account{ID: "adm", Email: "boss@shop.test", Role: models.RoleAdmin}).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&models.Account{ID: "usr", Email: "u@shop.test", Role: models.RoleUser}).Error; err != nil {
		t.Fatal(err)
	}

	roles := policy.NewRoleResolver(db, nil, 0)
	for id, want := range map[string]bool{"adm": true, "usr": false, "ghost": false} {
		got, err := roles.IsAdmin(ctx, id)
		if err != nil || got != want {
			t.Fatalf("IsAdmin(%s) = %v, %v; want %v", id, got, err, want)
		}
	}

	actor, err := policy.ActorFor(ctx, roles, "adm")
	if err != nil || !actor.IsAdmin || actor.ID != "adm" {
		t.Fatalf("ActorFor = %+v, %v", actor, err)
	}
	if _, err := policy.ActorFor(ctx, roles, ""); !errors.Is(err, policy.ErrUnauthorized) {
		t.Fatalf("empty id: %v", err)
	}
}

func TestCachedRoleResolverInvalidate(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	if err := db.Create(&models.Account{ID: "u", Email: "u@shop.test", Role: models.RoleUser}).Error; err != nil {
		t.Fatal(err)
	}

	roles := policy.NewRoleResolver(db, policy.NewMemoryRoleCache(), time.Minute)
	if admin, _ := roles.IsAdmin(ctx, "u"); admin {
		t.Fatal("expected user role")
	}

	if err := db.Model(&models.Account{}).Where("id = ?", "u").Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatal(err)
	}
	if admin, _ := roles.IsAdmin(ctx, "u"); admin {
		t.Fatal("cached value should still be served before invalidation")
	}

	if err := roles.Invalidate(ctx, "u"); err != nil {
		t.Fatal(err)
	}
	if admin, _ := roles.IsAdmin(ctx, "u"); !admin {
		t.Fatal("expected admin after invalidation")
	}
}

func TestMemoryRoleCacheExpiry(t *testing.T) {
	c := policy.NewMemoryRoleCache()
	ctx := context.Background()
	_ = c.Set(ctx, "x", true, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, found, _ := c.Get(ctx, "x"); found {
		t.Fatal("entry should have expired")
	}
	_ = c.Set(ctx, "x", true, time.Hour)
	if admin, found, _ := c.Get(ctx, "x"); !found || !admin {
		t.Fatal("expected fresh entry")
	}
}
