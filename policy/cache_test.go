package policy_test

import (
	"context"
	"testing"
	"time"

	"billweave-backend/database/dbtest"
	"billweave-backend/models"
	"billweave-backend/policy"

	"github.com/alicebob/miniredis/v2"
)

func newRedisCache(t *testing.T) (*policy.RedisRoleCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb, err := policy.NewRedisClient(context.Background(), "redis://"+srv.Addr())
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return policy.NewRedisRoleCache(rdb), srv
}

func TestRedisRoleCache(t *testing.T) {
	cache, srv := newRedisCache(t)
	ctx := context.Background()

	if _, found, err := cache.Get(ctx, "u"); err != nil || found {
		t.Fatalf("miss: found=%v err=%v", found, err)
	}

	if err := cache.Set(ctx, "u", true, time.Minute); err != nil {
		t.Fatal(err)
	}
	if got, _ := srv.Get("role:u"); got != "admin" {
		t.Fatalf("stored value = %q", got)
	}
	if admin, found, err := cache.Get(ctx, "u"); err != nil || !found || !admin {
		t.Fatalf("hit: admin=%v found=%v err=%v", admin, found, err)
	}

	if err := cache.Set(ctx, "v", false, time.Minute); err != nil {
		t.Fatal(err)
	}
	if admin, found, _ := cache.Get(ctx, "v"); !found || admin {
		t.Fatalf("user entry: admin=%v found=%v", admin, found)
	}

	srv.FastForward(2 * time.Minute)
	if _, found, _ := cache.Get(ctx, "u"); found {
		t.Fatal("entry should have expired")
	}

	_ = cache.Set(ctx, "u", true, time.Minute)
	if err := cache.Delete(ctx, "u"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := cache.Get(ctx, "u"); found {
		t.Fatal("entry should be gone after Delete")
	}
}

func TestRedisRoleCacheBacksResolver(t *testing.T) {
	cache, _ := newRedisCache(t)
	db := dbtest.Open(t)
	ctx := context.Background()
	if err := db.Create(&models.Account{ID: "u", Email: "u@shop.test", Role: models.RoleUser}).Error; err != nil {
		t.Fatal(err)
	}

	roles := policy.NewRoleResolver(db, cache, time.Minute)
	if admin, _ := roles.IsAdmin(ctx, "u"); admin {
		t.Fatal("expected user role")
	}
	if err := db.Model(&models.Account{}).Where("id = ?", "u").Update("role", models.RoleAdmin).Error; err != nil {
		t.Fatal(err)
	}
	if admin, _ := roles.IsAdmin(ctx, "u"); admin {
		t.Fatal("cached role should be served before invalidation")
	}
	if err := roles.Invalidate(ctx, "u"); err != nil {
		t.Fatal(err)
	}
	if admin, _ := roles.IsAdmin(ctx, "u"); !admin {
		t.Fatal("expected admin after invalidation")
	}
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	if _, err := policy.NewRedisClient(context.Background(), "not a url"); err == nil {
		t.Fatal("expected a parse error")
	}
}
