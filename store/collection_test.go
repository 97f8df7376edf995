package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"billweave-backend/database/dbtest"
	"billweave-backend/models"
	"billweave-backend/store"

	"github.com/shopspring/decimal"
)

func TestCollectionCRUD(t *testing.T) {
	db := dbtest.Open(t)
	items := store.NewCollection[models.InventoryItem](db)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	for i, name := range []string{"Silk", "Buttons", "Linen"} {
		it := &models.InventoryItem{Name: name, Type: models.InventoryFabric, Price: decimal.NewFromInt(10), Quantity: decimal.NewFromInt(1)}
		it.Stamp("owner-1", base.Add(time.Duration(i)*time.Minute))
		if err := items.Insert(ctx, it); err != nil {
			t.Fatalf("insert %s: %v", name, err)
		}
	}
	other := &models.InventoryItem{Name: "Zari", Type: models.InventoryAccessory}
	other.Stamp("owner-2", base)
	if err := items.Insert(ctx, other); err != nil {
		t.Fatalf("insert other: %v", err)
	}

	byName, err := items.Query(ctx, []store.Filter{store.Eq("created_by", "owner-1")}, store.ByName)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(byName) != 3 || byName[0].Name != "Buttons" || byName[2].Name != "Silk" {
		t.Fatalf("unexpected name order: %+v", byName)
	}

	newest, err := items.First(ctx, nil, store.NewestFirst)
	if err != nil || newest == nil || newest.Name != "Linen" {
		t.Fatalf("newest = %+v, err %v", newest, err)
	}

	n, err := items.Count(ctx, nil)
	if err != nil || n != 4 {
		t.Fatalf("count = %d, err %v", n, err)
	}

	if err := items.Update(ctx, other.ID, map[string]any{"unit": "m"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := items.Get(ctx, other.ID)
	if err != nil || got == nil || got.Unit != "m" {
		t.Fatalf("get after update = %+v, err %v", got, err)
	}

	if err := items.Delete(ctx, other.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, err := items.Get(ctx, other.ID); err != nil || got != nil {
		t.Fatalf("expected nil after delete, got %+v err %v", got, err)
	}
	if err := items.Delete(ctx, other.ID); !errors.Is(err, store.ErrNoDocument) {
		t.Fatalf("second delete: %v", err)
	}
	if err := items.Update(ctx, "missing", map[string]any{"unit": "m"}); !errors.Is(err, store.ErrNoDocument) {
		t.Fatalf("update missing: %v", err)
	}
}
