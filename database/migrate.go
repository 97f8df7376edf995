package database

import (
	"fmt"
	"log/slog"

	"billweave-backend/models"

	"gorm.io/gorm"
)

// Migrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns/index tags)
// - Listing indexes (owner + creation time)
// - Basic CHECK constraints (postgres only)
func Migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		// --- AutoMigrate tables/columns/index tags (non-destructive) ---
		if err := tx.AutoMigrate(
			&models.Identity{},
			&models.Session{},
			&models.Account{},
			&models.Customer{},
			&models.Bill{},
			&models.BillSequence{},
			&models.Order{},
			&models.InventoryItem{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		// --- Composite indexes for owner-scoped listings (idempotent) ---
		indexes := []string{
			`CREATE INDEX IF NOT EXISTS idx_customers_owner_created ON customers (created_by, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_bills_owner_created ON bills (created_by, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_bills_customer_created ON bills (customer_id, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_orders_owner_created ON orders (created_by, created_at)`,
			`CREATE INDEX IF NOT EXISTS idx_inventory_items_owner_name ON inventory_items (created_by, name)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		if tx.Dialector.Name() != "postgres" {
			return nil
		}

		// --- Basic CHECK constraints (idempotent) ---
		checks := []struct{ table, name, expr string }{
			{"bills", "chk_bills_amount_paid_nonneg", "amount_paid >= 0"},
			{"bills", "chk_bills_tax_percentage_nonneg", "tax_percentage >= 0"},
			{"bills", "chk_bills_payment_status", "payment_status IN ('paid','pending','partial')"},
			{"orders", "chk_orders_status", "status IN ('pending','in_progress','completed','delivered')"},
			{"inventory_items", "chk_inventory_items_price_nonneg", "price >= 0"},
			{"inventory_items", "chk_inventory_items_type", "type IN ('fabric','service','accessory')"},
			{"accounts", "chk_accounts_role", "role IN ('admin','user')"},
		}
		for _, c := range checks {
			stmt := fmt.Sprintf(`DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint
		WHERE conrelid = '%[1]s'::regclass
		  AND conname  = '%[2]s'
	) THEN
		ALTER TABLE %[1]s
		ADD CONSTRAINT %[2]s
		CHECK (%[3]s);
	END IF;
END $$;`, c.table, c.name, c.expr)
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed on %s: %w", c.name, err)
			}
		}
		slog.Debug("postgres check constraints ensured", "count", len(checks))
		return nil
	})
}
