package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"billweave-backend/database/dbtest"
	"billweave-backend/models"
	"billweave-backend/policy"
	"billweave-backend/services"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	adminID = "acct-admin"
	aliceID = "acct-alice"
	bobID   = "acct-bob"
)

// stepClock advances one second on every read so creation order is total.
type stepClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newStepClock() *stepClock {
	return &stepClock{cur: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Second)
	return c.cur
}

type fixture struct {
	db        *gorm.DB
	clock     *stepClock
	roles     policy.RoleResolver
	customers *services.CustomerService
	bills     *services.BillService
	orders    *services.OrderService
	inventory *services.InventoryService
	accounts  *services.AccountService
	stats     *services.StatsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	clock := newStepClock()
	roles := policy.NewRoleResolver(db, nil, 0)

	for _, a := range []models.Account{
		{ID: adminID, Email: "admin@shop.test", Role: models.RoleAdmin},
		{ID: aliceID, Email: "alice@shop.test", Role: models.RoleUser},
		{ID: bobID, Email: "bob@shop.test", Role: models.RoleUser},
	} {
		a := a
		if err := db.Create(&a).Error; err != nil {
			t.Fatalf("seed account %s: %v", a.ID, err)
		}
	}

	f := &fixture{
		db:        db,
		clock:     clock,
		roles:     roles,
		customers: services.NewCustomerService(db, roles, clock.Now),
		bills:     services.NewBillService(db, roles, "BW", clock.Now),
		orders:    services.NewOrderService(db, roles, clock.Now),
		inventory: services.NewInventoryService(db, roles, clock.Now),
		accounts:  services.NewAccountService(db, roles, "admin@shop.test", nil, clock.Now),
	}
	f.stats = services.NewStatsService(db, roles, f.bills, f.orders, time.UTC, clock.Now)
	return f
}

func (f *fixture) customer(t *testing.T, owner, name string) string {
	t.Helper()
	id, err := f.customers.Create(context.Background(), &models.Customer{Name: name, Phone: "98765 43210"}, owner)
	if err != nil {
		t.Fatalf("create customer %s: %v", name, err)
	}
	return id
}

func (f *fixture) bill(t *testing.T, owner, customerID string, price string) *models.Bill {
	t.Helper()
	b := &models.Bill{
		CustomerID: customerID,
		Items: []models.LineItem{
			{Name: "Shirt stitching", Quantity: 1, Price: dec(price)},
		},
		TaxPercentage: decimal.Zero,
		PaymentStatus: models.PaymentPending,
	}
	if _, err := f.bills.Create(context.Background(), b, owner); err != nil {
		t.Fatalf("create bill: %v", err)
	}
	return b
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
