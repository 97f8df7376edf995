package services

import (
	"context"
	"fmt"
	"time"

	"billweave-backend/models"
	"billweave-backend/policy"
	"billweave-backend/store"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const recentOrderCount = 5

type DashboardStats struct {
	TodayBills      int             `json:"today_bills"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	PendingPayments decimal.Decimal `json:"pending_payments"`
	ActiveOrders    int             `json:"active_orders"`
	RecentOrders    []models.Order  `json:"recent_orders"`
}

type AdminStats struct {
	TotalUsers     int64           `json:"total_users"`
	TotalCustomers int64           `json:"total_customers"`
	TotalBills     int64           `json:"total_bills"`
	TotalOrders    int64           `json:"total_orders"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	ActiveUsers    int64           `json:"active_users"`
	BlockedUsers   int64           `json:"blocked_users"`
}

// StatsService aggregates over whatever the caller is allowed to list.
type StatsService struct {
	bills     *BillService
	orders    *OrderService
	roles     policy.RoleResolver
	accounts  *store.Collection[models.Account]
	customers *store.Collection[models.Customer]
	billDocs  *store.Collection[models.Bill]
	orderDocs *store.Collection[models.Order]
	now       Clock
	location  *time.Location
}

// NewStatsService builds the stats service. "Today" is the calendar day in
// loc; nil means UTC.
func NewStatsService(db *gorm.DB, roles policy.RoleResolver, bills *BillService, orders *OrderService, loc *time.Location, now Clock) *StatsService {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &StatsService{
		bills:     bills,
		orders:    orders,
		roles:     roles,
		accounts:  store.NewCollection[models.Account](db),
		customers: store.NewCollection[models.Customer](db),
		billDocs:  store.NewCollection[models.Bill](db),
		orderDocs: store.NewCollection[models.Order](db),
		now:       now,
		location:  loc,
	}
}

// Dashboard summarizes the caller's bills and orders: bills created today,
// the sum of all bill totals, the amount still due on pending and partial
// bills, the orders still in the workshop and the newest few orders.
func (s *StatsService) Dashboard(ctx context.Context, actingUserID string) (*DashboardStats, error) {
	bills, err := s.bills.ListAll(ctx, actingUserID)
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListAll(ctx, actingUserID)
	if err != nil {
		return nil, err
	}

	y, m, d := s.now().In(s.location).Date()
	stats := &DashboardStats{
		TotalSales:      decimal.Zero,
		PendingPayments: decimal.Zero,
		RecentOrders:    make([]models.Order, 0, recentOrderCount),
	}
	for _, b := range bills {
		by, bm, bd := b.CreatedAt.In(s.location).Date()
		if by == y && bm == m && bd == d {
			stats.TodayBills++
		}
		stats.TotalSales = stats.TotalSales.Add(b.Total)
		if b.PaymentStatus == models.PaymentPending || b.PaymentStatus == models.PaymentPartial {
			stats.PendingPayments = stats.PendingPayments.Add(b.AmountDue)
		}
	}
	for i, o := range orders {
		if o.Status.Active() {
			stats.ActiveOrders++
		}
		if i < recentOrderCount {
			stats.RecentOrders = append(stats.RecentOrders, o)
		}
	}
	return stats, nil
}

// Admin reports totals across every account. Admins only.
func (s *StatsService) Admin(ctx context.Context, actingUserID string) (*AdminStats, error) {
	actor, err := policy.ActorFor(ctx, s.roles, actingUserID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin {
		return nil, ErrUnauthorized
	}

	var stats AdminStats
	counts := []struct {
		dst     *int64
		count   func(context.Context, []store.Filter) (int64, error)
		filters []store.Filter
	}{
		{&stats.TotalUsers, s.accounts.Count, nil},
		{&stats.BlockedUsers, s.accounts.Count, []store.Filter{store.Eq("is_blocked", true)}},
		{&stats.TotalCustomers, s.customers.Count, nil},
		{&stats.TotalBills, s.billDocs.Count, nil},
		{&stats.TotalOrders, s.orderDocs.Count, nil},
	}
	for _, c := range counts {
		n, err := c.count(ctx, c.filters)
		if err != nil {
			return nil, fmt.Errorf("admin stats: %w", err)
		}
		*c.dst = n
	}
	stats.ActiveUsers = stats.TotalUsers - stats.BlockedUsers

	bills, err := s.billDocs.Query(ctx, nil, store.NewestFirst)
	if err != nil {
		return nil, fmt.Errorf("admin stats: %w", err)
	}
	stats.TotalRevenue = decimal.Zero
	for _, b := range bills {
		stats.TotalRevenue = stats.TotalRevenue.Add(b.Total)
	}
	return &stats, nil
}
