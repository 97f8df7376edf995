package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"billweave-backend/billing"
	"billweave-backend/database"
	"billweave-backend/models"
	"billweave-backend/policy"
	"billweave-backend/store"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BillService keeps the derived money fields of a bill in step with its
// inputs and hands out bill numbers.
type BillService struct {
	Resource[models.Bill, *models.Bill]
	db        *gorm.DB
	prefix    string
	customers *store.Collection[models.Customer]
	orders    *store.Collection[models.Order]
}

func NewBillService(db *gorm.DB, roles policy.RoleResolver, prefix string, now Clock) *BillService {
	if prefix == "" {
		prefix = billing.DefaultPrefix
	}
	return &BillService{
		Resource:  newResource[models.Bill, *models.Bill](db, roles, store.NewestFirst, now),
		db:        db,
		prefix:    prefix,
		customers: store.NewCollection[models.Customer](db),
		orders:    store.NewCollection[models.Order](db),
	}
}

// OrderRequest asks for a production order to be opened together with a bill.
type OrderRequest struct {
	DueDate time.Time
	Notes   string
}

// Create validates bill, snapshots the customer, computes the totals and
// stores it under the next number of the owner's sequence.
func (s *BillService) Create(ctx context.Context, bill *models.Bill, ownerID string) (string, error) {
	billID, _, err := s.CreateWithOrder(ctx, bill, ownerID, nil)
	return billID, err
}

// CreateWithOrder is Create plus, when req is not nil, a pending order copying
// the bill's customer, items and total. Both are written or neither is.
func (s *BillService) CreateWithOrder(ctx context.Context, bill *models.Bill, ownerID string, req *OrderRequest) (billID, orderID string, err error) {
	if bill.PaymentStatus == "" {
		bill.PaymentStatus = models.PaymentPending
	}
	if err := billing.Validate(bill.Items, bill.TaxPercentage, bill.AmountPaid, bill.PaymentStatus); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	err = database.Transaction(ctx, s.db, func(ctx context.Context) error {
		actor, err := policy.ActorFor(ctx, s.roles, ownerID)
		if err != nil {
			return err
		}
		if err := s.snapshotCustomer(ctx, actor, bill); err != nil {
			return err
		}

		n, err := s.allocate(ctx, actor)
		if err != nil {
			return err
		}
		bill.BillNumber = billing.FormatNumber(s.prefix, n)
		billing.Apply(bill)

		if billID, err = s.Resource.Create(ctx, bill, ownerID); err != nil {
			return err
		}
		if req == nil {
			return nil
		}

		order := orderFromBill(bill, req)
		order.Stamp(ownerID, s.clock())
		if err := s.orders.Insert(ctx, order); err != nil {
			return fmt.Errorf("create order for %s: %w", bill.BillNumber, err)
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return "", "", err
	}
	return billID, orderID, nil
}

func orderFromBill(bill *models.Bill, req *OrderRequest) *models.Order {
	items := make(datatypes.JSONSlice[models.LineItem], len(bill.Items))
	copy(items, bill.Items)
	return &models.Order{
		BillID:        bill.ID,
		BillNumber:    bill.BillNumber,
		CustomerID:    bill.CustomerID,
		CustomerName:  bill.CustomerName,
		CustomerPhone: bill.CustomerPhone,
		Status:        models.OrderPending,
		DueDate:       req.DueDate.UTC(),
		Items:         items,
		Total:         bill.Total,
		Notes:         req.Notes,
	}
}

// snapshotCustomer copies the customer's name and phone onto the bill. The
// customer must exist and be visible to actor.
func (s *BillService) snapshotCustomer(ctx context.Context, actor policy.Actor, bill *models.Bill) error {
	if bill.CustomerID == "" {
		return fmt.Errorf("%w: customer is required", ErrInvalidInput)
	}
	customer, err := s.customers.Get(ctx, bill.CustomerID)
	if err != nil {
		return fmt.Errorf("get customer %s: %w", bill.CustomerID, err)
	}
	if customer == nil {
		return fmt.Errorf("customer %s: %w", bill.CustomerID, ErrNotFound)
	}
	if err := policy.Authorize(actor, policy.ActionView, customer); err != nil {
		return err
	}
	bill.CustomerName = customer.Name
	bill.CustomerPhone = customer.Phone
	return nil
}

// BillPatch lists the bill inputs an update may change. Nil means unchanged.
// The derived fields are not here: they are always recomputed.
type BillPatch struct {
	CustomerID    *string
	Items         *[]models.LineItem
	TaxPercentage *decimal.Decimal
	PaymentStatus *models.PaymentStatus
	AmountPaid    *decimal.Decimal
	Notes         *string
}

// Update merges patch into the stored bill and recomputes subtotal, tax,
// total and amount due.
func (s *BillService) Update(ctx context.Context, id string, patch BillPatch, actingUserID string) error {
	return database.Transaction(ctx, s.db, func(ctx context.Context) error {
		bill, actor, err := s.load(ctx, id, actingUserID, policy.ActionUpdate)
		if err != nil {
			return err
		}

		if patch.CustomerID != nil && *patch.CustomerID != bill.CustomerID {
			bill.CustomerID = *patch.CustomerID
			if err := s.snapshotCustomer(ctx, actor, bill); err != nil {
				return err
			}
		}
		if patch.Items != nil {
			bill.Items = *patch.Items
		}
		if patch.TaxPercentage != nil {
			bill.TaxPercentage = *patch.TaxPercentage
		}
		if patch.PaymentStatus != nil {
			bill.PaymentStatus = *patch.PaymentStatus
		}
		if patch.AmountPaid != nil {
			bill.AmountPaid = *patch.AmountPaid
		}
		if patch.Notes != nil {
			bill.Notes = *patch.Notes
		}

		if err := billing.Validate(bill.Items, bill.TaxPercentage, bill.AmountPaid, bill.PaymentStatus); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		billing.Apply(bill)

		return s.write(ctx, id, map[string]any{
			"customer_id":    bill.CustomerID,
			"customer_name":  bill.CustomerName,
			"customer_phone": bill.CustomerPhone,
			"items":          bill.Items,
			"subtotal":       bill.Subtotal,
			"tax_percentage": bill.TaxPercentage,
			"tax":            bill.Tax,
			"total":          bill.Total,
			"payment_status": bill.PaymentStatus,
			"amount_paid":    bill.AmountPaid,
			"amount_due":     bill.AmountDue,
			"notes":          bill.Notes,
		})
	})
}

// ListForCustomer is ListAll narrowed to one customer.
func (s *BillService) ListForCustomer(ctx context.Context, customerID, actingUserID string) ([]models.Bill, error) {
	return s.list(ctx, actingUserID, store.Eq("customer_id", customerID))
}

// GenerateNextBillNumber previews the number the caller's next bill would get:
// the suffix of the newest bill in the caller's scope plus one. Admins see the
// global scope. Two callers may be shown the same number; Create allocates
// through a sequence and does not rely on this value.
func (s *BillService) GenerateNextBillNumber(ctx context.Context, actingUserID string) (string, error) {
	actor, err := policy.ActorFor(ctx, s.roles, actingUserID)
	if err != nil {
		return "", err
	}
	last, err := s.floor(ctx, actor)
	if err != nil {
		return "", err
	}
	return billing.FormatNumber(s.prefix, last+1), nil
}

// GenerateNextBillNumberForOwner previews ownerID's private sequence, even
// when ownerID is an admin. Only ownerID itself or an admin may ask.
func (s *BillService) GenerateNextBillNumberForOwner(ctx context.Context, ownerID, actingUserID string) (string, error) {
	actor, err := policy.ActorFor(ctx, s.roles, actingUserID)
	if err != nil {
		return "", err
	}
	if ownerID == "" || (!actor.IsAdmin && ownerID != actor.ID) {
		return "", ErrUnauthorized
	}
	last, err := s.lastNumber(ctx, []store.Filter{store.Eq("created_by", ownerID)})
	if err != nil {
		return "", err
	}
	return billing.FormatNumber(s.prefix, last+1), nil
}

func (s *BillService) lastNumber(ctx context.Context, filters []store.Filter) (int, error) {
	newest, err := s.docs.First(ctx, filters, store.NewestFirst)
	if err != nil {
		return 0, fmt.Errorf("find last bill number: %w", err)
	}
	if newest == nil {
		return 0, nil
	}
	return billing.ParseNumber(newest.BillNumber), nil
}

func sequenceScope(actor policy.Actor) string {
	if actor.IsAdmin {
		return models.ScopeAll
	}
	return actor.ID
}

// allocate hands out the next number in actor's scope. The increment is a
// single UPDATE, so concurrent creators are serialized on the sequence row.
// A missing row is seeded from floor; a row that has fallen behind it is
// moved past it.
func (s *BillService) allocate(ctx context.Context, actor policy.Actor) (int, error) {
	scope := sequenceScope(actor)
	now := s.clock()

	bumped, err := s.bump(ctx, scope, now)
	if err != nil {
		return 0, err
	}
	last, err := s.floor(ctx, actor)
	if err != nil {
		return 0, err
	}

	conn := database.Conn(ctx, s.db)
	if !bumped {
		seq := models.BillSequence{Scope: scope, LastValue: last + 1, UpdatedAt: now}
		err := conn.Transaction(func(tx *gorm.DB) error {
			return tx.Create(&seq).Error
		})
		if err == nil {
			return seq.LastValue, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return 0, fmt.Errorf("seed bill sequence %s: %w", scope, err)
		}
		// Someone else seeded the row first; take a number from it.
		if bumped, err = s.bump(ctx, scope, now); err != nil {
			return 0, err
		}
		if !bumped {
			return 0, fmt.Errorf("bill sequence %s: %w", scope, ErrConflict)
		}
	}

	var seq models.BillSequence
	if err := conn.Where("scope = ?", scope).Take(&seq).Error; err != nil {
		return 0, fmt.Errorf("read bill sequence %s: %w", scope, err)
	}
	if seq.LastValue > last {
		return seq.LastValue, nil
	}
	if err := conn.Model(&models.BillSequence{}).Where("scope = ?", scope).
		Updates(map[string]any{"last_value": last + 1, "updated_at": now}).Error; err != nil {
		return 0, fmt.Errorf("advance bill sequence %s: %w", scope, err)
	}
	return last + 1, nil
}

// floor is the highest number allocate must stay above: the newest bill in
// actor's scope and, for an admin, also the newest bill actor owns. A user
// promoted to admin keeps the numbers they issued before, and the shared scope
// must not hand them out again.
func (s *BillService) floor(ctx context.Context, actor policy.Actor) (int, error) {
	last, err := s.lastNumber(ctx, scopeFilters(actor))
	if err != nil || !actor.IsAdmin {
		return last, err
	}
	own, err := s.lastNumber(ctx, []store.Filter{store.Eq("created_by", actor.ID)})
	if err != nil {
		return 0, err
	}
	return max(last, own), nil
}

func (s *BillService) bump(ctx context.Context, scope string, now time.Time) (bool, error) {
	res := database.Conn(ctx, s.db).Model(&models.BillSequence{}).Where("scope = ?", scope).
		Updates(map[string]any{"last_value": gorm.Expr("last_value + 1"), "updated_at": now})
	if res.Error != nil {
		return false, fmt.Errorf("bump bill sequence %s: %w", scope, res.Error)
	}
	return res.RowsAffected > 0, nil
}
