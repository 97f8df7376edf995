// Package billing holds the bill arithmetic and the bill-number format. It is
// pure: nothing here touches the database.
package billing

import (
	"errors"
	"fmt"

	"billweave-backend/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

var (
	ErrNoItems          = errors.New("bill needs at least one item")
	ErrBadQuantity      = errors.New("item quantity must be a positive integer")
	ErrNegativePrice    = errors.New("item price must not be negative")
	ErrNegativeTax      = errors.New("tax percentage must not be negative")
	ErrNegativePayment  = errors.New("amount paid must not be negative")
	ErrMissingItemName  = errors.New("item name is required")
	ErrUnknownPayStatus = errors.New("unknown payment status")
)

// Totals are the derived money fields of a bill. Values are exact; rounding
// to two places happens only when they are displayed.
type Totals struct {
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
	AmountDue decimal.Decimal
}

// LineTotal is quantity × price.
func LineTotal(quantity int, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// PriceItems fills in Total on every item and returns them.
func PriceItems(items []models.LineItem) []models.LineItem {
	out := make([]models.LineItem, len(items))
	for i, it := range items {
		it.Total = LineTotal(it.Quantity, it.Price)
		out[i] = it
	}
	return out
}

// Compute derives subtotal, tax, total and amount due. Item totals are
// recomputed from quantity and price; any Total the caller supplied is ignored.
func Compute(items []models.LineItem, taxPercentage, amountPaid decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(LineTotal(it.Quantity, it.Price))
	}
	tax := subtotal.Mul(taxPercentage).Div(hundred)
	total := subtotal.Add(tax)
	return Totals{
		Subtotal:  subtotal,
		Tax:       tax,
		Total:     total,
		AmountDue: total.Sub(amountPaid),
	}
}

// Validate checks the inputs the totals are derived from.
func Validate(items []models.LineItem, taxPercentage, amountPaid decimal.Decimal, status models.PaymentStatus) error {
	if len(items) == 0 {
		return ErrNoItems
	}
	for i, it := range items {
		if it.Name == "" {
			return fmt.Errorf("item %d: %w", i, ErrMissingItemName)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("item %d: %w", i, ErrBadQuantity)
		}
		if it.Price.IsNegative() {
			return fmt.Errorf("item %d: %w", i, ErrNegativePrice)
		}
	}
	if taxPercentage.IsNegative() {
		return ErrNegativeTax
	}
	if amountPaid.IsNegative() {
		return ErrNegativePayment
	}
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPayStatus, status)
	}
	return nil
}

// Apply recomputes every derived field of bill from its inputs.
func Apply(bill *models.Bill) {
	bill.Items = PriceItems(bill.Items)
	t := Compute(bill.Items, bill.TaxPercentage, bill.AmountPaid)
	bill.Subtotal = t.Subtotal
	bill.Tax = t.Tax
	bill.Total = t.Total
	bill.AmountDue = t.AmountDue
}
