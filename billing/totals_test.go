package billing

import (
	"errors"
	"testing"

	"billweave-backend/models"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeTotals(t *testing.T) {
	items := []models.LineItem{
		{Name: "Shirt stitching", Quantity: 2, Price: dec("450")},
		{Name: "Cotton fabric", Quantity: 3, Price: dec("120.50")},
	}
	got := Compute(items, dec("5"), dec("500"))

	if !got.Subtotal.Equal(dec("1261.5")) {
		t.Fatalf("subtotal = %s, want 1261.5", got.Subtotal)
	}
	if !got.Tax.Equal(dec("63.075")) {
		t.Fatalf("tax = %s, want 63.075 (kept exact)", got.Tax)
	}
	if !got.Total.Equal(dec("1324.575")) {
		t.Fatalf("total = %s, want 1324.575", got.Total)
	}
	if !got.AmountDue.Equal(dec("824.575")) {
		t.Fatalf("amount due = %s, want 824.575", got.AmountDue)
	}
	if got.Tax.StringFixed(2) != "63.08" {
		t.Fatalf("display tax = %s, want 63.08", got.Tax.StringFixed(2))
	}
}

func TestComputeIgnoresSuppliedLineTotals(t *testing.T) {
	items := []models.LineItem{{Name: "Kurta", Quantity: 1, Price: dec("800"), Total: dec("1")}}
	got := Compute(items, decimal.Zero, decimal.Zero)
	if !got.Total.Equal(dec("800")) {
		t.Fatalf("total = %s, want 800", got.Total)
	}
}

func TestApplyRecomputesDerivedFields(t *testing.T) {
	bill := &models.Bill{
		Items:         []models.LineItem{{Name: "Blouse", Quantity: 2, Price: dec("300")}},
		TaxPercentage: dec("12"),
		AmountPaid:    dec("672"),
		Total:         dec("99999"),
		AmountDue:     dec("-5"),
	}
	Apply(bill)

	if !bill.Items[0].Total.Equal(dec("600")) {
		t.Fatalf("line total = %s", bill.Items[0].Total)
	}
	if !bill.Total.Equal(dec("672")) {
		t.Fatalf("total = %s, want 672", bill.Total)
	}
	if !bill.AmountDue.IsZero() {
		t.Fatalf("amount due = %s, want 0", bill.AmountDue)
	}
}

func TestValidate(t *testing.T) {
	good := []models.LineItem{{Name: "Alteration", Quantity: 1, Price: dec("0")}}
	if err := Validate(good, dec("0"), dec("0"), models.PaymentPending); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	cases := []struct {
		name   string
		items  []models.LineItem
		tax    decimal.Decimal
		paid   decimal.Decimal
		status models.PaymentStatus
		want   error
	}{
		{"no items", nil, dec("0"), dec("0"), models.PaymentPaid, ErrNoItems},
		{"zero quantity", []models.LineItem{{Name: "x", Quantity: 0, Price: dec("1")}}, dec("0"), dec("0"), models.PaymentPaid, ErrBadQuantity},
		{"negative price", []models.LineItem{{Name: "x", Quantity: 1, Price: dec("-1")}}, dec("0"), dec("0"), models.PaymentPaid, ErrNegativePrice},
		{"missing name", []models.LineItem{{Quantity: 1, Price: dec("1")}}, dec("0"), dec("0"), models.PaymentPaid, ErrMissingItemName},
		{"negative tax", good, dec("-1"), dec("0"), models.PaymentPaid, ErrNegativeTax},
		{"negative payment", good, dec("0"), dec("-1"), models.PaymentPaid, ErrNegativePayment},
		{"bad status", good, dec("0"), dec("0"), models.PaymentStatus("overdue"), ErrUnknownPayStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := Validate(tc.items, tc.tax, tc.paid, tc.status); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}
