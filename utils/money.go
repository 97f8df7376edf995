package utils

import "github.com/shopspring/decimal"

// Round2 rounds x to 2 decimal places (half away from zero).
func Round2(x decimal.Decimal) decimal.Decimal {
	return x.Round(2)
}

// Money renders an amount with exactly two decimals, e.g. "1324.58".
func Money(x decimal.Decimal) string {
	return x.StringFixed(2)
}
