package models

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the fixed scale for every ledger-facing value. All wallet
// buckets and transaction amounts are stored as decimal(15,2); any arithmetic
// result is rounded half-up to this scale before it is persisted.
const MoneyScale = 2

var oneHundred = decimal.NewFromInt(100)

// RoundMoney rounds half-up at the ledger scale.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// MoneyFromString parses a decimal amount. Returns an error for anything that
// is not a valid decimal string; callers are expected to validate sign/range.
func MoneyFromString(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return RoundMoney(d), nil
}

// Accrue computes interest for elapsedDays of a position earning roiPercent
// over totalDurationDays, accrued linearly over the plan's own duration:
//
//	principal * (roiPercent / 100) * (elapsedDays / totalDurationDays)
//
// The result is rounded half-up at the ledger scale. Division is performed
// last and at high precision so repeated daily accruals stay within one minor
// unit of the lump-sum computation.
func Accrue(principal, roiPercent decimal.Decimal, elapsedDays, totalDurationDays int) decimal.Decimal {
	if elapsedDays <= 0 || totalDurationDays <= 0 {
		return decimal.Zero
	}
	total := principal.
		Mul(roiPercent).
		Mul(decimal.NewFromInt(int64(elapsedDays))).
		Div(oneHundred.Mul(decimal.NewFromInt(int64(totalDurationDays))))
	return RoundMoney(total)
}

// FormatMoney renders an amount at the ledger scale for API responses and
// notification bodies.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}
