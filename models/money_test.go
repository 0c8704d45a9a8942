package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestAccrueFullDuration(t *testing.T) {
	// 5% over the full 30 days on $1000 is exactly $50.
	got := Accrue(d("1000"), d("5"), 30, 30)
	require.True(t, got.Equal(d("50.00")), "got %s", got)
}

func TestAccrueProRata(t *testing.T) {
	// 12 of 30 days elapsed: 1000 * 5% * 12/30 = 20.00
	got := Accrue(d("1000"), d("5"), 12, 30)
	require.True(t, got.Equal(d("20.00")), "got %s", got)
}

func TestAccrueRoundsHalfUp(t *testing.T) {
	// 1000 * 7% * 1/3 = 23.333... -> 23.33
	require.True(t, Accrue(d("1000"), d("7"), 1, 3).Equal(d("23.33")))
	// 1000 * 7% * 1/16 = 4.375 -> 4.38
	require.True(t, Accrue(d("1000"), d("7"), 1, 16).Equal(d("4.38")))
}

func TestAccrueNonPositiveDays(t *testing.T) {
	require.True(t, Accrue(d("1000"), d("5"), 0, 30).IsZero())
	require.True(t, Accrue(d("1000"), d("5"), -1, 30).IsZero())
	require.True(t, Accrue(d("1000"), d("5"), 10, 0).IsZero())
}

func TestAccrueTelescopingSum(t *testing.T) {
	// Crediting day-target deltas one day at a time must land exactly on the
	// lump-sum figure, with no drift from per-day rounding.
	principal, roi := d("1234.56"), d("7.25")
	days := 30

	total := Accrue(principal, roi, days, days)
	var sum decimal.Decimal
	prev := decimal.Zero
	for day := 1; day <= days; day++ {
		target := Accrue(principal, roi, day, days)
		sum = sum.Add(target.Sub(prev))
		prev = target
	}
	require.True(t, sum.Equal(total), "daily sum %s != lump sum %s", sum, total)
}

func TestMoneyFromString(t *testing.T) {
	v, err := MoneyFromString("100.505")
	require.NoError(t, err)
	require.True(t, v.Equal(d("100.51")))

	_, err = MoneyFromString("not-a-number")
	require.Error(t, err)
}

func TestFormatMoney(t *testing.T) {
	require.Equal(t, "50.00", FormatMoney(d("50")))
	require.Equal(t, "1050.25", FormatMoney(d("1050.25")))
}
