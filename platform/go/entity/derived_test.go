package entity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/money"
)

func TestSyncLineTotalIgnoresCallerValue(t *testing.T) {
	tests := []struct {
		name string
		in   LineItem
		want int64
	}{
		{name: "stale total", in: LineItem{Qty: 3, UnitPriceCents: 1250, LineTotalCents: 1}, want: 3750},
		{name: "missing total", in: LineItem{Qty: 1, UnitPriceCents: 999}, want: 999},
		{name: "free item", in: LineItem{Qty: 5, UnitPriceCents: 0, LineTotalCents: 500}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SyncLineTotal(tt.in)
			require.Equal(t, tt.want, got.LineTotalCents)
			require.Equal(t, tt.in.Qty, got.Qty)
		})
	}
}

func TestValidateLineItem(t *testing.T) {
	require.NoError(t, ValidateLineItem(LineItem{Qty: 1, UnitPriceCents: 0}))

	err := ValidateLineItem(LineItem{Qty: 0, UnitPriceCents: -1})
	require.ErrorIs(t, err, apperr.ErrInvalidInput)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	require.Contains(t, appErr.Fields, "qty")
	require.Contains(t, appErr.Fields, "unit_price_cents")
}

func TestValidateLineItemBoundsLineTotal(t *testing.T) {
	tests := []struct {
		name string
		in   LineItem
		ok   bool
	}{
		{name: "wraps to zero", in: LineItem{Qty: 1 << 32, UnitPriceCents: 1 << 32}},
		{name: "wraps negative", in: LineItem{Qty: 1 << 62, UnitPriceCents: 2}},
		{name: "one past the bound", in: LineItem{Qty: 2, UnitPriceCents: money.MaxAmount/2 + 1}},
		{name: "at the bound", in: LineItem{Qty: 1, UnitPriceCents: money.MaxAmount}, ok: true},
		{name: "huge qty, free item", in: LineItem{Qty: 1 << 62, UnitPriceCents: 0}, ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLineItem(tt.in)
			if tt.ok {
				require.NoError(t, err)
				got := SyncLineTotal(tt.in).LineTotalCents
				require.GreaterOrEqual(t, got, int64(0))
				require.LessOrEqual(t, got, money.MaxAmount)
				return
			}
			require.ErrorIs(t, err, apperr.ErrInvalidInput)
			var appErr *apperr.Error
			require.ErrorAs(t, err, &appErr)
			require.Contains(t, appErr.Fields, "qty")
		})
	}
}

func TestComputeTotals(t *testing.T) {
	items := []LineItem{
		{Qty: 2, UnitPriceCents: 1500, LineTotalCents: 7},
		{Qty: 1, UnitPriceCents: 4000},
	}

	got := ComputeTotals(items, 500, 130)
	require.Equal(t, Totals{SubtotalCents: 7000, DiscountCents: 500, TaxCents: 130, TotalCents: 6630}, got)

	// same inputs, same outputs
	require.Equal(t, got, ComputeTotals(items, 500, 130))

	require.Equal(t, Totals{}, ComputeTotals(nil, 0, 0))
}
