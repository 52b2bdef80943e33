package entity

import (
	"github.com/zenGate-Global/palmyra-gym/platform/go/apperr"
	"github.com/zenGate-Global/palmyra-gym/platform/go/money"
)

// LineItem is the shared shape of invoice and point-of-sale items.
type LineItem struct {
	Description    string
	Qty            int64
	UnitPriceCents int64
	LineTotalCents int64
}

// SyncLineTotal recomputes the line total from qty and unit price. Whatever
// the caller put in LineTotalCents is discarded. Items must have passed
// ValidateLineItem, which bounds the product by money.MaxAmount.
func SyncLineTotal(item LineItem) LineItem {
	item.LineTotalCents = item.Qty * item.UnitPriceCents
	return item
}

// ValidateLineItem rejects non-positive quantities, negative prices and
// lines whose total would exceed money.MaxAmount.
func ValidateLineItem(item LineItem) error {
	fields := apperr.FieldErrors{}
	if item.Qty <= 0 {
		fields.Add("qty", "must be greater than zero")
	}
	if item.UnitPriceCents < 0 {
		fields.Add("unit_price_cents", "must not be negative")
	}
	if item.Qty > 0 && item.UnitPriceCents > 0 && item.Qty > money.MaxAmount/item.UnitPriceCents {
		fields.Add("qty", "qty * unit_price_cents exceeds the maximum amount")
	}
	if len(fields) > 0 {
		return apperr.Invalid("invalid line item", fields)
	}
	return nil
}

// Totals are the aggregate columns of an invoice or sale.
type Totals struct {
	SubtotalCents int64
	DiscountCents int64
	TaxCents      int64
	TotalCents    int64
}

// ComputeTotals sums line totals and applies total = subtotal - discount + tax.
func ComputeTotals(items []LineItem, discountCents, taxCents int64) Totals {
	var subtotal int64
	for _, item := range items {
		subtotal += SyncLineTotal(item).LineTotalCents
	}
	return Totals{
		SubtotalCents: subtotal,
		DiscountCents: discountCents,
		TaxCents:      taxCents,
		TotalCents:    subtotal - discountCents + taxCents,
	}
}
