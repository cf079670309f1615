// Package pricing derives the order totals shown at checkout.
package pricing

import (
	"math"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"le-palanka/internal/models"
)

// Currency prefix used on every displayed amount
const Currency = "KSH"

// MaxSubtotal is the largest subtotal whose charges and total still fit in
// an int64. The total is about 1.276 times the subtotal.
const MaxSubtotal int64 = math.MaxInt64 / 2

var (
	serviceChargeRate = decimal.RequireFromString("0.10")
	taxRate           = decimal.RequireFromString("0.16")
)

// Totals is the checkout breakdown in whole currency units
type Totals struct {
	Subtotal      int64 `json:"subtotal"`
	ServiceCharge int64 `json:"service_charge"`
	Tax           int64 `json:"tax"`
	Total         int64 `json:"total"`
}

// Subtotal sums unit price times quantity over items
func Subtotal(items []models.LineItem) int64 {
	var sum int64
	for _, item := range items {
		sum += item.LineTotal()
	}
	return sum
}

// ServiceCharge is ten percent of subtotal, rounded half away from zero
func ServiceCharge(subtotal int64) int64 {
	return percentOf(subtotal, serviceChargeRate)
}

// Tax is sixteen percent of subtotal plus service charge, rounded half away from zero
func Tax(subtotal, serviceCharge int64) int64 {
	return percentOf(subtotal+serviceCharge, taxRate)
}

// Calculate returns the full breakdown for items. An empty cart is all zeros.
func Calculate(items []models.LineItem) Totals {
	subtotal := Subtotal(items)
	serviceCharge := ServiceCharge(subtotal)
	tax := Tax(subtotal, serviceCharge)

	return Totals{
		Subtotal:      subtotal,
		ServiceCharge: serviceCharge,
		Tax:           tax,
		Total:         subtotal + serviceCharge + tax,
	}
}

// CanAdd reports whether quantity more units at unitPrice keep subtotal
// within MaxSubtotal
func CanAdd(subtotal, unitPrice int64, quantity int) bool {
	if subtotal < 0 || subtotal > MaxSubtotal || unitPrice < 0 || quantity < 0 {
		return false
	}
	if unitPrice == 0 || quantity == 0 {
		return true
	}
	return unitPrice <= (MaxSubtotal-subtotal)/int64(quantity)
}

func percentOf(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
}

// FormatAmount renders an amount with thousands separators, e.g. "KSH 3,190"
func FormatAmount(amount int64) string {
	return Currency + " " + humanize.Comma(amount)
}
