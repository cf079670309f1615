package pricing

import (
	"testing"

	"le-palanka/internal/models"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name  string
		items []models.LineItem
		want  Totals
	}{
		{
			name:  "empty cart",
			items: nil,
			want:  Totals{},
		},
		{
			name: "mixed quantities",
			items: []models.LineItem{
				{Name: "Nyama Choma", UnitPrice: 1000, Quantity: 2},
				{Name: "Kachumbari", UnitPrice: 500, Quantity: 1},
			},
			want: Totals{Subtotal: 2500, ServiceCharge: 250, Tax: 440, Total: 3190},
		},
		{
			name: "several lines",
			items: []models.LineItem{
				{Name: "Grilled Tilapia", UnitPrice: 1800, Quantity: 1},
				{Name: "Passion Juice", UnitPrice: 350, Quantity: 3},
			},
			want: Totals{Subtotal: 2850, ServiceCharge: 285, Tax: 502, Total: 3637},
		},
		{
			name: "service charge half rounds up",
			items: []models.LineItem{
				{Name: "Mandazi", UnitPrice: 25, Quantity: 1},
			},
			want: Totals{Subtotal: 25, ServiceCharge: 3, Tax: 4, Total: 32},
		},
		{
			name: "free item",
			items: []models.LineItem{
				{Name: "Tap Water", UnitPrice: 0, Quantity: 4},
			},
			want: Totals{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Calculate(tt.items)
			if got != tt.want {
				t.Errorf("Calculate() = %+v, want %+v", got, tt.want)
			}
			if got.Total != got.Subtotal+got.ServiceCharge+got.Tax {
				t.Errorf("total %d is not the sum of its parts", got.Total)
			}
		})
	}
}

func TestRoundingIsIndependentPerCharge(t *testing.T) {
	// 15 * 0.10 = 1.5 -> 2; (15 + 2) * 0.16 = 2.72 -> 3
	if got := ServiceCharge(15); got != 2 {
		t.Errorf("ServiceCharge(15) = %d, want 2", got)
	}
	if got := Tax(15, 2); got != 3 {
		t.Errorf("Tax(15, 2) = %d, want 3", got)
	}
}

func TestServiceChargeRoundsHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		subtotal int64
		want     int64
	}{
		{5, 1},
		{4, 0},
		{-5, -1},
		{1234, 123},
		{1235, 124},
	}

	for _, tt := range tests {
		if got := ServiceCharge(tt.subtotal); got != tt.want {
			t.Errorf("ServiceCharge(%d) = %d, want %d", tt.subtotal, got, tt.want)
		}
	}
}

func TestCalculateAtMaxSubtotal(t *testing.T) {
	items := []models.LineItem{{Name: "Gold Platter", UnitPrice: MaxSubtotal, Quantity: 1}}

	got := Calculate(items)

	want := Totals{
		Subtotal:      4611686018427387903,
		ServiceCharge: 461168601842738790,
		Tax:           811656739243220271,
		Total:         5884511359513346964,
	}
	if got != want {
		t.Errorf("Calculate() = %+v, want %+v", got, want)
	}
}

func TestCanAdd(t *testing.T) {
	tests := []struct {
		name      string
		subtotal  int64
		unitPrice int64
		quantity  int
		want      bool
	}{
		{"small add", 2500, 1000, 1, true},
		{"free item at limit", MaxSubtotal, 0, 3, true},
		{"exactly reaches limit", MaxSubtotal - 10, 5, 2, true},
		{"one past limit", MaxSubtotal - 10, 11, 1, false},
		{"doubling half", MaxSubtotal/2 + 1, MaxSubtotal/2 + 1, 1, false},
		{"quantity multiplies past limit", 0, MaxSubtotal/2 + 1, 2, false},
		{"negative price", 0, -1, 1, false},
		{"subtotal already over", MaxSubtotal + 1, 0, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAdd(tt.subtotal, tt.unitPrice, tt.quantity); got != tt.want {
				t.Errorf("CanAdd(%d, %d, %d) = %v, want %v", tt.subtotal, tt.unitPrice, tt.quantity, got, tt.want)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "KSH 0"},
		{440, "KSH 440"},
		{3190, "KSH 3,190"},
		{1250000, "KSH 1,250,000"},
	}

	for _, tt := range tests {
		if got := FormatAmount(tt.amount); got != tt.want {
			t.Errorf("FormatAmount(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
