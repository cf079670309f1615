package payment

import (
	"errors"
	"strings"
	"testing"

	"le-palanka/internal/models"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		input   string
		want    models.PaymentMethod
		wantErr bool
	}{
		{"mpesa", models.PaymentMpesa, false},
		{" MPESA ", models.PaymentMpesa, false},
		{"card", models.PaymentCard, false},
		{"Cash", models.PaymentCash, false},
		{"", "", true},
		{"bitcoin", "", true},
		{"mpesa,card", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMethod(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMethod(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMethod(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLookupMpesaQuotesTotal(t *testing.T) {
	got, err := Lookup("mpesa", 3190)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}

	if got.Title != "M-Pesa Payment Instructions" {
		t.Errorf("Title = %q", got.Title)
	}
	joined := strings.Join(got.Steps, "\n")
	for _, want := range []string{"Business No: 123456", "Account No: LE PALANKA", "Enter Amount: KSH 3,190"} {
		if !strings.Contains(joined, want) {
			t.Errorf("steps missing %q:\n%s", want, joined)
		}
	}
	if len(got.Notes) != 1 || !strings.Contains(got.Notes[0], AssistancePhone) {
		t.Errorf("Notes = %v, want assistance phone", got.Notes)
	}
}

func TestLookupMpesaWithoutTotal(t *testing.T) {
	got, err := Lookup("mpesa", 0)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got.Steps[5] != "Enter the amount you wish to pay" {
		t.Errorf("amount step = %q", got.Steps[5])
	}
}

func TestLookupCardAndCash(t *testing.T) {
	card, err := Lookup("card", 0)
	if err != nil {
		t.Fatalf("Lookup(card) error = %v", err)
	}
	if !strings.Contains(card.Notes[0], "Visa, MasterCard, and American Express") {
		t.Errorf("card notes = %v", card.Notes)
	}

	cash, err := Lookup("cash", 0)
	if err != nil {
		t.Fatalf("Lookup(cash) error = %v", err)
	}
	if !strings.Contains(strings.Join(cash.Notes, " "), "do not accept foreign currency") {
		t.Errorf("cash notes = %v", cash.Notes)
	}
}

func TestLookupUnknownMethod(t *testing.T) {
	_, err := Lookup("cheque", 100)

	var umErr *UnknownMethodError
	if !errors.As(err, &umErr) {
		t.Fatalf("Lookup() error = %v, want UnknownMethodError", err)
	}
	if umErr.Method != "cheque" {
		t.Errorf("Method = %q, want cheque", umErr.Method)
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName(models.PaymentMpesa); got != "M-Pesa" {
		t.Errorf("DisplayName(mpesa) = %q", got)
	}
	if got := DisplayName("other"); got != "other" {
		t.Errorf("DisplayName(other) = %q", got)
	}
}
