// Package payment holds the static payment instructions shown at checkout.
// No payment is ever processed.
package payment

import (
	"fmt"
	"strings"

	"le-palanka/internal/models"
	"le-palanka/internal/pricing"
)

const (
	PayBillNumber   = "123456"
	PayBillAccount  = "LE PALANKA"
	AssistancePhone = "+254 700 123 456"
)

// Methods lists the accepted payment methods in display order
var Methods = []models.PaymentMethod{
	models.PaymentMpesa,
	models.PaymentCard,
	models.PaymentCash,
}

// UnknownMethodError reports a method outside Methods
type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown payment method: %q", e.Method)
}

// Instructions is what the customer is told for one payment method
type Instructions struct {
	Method models.PaymentMethod `json:"method"`
	Title  string               `json:"title"`
	Steps  []string             `json:"steps,omitempty"`
	Notes  []string             `json:"notes"`
}

// ParseMethod normalizes s into a known payment method
func ParseMethod(s string) (models.PaymentMethod, error) {
	method := models.PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	for _, m := range Methods {
		if m == method {
			return m, nil
		}
	}
	return "", &UnknownMethodError{Method: s}
}

// DisplayName returns the label customers see for method
func DisplayName(method models.PaymentMethod) string {
	switch method {
	case models.PaymentMpesa:
		return "M-Pesa"
	case models.PaymentCard:
		return "Card"
	case models.PaymentCash:
		return "Cash"
	default:
		return string(method)
	}
}

// Lookup returns the instructions for method. A positive total is quoted
// as the amount to send over M-Pesa.
func Lookup(method string, total int64) (Instructions, error) {
	m, err := ParseMethod(method)
	if err != nil {
		return Instructions{}, err
	}

	switch m {
	case models.PaymentMpesa:
		amountStep := "Enter the amount you wish to pay"
		if total > 0 {
			amountStep = "Enter Amount: " + pricing.FormatAmount(total)
		}
		return Instructions{
			Method: m,
			Title:  "M-Pesa Payment Instructions",
			Steps: []string{
				"Go to M-Pesa on your phone",
				`Select "Lipa Na M-Pesa"`,
				`Select "Pay Bill"`,
				"Enter Business No: " + PayBillNumber,
				"Enter Account No: " + PayBillAccount,
				amountStep,
				"Enter your M-Pesa PIN",
				"You will receive a confirmation SMS",
				"Present the confirmation SMS at the restaurant",
			},
			Notes: []string{"For assistance, call " + AssistancePhone},
		}, nil

	case models.PaymentCard:
		return Instructions{
			Method: m,
			Title:  "Card Payment Information",
			Notes: []string{
				"We accept Visa, MasterCard, and American Express.",
				"All transactions are securely processed through our payment gateway with SSL encryption.",
				"Your card information is never stored on our servers.",
				"A temporary hold may be placed on your card for the estimated total. The final charge will be processed after your meal.",
			},
		}, nil

	default:
		return Instructions{
			Method: m,
			Title:  "Cash Payment",
			Notes: []string{
				"You can pay with cash at the restaurant.",
				"We accept Kenyan Shillings (KSH).",
				"For large groups or special events, please inform us in advance if you plan to pay with cash.",
				"We do not accept foreign currency. Please convert to KSH before your visit.",
			},
		}, nil
	}
}
