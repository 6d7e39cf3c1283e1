package payment

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Provider represents the external payment provider
type Provider string

const (
	ProviderStripe Provider = "stripe"
	ProviderPayPal Provider = "paypal"
)

// ParseProvider normalizes a provider selector. The second value is false for unknown providers.
func ParseProvider(s string) (Provider, bool) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ProviderStripe, ProviderPayPal:
		return p, true
	default:
		return p, false
	}
}

// Operation names a unified gateway call.
type Operation string

const (
	OpCreatePaymentIntent  Operation = "create_payment_intent"
	OpCapturePaymentIntent Operation = "capture_payment_intent"
	OpRefundPayment        Operation = "refund_payment"
	OpCreateSubscription   Operation = "create_subscription"
	OpCancelSubscription   Operation = "cancel_subscription"

	// PayPal only.
	OpExecutePaymentIntent Operation = "execute_payment_intent"
	OpListDisputes         Operation = "list_disputes"
	OpGetDispute           Operation = "get_dispute"
	OpAcceptClaim          Operation = "accept_claim"
	OpRespondToDispute     Operation = "respond_to_dispute"
)

var hundred = decimal.NewFromInt(100)

// MinorToMajor converts an amount in minor units (e.g. cents) to a decimal
// string with two fractional digits, e.g. 1999 -> "19.99".
func MinorToMajor(minor decimal.Decimal) string {
	return minor.Div(hundred).StringFixed(2)
}

// Truncate cuts s to at most n characters (runes).
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
