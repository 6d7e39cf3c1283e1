package payment_test

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in   string
		want payment.Provider
		ok   bool
	}{
		{"paypal", payment.ProviderPayPal, true},
		{" Stripe ", payment.ProviderStripe, true},
		{"bogus", payment.Provider("bogus"), false},
		{"", payment.Provider(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := payment.ParseProvider(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestMinorToMajor(t *testing.T) {
	tests := []struct {
		minor decimal.Decimal
		want  string
	}{
		{decimal.NewFromInt(1999), "19.99"},
		{decimal.NewFromInt(1), "0.01"},
		{decimal.NewFromInt(100000), "1000.00"},
		{decimal.RequireFromString("1999.5"), "20.00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, payment.MinorToMajor(tt.minor))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", payment.Truncate("abc", 127))
	assert.Len(t, payment.Truncate(strings.Repeat("x", 200), 127), 127)
	assert.Equal(t, "héll", payment.Truncate("héllo", 4))
}

func TestFields_Number(t *testing.T) {
	tests := []struct {
		name string
		v    any
		ok   bool
	}{
		{"int", 1999, true},
		{"int64", int64(1999), true},
		{"float", 19.5, true},
		{"json number", json.Number("1999"), true},
		{"numeric string", " 1999 ", true},
		{"non numeric string", "abc", false},
		{"empty string", "", false},
		{"bool", true, false},
		{"nan", math.NaN(), false},
		{"positive infinity", math.Inf(1), false},
		{"negative infinity float32", float32(math.Inf(-1)), false},
		{"huge exponent", json.Number("1e100000000"), false},
		{"tiny exponent", json.Number("1e-100000000"), false},
		{"above magnitude cap", json.Number("1000000000000001"), false},
		{"at magnitude cap", json.Number("1000000000000000"), true},
		{"beyond int64", json.Number("18446744073709551717"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := payment.Fields{"amount": tt.v}.Number("amount")
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestFields_Accessors(t *testing.T) {
	f := payment.Fields{
		"currency":   "usd",
		"nil":        nil,
		"subscriber": map[string]any{"email_address": "a@b.c"},
		"metadata":   map[string]any{"order": 42},
		"items":      []any{map[string]any{"name": "x"}},
		"amount":     json.Number("2500"),
		"capture":    "true",
	}

	assert.True(t, f.Has("currency"))
	assert.False(t, f.Has("nil"))
	assert.False(t, f.Has("missing"))
	assert.Equal(t, "usd", f.String("currency"))
	assert.Equal(t, "fallback", f.StringOr("missing", "fallback"))
	assert.Equal(t, "a@b.c", f.Map("subscriber").String("email_address"))
	assert.Nil(t, f.Map("currency"))
	assert.Equal(t, map[string]string{"order": "42"}, f.StringMap("metadata"))
	require.Len(t, f.Slice("items"), 1)
	assert.Equal(t, "x", payment.AsFields(f.Slice("items")[0]).String("name"))

	n, ok := f.Int64("amount")
	assert.True(t, ok)
	assert.Equal(t, int64(2500), n)

	b, ok := f.Bool("capture")
	assert.True(t, ok)
	assert.True(t, b)
}

func TestNewResponse(t *testing.T) {
	resp := payment.NewResponse(201, []byte(`{"id":"PAY-1","state":"created"}`))

	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "PAY-1", resp.ID())
	assert.Equal(t, "created", resp.Body["state"])

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"PAY-1","state":"created"}`, string(out))
}

func TestNewResponse_EmptyBody(t *testing.T) {
	resp := payment.NewResponse(204, nil)

	assert.Equal(t, 204, resp.StatusCode)
	assert.Nil(t, resp.Body)
	assert.Empty(t, resp.ID())

	out, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestFields_Int64_RejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		v    any
	}{
		{"wraps past uint64", json.Number("18446744073709551717")},
		{"max int64 plus one", json.Number("9223372036854775808")},
		{"fractional", json.Number("10.5")},
		{"nan", math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := payment.Fields{"amount": tt.v}.Int64("amount")
			assert.False(t, ok)
			assert.Zero(t, n)
		})
	}
}
