package payment

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// maxExponent bounds the decimal exponent of parsed numbers so that scaling
// and formatting stay cheap.
const maxExponent = 18

var (
	maxMagnitude = decimal.New(1, 15)
	minInt64     = decimal.NewFromInt(math.MinInt64)
	maxInt64     = decimal.NewFromInt(math.MaxInt64)
)

// Fields is a generic, field-keyed request record supplied by callers
// (payment, refund and subscription data). Provider packages validate it
// and translate it into their own wire shape.
type Fields map[string]any

// Has reports whether key is present with a non-nil value.
func (f Fields) Has(key string) bool {
	v, ok := f[key]
	return ok && v != nil
}

// Lookup returns the raw value for key.
func (f Fields) Lookup(key string) (any, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns the value for key rendered as a string, or "" when absent.
func (f Fields) String(key string) string {
	v, ok := f.Lookup(key)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

// StringOr returns String(key), or def when key is absent.
func (f Fields) StringOr(key, def string) string {
	if !f.Has(key) {
		return def
	}
	return f.String(key)
}

// Map returns the nested record under key, or nil.
func (f Fields) Map(key string) Fields {
	v, ok := f.Lookup(key)
	if !ok {
		return nil
	}
	switch m := v.(type) {
	case Fields:
		return m
	case map[string]any:
		return Fields(m)
	case map[string]string:
		out := make(Fields, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out
	default:
		return nil
	}
}

// Slice returns the list under key, or nil.
func (f Fields) Slice(key string) []any {
	v, ok := f.Lookup(key)
	if !ok {
		return nil
	}
	switch s := v.(type) {
	case []any:
		return s
	case []Fields:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out
	case []map[string]any:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out
	default:
		return nil
	}
}

// Number parses the value under key as a decimal. Integers, floats,
// json.Number and numeric strings are accepted. Values above 1e15 in
// magnitude, or written with an exponent outside ±18, are rejected.
func (f Fields) Number(key string) (decimal.Decimal, bool) {
	v, ok := f.Lookup(key)
	if !ok {
		return decimal.Zero, false
	}
	d, ok := toDecimal(v)
	if !ok {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero, false
	}
	if d.Abs().GreaterThan(maxMagnitude) {
		return decimal.Zero, false
	}
	return d, true
}

// Int64 returns the value under key as an integer when it has no fractional
// part and fits in an int64.
func (f Fields) Int64(key string) (int64, bool) {
	d, ok := f.Number(key)
	if !ok || !d.IsInteger() {
		return 0, false
	}
	if d.LessThan(minInt64) || d.GreaterThan(maxInt64) {
		return 0, false
	}
	return d.IntPart(), true
}

// Bool returns the boolean under key. Strings "true"/"false" are accepted.
func (f Fields) Bool(key string) (bool, bool) {
	v, ok := f.Lookup(key)
	if !ok {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		return parsed, err == nil
	default:
		return false, false
	}
}

// StringMap returns the nested record under key with every value rendered as a string.
func (f Fields) StringMap(key string) map[string]string {
	m := f.Map(key)
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k := range m {
		out[k] = m.String(k)
	}
	return out
}

// AsFields converts a list element into a record, or nil.
func AsFields(v any) Fields {
	return Fields{"v": v}.Map("v")
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case uint:
		return decimal.NewFromUint64(uint64(n)), true
	case uint64:
		return decimal.NewFromUint64(n), true
	case float32:
		if !finite(float64(n)) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(n), true
	case float64:
		if !finite(n) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
