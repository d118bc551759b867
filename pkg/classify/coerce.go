package classify

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

func toText(data any) (string, bool) {
	switch t := data.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case fmt.Stringer:
		return t.String(), true
	case map[string]any, []any:
		return "", false
	}
	s, err := cast.ToStringE(data)
	if err != nil {
		return "", false
	}
	return s, true
}

func toBool(data any) bool {
	if b, ok := data.(bool); ok {
		return b
	}
	return cast.ToBool(data)
}

func toInteger(data any) (int64, bool) {
	switch t := data.(type) {
	case decimal.Decimal:
		if !t.IsInteger() || !t.BigInt().IsInt64() {
			return 0, false
		}
		return t.IntPart(), true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
	case gojson.Number:
		return longInteger(string(t))
	}
	n, err := cast.ToInt64E(data)
	if err != nil {
		return 0, false
	}
	return n, true
}

// longInteger converts a value through its string form, which keeps the
// full 64-bit range that a float64 round trip would lose.
func longInteger(data any) (int64, bool) {
	s, ok := toText(data)
	if !ok {
		return 0, false
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "n")
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() || !d.BigInt().IsInt64() {
		return 0, false
	}
	return d.IntPart(), true
}

func toDecimal(data any) (decimal.Decimal, bool) {
	switch t := data.(type) {
	case decimal.Decimal:
		return t, true
	case *decimal.Decimal:
		if t == nil {
			return decimal.Decimal{}, false
		}
		return *t, true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(t), true
	case float32:
		return decimal.NewFromFloat32(t), true
	case bool, nil:
		return decimal.Decimal{}, false
	}
	s, ok := toText(data)
	if !ok {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// hasFractionMarker reports whether the textual form of a number contains
// a decimal point.
func hasFractionMarker(data any) bool {
	switch t := data.(type) {
	case float64:
		return strings.Contains(strconv.FormatFloat(t, 'f', -1, 64), ".")
	case float32:
		return strings.Contains(strconv.FormatFloat(float64(t), 'f', -1, 32), ".")
	case decimal.Decimal:
		return t.Exponent() < 0
	}
	s, ok := toText(data)
	return ok && strings.Contains(s, ".")
}

// decodeInto converts structured data into out through a JSON round trip.
func decodeInto(data any, out any) bool {
	var raw []byte
	switch t := data.(type) {
	case nil:
		return false
	case []byte:
		raw = t
	case string:
		raw = []byte(t)
	case gojson.RawMessage:
		raw = t
	default:
		b, err := gojson.Marshal(data)
		if err != nil {
			return false
		}
		raw = b
	}
	return gojson.Unmarshal(raw, out) == nil
}

// quantityOf extracts a quantity from the value's scalar or from a
// {"value": ..., "unit": ...} object in its data.
func quantityOf(v Value) (Quantity, bool) {
	if q, ok := v.Scalar().(Quantity); ok {
		return q, true
	}
	switch t := v.Data().(type) {
	case Quantity:
		return t, true
	case *Quantity:
		if t != nil {
			return *t, true
		}
		return Quantity{}, false
	}
	var raw struct {
		Value gojson.Number `json:"value"`
		Unit  string        `json:"unit"`
	}
	if !decodeInto(v.Data(), &raw) || raw.Value == "" {
		return Quantity{}, false
	}
	d, err := decimal.NewFromString(string(raw.Value))
	if err != nil {
		return Quantity{}, false
	}
	return Quantity{Value: d, Unit: raw.Unit}, true
}
