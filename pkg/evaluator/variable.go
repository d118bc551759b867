package evaluator

import (
	"bytes"
	"fmt"

	gojson "github.com/goccy/go-json"
	"github.com/gofhir/fhirpath/types"
)

// Variable types, named after the Parameters value[x] element the value
// was read from.
const (
	VarString   = "string"
	VarBoolean  = "boolean"
	VarInteger  = "integer"
	VarDecimal  = "decimal"
	VarDate     = "date"
	VarTime     = "time"
	VarDateTime = "dateTime"
	VarResource = "resource"
)

// Variable is an external constant made available to an expression as
// %name. Value holds the JSON form of the value. An empty Type infers the
// FHIRPath type from the JSON value itself.
type Variable struct {
	Type  string            `json:"type,omitempty"`
	Value gojson.RawMessage `json:"value"`
}

// Collection converts the variable to the evaluator's representation.
func (v Variable) Collection() (types.Collection, error) {
	raw := bytes.TrimSpace(v.Value)
	if len(raw) == 0 {
		return types.Collection{}, nil
	}

	switch v.Type {
	case "", VarResource:
		return types.JSONToCollection(raw)
	case VarString:
		var s string
		if err := gojson.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return types.Collection{types.NewString(s)}, nil
	case VarBoolean:
		var b bool
		if err := gojson.Unmarshal(raw, &b); err != nil {
			return nil, err
		}
		return types.Collection{types.NewBoolean(b)}, nil
	case VarInteger:
		var n int64
		if err := gojson.Unmarshal(raw, &n); err != nil {
			return nil, err
		}
		return types.Collection{types.NewInteger(n)}, nil
	case VarDecimal:
		d, err := types.NewDecimal(string(raw))
		if err != nil {
			return nil, err
		}
		return types.Collection{d}, nil
	case VarDate, VarTime, VarDateTime:
		var s string
		if err := gojson.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return temporal(v.Type, s)
	}
	return nil, fmt.Errorf("unsupported variable type %q", v.Type)
}

func temporal(kind, s string) (types.Collection, error) {
	var (
		value types.Value
		err   error
	)
	switch kind {
	case VarDate:
		value, err = types.NewDate(s)
	case VarTime:
		value, err = types.NewTime(s)
	default:
		value, err = types.NewDateTime(s)
	}
	if err != nil {
		return nil, err
	}
	return types.Collection{value}, nil
}
