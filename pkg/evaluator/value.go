package evaluator

import (
	"bytes"
	"fmt"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/gofhir/fhirpath/types"
	"github.com/shopspring/decimal"

	"github.com/gofhir/fhirpathlab/pkg/classify"
)

// typed is implemented by fhirpath values that report their type name.
type typed interface {
	Type() string
}

// Wrap describes one evaluation result item as a classify.Value.
//
// Booleans keep their Go value. Values backed by a JSON object or array
// are resource nodes: their data is the decoded JSON and their type name
// doubles as the FHIR type tag, even when the evaluator inferred a name
// such as Quantity that is also a System type. Everything else is a
// system primitive carried in its textual form, with date/time and
// quantity values also decomposed into a classify.Scalar.
func Wrap(v any) classify.Value {
	item := &classify.Item{}
	if t, ok := v.(typed); ok {
		item.Type = systemType(t.Type())
	}

	if b, ok := v.(types.Boolean); ok {
		item.Type = "Boolean"
		item.Raw = b.Bool()
		return item
	}

	if node, ok := objectData(v); ok {
		item.Raw = node
		if t, ok := v.(typed); ok && t.Type() != "" && t.Type() != "Object" {
			item.FHIRNodeType = t.Type()
		}
		item.Type = ""
		return item
	}

	text := fmt.Sprint(v)
	item.Raw = text
	item.Primitive = scalarOf(item.Type, text)
	switch s := item.Primitive.(type) {
	case classify.Date:
		item.Raw = s.Text
	case classify.DateTime:
		item.Raw = s.Text
	case classify.Time:
		item.Raw = s.Text
	}
	return item
}

// jsonBacked is implemented by evaluator values that carry their source
// JSON, such as *types.ObjectValue.
type jsonBacked interface {
	Data() []byte
}

// objectData decodes the JSON behind v when it is an object or array.
func objectData(v any) (any, bool) {
	n, ok := v.(jsonBacked)
	if !ok {
		return nil, false
	}
	b := bytes.TrimSpace(n.Data())
	if len(b) == 0 || (b[0] != '{' && b[0] != '[') {
		return nil, false
	}
	dec := gojson.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, false
	}
	return out, true
}

var systemTypes = map[string]string{
	"boolean":  "Boolean",
	"string":   "String",
	"integer":  "Integer",
	"decimal":  "Decimal",
	"date":     "Date",
	"datetime": "DateTime",
	"time":     "Time",
	"quantity": "Quantity",
}

// systemType canonicalizes System type names, with or without the
// "System." namespace.
func systemType(name string) string {
	bare := strings.TrimPrefix(name, "System.")
	if canonical, ok := systemTypes[strings.ToLower(bare)]; ok {
		return canonical
	}
	return name
}

func scalarOf(typeName, text string) classify.Scalar {
	text = strings.TrimPrefix(text, "@")
	switch typeName {
	case "Date":
		return classify.Date{Text: text}
	case "DateTime":
		return classify.DateTime{Text: text}
	case "Time":
		return classify.Time{Text: strings.TrimPrefix(text, "T")}
	case "Quantity":
		if q, ok := ParseQuantity(text); ok {
			return q
		}
	}
	return nil
}

// ParseQuantity reads the textual form "<number> <unit>" of a quantity.
// The unit is kept as written, so UCUM units stay quoted. A bare number
// is a quantity with unit '1'.
func ParseQuantity(text string) (classify.Quantity, bool) {
	number, unit, _ := strings.Cut(strings.TrimSpace(text), " ")
	d, err := decimal.NewFromString(number)
	if err != nil {
		return classify.Quantity{}, false
	}
	unit = strings.TrimSpace(unit)
	if unit == "" {
		unit = "'1'"
	}
	return classify.Quantity{Value: d, Unit: unit}, true
}
