package classify

import (
	"github.com/gofhir/fhirpathlab/pkg/param"
)

// Parameter names used when a value is renamed to its canonical slot.
const (
	NameString       = "string"
	NameDate         = "date"
	NameDateTime     = "dateTime"
	NameTime         = "time"
	NameInstant      = "instant"
	NameInteger      = "integer"
	NameDecimal      = "decimal"
	NameQuantity     = "Quantity"
	NameResourcePath = "resource-path"
)

// Classify converts v into a Parameter with at most one value[x] slot set.
//
// The slot is chosen by the first rule that matches: the FHIR type tag,
// then the generic type tag, then the decomposed scalar. A value that no
// rule resolves is rendered as a JSON extension when full is true, or
// reduced to a "resource-path" reference when full is false and its field
// path is known.
//
// A known field path is always attached as a resource-path extension.
func Classify(v Value, full bool) *param.Parameter {
	p := param.New(initialName(v))
	path := v.FieldPath()
	if path != "" {
		p.AddExtension(param.ResourcePathURL, path)
	}

	if tag := v.FHIRType(); tag != "" {
		if fromFHIRType(p, tag, v) {
			return p
		}
	} else if tag := v.ValueType(); tag != "" {
		if fromValueType(p, tag, v) {
			return p
		}
	}

	if fromScalar(p, v.Scalar()) {
		return p
	}

	unresolved(p, v, full)
	return p
}

// ClassifyAll classifies each value in order.
func ClassifyAll(values []Value, full bool) []*param.Parameter {
	out := make([]*param.Parameter, 0, len(values))
	for _, v := range values {
		out = append(out, Classify(v, full))
	}
	return out
}

func initialName(v Value) string {
	if tag := v.FHIRType(); tag != "" {
		return tag
	}
	if tag := v.ValueType(); tag != "" {
		return tag
	}
	return NameString
}

func fromFHIRType(p *param.Parameter, tag string, v Value) bool {
	data := v.Data()
	switch tag {
	case "string", "System.String", "String":
		return setText(&p.ValueString, data)
	case "boolean":
		b := toBool(data)
		p.ValueBoolean = &b
		return true
	case "code":
		return setText(&p.ValueCode, data)
	case "date":
		return setText(&p.ValueDate, data)
	case "instant":
		return setText(&p.ValueInstant, data)
	case "dateTime":
		return setText(&p.ValueDateTime, data)
	case "time":
		return setText(&p.ValueTime, data)
	case "integer":
		n, ok := toInteger(data)
		if !ok {
			return false
		}
		p.ValueInteger = &n
		return true
	case "decimal":
		d, ok := toDecimal(data)
		if !ok {
			return false
		}
		p.ValueDecimal = param.NewDecimal(d)
		return true
	case "Quantity":
		var q param.Quantity
		if !decodeInto(data, &q) {
			return false
		}
		p.ValueQuantity = &q
		return true
	case "HumanName":
		var hn param.HumanName
		if !decodeInto(data, &hn) {
			return false
		}
		p.ValueHumanName = &hn
		return true
	}
	return false
}

func fromValueType(p *param.Parameter, tag string, v Value) bool {
	data := v.Data()
	switch tag {
	case "String":
		return setText(&p.ValueString, data)
	case "Boolean":
		b := toBool(data)
		p.ValueBoolean = &b
		return true
	case "date", "Date":
		return rename(p, NameDate, setText(&p.ValueDate, data))
	case "dateTime", "DateTime":
		return rename(p, NameDateTime, setText(&p.ValueDateTime, data))
	case "time", "Time":
		return rename(p, NameTime, setText(&p.ValueTime, data))
	case "instant", "Instant":
		return rename(p, NameInstant, setText(&p.ValueInstant, data))
	case "integer", "Integer":
		n, ok := toInteger(data)
		if ok {
			p.ValueInteger = &n
		}
		return rename(p, NameInteger, ok)
	case "decimal", "Decimal":
		d, ok := toDecimal(data)
		if ok {
			p.ValueDecimal = param.NewDecimal(d)
		}
		return rename(p, NameDecimal, ok)
	case "Long":
		n, ok := longInteger(data)
		if ok {
			p.ValueInteger = &n
		}
		return rename(p, NameInteger, ok)
	case "Number":
		return setNumber(p, data)
	case "Quantity":
		q, ok := quantityOf(v)
		if ok {
			p.ValueQuantity = ResolveQuantity(q)
		}
		return rename(p, NameQuantity, ok)
	}
	return false
}

func fromScalar(p *param.Parameter, s Scalar) bool {
	switch t := s.(type) {
	case Instant:
		p.ValueInstant = &t.Text
		p.Name = NameInstant
	case Date:
		p.ValueDate = &t.Text
		p.Name = NameDate
	case DateTime:
		p.ValueDateTime = &t.Text
		p.Name = NameDateTime
	case Time:
		p.ValueTime = &t.Text
		p.Name = NameTime
	case Quantity:
		p.ValueQuantity = ResolveQuantity(t)
		p.Name = NameQuantity
	default:
		return false
	}
	return true
}

// setNumber routes a generic number to valueInteger when it is integral,
// fits in 64 bits and its textual form has no fractional marker, else to
// valueDecimal.
func setNumber(p *param.Parameter, data any) bool {
	d, ok := toDecimal(data)
	if !ok {
		return false
	}
	if d.IsInteger() && !hasFractionMarker(data) && d.BigInt().IsInt64() {
		n := d.IntPart()
		p.ValueInteger = &n
		p.Name = NameInteger
		return true
	}
	p.ValueDecimal = param.NewDecimal(d)
	p.Name = NameDecimal
	return true
}

func unresolved(p *param.Parameter, v Value, full bool) {
	p.ClearValue()
	if full {
		p.AddExtension(param.JSONValueURL, param.Stringify(v.Data()))
		return
	}
	if path := v.FieldPath(); path != "" {
		p.Name = NameResourcePath
		p.ValueString = &path
		p.Extension = nil
	}
}

func rename(p *param.Parameter, name string, ok bool) bool {
	if ok {
		p.Name = name
	}
	return ok
}

func setText(slot **string, data any) bool {
	s, ok := toText(data)
	if !ok {
		return false
	}
	*slot = &s
	return true
}
