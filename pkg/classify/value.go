// Package classify maps FHIRPath result values onto typed FHIR Parameters
// entries.
//
// Values are described through the small Value capability set rather than
// by inspecting concrete engine types: a value reports a FHIR type tag, a
// generic type tag, the field path it was read from, its raw data and,
// for date/time and quantity values, a decomposed Scalar.
package classify

import "github.com/shopspring/decimal"

// Value is a single item of an evaluation result.
type Value interface {
	// FHIRType is the FHIR datatype of a resource-backed node
	// ("string", "dateTime", "HumanName", ...), or "" when unknown.
	FHIRType() string

	// ValueType is the engine's generic type name ("String", "Number",
	// "Quantity", ...), or "" when unknown.
	ValueType() string

	// FieldPath is the dotted path in the source resource, or "".
	FieldPath() string

	// Data is the underlying data of the value.
	Data() any

	// Scalar is the decomposed typed scalar, or nil.
	Scalar() Scalar
}

// Scalar is a typed date/time or quantity value. The set of variants is
// closed: Instant, Date, DateTime, Time and Quantity.
type Scalar interface {
	scalar()
}

// Instant is an instant value in its textual form.
type Instant struct{ Text string }

// Date is a date value in its textual form.
type Date struct{ Text string }

// DateTime is a dateTime value in its textual form.
type DateTime struct{ Text string }

// Time is a time value in its textual form, without the leading "T".
type Time struct{ Text string }

// Quantity is a FHIRPath quantity. Unit is the unit token as written in
// the expression: calendar keywords are bare, UCUM units are quoted.
type Quantity struct {
	Value decimal.Decimal
	Unit  string
}

func (Instant) scalar()  {}
func (Date) scalar()     {}
func (DateTime) scalar() {}
func (Time) scalar()     {}
func (Quantity) scalar() {}

// Item is a general Value implementation for values that arrive already
// described, such as entries of a recorded debug trace.
type Item struct {
	FHIRNodeType string
	Type         string
	Path         string
	Raw          any
	Primitive    Scalar
}

// FHIRType implements Value.
func (i *Item) FHIRType() string { return i.FHIRNodeType }

// ValueType implements Value.
func (i *Item) ValueType() string { return i.Type }

// FieldPath implements Value.
func (i *Item) FieldPath() string { return i.Path }

// Data implements Value.
func (i *Item) Data() any { return i.Raw }

// Scalar implements Value.
func (i *Item) Scalar() Scalar { return i.Primitive }

var _ Value = (*Item)(nil)
