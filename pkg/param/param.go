// Package param models the FHIR Parameters resource used to report
// FHIRPath evaluation output.
//
// A Parameter carries a name, at most one populated value[x] slot, an
// optional list of nested parts and an optional list of extensions. The
// extensions are used as a side channel for the resource path a value
// came from and for a JSON rendering of values that fit no typed slot.
package param

import (
	gojson "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Extension URLs and code systems used in evaluation output.
const (
	// ResourcePathURL annotates a value with the field path it was read from.
	ResourcePathURL = "http://fhir.forms-lab.com/StructureDefinition/resource-path"

	// JSONValueURL carries a JSON rendering of a value with no typed slot.
	JSONValueURL = "http://fhir.forms-lab.com/StructureDefinition/json-value"

	// UCUMSystem is the units-of-measure code system.
	UCUMSystem = "http://unitsofmeasure.org"

	// CalendarUnitsSystem is the FHIRPath calendar duration code system.
	CalendarUnitsSystem = "http://hl7.org/fhirpath/CodeSystem/calendar-units"
)

// ResourceTypeParameters is the resourceType of a Parameters resource.
const ResourceTypeParameters = "Parameters"

// Parameters is a FHIR Parameters resource.
type Parameters struct {
	ResourceType string       `json:"resourceType"`
	Parameter    []*Parameter `json:"parameter,omitempty"`
}

// NewParameters creates an empty Parameters resource.
func NewParameters() *Parameters {
	return &Parameters{ResourceType: ResourceTypeParameters}
}

// Add appends a top-level parameter and returns it.
func (p *Parameters) Add(param *Parameter) *Parameter {
	p.Parameter = append(p.Parameter, param)
	return param
}

// Get returns the first top-level parameter with the given name, or nil.
func (p *Parameters) Get(name string) *Parameter {
	if p == nil {
		return nil
	}
	for _, param := range p.Parameter {
		if param.Name == name {
			return param
		}
	}
	return nil
}

// MarshalIndent renders the resource as indented JSON.
func (p *Parameters) MarshalIndent() ([]byte, error) {
	return gojson.MarshalIndent(p, "", "  ")
}

// Parameter is one entry of Parameters.parameter or of a nested part.
type Parameter struct {
	Name      string      `json:"name"`
	Extension []Extension `json:"extension,omitempty"`

	ValueString    *string    `json:"valueString,omitempty"`
	ValueBoolean   *bool      `json:"valueBoolean,omitempty"`
	ValueCode      *string    `json:"valueCode,omitempty"`
	ValueDate      *string    `json:"valueDate,omitempty"`
	ValueInstant   *string    `json:"valueInstant,omitempty"`
	ValueDateTime  *string    `json:"valueDateTime,omitempty"`
	ValueTime      *string    `json:"valueTime,omitempty"`
	ValueInteger   *int64     `json:"valueInteger,omitempty"`
	ValueDecimal   *Decimal   `json:"valueDecimal,omitempty"`
	ValueQuantity  *Quantity  `json:"valueQuantity,omitempty"`
	ValueHumanName *HumanName `json:"valueHumanName,omitempty"`

	Part []*Parameter `json:"part,omitempty"`
}

// New creates a parameter with only a name.
func New(name string) *Parameter {
	return &Parameter{Name: name}
}

// String creates a parameter carrying valueString.
func String(name, value string) *Parameter {
	return &Parameter{Name: name, ValueString: &value}
}

// Integer creates a parameter carrying valueInteger.
func Integer(name string, value int64) *Parameter {
	return &Parameter{Name: name, ValueInteger: &value}
}

// AddPart appends a nested parameter and returns it.
func (p *Parameter) AddPart(part *Parameter) *Parameter {
	p.Part = append(p.Part, part)
	return part
}

// AddExtension appends a string-valued extension.
func (p *Parameter) AddExtension(url, value string) {
	p.Extension = append(p.Extension, Extension{URL: url, ValueString: &value})
}

// ExtensionValue returns the valueString of the first extension with url.
func (p *Parameter) ExtensionValue(url string) (string, bool) {
	for _, ext := range p.Extension {
		if ext.URL == url && ext.ValueString != nil {
			return *ext.ValueString, true
		}
	}
	return "", false
}

// ClearValue resets every value[x] slot.
func (p *Parameter) ClearValue() {
	p.ValueString = nil
	p.ValueBoolean = nil
	p.ValueCode = nil
	p.ValueDate = nil
	p.ValueInstant = nil
	p.ValueDateTime = nil
	p.ValueTime = nil
	p.ValueInteger = nil
	p.ValueDecimal = nil
	p.ValueQuantity = nil
	p.ValueHumanName = nil
}

// SlotCount returns how many value[x] slots are populated.
func (p *Parameter) SlotCount() int {
	n := 0
	for _, set := range []bool{
		p.ValueString != nil,
		p.ValueBoolean != nil,
		p.ValueCode != nil,
		p.ValueDate != nil,
		p.ValueInstant != nil,
		p.ValueDateTime != nil,
		p.ValueTime != nil,
		p.ValueInteger != nil,
		p.ValueDecimal != nil,
		p.ValueQuantity != nil,
		p.ValueHumanName != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// HasValue reports whether any value[x] slot is populated.
func (p *Parameter) HasValue() bool {
	return p.SlotCount() > 0
}

// Walk calls fn for p and every nested part, depth first.
func (p *Parameter) Walk(fn func(*Parameter)) {
	fn(p)
	for _, part := range p.Part {
		part.Walk(fn)
	}
}

// Extension is a FHIR extension carrying a string value.
type Extension struct {
	URL         string  `json:"url"`
	ValueString *string `json:"valueString,omitempty"`
}

// Quantity is the FHIR Quantity datatype.
type Quantity struct {
	Value  *Decimal `json:"value,omitempty"`
	Unit   string   `json:"unit,omitempty"`
	System string   `json:"system,omitempty"`
	Code   string   `json:"code,omitempty"`
}

// HumanName is the FHIR HumanName datatype.
type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Text   string   `json:"text,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
	Prefix []string `json:"prefix,omitempty"`
	Suffix []string `json:"suffix,omitempty"`
}

// Decimal is a FHIR decimal. It is rendered as a bare JSON number so the
// original precision survives serialization.
type Decimal struct {
	decimal.Decimal
}

// NewDecimal wraps d.
func NewDecimal(d decimal.Decimal) *Decimal {
	return &Decimal{Decimal: d}
}

// MarshalJSON implements json.Marshaler.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(d.String()), nil
}
