package classify

import (
	"math/big"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofhir/fhirpathlab/pkg/param"
)

func TestClassify_FHIRTypes(t *testing.T) {
	tests := []struct {
		name  string
		value *Item
		check func(t *testing.T, p *param.Parameter)
	}{
		{
			name:  "string",
			value: &Item{FHIRNodeType: "string", Raw: "Peter"},
			check: func(t *testing.T, p *param.Parameter) {
				require.NotNil(t, p.ValueString)
				assert.Equal(t, "Peter", *p.ValueString)
			},
		},
		{
			name:  "boolean",
			value: &Item{FHIRNodeType: "boolean", Raw: true},
			check: func(t *testing.T, p *param.Parameter) {
				require.NotNil(t, p.ValueBoolean)
				assert.True(t, *p.ValueBoolean)
			},
		},
		{
			name:  "code",
			value: &Item{FHIRNodeType: "code", Raw: "official"},
			check: func(t *testing.T, p *param.Parameter) {
				require.NotNil(t, p.ValueCode)
				assert.Equal(t, "official", *p.ValueCode)
			},
		},
		{
			name:  "dateTime",
			value: &Item{FHIRNodeType: "dateTime", Raw: "2024-01-01T10:00:00Z"},
			check: func(t *testing.T, p *param.Parameter) {
				require.NotNil(t, p.ValueDateTime)
				assert.Equal(t, "2024-01-01T10:00:00Z", *p.ValueDateTime)
			},
		},
		{
			name:  "integer from JSON number",
			value: &Item{FHIRNodeType: "integer", Raw: gojson.Number("42")},
			check: func(t *testing.T, p *param.Parameter) {
				require.NotNil(t, p.ValueInteger)
				assert.Equal(t, int64(42), *p.ValueInteger)
			},
		},
		{
			name:  "decimal",
			value: &Item{FHIRNodeType: "decimal", Raw: gojson.Number("1.50")},
			check: func(t *testing.T, p *param.Parameter) {
				require.NotNil(t, p.ValueDecimal)
				assert.Equal(t, "1.5", p.ValueDecimal.String())
			},
		},
		{
			name:  "Quantity",
			value: &Item{FHIRNodeType: "Quantity", Raw: map[string]any{"value": gojson.Number("5"), "unit": "mg", "system": param.UCUMSystem, "code": "mg"}},
			check: func(t *testing.T, p *param.Parameter) {
				require.NotNil(t, p.ValueQuantity)
				assert.Equal(t, "mg", p.ValueQuantity.Code)
				assert.Equal(t, "5", p.ValueQuantity.Value.String())
			},
		},
		{
			name:  "HumanName",
			value: &Item{FHIRNodeType: "HumanName", Raw: map[string]any{"family": "Chalmers", "given": []any{"Peter", "James"}}},
			check: func(t *testing.T, p *param.Parameter) {
				require.NotNil(t, p.ValueHumanName)
				assert.Equal(t, "Chalmers", p.ValueHumanName.Family)
				assert.Equal(t, []string{"Peter", "James"}, p.ValueHumanName.Given)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Classify(tt.value, true)
			assert.Equal(t, tt.value.FHIRNodeType, p.Name)
			assert.Equal(t, 1, p.SlotCount())
			tt.check(t, p)
		})
	}
}

func TestClassify_ValueTypes(t *testing.T) {
	tests := []struct {
		name     string
		value    *Item
		wantName string
		check    func(t *testing.T, p *param.Parameter)
	}{
		{
			name:     "String",
			value:    &Item{Type: "String", Raw: "abc"},
			wantName: "String",
			check: func(t *testing.T, p *param.Parameter) {
				assert.Equal(t, "abc", *p.ValueString)
			},
		},
		{
			name:     "Boolean",
			value:    &Item{Type: "Boolean", Raw: "true"},
			wantName: "Boolean",
			check: func(t *testing.T, p *param.Parameter) {
				assert.True(t, *p.ValueBoolean)
			},
		},
		{
			name:     "Date renamed",
			value:    &Item{Type: "Date", Raw: "2024-03-01"},
			wantName: NameDate,
			check: func(t *testing.T, p *param.Parameter) {
				assert.Equal(t, "2024-03-01", *p.ValueDate)
			},
		},
		{
			name:     "Integer renamed",
			value:    &Item{Type: "Integer", Raw: 7},
			wantName: NameInteger,
			check: func(t *testing.T, p *param.Parameter) {
				assert.Equal(t, int64(7), *p.ValueInteger)
			},
		},
		{
			name:     "Long keeps 64-bit range",
			value:    &Item{Type: "Long", Raw: "9007199254740993n"},
			wantName: NameInteger,
			check: func(t *testing.T, p *param.Parameter) {
				assert.Equal(t, int64(9007199254740993), *p.ValueInteger)
			},
		},
		{
			name:     "Number integral",
			value:    &Item{Type: "Number", Raw: gojson.Number("3")},
			wantName: NameInteger,
			check: func(t *testing.T, p *param.Parameter) {
				assert.Equal(t, int64(3), *p.ValueInteger)
			},
		},
		{
			name:     "Number with fraction marker",
			value:    &Item{Type: "Number", Raw: gojson.Number("3.0")},
			wantName: NameDecimal,
			check: func(t *testing.T, p *param.Parameter) {
				require.NotNil(t, p.ValueDecimal)
				assert.True(t, p.ValueDecimal.Equal(decimal.NewFromInt(3)))
			},
		},
		{
			name:     "Number fractional",
			value:    &Item{Type: "Number", Raw: 2.5},
			wantName: NameDecimal,
			check: func(t *testing.T, p *param.Parameter) {
				assert.Equal(t, "2.5", p.ValueDecimal.String())
			},
		},
		{
			name:     "Quantity from scalar",
			value:    &Item{Type: "Quantity", Primitive: Quantity{Value: decimal.NewFromInt(4), Unit: "weeks"}},
			wantName: NameQuantity,
			check: func(t *testing.T, p *param.Parameter) {
				assert.Equal(t, param.CalendarUnitsSystem, p.ValueQuantity.System)
				assert.Equal(t, "weeks", p.ValueQuantity.Code)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Classify(tt.value, true)
			assert.Equal(t, tt.wantName, p.Name)
			assert.Equal(t, 1, p.SlotCount())
			tt.check(t, p)
		})
	}
}

func TestClassify_Scalars(t *testing.T) {
	tests := []struct {
		scalar   Scalar
		wantName string
	}{
		{Instant{Text: "2024-01-01T00:00:00.000Z"}, NameInstant},
		{Date{Text: "2024-01-01"}, NameDate},
		{DateTime{Text: "2024-01-01T10:00"}, NameDateTime},
		{Time{Text: "10:00:00"}, NameTime},
		{Quantity{Value: decimal.NewFromInt(1), Unit: "'mg'"}, NameQuantity},
	}
	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			p := Classify(&Item{Primitive: tt.scalar}, true)
			assert.Equal(t, tt.wantName, p.Name)
			assert.Equal(t, 1, p.SlotCount())
		})
	}
}

func TestClassify_FullFidelityFallback(t *testing.T) {
	v := &Item{FHIRNodeType: "Narrative", Raw: map[string]any{"status": "generated"}}

	p := Classify(v, true)

	assert.Equal(t, "Narrative", p.Name)
	assert.Equal(t, 0, p.SlotCount())
	require.Len(t, p.Extension, 1)
	text, ok := p.ExtensionValue(param.JSONValueURL)
	require.True(t, ok)
	assert.JSONEq(t, `{"status": "generated"}`, text)
}

func TestClassify_FieldPathFallback(t *testing.T) {
	v := &Item{FHIRNodeType: "Narrative", Path: "Patient.text", Raw: map[string]any{"status": "generated"}}

	p := Classify(v, false)

	assert.Equal(t, NameResourcePath, p.Name)
	require.NotNil(t, p.ValueString)
	assert.Equal(t, "Patient.text", *p.ValueString)
	assert.Empty(t, p.Extension)
	assert.Equal(t, 1, p.SlotCount())
}

func TestClassify_UnresolvedWithoutPath(t *testing.T) {
	p := Classify(&Item{Type: "Object", Raw: []any{1}}, false)

	assert.Equal(t, "Object", p.Name)
	assert.Equal(t, 0, p.SlotCount())
	assert.Empty(t, p.Extension)
}

func TestClassify_FieldPathExtension(t *testing.T) {
	p := Classify(&Item{FHIRNodeType: "string", Path: "Patient.name.given", Raw: "Peter"}, true)

	path, ok := p.ExtensionValue(param.ResourcePathURL)
	assert.True(t, ok)
	assert.Equal(t, "Patient.name.given", path)
}

func TestClassify_BadDataFallsThrough(t *testing.T) {
	// A decimal tag over non-numeric data leaves no slot set.
	p := Classify(&Item{FHIRNodeType: "decimal", Raw: "abc"}, true)
	assert.Equal(t, 0, p.SlotCount())
	_, ok := p.ExtensionValue(param.JSONValueURL)
	assert.True(t, ok)
}

func TestClassify_UnknownFHIRTagSkipsValueType(t *testing.T) {
	// The value tag is ignored once a FHIR tag is present; the scalar still
	// resolves the slot.
	v := &Item{FHIRNodeType: "Coding", Type: "String", Raw: "2024-01-01", Primitive: Date{Text: "2024-01-01"}}

	p := Classify(v, true)
	assert.Equal(t, NameDate, p.Name)
	require.NotNil(t, p.ValueDate)
	assert.Nil(t, p.ValueString)
	assert.Equal(t, 1, p.SlotCount())

	p = Classify(&Item{FHIRNodeType: "Coding", Type: "String", Raw: "x"}, true)
	assert.Equal(t, "Coding", p.Name)
	assert.Equal(t, 0, p.SlotCount())
	_, ok := p.ExtensionValue(param.JSONValueURL)
	assert.True(t, ok)
}

func TestClassify_BigIntegerFallback(t *testing.T) {
	n, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	p := Classify(&Item{Type: "BigInt", Raw: n}, true)

	text, ok := p.ExtensionValue(param.JSONValueURL)
	require.True(t, ok)
	assert.Equal(t, `"123456789012345678901234567890n"`, text)
}

func TestClassify_AtMostOneSlot(t *testing.T) {
	values := []Value{
		&Item{FHIRNodeType: "string", Raw: "x"},
		&Item{FHIRNodeType: "boolean", Raw: "false"},
		&Item{Type: "Number", Raw: 1.25},
		&Item{Type: "Date", Raw: "2020"},
		&Item{FHIRNodeType: "HumanName", Raw: map[string]any{"family": "X"}},
		&Item{Type: "Quantity", Raw: map[string]any{"value": 2, "unit": "'mg'"}},
		&Item{FHIRNodeType: "Period", Path: "Encounter.period", Raw: map[string]any{}},
		&Item{Raw: nil},
	}
	for _, full := range []bool{true, false} {
		for _, p := range ClassifyAll(values, full) {
			if n := p.SlotCount(); n > 1 {
				t.Errorf("Classify(%s, %v) set %d slots", p.Name, full, n)
			}
		}
	}
}

func TestUnitCoding(t *testing.T) {
	tests := []struct {
		unit   string
		system string
	}{
		{"mg", param.UCUMSystem},
		{"'mg'", param.UCUMSystem},
		{"year", param.CalendarUnitsSystem},
		{"'year'", param.CalendarUnitsSystem},
		{"weeks", param.CalendarUnitsSystem},
		{"'1'", param.UCUMSystem},
	}
	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			c := UnitCoding(tt.unit)
			require.NotNil(t, c.System)
			require.NotNil(t, c.Code)
			assert.Equal(t, tt.system, *c.System)
			assert.Equal(t, tt.unit, *c.Code)
		})
	}
}

func TestResolveQuantity(t *testing.T) {
	q := ResolveQuantity(Quantity{Value: decimal.RequireFromString("0.50"), Unit: "mg"})

	assert.Equal(t, "mg", q.Unit)
	assert.Equal(t, "mg", q.Code)
	assert.Equal(t, param.UCUMSystem, q.System)
	b, err := gojson.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value": 0.5, "unit": "mg", "system": "http://unitsofmeasure.org", "code": "mg"}`, string(b))
}
