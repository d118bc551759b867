package evaluator

import (
	"context"
	"strings"
	"testing"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/gofhir/fhirpath/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofhir/fhirpathlab/pkg/classify"
	"github.com/gofhir/fhirpathlab/pkg/param"
)

const patient = `{
  "resourceType": "Patient",
  "id": "example",
  "name": [{"family": "Chalmers", "given": ["Peter", "James"]}]
}`

type fakeValue struct {
	typ  string
	text string
}

func (f fakeValue) Type() string   { return f.typ }
func (f fakeValue) String() string { return f.text }

func TestEvaluator_Evaluate(t *testing.T) {
	e := New("", 8)
	assert.Equal(t, DefaultName, e.Name())

	values, err := e.Evaluate(context.Background(), "Patient.name.given", []byte(patient), nil)
	require.NoError(t, err)
	assert.Len(t, values, 2)

	_, err = e.Evaluate(context.Background(), "Patient.name.given", []byte(patient), nil)
	require.NoError(t, err)

	stats := e.CacheStats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, uint64(1), stats.Hits)
}

func TestEvaluator_CompileError(t *testing.T) {
	e := New("test", 8)
	_, err := e.Evaluate(context.Background(), "Patient.name.where(", []byte(patient), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile")
	assert.Equal(t, 0, e.CacheStats().Entries)
}

func TestEvaluator_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New("test", 8).Evaluate(ctx, "Patient.id", []byte(patient), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvaluator_ExpiredDeadline(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := New("test", 8).Evaluate(ctx, "Patient.name.where(family.exists())", []byte(patient), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "failed to evaluate")
}

func TestEvaluator_HumanName(t *testing.T) {
	values, err := New("", 8).Evaluate(context.Background(), "Patient.name", []byte(patient), nil)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "HumanName", values[0].FHIRType())
	assert.Empty(t, values[0].ValueType())

	p := classify.Classify(values[0], true)
	assert.Equal(t, "HumanName", p.Name)
	require.NotNil(t, p.ValueHumanName)
	assert.Equal(t, "Chalmers", p.ValueHumanName.Family)
	assert.Equal(t, []string{"Peter", "James"}, p.ValueHumanName.Given)
	assert.Equal(t, 1, p.SlotCount())
}

func TestEvaluator_Resource(t *testing.T) {
	values, err := New("", 8).Evaluate(context.Background(), "Patient", []byte(patient), nil)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "Patient", values[0].FHIRType())

	p := classify.Classify(values[0], true)
	assert.Equal(t, "Patient", p.Name)
	assert.Equal(t, 0, p.SlotCount())

	text, ok := p.ExtensionValue(param.JSONValueURL)
	require.True(t, ok)
	var decoded map[string]any
	require.NoError(t, gojson.Unmarshal([]byte(text), &decoded), "extension holds %q", text)
	assert.Equal(t, "example", decoded["id"])
}

func TestEvaluator_Variables(t *testing.T) {
	e := New("", 8)
	vars := map[string]Variable{
		"greeting": {Type: VarString, Value: []byte(`"hello"`)},
		"limit":    {Type: VarInteger, Value: []byte(`2`)},
		"born":     {Type: VarDate, Value: []byte(`"1974-12-25"`)},
		"other":    {Type: VarResource, Value: []byte(`{"resourceType":"Patient","id":"other"}`)},
		"a b":      {Value: []byte(`true`)},
	}

	tests := []struct {
		expression string
		want       string
	}{
		{"%greeting", "hello"},
		{"%limit + 1", "3"},
		{"%born", "1974-12-25"},
		{"%other.id", "other"},
		{"%`a b`", "true"},
		{"%resource.id", "example"},
		{"%rootResource.id", "example"},
	}
	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			values, err := e.Evaluate(context.Background(), tt.expression, []byte(patient), vars)
			require.NoError(t, err)
			require.Len(t, values, 1)
			if got := fmtData(values[0].Data()); got != tt.want {
				t.Errorf("Evaluate(%q) = %v; want %v", tt.expression, got, tt.want)
			}
		})
	}
}

func TestEvaluator_VariableErrors(t *testing.T) {
	e := New("", 8)

	_, err := e.Evaluate(context.Background(), "%v", []byte(patient), map[string]Variable{
		"v": {Type: VarDate, Value: []byte(`"not a date"`)},
	})
	assert.ErrorContains(t, err, "invalid variable %v")

	_, err = e.Evaluate(context.Background(), "%missing", []byte(patient), nil)
	assert.ErrorContains(t, err, "failed to evaluate")
}

func TestVariable_Collection(t *testing.T) {
	tests := []struct {
		name     string
		v        Variable
		wantType string
		wantErr  bool
	}{
		{"string", Variable{Type: VarString, Value: []byte(`"x"`)}, "String", false},
		{"boolean", Variable{Type: VarBoolean, Value: []byte(`false`)}, "Boolean", false},
		{"integer", Variable{Type: VarInteger, Value: []byte(`7`)}, "Integer", false},
		{"decimal", Variable{Type: VarDecimal, Value: []byte(`1.50`)}, "Decimal", false},
		{"time", Variable{Type: VarTime, Value: []byte(`"12:30:00"`)}, "Time", false},
		{"dateTime", Variable{Type: VarDateTime, Value: []byte(`"2024-03-01T10:00:00Z"`)}, "DateTime", false},
		{"inferred", Variable{Value: []byte(`"x"`)}, "String", false},
		{"integer mismatch", Variable{Type: VarInteger, Value: []byte(`"7"`)}, "", true},
		{"unknown type", Variable{Type: "Coding", Value: []byte(`{}`)}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, err := tt.v.Collection()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, col, 1)
			if got := col[0].Type(); got != tt.wantType {
				t.Errorf("Collection() type = %s; want %s", got, tt.wantType)
			}
		})
	}

	col, err := Variable{}.Collection()
	require.NoError(t, err)
	assert.Empty(t, col)
}

func fmtData(data any) string {
	switch d := data.(type) {
	case string:
		return strings.TrimPrefix(d, "@")
	case bool:
		if d {
			return "true"
		}
		return "false"
	}
	return ""
}

func TestWrap_Date(t *testing.T) {
	v := Wrap(fakeValue{typ: "System.Date", text: "@2024-03-01"})
	assert.Equal(t, "Date", v.ValueType())
	assert.Equal(t, classify.Date{Text: "2024-03-01"}, v.Scalar())

	p := classify.Classify(v, true)
	assert.Equal(t, classify.NameDate, p.Name)
	require.NotNil(t, p.ValueDate)
	assert.Equal(t, "2024-03-01", *p.ValueDate)
}

func TestWrap_Time(t *testing.T) {
	v := Wrap(fakeValue{typ: "time", text: "@T12:30:00"})
	assert.Equal(t, classify.Time{Text: "12:30:00"}, v.Scalar())
}

func TestWrap_Quantity(t *testing.T) {
	p := classify.Classify(Wrap(fakeValue{typ: "Quantity", text: "5 'mg'"}), true)

	assert.Equal(t, classify.NameQuantity, p.Name)
	require.NotNil(t, p.ValueQuantity)
	assert.Equal(t, "'mg'", p.ValueQuantity.Unit)
	assert.Equal(t, param.UCUMSystem, p.ValueQuantity.System)
	assert.Equal(t, "5", p.ValueQuantity.Value.String())
}

func TestWrap_InferredQuantityNode(t *testing.T) {
	v := Wrap(types.NewObjectValue([]byte(`{"value":5,"unit":"mg","system":"http://unitsofmeasure.org","code":"mg"}`)))
	assert.Equal(t, "Quantity", v.FHIRType())

	p := classify.Classify(v, true)
	require.NotNil(t, p.ValueQuantity)
	assert.Equal(t, "mg", p.ValueQuantity.Code)
	assert.Equal(t, "5", p.ValueQuantity.Value.String())
}

func TestWrap_OpaqueObject(t *testing.T) {
	v := Wrap(types.NewObjectValue([]byte(`{"a":1}`)))
	assert.Empty(t, v.FHIRType())

	p := classify.Classify(v, true)
	assert.Equal(t, 0, p.SlotCount())
	text, ok := p.ExtensionValue(param.JSONValueURL)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(text, "{"), "extension = %q", text)
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		text   string
		value  string
		unit   string
		wantOK bool
	}{
		{"4 weeks", "4", "weeks", true},
		{"1.5 'mg'", "1.5", "'mg'", true},
		{"3", "3", "'1'", true},
		{"many 'mg'", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			q, ok := ParseQuantity(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("ParseQuantity(%q) ok = %v; want %v", tt.text, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if q.Value.String() != tt.value || q.Unit != tt.unit {
				t.Errorf("ParseQuantity(%q) = %s %s; want %s %s", tt.text, q.Value, q.Unit, tt.value, tt.unit)
			}
		})
	}
}
