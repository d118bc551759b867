package trace

import (
	"bytes"
	"fmt"

	"github.com/buger/jsonparser"
	gojson "github.com/goccy/go-json"

	"github.com/gofhir/fhirpathlab/pkg/classify"
)

// Dump is a debug trace captured by an external evaluator.
type Dump struct {
	Snapshots []Snapshot
	Calls     []Call
}

type dumpValue struct {
	ResourcePath     string            `json:"resourcePath"`
	ValueType        string            `json:"valueType"`
	FHIRNodeDataType string            `json:"fhirNodeDataType"`
	Value            gojson.RawMessage `json:"value"`
	RawData          gojson.RawMessage `json:"rawData"`
}

type dumpSnapshot struct {
	ExprName        string      `json:"exprName"`
	ExprStartLine   *int        `json:"exprStartLine"`
	ExprStartColumn *int        `json:"exprStartColumn"`
	ExprLength      int         `json:"exprLength"`
	Values          []dumpValue `json:"values"`
	ThisVar         []dumpValue `json:"thisVar"`
	FocusVar        []dumpValue `json:"focusVar"`
	TotalVar        []dumpValue `json:"totalVar"`
	IndexVar        *int        `json:"indexVar"`
	Type            string      `json:"type"`
}

type dumpCall struct {
	Label string      `json:"label"`
	Value []dumpValue `json:"value"`
}

// DecodeDump reads a debug trace in the fhirpath.js lab layout. The input
// is either an array of snapshots, or an object with a "debugTrace" array
// of snapshots and a "trace" array of trace() calls. Snapshot positions
// in the dump are already 0-based.
func DecodeDump(data []byte) (*Dump, error) {
	_, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("decode trace dump: %w", err)
	}

	var (
		snapshots []dumpSnapshot
		calls     []dumpCall
	)
	switch dataType {
	case jsonparser.Array:
		if err := gojson.Unmarshal(data, &snapshots); err != nil {
			return nil, fmt.Errorf("decode trace snapshots: %w", err)
		}
	case jsonparser.Object:
		if raw, _, _, err := jsonparser.Get(data, "debugTrace"); err == nil {
			if err := gojson.Unmarshal(raw, &snapshots); err != nil {
				return nil, fmt.Errorf("decode trace snapshots: %w", err)
			}
		}
		if raw, _, _, err := jsonparser.Get(data, "trace"); err == nil {
			if err := gojson.Unmarshal(raw, &calls); err != nil {
				return nil, fmt.Errorf("decode trace calls: %w", err)
			}
		}
	default:
		return nil, fmt.Errorf("decode trace dump: unexpected %v", dataType)
	}

	dump := &Dump{
		Snapshots: make([]Snapshot, 0, len(snapshots)),
		Calls:     make([]Call, 0, len(calls)),
	}
	for _, ds := range snapshots {
		s := Snapshot{
			Name:   ds.ExprName,
			Type:   ds.Type,
			Length: ds.ExprLength,
			Index:  ds.IndexVar,
			Values: toValues(ds.Values),
			This:   toValues(ds.ThisVar),
			Focus:  toValues(ds.FocusVar),
			Total:  toValues(ds.TotalVar),
		}
		if ds.ExprStartLine != nil || ds.ExprStartColumn != nil {
			s.HasPosition = true
			s.Line = intOr(ds.ExprStartLine)
			s.Column = intOr(ds.ExprStartColumn)
		}
		dump.Snapshots = append(dump.Snapshots, s)
	}
	for _, dc := range calls {
		dump.Calls = append(dump.Calls, Call{Label: dc.Label, Values: toValues(dc.Value)})
	}
	return dump, nil
}

func toValues(in []dumpValue) []classify.Value {
	if len(in) == 0 {
		return nil
	}
	out := make([]classify.Value, 0, len(in))
	for _, dv := range in {
		raw := decodeAny(dv.RawData)
		if raw == nil {
			raw = decodeAny(dv.Value)
		}
		out = append(out, &classify.Item{
			FHIRNodeType: dv.FHIRNodeDataType,
			Type:         dv.ValueType,
			Path:         dv.ResourcePath,
			Raw:          raw,
		})
	}
	return out
}

// decodeAny decodes raw JSON keeping numbers in their textual form.
func decodeAny(raw gojson.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	dec := gojson.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func intOr(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
