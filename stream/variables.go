package stream

import (
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	gojson "github.com/goccy/go-json"

	"github.com/gofhir/fhirpathlab/pkg/evaluator"
)

// variableElements lists the elements a "variables" part may carry its
// value in, in lookup order.
var variableElements = []struct {
	element string
	kind    string
}{
	{"valueString", evaluator.VarString},
	{"valueBoolean", evaluator.VarBoolean},
	{"valueInteger", evaluator.VarInteger},
	{"valueDecimal", evaluator.VarDecimal},
	{"valueDate", evaluator.VarDate},
	{"valueTime", evaluator.VarTime},
	{"valueDateTime", evaluator.VarDateTime},
	{"resource", evaluator.VarResource},
}

// readVariables adds the parts of a "variables" parameter to vars. A part
// without a supported value is bound to the empty collection.
func readVariables(p []byte, vars map[string]evaluator.Variable) {
	_, _ = jsonparser.ArrayEach(p, func(part []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if dataType != jsonparser.Object {
			return
		}
		name, err := jsonparser.GetString(part, "name")
		if err != nil || name == "" {
			return
		}
		name = variableName(name)

		for _, e := range variableElements {
			value, t, _, err := jsonparser.Get(part, e.element)
			if err != nil {
				continue
			}
			// String values come back without their quotes, escapes intact.
			raw := make(gojson.RawMessage, 0, len(value)+2)
			if t == jsonparser.String {
				raw = append(append(append(raw, '"'), value...), '"')
			} else {
				raw = append(raw, value...)
			}
			vars[name] = evaluator.Variable{Type: e.kind, Value: raw}
			return
		}
		vars[name] = evaluator.Variable{}
	}, "part")
}

// variableName strips the delimiters of a backtick or single-quote
// delimited name and resolves its escape sequences.
func variableName(name string) string {
	if len(name) < 2 {
		return name
	}
	delim := name[0]
	if (delim != '`' && delim != '\'') || name[len(name)-1] != delim {
		return name
	}

	body := name[1 : len(name)-1]
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			b.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'r':
			b.WriteByte('\r')
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'f':
			b.WriteByte('\f')
		case 'u':
			if i+5 <= len(body) {
				if r, err := strconv.ParseUint(body[i+1:i+5], 16, 16); err == nil {
					b.WriteRune(rune(r))
					i += 4
					continue
				}
			}
			b.WriteByte('u')
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String()
}
