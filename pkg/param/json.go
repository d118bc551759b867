package param

import (
	"math/big"

	gojson "github.com/goccy/go-json"
)

// Stringify renders v as 2-space indented JSON. Big integers are written
// as strings with a trailing "n" so they survive consumers that parse
// numbers as float64. Values that cannot be encoded render as their error
// message wrapped in a JSON string.
func Stringify(v any) string {
	b, err := gojson.MarshalIndent(bigSafe(v), "", "  ")
	if err != nil {
		b, _ = gojson.Marshal(err.Error())
	}
	return string(b)
}

func bigSafe(v any) any {
	switch t := v.(type) {
	case *big.Int:
		if t == nil {
			return nil
		}
		return t.String() + "n"
	case big.Int:
		return t.String() + "n"
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = bigSafe(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = bigSafe(e)
		}
		return out
	default:
		return v
	}
}
