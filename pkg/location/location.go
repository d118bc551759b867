// Package location finds where the values an expression read sit in the
// resource JSON, from their resource paths.
package location

import (
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
)

// Location represents a position in the source JSON.
type Location struct {
	Line   int
	Column int
}

// String renders the location as "line:column".
func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Find locates the value at a resource path such as
// "Patient.name[0].given[1]" in JSON source. It returns nil if the path
// cannot be found.
func Find(jsonData []byte, resourcePath string) *Location {
	if len(jsonData) == 0 || resourcePath == "" {
		return nil
	}

	keys := Keys(resourcePath)
	value, dataType, end, err := jsonparser.Get(jsonData, keys...)
	if err != nil {
		return nil
	}

	start := end - len(value)
	if dataType == jsonparser.String {
		// value excludes the quotes
		start -= 2
	}

	line, col := offsetToLineCol(jsonData, start)
	return &Location{Line: line, Column: col}
}

// Keys converts a resource path into jsonparser keys. A leading resource
// type is dropped, so a bare resource type names the document root, and
// indexes become "[n]" keys:
//   - "Patient.identifier[0].value" -> ["identifier", "[0]", "value"]
//   - "Bundle.entry[0].resource.id" -> ["entry", "[0]", "resource", "id"]
func Keys(path string) []string {
	if isResourceType(path) {
		return nil
	}

	// Remove resource type prefix if present (Patient.identifier -> identifier)
	if idx := strings.IndexAny(path, ".["); idx > 0 {
		first := path[:idx]
		if first[0] >= 'A' && first[0] <= 'Z' && path[idx] == '.' {
			path = path[idx+1:]
		}
	}

	var keys []string
	current := ""

	for i := 0; i < len(path); i++ {
		ch := path[i]
		switch ch {
		case '.':
			if current != "" {
				keys = append(keys, current)
				current = ""
			}
		case '[':
			if current != "" {
				keys = append(keys, current)
				current = ""
			}
			j := i + 1
			for j < len(path) && path[j] != ']' {
				j++
			}
			if j > i+1 {
				keys = append(keys, "["+path[i+1:j]+"]")
			}
			i = j
		default:
			current += string(ch)
		}
	}
	if current != "" {
		keys = append(keys, current)
	}

	return keys
}

func isResourceType(path string) bool {
	return path != "" && path[0] >= 'A' && path[0] <= 'Z' && !strings.ContainsAny(path, ".[")
}

// offsetToLineCol converts a byte offset to line and column numbers.
// Line and column are 1-indexed (human-readable).
func offsetToLineCol(input []byte, offset int) (line, col int) {
	line = 1
	col = 1
	for i := 0; i < offset && i < len(input); i++ {
		if input[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return
}
