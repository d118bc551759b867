package trace

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/gofhir/fhirpathlab/pool"
)

// Offset converts a 0-based line and column into a character offset in
// source. Each line before the target contributes its length plus one
// for the line terminator. Lengths are counted in UTF-16 code units, the
// unit parser positions are reported in.
//
// The position is not validated: a line past the end of source panics
// with an index out of range, as the indexed line lookup would.
func Offset(source string, line, column int) int {
	lines := strings.Split(source, "\n")
	position := column
	for cur := line; cur > 0; cur-- {
		position += Length(lines[cur-1]) + 1
	}
	return position
}

// Length returns the length of s in UTF-16 code units.
func Length(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// snapshotOffset resolves the start of s, treating a missing position as
// the start of the source.
func snapshotOffset(source string, s *Snapshot) int {
	if !s.HasPosition {
		return 0
	}
	return Offset(source, s.Line, s.Column)
}

// NodeLabel names a snapshot by "<offset>,<length>,<name>". Labels of
// snapshots from one expression sort by their position in the source.
func NodeLabel(source string, s *Snapshot) string {
	return pool.Label(snapshotOffset(source, s), s.Length, s.Name)
}

// FormatLabel extends NodeLabel with the focus and result counts and the
// node kind, for logging.
func FormatLabel(source string, s *Snapshot) string {
	return fmt.Sprintf("%s: focus=%d result=%d  type=%s",
		NodeLabel(source, s), len(s.Focus), len(s.Values), s.Type)
}
