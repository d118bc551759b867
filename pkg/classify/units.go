package classify

import (
	"strings"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/fhirpathlab/pkg/param"
)

// calendarUnits are the FHIRPath calendar duration keywords.
var calendarUnits = map[string]struct{}{
	"year": {}, "years": {},
	"month": {}, "months": {},
	"week": {}, "weeks": {},
	"day": {}, "days": {},
	"hour": {}, "hours": {},
	"minute": {}, "minutes": {},
	"second": {}, "seconds": {},
	"millisecond": {}, "milliseconds": {},
}

// UnitCoding resolves the code system of a quantity unit token. The token
// is used unchanged as the code.
//
// The FHIRPath grammar writes calendar durations as bare keywords and UCUM
// units as quoted strings, so an unquoted token is a calendar unit. A
// token that names no calendar keyword is UCUM whether quoted or not, and
// a quoted calendar keyword is still a calendar unit.
func UnitCoding(unit string) r4.Coding {
	system := param.UCUMSystem
	if isCalendarUnit(unit) {
		system = param.CalendarUnitsSystem
	}
	code := unit
	return r4.Coding{System: &system, Code: &code}
}

func isCalendarUnit(unit string) bool {
	bare := strings.TrimSuffix(strings.TrimPrefix(unit, "'"), "'")
	_, ok := calendarUnits[bare]
	return ok
}

// ResolveQuantity converts q into a FHIR Quantity with its unit system.
func ResolveQuantity(q Quantity) *param.Quantity {
	coding := UnitCoding(q.Unit)
	return &param.Quantity{
		Value:  param.NewDecimal(q.Value),
		Unit:   q.Unit,
		System: deref(coding.System),
		Code:   deref(coding.Code),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
