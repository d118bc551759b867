package fhirpathlab

// FHIRVersion represents a FHIR specification version.
type FHIRVersion string

// Supported FHIR versions.
const (
	// R4 is FHIR Release 4 (4.0.1)
	R4 FHIRVersion = "R4"
	// R4B is FHIR Release 4B (4.3.0)
	R4B FHIRVersion = "R4B"
	// R5 is FHIR Release 5 (5.0.0)
	R5 FHIRVersion = "R5"
)

// String returns the version string.
func (v FHIRVersion) String() string {
	return string(v)
}

// IsValid returns true if this is a supported FHIR version.
func (v FHIRVersion) IsValid() bool {
	_, ok := versionConfigs[v]
	return ok
}

// FHIRVersionString is the full release number, e.g. "4.0.1".
func (v FHIRVersion) FHIRVersionString() string {
	return versionConfigs[v].release
}

// EvaluatorLabel is the evaluator name written into reports for v.
func (v FHIRVersion) EvaluatorLabel() string {
	if cfg, ok := versionConfigs[v]; ok {
		return cfg.label
	}
	return "gofhir/fhirpath"
}

type versionConfig struct {
	release string
	label   string
}

var versionConfigs = map[FHIRVersion]versionConfig{
	R4:  {release: "4.0.1", label: "gofhir/fhirpath (R4)"},
	R4B: {release: "4.3.0", label: "gofhir/fhirpath (R4B)"},
	R5:  {release: "5.0.0", label: "gofhir/fhirpath (R5)"},
}
