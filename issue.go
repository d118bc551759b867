package fhirpathlab

import (
	"context"
	"errors"

	gojson "github.com/goccy/go-json"
)

// IssueSeverity represents the severity of an evaluation issue.
// Maps to OperationOutcome.issue.severity in FHIR.
type IssueSeverity string

const (
	// SeverityFatal indicates the request could not be processed at all.
	SeverityFatal IssueSeverity = "fatal"
	// SeverityError indicates the evaluation failed.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a potential problem that should be reviewed.
	SeverityWarning IssueSeverity = "warning"
	// SeverityInformation indicates informational feedback.
	SeverityInformation IssueSeverity = "information"
)

// IssueType represents the type of an evaluation issue.
// Maps to OperationOutcome.issue.code in FHIR.
type IssueType string

const (
	// IssueTypeInvalid indicates the expression or resource could not be
	// parsed or evaluated.
	IssueTypeInvalid IssueType = "invalid"
	// IssueTypeRequired indicates a required input is missing.
	IssueTypeRequired IssueType = "required"
	// IssueTypeProcessing indicates an internal processing failure.
	IssueTypeProcessing IssueType = "processing"
	// IssueTypeTimeout indicates the evaluation timed out.
	IssueTypeTimeout IssueType = "timeout"
	// IssueTypeNotSupported indicates the request is not supported.
	IssueTypeNotSupported IssueType = "not-supported"
	// IssueTypeInformational indicates informational content.
	IssueTypeInformational IssueType = "informational"
)

// CodeableText is a CodeableConcept carrying only text.
type CodeableText struct {
	Text string `json:"text"`
}

// Issue represents a single OperationOutcome issue.
type Issue struct {
	// Severity of the issue (fatal, error, warning, information)
	Severity IssueSeverity `json:"severity"`

	// Code identifying the type of issue
	Code IssueType `json:"code"`

	// Details is the short human-readable message
	Details *CodeableText `json:"details,omitempty"`

	// Diagnostics carries technical detail, typically the wrapped error
	Diagnostics string `json:"diagnostics,omitempty"`

	// Expression points at the offending input, e.g. "expression"
	Expression []string `json:"expression,omitempty"`
}

// IsError returns true if this is an error or fatal issue.
func (i Issue) IsError() bool {
	return i.Severity == SeverityError || i.Severity == SeverityFatal
}

// IsWarning returns true if this is a warning.
func (i Issue) IsWarning() bool {
	return i.Severity == SeverityWarning
}

// String returns a human-readable representation of the issue.
func (i Issue) String() string {
	msg := i.Diagnostics
	if i.Details != nil {
		msg = i.Details.Text
		if i.Diagnostics != "" {
			msg += " (" + i.Diagnostics + ")"
		}
	}
	path := ""
	if len(i.Expression) > 0 {
		path = " at " + i.Expression[0]
	}
	return string(i.Severity) + ": " + msg + path
}

// IssueBuilder provides a fluent API for building issues.
type IssueBuilder struct {
	issue Issue
}

// NewIssue creates a new IssueBuilder.
func NewIssue(severity IssueSeverity, code IssueType) *IssueBuilder {
	return &IssueBuilder{
		issue: Issue{
			Severity: severity,
			Code:     code,
		},
	}
}

// Error creates an error issue.
func Error(code IssueType) *IssueBuilder {
	return NewIssue(SeverityError, code)
}

// Warning creates a warning issue.
func Warning(code IssueType) *IssueBuilder {
	return NewIssue(SeverityWarning, code)
}

// Message sets the details text.
func (b *IssueBuilder) Message(text string) *IssueBuilder {
	b.issue.Details = &CodeableText{Text: text}
	return b
}

// Diagnostics sets the diagnostic message.
func (b *IssueBuilder) Diagnostics(msg string) *IssueBuilder {
	b.issue.Diagnostics = msg
	return b
}

// At sets the expression path.
func (b *IssueBuilder) At(path string) *IssueBuilder {
	b.issue.Expression = []string{path}
	return b
}

// Build returns the constructed issue.
func (b *IssueBuilder) Build() Issue {
	return b.issue
}

// OperationOutcome is the FHIR resource returned instead of a report when
// an evaluation fails.
type OperationOutcome struct {
	ResourceType string  `json:"resourceType"`
	Issue        []Issue `json:"issue"`
}

// NewOperationOutcome creates an outcome with a single issue.
func NewOperationOutcome(severity IssueSeverity, code IssueType, message, diagnostics string) *OperationOutcome {
	return &OperationOutcome{
		ResourceType: "OperationOutcome",
		Issue: []Issue{
			NewIssue(severity, code).Message(message).Diagnostics(diagnostics).Build(),
		},
	}
}

// HasErrors returns true if any issue is an error or fatal.
func (o *OperationOutcome) HasErrors() bool {
	for _, issue := range o.Issue {
		if issue.IsError() {
			return true
		}
	}
	return false
}

// MarshalIndent renders the outcome as indented JSON.
func (o *OperationOutcome) MarshalIndent() ([]byte, error) {
	return gojson.MarshalIndent(o, "", "  ")
}

// InputError is returned for requests that cannot be evaluated as given.
// Field names the offending input.
type InputError struct {
	Code    IssueType
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// OutcomeFromError converts an evaluation error into an OperationOutcome.
// An InputError keeps its code and field; context deadlines become
// timeouts; anything else is reported as invalid input.
func OutcomeFromError(err error) *OperationOutcome {
	if err == nil {
		return nil
	}

	var inputErr *InputError
	switch {
	case errors.As(err, &inputErr):
		o := NewOperationOutcome(SeverityError, inputErr.Code, inputErr.Message, err.Error())
		if inputErr.Field != "" {
			o.Issue[0].Expression = []string{inputErr.Field}
		}
		return o
	case errors.Is(err, context.DeadlineExceeded):
		return NewOperationOutcome(SeverityError, IssueTypeTimeout, "evaluation timed out", err.Error())
	default:
		return NewOperationOutcome(SeverityError, IssueTypeInvalid, "evaluation failed", err.Error())
	}
}
