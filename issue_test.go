package fhirpathlab

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIssue_IsError(t *testing.T) {
	tests := []struct {
		severity IssueSeverity
		want     bool
	}{
		{SeverityFatal, true},
		{SeverityError, true},
		{SeverityWarning, false},
		{SeverityInformation, false},
	}

	for _, tt := range tests {
		issue := Issue{Severity: tt.severity}
		if got := issue.IsError(); got != tt.want {
			t.Errorf("Issue{Severity: %s}.IsError() = %v; want %v", tt.severity, got, tt.want)
		}
		if got := issue.IsWarning(); got != (tt.severity == SeverityWarning) {
			t.Errorf("Issue{Severity: %s}.IsWarning() = %v", tt.severity, got)
		}
	}
}

func TestIssue_String(t *testing.T) {
	tests := []struct {
		issue Issue
		want  string
	}{
		{
			issue: Issue{Severity: SeverityError, Diagnostics: "unexpected token"},
			want:  "error: unexpected token",
		},
		{
			issue: Error(IssueTypeRequired).Message("expression is required").At("expression").Build(),
			want:  "error: expression is required at expression",
		},
		{
			issue: Warning(IssueTypeInvalid).Message("evaluation failed").Diagnostics("boom").Build(),
			want:  "warning: evaluation failed (boom)",
		},
	}

	for _, tt := range tests {
		if got := tt.issue.String(); got != tt.want {
			t.Errorf("String() = %q; want %q", got, tt.want)
		}
	}
}

func TestNewOperationOutcome(t *testing.T) {
	o := NewOperationOutcome(SeverityError, IssueTypeInvalid, "evaluation failed", "bad token")

	if o.ResourceType != "OperationOutcome" {
		t.Errorf("ResourceType = %q; want OperationOutcome", o.ResourceType)
	}
	if len(o.Issue) != 1 {
		t.Fatalf("len(Issue) = %d; want 1", len(o.Issue))
	}
	if !o.HasErrors() {
		t.Error("HasErrors() = false; want true")
	}

	b, err := o.MarshalIndent()
	if err != nil {
		t.Fatalf("MarshalIndent() error = %v", err)
	}
	for _, want := range []string{`"resourceType": "OperationOutcome"`, `"code": "invalid"`, `"text": "evaluation failed"`, `"diagnostics": "bad token"`} {
		if !strings.Contains(string(b), want) {
			t.Errorf("MarshalIndent() missing %s in %s", want, b)
		}
	}
}

func TestOutcomeFromError(t *testing.T) {
	missing := &InputError{Code: IssueTypeRequired, Field: "resource", Message: "resource is required"}

	tests := []struct {
		name     string
		err      error
		code     IssueType
		location string
	}{
		{"input error", missing, IssueTypeRequired, "resource"},
		{"wrapped input error", fmt.Errorf("batch item 2: %w", missing), IssueTypeRequired, "resource"},
		{"deadline", fmt.Errorf("evaluate: %w", context.DeadlineExceeded), IssueTypeTimeout, ""},
		{"other", errors.New("failed to compile"), IssueTypeInvalid, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := OutcomeFromError(tt.err)
			if o == nil || len(o.Issue) != 1 {
				t.Fatalf("OutcomeFromError() = %+v; want one issue", o)
			}
			issue := o.Issue[0]
			if issue.Code != tt.code {
				t.Errorf("Code = %q; want %q", issue.Code, tt.code)
			}
			if issue.Diagnostics != tt.err.Error() {
				t.Errorf("Diagnostics = %q; want %q", issue.Diagnostics, tt.err.Error())
			}
			gotLocation := ""
			if len(issue.Expression) > 0 {
				gotLocation = issue.Expression[0]
			}
			if gotLocation != tt.location {
				t.Errorf("Expression = %q; want %q", gotLocation, tt.location)
			}
		})
	}

	if OutcomeFromError(nil) != nil {
		t.Error("OutcomeFromError(nil) should be nil")
	}
}
