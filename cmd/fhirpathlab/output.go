package main

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	gojson "github.com/goccy/go-json"

	fv "github.com/gofhir/fhirpathlab"
	"github.com/gofhir/fhirpathlab/pkg/classify"
	"github.com/gofhir/fhirpathlab/pkg/location"
	"github.com/gofhir/fhirpathlab/pkg/param"
	"github.com/gofhir/fhirpathlab/pkg/report"
	"github.com/gofhir/fhirpathlab/stream"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	typeColor   = color.New(color.FgYellow)
	pathColor   = color.New(color.FgGreen)
	errorColor  = color.New(color.FgRed, color.Bold)
	okColor     = color.New(color.FgGreen, color.Bold)
	faintColor  = color.New(color.Faint)
)

// printResult writes a human-readable report. Values read from the
// resource are shown with their line and column in resource.
func printResult(w io.Writer, r *fv.Result, resource []byte) {
	if r.Outcome != nil {
		printOutcome(w, r.Outcome, "")
		return
	}

	headerColor.Fprintln(w, r.Expression)
	if result := r.Parameters.Get(report.NameResult); result == nil || len(result.Part) == 0 {
		faintColor.Fprintln(w, "  (empty)")
	} else {
		for _, part := range result.Part {
			printValue(w, part, resource, "  ")
		}
	}

	if dt := r.Parameters.Get(report.NameDebugTrace); dt != nil && len(dt.Part) > 0 {
		headerColor.Fprintln(w, "debug trace")
		for _, item := range dt.Part {
			fmt.Fprintf(w, "  %s\n", item.Name)
			for _, part := range item.Part {
				printValue(w, part, resource, "    ")
			}
		}
	}

	faintColor.Fprintf(w, "%d values, %d snapshots in %v\n",
		r.ResultCount, r.SnapshotCount, r.Duration.Round(time.Microsecond))
}

func printValue(w io.Writer, p *param.Parameter, resource []byte, indent string) {
	if p.Name == report.NameTrace && p.ValueString != nil {
		fmt.Fprintf(w, "%strace %q\n", indent, *p.ValueString)
		for _, part := range p.Part {
			printValue(w, part, resource, indent+"  ")
		}
		return
	}

	var b strings.Builder
	b.WriteString(indent)
	b.WriteString(typeColor.Sprint(p.Name))
	if v := formatValue(p); v != "" {
		b.WriteString(" ")
		b.WriteString(v)
	}
	if path := resourcePath(p); path != "" {
		b.WriteString(" ")
		b.WriteString(pathColor.Sprint("@ " + path))
		if loc := location.Find(resource, path); loc != nil {
			b.WriteString(faintColor.Sprintf(" (%s)", loc))
		}
	}
	fmt.Fprintln(w, b.String())
}

// resourcePath returns the path a value was read from: its extension, or
// the value itself for a value reduced to its path.
func resourcePath(p *param.Parameter) string {
	if path, ok := p.ExtensionValue(param.ResourcePathURL); ok {
		return path
	}
	if strings.HasSuffix(p.Name, classify.NameResourcePath) && p.ValueString != nil {
		return *p.ValueString
	}
	return ""
}

// formatValue renders the populated value[x] slot, or the JSON extension
// of a value no slot could hold.
func formatValue(p *param.Parameter) string {
	switch {
	case strings.HasSuffix(p.Name, classify.NameResourcePath):
		return ""
	case p.ValueString != nil:
		return strconv.Quote(*p.ValueString)
	case p.ValueBoolean != nil:
		return strconv.FormatBool(*p.ValueBoolean)
	case p.ValueCode != nil:
		return *p.ValueCode
	case p.ValueDate != nil:
		return "@" + *p.ValueDate
	case p.ValueInstant != nil:
		return "@" + *p.ValueInstant
	case p.ValueDateTime != nil:
		return "@" + *p.ValueDateTime
	case p.ValueTime != nil:
		return "@T" + *p.ValueTime
	case p.ValueInteger != nil:
		return strconv.FormatInt(*p.ValueInteger, 10)
	case p.ValueDecimal != nil:
		return p.ValueDecimal.String()
	case p.ValueQuantity != nil:
		q := p.ValueQuantity
		value := ""
		if q.Value != nil {
			value = q.Value.String()
		}
		return fmt.Sprintf("%s '%s'", value, q.Code)
	case p.ValueHumanName != nil:
		n := p.ValueHumanName
		return strings.TrimSpace(strings.Join(append(append([]string{}, n.Given...), n.Family), " "))
	}
	if text, ok := p.ExtensionValue(param.JSONValueURL); ok {
		var buf bytes.Buffer
		if err := gojson.Compact(&buf, []byte(text)); err == nil {
			return buf.String()
		}
		return text
	}
	return ""
}

func printOutcome(w io.Writer, o *fv.OperationOutcome, indent string) {
	for _, issue := range o.Issue {
		c := errorColor
		if !issue.IsError() {
			c = typeColor
		}
		c.Fprintf(w, "%s%s\n", indent, issue)
	}
}

func printEntry(w io.Writer, r *stream.EntryResult) {
	if r.Index < 0 {
		errorColor.Fprintf(w, "stream: %v\n", r.Error)
		return
	}

	label := fmt.Sprintf("[%d]", r.Index)
	if r.ID != "" {
		label += " " + r.ID
	}
	if r.Expression != "" {
		label += " " + r.Expression
	}

	switch {
	case r.Result != nil && r.Result.Outcome != nil:
		errorColor.Fprintf(w, "%s\n", label)
		printOutcome(w, r.Result.Outcome, "  ")
	case r.Error != nil:
		errorColor.Fprintf(w, "%s\n", label)
		printOutcome(w, fv.OutcomeFromError(r.Error), "  ")
	case r.Result != nil:
		fmt.Fprintf(w, "%s: %d values, %d snapshots\n", label, r.Result.ResultCount, r.Result.SnapshotCount)
	}
}

func printSummary(w io.Writer, source string, s *stream.Summary) {
	c := okColor
	if s.HasErrors() {
		c = errorColor
	}
	c.Fprintf(w, "== %s: %s ==\n", source, s)
}
