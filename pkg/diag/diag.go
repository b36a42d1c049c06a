// Package diag defines the diagnostics reported when a model declaration does
// not conform to the API schema, together with the fixed catalog of issue
// kinds and their severities.
package diag

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Severity ranks a diagnostic. Higher values are more serious.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityMaintainability
	SeverityDefect
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityMaintainability:
		return "maintainability"
	case SeverityDefect:
		return "defect"
	default:
		return "unknown"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSeverity is the inverse of Severity.String.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SeverityInfo, nil
	case "maintainability":
		return SeverityMaintainability, nil
	case "defect":
		return SeverityDefect, nil
	}
	return SeverityInfo, fmt.Errorf("unknown severity %q", s)
}

// Kind identifies an issue in the catalog.
type Kind string

const (
	// ModelNotFound is reported when a declaration claims a schema name the
	// document does not define.
	ModelNotFound Kind = "SwaggerModelNotFound"
	// FieldNotDeclared covers both presence directions: a schema property
	// missing from the model and a model field missing from the schema.
	FieldNotDeclared Kind = "SwaggerFieldNotDeclared"
	// FieldNotFound is cataloged but never emitted; presence mismatches in
	// both directions share FieldNotDeclared.
	FieldNotFound         Kind = "SwaggerFieldNotFound"
	FieldCanBeNonOptional Kind = "FieldCanBeNonOptional"
	FieldShouldBeOptional Kind = "FieldShouldBeOptional"
	FieldTypesMismatch    Kind = "FieldTypesMismatch"
	StringCouldBeEnum     Kind = "StringCouldBeEnum"
	MissingTypeValidation Kind = "MissingTypeValidation"
	MissingEnumValidation Kind = "MissingEnumValidation"
	MissingEnumValue      Kind = "MissingEnumValue"
	ExtraEnumValue        Kind = "ExtraEnumValue"
)

// Issue describes a catalog entry.
type Issue struct {
	Kind        Kind
	Severity    Severity
	Description string
	Debt        time.Duration // rough time to fix, used for summaries
}

var catalog = map[Kind]Issue{
	ModelNotFound: {
		Severity:    SeverityDefect,
		Description: "This rule verifies that known swagger models match the latest swagger document.",
		Debt:        20 * time.Minute,
	},
	FieldNotDeclared: {
		Severity:    SeverityDefect,
		Description: "All fields in the swagger definition must be mapped by the model.",
		Debt:        20 * time.Minute,
	},
	FieldNotFound: {
		Severity:    SeverityDefect,
		Description: "All fields in the model must also exist in the swagger definition.",
		Debt:        20 * time.Minute,
	},
	FieldCanBeNonOptional: {
		Severity:    SeverityMaintainability,
		Description: "Required swagger field is optional in the model.",
		Debt:        5 * time.Minute,
	},
	FieldShouldBeOptional: {
		Severity:    SeverityDefect,
		Description: "Optional swagger field is required in the model.",
		Debt:        5 * time.Minute,
	},
	FieldTypesMismatch: {
		Severity:    SeverityDefect,
		Description: "Model field type does not match the swagger type and format.",
		Debt:        10 * time.Minute,
	},
	StringCouldBeEnum: {
		Severity:    SeverityMaintainability,
		Description: "Raw string field could be converted to an enum.",
		Debt:        10 * time.Minute,
	},
	MissingTypeValidation: {
		Severity:    SeverityMaintainability,
		Description: "Referenced swagger type was never checked. Is the swagger:model directive missing?",
		Debt:        10 * time.Minute,
	},
	MissingEnumValidation: {
		Severity:    SeverityMaintainability,
		Description: "Referenced enum was never checked. Is the swagger:enum directive missing?",
		Debt:        10 * time.Minute,
	},
	MissingEnumValue: {
		Severity:    SeverityDefect,
		Description: "Swagger defines enum values the model enum lacks.",
		Debt:        10 * time.Minute,
	},
	ExtraEnumValue: {
		Severity:    SeverityDefect,
		Description: "Model enum defines values swagger does not.",
		Debt:        10 * time.Minute,
	},
}

// Issue returns the catalog entry for k. Unknown kinds are reported as
// defects with no description.
func (k Kind) Issue() Issue {
	issue, ok := catalog[k]
	if !ok {
		return Issue{Kind: k, Severity: SeverityDefect}
	}
	issue.Kind = k
	return issue
}

// Kinds lists the catalog in a stable order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(catalog))
	for k := range catalog {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Location is a position in examined source.
type Location struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

func (l Location) IsZero() bool {
	return l.File == "" && l.Line == 0 && l.Column == 0
}

func (l Location) String() string {
	switch {
	case l.IsZero():
		return "-"
	case l.Line == 0:
		return l.File
	case l.Column == 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
}

// Less orders locations by file, then line, then column.
func (l Location) Less(o Location) bool {
	if l.File != o.File {
		return l.File < o.File
	}
	if l.Line != o.Line {
		return l.Line < o.Line
	}
	return l.Column < o.Column
}

// Diagnostic is one reported violation.
type Diagnostic struct {
	Kind     Kind     `json:"kind"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Location Location `json:"location"`
}

// New builds a diagnostic whose severity comes from the catalog.
func New(kind Kind, loc Location, format string, args ...any) Diagnostic {
	return Diagnostic{
		Kind:     kind,
		Severity: kind.Issue().Severity,
		Message:  fmt.Sprintf(format, args...),
		Location: loc,
	}
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s [%s] %s", d.Location, d.Severity, d.Kind, d.Message)
}

// Sort orders diagnostics by location, kind and message so that reports do
// not depend on worker scheduling.
func Sort(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Location != b.Location {
			return a.Location.Less(b.Location)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Message < b.Message
	})
}

// Counts tallies diagnostics per severity.
type Counts struct {
	Defect          int `json:"defect"`
	Maintainability int `json:"maintainability"`
	Info            int `json:"info"`
}

func (c Counts) Total() int {
	return c.Defect + c.Maintainability + c.Info
}

// AtLeast reports how many diagnostics are at or above the given severity.
func (c Counts) AtLeast(s Severity) int {
	switch s {
	case SeverityDefect:
		return c.Defect
	case SeverityMaintainability:
		return c.Defect + c.Maintainability
	default:
		return c.Total()
	}
}

// Count tallies diags per severity.
func Count(diags []Diagnostic) Counts {
	var c Counts
	for _, d := range diags {
		switch d.Severity {
		case SeverityDefect:
			c.Defect++
		case SeverityMaintainability:
			c.Maintainability++
		default:
			c.Info++
		}
	}
	return c
}

// Debt sums the catalog debt of diags.
func Debt(diags []Diagnostic) time.Duration {
	var total time.Duration
	for _, d := range diags {
		total += d.Kind.Issue().Debt
	}
	return total
}
