package batch

import (
	"fmt"
	"strings"
	"time"

	"github.com/simonhull/heron/pkg/checker"
	"github.com/simonhull/heron/pkg/diag"
)

// Threshold selects which findings make a run fail.
type Threshold string

const (
	// FailOnDefect fails on defects and unresolved references.
	FailOnDefect Threshold = "defect"
	// FailOnMaintainability also fails on maintainability findings.
	FailOnMaintainability Threshold = "maintainability"
	// FailOnUnresolved fails only on unresolved references.
	FailOnUnresolved Threshold = "unresolved"
)

// ParseThreshold validates a threshold name. The empty string means
// FailOnDefect.
func ParseThreshold(s string) (Threshold, error) {
	switch t := Threshold(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return FailOnDefect, nil
	case FailOnDefect, FailOnMaintainability, FailOnUnresolved:
		return t, nil
	}
	return "", fmt.Errorf("unknown fail threshold %q (want defect, maintainability or unresolved)", s)
}

// Summary describes one completed batch. Models and Enums count what was
// extracted; Declarations and ValidatedEnums count the distinct schema
// models checked and enums registered with the tracker.
type Summary struct {
	Packages        int                 `json:"packages"`
	SkippedPackages int                 `json:"skipped_packages"`
	SkippedFiles    int                 `json:"skipped_files"`
	Models          int                 `json:"models"`
	Enums           int                 `json:"enums"`
	Declarations    int                 `json:"declarations"`
	ValidatedEnums  int                 `json:"validated_enums"`
	Reconciliations int                 `json:"reconciliations"`
	Unresolved      int                 `json:"unresolved"`
	Counts          diag.Counts         `json:"counts"`
	Debt            time.Duration       `json:"debt"`
	Unchecked       []checker.Unchecked `json:"unchecked,omitempty"`
	Duration        time.Duration       `json:"duration"`
}

// Failed reports whether the batch fails under threshold t. Unresolved
// references fail every threshold.
func (s *Summary) Failed(t Threshold) bool {
	if s.Unresolved > 0 {
		return true
	}
	switch t {
	case FailOnUnresolved:
		return false
	case FailOnMaintainability:
		return s.Counts.AtLeast(diag.SeverityMaintainability) > 0
	default:
		return s.Counts.AtLeast(diag.SeverityDefect) > 0
	}
}
