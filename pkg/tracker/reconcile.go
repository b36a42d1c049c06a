package tracker

import (
	"strings"

	"github.com/simonhull/heron/pkg/diag"
)

// Reconcile diffs the values an enum declares against the values the schema
// requires. Missing and extra values are reported independently, each in the
// order of its input sequence.
func Reconcile(enumName string, known, required []string, loc diag.Location) []diag.Diagnostic {
	missing := difference(required, known)
	extra := difference(known, required)

	var diags []diag.Diagnostic
	if len(missing) > 0 {
		diags = append(diags, diag.New(diag.MissingEnumValue, loc,
			"'%s' enum class is missing some values defined in swagger: (%s)",
			enumName, strings.Join(missing, ", ")))
	}
	if len(extra) > 0 {
		diags = append(diags, diag.New(diag.ExtraEnumValue, loc,
			"'%s' enum class is defining more items than swagger: (%s)",
			enumName, strings.Join(extra, ", ")))
	}
	return diags
}

// difference returns the members of a absent from b, keeping a's order.
func difference(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, v := range b {
		set[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := set[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
