// Package tracker reconciles cross references between declarations that may
// be examined in any order and from any number of goroutines.
//
// A Tracker records two kinds of obligations: a schema definition that some
// field references and that must eventually be checked, and an enum whose
// values must match a schema enumeration. Obligations are satisfied the
// moment the missing side arrives, whichever side comes first. Whatever is
// still pending when the batch ends is reported by DrainUnresolved.
//
// Every operation runs its check-then-write logic under one mutex, so "is it
// already known?" and "if not, record it" can never interleave with another
// operation on the same name.
package tracker

import (
	"sort"
	"sync"

	"github.com/simonhull/heron/pkg/diag"
)

// RequiredDeclaration is a pending reference to a schema definition.
type RequiredDeclaration struct {
	SchemaName string
	Location   diag.Location
}

// RequiredEnum is a pending enum reconciliation.
type RequiredEnum struct {
	EnumName string
	Values   []string
	Location diag.Location
}

// Counters summarize a batch.
type Counters struct {
	Declarations    int // distinct schema names checked
	Reconciliations int // enum comparisons performed
	Enums           int // distinct enums seen
}

// Tracker holds the deferred-resolution state of one batch.
// The zero value is not usable; call New.
type Tracker struct {
	mu sync.Mutex

	completed     map[string]struct{}
	required      []RequiredDeclaration
	knownEnums    map[string][]string
	requiredEnums map[string][]RequiredEnum
	reconciled    []string
}

// New returns an empty tracker.
func New() *Tracker {
	t := &Tracker{}
	t.reset()
	return t
}

// Reset clears all state. It must be called before a batch starts and is
// safe to call whether or not the previous batch was drained.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reset()
}

func (t *Tracker) reset() {
	t.completed = make(map[string]struct{})
	t.required = nil
	t.knownEnums = make(map[string][]string)
	t.requiredEnums = make(map[string][]RequiredEnum)
	t.reconciled = nil
}

// MarkDeclarationValidated records that schemaName was checked against a
// declaration and cancels every pending requirement for it.
func (t *Tracker) MarkDeclarationValidated(schemaName string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.completed[schemaName] = struct{}{}

	kept := t.required[:0]
	for _, r := range t.required {
		if r.SchemaName != schemaName {
			kept = append(kept, r)
		}
	}
	t.required = kept
}

// RequireDeclaration records that schemaName must be checked before the
// batch ends. It is a no-op when schemaName was already checked.
func (t *Tracker) RequireDeclaration(schemaName string, loc diag.Location) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.completed[schemaName]; ok {
		return
	}
	t.required = append(t.required, RequiredDeclaration{SchemaName: schemaName, Location: loc})
}

// MarkEnumValidated records the values of enumName and reconciles every
// pending requirement for it. A later declaration of the same enum replaces
// the known values and is reconciled against requirements that arrive after it.
func (t *Tracker) MarkEnumValidated(enumName string, values []string) []diag.Diagnostic {
	t.mu.Lock()
	defer t.mu.Unlock()

	values = append([]string(nil), values...)
	t.knownEnums[enumName] = values

	var diags []diag.Diagnostic
	for _, r := range t.requiredEnums[enumName] {
		diags = append(diags, Reconcile(enumName, values, r.Values, r.Location)...)
		t.reconciled = append(t.reconciled, enumName)
	}
	delete(t.requiredEnums, enumName)
	return diags
}

// RequireEnum records that enumName must declare exactly values. When the
// enum is already known it is reconciled immediately and the resulting
// diagnostics are returned; otherwise reconciliation waits for
// MarkEnumValidated.
func (t *Tracker) RequireEnum(enumName string, values []string, loc diag.Location) []diag.Diagnostic {
	t.mu.Lock()
	defer t.mu.Unlock()

	values = append([]string(nil), values...)
	if known, ok := t.knownEnums[enumName]; ok {
		t.reconciled = append(t.reconciled, enumName)
		return Reconcile(enumName, known, values, loc)
	}

	t.requiredEnums[enumName] = append(t.requiredEnums[enumName], RequiredEnum{
		EnumName: enumName,
		Values:   values,
		Location: loc,
	})
	return nil
}

// DrainUnresolved reports every requirement that is still pending, one
// diagnostic per requiring call site, and clears them. Counters and
// completed names are kept until Reset.
func (t *Tracker) DrainUnresolved() []diag.Diagnostic {
	t.mu.Lock()
	defer t.mu.Unlock()

	required := append([]RequiredDeclaration(nil), t.required...)
	sort.SliceStable(required, func(i, j int) bool {
		if required[i].SchemaName != required[j].SchemaName {
			return required[i].SchemaName < required[j].SchemaName
		}
		return required[i].Location.Less(required[j].Location)
	})

	var enums []RequiredEnum
	for _, rs := range t.requiredEnums {
		enums = append(enums, rs...)
	}
	sort.SliceStable(enums, func(i, j int) bool {
		if enums[i].EnumName != enums[j].EnumName {
			return enums[i].EnumName < enums[j].EnumName
		}
		return enums[i].Location.Less(enums[j].Location)
	})

	diags := make([]diag.Diagnostic, 0, len(required)+len(enums))
	for _, r := range required {
		diags = append(diags, diag.New(diag.MissingTypeValidation, r.Location,
			"'%s' referenced in swagger was never checked. Is a swagger:model directive missing?", r.SchemaName))
	}
	for _, r := range enums {
		diags = append(diags, diag.New(diag.MissingEnumValidation, r.Location,
			"'%s' enum referenced in model was never checked. Is a swagger:enum directive missing?", r.EnumName))
	}

	t.required = nil
	t.requiredEnums = make(map[string][]RequiredEnum)
	return diags
}

// Pending returns copies of the outstanding requirements without clearing them.
func (t *Tracker) Pending() ([]RequiredDeclaration, []RequiredEnum) {
	t.mu.Lock()
	defer t.mu.Unlock()

	decls := append([]RequiredDeclaration(nil), t.required...)
	var enums []RequiredEnum
	for _, rs := range t.requiredEnums {
		enums = append(enums, rs...)
	}
	return decls, enums
}

// Counters reports batch totals.
func (t *Tracker) Counters() Counters {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Counters{
		Declarations:    len(t.completed),
		Reconciliations: len(t.reconciled),
		Enums:           len(t.knownEnums),
	}
}

// Reconciled returns how many reconciliations were performed per enum name.
func (t *Tracker) Reconciled() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()

	counts := make(map[string]int)
	for _, name := range t.reconciled {
		counts[name]++
	}
	return counts
}
