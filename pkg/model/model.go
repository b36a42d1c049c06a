// Package model holds the declarations the extractor hands to the checker:
// structs claiming to implement a schema definition and enums whose values
// must match a schema enumeration.
package model

import (
	"strings"

	"github.com/simonhull/heron/pkg/diag"
)

// FieldType is the declared type of a model field.
type FieldType struct {
	Name     string      // Go spelling without the pointer, e.g. "time.Time", "[]", "map"
	Kind     Kind        // semantic kind, KindNamed for user types and containers
	Nullable bool        // pointer types
	Generic  bool        // parameterized containers: slices, arrays, maps, instantiations
	Params   []FieldType // element/key/value types when Generic
}

// NewType builds a non-generic type, resolving its kind from the registry.
func NewType(name string, nullable bool) FieldType {
	return FieldType{Name: name, Kind: KindOf(name), Nullable: nullable}
}

// BaseName is Name without its package qualifier, so "enums.Status" and
// "Status" name the same declaration.
func (t FieldType) BaseName() string {
	if i := strings.LastIndexByte(t.Name, '.'); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

// NewGeneric builds a container type with the given parameters.
func NewGeneric(name string, nullable bool, params ...FieldType) FieldType {
	return FieldType{Name: name, Kind: KindNamed, Nullable: nullable, Generic: true, Params: params}
}

// String renders the type roughly as it appears in Go source.
func (t FieldType) String() string {
	var b strings.Builder
	if t.Nullable {
		b.WriteByte('*')
	}
	switch {
	case !t.Generic:
		b.WriteString(t.Name)
	case t.Name == "[]" && len(t.Params) == 1:
		b.WriteString("[]" + t.Params[0].String())
	case t.Name == "map" && len(t.Params) == 2:
		b.WriteString("map[" + t.Params[0].String() + "]" + t.Params[1].String())
	default:
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = p.String()
		}
		b.WriteString(t.Name + "[" + strings.Join(params, ", ") + "]")
	}
	return b.String()
}

// Field is one model field. Name is the wire name compared with schema
// property names, after any struct tag override.
type Field struct {
	Name     string
	GoName   string
	Type     FieldType
	Location diag.Location
}

// Declaration is a model type claiming the schema definition Name.
type Declaration struct {
	Name     string
	Fields   []Field
	Location diag.Location
}

// Field returns the field with the given wire name.
func (d *Declaration) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Enum is an enumeration type and its resolved wire values in source order.
// Name is the Go type name, the name fields refer to it by.
type Enum struct {
	Name     string
	Values   []string
	Location diag.Location
}
