// Package swagger parses API schema documents into a normalized, read-only
// model of named definitions and their typed properties.
//
// A Model is built once per batch and is safe for concurrent read access.
package swagger

import (
	"fmt"
	"sort"
	"strings"
)

// Variant is the primitive shape of a property.
type Variant int

const (
	String Variant = iota
	Number
	Integer
	Boolean
	Array
	Ref
)

func (v Variant) String() string {
	switch v {
	case String:
		return "string"
	case Number:
		return "number"
	case Integer:
		return "integer"
	case Boolean:
		return "boolean"
	case Array:
		return "array"
	case Ref:
		return "ref"
	default:
		return "unknown"
	}
}

// variantOf maps a document type tag to its variant.
func variantOf(tag string) (Variant, error) {
	switch tag {
	case "string":
		return String, nil
	case "number":
		return Number, nil
	case "integer":
		return Integer, nil
	case "boolean":
		return Boolean, nil
	case "array":
		return Array, nil
	case "ref":
		return Ref, nil
	}
	return 0, fmt.Errorf("unknown property type: %q", tag)
}

// PropertyType describes the type of a property.
//
// ReferredType is set iff Variant is Ref, Inner iff Variant is Array. Enum is
// only populated for String properties constrained to an enumeration.
type PropertyType struct {
	Variant      Variant
	Format       string
	ReferredType string
	Inner        *PropertyType
	Enum         []string
}

func (t PropertyType) String() string {
	switch {
	case t.Variant == Ref:
		return "$ref " + t.ReferredType
	case t.Variant == Array && t.Inner != nil:
		return "array of " + t.Inner.String()
	case len(t.Enum) > 0:
		return fmt.Sprintf("%s enum [%s]", t.Variant, strings.Join(t.Enum, ", "))
	case t.Format != "":
		return fmt.Sprintf("%s(%s)", t.Variant, t.Format)
	default:
		return t.Variant.String()
	}
}

// Property is a named, typed member of a definition.
type Property struct {
	Name     string
	Type     PropertyType
	Required bool
}

// Definition is a named schema type.
type Definition struct {
	Name       string
	Properties []Property
}

// Property returns the property with the given name.
func (d *Definition) Property(name string) (Property, bool) {
	for _, p := range d.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Warning records something the parser skipped instead of failing.
type Warning struct {
	Definition string
	Property   string // empty when the whole definition was skipped
	Message    string
}

func (w Warning) String() string {
	if w.Property == "" {
		return fmt.Sprintf("'%s': %s", w.Definition, w.Message)
	}
	return fmt.Sprintf("'%s' -> '%s': %s", w.Definition, w.Property, w.Message)
}

// Model is the normalized schema document.
type Model struct {
	Definitions []Definition
	Warnings    []Warning

	index map[string]int
}

// NewModel builds a model from definitions. Definitions and their
// properties are sorted by name; a later duplicate name replaces an earlier one.
func NewModel(defs []Definition, warnings ...Warning) *Model {
	byName := make(map[string]Definition, len(defs))
	for _, def := range defs {
		props := append([]Property(nil), def.Properties...)
		sort.Slice(props, func(i, j int) bool { return props[i].Name < props[j].Name })
		def.Properties = props
		byName[def.Name] = def
	}

	m := &Model{
		Definitions: make([]Definition, 0, len(byName)),
		Warnings:    warnings,
		index:       make(map[string]int, len(byName)),
	}
	for _, def := range byName {
		m.Definitions = append(m.Definitions, def)
	}
	sort.Slice(m.Definitions, func(i, j int) bool { return m.Definitions[i].Name < m.Definitions[j].Name })
	for i, def := range m.Definitions {
		m.index[def.Name] = i
	}
	return m
}

// Lookup finds a definition by name.
func (m *Model) Lookup(name string) (*Definition, bool) {
	i, ok := m.index[name]
	if !ok {
		return nil, false
	}
	return &m.Definitions[i], true
}

// Names lists definition names in sorted order.
func (m *Model) Names() []string {
	names := make([]string, len(m.Definitions))
	for i, def := range m.Definitions {
		names[i] = def.Name
	}
	return names
}
