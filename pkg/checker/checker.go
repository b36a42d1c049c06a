// Package checker compares one model declaration against its schema
// definition: field presence, nullability, and primitive type and format.
//
// Cross references (nested models, enums) are handed to a tracker, which
// resolves them once the referenced declaration has been examined.
package checker

import (
	"fmt"
	"strings"

	"github.com/simonhull/heron/pkg/diag"
	"github.com/simonhull/heron/pkg/model"
	"github.com/simonhull/heron/pkg/swagger"
)

// Tracker is the part of tracker.Tracker the checker depends on.
type Tracker interface {
	MarkDeclarationValidated(schemaName string)
	RequireDeclaration(schemaName string, loc diag.Location)
	RequireEnum(enumName string, values []string, loc diag.Location) []diag.Diagnostic
}

// Unchecked marks a field whose element types were not compared with the
// schema. Generic containers and arrays are only checked at the outer level.
type Unchecked struct {
	Model    string        `json:"model"`
	Field    string        `json:"field"`
	Type     string        `json:"type"`
	Location diag.Location `json:"location"`
	Reason   string        `json:"reason"`
}

// Result is the outcome of checking one declaration.
type Result struct {
	Diagnostics []diag.Diagnostic
	Unchecked   []Unchecked
}

func (r *Result) report(kind diag.Kind, loc diag.Location, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, diag.New(kind, loc, format, args...))
}

// Checker checks declarations against a schema model. It is safe for
// concurrent use when its tracker is.
type Checker struct {
	schema  *swagger.Model
	tracker Tracker
}

// New returns a checker for schema that records cross references in t.
func New(schema *swagger.Model, t Tracker) *Checker {
	return &Checker{schema: schema, tracker: t}
}

// Check compares decl with the schema definition of the same name.
func (c *Checker) Check(decl *model.Declaration) *Result {
	result := &Result{}

	def, ok := c.schema.Lookup(decl.Name)
	if !ok {
		result.report(diag.ModelNotFound, decl.Location,
			"'%s' model class not found in swagger", decl.Name)
		return result
	}

	c.tracker.MarkDeclarationValidated(decl.Name)

	for _, prop := range def.Properties {
		field, ok := decl.Field(prop.Name)
		if !ok {
			result.report(diag.FieldNotDeclared, decl.Location,
				"'%s' property defined in swagger not found in model!", prop.Name)
			continue
		}
		c.validateFormat(result, decl, field, prop)
	}

	for _, field := range decl.Fields {
		if _, ok := def.Property(field.Name); !ok {
			result.report(diag.FieldNotDeclared, field.Location,
				"'%s' property defined in model but not in swagger!", field.Name)
		}
	}

	return result
}

func (c *Checker) validateFormat(result *Result, decl *model.Declaration, field model.Field, prop swagger.Property) {
	if prop.Required == field.Type.Nullable {
		if prop.Required {
			result.report(diag.FieldCanBeNonOptional, field.Location,
				"'%s' property is marked non-null in swagger but was nullable in model", prop.Name)
		} else {
			result.report(diag.FieldShouldBeOptional, field.Location,
				"'%s' property is marked nullable in swagger but was non-null in model", prop.Name)
		}
	}

	if field.Type.Generic {
		// Element types are not compared; the field is reported as unchecked.
		result.Unchecked = append(result.Unchecked, Unchecked{
			Model:    decl.Name,
			Field:    field.Name,
			Type:     field.Type.String(),
			Location: field.Location,
			Reason:   fmt.Sprintf("element types of %s are not checked against swagger %s", field.Type, prop.Type),
		})
		return
	}

	c.validateNonGeneric(result, decl, field, prop)
}

func (c *Checker) validateNonGeneric(result *Result, decl *model.Declaration, field model.Field, prop swagger.Property) {
	typ := field.Type
	loc := field.Location

	switch prop.Type.Variant {
	case swagger.String:
		if prop.Type.Enum != nil {
			if typ.Name == "string" {
				result.report(diag.StringCouldBeEnum, loc, "Raw string could be converted to an enum")
				return
			}
			result.Diagnostics = append(result.Diagnostics,
				c.tracker.RequireEnum(typ.BaseName(), prop.Type.Enum, loc)...)
			return
		}
		switch prop.Type.Format {
		case "date-time", "date":
			expectOneOf(result, loc, typ, model.KindString, model.KindDateTime)
		case "byte":
			expectOneOf(result, loc, typ, model.KindString, model.KindBytes)
		default:
			expectOneOf(result, loc, typ, model.KindString)
		}

	case swagger.Number:
		switch prop.Type.Format {
		case "integer", "int32":
			expectOneOf(result, loc, typ, model.KindInt32, model.KindInt64)
		case "int64":
			expectOneOf(result, loc, typ, model.KindInt64)
		case "double", "float":
			expectOneOf(result, loc, typ, model.KindFloat)
		default:
			expectOneOf(result, loc, typ, model.KindNumber)
		}

	case swagger.Integer:
		switch prop.Type.Format {
		case "int64":
			expectOneOf(result, loc, typ, model.KindInt64)
		case "integer", "int32", "":
			expectOneOf(result, loc, typ, model.KindInt32, model.KindInt64)
		default:
			result.report(diag.FieldTypesMismatch, loc,
				"Model type mismatch, expected: '<error, unknown swagger format for integer: %s>' but got: '%s'",
				prop.Type.Format, typ.Name)
		}

	case swagger.Boolean:
		expectOneOf(result, loc, typ, model.KindBool)

	case swagger.Array:
		if typ.Kind == model.KindCollection {
			result.Unchecked = append(result.Unchecked, Unchecked{
				Model:    decl.Name,
				Field:    field.Name,
				Type:     typ.String(),
				Location: loc,
				Reason:   fmt.Sprintf("element type of %s is not checked against swagger %s", typ.Name, prop.Type),
			})
			return
		}
		result.report(diag.FieldTypesMismatch, loc,
			"Model type mismatch, expected a collection type, but got: '%s'", typ.Name)

	case swagger.Ref:
		c.tracker.RequireDeclaration(prop.Type.ReferredType, loc)
	}
}

// expectOneOf reports a mismatch unless typ has one of the accepted kinds.
func expectOneOf(result *Result, loc diag.Location, typ model.FieldType, accepted ...model.Kind) {
	for _, k := range accepted {
		if typ.Kind == k {
			return
		}
	}

	var names []string
	for _, k := range accepted {
		names = append(names, model.TypeNames(k)...)
	}

	if len(names) == 1 {
		result.report(diag.FieldTypesMismatch, loc,
			"Model type mismatch, expected: '%s' but got: '%s'", names[0], typ.Name)
		return
	}
	result.report(diag.FieldTypesMismatch, loc,
		"Model type mismatch, expected one of: [%s] but got: '%s'", strings.Join(names, ", "), typ.Name)
}
