package checker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/heron/pkg/diag"
	"github.com/simonhull/heron/pkg/model"
	"github.com/simonhull/heron/pkg/swagger"
	"github.com/simonhull/heron/pkg/tracker"
)

func at(line int) diag.Location {
	return diag.Location{File: "pet.go", Line: line, Column: 2}
}

func prop(name string, required bool, typ swagger.PropertyType) swagger.Property {
	return swagger.Property{Name: name, Type: typ, Required: required}
}

func field(name string, typ model.FieldType, line int) model.Field {
	return model.Field{Name: name, GoName: name, Type: typ, Location: at(line)}
}

func decl(name string, fields ...model.Field) *model.Declaration {
	return &model.Declaration{Name: name, Fields: fields, Location: at(1)}
}

func schemaOf(defs ...swagger.Definition) *swagger.Model {
	return swagger.NewModel(defs)
}

func kinds(diags []diag.Diagnostic) []diag.Kind {
	out := make([]diag.Kind, len(diags))
	for i, d := range diags {
		out[i] = d.Kind
	}
	return out
}

func TestCheck_ScenarioA_ConformingModel(t *testing.T) {
	tr := tracker.New()
	c := New(schemaOf(swagger.Definition{
		Name:       "Pet",
		Properties: []swagger.Property{prop("name", true, swagger.PropertyType{Variant: swagger.String})},
	}), tr)

	res := c.Check(decl("Pet", field("name", model.NewType("string", false), 2)))

	assert.Empty(t, res.Diagnostics)
	assert.Empty(t, res.Unchecked)
	assert.Equal(t, 1, tr.Counters().Declarations)
}

func TestCheck_ScenarioB_NullableRequiredField(t *testing.T) {
	c := New(schemaOf(swagger.Definition{
		Name:       "Pet",
		Properties: []swagger.Property{prop("name", true, swagger.PropertyType{Variant: swagger.String})},
	}), tracker.New())

	res := c.Check(decl("Pet", field("name", model.NewType("string", true), 2)))

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.FieldCanBeNonOptional, res.Diagnostics[0].Kind)
	assert.Equal(t, diag.SeverityMaintainability, res.Diagnostics[0].Severity)
	assert.Equal(t, at(2), res.Diagnostics[0].Location)
}

func TestCheck_OptionalPropertyNonNullField(t *testing.T) {
	c := New(schemaOf(swagger.Definition{
		Name:       "Pet",
		Properties: []swagger.Property{prop("tag", false, swagger.PropertyType{Variant: swagger.String})},
	}), tracker.New())

	res := c.Check(decl("Pet", field("tag", model.NewType("string", false), 3)))

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.FieldShouldBeOptional, res.Diagnostics[0].Kind)
	assert.Equal(t, diag.SeverityDefect, res.Diagnostics[0].Severity)
}

func TestCheck_ScenarioC_RawStringCouldBeEnum(t *testing.T) {
	tr := tracker.New()
	c := New(schemaOf(swagger.Definition{
		Name: "Pet",
		Properties: []swagger.Property{prop("status", true, swagger.PropertyType{
			Variant: swagger.String,
			Enum:    []string{"A", "B"},
		})},
	}), tr)

	res := c.Check(decl("Pet", field("status", model.NewType("string", false), 4)))

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.StringCouldBeEnum, res.Diagnostics[0].Kind)
	_, enums := tr.Pending()
	assert.Empty(t, enums, "raw strings are not registered with the tracker")
}

func TestCheck_ScenarioD_UnresolvedEnum(t *testing.T) {
	tr := tracker.New()
	c := New(schemaOf(swagger.Definition{
		Name: "Pet",
		Properties: []swagger.Property{prop("status", true, swagger.PropertyType{
			Variant: swagger.String,
			Enum:    []string{"A", "B"},
		})},
	}), tr)

	res := c.Check(decl("Pet", field("status", model.NewType("StatusEnumType", false), 4)))
	assert.Empty(t, res.Diagnostics)

	drained := tr.DrainUnresolved()
	require.Len(t, drained, 1)
	assert.Equal(t, diag.MissingEnumValidation, drained[0].Kind)
	assert.Contains(t, drained[0].Message, "StatusEnumType")
	assert.Equal(t, at(4), drained[0].Location)
}

func TestCheck_EnumAlreadyKnown_ReconcilesImmediately(t *testing.T) {
	tr := tracker.New()
	tr.MarkEnumValidated("Status", []string{"A"})
	c := New(schemaOf(swagger.Definition{
		Name: "Pet",
		Properties: []swagger.Property{prop("status", true, swagger.PropertyType{
			Variant: swagger.String,
			Enum:    []string{"A", "B"},
		})},
	}), tr)

	res := c.Check(decl("Pet", field("status", model.NewType("Status", false), 4)))

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.MissingEnumValue, res.Diagnostics[0].Kind)
	assert.Equal(t, at(4), res.Diagnostics[0].Location)
}

func TestCheck_QualifiedEnumTypeRequiresBaseName(t *testing.T) {
	tr := tracker.New()
	tr.MarkEnumValidated("Status", []string{"A", "B"})
	c := New(schemaOf(swagger.Definition{
		Name: "Pet",
		Properties: []swagger.Property{prop("status", true, swagger.PropertyType{
			Variant: swagger.String,
			Enum:    []string{"A", "B"},
		})},
	}), tr)

	res := c.Check(decl("Pet", field("status", model.NewType("enums.Status", false), 4)))

	assert.Empty(t, res.Diagnostics)
	assert.Empty(t, tr.DrainUnresolved())
	assert.Equal(t, map[string]int{"Status": 1}, tr.Reconciled())
}

func TestCheck_ScenarioE_RefResolvedInAnyOrder(t *testing.T) {
	schema := schemaOf(
		swagger.Definition{
			Name: "Pet",
			Properties: []swagger.Property{prop("owner", true, swagger.PropertyType{
				Variant:      swagger.Ref,
				ReferredType: "Person",
			})},
		},
		swagger.Definition{
			Name:       "Person",
			Properties: []swagger.Property{prop("name", true, swagger.PropertyType{Variant: swagger.String})},
		},
	)
	pet := decl("Pet", field("owner", model.NewType("Person", false), 2))
	person := decl("Person", field("name", model.NewType("string", false), 8))

	for name, order := range map[string][]*model.Declaration{
		"pet first":    {pet, person},
		"person first": {person, pet},
	} {
		t.Run(name, func(t *testing.T) {
			tr := tracker.New()
			c := New(schema, tr)
			for _, d := range order {
				assert.Empty(t, c.Check(d).Diagnostics)
			}
			assert.Empty(t, tr.DrainUnresolved())
			assert.Equal(t, 2, tr.Counters().Declarations)
		})
	}
}

func TestCheck_RefRegistersReferredSchemaName(t *testing.T) {
	tr := tracker.New()
	c := New(schemaOf(swagger.Definition{
		Name: "Pet",
		Properties: []swagger.Property{prop("owner", false, swagger.PropertyType{
			Variant:      swagger.Ref,
			ReferredType: "Person",
		})},
	}), tr)

	// The Go type name differs from the schema name it refers to.
	c.Check(decl("Pet", field("owner", model.NewType("OwnerDTO", true), 2)))

	decls, _ := tr.Pending()
	require.Len(t, decls, 1)
	assert.Equal(t, "Person", decls[0].SchemaName)
}

func TestCheck_ModelNotFound(t *testing.T) {
	tr := tracker.New()
	c := New(schemaOf(), tr)

	res := c.Check(decl("Ghost", field("name", model.NewType("string", false), 2)))

	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.ModelNotFound, res.Diagnostics[0].Kind)
	assert.Equal(t, "'Ghost' model class not found in swagger", res.Diagnostics[0].Message)
	assert.Equal(t, at(1), res.Diagnostics[0].Location)
	assert.Equal(t, 0, tr.Counters().Declarations)
}

func TestCheck_PresenceBothDirectionsShareKind(t *testing.T) {
	c := New(schemaOf(swagger.Definition{
		Name: "Pet",
		Properties: []swagger.Property{
			prop("id", true, swagger.PropertyType{Variant: swagger.Integer, Format: "int64"}),
			prop("name", true, swagger.PropertyType{Variant: swagger.String}),
		},
	}), tracker.New())

	res := c.Check(decl("Pet",
		field("name", model.NewType("string", false), 2),
		field("nickname", model.NewType("string", true), 3),
	))

	require.Len(t, res.Diagnostics, 2)
	assert.Equal(t, []diag.Kind{diag.FieldNotDeclared, diag.FieldNotDeclared}, kinds(res.Diagnostics))
	assert.Equal(t, "'id' property defined in swagger not found in model!", res.Diagnostics[0].Message)
	assert.Equal(t, at(1), res.Diagnostics[0].Location)
	assert.Equal(t, "'nickname' property defined in model but not in swagger!", res.Diagnostics[1].Message)
	assert.Equal(t, at(3), res.Diagnostics[1].Location)
}

func TestCheck_GenericFieldsAreUnchecked(t *testing.T) {
	c := New(schemaOf(swagger.Definition{
		Name: "Pet",
		Properties: []swagger.Property{prop("tags", true, swagger.PropertyType{
			Variant: swagger.Array,
			Inner:   &swagger.PropertyType{Variant: swagger.String},
		})},
	}), tracker.New())

	// []int would not match string items, but elements are not compared.
	tags := model.NewGeneric("[]", false, model.NewType("int", false))
	res := c.Check(decl("Pet", field("tags", tags, 5)))

	assert.Empty(t, res.Diagnostics)
	require.Len(t, res.Unchecked, 1)
	assert.Equal(t, "Pet", res.Unchecked[0].Model)
	assert.Equal(t, "tags", res.Unchecked[0].Field)
	assert.Equal(t, "[]int", res.Unchecked[0].Type)
	assert.Equal(t, at(5), res.Unchecked[0].Location)
}

func TestCheck_GenericFieldStillChecksNullability(t *testing.T) {
	c := New(schemaOf(swagger.Definition{
		Name: "Pet",
		Properties: []swagger.Property{prop("tags", false, swagger.PropertyType{
			Variant: swagger.Array,
			Inner:   &swagger.PropertyType{Variant: swagger.String},
		})},
	}), tracker.New())

	tags := model.NewGeneric("[]", false, model.NewType("string", false))
	res := c.Check(decl("Pet", field("tags", tags, 5)))

	assert.Equal(t, []diag.Kind{diag.FieldShouldBeOptional}, kinds(res.Diagnostics))
	assert.Len(t, res.Unchecked, 1)
}

func TestCheck_PrimitiveMatrix(t *testing.T) {
	str := func(format string) swagger.PropertyType {
		return swagger.PropertyType{Variant: swagger.String, Format: format}
	}
	num := func(format string) swagger.PropertyType {
		return swagger.PropertyType{Variant: swagger.Number, Format: format}
	}
	integer := func(format string) swagger.PropertyType {
		return swagger.PropertyType{Variant: swagger.Integer, Format: format}
	}
	array := swagger.PropertyType{Variant: swagger.Array, Inner: &swagger.PropertyType{Variant: swagger.String}}
	boolean := swagger.PropertyType{Variant: swagger.Boolean}

	tests := []struct {
		name     string
		prop     swagger.PropertyType
		goType   string
		mismatch bool
	}{
		{"string/string", str(""), "string", false},
		{"string/int", str(""), "int", true},
		{"string/time", str(""), "time.Time", true},
		{"date-time/time", str("date-time"), "time.Time", false},
		{"date-time/string", str("date-time"), "string", false},
		{"date/time", str("date"), "time.Time", false},
		{"date/int64", str("date"), "int64", true},
		{"byte/bytes", str("byte"), "[]byte", false},
		{"byte/raw json", str("byte"), "json.RawMessage", false},
		{"byte/string", str("byte"), "string", false},
		{"byte/bool", str("byte"), "bool", true},
		{"uuid/string", str("uuid"), "string", false},

		{"number integer/int32", num("integer"), "int32", false},
		{"number int32/int64", num("int32"), "int64", false},
		{"number int32/float", num("int32"), "float64", true},
		{"number int64/int64", num("int64"), "int64", false},
		{"number int64/int32", num("int64"), "int32", true},
		{"number double/float64", num("double"), "float64", false},
		{"number float/float32", num("float"), "float32", false},
		{"number double/int", num("double"), "int", true},
		{"number/json.Number", num(""), "json.Number", false},
		{"number/decimal", num(""), "decimal.Decimal", false},
		{"number/float64", num(""), "float64", true},

		{"integer int64/int64", integer("int64"), "int64", false},
		{"integer int64/int", integer("int64"), "int", false},
		{"integer int64/int32", integer("int64"), "int32", true},
		{"integer int32/int32", integer("int32"), "int32", false},
		{"integer int32/int64", integer("int32"), "int64", false},
		{"integer/int16", integer(""), "int16", false},
		{"integer integer/uint64", integer("integer"), "uint64", false},
		{"integer/string", integer(""), "string", true},
		{"integer unknown format", integer("int128"), "int64", true},

		{"boolean/bool", boolean, "bool", false},
		{"boolean/string", boolean, "string", true},

		{"array/pq collection", array, "pq.StringArray", false},
		{"array/string", array, "string", true},
		{"array/named", array, "Tags", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(schemaOf(swagger.Definition{
				Name:       "Pet",
				Properties: []swagger.Property{prop("value", true, tt.prop)},
			}), tracker.New())

			res := c.Check(decl("Pet", field("value", model.NewType(tt.goType, false), 2)))

			if !tt.mismatch {
				assert.Empty(t, res.Diagnostics)
				return
			}
			require.Len(t, res.Diagnostics, 1)
			assert.Equal(t, diag.FieldTypesMismatch, res.Diagnostics[0].Kind)
			assert.Contains(t, res.Diagnostics[0].Message, "'"+tt.goType+"'")
			assert.Equal(t, at(2), res.Diagnostics[0].Location)
		})
	}
}

func TestCheck_MismatchMessages(t *testing.T) {
	tests := []struct {
		name   string
		prop   swagger.PropertyType
		goType string
		want   string
	}{
		{
			name:   "single accepted type",
			prop:   swagger.PropertyType{Variant: swagger.Boolean},
			goType: "string",
			want:   "Model type mismatch, expected: 'bool' but got: 'string'",
		},
		{
			name:   "several accepted types",
			prop:   swagger.PropertyType{Variant: swagger.Number, Format: "double"},
			goType: "int",
			want:   "Model type mismatch, expected one of: [float32, float64] but got: 'int'",
		},
		{
			name:   "unknown integer format",
			prop:   swagger.PropertyType{Variant: swagger.Integer, Format: "int128"},
			goType: "int64",
			want:   "Model type mismatch, expected: '<error, unknown swagger format for integer: int128>' but got: 'int64'",
		},
		{
			name:   "array",
			prop:   swagger.PropertyType{Variant: swagger.Array, Inner: &swagger.PropertyType{Variant: swagger.String}},
			goType: "string",
			want:   "Model type mismatch, expected a collection type, but got: 'string'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(schemaOf(swagger.Definition{
				Name:       "Pet",
				Properties: []swagger.Property{prop("value", true, tt.prop)},
			}), tracker.New())

			res := c.Check(decl("Pet", field("value", model.NewType(tt.goType, false), 2)))

			require.Len(t, res.Diagnostics, 1)
			assert.Equal(t, tt.want, res.Diagnostics[0].Message)
		})
	}
}

func TestCheck_CollectionArrayIsMarkedUnchecked(t *testing.T) {
	c := New(schemaOf(swagger.Definition{
		Name: "Pet",
		Properties: []swagger.Property{prop("tags", true, swagger.PropertyType{
			Variant: swagger.Array,
			Inner:   &swagger.PropertyType{Variant: swagger.String},
		})},
	}), tracker.New())

	res := c.Check(decl("Pet", field("tags", model.NewType("pq.StringArray", false), 2)))

	assert.Empty(t, res.Diagnostics)
	require.Len(t, res.Unchecked, 1)
	assert.Equal(t, "pq.StringArray", res.Unchecked[0].Type)
}
