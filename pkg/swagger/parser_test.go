package swagger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/heron/pkg/logger"
)

const petstoreV2 = `{
  "swagger": "2.0",
  "info": {"title": "Petstore", "version": "1.0.0"},
  "paths": {},
  "definitions": {
    "Pet": {
      "type": "object",
      "required": ["id", "name"],
      "properties": {
        "id": {"type": "integer", "format": "int64"},
        "name": {"type": "string"},
        "tag": {"type": "string"},
        "status": {"type": "string", "enum": ["available", "pending", "sold"]},
        "owner": {"$ref": "#/definitions/Person"},
        "photoUrls": {"type": "array", "items": {"type": "string", "format": "uri"}},
        "born": {"type": "string", "format": "date-time"},
        "weight": {"type": "number", "format": "double"},
        "vaccinated": {"type": "boolean"},
        "extra": {"type": "object"}
      }
    },
    "Person": {
      "properties": {
        "name": {"type": "string", "required": true}
      }
    },
    "Empty": {"type": "object"},
    "Broken": {
      "properties": {
        "things": {"type": "array"}
      }
    }
  }
}`

func parseV2(t *testing.T, doc string) *Model {
	t.Helper()
	p, err := ParserFor(2, logger.NewSilentLogger())
	require.NoError(t, err)
	m, err := p.Parse([]byte(doc))
	require.NoError(t, err)
	return m
}

func TestV2Parser_Normalization(t *testing.T) {
	m := parseV2(t, petstoreV2)

	assert.Equal(t, []string{"Person", "Pet"}, m.Names())

	pet, ok := m.Lookup("Pet")
	require.True(t, ok)
	assert.Len(t, pet.Properties, 9, "object-typed property must be dropped")

	id, ok := pet.Property("id")
	require.True(t, ok)
	assert.Equal(t, Integer, id.Type.Variant)
	assert.Equal(t, "int64", id.Type.Format)
	assert.True(t, id.Required)

	tag, _ := pet.Property("tag")
	assert.False(t, tag.Required)
	assert.Nil(t, tag.Type.Enum)

	status, _ := pet.Property("status")
	assert.Equal(t, String, status.Type.Variant)
	assert.Equal(t, []string{"available", "pending", "sold"}, status.Type.Enum)

	owner, _ := pet.Property("owner")
	assert.Equal(t, Ref, owner.Type.Variant)
	assert.Equal(t, "Person", owner.Type.ReferredType)

	photos, _ := pet.Property("photoUrls")
	assert.Equal(t, Array, photos.Type.Variant)
	require.NotNil(t, photos.Type.Inner)
	assert.Equal(t, String, photos.Type.Inner.Variant)
	assert.Equal(t, "uri", photos.Type.Inner.Format)

	born, _ := pet.Property("born")
	assert.Equal(t, "date-time", born.Type.Format)

	person, ok := m.Lookup("Person")
	require.True(t, ok)
	name, _ := person.Property("name")
	assert.True(t, name.Required, "property-level required flag")
}

func TestV2Parser_Warnings(t *testing.T) {
	m := parseV2(t, petstoreV2)

	_, ok := m.Lookup("Empty")
	assert.False(t, ok)
	_, ok = m.Lookup("Broken")
	assert.False(t, ok)

	var messages []string
	for _, w := range m.Warnings {
		messages = append(messages, w.String())
	}
	assert.Contains(t, messages, `'Broken' -> 'things': array property without items`)
	assert.Contains(t, messages, `'Broken': no properties defined`)
	assert.Contains(t, messages, `'Empty': no properties defined`)
	assert.Contains(t, messages, `'Pet' -> 'extra': unknown property type: "object"`)
}

func TestV2Parser_YAML(t *testing.T) {
	m := parseV2(t, `
swagger: "2.0"
definitions:
  Order:
    required: [quantity]
    properties:
      quantity:
        type: integer
        format: int32
      items:
        type: array
        items:
          $ref: '#/definitions/Item'
      codes:
        type: string
        enum: [1, 2]
`)

	order, ok := m.Lookup("Order")
	require.True(t, ok)

	qty, _ := order.Property("quantity")
	assert.True(t, qty.Required)
	assert.Equal(t, "int32", qty.Type.Format)

	items, _ := order.Property("items")
	require.NotNil(t, items.Type.Inner)
	assert.Equal(t, Ref, items.Type.Inner.Variant)
	assert.Equal(t, "Item", items.Type.Inner.ReferredType)

	codes, _ := order.Property("codes")
	assert.Equal(t, []string{"1", "2"}, codes.Type.Enum)
}

func TestV2Parser_ExplicitRefTagRejected(t *testing.T) {
	m := parseV2(t, `{"swagger": "2.0", "definitions": {"A": {"properties": {
		"b": {"type": "ref"},
		"c": {"type": "string"}
	}}}}`)

	a, ok := m.Lookup("A")
	require.True(t, ok)
	_, ok = a.Property("b")
	assert.False(t, ok)
	require.Len(t, m.Warnings, 1)
	assert.Equal(t, "b", m.Warnings[0].Property)
}

func TestV2Parser_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not a document", `{{{`},
		{"definitions not an object", `{"swagger": "2.0", "definitions": []}`},
		{"empty object", `{}`},
		{"wrong version", `{"swagger": "3.0", "definitions": {}}`},
	}

	p, err := ParserFor(2, logger.NewSilentLogger())
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse([]byte(tt.doc))
			var perr *ParseError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, 2, perr.Version)
		})
	}
}

func TestParserFor_Unsupported(t *testing.T) {
	_, err := ParserFor(4, nil)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestV3Parser(t *testing.T) {
	doc := `
openapi: 3.0.3
info:
  title: Petstore
  version: 1.0.0
paths: {}
components:
  schemas:
    Pet:
      type: object
      required: [name]
      properties:
        name:
          type: string
        owner:
          $ref: '#/components/schemas/Person'
        tags:
          type: array
          items:
            type: string
        kind:
          type: string
          enum: [cat, dog]
        meta:
          type: object
    Person:
      type: object
      properties:
        age:
          type: integer
`
	p, err := ParserFor(3, logger.NewSilentLogger())
	require.NoError(t, err)
	m, err := p.Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"Person", "Pet"}, m.Names())

	pet, _ := m.Lookup("Pet")
	assert.Len(t, pet.Properties, 4)

	name, _ := pet.Property("name")
	assert.True(t, name.Required)

	owner, _ := pet.Property("owner")
	assert.Equal(t, Ref, owner.Type.Variant)
	assert.Equal(t, "Person", owner.Type.ReferredType)

	tags, _ := pet.Property("tags")
	require.NotNil(t, tags.Type.Inner)
	assert.Equal(t, String, tags.Type.Inner.Variant)

	kind, _ := pet.Property("kind")
	assert.Equal(t, []string{"cat", "dog"}, kind.Type.Enum)

	require.Len(t, m.Warnings, 1)
	assert.Equal(t, "meta", m.Warnings[0].Property)
}

func TestV3Parser_Invalid(t *testing.T) {
	p, err := ParserFor(3, logger.NewSilentLogger())
	require.NoError(t, err)

	_, err = p.Parse([]byte(`not: [valid`))
	var perr *ParseError
	assert.True(t, errors.As(err, &perr))
}

func TestNewModel_SortsAndIndexes(t *testing.T) {
	m := NewModel([]Definition{
		{Name: "B", Properties: []Property{{Name: "z"}, {Name: "a"}}},
		{Name: "A", Properties: []Property{{Name: "x"}}},
	})

	assert.Equal(t, []string{"A", "B"}, m.Names())
	b, ok := m.Lookup("B")
	require.True(t, ok)
	assert.Equal(t, "a", b.Properties[0].Name)

	_, ok = m.Lookup("C")
	assert.False(t, ok)
}

func TestPropertyType_String(t *testing.T) {
	inner := PropertyType{Variant: String}
	assert.Equal(t, "array of string", PropertyType{Variant: Array, Inner: &inner}.String())
	assert.Equal(t, "$ref Pet", PropertyType{Variant: Ref, ReferredType: "Pet"}.String())
	assert.Equal(t, "integer(int64)", PropertyType{Variant: Integer, Format: "int64"}.String())
	assert.Equal(t, "string enum [A, B]", PropertyType{Variant: String, Enum: []string{"A", "B"}}.String())
}
