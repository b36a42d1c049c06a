package swagger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/simonhull/heron/pkg/logger"
)

// V3Parser reads OpenAPI 3.x documents and maps components.schemas onto the
// same normalized Model as V2Parser.
type V3Parser struct {
	logger logger.Logger
}

// Parse implements Parser.
func (p *V3Parser) Parse(data []byte) (*Model, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, &ParseError{Version: 3, Message: "invalid document", Err: err}
	}
	if doc.OpenAPI == "" {
		return nil, &ParseError{Version: 3, Message: "no openapi version found"}
	}

	c := &collector{logger: p.logger}
	if doc.Components == nil {
		return c.model(), nil
	}

	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ref := doc.Components.Schemas[name]
		if ref == nil || ref.Value == nil {
			c.add(name, nil)
			continue
		}
		schema := ref.Value

		propNames := make([]string, 0, len(schema.Properties))
		for propName := range schema.Properties {
			propNames = append(propNames, propName)
		}
		sort.Strings(propNames)

		props := make([]Property, 0, len(propNames))
		for _, propName := range propNames {
			typ, err := p.buildPropertyType(schema.Properties[propName])
			if err != nil {
				c.skipProperty(name, propName, err)
				continue
			}
			props = append(props, Property{
				Name:     propName,
				Type:     typ,
				Required: contains(schema.Required, propName),
			})
		}
		c.add(name, props)
	}

	return c.model(), nil
}

func (p *V3Parser) buildPropertyType(ref *openapi3.SchemaRef) (PropertyType, error) {
	if ref == nil {
		return PropertyType{}, errors.New("empty property schema")
	}
	if ref.Ref != "" {
		name := shortRef(ref.Ref)
		if name == "" {
			return PropertyType{}, fmt.Errorf("reference %q has no target name", ref.Ref)
		}
		return PropertyType{Variant: Ref, ReferredType: name}, nil
	}
	if ref.Value == nil {
		return PropertyType{}, errors.New("empty property schema")
	}
	s := ref.Value

	variant, err := variantOf(typeTag(s))
	if err != nil {
		return PropertyType{}, err
	}

	typ := PropertyType{Variant: variant, Format: s.Format}
	switch variant {
	case Array:
		if s.Items == nil {
			return PropertyType{}, errors.New("array property without items")
		}
		inner, err := p.buildPropertyType(s.Items)
		if err != nil {
			return PropertyType{}, fmt.Errorf("items: %w", err)
		}
		typ.Inner = &inner
	case String:
		typ.Enum = enumStrings(s.Enum)
	case Ref:
		return PropertyType{}, errors.New("ref type without $ref")
	}
	return typ, nil
}

// typeTag picks the first non-null type; OpenAPI 3.1 allows ["string", "null"].
func typeTag(s *openapi3.Schema) string {
	if s.Type == nil {
		return ""
	}
	for _, t := range s.Type.Slice() {
		if t != "null" {
			return t
		}
	}
	return ""
}
