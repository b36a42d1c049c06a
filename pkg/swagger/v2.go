package swagger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/simonhull/heron/pkg/logger"
)

// V2Parser reads Swagger 2.0 documents in JSON or YAML form.
type V2Parser struct {
	logger logger.Logger
}

type v2Document struct {
	Swagger     string               `json:"swagger"`
	Definitions map[string]*v2Schema `json:"definitions"`
}

type v2Schema struct {
	Ref        string               `json:"$ref"`
	Type       string               `json:"type"`
	Format     string               `json:"format"`
	Items      *v2Schema            `json:"items"`
	Enum       []any                `json:"enum"`
	Required   v2Required           `json:"required"`
	Properties map[string]*v2Schema `json:"properties"`
}

// v2Required accepts both the object-level list of required property names
// and a property-level boolean.
type v2Required struct {
	Flag  bool
	Names []string
}

func (r *v2Required) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '[' {
		return json.Unmarshal(data, &r.Names)
	}
	return json.Unmarshal(data, &r.Flag)
}

// Parse implements Parser.
func (p *V2Parser) Parse(data []byte) (*Model, error) {
	var doc v2Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Version: 2, Message: "invalid document", Err: err}
	}
	if doc.Swagger == "" && doc.Definitions == nil {
		return nil, &ParseError{Version: 2, Message: "no swagger version or definitions found"}
	}
	if doc.Swagger != "" && !strings.HasPrefix(doc.Swagger, "2") {
		return nil, &ParseError{Version: 2, Message: fmt.Sprintf("document declares swagger %q", doc.Swagger)}
	}

	c := &collector{logger: p.logger}

	names := make([]string, 0, len(doc.Definitions))
	for name := range doc.Definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := doc.Definitions[name]
		if def == nil {
			c.add(name, nil)
			continue
		}

		propNames := make([]string, 0, len(def.Properties))
		for propName := range def.Properties {
			propNames = append(propNames, propName)
		}
		sort.Strings(propNames)

		props := make([]Property, 0, len(propNames))
		for _, propName := range propNames {
			prop := def.Properties[propName]
			typ, err := p.buildPropertyType(prop)
			if err != nil {
				c.skipProperty(name, propName, err)
				continue
			}
			props = append(props, Property{
				Name:     propName,
				Type:     typ,
				Required: prop.Required.Flag || contains(def.Required.Names, propName),
			})
		}
		c.add(name, props)
	}

	return c.model(), nil
}

func (p *V2Parser) buildPropertyType(s *v2Schema) (PropertyType, error) {
	if s == nil {
		return PropertyType{}, errors.New("empty property schema")
	}

	if s.Ref != "" {
		name := shortRef(s.Ref)
		if name == "" {
			return PropertyType{}, fmt.Errorf("reference %q has no target name", s.Ref)
		}
		return PropertyType{Variant: Ref, ReferredType: name, Format: s.Format}, nil
	}

	variant, err := variantOf(s.Type)
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
		// "ref" is only derived from $ref, never spelled as a type tag.
		return PropertyType{}, errors.New("ref type without $ref")
	}
	return typ, nil
}
