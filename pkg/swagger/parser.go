package swagger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/simonhull/heron/pkg/logger"
)

// ErrUnsupportedVersion is returned by ParserFor for unknown schema versions.
var ErrUnsupportedVersion = errors.New("unsupported swagger version")

// Parser converts a raw schema document into a Model.
type Parser interface {
	Parse(data []byte) (*Model, error)
}

// ParseError reports a document that cannot be turned into a Model at all.
type ParseError struct {
	Version int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parsing swagger v%d document: %s", e.Version, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParserFor returns the parser for a schema version (2 or 3).
func ParserFor(version int, log logger.Logger) (Parser, error) {
	if log == nil {
		log = logger.Default()
	}
	switch version {
	case 2:
		return &V2Parser{logger: log}, nil
	case 3:
		return &V3Parser{logger: log}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
}

// collector accumulates definitions, dropping what cannot be used and
// recording why.
type collector struct {
	logger   logger.Logger
	defs     []Definition
	warnings []Warning
}

func (c *collector) skipProperty(def, prop string, err error) {
	w := Warning{Definition: def, Property: prop, Message: err.Error()}
	c.warnings = append(c.warnings, w)
	c.logger.Warn("Failed to parse swagger property",
		logger.F("definition", def),
		logger.F("property", prop),
		logger.F("error", err))
}

func (c *collector) add(name string, props []Property) {
	if len(props) == 0 {
		c.warnings = append(c.warnings, Warning{Definition: name, Message: "no properties defined"})
		c.logger.Warn("Skipping swagger definition, no properties defined", logger.F("definition", name))
		return
	}
	c.defs = append(c.defs, Definition{Name: name, Properties: props})
}

func (c *collector) model() *Model {
	return NewModel(c.defs, c.warnings...)
}

// shortRef reduces "#/definitions/Pet" or "#/components/schemas/Pet" to "Pet".
func shortRef(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// enumStrings stringifies enumeration values in document order.
func enumStrings(values []any) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		out = append(out, fmt.Sprint(v))
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
