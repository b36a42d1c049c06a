// Package extractor reads Go source and collects the declarations that claim
// to implement schema definitions.
//
// A model is a struct whose doc comment carries a directive:
//
//	// swagger:model Pet
//	type PetDTO struct {
//	    Name  string  `json:"name"`
//	    Owner *Person `json:"owner,omitempty"`
//	}
//
// The model directive's name argument is optional and defaults to the type
// name. An enum is a named type carrying `swagger:enum`; its values are the
// typed constants of that type declared in the same package. Fields refer to
// an enum by its Go type, so an enum is always known by its type name.
//
// A file that does not parse is logged and skipped; the rest of its package
// is still extracted.
package extractor

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/simonhull/heron/pkg/diag"
	"github.com/simonhull/heron/pkg/logger"
	"github.com/simonhull/heron/pkg/model"
)

const (
	modelDirective = "swagger:model"
	enumDirective  = "swagger:enum"
)

// Unit is everything extracted from one package directory.
type Unit struct {
	Dir     string
	Package string
	Files   int
	Skipped []string // files that failed to parse
	Models  []model.Declaration
	Enums   []model.Enum
}

// Extractor parses package directories. It is safe for concurrent use.
type Extractor struct {
	fset   *token.FileSet
	logger logger.Logger
}

// New creates an extractor. A nil logger falls back to the default.
func New(log logger.Logger) *Extractor {
	if log == nil {
		log = logger.Default()
	}
	return &Extractor{
		fset:   token.NewFileSet(),
		logger: log,
	}
}

// Extract parses the non-test Go files of dir.
func (e *Extractor) Extract(ctx context.Context, dir string) (*Unit, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && isSourceFile(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	unit := &Unit{Dir: dir}
	var files []*ast.File
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(dir, name)
		file, err := parser.ParseFile(e.fset, path, nil, parser.ParseComments)
		if err != nil {
			e.logger.Warn("Skipping unparsable file",
				logger.F("file", path),
				logger.F("error", err))
			unit.Skipped = append(unit.Skipped, path)
			continue
		}
		if unit.Package == "" {
			unit.Package = file.Name.Name
		}
		files = append(files, file)
	}
	unit.Files = len(files)

	consts := e.collectConstants(files)
	for _, file := range files {
		e.extractFile(unit, file, consts)
	}

	return unit, nil
}

// extractFile appends the directive-carrying declarations of file to unit.
func (e *Extractor) extractFile(unit *Unit, file *ast.File, consts map[string][]string) {
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}

		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			doc := ts.Doc
			if doc == nil && !gen.Lparen.IsValid() {
				doc = gen.Doc
			}

			if name, ok := directive(doc, modelDirective, ts.Name.Name); ok {
				st, isStruct := ts.Type.(*ast.StructType)
				if !isStruct {
					e.logger.Warn("swagger:model directive on non-struct type",
						logger.F("type", ts.Name.Name),
						logger.F("at", e.location(ts.Pos())))
					continue
				}
				unit.Models = append(unit.Models, model.Declaration{
					Name:     name,
					Fields:   e.fields(st),
					Location: e.location(ts.Pos()),
				})
				continue
			}

			if name, ok := directive(doc, enumDirective, ts.Name.Name); ok {
				if name != ts.Name.Name {
					e.logger.Warn("swagger:enum name differs from its type; using the type name",
						logger.F("name", name),
						logger.F("type", ts.Name.Name),
						logger.F("at", e.location(ts.Pos())))
				}
				values := consts[ts.Name.Name]
				if len(values) == 0 {
					e.logger.Warn("swagger:enum type has no constants",
						logger.F("type", ts.Name.Name),
						logger.F("at", e.location(ts.Pos())))
					continue
				}
				unit.Enums = append(unit.Enums, model.Enum{
					Name:     ts.Name.Name,
					Values:   values,
					Location: e.location(ts.Pos()),
				})
			}
		}
	}
}

// fields converts struct fields to model fields keyed by their JSON name.
func (e *Extractor) fields(st *ast.StructType) []model.Field {
	var fields []model.Field
	for _, f := range st.Fields.List {
		// Embedded fields are not flattened.
		if len(f.Names) == 0 {
			continue
		}

		tag, omit, hasTag := jsonTag(f.Tag)
		if omit {
			continue
		}
		typ := typeOf(f.Type)

		for _, ident := range f.Names {
			if !hasTag && !ident.IsExported() {
				continue
			}
			wire := tag
			if wire == "" {
				wire = ident.Name
			}
			fields = append(fields, model.Field{
				Name:     wire,
				GoName:   ident.Name,
				Type:     typ,
				Location: e.location(ident.Pos()),
			})
		}
	}
	return fields
}

// collectConstants gathers constant values per declared type, in source
// order across files. Constants in a group without their own type or value
// repeat the previous spec's type, as iota sequences do.
func (e *Extractor) collectConstants(files []*ast.File) map[string][]string {
	consts := make(map[string][]string)
	for _, file := range files {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.CONST {
				continue
			}

			var typeName string
			for _, spec := range gen.Specs {
				vs := spec.(*ast.ValueSpec)
				switch {
				case vs.Type != nil:
					typeName = identName(vs.Type)
				case len(vs.Values) > 0:
					typeName = ""
				}
				if typeName == "" {
					continue
				}

				for i, name := range vs.Names {
					if name.Name == "_" {
						continue
					}
					value := name.Name
					if i < len(vs.Values) {
						if s, ok := stringLiteral(vs.Values[i]); ok {
							value = s
						}
					}
					consts[typeName] = append(consts[typeName], value)
				}
			}
		}
	}
	return consts
}

func (e *Extractor) location(pos token.Pos) diag.Location {
	p := e.fset.Position(pos)
	return diag.Location{File: p.Filename, Line: p.Line, Column: p.Column}
}

// directive looks for "swagger:<kind> [Name]" on its own comment line. Both
// "// swagger:model" and "//swagger:model" are accepted; CommentGroup.Text
// would drop the latter as a tool directive.
func directive(doc *ast.CommentGroup, prefix, typeName string) (string, bool) {
	if doc == nil {
		return "", false
	}
	for _, c := range doc.List {
		line := strings.TrimPrefix(c.Text, "//")
		line = strings.TrimSuffix(strings.TrimPrefix(line, "/*"), "*/")
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != prefix {
			continue
		}
		if len(fields) > 1 {
			return fields[1], true
		}
		return typeName, true
	}
	return "", false
}
