package extractor

import (
	"go/ast"
	"go/token"
	"go/types"
	"reflect"
	"strconv"
	"strings"

	"github.com/simonhull/heron/pkg/model"
)

// typeOf converts a field type expression. Pointers make the type nullable;
// slices, arrays, maps and generic instantiations become generic types.
func typeOf(expr ast.Expr) model.FieldType {
	switch t := expr.(type) {
	case *ast.StarExpr:
		inner := typeOf(t.X)
		inner.Nullable = true
		return inner

	case *ast.ParenExpr:
		return typeOf(t.X)

	case *ast.Ident:
		return model.NewType(t.Name, false)

	case *ast.SelectorExpr:
		return model.NewType(types.ExprString(t), false)

	case *ast.ArrayType:
		if t.Len == nil && identName(t.Elt) == "byte" {
			return model.NewType("[]byte", false)
		}
		return model.NewGeneric("[]", false, typeOf(t.Elt))

	case *ast.MapType:
		return model.NewGeneric("map", false, typeOf(t.Key), typeOf(t.Value))

	case *ast.IndexExpr:
		return model.NewGeneric(types.ExprString(t.X), false, typeOf(t.Index))

	case *ast.IndexListExpr:
		params := make([]model.FieldType, len(t.Indices))
		for i, idx := range t.Indices {
			params[i] = typeOf(idx)
		}
		return model.NewGeneric(types.ExprString(t.X), false, params...)

	default:
		// Interfaces, inline structs, funcs and channels never match a
		// schema primitive; keep their source spelling for messages.
		return model.NewType(types.ExprString(expr), false)
	}
}

// identName returns the name of a plain identifier, "" otherwise.
func identName(expr ast.Expr) string {
	if ident, ok := expr.(*ast.Ident); ok {
		return ident.Name
	}
	return ""
}

// jsonTag parses a field's json tag. It returns the wire name ("" when the
// tag leaves it to the field name), whether the field is omitted with
// `json:"-"`, and whether a json tag is present at all.
func jsonTag(lit *ast.BasicLit) (name string, omit, ok bool) {
	if lit == nil {
		return "", false, false
	}
	raw, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false, false
	}
	value, ok := reflect.StructTag(raw).Lookup("json")
	if !ok {
		return "", false, false
	}
	if value == "-" {
		return "", true, true
	}
	// `json:"-,"` names the field "-".
	name, _, _ = strings.Cut(value, ",")
	return name, false, true
}

// stringLiteral returns the unquoted value of a string literal expression.
func stringLiteral(expr ast.Expr) (string, bool) {
	lit, ok := expr.(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	s, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return s, true
}
