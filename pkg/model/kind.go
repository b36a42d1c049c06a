package model

import "sort"

// Kind is the semantic category of a Go type as far as schema matching is
// concerned. Type names are mapped to a Kind once, when declarations are
// extracted, so the compatibility rules never compare raw type names.
type Kind int

const (
	KindNamed Kind = iota // user-defined types: enums, nested models
	KindString
	KindDateTime
	KindBytes
	KindInt32
	KindInt64
	KindFloat
	KindNumber
	KindBool
	KindCollection
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindDateTime:
		return "date-time"
	case KindBytes:
		return "bytes"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat:
		return "float"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindCollection:
		return "collection"
	default:
		return "named"
	}
}

// Registry maps Go type names, as written in source, to their kind.
var Registry = map[string]Kind{
	"string": KindString,

	"time.Time": KindDateTime,

	"[]byte":          KindBytes,
	"json.RawMessage": KindBytes,

	"int8":   KindInt32,
	"int16":  KindInt32,
	"int32":  KindInt32,
	"uint8":  KindInt32,
	"byte":   KindInt32,
	"uint16": KindInt32,
	"rune":   KindInt32,

	// int and uint are 64 bits wide on every platform heron targets.
	"int":    KindInt64,
	"int64":  KindInt64,
	"uint":   KindInt64,
	"uint32": KindInt64,
	"uint64": KindInt64,

	"float32": KindFloat,
	"float64": KindFloat,

	"json.Number":     KindNumber,
	"big.Float":       KindNumber,
	"decimal.Decimal": KindNumber,

	"bool": KindBool,

	"pq.StringArray":  KindCollection,
	"pq.Int64Array":   KindCollection,
	"pq.Float64Array": KindCollection,
	"pq.BoolArray":    KindCollection,
}

// KindOf returns the kind for a Go type name, KindNamed when unregistered.
func KindOf(typeName string) Kind {
	return Registry[typeName]
}

// TypeNames lists the registered type names of kind k, sorted.
func TypeNames(k Kind) []string {
	var names []string
	for name, kind := range Registry {
		if kind == k {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
