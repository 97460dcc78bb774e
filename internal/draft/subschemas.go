package draft

import "iter"

var singleSchemaKeywords = []string{
	"additionalProperties",
	"additionalItems",
	"propertyNames",
	"not",
	"if",
	"then",
	"else",
	"contains",
	"unevaluatedItems",
	"unevaluatedProperties",
}

var schemaMapKeywords = []string{
	"properties",
	"patternProperties",
	"definitions",
	"$defs",
	"dependentSchemas",
	"dependencies",
}

var schemaArrayKeywords = []string{
	"allOf",
	"anyOf",
	"oneOf",
	"prefixItems",
}

// Subschemas yields every directly embedded subschema value of a schema
// object, in a stable order. Used by the resource pre-pass to discover
// embedded $id resources and anchors.
func (d Draft) Subschemas(obj map[string]any) iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, kw := range singleSchemaKeywords {
			if !d.Has(kw) {
				continue
			}
			if v, ok := obj[kw]; ok && isSchemaShaped(v) {
				if !yield(v) {
					return
				}
			}
		}
		for _, kw := range schemaMapKeywords {
			if !d.Has(kw) {
				continue
			}
			m, ok := obj[kw].(map[string]any)
			if !ok {
				continue
			}
			for _, v := range m {
				// dependencies mixes schema and string-array forms
				if !isSchemaShaped(v) {
					continue
				}
				if !yield(v) {
					return
				}
			}
		}
		for _, kw := range schemaArrayKeywords {
			if !d.Has(kw) {
				continue
			}
			arr, ok := obj[kw].([]any)
			if !ok {
				continue
			}
			for _, v := range arr {
				if !isSchemaShaped(v) {
					continue
				}
				if !yield(v) {
					return
				}
			}
		}
		if v, ok := obj["items"]; ok && d.Has("items") {
			switch items := v.(type) {
			case []any:
				if d.TupleItems() {
					for _, v := range items {
						if !isSchemaShaped(v) {
							continue
						}
						if !yield(v) {
							return
						}
					}
				}
			default:
				if isSchemaShaped(items) && !yield(items) {
					return
				}
			}
		}
	}
}

func isSchemaShaped(v any) bool {
	switch v.(type) {
	case map[string]any, bool:
		return true
	default:
		return false
	}
}
