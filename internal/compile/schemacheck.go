package compile

import (
	"regexp"
	"strconv"

	"github.com/lucab/jsonschema/errors"
	"github.com/lucab/jsonschema/internal/draft"
	"github.com/lucab/jsonschema/internal/instance"
)

// checkShape validates the structural shape of a schema document before
// compilation: keyword value types, numeric constraints, and regular
// expressions. It recurses into every subschema position, including
// definitions that may never be referenced, but does not follow $ref.
func checkShape(v any, d draft.Draft, sc scope) error {
	switch schema := v.(type) {
	case bool:
		if !d.BooleanSchemas() {
			return errors.NewCompile(errors.ErrInvalidSchema, sc.location(),
				"boolean schemas are not valid in %s", d)
		}
		return nil
	case map[string]any:
		return checkObjectShape(schema, d, sc)
	default:
		return errors.NewCompile(errors.ErrInvalidSchema, sc.location(),
			"schema must be an object or boolean, got %T", v)
	}
}

var singleSubschemaKeywords = []string{
	"additionalProperties", "additionalItems", "propertyNames", "contains",
	"not", "if", "then", "else", "unevaluatedItems", "unevaluatedProperties",
}

var subschemaMapKeywords = []string{
	"properties", "patternProperties", "dependentSchemas", "$defs", "definitions",
}

var subschemaListKeywords = []string{"allOf", "anyOf", "oneOf", "prefixItems"}

func checkObjectShape(obj map[string]any, d draft.Draft, sc scope) error {
	for _, kw := range []string{"$ref", "$anchor", "$dynamicAnchor", "$dynamicRef", "$comment", "format", "pattern"} {
		if v, ok := obj[kw]; ok && d.Has(kw) {
			if _, isStr := v.(string); !isStr {
				return invalid(sc, kw, "%s must be a string, got %T", kw, v)
			}
		}
	}
	if v, ok := obj["pattern"].(string); ok {
		if _, err := regexp.Compile(v); err != nil {
			return errors.WrapCompile(errors.ErrInvalidSchema, sc.child("pattern").location(), err,
				"unsupported regular expression %q", v)
		}
	}

	for _, kw := range []string{"minLength", "maxLength", "minItems", "maxItems",
		"minProperties", "maxProperties", "minContains", "maxContains"} {
		if v, ok := obj[kw]; ok && d.Has(kw) {
			n, isNum := instance.Num(v)
			if !isNum || !n.IsInteger() || n.Float() < 0 {
				return invalid(sc, kw, "%s must be a non-negative integer, got %v", kw, v)
			}
		}
	}

	for _, kw := range []string{"minimum", "maximum", "multipleOf"} {
		if v, ok := obj[kw]; ok {
			if _, isNum := instance.Num(v); !isNum {
				return invalid(sc, kw, "%s must be a number, got %T", kw, v)
			}
		}
	}
	for _, kw := range []string{"exclusiveMinimum", "exclusiveMaximum"} {
		v, ok := obj[kw]
		if !ok {
			continue
		}
		if d.NumericExclusive() {
			if _, isNum := instance.Num(v); !isNum {
				return invalid(sc, kw, "%s must be a number, got %T", kw, v)
			}
		} else if _, isBool := v.(bool); !isBool {
			return invalid(sc, kw, "%s must be a boolean in this draft, got %T", kw, v)
		}
	}

	if v, ok := obj["enum"]; ok {
		if _, isArr := v.([]any); !isArr {
			return invalid(sc, "enum", "enum must be an array, got %T", v)
		}
	}
	if v, ok := obj["required"]; ok {
		arr, isArr := v.([]any)
		if !isArr {
			return invalid(sc, "required", "required must be an array, got %T", v)
		}
		for _, e := range arr {
			if _, isStr := e.(string); !isStr {
				return invalid(sc, "required", "required must contain strings, got %T", e)
			}
		}
	}
	if v, ok := obj["uniqueItems"]; ok {
		if _, isBool := v.(bool); !isBool {
			return invalid(sc, "uniqueItems", "uniqueItems must be a boolean, got %T", v)
		}
	}

	for _, kw := range singleSubschemaKeywords {
		if v, ok := obj[kw]; ok && d.Has(kw) {
			if err := checkShape(v, d, sc.child(kw)); err != nil {
				return err
			}
		}
	}

	for _, kw := range subschemaMapKeywords {
		v, ok := obj[kw]
		if !ok || !d.Has(kw) {
			continue
		}
		m, isObj := v.(map[string]any)
		if !isObj {
			return invalid(sc, kw, "%s must be an object, got %T", kw, v)
		}
		for _, name := range sortedKeys(m) {
			if kw == "patternProperties" {
				if _, err := regexp.Compile(name); err != nil {
					return errors.WrapCompile(errors.ErrInvalidSchema,
						sc.child(kw, name).location(), err,
						"unsupported regular expression %q", name)
				}
			}
			if err := checkShape(m[name], d, sc.child(kw, name)); err != nil {
				return err
			}
		}
	}

	for _, kw := range subschemaListKeywords {
		v, ok := obj[kw]
		if !ok || !d.Has(kw) {
			continue
		}
		arr, isArr := v.([]any)
		if !isArr || len(arr) == 0 {
			return invalid(sc, kw, "%s must be a non-empty array of schemas", kw)
		}
		for i, e := range arr {
			if err := checkShape(e, d, sc.child(kw, strconv.Itoa(i))); err != nil {
				return err
			}
		}
	}

	if v, ok := obj["items"]; ok {
		if arr, isArr := v.([]any); isArr {
			if !d.TupleItems() {
				return invalid(sc, "items", "items must be a schema, use prefixItems for tuples")
			}
			for i, e := range arr {
				if err := checkShape(e, d, sc.child("items", strconv.Itoa(i))); err != nil {
					return err
				}
			}
		} else if err := checkShape(v, d, sc.child("items")); err != nil {
			return err
		}
	}

	if v, ok := obj["dependencies"]; ok && d.Has("dependencies") {
		m, isObj := v.(map[string]any)
		if !isObj {
			return invalid(sc, "dependencies", "dependencies must be an object, got %T", v)
		}
		for _, name := range sortedKeys(m) {
			switch dep := m[name].(type) {
			case []any:
				for _, e := range dep {
					if _, isStr := e.(string); !isStr {
						return invalid(sc, "dependencies", "dependency array for %q must contain strings", name)
					}
				}
			default:
				if err := checkShape(dep, d, sc.child("dependencies", name)); err != nil {
					return err
				}
			}
		}
	}
	if v, ok := obj["dependentRequired"]; ok && d.Has("dependentRequired") {
		m, isObj := v.(map[string]any)
		if !isObj {
			return invalid(sc, "dependentRequired", "dependentRequired must be an object, got %T", v)
		}
		for _, name := range sortedKeys(m) {
			arr, isArr := m[name].([]any)
			if !isArr {
				return invalid(sc, "dependentRequired", "dependency for %q must be an array of strings", name)
			}
			for _, e := range arr {
				if _, isStr := e.(string); !isStr {
					return invalid(sc, "dependentRequired", "dependency for %q must contain strings", name)
				}
			}
		}
	}

	return nil
}
