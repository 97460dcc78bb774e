package compile

import (
	"maps"
	"regexp"
	"slices"
	"strconv"

	"github.com/lucab/jsonschema/errors"
	"github.com/lucab/jsonschema/internal/instance"
	"github.com/lucab/jsonschema/internal/runtime"
)

// keywordBuilders compile the assertion and applicator keywords of one
// schema object. Order matters only for error reporting; the cheap
// scalar assertions run first so boolean-mode validation fails early.
// Populated in init because the applicator builders recurse back into
// compileObjectSchema.
var keywordBuilders []func(*compiler, map[string]any, scope) ([]runtime.Node, error)

func init() {
	keywordBuilders = []func(*compiler, map[string]any, scope) ([]runtime.Node, error){
		(*compiler).buildType,
		(*compiler).buildEnumConst,
		(*compiler).buildNumeric,
		(*compiler).buildString,
		(*compiler).buildApplicators,
		(*compiler).buildObject,
		(*compiler).buildArray,
	}
}

func invalid(sc scope, kw, format string, args ...any) error {
	return errors.NewCompile(errors.ErrInvalidSchema, sc.child(kw).location(), format, args...)
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

var validTypes = map[string]bool{
	"null": true, "boolean": true, "object": true, "array": true,
	"number": true, "string": true, "integer": true,
}

func (c *compiler) buildType(obj map[string]any, sc scope) ([]runtime.Node, error) {
	v, ok := obj["type"]
	if !ok {
		return nil, nil
	}
	var names []string
	switch t := v.(type) {
	case string:
		names = []string{t}
	case []any:
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, invalid(sc, "type", "type array must contain strings, got %T", e)
			}
			names = append(names, s)
		}
	default:
		return nil, invalid(sc, "type", "type must be a string or array of strings, got %T", v)
	}
	for _, n := range names {
		if !validTypes[n] {
			return nil, invalid(sc, "type", "unknown type %q", n)
		}
	}
	return []runtime.Node{runtime.TypeNode(names)}, nil
}

func (c *compiler) buildEnumConst(obj map[string]any, sc scope) ([]runtime.Node, error) {
	var nodes []runtime.Node
	if v, ok := obj["enum"]; ok {
		values, isArr := v.([]any)
		if !isArr {
			return nil, invalid(sc, "enum", "enum must be an array, got %T", v)
		}
		nodes = append(nodes, runtime.EnumNode(values))
	}
	if v, ok := obj["const"]; ok && sc.d.Has("const") {
		nodes = append(nodes, runtime.ConstNode(v))
	}
	return nodes, nil
}

func (c *compiler) schemaNumber(obj map[string]any, sc scope, kw string) (instance.Number, bool, error) {
	v, ok := obj[kw]
	if !ok {
		return instance.Number{}, false, nil
	}
	n, isNum := instance.Num(v)
	if !isNum {
		return instance.Number{}, false, invalid(sc, kw, "%s must be a number, got %T", kw, v)
	}
	return n, true, nil
}

func (c *compiler) buildNumeric(obj map[string]any, sc scope) ([]runtime.Node, error) {
	var nodes []runtime.Node

	if n, ok, err := c.schemaNumber(obj, sc, "multipleOf"); err != nil {
		return nil, err
	} else if ok {
		if zero, _ := instance.Num(0); n.Cmp(zero) <= 0 {
			return nil, invalid(sc, "multipleOf", "multipleOf must be greater than zero")
		}
		nodes = append(nodes, runtime.MultipleOfNode(n))
	}

	if sc.d.NumericExclusive() {
		if n, ok, err := c.schemaNumber(obj, sc, "minimum"); err != nil {
			return nil, err
		} else if ok {
			nodes = append(nodes, runtime.MinimumNode("minimum", n, false))
		}
		if n, ok, err := c.schemaNumber(obj, sc, "exclusiveMinimum"); err != nil {
			return nil, err
		} else if ok {
			nodes = append(nodes, runtime.MinimumNode("exclusiveMinimum", n, true))
		}
		if n, ok, err := c.schemaNumber(obj, sc, "maximum"); err != nil {
			return nil, err
		} else if ok {
			nodes = append(nodes, runtime.MaximumNode("maximum", n, false))
		}
		if n, ok, err := c.schemaNumber(obj, sc, "exclusiveMaximum"); err != nil {
			return nil, err
		} else if ok {
			nodes = append(nodes, runtime.MaximumNode("exclusiveMaximum", n, true))
		}
		return nodes, nil
	}

	// Draft 4: exclusiveMinimum/Maximum are boolean modifiers of the
	// corresponding bound.
	if n, ok, err := c.schemaNumber(obj, sc, "minimum"); err != nil {
		return nil, err
	} else if ok {
		excl, err := boolModifier(obj, sc, "exclusiveMinimum")
		if err != nil {
			return nil, err
		}
		kw := "minimum"
		if excl {
			kw = "exclusiveMinimum"
		}
		nodes = append(nodes, runtime.MinimumNode(kw, n, excl))
	}
	if n, ok, err := c.schemaNumber(obj, sc, "maximum"); err != nil {
		return nil, err
	} else if ok {
		excl, err := boolModifier(obj, sc, "exclusiveMaximum")
		if err != nil {
			return nil, err
		}
		kw := "maximum"
		if excl {
			kw = "exclusiveMaximum"
		}
		nodes = append(nodes, runtime.MaximumNode(kw, n, excl))
	}
	return nodes, nil
}

func boolModifier(obj map[string]any, sc scope, kw string) (bool, error) {
	v, ok := obj[kw]
	if !ok {
		return false, nil
	}
	b, isBool := v.(bool)
	if !isBool {
		return false, invalid(sc, kw, "%s must be a boolean in this draft, got %T", kw, v)
	}
	return b, nil
}

func intLimit(obj map[string]any, sc scope, kw string) (int, bool, error) {
	v, ok := obj[kw]
	if !ok {
		return 0, false, nil
	}
	n, isNum := instance.Num(v)
	if !isNum || !n.IsInteger() {
		return 0, false, invalid(sc, kw, "%s must be an integer, got %v", kw, v)
	}
	f := n.Float()
	if f < 0 {
		return 0, false, invalid(sc, kw, "%s must be non-negative", kw)
	}
	return int(f), true, nil
}

func (c *compiler) buildString(obj map[string]any, sc scope) ([]runtime.Node, error) {
	var nodes []runtime.Node

	if n, ok, err := intLimit(obj, sc, "minLength"); err != nil {
		return nil, err
	} else if ok {
		nodes = append(nodes, runtime.MinLengthNode(n))
	}
	if n, ok, err := intLimit(obj, sc, "maxLength"); err != nil {
		return nil, err
	} else if ok {
		nodes = append(nodes, runtime.MaxLengthNode(n))
	}

	if v, ok := obj["pattern"]; ok {
		src, isStr := v.(string)
		if !isStr {
			return nil, invalid(sc, "pattern", "pattern must be a string, got %T", v)
		}
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, errors.WrapCompile(errors.ErrInvalidSchema, sc.child("pattern").location(), err,
				"unsupported regular expression %q", src)
		}
		nodes = append(nodes, runtime.PatternNode(re))
	}

	if v, ok := obj["format"]; ok {
		name, isStr := v.(string)
		if !isStr {
			return nil, invalid(sc, "format", "format must be a string, got %T", v)
		}
		nodes = append(nodes, runtime.FormatNode(name, c.formatChecker(name), c.assertFormats(sc.d)))
	}
	return nodes, nil
}

func (c *compiler) compileSubList(obj map[string]any, sc scope, kw string) ([]*runtime.Subschema, error) {
	v, ok := obj[kw]
	if !ok {
		return nil, nil
	}
	arr, isArr := v.([]any)
	if !isArr || len(arr) == 0 {
		return nil, invalid(sc, kw, "%s must be a non-empty array of schemas", kw)
	}
	subs := make([]*runtime.Subschema, len(arr))
	for i, e := range arr {
		sub, err := c.compileSub(e, sc.child(kw, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		subs[i] = sub
	}
	return subs, nil
}

func (c *compiler) buildApplicators(obj map[string]any, sc scope) ([]runtime.Node, error) {
	var nodes []runtime.Node

	if subs, err := c.compileSubList(obj, sc, "allOf"); err != nil {
		return nil, err
	} else if subs != nil {
		nodes = append(nodes, runtime.AllOfNode(subs))
	}
	if subs, err := c.compileSubList(obj, sc, "anyOf"); err != nil {
		return nil, err
	} else if subs != nil {
		nodes = append(nodes, runtime.AnyOfNode(subs))
	}
	if subs, err := c.compileSubList(obj, sc, "oneOf"); err != nil {
		return nil, err
	} else if subs != nil {
		nodes = append(nodes, runtime.OneOfNode(subs))
	}

	if v, ok := obj["not"]; ok {
		sub, err := c.compileSub(v, sc.child("not"))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, runtime.NotNode(sub))
	}

	if v, ok := obj["if"]; ok && sc.d.Has("if") {
		cond, err := c.compileSub(v, sc.child("if"))
		if err != nil {
			return nil, err
		}
		var then, els *runtime.Subschema
		if tv, ok := obj["then"]; ok {
			if then, err = c.compileSub(tv, sc.child("then")); err != nil {
				return nil, err
			}
		}
		if ev, ok := obj["else"]; ok {
			if els, err = c.compileSub(ev, sc.child("else")); err != nil {
				return nil, err
			}
		}
		nodes = append(nodes, runtime.IfNode(cond, then, els))
	}
	return nodes, nil
}

func (c *compiler) compileSubMap(obj map[string]any, sc scope, kw string) (map[string]*runtime.Subschema, error) {
	v, ok := obj[kw]
	if !ok {
		return nil, nil
	}
	m, isObj := v.(map[string]any)
	if !isObj {
		return nil, invalid(sc, kw, "%s must be an object, got %T", kw, v)
	}
	out := make(map[string]*runtime.Subschema, len(m))
	for _, name := range sortedKeys(m) {
		sub, err := c.compileSub(m[name], sc.child(kw, name))
		if err != nil {
			return nil, err
		}
		out[name] = sub
	}
	return out, nil
}

func (c *compiler) buildObject(obj map[string]any, sc scope) ([]runtime.Node, error) {
	var nodes []runtime.Node

	props, err := c.compileSubMap(obj, sc, "properties")
	if err != nil {
		return nil, err
	}

	var patterns []runtime.PatternSchema
	if v, ok := obj["patternProperties"]; ok {
		m, isObj := v.(map[string]any)
		if !isObj {
			return nil, invalid(sc, "patternProperties", "patternProperties must be an object, got %T", v)
		}
		for _, src := range sortedKeys(m) {
			re, err := regexp.Compile(src)
			if err != nil {
				return nil, errors.WrapCompile(errors.ErrInvalidSchema,
					sc.child("patternProperties", src).location(), err,
					"unsupported regular expression %q", src)
			}
			sub, err := c.compileSub(m[src], sc.child("patternProperties", src))
			if err != nil {
				return nil, err
			}
			patterns = append(patterns, runtime.PatternSchema{Source: src, Regexp: re, Schema: sub})
		}
	}

	var additional *runtime.Subschema
	if v, ok := obj["additionalProperties"]; ok {
		if additional, err = c.compileSub(v, sc.child("additionalProperties")); err != nil {
			return nil, err
		}
	}

	if props != nil || patterns != nil || additional != nil {
		nodes = append(nodes, runtime.ObjectNode(props, patterns, additional))
	}

	if v, ok := obj["required"]; ok {
		arr, isArr := v.([]any)
		if !isArr {
			return nil, invalid(sc, "required", "required must be an array, got %T", v)
		}
		names := make([]string, len(arr))
		for i, e := range arr {
			s, isStr := e.(string)
			if !isStr {
				return nil, invalid(sc, "required", "required must contain strings, got %T", e)
			}
			names[i] = s
		}
		nodes = append(nodes, runtime.RequiredNode(names))
	}

	if n, ok, err := intLimit(obj, sc, "minProperties"); err != nil {
		return nil, err
	} else if ok {
		nodes = append(nodes, runtime.MinPropertiesNode(n))
	}
	if n, ok, err := intLimit(obj, sc, "maxProperties"); err != nil {
		return nil, err
	} else if ok {
		nodes = append(nodes, runtime.MaxPropertiesNode(n))
	}

	if v, ok := obj["propertyNames"]; ok && sc.d.Has("propertyNames") {
		sub, err := c.compileSub(v, sc.child("propertyNames"))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, runtime.PropertyNamesNode(sub))
	}

	dep, err := c.buildDependencies(obj, sc)
	if err != nil {
		return nil, err
	}
	nodes = append(nodes, dep...)

	return nodes, nil
}

// buildDependencies handles the draft 7 combined dependencies keyword
// and its 2019-09 split into dependentRequired and dependentSchemas.
func (c *compiler) buildDependencies(obj map[string]any, sc scope) ([]runtime.Node, error) {
	var nodes []runtime.Node

	if v, ok := obj["dependencies"]; ok && sc.d.Has("dependencies") {
		m, isObj := v.(map[string]any)
		if !isObj {
			return nil, invalid(sc, "dependencies", "dependencies must be an object, got %T", v)
		}
		required := map[string][]string{}
		schemas := map[string]*runtime.Subschema{}
		for _, name := range sortedKeys(m) {
			switch dep := m[name].(type) {
			case []any:
				names := make([]string, len(dep))
				for i, e := range dep {
					s, isStr := e.(string)
					if !isStr {
						return nil, invalid(sc, "dependencies", "dependency array for %q must contain strings", name)
					}
					names[i] = s
				}
				required[name] = names
			default:
				sub, err := c.compileSub(dep, sc.child("dependencies", name))
				if err != nil {
					return nil, err
				}
				schemas[name] = sub
			}
		}
		if len(required) > 0 {
			nodes = append(nodes, runtime.DependentRequiredNode("dependencies", required))
		}
		if len(schemas) > 0 {
			nodes = append(nodes, runtime.DependentSchemasNode("dependencies", schemas))
		}
	}

	if v, ok := obj["dependentRequired"]; ok && sc.d.Has("dependentRequired") {
		m, isObj := v.(map[string]any)
		if !isObj {
			return nil, invalid(sc, "dependentRequired", "dependentRequired must be an object, got %T", v)
		}
		required := map[string][]string{}
		for _, name := range sortedKeys(m) {
			arr, isArr := m[name].([]any)
			if !isArr {
				return nil, invalid(sc, "dependentRequired", "dependency for %q must be an array of strings", name)
			}
			names := make([]string, len(arr))
			for i, e := range arr {
				s, isStr := e.(string)
				if !isStr {
					return nil, invalid(sc, "dependentRequired", "dependency for %q must contain strings", name)
				}
				names[i] = s
			}
			required[name] = names
		}
		nodes = append(nodes, runtime.DependentRequiredNode("dependentRequired", required))
	}

	if sc.d.Has("dependentSchemas") {
		deps, err := c.compileSubMap(obj, sc, "dependentSchemas")
		if err != nil {
			return nil, err
		}
		if deps != nil {
			nodes = append(nodes, runtime.DependentSchemasNode("dependentSchemas", deps))
		}
	}

	return nodes, nil
}

func (c *compiler) buildArray(obj map[string]any, sc scope) ([]runtime.Node, error) {
	var nodes []runtime.Node

	items, err := c.buildItems(obj, sc)
	if err != nil {
		return nil, err
	}
	nodes = append(nodes, items...)

	if n, ok, err := intLimit(obj, sc, "minItems"); err != nil {
		return nil, err
	} else if ok {
		nodes = append(nodes, runtime.MinItemsNode(n))
	}
	if n, ok, err := intLimit(obj, sc, "maxItems"); err != nil {
		return nil, err
	} else if ok {
		nodes = append(nodes, runtime.MaxItemsNode(n))
	}

	if v, ok := obj["uniqueItems"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return nil, invalid(sc, "uniqueItems", "uniqueItems must be a boolean, got %T", v)
		}
		if b {
			nodes = append(nodes, runtime.UniqueItemsNode())
		}
	}

	if v, ok := obj["contains"]; ok && sc.d.Has("contains") {
		sub, err := c.compileSub(v, sc.child("contains"))
		if err != nil {
			return nil, err
		}
		min, max := 1, -1
		if sc.d.Has("minContains") {
			if n, ok, err := intLimit(obj, sc, "minContains"); err != nil {
				return nil, err
			} else if ok {
				min = n
			}
		}
		if sc.d.Has("maxContains") {
			if n, ok, err := intLimit(obj, sc, "maxContains"); err != nil {
				return nil, err
			} else if ok {
				max = n
			}
		}
		nodes = append(nodes, runtime.ContainsNode(sub, min, max))
	}

	return nodes, nil
}

// buildItems maps the draft-dependent items forms onto one node: the
// 2020-12 prefixItems/items pair, the older tuple form of items plus
// additionalItems, and the single-schema form.
func (c *compiler) buildItems(obj map[string]any, sc scope) ([]runtime.Node, error) {
	if !sc.d.TupleItems() {
		prefix, err := c.compileSubList(obj, sc, "prefixItems")
		if err != nil {
			return nil, err
		}
		var rest *runtime.Subschema
		if v, ok := obj["items"]; ok {
			sub, err := c.compileSub(v, sc.child("items"))
			if err != nil {
				return nil, err
			}
			rest = sub
		}
		if prefix == nil && rest == nil {
			return nil, nil
		}
		return []runtime.Node{runtime.ItemsNode(prefix, "prefixItems", rest, "items")}, nil
	}

	v, ok := obj["items"]
	if !ok {
		return nil, nil
	}
	if arr, isArr := v.([]any); isArr {
		prefix := make([]*runtime.Subschema, len(arr))
		for i, e := range arr {
			sub, err := c.compileSub(e, sc.child("items", strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			prefix[i] = sub
		}
		var rest *runtime.Subschema
		if av, ok := obj["additionalItems"]; ok {
			sub, err := c.compileSub(av, sc.child("additionalItems"))
			if err != nil {
				return nil, err
			}
			rest = sub
		}
		return []runtime.Node{runtime.ItemsNode(prefix, "items", rest, "additionalItems")}, nil
	}
	sub, err := c.compileSub(v, sc.child("items"))
	if err != nil {
		return nil, err
	}
	return []runtime.Node{runtime.ItemsNode(nil, "", sub, "items")}, nil
}
