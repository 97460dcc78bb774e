package runtime

import (
	"maps"
	"regexp"
	"slices"
)

// PatternSchema pairs a compiled patternProperties entry with its
// source text, kept for keyword locations.
type PatternSchema struct {
	Source string
	Regexp *regexp.Regexp
	Schema *Subschema
}

// objectNode evaluates properties, patternProperties and
// additionalProperties together: the three keywords share the notion of
// a "matched" property, and matched names are recorded into the
// evaluation context before additionalProperties runs.
type objectNode struct {
	props      map[string]*Subschema
	patterns   []PatternSchema
	additional *Subschema
}

// ObjectNode builds the combined object-applicator node.
func ObjectNode(props map[string]*Subschema, patterns []PatternSchema, additional *Subschema) Node {
	return &objectNode{props: props, patterns: patterns, additional: additional}
}

func (n *objectNode) eval(ev *Evaluator, v any, ann *annotations) bool {
	obj, isObj := v.(map[string]any)
	if !isObj {
		return true
	}

	ok := true
	for _, name := range sortedNames(obj) {
		val := obj[name]
		matched := false
		good := true

		if sub, found := n.props[name]; found {
			matched = true
			ev.pushKw("properties", name)
			ev.pushInst(name)
			if !sub.eval(ev, val, ev.childAnn()) {
				good = false
			}
			ev.popInst()
			ev.popKw(2)
			if !good && (ev.yield == nil || ev.stopped) {
				return false
			}
		}

		for _, p := range n.patterns {
			if !p.Regexp.MatchString(name) {
				continue
			}
			matched = true
			ev.pushKw("patternProperties", p.Source)
			ev.pushInst(name)
			if !p.Schema.eval(ev, val, ev.childAnn()) {
				good = false
			}
			ev.popInst()
			ev.popKw(2)
			if !good && (ev.yield == nil || ev.stopped) {
				return false
			}
		}

		if !matched && n.additional != nil {
			matched = true
			ev.pushKw("additionalProperties")
			ev.pushInst(name)
			if !n.additional.eval(ev, val, ev.childAnn()) {
				good = false
			}
			ev.popInst()
			ev.popKw(1)
			if !good && (ev.yield == nil || ev.stopped) {
				return false
			}
		}

		if matched && good {
			ann.markProp(name)
		}
		ok = ok && good
	}
	return ok
}

func sortedNames(obj map[string]any) []string {
	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type requiredNode struct {
	names []string
}

// RequiredNode builds a required-properties node.
func RequiredNode(names []string) Node { return &requiredNode{names: names} }

func (n *requiredNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	obj, isObj := v.(map[string]any)
	if !isObj {
		return true
	}
	ok := true
	for _, name := range n.names {
		if _, found := obj[name]; found {
			continue
		}
		ok = false
		ev.fail("required", "missing required property %q", name)
		if ev.yield == nil || ev.stopped {
			return false
		}
	}
	return ok
}

type minPropertiesNode struct {
	limit int
}

// MinPropertiesNode builds a minimum property count node.
func MinPropertiesNode(limit int) Node { return &minPropertiesNode{limit: limit} }

func (n *minPropertiesNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	obj, isObj := v.(map[string]any)
	if !isObj || len(obj) >= n.limit {
		return true
	}
	return ev.fail("minProperties", "object has fewer than %d properties", n.limit)
}

type maxPropertiesNode struct {
	limit int
}

// MaxPropertiesNode builds a maximum property count node.
func MaxPropertiesNode(limit int) Node { return &maxPropertiesNode{limit: limit} }

func (n *maxPropertiesNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	obj, isObj := v.(map[string]any)
	if !isObj || len(obj) <= n.limit {
		return true
	}
	return ev.fail("maxProperties", "object has more than %d properties", n.limit)
}

type propertyNamesNode struct {
	sub *Subschema
}

// PropertyNamesNode builds a node validating each property name string.
func PropertyNamesNode(sub *Subschema) Node { return &propertyNamesNode{sub: sub} }

func (n *propertyNamesNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	obj, isObj := v.(map[string]any)
	if !isObj {
		return true
	}
	ok := true
	for _, name := range sortedNames(obj) {
		ev.pushKw("propertyNames")
		ev.pushInst(name)
		good := n.sub.eval(ev, name, ev.childAnn())
		ev.popInst()
		ev.popKw(1)
		if !good {
			ok = false
			if ev.yield == nil || ev.stopped {
				return false
			}
		}
	}
	return ok
}

type dependentRequiredNode struct {
	keyword string
	deps    map[string][]string
}

// DependentRequiredNode builds a property-presence dependency node.
// keyword is "dependencies" through draft7 and "dependentRequired"
// after.
func DependentRequiredNode(keyword string, deps map[string][]string) Node {
	return &dependentRequiredNode{keyword: keyword, deps: deps}
}

func (n *dependentRequiredNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	obj, isObj := v.(map[string]any)
	if !isObj {
		return true
	}
	ok := true
	for _, trigger := range slices.Sorted(maps.Keys(n.deps)) {
		if _, present := obj[trigger]; !present {
			continue
		}
		for _, required := range n.deps[trigger] {
			if _, found := obj[required]; found {
				continue
			}
			ok = false
			ev.fail(n.keyword, "property %q requires property %q", trigger, required)
			if ev.yield == nil || ev.stopped {
				return false
			}
		}
	}
	return ok
}

type dependentSchemasNode struct {
	keyword string
	deps    map[string]*Subschema
}

// DependentSchemasNode builds a schema dependency node; the dependent
// schema applies to the whole object when the trigger property exists.
func DependentSchemasNode(keyword string, deps map[string]*Subschema) Node {
	return &dependentSchemasNode{keyword: keyword, deps: deps}
}

func (n *dependentSchemasNode) eval(ev *Evaluator, v any, ann *annotations) bool {
	obj, isObj := v.(map[string]any)
	if !isObj {
		return true
	}
	ok := true
	for _, trigger := range slices.Sorted(maps.Keys(n.deps)) {
		if _, present := obj[trigger]; !present {
			continue
		}
		branchAnn := ev.childAnn()
		ev.pushKw(n.keyword, trigger)
		good := n.deps[trigger].eval(ev, v, branchAnn)
		ev.popKw(2)
		if good {
			ann.merge(branchAnn)
		} else {
			ok = false
			if ev.yield == nil || ev.stopped {
				return false
			}
		}
	}
	return ok
}

type unevaluatedPropertiesNode struct {
	sub *Subschema
}

// UnevaluatedPropertiesNode builds the node applied to every property
// no sibling keyword evaluated. It runs after its siblings and consults
// the accumulated evaluation context.
func UnevaluatedPropertiesNode(sub *Subschema) Node {
	return &unevaluatedPropertiesNode{sub: sub}
}

func (n *unevaluatedPropertiesNode) eval(ev *Evaluator, v any, ann *annotations) bool {
	obj, isObj := v.(map[string]any)
	if !isObj {
		return true
	}
	ok := true
	for _, name := range sortedNames(obj) {
		if ann.hasProp(name) {
			continue
		}
		ev.pushKw("unevaluatedProperties")
		ev.pushInst(name)
		good := n.sub.eval(ev, obj[name], ev.childAnn())
		ev.popInst()
		ev.popKw(1)
		if good {
			ann.markProp(name)
			continue
		}
		ok = false
		if ev.yield == nil || ev.stopped {
			return false
		}
	}
	return ok
}
