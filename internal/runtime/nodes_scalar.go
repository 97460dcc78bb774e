package runtime

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lucab/jsonschema/internal/instance"
)

type typeNode struct {
	types []string
}

// TypeNode builds a type-check node for a single type or a union.
func TypeNode(types []string) Node { return &typeNode{types: types} }

func (n *typeNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	kind := instance.KindOf(v)
	for _, t := range n.types {
		if typeMatches(t, kind, v) {
			return true
		}
	}
	return ev.fail("type", "expected %s, got %s", strings.Join(n.types, " or "), kind)
}

func typeMatches(t string, kind instance.Kind, v any) bool {
	switch t {
	case "integer":
		if kind != instance.KindNumber {
			return false
		}
		num, ok := instance.Num(v)
		return ok && num.IsInteger()
	case "number":
		return kind == instance.KindNumber
	default:
		return t == kind.String()
	}
}

type enumNode struct {
	values []any
}

// EnumNode builds an enum membership node.
func EnumNode(values []any) Node { return &enumNode{values: values} }

func (n *enumNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	for _, candidate := range n.values {
		if instance.Equal(v, candidate) {
			return true
		}
	}
	return ev.fail("enum", "value is not one of the %d allowed values", len(n.values))
}

type constNode struct {
	value any
}

// ConstNode builds a const equality node.
func ConstNode(value any) Node { return &constNode{value: value} }

func (n *constNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	if instance.Equal(v, n.value) {
		return true
	}
	return ev.fail("const", "value does not equal the constant")
}

type minimumNode struct {
	keyword   string
	bound     instance.Number
	exclusive bool
}

// MinimumNode builds a lower-bound node. keyword distinguishes the
// draft4 boolean-modified form from the draft6+ standalone
// exclusiveMinimum.
func MinimumNode(keyword string, bound instance.Number, exclusive bool) Node {
	return &minimumNode{keyword: keyword, bound: bound, exclusive: exclusive}
}

func (n *minimumNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	num, ok := instance.Num(v)
	if !ok {
		return true
	}
	cmp := num.Cmp(n.bound)
	if cmp > 0 || (cmp == 0 && !n.exclusive) {
		return true
	}
	if n.exclusive {
		return ev.fail(n.keyword, "%s must be greater than %s", num, n.bound)
	}
	return ev.fail(n.keyword, "%s is less than minimum %s", num, n.bound)
}

type maximumNode struct {
	keyword   string
	bound     instance.Number
	exclusive bool
}

// MaximumNode builds an upper-bound node.
func MaximumNode(keyword string, bound instance.Number, exclusive bool) Node {
	return &maximumNode{keyword: keyword, bound: bound, exclusive: exclusive}
}

func (n *maximumNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	num, ok := instance.Num(v)
	if !ok {
		return true
	}
	cmp := num.Cmp(n.bound)
	if cmp < 0 || (cmp == 0 && !n.exclusive) {
		return true
	}
	if n.exclusive {
		return ev.fail(n.keyword, "%s must be less than %s", num, n.bound)
	}
	return ev.fail(n.keyword, "%s is greater than maximum %s", num, n.bound)
}

type multipleOfNode struct {
	divisor instance.Number
}

// MultipleOfNode builds a divisibility node.
func MultipleOfNode(divisor instance.Number) Node { return &multipleOfNode{divisor: divisor} }

func (n *multipleOfNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	num, ok := instance.Num(v)
	if !ok {
		return true
	}
	if num.MultipleOf(n.divisor) {
		return true
	}
	return ev.fail("multipleOf", "%s is not a multiple of %s", num, n.divisor)
}

type minLengthNode struct {
	limit int
}

// MinLengthNode builds a minimum string length node (code points).
func MinLengthNode(limit int) Node { return &minLengthNode{limit: limit} }

func (n *minLengthNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	s, ok := v.(string)
	if !ok {
		return true
	}
	if utf8.RuneCountInString(s) >= n.limit {
		return true
	}
	return ev.fail("minLength", "string is shorter than %d characters", n.limit)
}

type maxLengthNode struct {
	limit int
}

// MaxLengthNode builds a maximum string length node (code points).
func MaxLengthNode(limit int) Node { return &maxLengthNode{limit: limit} }

func (n *maxLengthNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	s, ok := v.(string)
	if !ok {
		return true
	}
	if utf8.RuneCountInString(s) <= n.limit {
		return true
	}
	return ev.fail("maxLength", "string is longer than %d characters", n.limit)
}

type patternNode struct {
	re *regexp.Regexp
}

// PatternNode builds a string pattern node.
func PatternNode(re *regexp.Regexp) Node { return &patternNode{re: re} }

func (n *patternNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	s, ok := v.(string)
	if !ok {
		return true
	}
	if n.re.MatchString(s) {
		return true
	}
	return ev.fail("pattern", "string does not match pattern %q", n.re.String())
}

type formatNode struct {
	name   string
	check  func(string) bool
	assert bool
}

// FormatNode builds a format node. Without a checker, or when the
// draft treats format as an annotation, the node always passes.
func FormatNode(name string, check func(string) bool, assert bool) Node {
	return &formatNode{name: name, check: check, assert: assert}
}

func (n *formatNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	if !n.assert || n.check == nil {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return true
	}
	if n.check(s) {
		return true
	}
	return ev.fail("format", "%q is not a valid %s", s, n.name)
}

type customNode struct {
	name string
	fn   func(any) error
}

// CustomNode wraps a registered custom-keyword check function: the
// single open extension point of the otherwise closed node set.
func CustomNode(name string, fn func(any) error) Node {
	return &customNode{name: name, fn: fn}
}

func (n *customNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	if err := n.fn(v); err != nil {
		return ev.fail(n.name, "%s", err.Error())
	}
	return true
}
