package runtime

import (
	"strconv"

	"github.com/lucab/jsonschema/internal/instance"
)

// itemsNode evaluates positional (prefix) and remaining-item schemas.
// The compiler maps the draft-specific keyword layouts onto it:
// tuple items/additionalItems through 2019-09, prefixItems/items in
// 2020-12, and the single-schema items form as rest-only.
type itemsNode struct {
	prefix   []*Subschema
	prefixKw string
	rest     *Subschema
	restKw   string
}

// ItemsNode builds the combined array-applicator node.
func ItemsNode(prefix []*Subschema, prefixKw string, rest *Subschema, restKw string) Node {
	return &itemsNode{prefix: prefix, prefixKw: prefixKw, rest: rest, restKw: restKw}
}

func (n *itemsNode) eval(ev *Evaluator, v any, ann *annotations) bool {
	arr, isArr := v.([]any)
	if !isArr {
		return true
	}
	ok := true
	for i, item := range arr {
		var sub *Subschema
		var kwSegments int
		if i < len(n.prefix) {
			sub = n.prefix[i]
			ev.pushKw(n.prefixKw, strconv.Itoa(i))
			kwSegments = 2
		} else if n.rest != nil {
			sub = n.rest
			ev.pushKw(n.restKw)
			kwSegments = 1
		} else {
			continue
		}

		ev.pushInst(strconv.Itoa(i))
		good := sub.eval(ev, item, ev.childAnn())
		ev.popInst()
		ev.popKw(kwSegments)

		if good {
			ann.markItem(i)
			continue
		}
		ok = false
		if ev.yield == nil || ev.stopped {
			return false
		}
	}
	return ok
}

type minItemsNode struct {
	limit int
}

// MinItemsNode builds a minimum array length node.
func MinItemsNode(limit int) Node { return &minItemsNode{limit: limit} }

func (n *minItemsNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	arr, isArr := v.([]any)
	if !isArr || len(arr) >= n.limit {
		return true
	}
	return ev.fail("minItems", "array has fewer than %d items", n.limit)
}

type maxItemsNode struct {
	limit int
}

// MaxItemsNode builds a maximum array length node.
func MaxItemsNode(limit int) Node { return &maxItemsNode{limit: limit} }

func (n *maxItemsNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	arr, isArr := v.([]any)
	if !isArr || len(arr) <= n.limit {
		return true
	}
	return ev.fail("maxItems", "array has more than %d items", n.limit)
}

type uniqueItemsNode struct{}

// UniqueItemsNode builds a node rejecting duplicate array elements.
func UniqueItemsNode() Node { return uniqueItemsNode{} }

func (uniqueItemsNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	arr, isArr := v.([]any)
	if !isArr {
		return true
	}
	for i := 1; i < len(arr); i++ {
		for j := 0; j < i; j++ {
			if instance.Equal(arr[i], arr[j]) {
				return ev.fail("uniqueItems", "items at %d and %d are equal", j, i)
			}
		}
	}
	return true
}

// containsNode counts items matching its subschema. min defaults to 1;
// max < 0 means unbounded. A minContains of 0 makes the keyword pass
// even on zero matches.
type containsNode struct {
	sub *Subschema
	min int
	max int
}

// ContainsNode builds a contains/minContains/maxContains node.
func ContainsNode(sub *Subschema, min, max int) Node {
	return &containsNode{sub: sub, min: min, max: max}
}

func (n *containsNode) eval(ev *Evaluator, v any, ann *annotations) bool {
	arr, isArr := v.([]any)
	if !isArr {
		return true
	}
	matched := make([]int, 0, len(arr))
	for i, item := range arr {
		hit := ev.silent(func() bool {
			return n.sub.eval(ev, item, ev.childAnn())
		})
		if hit {
			matched = append(matched, i)
		}
	}
	if len(matched) < n.min {
		if n.min == 1 {
			return ev.fail("contains", "no items match the contains schema")
		}
		return ev.fail("minContains", "%d items match, fewer than minContains %d", len(matched), n.min)
	}
	if n.max >= 0 && len(matched) > n.max {
		return ev.fail("maxContains", "%d items match, more than maxContains %d", len(matched), n.max)
	}
	for _, i := range matched {
		ann.markItem(i)
	}
	return true
}

type unevaluatedItemsNode struct {
	sub *Subschema
}

// UnevaluatedItemsNode builds the node applied to every index no
// sibling keyword evaluated; it runs after its siblings.
func UnevaluatedItemsNode(sub *Subschema) Node { return &unevaluatedItemsNode{sub: sub} }

func (n *unevaluatedItemsNode) eval(ev *Evaluator, v any, ann *annotations) bool {
	arr, isArr := v.([]any)
	if !isArr {
		return true
	}
	ok := true
	for i, item := range arr {
		if ann.hasItem(i) {
			continue
		}
		ev.pushKw("unevaluatedItems")
		ev.pushInst(strconv.Itoa(i))
		good := n.sub.eval(ev, item, ev.childAnn())
		ev.popInst()
		ev.popKw(1)
		if good {
			ann.markItem(i)
			continue
		}
		ok = false
		if ev.yield == nil || ev.stopped {
			return false
		}
	}
	return ok
}
