package runtime

import (
	"strconv"

	"github.com/lucab/jsonschema/errors"
)

type allOfNode struct {
	subs []*Subschema
}

// AllOfNode builds a conjunction node.
func AllOfNode(subs []*Subschema) Node { return &allOfNode{subs: subs} }

func (n *allOfNode) eval(ev *Evaluator, v any, ann *annotations) bool {
	ok := true
	for i, sub := range n.subs {
		branchAnn := ev.childAnn()
		ev.pushKw("allOf", strconv.Itoa(i))
		good := sub.eval(ev, v, branchAnn)
		ev.popKw(2)
		if good {
			ann.merge(branchAnn)
			continue
		}
		ok = false
		if ev.yield == nil || ev.stopped {
			return false
		}
	}
	return ok
}

type anyOfNode struct {
	subs []*Subschema
}

// AnyOfNode builds a disjunction node. When annotation tracking is
// active every branch is evaluated so each successful branch
// contributes its evaluated properties and items; otherwise boolean
// mode stops at the first success.
func AnyOfNode(subs []*Subschema) Node { return &anyOfNode{subs: subs} }

func (n *anyOfNode) eval(ev *Evaluator, v any, ann *annotations) bool {
	anyPass := false
	var causes []*errors.Validation
	for i, sub := range n.subs {
		branchAnn := ev.childAnn()
		ev.pushKw("anyOf", strconv.Itoa(i))
		good, branchErrs := ev.collect(func() bool {
			return sub.eval(ev, v, branchAnn)
		})
		ev.popKw(2)
		if good {
			anyPass = true
			ann.merge(branchAnn)
			if !ev.trackAnn {
				return true
			}
			continue
		}
		causes = append(causes, branchErrs...)
	}
	if anyPass {
		return true
	}
	if ev.yield != nil {
		err := ev.newError("anyOf", "value does not match any of %d schemas", len(n.subs))
		err.Causes = causes
		return ev.failWith(err)
	}
	return false
}

type oneOfNode struct {
	subs []*Subschema
}

// OneOfNode builds an exactly-one node. Success requires exactly one
// matching branch; the over-match error names every passing index.
func OneOfNode(subs []*Subschema) Node { return &oneOfNode{subs: subs} }

func (n *oneOfNode) eval(ev *Evaluator, v any, ann *annotations) bool {
	var passing []int
	var passAnn *annotations
	var causes []*errors.Validation
	for i, sub := range n.subs {
		branchAnn := ev.childAnn()
		ev.pushKw("oneOf", strconv.Itoa(i))
		good, branchErrs := ev.collect(func() bool {
			return sub.eval(ev, v, branchAnn)
		})
		ev.popKw(2)
		if good {
			passing = append(passing, i)
			if passAnn == nil {
				passAnn = branchAnn
			}
			if len(passing) > 1 && ev.yield == nil {
				return false
			}
			continue
		}
		causes = append(causes, branchErrs...)
	}
	switch len(passing) {
	case 1:
		ann.merge(passAnn)
		return true
	case 0:
		if ev.yield != nil {
			err := ev.newError("oneOf", "value does not match any of %d schemas", len(n.subs))
			err.Causes = causes
			return ev.failWith(err)
		}
		return false
	default:
		return ev.fail("oneOf", "value matches schemas %v, expected exactly one", passing)
	}
}

type notNode struct {
	sub *Subschema
}

// NotNode builds a negation node.
func NotNode(sub *Subschema) Node { return &notNode{sub: sub} }

func (n *notNode) eval(ev *Evaluator, v any, _ *annotations) bool {
	ev.pushKw("not")
	good := ev.silent(func() bool {
		return n.sub.eval(ev, v, ev.childAnn())
	})
	ev.popKw(1)
	if !good {
		return true
	}
	return ev.fail("not", "value matches the schema it must not match")
}

// ifNode evaluates the conditional applicator: a passing if selects
// then, a failing if selects else, and a failing if without else is not
// itself a failure. Annotations of the if schema count whenever it
// passes.
type ifNode struct {
	cond *Subschema
	then *Subschema
	els  *Subschema
}

// IfNode builds an if/then/else node.
func IfNode(cond, then, els *Subschema) Node {
	return &ifNode{cond: cond, then: then, els: els}
}

func (n *ifNode) eval(ev *Evaluator, v any, ann *annotations) bool {
	condAnn := ev.childAnn()
	condPass := ev.silent(func() bool {
		return n.cond.eval(ev, v, condAnn)
	})
	if condPass {
		ann.merge(condAnn)
		if n.then == nil {
			return true
		}
		branchAnn := ev.childAnn()
		ev.pushKw("then")
		good := n.then.eval(ev, v, branchAnn)
		ev.popKw(1)
		if good {
			ann.merge(branchAnn)
		}
		return good
	}
	if n.els == nil {
		return true
	}
	branchAnn := ev.childAnn()
	ev.pushKw("else")
	good := n.els.eval(ev, v, branchAnn)
	ev.popKw(1)
	if good {
		ann.merge(branchAnn)
	}
	return good
}

type refNode struct {
	target int
}

// RefNode builds a static reference node holding an arena index.
func RefNode(target int) Node { return &refNode{target: target} }

func (n *refNode) eval(ev *Evaluator, v any, ann *annotations) bool {
	return evalRef(ev, v, ann, "$ref", n.target)
}

// dynamicRefNode resolves its target at validate time: when the static
// target is a $dynamicAnchor, the outermost resource in the dynamic
// scope declaring that anchor wins.
type dynamicRefNode struct {
	fallback int
	anchor   string
	dynamic  bool
}

// DynamicRefNode builds a $dynamicRef node. dynamic marks that the
// statically resolved target is a matching $dynamicAnchor.
func DynamicRefNode(fallback int, anchor string, dynamic bool) Node {
	return &dynamicRefNode{fallback: fallback, anchor: anchor, dynamic: dynamic}
}

func (n *dynamicRefNode) eval(ev *Evaluator, v any, ann *annotations) bool {
	target := n.fallback
	if n.dynamic {
		for _, rid := range ev.dynamic {
			if idx, ok := ev.tree.Resources[rid].DynamicAnchors[n.anchor]; ok {
				target = idx
				break
			}
		}
	}
	return evalRef(ev, v, ann, "$dynamicRef", target)
}

// recursiveRefNode is the 2019-09 precursor of dynamicRefNode: when the
// static target root declares $recursiveAnchor, the outermost dynamic
// scope resource with $recursiveAnchor wins.
type recursiveRefNode struct {
	fallback int
	anchored bool
}

// RecursiveRefNode builds a $recursiveRef node.
func RecursiveRefNode(fallback int, anchored bool) Node {
	return &recursiveRefNode{fallback: fallback, anchored: anchored}
}

func (n *recursiveRefNode) eval(ev *Evaluator, v any, ann *annotations) bool {
	target := n.fallback
	if n.anchored {
		for _, rid := range ev.dynamic {
			if res := ev.tree.Resources[rid]; res.RecursiveAnchor {
				target = res.RootIndex
				break
			}
		}
	}
	return evalRef(ev, v, ann, "$recursiveRef", target)
}

func evalRef(ev *Evaluator, v any, ann *annotations, keyword string, target int) bool {
	sub := ev.tree.Nodes[target]
	if sub == nil {
		// Backfill invariant violated; surface instead of crashing.
		return ev.fail(keyword, "unresolved reference target %d", target)
	}
	// A target re-entered without any instance descent cannot make
	// progress: the cycle adds no constraint beyond what its first entry
	// already checks, so it passes.
	for _, fr := range ev.refStack {
		if fr.target == target && fr.depth == ev.instDepth {
			return true
		}
	}
	ev.refStack = append(ev.refStack, refFrame{target: target, depth: ev.instDepth})
	branchAnn := ev.childAnn()
	ev.pushKw(keyword)
	good := sub.eval(ev, v, branchAnn)
	ev.popKw(1)
	ev.refStack = ev.refStack[:len(ev.refStack)-1]
	if good {
		ann.merge(branchAnn)
	}
	return good
}
