// Package runtime holds the compiled validator tree and its execution
// engine. A Tree is immutable once built: validation allocates all of
// its per-call state in an Evaluator, so one Tree may be used from many
// goroutines concurrently.
package runtime

import (
	"iter"

	"github.com/lucab/jsonschema/errors"
)

// Tree is a compiled schema: the root subschema plus an arena of every
// subschema reachable through references, keyed during compilation by
// canonical URI and pointer. Reference nodes hold arena indices, which
// lets cyclic schemas resolve to an existing slot instead of being
// inlined without bound.
type Tree struct {
	Root      *Subschema
	Nodes     []*Subschema
	Resources []*ResourceInfo

	// HasUnevaluated is set when any unevaluatedProperties or
	// unevaluatedItems node exists; annotation tracking is skipped
	// entirely otherwise.
	HasUnevaluated bool
}

// ResourceInfo is the per-resource state needed at validate time for
// dynamic and recursive references.
type ResourceInfo struct {
	BaseURI string
	// RootIndex is the arena slot of the resource root subschema.
	RootIndex int
	// DynamicAnchors maps $dynamicAnchor names to arena slots.
	DynamicAnchors map[string]int
	// RecursiveAnchor is set when the resource root declares
	// $recursiveAnchor: true (2019-09).
	RecursiveAnchor bool
}

// Subschema is one compiled schema value: either a boolean constant or
// an ordered list of keyword nodes. Keyword nodes own their compiled
// child subschemas; only reference nodes point back into the arena.
type Subschema struct {
	// Always, when non-nil, is the boolean-schema constant.
	Always *bool
	// Nodes are evaluated in order; the compiler places unevaluated*
	// keywords last so sibling annotations are complete when they run.
	Nodes []Node
	// Resource indexes Tree.Resources; -1 inherits the enclosing
	// dynamic scope.
	Resource int
	// Location is the canonical URI+pointer of this subschema, kept
	// for diagnostics.
	Location string
}

// Node is one compiled keyword. The set of implementations is closed
// within this package; custom keywords enter through the single
// CustomNode variant.
type Node interface {
	eval(ev *Evaluator, v any, ann *annotations) bool
}

// Valid walks the tree in boolean mode: combinators short-circuit and
// no error values or locations are constructed.
func (t *Tree) Valid(instance any) bool {
	ev := &Evaluator{tree: t, trackAnn: t.HasUnevaluated}
	return t.Root.eval(ev, instance, ev.rootAnn())
}

// Errors walks the tree in error mode, lazily yielding every failing
// constraint. The sequence is restartable: each range call validates
// again. Stopping early stops validation work immediately.
func (t *Tree) Errors(instance any) iter.Seq[*errors.Validation] {
	return func(yield func(*errors.Validation) bool) {
		ev := &Evaluator{tree: t, trackAnn: t.HasUnevaluated, yield: yield}
		t.Root.eval(ev, instance, ev.rootAnn())
	}
}

// Validate returns the first failing constraint, or nil.
func (t *Tree) Validate(instance any) error {
	for err := range t.Errors(instance) {
		return err
	}
	return nil
}

// eval evaluates a subschema against an instance value. ann is the
// annotation set of the calling scope for this instance location;
// sibling keywords record evaluated property names and item indices
// into it.
func (s *Subschema) eval(ev *Evaluator, v any, ann *annotations) bool {
	if s.Always != nil {
		if *s.Always {
			return true
		}
		return ev.failHere("schema", "false schema: no value is valid")
	}

	pushed := false
	if s.Resource >= 0 && (len(ev.dynamic) == 0 || ev.dynamic[len(ev.dynamic)-1] != s.Resource) {
		ev.dynamic = append(ev.dynamic, s.Resource)
		pushed = true
	}

	ok := true
	for _, n := range s.Nodes {
		if !n.eval(ev, v, ann) {
			ok = false
			if ev.yield == nil || ev.stopped {
				break
			}
		}
	}

	if pushed {
		ev.dynamic = ev.dynamic[:len(ev.dynamic)-1]
	}
	return ok
}

// TrueSchema returns an always-passing subschema.
func TrueSchema() *Subschema {
	t := true
	return &Subschema{Always: &t, Resource: -1}
}

// FalseSchema returns an always-failing subschema.
func FalseSchema() *Subschema {
	f := false
	return &Subschema{Always: &f, Resource: -1}
}
