package runtime

import (
	"fmt"
	"slices"

	"github.com/lucab/jsonschema/errors"
)

// Evaluator is the per-call state of one validation: the reporting
// mode, lazy location stacks, annotation tracking, and the dynamic
// scope of entered schema resources. Evaluators are never shared
// between calls.
type Evaluator struct {
	tree *Tree

	// yield receives errors in error mode; nil selects boolean mode.
	yield func(*errors.Validation) bool
	// stopped is set once the consumer stops the sequence; evaluation
	// unwinds without producing further errors.
	stopped bool

	trackAnn bool

	instPath []string
	kwPath   []string

	// instDepth counts instance descent in both modes; reference nodes
	// compare it against their entry depth to cut cycles that make no
	// instance progress.
	instDepth int
	refStack  []refFrame

	// dynamic is the stack of resource ids entered during descent,
	// outermost first. $dynamicRef and $recursiveRef scan it.
	dynamic []int
}

// refFrame records one active reference target and the instance depth
// it was entered at.
type refFrame struct {
	target int
	depth  int
}

func (ev *Evaluator) rootAnn() *annotations {
	if !ev.trackAnn {
		return nil
	}
	return &annotations{}
}

func (ev *Evaluator) childAnn() *annotations {
	if !ev.trackAnn {
		return nil
	}
	return &annotations{}
}

// fail reports a failing constraint. In boolean mode it only signals
// failure; no error value, message, or location string is built.
func (ev *Evaluator) fail(keyword, format string, args ...any) bool {
	if ev.yield == nil || ev.stopped {
		return false
	}
	err := errors.NewValidation(keyword, fmt.Sprintf(format, args...),
		slices.Clone(ev.instPath), snapshotKw(ev.kwPath, keyword))
	if !ev.yield(err) {
		ev.stopped = true
	}
	return false
}

// failHere reports a failure at the current keyword location without
// appending a keyword segment; used where the enclosing node already
// pushed the relevant segment (boolean false schemas).
func (ev *Evaluator) failHere(keyword, format string, args ...any) bool {
	if ev.yield == nil || ev.stopped {
		return false
	}
	err := errors.NewValidation(keyword, fmt.Sprintf(format, args...),
		slices.Clone(ev.instPath), slices.Clone(ev.kwPath))
	if !ev.yield(err) {
		ev.stopped = true
	}
	return false
}

// failWith reports a prebuilt error (combinators attach branch causes).
func (ev *Evaluator) failWith(err *errors.Validation) bool {
	if ev.yield == nil || ev.stopped {
		return false
	}
	if !ev.yield(err) {
		ev.stopped = true
	}
	return false
}

// newError builds an error at the current location without yielding.
func (ev *Evaluator) newError(keyword, format string, args ...any) *errors.Validation {
	return errors.NewValidation(keyword, fmt.Sprintf(format, args...),
		slices.Clone(ev.instPath), snapshotKw(ev.kwPath, keyword))
}

func snapshotKw(path []string, keyword string) []string {
	out := make([]string, 0, len(path)+1)
	out = append(out, path...)
	return append(out, keyword)
}

// Path segments are only materialized in error mode; the depth counter
// is maintained in both.

func (ev *Evaluator) pushInst(segment string) {
	ev.instDepth++
	if ev.yield != nil {
		ev.instPath = append(ev.instPath, segment)
	}
}

func (ev *Evaluator) popInst() {
	ev.instDepth--
	if ev.yield != nil {
		ev.instPath = ev.instPath[:len(ev.instPath)-1]
	}
}

func (ev *Evaluator) pushKw(segments ...string) {
	if ev.yield != nil {
		ev.kwPath = append(ev.kwPath, segments...)
	}
}

func (ev *Evaluator) popKw(n int) {
	if ev.yield != nil {
		ev.kwPath = ev.kwPath[:len(ev.kwPath)-n]
	}
}

// collect runs fn with errors routed into a slice instead of the
// consumer, so combinator nodes can attach branch failures as causes.
func (ev *Evaluator) collect(fn func() bool) (bool, []*errors.Validation) {
	if ev.yield == nil {
		return fn(), nil
	}
	var collected []*errors.Validation
	prev := ev.yield
	ev.yield = func(err *errors.Validation) bool {
		collected = append(collected, err)
		return true
	}
	ok := fn()
	ev.yield = prev
	return ok, collected
}

// silent runs fn in boolean mode regardless of the current mode; used
// where a subschema outcome is needed without reporting (if, not,
// anyOf probing).
func (ev *Evaluator) silent(fn func() bool) bool {
	prev := ev.yield
	ev.yield = nil
	ok := fn()
	ev.yield = prev
	return ok
}

// annotations is the evaluated-properties and evaluated-items record
// for one (schema scope, instance location) pair. A nil *annotations is
// inert: all methods are no-ops, which is how annotation tracking is
// disabled when no unevaluated* keyword exists in the tree.
type annotations struct {
	props map[string]struct{}
	items map[int]struct{}
}

func (a *annotations) markProp(name string) {
	if a == nil {
		return
	}
	if a.props == nil {
		a.props = make(map[string]struct{})
	}
	a.props[name] = struct{}{}
}

func (a *annotations) markItem(index int) {
	if a == nil {
		return
	}
	if a.items == nil {
		a.items = make(map[int]struct{})
	}
	a.items[index] = struct{}{}
}

func (a *annotations) hasProp(name string) bool {
	if a == nil {
		return false
	}
	_, ok := a.props[name]
	return ok
}

func (a *annotations) hasItem(index int) bool {
	if a == nil {
		return false
	}
	_, ok := a.items[index]
	return ok
}

// merge folds a successfully validated subschema's annotations into the
// parent scope.
func (a *annotations) merge(b *annotations) {
	if a == nil || b == nil {
		return
	}
	for name := range b.props {
		a.markProp(name)
	}
	for index := range b.items {
		a.markItem(index)
	}
}
