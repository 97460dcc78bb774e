// Package compile turns schema documents into immutable runtime trees.
// It walks schemas recursively, dispatching keywords through the draft
// table, resolving references through the registry, and maintaining the
// node table that lets cyclic references resolve to an existing arena
// slot instead of recursing forever.
package compile

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lucab/jsonschema/errors"
	"github.com/lucab/jsonschema/internal/draft"
	"github.com/lucab/jsonschema/internal/formats"
	"github.com/lucab/jsonschema/internal/jsonpointer"
	"github.com/lucab/jsonschema/internal/registry"
	"github.com/lucab/jsonschema/internal/runtime"
)

// DefaultResolutionLimit caps reference-resolution recursion. The
// placeholder mechanism bounds legitimate cycles, so only pathological
// resource graphs approach this.
const DefaultResolutionLimit = 512

// CheckFunc validates an instance value for a custom keyword.
type CheckFunc func(instance any) error

// KeywordFunc compiles a custom keyword's schema value into a check.
type KeywordFunc func(value any) (CheckFunc, error)

// Config carries the compiler configuration assembled by the public
// options.
type Config struct {
	Registry *registry.Registry
	// Formats overrides or extends the built-in format checkers.
	Formats map[string]func(string) bool
	// Keywords holds custom keyword compilers by name.
	Keywords map[string]KeywordFunc
	// AssertFormats forces format assertion on or off; nil keeps the
	// per-draft default.
	AssertFormats *bool
	// ValidateSchema enables the shape pre-check of the schema itself.
	ValidateSchema  bool
	ResolutionLimit int
	Logger          *logrus.Logger
}

type compiler struct {
	cfg  Config
	reg  *registry.Registry
	tree *runtime.Tree

	// index maps canonical URI+pointer keys to arena slots. An entry
	// is inserted before its target compiles, breaking cycles.
	index map[string]int
	// resources maps canonical resource URIs to tree resource ids.
	resources map[string]int

	depth int
}

type scope struct {
	base     string
	d        draft.Draft
	resource int
	ptr      string
}

func (sc scope) child(tokens ...string) scope {
	out := sc
	for _, t := range tokens {
		out.ptr += "/" + jsonpointer.Escape(t)
	}
	return out
}

func (sc scope) location() string {
	return sc.base + "#" + sc.ptr
}

// Compile builds a runtime tree for the resource registered under
// rootURI.
func Compile(rootURI string, cfg Config) (*runtime.Tree, error) {
	if cfg.ResolutionLimit <= 0 {
		cfg.ResolutionLimit = DefaultResolutionLimit
	}
	c := &compiler{
		cfg:       cfg,
		reg:       cfg.Registry,
		tree:      &runtime.Tree{},
		index:     make(map[string]int),
		resources: make(map[string]int),
	}

	res, ok := c.reg.Resource(rootURI)
	if !ok {
		return nil, errors.NewCompile(errors.ErrUnresolvableReference, rootURI,
			"root resource not registered")
	}

	if cfg.ValidateSchema {
		if err := checkShape(res.Value, res.Draft, scope{base: res.URI, d: res.Draft}); err != nil {
			return nil, err
		}
	}

	rootIdx, err := c.compileTarget(&registry.Target{
		Key:   res.URI + "#",
		Value: res.Value,
		Base:  res.URI,
		Draft: res.Draft,
	})
	if err != nil {
		return nil, err
	}

	c.tree.Root = c.tree.At(rootIdx)
	c.tree.Finalize()
	return c.tree, nil
}

// compileTarget compiles a resolved reference target through the node
// table: an existing slot (placeholder included) is reused, otherwise a
// slot is reserved before descending so self-references terminate.
func (c *compiler) compileTarget(t *registry.Target) (int, error) {
	if idx, ok := c.index[t.Key]; ok {
		return idx, nil
	}
	if c.depth >= c.cfg.ResolutionLimit {
		return 0, errors.NewCompile(errors.ErrResolutionDepthExceeded, t.Key,
			"reference resolution exceeded %d levels", c.cfg.ResolutionLimit)
	}
	c.depth++
	defer func() { c.depth-- }()

	idx := c.tree.Reserve()
	c.index[t.Key] = idx

	rid, err := c.ensureResource(t.Base, t.Draft)
	if err != nil {
		return 0, err
	}

	ptr := ""
	if i := strings.IndexByte(t.Key, '#'); i >= 0 && strings.HasPrefix(t.Key[i+1:], "/") {
		ptr = t.Key[i+1:]
	}
	sc := scope{base: t.Base, d: t.Draft, resource: rid, ptr: ptr}

	sub, err := c.compileValue(t.Value, sc, true)
	if err != nil {
		return 0, err
	}
	c.tree.Set(idx, sub)
	return idx, nil
}

// ensureResource registers the per-resource dynamic-scope state: the
// arena slot of the resource root and its dynamic anchors, compiled
// eagerly so validate-time dynamic resolution is a map lookup.
func (c *compiler) ensureResource(base string, d draft.Draft) (int, error) {
	if id, ok := c.resources[base]; ok {
		return id, nil
	}

	info := &runtime.ResourceInfo{
		BaseURI:        base,
		DynamicAnchors: map[string]int{},
		RootIndex:      -1,
	}
	id := c.tree.AddResource(info)
	c.resources[base] = id

	res, ok := c.reg.Resource(base)
	if !ok {
		return id, nil
	}

	if d == draft.Draft2019 {
		if obj, isObj := res.Value.(map[string]any); isObj {
			anchor, has := obj["$recursiveAnchor"].(bool)
			info.RecursiveAnchor = has && anchor
		}
	}

	rootIdx, err := c.compileTarget(&registry.Target{
		Key:   res.URI + "#",
		Value: res.Value,
		Base:  res.URI,
		Draft: res.Draft,
	})
	if err != nil {
		return 0, err
	}
	info.RootIndex = rootIdx

	for _, a := range res.DynamicAnchors {
		idx, err := c.compileTarget(&registry.Target{
			Key:   a.Base + "#" + a.Name,
			Value: a.Value,
			Base:  a.Base,
			Draft: a.Draft,
		})
		if err != nil {
			return 0, err
		}
		info.DynamicAnchors[a.Name] = idx
	}
	return id, nil
}

// compileValue compiles one schema value. asResource suppresses the
// embedded-$id indirection when the caller is already compiling the
// value as a resource root.
func (c *compiler) compileValue(v any, sc scope, asResource bool) (*runtime.Subschema, error) {
	switch schema := v.(type) {
	case bool:
		if !sc.d.BooleanSchemas() {
			return nil, errors.NewCompile(errors.ErrInvalidSchema, sc.location(),
				"boolean schemas are not valid in %s", sc.d)
		}
		if schema {
			return runtime.TrueSchema(), nil
		}
		return runtime.FalseSchema(), nil
	case map[string]any:
		if !asResource {
			if sub, handled, err := c.compileEmbeddedResource(schema, sc); handled || err != nil {
				return sub, err
			}
		}
		return c.compileObjectSchema(schema, sc)
	default:
		return nil, errors.NewCompile(errors.ErrInvalidSchema, sc.location(),
			"schema must be an object or boolean, got %T", v)
	}
}

// compileEmbeddedResource routes objects declaring a non-fragment $id
// through the node table so references to the resource URI share the
// compiled subschema.
func (c *compiler) compileEmbeddedResource(obj map[string]any, sc scope) (*runtime.Subschema, bool, error) {
	id, ok := obj[sc.d.IDKeyword()].(string)
	if !ok || id == "" || strings.HasPrefix(id, "#") {
		return nil, false, nil
	}
	resolved, err := registry.ResolveURI(sc.base, id)
	if err != nil {
		return nil, false, errors.WrapCompile(errors.ErrInvalidSchema, sc.location(), err,
			"invalid %s %q", sc.d.IDKeyword(), id)
	}
	res, ok := c.reg.Resource(resolved)
	if !ok {
		return nil, false, nil
	}
	idx, err := c.compileTarget(&registry.Target{
		Key:   res.URI + "#",
		Value: res.Value,
		Base:  res.URI,
		Draft: res.Draft,
	})
	if err != nil {
		return nil, true, err
	}
	return c.tree.At(idx), true, nil
}

func (c *compiler) compileObjectSchema(obj map[string]any, sc scope) (*runtime.Subschema, error) {
	sub := &runtime.Subschema{Resource: sc.resource, Location: sc.location()}

	if ref, ok := obj["$ref"]; ok && sc.d.Has("$ref") {
		node, err := c.compileRefKeyword(ref, sc)
		if err != nil {
			return nil, err
		}
		sub.Nodes = append(sub.Nodes, node)
		if sc.d.RefIgnoresSiblings() {
			return sub, nil
		}
	}
	if ref, ok := obj["$recursiveRef"]; ok && sc.d.Has("$recursiveRef") {
		node, err := c.compileRecursiveRef(ref, sc)
		if err != nil {
			return nil, err
		}
		sub.Nodes = append(sub.Nodes, node)
	}
	if ref, ok := obj["$dynamicRef"]; ok && sc.d.Has("$dynamicRef") {
		node, err := c.compileDynamicRef(ref, sc)
		if err != nil {
			return nil, err
		}
		sub.Nodes = append(sub.Nodes, node)
	}

	for _, build := range keywordBuilders {
		nodes, err := build(c, obj, sc)
		if err != nil {
			return nil, err
		}
		sub.Nodes = append(sub.Nodes, nodes...)
	}

	custom, err := c.compileCustomKeywords(obj, sc)
	if err != nil {
		return nil, err
	}
	sub.Nodes = append(sub.Nodes, custom...)

	uneval, err := c.compileUnevaluated(obj, sc)
	if err != nil {
		return nil, err
	}
	sub.Nodes = append(sub.Nodes, uneval...)

	return sub, nil
}

// compileSub compiles a nested subschema owned by a keyword node.
func (c *compiler) compileSub(v any, sc scope) (*runtime.Subschema, error) {
	return c.compileValue(v, sc, false)
}

func (c *compiler) compileCustomKeywords(obj map[string]any, sc scope) ([]runtime.Node, error) {
	if len(c.cfg.Keywords) == 0 {
		return nil, nil
	}
	var nodes []runtime.Node
	for _, name := range sortedKeys(obj) {
		if sc.d.Has(name) {
			continue
		}
		hook, ok := c.cfg.Keywords[name]
		if !ok {
			continue
		}
		check, err := hook(obj[name])
		if err != nil {
			return nil, errors.WrapCompile(errors.ErrInvalidSchema, sc.child(name).location(), err,
				"custom keyword %q", name)
		}
		nodes = append(nodes, runtime.CustomNode(name, func(v any) error { return check(v) }))
	}
	return nodes, nil
}

func (c *compiler) compileUnevaluated(obj map[string]any, sc scope) ([]runtime.Node, error) {
	var nodes []runtime.Node
	if v, ok := obj["unevaluatedItems"]; ok && sc.d.Has("unevaluatedItems") {
		sub, err := c.compileSub(v, sc.child("unevaluatedItems"))
		if err != nil {
			return nil, err
		}
		c.tree.HasUnevaluated = true
		nodes = append(nodes, runtime.UnevaluatedItemsNode(sub))
	}
	if v, ok := obj["unevaluatedProperties"]; ok && sc.d.Has("unevaluatedProperties") {
		sub, err := c.compileSub(v, sc.child("unevaluatedProperties"))
		if err != nil {
			return nil, err
		}
		c.tree.HasUnevaluated = true
		nodes = append(nodes, runtime.UnevaluatedPropertiesNode(sub))
	}
	return nodes, nil
}

func (c *compiler) formatChecker(name string) func(string) bool {
	if fn, ok := c.cfg.Formats[name]; ok {
		return fn
	}
	if fn, ok := formats.Builtin(name); ok {
		return fn
	}
	return nil
}

func (c *compiler) assertFormats(d draft.Draft) bool {
	if c.cfg.AssertFormats != nil {
		return *c.cfg.AssertFormats
	}
	return d.FormatAssertedByDefault()
}

func (c *compiler) debugf(format string, args ...any) {
	if c.cfg.Logger != nil {
		c.cfg.Logger.Debugf(format, args...)
	}
}
