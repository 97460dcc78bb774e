package compile

import (
	"net/url"
	"strings"

	"github.com/lucab/jsonschema/internal/registry"
	"github.com/lucab/jsonschema/internal/runtime"
)

func refString(v any, sc scope, kw string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", invalid(sc, kw, "%s must be a string, got %T", kw, v)
	}
	return s, nil
}

func (c *compiler) compileRefKeyword(v any, sc scope) (runtime.Node, error) {
	ref, err := refString(v, sc, "$ref")
	if err != nil {
		return nil, err
	}
	c.debugf("resolving $ref %q against %q", ref, sc.base)
	target, err := c.reg.Resolve(sc.base, ref)
	if err != nil {
		return nil, err
	}
	idx, err := c.compileTarget(target)
	if err != nil {
		return nil, err
	}
	return runtime.RefNode(idx), nil
}

// compileDynamicRef resolves the reference statically for the fallback
// target and records the anchor name when the static target is a
// dynamic anchor, which arms the scope scan at validation time.
func (c *compiler) compileDynamicRef(v any, sc scope) (runtime.Node, error) {
	ref, err := refString(v, sc, "$dynamicRef")
	if err != nil {
		return nil, err
	}
	target, err := c.reg.Resolve(sc.base, ref)
	if err != nil {
		return nil, err
	}
	idx, err := c.compileTarget(target)
	if err != nil {
		return nil, err
	}
	anchor := plainFragment(ref)
	dynamic := false
	if anchor != "" {
		if a, ok := c.reg.Anchor(target.Base, anchor); ok && a.Dynamic {
			dynamic = true
		}
	}
	return runtime.DynamicRefNode(idx, anchor, dynamic), nil
}

func (c *compiler) compileRecursiveRef(v any, sc scope) (runtime.Node, error) {
	ref, err := refString(v, sc, "$recursiveRef")
	if err != nil {
		return nil, err
	}
	if ref != "#" {
		return nil, invalid(sc, "$recursiveRef", `$recursiveRef must be "#", got %q`, ref)
	}
	target, err := c.reg.Resolve(sc.base, "#")
	if err != nil {
		return nil, err
	}
	idx, err := c.compileTarget(target)
	if err != nil {
		return nil, err
	}
	anchored := false
	if res, ok := c.reg.Resource(target.Base); ok {
		if obj, isObj := res.Value.(map[string]any); isObj {
			b, has := obj["$recursiveAnchor"].(bool)
			anchored = has && b
		}
	}
	return runtime.RecursiveRefNode(idx, anchored), nil
}

// plainFragment returns the reference's fragment when it names an
// anchor rather than a JSON Pointer.
func plainFragment(ref string) string {
	_, frag := registry.SplitFragment(ref)
	if frag == "" || strings.HasPrefix(frag, "/") {
		return ""
	}
	if dec, err := url.PathUnescape(frag); err == nil {
		frag = dec
	}
	if strings.HasPrefix(frag, "/") {
		return ""
	}
	return frag
}
