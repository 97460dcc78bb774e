// Package registry implements the resource store: schema documents
// keyed by canonical URI, an index of embedded $id subresources, and an
// anchor index populated by a breadth-first pre-pass over each added
// document. External documents are retrieved through the caller
// supplied retriever, at most once per distinct URI, and cached.
package registry

import (
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lucab/jsonschema/errors"
	"github.com/lucab/jsonschema/internal/draft"
	"github.com/lucab/jsonschema/internal/jsonpointer"
)

// Retriever fetches an external schema document by URI. It is invoked
// synchronously; retry and timeout policy belong to the implementation,
// not to the resolver.
type Retriever interface {
	Retrieve(uri string) (any, error)
}

// Resource is a schema value registered under a canonical URI.
type Resource struct {
	// URI is the canonical, fragmentless URI of the resource.
	URI string
	// Value is the schema value at the resource root.
	Value any
	// Draft is the dialect the resource is interpreted under.
	Draft draft.Draft
	// DynamicAnchors lists the $dynamicAnchor declarations scoped to
	// this resource, in discovery order.
	DynamicAnchors []AnchorRef
}

// AnchorRef locates one anchor declaration.
type AnchorRef struct {
	// Name is the plain anchor name.
	Name string
	// Base is the canonical URI of the resource the anchor lives in.
	Base string
	// Value is the subschema carrying the anchor.
	Value any
	// Draft is the dialect of the enclosing resource.
	Draft draft.Draft
	// Dynamic marks $dynamicAnchor (and 2019-09 $recursiveAnchor
	// participation is handled separately by the compiler).
	Dynamic bool
}

// Target is a resolved reference: the addressed schema value plus the
// context needed to compile it.
type Target struct {
	// Key uniquely identifies the target for the compiler's node
	// table: canonical URI, "#", then pointer or anchor name.
	Key string
	// Value is the addressed schema value.
	Value any
	// Base is the canonical URI of the enclosing resource; nested
	// references inside Value resolve against it.
	Base string
	// Draft is the dialect of the enclosing resource.
	Draft draft.Draft
}

// Config configures a Registry.
type Config struct {
	// Retriever fetches unknown external URIs; nil means external
	// references are compile errors.
	Retriever Retriever
	// DefaultDraft applies to documents without a recognized $schema.
	DefaultDraft draft.Draft
	// ExplicitDraft, when set, overrides any $schema declaration.
	ExplicitDraft draft.Draft
	// Logger, when non-nil, receives debug traces of resolution and
	// retrieval.
	Logger *logrus.Logger
}

type anchorKey struct {
	uri  string
	name string
}

// Registry is the resource store for one compilation session.
type Registry struct {
	cfg       Config
	documents map[string]any
	resources map[string]*Resource
	anchors   map[anchorKey]*AnchorRef
}

// New creates an empty registry.
func New(cfg Config) *Registry {
	return &Registry{
		cfg:       cfg,
		documents: make(map[string]any),
		resources: make(map[string]*Resource),
		anchors:   make(map[anchorKey]*AnchorRef),
	}
}

// Add registers a document under a canonical URI and indexes its
// embedded resources and anchors. Adding a URI twice is a no-op.
func (r *Registry) Add(uri string, doc any) error {
	uri = strings.TrimSuffix(uri, "#")
	if _, ok := r.documents[uri]; ok {
		return nil
	}
	r.documents[uri] = doc
	return r.scan(uri, doc)
}

// Resource returns the resource registered under a canonical URI.
func (r *Registry) Resource(uri string) (*Resource, bool) {
	res, ok := r.resources[strings.TrimSuffix(uri, "#")]
	return res, ok
}

// DetectDraft determines the dialect of a document from its $schema
// declaration, the explicit override, and the default draft.
func (r *Registry) DetectDraft(doc any) (draft.Draft, error) {
	if r.cfg.ExplicitDraft != draft.Unknown {
		return r.cfg.ExplicitDraft, nil
	}
	if uri, ok := draft.Declared(doc); ok {
		if d, ok := draft.FromURI(uri); ok {
			return d, nil
		}
		if r.cfg.DefaultDraft != draft.Unknown {
			return r.cfg.DefaultDraft, nil
		}
		return draft.Unknown, errors.NewCompile(errors.ErrUnknownSpecification, uri,
			"unrecognized $schema dialect")
	}
	if r.cfg.DefaultDraft != draft.Unknown {
		return r.cfg.DefaultDraft, nil
	}
	return draft.Draft2020, nil
}

// Resolve resolves a reference string against a base URI, retrieving
// the target document externally when it is not yet in the store.
func (r *Registry) Resolve(base, ref string) (*Target, error) {
	refURI, fragment := SplitFragment(ref)
	resolved, err := ResolveURI(base, refURI)
	if err != nil {
		return nil, errors.WrapCompile(errors.ErrUnresolvableReference, ref, err,
			"resolve reference against %q", base)
	}

	res, ok := r.resources[resolved]
	if !ok {
		if err := r.retrieve(resolved); err != nil {
			return nil, err
		}
		if res, ok = r.resources[resolved]; !ok {
			return nil, errors.NewCompile(errors.ErrUnresolvableReference, ref,
				"no resource registered for %q", resolved)
		}
	}

	if r.cfg.Logger != nil {
		r.cfg.Logger.WithFields(logrus.Fields{"base": base, "ref": ref}).
			Debug("resolved reference")
	}

	switch {
	case fragment == "":
		return &Target{Key: resolved + "#", Value: res.Value, Base: res.URI, Draft: res.Draft}, nil
	case strings.HasPrefix(fragment, "/"):
		value, ok := jsonpointer.Eval(res.Value, fragment)
		if !ok {
			return nil, errors.NewCompile(errors.ErrUnresolvableReference, ref,
				"pointer %q not found in %q", fragment, resolved)
		}
		return &Target{Key: resolved + "#" + fragment, Value: value, Base: res.URI, Draft: res.Draft}, nil
	default:
		anchor, ok := r.anchors[anchorKey{uri: resolved, name: fragment}]
		if !ok {
			return nil, errors.NewCompile(errors.ErrUnresolvableReference, ref,
				"anchor %q not found in %q", fragment, resolved)
		}
		return &Target{
			Key:   resolved + "#" + fragment,
			Value: anchor.Value,
			Base:  anchor.Base,
			Draft: anchor.Draft,
		}, nil
	}
}

// Anchor looks up a plain-name anchor in a resource.
func (r *Registry) Anchor(uri, name string) (*AnchorRef, bool) {
	a, ok := r.anchors[anchorKey{uri: strings.TrimSuffix(uri, "#"), name: name}]
	return a, ok
}

func (r *Registry) retrieve(uri string) error {
	if _, ok := r.documents[uri]; ok {
		// Document known but no resource was indexed under this URI.
		return nil
	}
	if r.cfg.Retriever == nil {
		return errors.NewCompile(errors.ErrUnresolvableReference, uri,
			"external resource not registered and no retriever configured")
	}
	doc, err := r.cfg.Retriever.Retrieve(uri)
	if err != nil {
		return errors.WrapCompile(errors.ErrRetrievalFailed, uri,
			pkgerrors.Wrapf(err, "retrieve %s", uri), "external retrieval failed")
	}
	if r.cfg.Logger != nil {
		r.cfg.Logger.WithField("uri", uri).Debug("retrieved external resource")
	}
	return r.Add(uri, doc)
}

type scanItem struct {
	base  string
	value any
	d     draft.Draft
}

// scan walks a document breadth-first, registering embedded $id
// resources and indexing anchors so pointer-less lookups are O(1).
func (r *Registry) scan(uri string, doc any) error {
	d, err := r.DetectDraft(doc)
	if err != nil {
		return err
	}

	root := &Resource{URI: uri, Value: doc, Draft: d}
	r.resources[uri] = root

	queue := []scanItem{{base: uri, value: doc, d: d}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		obj, ok := item.value.(map[string]any)
		if !ok {
			continue
		}

		base := item.base
		d := item.d
		if rebased, newDraft, err := r.registerResource(obj, base, d); err != nil {
			return err
		} else if rebased != "" {
			base, d = rebased, newDraft
		}
		r.registerAnchors(obj, base, d)

		for sub := range d.Subschemas(obj) {
			queue = append(queue, scanItem{base: base, value: sub, d: d})
		}
	}
	return nil
}

// registerResource handles an embedded $id (or draft4 id), returning
// the new base URI when the object establishes a resource.
func (r *Registry) registerResource(obj map[string]any, base string, d draft.Draft) (string, draft.Draft, error) {
	id, ok := obj[d.IDKeyword()].(string)
	if !ok || id == "" {
		return "", d, nil
	}
	// Fragment-only ids are legacy anchors, not resources.
	if strings.HasPrefix(id, "#") {
		if !d.RefIgnoresSiblings() {
			return "", d, errors.NewCompile(errors.ErrInvalidSchema, base,
				"%s must not be fragment-only in %s", d.IDKeyword(), d)
		}
		name := strings.TrimPrefix(id, "#")
		r.putAnchor(&AnchorRef{Name: name, Base: base, Value: obj, Draft: d}, base)
		return "", d, nil
	}

	resolved, err := ResolveURI(base, id)
	if err != nil {
		return "", d, errors.WrapCompile(errors.ErrInvalidSchema, base, err,
			"invalid %s %q", d.IDKeyword(), id)
	}

	// An embedded resource may switch dialect via its own $schema.
	nd := d
	if uri, ok := draft.Declared(obj); ok {
		if detected, ok := draft.FromURI(uri); ok {
			nd = detected
		}
	}

	if _, exists := r.resources[resolved]; !exists {
		r.resources[resolved] = &Resource{URI: resolved, Value: obj, Draft: nd}
	}
	return resolved, nd, nil
}

func (r *Registry) registerAnchors(obj map[string]any, base string, d draft.Draft) {
	if d.Has("$anchor") {
		if name, ok := obj["$anchor"].(string); ok && name != "" {
			r.putAnchor(&AnchorRef{Name: name, Base: base, Value: obj, Draft: d}, base)
		}
	}
	if d.Has("$dynamicAnchor") {
		if name, ok := obj["$dynamicAnchor"].(string); ok && name != "" {
			a := &AnchorRef{Name: name, Base: base, Value: obj, Draft: d, Dynamic: true}
			r.putAnchor(a, base)
			if res, ok := r.resources[base]; ok {
				res.DynamicAnchors = append(res.DynamicAnchors, *a)
			}
		}
	}
}

func (r *Registry) putAnchor(a *AnchorRef, base string) {
	key := anchorKey{uri: base, name: a.Name}
	if _, exists := r.anchors[key]; !exists {
		r.anchors[key] = a
	}
}
