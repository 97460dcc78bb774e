// Package jsonschema compiles JSON Schema documents into immutable
// validators and evaluates JSON instances against them. Drafts 4, 6, 7,
// 2019-09 and 2020-12 are supported, with the draft selected per
// resource from its $schema declaration.
//
// A compiled Schema is safe for concurrent use.
package jsonschema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"strings"

	"github.com/lucab/jsonschema/errors"
	"github.com/lucab/jsonschema/internal/compile"
	"github.com/lucab/jsonschema/internal/draft"
	"github.com/lucab/jsonschema/internal/registry"
	"github.com/lucab/jsonschema/internal/runtime"
)

// Schema is a compiled schema. It holds no mutable state: any number of
// goroutines may validate against it concurrently.
type Schema struct {
	tree  *runtime.Tree
	draft draft.Draft
	base  string
}

// Compile builds a validator from a decoded schema document, an object
// (map[string]any) or a boolean. Numeric schema values may be float64,
// json.Number or Go integer types.
func Compile(document any, opts ...Option) (*Schema, error) {
	cfg := newConfig(opts)

	reg := registry.New(registry.Config{
		Retriever:     cfg.retriever,
		DefaultDraft:  cfg.defaultDraft,
		ExplicitDraft: cfg.draft,
		Logger:        cfg.logger,
	})
	for uri, doc := range cfg.resources {
		if err := reg.Add(uri, doc); err != nil {
			return nil, err
		}
	}
	if err := reg.Add(cfg.baseURI, document); err != nil {
		return nil, err
	}
	rootURI := rootResourceURI(reg, cfg.baseURI, document)

	tree, err := compile.Compile(rootURI, compile.Config{
		Registry:        reg,
		Formats:         cfg.formats,
		Keywords:        cfg.keywords,
		AssertFormats:   cfg.assertFormats,
		ValidateSchema:  cfg.validateSchema,
		ResolutionLimit: cfg.resolutionLimit,
		Logger:          cfg.logger,
	})
	if err != nil {
		return nil, err
	}

	res, _ := reg.Resource(rootURI)
	return &Schema{tree: tree, draft: res.Draft, base: res.URI}, nil
}

// rootResourceURI follows the root document's $id, if any, so anchors
// and relative references resolve against the declared identifier
// rather than the retrieval URI.
func rootResourceURI(reg *registry.Registry, baseURI string, document any) string {
	obj, ok := document.(map[string]any)
	if !ok {
		return baseURI
	}
	res, ok := reg.Resource(baseURI)
	if !ok {
		return baseURI
	}
	id, ok := obj[res.Draft.IDKeyword()].(string)
	if !ok || id == "" || strings.HasPrefix(id, "#") {
		return baseURI
	}
	resolved, err := registry.ResolveURI(baseURI, id)
	if err != nil {
		return baseURI
	}
	return resolved
}

// CompileString parses a JSON schema document and compiles it. Numbers
// decode as json.Number so large integers and high-precision decimals
// keep their exact value.
func CompileString(document string, opts ...Option) (*Schema, error) {
	dec := json.NewDecoder(strings.NewReader(document))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.WrapCompile(errors.ErrInvalidSchema, "", err, "parse schema document")
	}
	if dec.More() {
		return nil, errors.NewCompile(errors.ErrInvalidSchema, "", "trailing data after schema document")
	}
	return Compile(doc, opts...)
}

// MustCompile is Compile for schemas known to be valid, typically
// package-level literals. It panics on error.
func MustCompile(document any, opts ...Option) *Schema {
	s, err := Compile(document, opts...)
	if err != nil {
		panic(fmt.Sprintf("jsonschema: compile: %v", err))
	}
	return s
}

// IsValid reports whether the instance satisfies the schema. It short
// circuits on the first violation and builds no error values.
func (s *Schema) IsValid(instance any) bool {
	return s.tree.Valid(instance)
}

// Validate returns nil for a valid instance, or the first violation as
// an *errors.Validation.
func (s *Schema) Validate(instance any) error {
	return s.tree.Validate(instance)
}

// Errors yields every violation in document order. The sequence is
// lazy: errors materialize as the caller consumes them, so breaking
// early costs no further evaluation. The sequence may be ranged over
// more than once.
func (s *Schema) Errors(instance any) iter.Seq[*errors.Validation] {
	return s.tree.Errors(instance)
}

// Draft returns the root resource's draft, e.g. "2020-12".
func (s *Schema) Draft() string {
	return s.draft.String()
}

// DecodeJSON decodes an instance document for validation, preserving
// numeric precision via json.Number.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after JSON document")
	}
	return v, nil
}
