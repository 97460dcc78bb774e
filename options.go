package jsonschema

import (
	"github.com/sirupsen/logrus"

	"github.com/lucab/jsonschema/internal/compile"
	"github.com/lucab/jsonschema/internal/draft"
)

// Draft identifies a JSON Schema specification revision.
type Draft int

const (
	Draft4 Draft = iota + 1
	Draft6
	Draft7
	Draft2019
	Draft2020
)

func (d Draft) internal() draft.Draft {
	switch d {
	case Draft4:
		return draft.Draft4
	case Draft6:
		return draft.Draft6
	case Draft7:
		return draft.Draft7
	case Draft2019:
		return draft.Draft2019
	case Draft2020:
		return draft.Draft2020
	default:
		return draft.Unknown
	}
}

// String returns the revision label, e.g. "2019-09".
func (d Draft) String() string { return d.internal().String() }

// CheckFunc validates an instance value for a custom keyword. A nil
// return means the value is acceptable.
type CheckFunc = compile.CheckFunc

// KeywordCompiler compiles a custom keyword's schema value once at
// schema compilation time and returns the per-instance check.
type KeywordCompiler = compile.KeywordFunc

// Option configures schema compilation.
type Option func(*config)

type config struct {
	draft           draft.Draft
	defaultDraft    draft.Draft
	baseURI         string
	retriever       Retriever
	resources       map[string]any
	formats         map[string]func(string) bool
	keywords        map[string]compile.KeywordFunc
	assertFormats   *bool
	validateSchema  bool
	resolutionLimit int
	logger          *logrus.Logger
}

func newConfig(opts []Option) *config {
	cfg := &config{validateSchema: true}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithDraft forces every resource to compile under the given draft,
// overriding $schema declarations.
func WithDraft(d Draft) Option {
	return func(c *config) { c.draft = d.internal() }
}

// WithDefaultDraft selects the draft for resources that carry no
// $schema declaration. Without it such resources default to 2020-12.
func WithDefaultDraft(d Draft) Option {
	return func(c *config) { c.defaultDraft = d.internal() }
}

// WithBaseURI sets the retrieval URI of the root document, the base
// against which its relative references resolve.
func WithBaseURI(uri string) Option {
	return func(c *config) { c.baseURI = uri }
}

// WithRetriever supplies the capability to fetch external schema
// resources. Without it any reference leaving the known resources fails
// compilation.
func WithRetriever(r Retriever) Option {
	return func(c *config) { c.retriever = r }
}

// WithResource pre-registers a schema document under a URI, so
// references to it resolve without retrieval.
func WithResource(uri string, document any) Option {
	return func(c *config) {
		if c.resources == nil {
			c.resources = map[string]any{}
		}
		c.resources[uri] = document
	}
}

// WithFormat registers or overrides a format checker.
func WithFormat(name string, fn func(string) bool) Option {
	return func(c *config) {
		if c.formats == nil {
			c.formats = map[string]func(string) bool{}
		}
		c.formats[name] = fn
	}
}

// WithKeyword registers a custom keyword. The compiler invokes fn
// wherever the keyword appears in a schema object and no built-in
// keyword of that name applies.
func WithKeyword(name string, fn KeywordCompiler) Option {
	return func(c *config) {
		if c.keywords == nil {
			c.keywords = map[string]compile.KeywordFunc{}
		}
		c.keywords[name] = fn
	}
}

// WithFormatAssertions forces format assertion on or off. The default
// follows the draft: asserted through draft 7, annotation-only from
// 2019-09.
func WithFormatAssertions(assert bool) Option {
	return func(c *config) { c.assertFormats = &assert }
}

// WithoutSchemaValidation skips the structural check of the schema
// document before compilation.
func WithoutSchemaValidation() Option {
	return func(c *config) { c.validateSchema = false }
}

// WithResolutionLimit caps reference-resolution depth during
// compilation. Zero keeps the default.
func WithResolutionLimit(n int) Option {
	return func(c *config) { c.resolutionLimit = n }
}

// WithLogger enables debug traces of reference resolution and external
// retrieval.
func WithLogger(l *logrus.Logger) Option {
	return func(c *config) { c.logger = l }
}
