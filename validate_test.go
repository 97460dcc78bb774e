package jsonschema_test

import (
	"fmt"
	"testing"

	"github.com/lucab/jsonschema"
)

func mustCompileString(t *testing.T, schema string, opts ...jsonschema.Option) *jsonschema.Schema {
	t.Helper()
	s, err := jsonschema.CompileString(schema, opts...)
	if err != nil {
		t.Fatalf("CompileString() error = %v", err)
	}
	return s
}

func TestValidateKeywords(t *testing.T) {
	tests := []struct {
		name     string
		schema   string
		instance any
		valid    bool
	}{
		{"type match", `{"type": "string"}`, "hello", true},
		{"type mismatch", `{"type": "string"}`, float64(1), false},
		{"type union", `{"type": ["string", "null"]}`, nil, true},
		{"integer accepts integral float", `{"type": "integer"}`, float64(2), true},
		{"integer rejects fraction", `{"type": "integer"}`, 2.5, false},
		{"boolean is not number", `{"type": "number"}`, true, false},

		{"enum member", `{"enum": [1, "two", null]}`, "two", true},
		{"enum numeric cross-representation", `{"enum": [1]}`, float64(1), true},
		{"enum non-member", `{"enum": [1, "two"]}`, "three", false},
		{"const object", `{"const": {"a": [1]}}`, map[string]any{"a": []any{float64(1)}}, true},
		{"const mismatch", `{"const": 1}`, float64(2), false},

		{"minimum inclusive", `{"minimum": 3}`, float64(3), true},
		{"minimum violated", `{"minimum": 3}`, 2.9, false},
		{"exclusiveMaximum boundary", `{"exclusiveMaximum": 3}`, float64(3), false},
		{"multipleOf integer", `{"multipleOf": 2}`, float64(8), true},
		{"multipleOf decimal", `{"multipleOf": 0.5}`, 2.5, true},
		{"multipleOf violated", `{"multipleOf": 2}`, float64(7), false},
		{"numeric keyword ignores strings", `{"minimum": 3}`, "1", true},

		{"minLength runes", `{"minLength": 3}`, "héé", true},
		{"minLength violated", `{"minLength": 3}`, "hé", false},
		{"maxLength", `{"maxLength": 2}`, "abc", false},
		{"pattern", `{"pattern": "^[a-z]+$"}`, "abc", true},
		{"pattern violated", `{"pattern": "^[a-z]+$"}`, "Abc", false},

		{"required present", `{"required": ["a"]}`, map[string]any{"a": float64(1)}, true},
		{"required missing", `{"required": ["a"]}`, map[string]any{"b": float64(1)}, false},
		{"required ignores non-objects", `{"required": ["a"]}`, "str", true},
		{"minProperties", `{"minProperties": 2}`, map[string]any{"a": float64(1)}, false},
		{"maxProperties", `{"maxProperties": 1}`, map[string]any{"a": float64(1)}, true},
		{"properties", `{"properties": {"a": {"type": "integer"}}}`, map[string]any{"a": float64(1)}, true},
		{"properties violated", `{"properties": {"a": {"type": "integer"}}}`, map[string]any{"a": "x"}, false},
		{"patternProperties", `{"patternProperties": {"^x-": {"type": "string"}}}`, map[string]any{"x-a": float64(1)}, false},
		{"additionalProperties false", `{"properties": {"a": true}, "additionalProperties": false}`, map[string]any{"a": 1, "b": 2}, false},
		{"additionalProperties schema", `{"additionalProperties": {"type": "integer"}}`, map[string]any{"n": float64(3)}, true},
		{"propertyNames", `{"propertyNames": {"maxLength": 2}}`, map[string]any{"abc": float64(1)}, false},
		{"dependentRequired", `{"dependentRequired": {"a": ["b"]}}`, map[string]any{"a": float64(1)}, false},
		{"dependentSchemas", `{"dependentSchemas": {"a": {"required": ["b"]}}}`, map[string]any{"a": 1, "b": 2}, true},

		{"minItems", `{"minItems": 2}`, []any{float64(1)}, false},
		{"maxItems", `{"maxItems": 2}`, []any{1, 2, 3}, false},
		{"uniqueItems", `{"uniqueItems": true}`, []any{float64(1), float64(1)}, false},
		{"uniqueItems deep", `{"uniqueItems": true}`, []any{map[string]any{"a": 1}, map[string]any{"a": 2}}, true},
		{"items schema", `{"items": {"type": "integer"}}`, []any{float64(1), "x"}, false},
		{"prefixItems", `{"prefixItems": [{"type": "string"}], "items": {"type": "integer"}}`, []any{"a", float64(1)}, true},
		{"prefixItems rest violated", `{"prefixItems": [{"type": "string"}], "items": {"type": "integer"}}`, []any{"a", "b"}, false},
		{"contains", `{"contains": {"type": "integer"}}`, []any{"a", float64(1)}, true},
		{"contains empty", `{"contains": {"type": "integer"}}`, []any{"a"}, false},
		{"minContains", `{"contains": {"type": "integer"}, "minContains": 2}`, []any{float64(1), "a"}, false},
		{"maxContains", `{"contains": {"type": "integer"}, "maxContains": 1}`, []any{float64(1), float64(2)}, false},
		{"minContains zero", `{"contains": {"type": "integer"}, "minContains": 0}`, []any{"a"}, true},

		{"allOf", `{"allOf": [{"minimum": 1}, {"maximum": 3}]}`, float64(2), true},
		{"allOf violated", `{"allOf": [{"minimum": 1}, {"maximum": 3}]}`, float64(4), false},
		{"anyOf", `{"anyOf": [{"type": "string"}, {"minimum": 5}]}`, float64(7), true},
		{"anyOf violated", `{"anyOf": [{"type": "string"}, {"minimum": 5}]}`, float64(2), false},
		{"oneOf single match", `{"oneOf": [{"type": "integer"}, {"minimum": 10}]}`, float64(3), true},
		{"oneOf double match", `{"oneOf": [{"type": "integer"}, {"minimum": 10}]}`, float64(12), false},
		{"not", `{"not": {"type": "string"}}`, float64(1), true},
		{"not violated", `{"not": {"type": "string"}}`, "s", false},
		{"if then", `{"if": {"type": "string"}, "then": {"minLength": 2}}`, "a", false},
		{"if else", `{"if": {"type": "string"}, "else": {"minimum": 5}}`, float64(2), false},
		{"failing if without else", `{"if": {"type": "string"}}`, float64(2), true},

		{"boolean schema true", `true`, map[string]any{"anything": true}, true},
		{"boolean schema false", `false`, nil, false},
		{"empty schema", `{}`, []any{"anything"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustCompileString(t, tt.schema)

			if got := s.IsValid(tt.instance); got != tt.valid {
				t.Fatalf("IsValid() = %v, want %v", got, tt.valid)
			}
			err := s.Validate(tt.instance)
			if (err == nil) != tt.valid {
				t.Fatalf("Validate() error = %v, want valid %v", err, tt.valid)
			}
		})
	}
}

func TestDraftNumericExclusive(t *testing.T) {
	draft4 := mustCompileString(t, `{
		"$schema": "http://json-schema.org/draft-04/schema#",
		"minimum": 0,
		"exclusiveMinimum": true
	}`)
	if draft4.IsValid(float64(0)) {
		t.Fatal("IsValid(0) = true, want false with boolean exclusiveMinimum")
	}
	if !draft4.IsValid(float64(1)) {
		t.Fatal("IsValid(1) = false, want true")
	}

	draft6 := mustCompileString(t, `{
		"$schema": "http://json-schema.org/draft-06/schema#",
		"exclusiveMinimum": 0
	}`)
	if draft6.IsValid(float64(0)) {
		t.Fatal("IsValid(0) = true, want false with numeric exclusiveMinimum")
	}
}

func TestDraftItemsForms(t *testing.T) {
	tuple := mustCompileString(t, `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"items": [{"type": "string"}, {"type": "integer"}],
		"additionalItems": false
	}`)
	if !tuple.IsValid([]any{"a", float64(1)}) {
		t.Fatal("IsValid(matching tuple) = false, want true")
	}
	if tuple.IsValid([]any{"a", float64(1), "extra"}) {
		t.Fatal("IsValid(tuple with extra) = true, want false")
	}

	// additionalItems is inert without the tuple form.
	single := mustCompileString(t, `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"items": {"type": "string"},
		"additionalItems": false
	}`)
	if !single.IsValid([]any{"a", "b", "c"}) {
		t.Fatal("IsValid(all strings) = false, want true")
	}
}

func TestDependenciesDraft7(t *testing.T) {
	s := mustCompileString(t, `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"dependencies": {
			"credit": ["billing"],
			"shipping": {"required": ["address"]}
		}
	}`)

	if s.IsValid(map[string]any{"credit": 1}) {
		t.Fatal("IsValid(credit without billing) = true, want false")
	}
	if !s.IsValid(map[string]any{"credit": 1, "billing": 2}) {
		t.Fatal("IsValid(credit with billing) = false, want true")
	}
	if s.IsValid(map[string]any{"shipping": 1}) {
		t.Fatal("IsValid(shipping without address) = true, want false")
	}
	if !s.IsValid(map[string]any{"other": 1}) {
		t.Fatal("IsValid(no trigger properties) = false, want true")
	}
}

func TestLargeNumberPrecision(t *testing.T) {
	s := mustCompileString(t, `{"const": 12345678901234567890}`)

	instance, err := jsonschema.DecodeJSON([]byte(`12345678901234567890`))
	if err != nil {
		t.Fatalf("DecodeJSON() error = %v", err)
	}
	if !s.IsValid(instance) {
		t.Fatal("IsValid(exact big integer) = false, want true")
	}

	other, err := jsonschema.DecodeJSON([]byte(`12345678901234567891`))
	if err != nil {
		t.Fatalf("DecodeJSON() error = %v", err)
	}
	if s.IsValid(other) {
		t.Fatal("IsValid(off-by-one big integer) = true, want false")
	}
}

func TestUnevaluatedProperties(t *testing.T) {
	s := mustCompileString(t, `{
		"allOf": [{"properties": {"a": true}}],
		"properties": {"b": true},
		"unevaluatedProperties": false
	}`)

	if !s.IsValid(map[string]any{"a": 1, "b": 2}) {
		t.Fatal("IsValid(all evaluated) = false, want true")
	}
	if s.IsValid(map[string]any{"a": 1, "c": 3}) {
		t.Fatal("IsValid(unevaluated property) = true, want false")
	}
}

func TestUnevaluatedPropertiesWithConditional(t *testing.T) {
	s := mustCompileString(t, `{
		"if": {"properties": {"kind": {"const": "user"}}, "required": ["kind"]},
		"then": {"properties": {"name": {"type": "string"}}},
		"properties": {"kind": true},
		"unevaluatedProperties": false
	}`)

	if !s.IsValid(map[string]any{"kind": "user", "name": "ada"}) {
		t.Fatal("IsValid(then branch evaluates name) = false, want true")
	}
	if s.IsValid(map[string]any{"kind": "other", "name": "ada"}) {
		t.Fatal("IsValid(name unevaluated outside then) = true, want false")
	}
}

func TestUnevaluatedItems(t *testing.T) {
	s := mustCompileString(t, `{
		"prefixItems": [{"type": "string"}],
		"unevaluatedItems": false
	}`)

	if !s.IsValid([]any{"a"}) {
		t.Fatal("IsValid(prefix only) = false, want true")
	}
	if s.IsValid([]any{"a", "b"}) {
		t.Fatal("IsValid(trailing unevaluated item) = true, want false")
	}
}

func TestErrorLocations(t *testing.T) {
	s := mustCompileString(t, `{
		"properties": {
			"list": {"items": {"type": "integer"}}
		}
	}`)

	err := s.Validate(map[string]any{"list": []any{float64(1), "x"}})
	if err == nil {
		t.Fatal("Validate() error = nil, want violation")
	}
	var v interface {
		InstanceLocation() string
		KeywordLocation() string
	}
	var ok bool
	v, ok = err.(interface {
		InstanceLocation() string
		KeywordLocation() string
	})
	if !ok {
		t.Fatalf("Validate() error type = %T, want *errors.Validation", err)
	}
	if got := v.InstanceLocation(); got != "/list/1" {
		t.Fatalf("InstanceLocation() = %q, want %q", got, "/list/1")
	}
	if got := v.KeywordLocation(); got != "/properties/list/items/type" {
		t.Fatalf("KeywordLocation() = %q, want %q", got, "/properties/list/items/type")
	}
}

func TestErrorsEnumeratesAllViolations(t *testing.T) {
	s := mustCompileString(t, `{
		"type": "object",
		"required": ["a", "b"],
		"minProperties": 3
	}`)

	var keywords []string
	for err := range s.Errors(map[string]any{"c": float64(1)}) {
		keywords = append(keywords, err.Keyword)
	}
	want := []string{"required", "required", "minProperties"}
	if len(keywords) != len(want) {
		t.Fatalf("Errors() yielded %v, want %v", keywords, want)
	}
	for i := range want {
		if keywords[i] != want[i] {
			t.Fatalf("Errors() yielded %v, want %v", keywords, want)
		}
	}
}

func TestErrorsFirstMatchesValidate(t *testing.T) {
	s := mustCompileString(t, `{"minLength": 5, "pattern": "^[a-z]+$"}`)

	verr := s.Validate("A")
	if verr == nil {
		t.Fatal("Validate() = nil, want violation")
	}
	for err := range s.Errors("A") {
		if err.Error() != verr.Error() {
			t.Fatalf("first of Errors() = %q, Validate() = %q", err.Error(), verr.Error())
		}
		break
	}
}

func TestErrorsAreLazy(t *testing.T) {
	// A counting keyword makes per-item evaluation observable: stopping
	// after the first violation must stop evaluating further items.
	var evaluations int
	counting := func(value any) (jsonschema.CheckFunc, error) {
		return func(instance any) error {
			evaluations++
			return fmt.Errorf("always fails")
		}, nil
	}

	s, err := jsonschema.Compile(map[string]any{
		"items": map[string]any{"alwaysFails": true},
	}, jsonschema.WithKeyword("alwaysFails", counting))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	items := make([]any, 10)
	for i := range items {
		items[i] = float64(i)
	}

	for range s.Errors(items) {
		break
	}
	if evaluations != 1 {
		t.Fatalf("evaluations after early stop = %d, want 1", evaluations)
	}

	evaluations = 0
	count := 0
	for range s.Errors(items) {
		count++
	}
	if count != len(items) {
		t.Fatalf("Errors() yielded %d violations, want %d", count, len(items))
	}
	if evaluations != len(items) {
		t.Fatalf("evaluations after full drain = %d, want %d", evaluations, len(items))
	}
}

func TestFormatAssertions(t *testing.T) {
	// Asserted by default through draft 7.
	draft7 := mustCompileString(t, `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"format": "email"
	}`)
	if draft7.IsValid("not-an-email") {
		t.Fatal("IsValid(bad email) = true, want false under draft 7")
	}

	// Annotation only from 2019-09.
	modern := mustCompileString(t, `{"format": "email"}`)
	if !modern.IsValid("not-an-email") {
		t.Fatal("IsValid(bad email) = false, want true under 2020-12 default")
	}

	forced := mustCompileString(t, `{"format": "email"}`, jsonschema.WithFormatAssertions(true))
	if forced.IsValid("not-an-email") {
		t.Fatal("IsValid(bad email) = true, want false with forced assertions")
	}
	if !forced.IsValid("user@example.com") {
		t.Fatal("IsValid(good email) = false, want true")
	}

	// Unknown format names pass.
	unknown := mustCompileString(t, `{"format": "no-such-format"}`, jsonschema.WithFormatAssertions(true))
	if !unknown.IsValid("anything") {
		t.Fatal("IsValid() = false, want true for unknown format")
	}

	// Non-strings are outside format scope.
	if !forced.IsValid(float64(1)) {
		t.Fatal("IsValid(number) = false, want true for format keyword")
	}
}

func TestCustomFormat(t *testing.T) {
	s := mustCompileString(t, `{"format": "even-length"}`,
		jsonschema.WithFormat("even-length", func(s string) bool { return len(s)%2 == 0 }),
		jsonschema.WithFormatAssertions(true),
	)

	if !s.IsValid("ab") {
		t.Fatal("IsValid(even) = false, want true")
	}
	if s.IsValid("abc") {
		t.Fatal("IsValid(odd) = true, want false")
	}
}

func TestCyclicSchemaTerminates(t *testing.T) {
	list := mustCompileString(t, `{
		"type": "object",
		"properties": {
			"value": {"type": "integer"},
			"next": {"$ref": "#"}
		}
	}`)

	valid := map[string]any{"value": float64(1), "next": map[string]any{"value": float64(2)}}
	if !list.IsValid(valid) {
		t.Fatal("IsValid(linked list) = false, want true")
	}
	invalid := map[string]any{"next": map[string]any{"next": map[string]any{"value": "x"}}}
	if list.IsValid(invalid) {
		t.Fatal("IsValid(bad tail) = true, want false")
	}

	// A schema that is nothing but a self-reference constrains nothing.
	self := mustCompileString(t, `{"$ref": "#"}`)
	if !self.IsValid(map[string]any{"any": "thing"}) {
		t.Fatal("IsValid() = false, want true for pure self-reference")
	}
}

func TestCyclicSchemaWithoutDescentTerminates(t *testing.T) {
	// Self-cycles that never descend into the instance must terminate in
	// every form a reference can take, not just a bare $ref chain.
	tests := []struct {
		name   string
		schema string
	}{
		{"allOf wrapped ref", `{"allOf": [{"$ref": "#"}]}`},
		{"recursiveRef", `{
			"$schema": "https://json-schema.org/draft/2019-09/schema",
			"$recursiveRef": "#"
		}`},
		{"recursiveRef anchored", `{
			"$schema": "https://json-schema.org/draft/2019-09/schema",
			"$recursiveAnchor": true,
			"$recursiveRef": "#"
		}`},
		{"dynamicRef anchored", `{
			"$id": "https://example.com/loop",
			"$dynamicAnchor": "node",
			"$dynamicRef": "#node"
		}`},
		{"anyOf wrapped ref", `{"anyOf": [{"$ref": "#"}, {"type": "string"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustCompileString(t, tt.schema)
			if !s.IsValid(float64(1)) {
				t.Fatal("IsValid(1) = false, want true")
			}
			if err := s.Validate(map[string]any{"any": "thing"}); err != nil {
				t.Fatalf("Validate() error = %v, want nil", err)
			}
			for range s.Errors(float64(1)) {
				t.Fatal("Errors() yielded an error for a schema that constrains nothing")
			}
		})
	}
}

func TestCyclicSchemaConstraintsStillApply(t *testing.T) {
	// Sibling assertions of a non-descending cycle keep their force, and
	// the cycle cut must not skip validation once the instance descends.
	s := mustCompileString(t, `{
		"type": ["object", "integer"],
		"properties": {
			"next": {"allOf": [{"$ref": "#"}]}
		}
	}`)

	if !s.IsValid(map[string]any{"next": float64(3)}) {
		t.Fatal("IsValid({next: 3}) = false, want true")
	}
	if !s.IsValid(map[string]any{"next": map[string]any{"next": float64(3)}}) {
		t.Fatal("IsValid(nested) = false, want true")
	}
	if s.IsValid(map[string]any{"next": "str"}) {
		t.Fatal("IsValid({next: str}) = true, want false")
	}
	if s.IsValid(map[string]any{"next": map[string]any{"next": "str"}}) {
		t.Fatal("IsValid(nested bad tail) = true, want false")
	}
	if s.IsValid("str") {
		t.Fatal(`IsValid("str") = true, want false`)
	}
}

func TestDraftReporting(t *testing.T) {
	tests := []struct {
		schema string
		opts   []jsonschema.Option
		want   string
	}{
		{`{"$schema": "http://json-schema.org/draft-04/schema#"}`, nil, "draft4"},
		{`{"$schema": "https://json-schema.org/draft/2019-09/schema"}`, nil, "2019-09"},
		{`{}`, nil, "2020-12"},
		{`{}`, []jsonschema.Option{jsonschema.WithDefaultDraft(jsonschema.Draft7)}, "draft7"},
		{`{"$schema": "https://json-schema.org/draft/2020-12/schema"}`,
			[]jsonschema.Option{jsonschema.WithDraft(jsonschema.Draft6)}, "draft6"},
	}
	for _, tt := range tests {
		s := mustCompileString(t, tt.schema, tt.opts...)
		if got := s.Draft(); got != tt.want {
			t.Fatalf("Draft() = %q, want %q", got, tt.want)
		}
	}
}
