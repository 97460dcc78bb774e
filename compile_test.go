package jsonschema_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lucab/jsonschema"
	"github.com/lucab/jsonschema/errors"
)

func wantCompileError(t *testing.T, err error, code errors.CompileCode) *errors.Compile {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want compile error %q", code)
	}
	ce, ok := errors.AsCompile(err)
	if !ok {
		t.Fatalf("error type = %T, want *errors.Compile", err)
	}
	if ce.Code != code {
		t.Fatalf("Code = %q, want %q", ce.Code, code)
	}
	return ce
}

func TestCompileInvalidSchemas(t *testing.T) {
	tests := []struct {
		name   string
		schema string
	}{
		{"type not a string", `{"type": 12}`},
		{"unknown type name", `{"type": "float"}`},
		{"enum not an array", `{"enum": "abc"}`},
		{"multipleOf zero", `{"multipleOf": 0}`},
		{"negative maxLength", `{"maxLength": -1}`},
		{"fractional minItems", `{"minItems": 1.5}`},
		{"bad pattern", `{"pattern": "[unclosed"}`},
		{"required non-strings", `{"required": [1]}`},
		{"empty allOf", `{"allOf": []}`},
		{"oneOf not an array", `{"oneOf": {"type": "string"}}`},
		{"schema is a number", `42`},
		{"bad patternProperties regex", `{"patternProperties": {"[": {}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jsonschema.CompileString(tt.schema)
			ce := wantCompileError(t, err, errors.ErrInvalidSchema)
			if ce.Message == "" {
				t.Fatal("Message is empty")
			}
		})
	}
}

func TestCompileErrorLocation(t *testing.T) {
	_, err := jsonschema.CompileString(`{
		"properties": {"a": {"items": {"multipleOf": 0}}}
	}`, jsonschema.WithBaseURI("https://example.com/s"))
	ce := wantCompileError(t, err, errors.ErrInvalidSchema)
	want := "https://example.com/s#/properties/a/items/multipleOf"
	if ce.Location != want {
		t.Fatalf("Location = %q, want %q", ce.Location, want)
	}
}

func TestBooleanSchemaByDraft(t *testing.T) {
	_, err := jsonschema.CompileString(`true`,
		jsonschema.WithDraft(jsonschema.Draft4))
	wantCompileError(t, err, errors.ErrInvalidSchema)

	if _, err := jsonschema.CompileString(`true`,
		jsonschema.WithDraft(jsonschema.Draft6)); err != nil {
		t.Fatalf("CompileString(true, draft6) error = %v", err)
	}
}

func TestUnknownDialect(t *testing.T) {
	_, err := jsonschema.CompileString(`{"$schema": "https://example.com/unknown-dialect"}`)
	wantCompileError(t, err, errors.ErrUnknownSpecification)

	// A default draft rescues unknown dialects.
	if _, err := jsonschema.CompileString(`{"$schema": "https://example.com/unknown-dialect"}`,
		jsonschema.WithDefaultDraft(jsonschema.Draft2020)); err != nil {
		t.Fatalf("CompileString() error = %v with default draft", err)
	}
}

func TestSchemaValidationToggle(t *testing.T) {
	// The broken definition is never referenced: only the structural
	// pre-check sees it.
	schema := `{"$defs": {"broken": {"type": 123}}, "type": "object"}`

	_, err := jsonschema.CompileString(schema)
	wantCompileError(t, err, errors.ErrInvalidSchema)

	s, err := jsonschema.CompileString(schema, jsonschema.WithoutSchemaValidation())
	if err != nil {
		t.Fatalf("CompileString() error = %v without schema validation", err)
	}
	if !s.IsValid(map[string]any{}) {
		t.Fatal("IsValid() = false, want true")
	}
}

func TestCompileStringParseErrors(t *testing.T) {
	if _, err := jsonschema.CompileString(`{"type": `); err == nil {
		t.Fatal("CompileString(truncated) error = nil, want parse error")
	}
	if _, err := jsonschema.CompileString(`{} {}`); err == nil {
		t.Fatal("CompileString(trailing data) error = nil, want parse error")
	}
}

func TestMustCompile(t *testing.T) {
	s := jsonschema.MustCompile(map[string]any{"type": "string"})
	if !s.IsValid("ok") {
		t.Fatal("IsValid() = false, want true")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("MustCompile(invalid) did not panic")
		}
	}()
	jsonschema.MustCompile(map[string]any{"type": 12})
}

func TestCustomKeyword(t *testing.T) {
	divisible := func(value any) (jsonschema.CheckFunc, error) {
		div, ok := value.(float64)
		if !ok || div == 0 {
			return nil, fmt.Errorf("divisibleBy must be a non-zero number")
		}
		return func(instance any) error {
			n, ok := instance.(float64)
			if !ok {
				return nil
			}
			if int64(n)%int64(div) != 0 {
				return fmt.Errorf("%v is not divisible by %v", n, div)
			}
			return nil
		}, nil
	}

	s, err := jsonschema.Compile(map[string]any{"divisibleBy": float64(3)},
		jsonschema.WithKeyword("divisibleBy", divisible))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !s.IsValid(float64(9)) {
		t.Fatal("IsValid(9) = false, want true")
	}
	if s.IsValid(float64(10)) {
		t.Fatal("IsValid(10) = true, want false")
	}
	verr := s.Validate(float64(10))
	v, ok := errors.AsValidation(verr)
	if !ok {
		t.Fatalf("Validate() error type = %T, want *errors.Validation", verr)
	}
	if v.Keyword != "divisibleBy" {
		t.Fatalf("Keyword = %q, want %q", v.Keyword, "divisibleBy")
	}

	// The keyword compiler itself can reject its schema value.
	_, err = jsonschema.Compile(map[string]any{"divisibleBy": "x"},
		jsonschema.WithKeyword("divisibleBy", divisible))
	ce := wantCompileError(t, err, errors.ErrInvalidSchema)
	if !strings.Contains(ce.Error(), "divisibleBy") {
		t.Fatalf("Error() = %q, want keyword name included", ce.Error())
	}
}

func TestCompileAcceptsDecodedDocument(t *testing.T) {
	doc := map[string]any{
		"type":       "object",
		"required":   []any{"id"},
		"properties": map[string]any{"id": map[string]any{"type": "integer"}},
	}
	s, err := jsonschema.Compile(doc)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !s.IsValid(map[string]any{"id": float64(1)}) {
		t.Fatal("IsValid() = false, want true")
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	src := `{
		"$defs": {"name": {"type": "string", "minLength": 1}},
		"type": "object",
		"properties": {"name": {"$ref": "#/$defs/name"}},
		"required": ["name"],
		"unevaluatedProperties": false
	}`
	instances := []any{
		map[string]any{"name": "ada"},
		map[string]any{"name": ""},
		map[string]any{"name": "ada", "extra": true},
		map[string]any{},
	}

	first := mustCompileString(t, src)
	second := mustCompileString(t, src)
	for i, doc := range instances {
		if got, want := second.IsValid(doc), first.IsValid(doc); got != want {
			t.Fatalf("instance %d: IsValid() = %v on recompile, want %v", i, got, want)
		}
	}
}
