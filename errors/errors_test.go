package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestValidationLocations(t *testing.T) {
	v := NewValidation("required", "missing property \"a/b\"",
		[]string{"items", "0"}, []string{"properties", "a/b", "required"})

	if got := v.InstanceLocation(); got != "/items/0" {
		t.Errorf("InstanceLocation() = %q, want %q", got, "/items/0")
	}
	if got := v.KeywordLocation(); got != "/properties/a~1b/required" {
		t.Errorf("KeywordLocation() = %q, want %q", got, "/properties/a~1b/required")
	}
	if !strings.Contains(v.Error(), "[required]") {
		t.Errorf("Error() = %q, want keyword tag", v.Error())
	}
}

func TestValidationRootLocation(t *testing.T) {
	v := NewValidation("type", "expected string", nil, nil)
	if got := v.InstanceLocation(); got != "" {
		t.Errorf("InstanceLocation() = %q, want empty root pointer", got)
	}
}

func TestAsValidation(t *testing.T) {
	v := NewValidation("type", "expected number", nil, nil)
	wrapped := fmt.Errorf("validate: %w", v)

	got, ok := AsValidation(wrapped)
	if !ok || got != v {
		t.Fatalf("AsValidation() = %v, %v, want original error", got, ok)
	}
	if _, ok := AsValidation(fmt.Errorf("plain")); ok {
		t.Fatal("AsValidation(plain) = true, want false")
	}
	if _, ok := AsValidation(nil); ok {
		t.Fatal("AsValidation(nil) = true, want false")
	}
}

func TestCompileError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := WrapCompile(ErrRetrievalFailed, "https://example.com/schema.json", cause, "retrieve resource")

	if got, ok := AsCompile(fmt.Errorf("compile: %w", err)); !ok || got.Code != ErrRetrievalFailed {
		t.Fatalf("AsCompile() = %v, %v, want retrieval-failed", got, ok)
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want cause", err.Unwrap())
	}
	for _, want := range []string{"retrieval-failed", "https://example.com/schema.json", "connection refused"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Error() = %q, want substring %q", err.Error(), want)
		}
	}
}
