// Package jsonpointer implements RFC 6901 JSON Pointer evaluation
// against decoded JSON values.
package jsonpointer

import (
	"fmt"
	"strconv"
	"strings"
)

// Escape encodes a single reference token.
func Escape(token string) string {
	if !strings.ContainsAny(token, "~/") {
		return token
	}
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

// Unescape decodes a single reference token.
func Unescape(token string) string {
	if !strings.Contains(token, "~") {
		return token
	}
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}

// Parse splits a pointer into unescaped reference tokens.
// The empty pointer yields no tokens.
func Parse(pointer string) ([]string, error) {
	if pointer == "" {
		return nil, nil
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, fmt.Errorf("json pointer %q: must start with '/'", pointer)
	}
	raw := strings.Split(pointer[1:], "/")
	tokens := make([]string, len(raw))
	for i, t := range raw {
		tokens[i] = Unescape(t)
	}
	return tokens, nil
}

// Eval resolves a pointer against a document. It returns the addressed
// value, or false when any token does not exist.
func Eval(doc any, pointer string) (any, bool) {
	tokens, err := Parse(pointer)
	if err != nil {
		return nil, false
	}
	current := doc
	for _, token := range tokens {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[token]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			idx, err := arrayIndex(token)
			if err != nil || idx >= len(v) {
				return nil, false
			}
			current = v[idx]
		default:
			return nil, false
		}
	}
	return current, true
}

// Join appends reference tokens to a pointer.
func Join(base string, tokens ...string) string {
	var b strings.Builder
	b.WriteString(base)
	for _, t := range tokens {
		b.WriteByte('/')
		b.WriteString(Escape(t))
	}
	return b.String()
}

func arrayIndex(token string) (int, error) {
	if token == "-" {
		return 0, fmt.Errorf("json pointer: '-' does not address an existing element")
	}
	if len(token) > 1 && token[0] == '0' {
		return 0, fmt.Errorf("json pointer: leading zero in array index %q", token)
	}
	idx, err := strconv.Atoi(token)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("json pointer: invalid array index %q", token)
	}
	return idx, nil
}
