package registry

import (
	"fmt"
	"net/url"
	"strings"
)

// SplitFragment separates a reference into its URI part and fragment.
func SplitFragment(ref string) (uri, fragment string) {
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return ref, ""
}

// ResolveURI composes a reference URI against a base per RFC 3986. Both
// the result and intermediate values are fragmentless.
func ResolveURI(base, ref string) (string, error) {
	ref, _ = SplitFragment(ref)
	if ref == "" {
		out, _ := SplitFragment(base)
		return out, nil
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse reference %q: %w", ref, err)
	}
	if refURL.IsAbs() {
		refURL.Fragment = ""
		return refURL.String(), nil
	}
	if base == "" {
		return ref, nil
	}
	baseFragmentless, _ := SplitFragment(base)
	baseURL, err := url.Parse(baseFragmentless)
	if err != nil {
		return "", fmt.Errorf("parse base %q: %w", base, err)
	}
	resolved := baseURL.ResolveReference(refURL)
	resolved.Fragment = ""
	return resolved.String(), nil
}
