// Package formats holds the built-in format checkers. A checker reports
// whether a string value conforms to the named format; names without a
// registered checker are always accepted.
package formats

import (
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lucab/jsonschema/internal/jsonpointer"
)

// Checker reports whether a string conforms to a format.
type Checker func(string) bool

// Builtin returns the built-in checker for a format name, if any.
func Builtin(name string) (Checker, bool) {
	c, ok := builtins[name]
	return c, ok
}

var builtins = map[string]Checker{
	"date-time":             isDateTime,
	"date":                  isDate,
	"time":                  isTime,
	"duration":              isDuration,
	"email":                 isEmail,
	"hostname":              isHostname,
	"ipv4":                  isIPv4,
	"ipv6":                  isIPv6,
	"uri":                   isURI,
	"uri-reference":         isURIReference,
	"uuid":                  isUUID,
	"json-pointer":          isJSONPointer,
	"relative-json-pointer": isRelativeJSONPointer,
	"regex":                 isRegex,
}

func isDateTime(s string) bool {
	_, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// RFC 3339 permits lowercase t/z separators.
		_, err = time.Parse(time.RFC3339, strings.ToUpper(s))
	}
	return err == nil
}

func isDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func isTime(s string) bool {
	for _, layout := range []string{"15:04:05Z07:00", "15:04:05.999999999Z07:00"} {
		if _, err := time.Parse(layout, strings.ToUpper(s)); err == nil {
			return true
		}
	}
	return false
}

var durationPattern = regexp.MustCompile(
	`^P(?:\d+W|(?:\d+Y)?(?:\d+M)?(?:\d+D)?(?:T(?:\d+H)?(?:\d+M)?(?:\d+(?:\.\d+)?S)?)?)$`)

func isDuration(s string) bool {
	if !durationPattern.MatchString(s) {
		return false
	}
	// The pattern alone accepts "P" and "P...T" with empty components.
	return s != "P" && !strings.HasSuffix(s, "T")
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	// Reject the display-name form; only the bare address is a valid
	// email format value.
	return err == nil && addr.Address == s
}

func isHostname(s string) bool {
	s = strings.TrimSuffix(s, ".")
	if len(s) == 0 || len(s) > 253 {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			default:
				return false
			}
		}
	}
	return true
}

func isIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && strings.Count(s, ".") == 3 && ip.To4() != nil
}

func isIPv6(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && strings.Contains(s, ":")
}

func isURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs() && !strings.Contains(s, " ")
}

func isURIReference(s string) bool {
	_, err := url.Parse(s)
	return err == nil && !strings.Contains(s, " ")
}

func isUUID(s string) bool {
	// uuid.Parse accepts several aliases (urn prefix, braces); the
	// format allows only the plain hyphenated form.
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func isJSONPointer(s string) bool {
	if s == "" {
		return true
	}
	if !strings.HasPrefix(s, "/") {
		return false
	}
	_, err := jsonpointer.Parse(s)
	if err != nil {
		return false
	}
	// "~" must be followed by 0 or 1.
	for i := 0; i < len(s); i++ {
		if s[i] != '~' {
			continue
		}
		if i+1 >= len(s) || (s[i+1] != '0' && s[i+1] != '1') {
			return false
		}
	}
	return true
}

func isRelativeJSONPointer(s string) bool {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return false
	}
	prefix := s[:i]
	if len(prefix) > 1 && prefix[0] == '0' {
		return false
	}
	if _, err := strconv.Atoi(prefix); err != nil {
		return false
	}
	rest := s[i:]
	if rest == "#" {
		return true
	}
	return isJSONPointer(rest)
}

func isRegex(s string) bool {
	_, err := regexp.Compile(s)
	return err == nil
}
