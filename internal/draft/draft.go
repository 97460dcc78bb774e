// Package draft maps JSON Schema specification versions to their
// keyword sets and per-draft semantic quirks. The compiler consults
// this table instead of branching on versions inside keyword logic, so
// adding a draft is an additive change here.
package draft

import "strings"

// Draft identifies a JSON Schema specification version.
type Draft int

const (
	// Unknown is the zero value; no draft has been determined.
	Unknown Draft = iota
	// Draft4 is JSON Schema draft-04.
	Draft4
	// Draft6 is JSON Schema draft-06.
	Draft6
	// Draft7 is JSON Schema draft-07.
	Draft7
	// Draft2019 is JSON Schema 2019-09.
	Draft2019
	// Draft2020 is JSON Schema 2020-12.
	Draft2020
)

// String returns the conventional short name of the draft.
func (d Draft) String() string {
	switch d {
	case Draft4:
		return "draft4"
	case Draft6:
		return "draft6"
	case Draft7:
		return "draft7"
	case Draft2019:
		return "2019-09"
	case Draft2020:
		return "2020-12"
	default:
		return "unknown"
	}
}

// MetaSchemaURI returns the canonical $schema URI for the draft.
func (d Draft) MetaSchemaURI() string {
	switch d {
	case Draft4:
		return "http://json-schema.org/draft-04/schema#"
	case Draft6:
		return "http://json-schema.org/draft-06/schema#"
	case Draft7:
		return "http://json-schema.org/draft-07/schema#"
	case Draft2019:
		return "https://json-schema.org/draft/2019-09/schema"
	case Draft2020:
		return "https://json-schema.org/draft/2020-12/schema"
	default:
		return ""
	}
}

// FromURI resolves a $schema URI to a draft. Scheme and trailing
// fragment differences are tolerated.
func FromURI(uri string) (Draft, bool) {
	normalized := strings.TrimSuffix(uri, "#")
	normalized = strings.TrimPrefix(normalized, "http://")
	normalized = strings.TrimPrefix(normalized, "https://")
	switch normalized {
	case "json-schema.org/draft-04/schema", "json-schema.org/schema":
		return Draft4, true
	case "json-schema.org/draft-06/schema":
		return Draft6, true
	case "json-schema.org/draft-07/schema":
		return Draft7, true
	case "json-schema.org/draft/2019-09/schema":
		return Draft2019, true
	case "json-schema.org/draft/2020-12/schema":
		return Draft2020, true
	default:
		return Unknown, false
	}
}

// Declared extracts the $schema declaration from a schema document.
// The second return reports whether a declaration was present.
func Declared(doc any) (string, bool) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return "", false
	}
	uri, ok := obj["$schema"].(string)
	return uri, ok
}

// BooleanSchemas reports whether whole schemas may be booleans.
func (d Draft) BooleanSchemas() bool { return d >= Draft6 }

// NumericExclusive reports whether exclusiveMinimum/exclusiveMaximum
// are standalone numeric bounds (draft6+) rather than boolean modifiers
// of minimum/maximum (draft4).
func (d Draft) NumericExclusive() bool { return d >= Draft6 }

// TupleItems reports whether items takes the tuple-or-single form with
// additionalItems (through 2019-09).
func (d Draft) TupleItems() bool { return d <= Draft2019 }

// RefIgnoresSiblings reports whether $ref suppresses sibling keywords
// (drafts 4 through 7).
func (d Draft) RefIgnoresSiblings() bool { return d <= Draft7 }

// IDKeyword returns the identifier keyword for the draft.
func (d Draft) IDKeyword() string {
	if d == Draft4 {
		return "id"
	}
	return "$id"
}

// FormatAssertedByDefault reports whether format is an assertion unless
// configured otherwise (drafts 4 through 7).
func (d Draft) FormatAssertedByDefault() bool { return d <= Draft7 }

type span struct {
	from Draft
	to   Draft
}

// keywords is the applicability table: keyword name to the draft range
// that recognizes it. Keywords outside their range are inert
// annotations.
var keywords = map[string]span{
	"$ref":                  {Draft4, Draft2020},
	"$recursiveRef":         {Draft2019, Draft2019},
	"$recursiveAnchor":      {Draft2019, Draft2019},
	"$dynamicRef":           {Draft2020, Draft2020},
	"$dynamicAnchor":        {Draft2020, Draft2020},
	"$anchor":               {Draft2019, Draft2020},
	"$defs":                 {Draft2019, Draft2020},
	"definitions":           {Draft4, Draft2020},
	"type":                  {Draft4, Draft2020},
	"enum":                  {Draft4, Draft2020},
	"const":                 {Draft6, Draft2020},
	"multipleOf":            {Draft4, Draft2020},
	"maximum":               {Draft4, Draft2020},
	"minimum":               {Draft4, Draft2020},
	"exclusiveMaximum":      {Draft4, Draft2020},
	"exclusiveMinimum":      {Draft4, Draft2020},
	"maxLength":             {Draft4, Draft2020},
	"minLength":             {Draft4, Draft2020},
	"pattern":               {Draft4, Draft2020},
	"format":                {Draft4, Draft2020},
	"items":                 {Draft4, Draft2020},
	"additionalItems":       {Draft4, Draft2019},
	"prefixItems":           {Draft2020, Draft2020},
	"maxItems":              {Draft4, Draft2020},
	"minItems":              {Draft4, Draft2020},
	"uniqueItems":           {Draft4, Draft2020},
	"contains":              {Draft6, Draft2020},
	"maxContains":           {Draft2019, Draft2020},
	"minContains":           {Draft2019, Draft2020},
	"unevaluatedItems":      {Draft2019, Draft2020},
	"maxProperties":         {Draft4, Draft2020},
	"minProperties":         {Draft4, Draft2020},
	"required":              {Draft4, Draft2020},
	"properties":            {Draft4, Draft2020},
	"patternProperties":     {Draft4, Draft2020},
	"additionalProperties":  {Draft4, Draft2020},
	"propertyNames":         {Draft6, Draft2020},
	"dependencies":          {Draft4, Draft7},
	"dependentRequired":     {Draft2019, Draft2020},
	"dependentSchemas":      {Draft2019, Draft2020},
	"unevaluatedProperties": {Draft2019, Draft2020},
	"allOf":                 {Draft4, Draft2020},
	"anyOf":                 {Draft4, Draft2020},
	"oneOf":                 {Draft4, Draft2020},
	"not":                   {Draft4, Draft2020},
	"if":                    {Draft7, Draft2020},
	"then":                  {Draft7, Draft2020},
	"else":                  {Draft7, Draft2020},
}

// Has reports whether the draft recognizes the keyword.
func (d Draft) Has(keyword string) bool {
	s, ok := keywords[keyword]
	if !ok {
		return false
	}
	return d >= s.from && d <= s.to
}
