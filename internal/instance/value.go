// Package instance models decoded JSON instance values: runtime kinds,
// numeric comparison across representations, and deep equality.
//
// Instances may carry numbers as float64 (encoding/json default),
// json.Number (UseNumber decoding), or native Go integer types when the
// caller builds the value programmatically. Comparisons are exact for
// decimal (json.Number) and integer representations.
package instance

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
)

// Kind is the JSON runtime kind of a value.
type Kind uint8

const (
	// KindNull is the null value.
	KindNull Kind = iota
	// KindBoolean is true or false.
	KindBoolean
	// KindNumber is any numeric value.
	KindNumber
	// KindString is a string.
	KindString
	// KindArray is an ordered list.
	KindArray
	// KindObject is a string-keyed map.
	KindObject
	// KindUnknown marks non-JSON Go values.
	KindUnknown
)

// String returns the JSON Schema type name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// KindOf classifies a decoded JSON value.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBoolean
	case string:
		return KindString
	case map[string]any:
		return KindObject
	case []any:
		return KindArray
	case float64, float32, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return KindNumber
	default:
		return KindUnknown
	}
}

type numKind uint8

const (
	numInt numKind = iota
	numFloat
	numRat
)

// Number is a numeric instance value in comparable form.
type Number struct {
	rat  *big.Rat
	i    int64
	f    float64
	kind numKind
}

// Num converts a value to a Number. The second return is false when the
// value is not numeric.
func Num(v any) (Number, bool) {
	switch n := v.(type) {
	case float64:
		return fromFloat(n), true
	case float32:
		return fromFloat(float64(n)), true
	case int:
		return Number{kind: numInt, i: int64(n)}, true
	case int8:
		return Number{kind: numInt, i: int64(n)}, true
	case int16:
		return Number{kind: numInt, i: int64(n)}, true
	case int32:
		return Number{kind: numInt, i: int64(n)}, true
	case int64:
		return Number{kind: numInt, i: n}, true
	case uint:
		return fromUint(uint64(n)), true
	case uint8:
		return Number{kind: numInt, i: int64(n)}, true
	case uint16:
		return Number{kind: numInt, i: int64(n)}, true
	case uint32:
		return Number{kind: numInt, i: int64(n)}, true
	case uint64:
		return fromUint(n), true
	case json.Number:
		return fromJSONNumber(n)
	default:
		return Number{}, false
	}
}

func fromFloat(f float64) Number {
	if f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
		return Number{kind: numInt, i: int64(f)}
	}
	return Number{kind: numFloat, f: f}
}

func fromUint(u uint64) Number {
	if u <= math.MaxInt64 {
		return Number{kind: numInt, i: int64(u)}
	}
	r := new(big.Rat).SetUint64(u)
	return Number{kind: numRat, rat: r}
}

func fromJSONNumber(n json.Number) (Number, bool) {
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return Number{kind: numInt, i: i}, true
	}
	if r, ok := new(big.Rat).SetString(n.String()); ok {
		if r.IsInt() && r.Num().IsInt64() {
			return Number{kind: numInt, i: r.Num().Int64()}, true
		}
		return Number{kind: numRat, rat: r}, true
	}
	if f, err := n.Float64(); err == nil {
		return fromFloat(f), true
	}
	return Number{}, false
}

func (n Number) toRat() *big.Rat {
	switch n.kind {
	case numInt:
		return new(big.Rat).SetInt64(n.i)
	case numFloat:
		if r := new(big.Rat).SetFloat64(n.f); r != nil {
			return r
		}
		return new(big.Rat)
	default:
		return n.rat
	}
}

// Cmp compares two numbers, returning -1, 0 or +1.
func (n Number) Cmp(o Number) int {
	if n.kind == numInt && o.kind == numInt {
		switch {
		case n.i < o.i:
			return -1
		case n.i > o.i:
			return 1
		default:
			return 0
		}
	}
	if n.kind == numFloat && o.kind == numFloat {
		switch {
		case n.f < o.f:
			return -1
		case n.f > o.f:
			return 1
		default:
			return 0
		}
	}
	return n.toRat().Cmp(o.toRat())
}

// IsInteger reports whether the number has a zero fractional part.
func (n Number) IsInteger() bool {
	switch n.kind {
	case numInt:
		return true
	case numFloat:
		return n.f == math.Trunc(n.f)
	default:
		return n.rat.IsInt()
	}
}

// MultipleOf reports whether n is an integer multiple of d.
// Exact-decimal representations divide exactly; binary floats use a
// small relative tolerance to absorb representation error.
func (n Number) MultipleOf(d Number) bool {
	if n.kind != numFloat && d.kind != numFloat {
		dr := d.toRat()
		if dr.Sign() == 0 {
			return false
		}
		return new(big.Rat).Quo(n.toRat(), dr).IsInt()
	}
	nf, df := n.Float(), d.Float()
	if df == 0 {
		return false
	}
	q := nf / df
	if math.IsInf(q, 0) || math.IsNaN(q) {
		return false
	}
	return math.Abs(q-math.Round(q)) < 1e-9
}

// Float returns the closest float64 representation.
func (n Number) Float() float64 {
	switch n.kind {
	case numInt:
		return float64(n.i)
	case numFloat:
		return n.f
	default:
		f, _ := n.rat.Float64()
		return f
	}
}

// String formats the number for messages.
func (n Number) String() string {
	switch n.kind {
	case numInt:
		return strconv.FormatInt(n.i, 10)
	case numFloat:
		return strconv.FormatFloat(n.f, 'g', -1, 64)
	default:
		return n.rat.RatString()
	}
}

// Equal reports deep equality of two instance values with cross
// representation numeric equality (1, 1.0 and json.Number("1") are all
// equal).
func Equal(a, b any) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case KindNull:
		return true
	case KindBoolean:
		return a.(bool) == b.(bool)
	case KindString:
		return a.(string) == b.(string)
	case KindNumber:
		na, _ := Num(a)
		nb, _ := Num(b)
		return na.Cmp(nb) == 0
	case KindArray:
		av, bv := a.([]any), b.([]any)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case KindObject:
		av, bv := a.(map[string]any), b.(map[string]any)
		if len(av) != len(bv) {
			return false
		}
		for k, x := range av {
			y, ok := bv[k]
			if !ok || !Equal(x, y) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
