package instance

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		value any
		want  Kind
	}{
		{nil, KindNull},
		{true, KindBoolean},
		{"x", KindString},
		{float64(1), KindNumber},
		{json.Number("1.5"), KindNumber},
		{int64(3), KindNumber},
		{[]any{}, KindArray},
		{map[string]any{}, KindObject},
		{struct{}{}, KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.value))
	}
}

func TestNumCmp(t *testing.T) {
	cmp := func(a, b any) int {
		na, ok := Num(a)
		require.True(t, ok)
		nb, ok := Num(b)
		require.True(t, ok)
		return na.Cmp(nb)
	}

	assert.Equal(t, 0, cmp(float64(1), int64(1)))
	assert.Equal(t, 0, cmp(json.Number("1.0"), float64(1)))
	assert.Equal(t, -1, cmp(float64(0.5), json.Number("0.6")))
	assert.Equal(t, 1, cmp(json.Number("9007199254740993"), json.Number("9007199254740992")))
	assert.Equal(t, 0, cmp(json.Number("1e2"), float64(100)))
}

func TestNumIsInteger(t *testing.T) {
	for _, v := range []any{float64(2), json.Number("2"), json.Number("2.0"), int(2)} {
		n, ok := Num(v)
		require.True(t, ok)
		assert.True(t, n.IsInteger(), "%v", v)
	}
	n, ok := Num(json.Number("2.5"))
	require.True(t, ok)
	assert.False(t, n.IsInteger())
}

func TestMultipleOf(t *testing.T) {
	mult := func(a, b any) bool {
		na, _ := Num(a)
		nb, _ := Num(b)
		return na.MultipleOf(nb)
	}

	assert.True(t, mult(float64(10), float64(5)))
	assert.False(t, mult(float64(10), float64(3)))
	assert.True(t, mult(json.Number("19.99"), json.Number("0.01")))
	assert.True(t, mult(float64(19.99), float64(0.01)))
	assert.False(t, mult(float64(10), float64(0)))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(float64(1), json.Number("1")))
	assert.True(t, Equal(
		map[string]any{"a": []any{float64(1), "x"}},
		map[string]any{"a": []any{json.Number("1.0"), "x"}},
	))
	assert.False(t, Equal(float64(1), "1"))
	assert.False(t, Equal([]any{float64(1)}, []any{float64(2)}))
	assert.False(t, Equal(map[string]any{"a": true}, map[string]any{"b": true}))
	assert.True(t, Equal(nil, nil))
}
