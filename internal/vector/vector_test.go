package vector

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestSanitize(t *testing.T) {
	t.Run("normalizes to unit length", func(t *testing.T) {
		out := Sanitize([]float32{3, 4})
		require.Len(t, out, 2)
		assert.InDelta(t, 0.6, out[0], 1e-6)
		assert.InDelta(t, 0.8, out[1], 1e-6)
		assert.InDelta(t, 1.0, norm(out), 1e-6)
	})

	t.Run("replaces non-finite values", func(t *testing.T) {
		nan := float32(math.NaN())
		inf := float32(math.Inf(1))
		out := Sanitize([]float32{nan, 2, inf, float32(math.Inf(-1))})
		assert.Equal(t, []float32{0, 1, 0, 0}, out)
	})

	t.Run("zero vector stays zero", func(t *testing.T) {
		out := Sanitize([]float32{0, 0, 0})
		assert.Equal(t, []float32{0, 0, 0}, out)
	})

	t.Run("all non-finite becomes zero vector", func(t *testing.T) {
		out := Sanitize([]float32{float32(math.NaN()), float32(math.Inf(1))})
		assert.Equal(t, []float32{0, 0}, out)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Sanitize(nil))
		assert.Empty(t, Sanitize([]float32{}))
	})
}

func TestSanitizeAny(t *testing.T) {
	t.Run("mixed values", func(t *testing.T) {
		out := SanitizeAny([]any{"3", json.Number("4"), "salt", nil, math.NaN()})
		require.Len(t, out, 5)
		assert.InDelta(t, 0.6, out[0], 1e-6)
		assert.InDelta(t, 0.8, out[1], 1e-6)
		assert.Equal(t, float32(0), out[2])
		assert.Equal(t, float32(0), out[3])
		assert.Equal(t, float32(0), out[4])
	})

	t.Run("non-sequence yields empty", func(t *testing.T) {
		assert.Empty(t, SanitizeAny("tomato"))
		assert.Empty(t, SanitizeAny(42))
		assert.Empty(t, SanitizeAny(nil))
		assert.Empty(t, SanitizeAny(map[string]float64{"a": 1}))
	})

	t.Run("huge components do not overflow", func(t *testing.T) {
		out := SanitizeAny([]float64{1e300, 1e300})
		require.Len(t, out, 2)
		assert.InDelta(t, 1.0, norm(out), 1e-6)
		assert.InDelta(t, out[0], out[1], 1e-9)
	})
}

func TestSanitizeProperties(t *testing.T) {
	inputs := [][]float32{
		{1},
		{-1, 0.5, 0.25},
		{1e-30, 0, 0},
		{float32(math.NaN()), -7, 1e20},
		{0.1, 0.2, 0.3, 0.4, 0.5, 0.6},
	}
	for _, in := range inputs {
		out := Sanitize(in)
		for _, x := range out {
			assert.False(t, math.IsNaN(float64(x)) || math.IsInf(float64(x), 0))
		}
		assert.InDelta(t, 1.0, norm(out), 1e-5, "input %v", in)
	}
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "[]", Encode(nil))
	assert.Equal(t, "[0.60000000,0.80000000]", Encode([]float32{3, 4}))
	assert.Equal(t, "[0.00000000,1.00000000]", Encode([]float32{float32(math.NaN()), 9}))

	v := []float32{0.12, -0.5, 0.33, 0.9}
	first := Encode(v)
	assert.Equal(t, first, Encode(v))
	assert.Equal(t, Encode(Sanitize(v)), Encode(Sanitize(v)))
}

func TestMean(t *testing.T) {
	m := Mean([][]float32{{1, 0}, {0, 1}, {1, 1}}, 2)
	assert.InDeltaSlice(t, []float64{2.0 / 3, 2.0 / 3}, m, 1e-9)

	assert.Equal(t, []float64{0, 0, 0}, Mean(nil, 3))

	normalized := Normalize(Mean([][]float32{{1, 0}, {0, 1}}, 2))
	assert.InDelta(t, math.Sqrt(0.5), normalized[0], 1e-9)
	assert.InDelta(t, math.Sqrt(0.5), normalized[1], 1e-9)
}
