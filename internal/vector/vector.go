// Package vector turns arbitrary numeric data into finite, L2-unit embeddings
// and renders them in the pgvector text format.
package vector

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Coerce converts a sequence of arbitrary values into float64s. Values that are
// not numbers, or are NaN or infinite, become 0. Anything that is not a
// sequence yields an empty slice.
func Coerce(raw any) []float64 {
	switch v := raw.(type) {
	case []float64:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = finite(x)
		}
		return out
	case []float32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = finite(float64(x))
		}
		return out
	case []int:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out
	case []any:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = number(x)
		}
		return out
	default:
		return []float64{}
	}
}

func number(x any) float64 {
	switch n := x.(type) {
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return finite(f)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return finite(f)
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// Normalize scales v to unit L2 norm in place and returns it. A zero vector is
// returned unchanged. The norm is computed on max-scaled values so large
// components cannot overflow.
func Normalize(v []float64) []float64 {
	var maxAbs float64
	for _, x := range v {
		if a := math.Abs(x); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		return v
	}

	var sum float64
	for _, x := range v {
		s := x / maxAbs
		sum += s * s
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		v[i] = (x / maxAbs) / norm
	}
	return v
}

// SanitizeAny coerces raw model output and sanitizes it.
func SanitizeAny(raw any) []float32 {
	return toFloat32(Normalize(Coerce(raw)))
}

// Sanitize replaces non-finite components with 0 and L2-normalizes the result
// when its norm is positive.
func Sanitize(v []float32) []float32 {
	return SanitizeAny(v)
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// Mean returns the element-wise mean of the given vectors over dim components.
// Shorter vectors contribute zeros for their missing components.
func Mean(vectors [][]float32, dim int) []float64 {
	sum := make([]float64, dim)
	if len(vectors) == 0 {
		return sum
	}
	for _, vec := range vectors {
		for i := 0; i < dim && i < len(vec); i++ {
			sum[i] += finite(float64(vec[i]))
		}
	}
	n := float64(len(vectors))
	for i := range sum {
		sum[i] /= n
	}
	return sum
}

// Encode sanitizes v and renders it as a pgvector literal with 8 decimals,
// e.g. "[0.60000000,0.80000000]". An empty vector encodes to "[]".
func Encode(v []float32) string {
	safe := Sanitize(v)
	if len(safe) == 0 {
		return "[]"
	}

	var b strings.Builder
	b.Grow(len(safe)*12 + 2)
	b.WriteByte('[')
	for i, x := range safe {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'f', 8, 64))
	}
	b.WriteByte(']')
	return b.String()
}
