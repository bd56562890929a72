package source

import (
	"math"
	"math/rand"
	"strconv"
)

// Perturbation rewrites the value series of a replayed day while the
// matching timestamps keep their original order. Two mutually exclusive
// variants exist and are selected by extractor configuration; both are
// reproducible: the same seed over the same input yields identical
// output. A zero seed is the identity for both.
type Perturbation func(values []any) []any

// RotateValues rotates only the values across the record list by
// seed mod len(values) positions.
func RotateValues(seed int64) Perturbation {
	return func(values []any) []any {
		n := int64(len(values))
		if seed == 0 || n == 0 {
			return values
		}
		k := ((seed % n) + n) % n
		if k == 0 {
			return values
		}
		out := make([]any, n)
		for i, v := range values {
			out[(int64(i)+k)%n] = v
		}
		return out
	}
}

// JitterValues adds bounded random variation (up to ±5) to each numeric
// value, clamped to the physiological range [50,200] and rounded to two
// decimals. Non-numeric values pass through untouched for the
// transformer to deal with.
func JitterValues(seed int64) Perturbation {
	return func(values []any) []any {
		if seed == 0 || len(values) == 0 {
			return values
		}
		rng := rand.New(rand.NewSource(seed))
		out := make([]any, len(values))
		for i, v := range values {
			f, ok := AsFloat(v)
			if !ok {
				out[i] = v
				continue
			}
			jittered := f + (rng.Float64()*10 - 5)
			if jittered < 50 {
				jittered = 50
			}
			if jittered > 200 {
				jittered = 200
			}
			out[i] = math.Round(jittered*100) / 100
		}
		return out
	}
}

// AsFloat coerces the loosely typed wire values to float64.
func AsFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
