// Package ops provides small numeric operators used by the gantry CLI,
// server, and tests: element-wise transformers plus a couple of
// estimators that fit summary statistics on training data.
//
// Items are float64 values (or anything JSON decodes to a number).
// These operators exist to exercise pipelines end to end; they are not a
// numerics library.
package ops

import (
	"fmt"

	"github.com/gantryml/gantry/pkg/pipeline"
)

// asFloat coerces the numeric item types that reach operators: native
// float64, ints from Go callers, and json.Number-free decoding.
func asFloat(x any) (float64, error) {
	switch v := x.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("ops: expected number, got %T", x)
	}
}

// Scale returns a transformer computing x * factor.
func Scale(factor float64) pipeline.Transformer {
	return pipeline.Func(func(x any) (any, error) {
		f, err := asFloat(x)
		if err != nil {
			return nil, err
		}
		return f * factor, nil
	})
}

// Offset returns a transformer computing x + delta.
func Offset(delta float64) pipeline.Transformer {
	return pipeline.Func(func(x any) (any, error) {
		f, err := asFloat(x)
		if err != nil {
			return nil, err
		}
		return f + delta, nil
	})
}

// Clamp returns a transformer restricting x to [lo, hi].
func Clamp(lo, hi float64) pipeline.Transformer {
	return pipeline.Func(func(x any) (any, error) {
		f, err := asFloat(x)
		if err != nil {
			return nil, err
		}
		switch {
		case f < lo:
			return lo, nil
		case f > hi:
			return hi, nil
		default:
			return f, nil
		}
	})
}
