package nodes

import (
	"fmt"

	"github.com/vk/arbor/internal/inits"
	"github.com/vk/arbor/internal/network"
)

// Hyperparameter values arrive either as native Go values or as the
// loosely typed numbers an architecture document decodes to. The helpers
// below normalize both.

func toInt(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != float64(int(x)) {
			return 0, fmt.Errorf("nodes: %v is not an integer", x)
		}
		return int(x), nil
	default:
		return 0, fmt.Errorf("nodes: cannot use %T as an integer", v)
	}
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("nodes: cannot use %T as a number", v)
	}
}

func toShape(v any) ([]int, error) {
	switch x := v.(type) {
	case []int:
		return x, nil
	case []any:
		shape := make([]int, len(x))
		for i, dim := range x {
			n, err := toInt(dim)
			if err != nil {
				return nil, fmt.Errorf("nodes: shape element %d: %w", i, err)
			}
			shape[i] = n
		}
		return shape, nil
	default:
		return nil, fmt.Errorf("nodes: cannot use %T as a shape", v)
	}
}

func toInitializers(v any) ([]inits.Initializer, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case inits.Initializer:
		return []inits.Initializer{x}, nil
	case []inits.Initializer:
		return x, nil
	case []any:
		out := make([]inits.Initializer, 0, len(x))
		for _, item := range x {
			init, ok := item.(inits.Initializer)
			if !ok {
				return nil, fmt.Errorf("nodes: cannot use %T as an initializer", item)
			}
			out = append(out, init)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("nodes: cannot use %T as an initializer list", v)
	}
}

// collectInits concatenates every "inits" list visible from the node,
// closest level first. Initializers from a closer level therefore win:
// they are tried earlier when the shared cell is seeded.
func collectInits(vw *network.View) ([]inits.Initializer, error) {
	var out []inits.Initializer
	for raw := range vw.Hyperparameters("inits") {
		list, err := toInitializers(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, list...)
	}
	return out, nil
}
