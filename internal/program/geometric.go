package program

import (
	"fmt"

	"tyche/internal/dist"
	"tyche/internal/effect"
)

// Geometric counts failures before the first success of repeated bernoulli
// draws. Sites are named x_0, x_1, ... so the trace length is decided only
// at runtime.
type Geometric struct {
	P float64
}

func (Geometric) Name() string {
	return "geometric"
}

func (g Geometric) Description() string {
	return fmt.Sprintf("failures before first success at p=%g, dynamically named sites", g.P)
}

func (g Geometric) Body() effect.Program {
	return func(h *effect.Handler) (float64, error) {
		flip, err := dist.NewBernoulli(g.P)
		if err != nil {
			return 0, err
		}

		var draw func(i int) (float64, error)
		draw = func(i int) (float64, error) {
			x, err := h.Sample(fmt.Sprintf("x_%d", i), flip)
			if err != nil {
				return 0, err
			}
			if x == 1 {
				return float64(i), nil
			}
			return draw(i + 1)
		}
		return draw(0)
	}
}
