package program

import (
	"tyche/internal/dist"
	"tyche/internal/effect"
)

// NormalProduct multiplies two independent standard normal draws.
type NormalProduct struct{}

func (NormalProduct) Name() string {
	return "normal-product"
}

func (NormalProduct) Description() string {
	return "product of two independent standard normal draws"
}

func (NormalProduct) Body() effect.Program {
	return func(h *effect.Handler) (float64, error) {
		std, err := dist.NewNormal(0, 1)
		if err != nil {
			return 0, err
		}
		x, err := h.Sample("x", std)
		if err != nil {
			return 0, err
		}
		y, err := h.Sample("y", std)
		if err != nil {
			return 0, err
		}
		return x * y, nil
	}
}

// ScaledNormal builds a sampler whose scale is itself random, then invokes
// it. The inner site exists only because the closure is called.
type ScaledNormal struct{}

func (ScaledNormal) Name() string {
	return "scaled-normal"
}

func (ScaledNormal) Description() string {
	return "normal draw whose scale is lognormal, built as a closure"
}

func (ScaledNormal) Body() effect.Program {
	return func(h *effect.Handler) (float64, error) {
		sampler, err := makeScaledSampler(h)
		if err != nil {
			return 0, err
		}
		return sampler("z")
	}
}

// makeScaledSampler returns a stochastic closure over the handler it was
// built with. Callers own the uniqueness of the names they pass in.
func makeScaledSampler(h *effect.Handler) (func(name string) (float64, error), error) {
	scaleDist, err := dist.NewLogNormal(0, 0.5)
	if err != nil {
		return nil, err
	}
	scale, err := h.Sample("scale", scaleDist)
	if err != nil {
		return nil, err
	}
	inner, err := dist.NewNormal(0, scale)
	if err != nil {
		return nil, err
	}
	return func(name string) (float64, error) {
		return h.Sample(name, inner)
	}, nil
}
