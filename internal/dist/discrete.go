package dist

import (
	"fmt"
	"math"
	"math/rand"
)

type Bernoulli struct {
	p float64
}

func NewBernoulli(p float64) (Bernoulli, error) {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return Bernoulli{}, fmt.Errorf("bernoulli probability must be in [0, 1], got %v", p)
	}
	return Bernoulli{p: p}, nil
}

func (d Bernoulli) Name() string {
	return fmt.Sprintf("bernoulli(%g)", d.p)
}

func (d Bernoulli) P() float64 { return d.p }

func (d Bernoulli) Sample(r *rand.Rand) float64 {
	if r.Float64() < d.p {
		return 1
	}
	return 0
}

func (d Bernoulli) LogProb(x float64) float64 {
	switch x {
	case 1:
		return math.Log(d.p)
	case 0:
		return math.Log(1 - d.p)
	default:
		return math.Inf(-1)
	}
}

func (d Bernoulli) Support() []float64 {
	switch d.p {
	case 0:
		return []float64{0}
	case 1:
		return []float64{1}
	default:
		return []float64{0, 1}
	}
}

// Categorical draws an index weighted by normalized probabilities.
type Categorical struct {
	probs []float64
}

func NewCategorical(weights []float64) (Categorical, error) {
	if len(weights) == 0 {
		return Categorical{}, fmt.Errorf("categorical requires at least one weight")
	}
	total := 0.0
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return Categorical{}, fmt.Errorf("categorical weight %d must be finite and >= 0, got %v", i, w)
		}
		total += w
	}
	if total <= 0 {
		return Categorical{}, fmt.Errorf("categorical weights must sum to > 0")
	}
	probs := make([]float64, len(weights))
	for i, w := range weights {
		probs[i] = w / total
	}
	return Categorical{probs: probs}, nil
}

func (d Categorical) Name() string {
	return fmt.Sprintf("categorical(%d)", len(d.probs))
}

func (d Categorical) Sample(r *rand.Rand) float64 {
	u := r.Float64()
	acc := 0.0
	for i, p := range d.probs {
		acc += p
		if u < acc {
			return float64(i)
		}
	}
	return float64(len(d.probs) - 1)
}

func (d Categorical) LogProb(x float64) float64 {
	i := int(x)
	if float64(i) != x || i < 0 || i >= len(d.probs) {
		return math.Inf(-1)
	}
	if d.probs[i] == 0 {
		return math.Inf(-1)
	}
	return math.Log(d.probs[i])
}

func (d Categorical) Support() []float64 {
	support := make([]float64, 0, len(d.probs))
	for i, p := range d.probs {
		if p > 0 {
			support = append(support, float64(i))
		}
	}
	return support
}

// Delta places all mass on a single point.
type Delta struct {
	point float64
}

func NewDelta(point float64) (Delta, error) {
	if math.IsNaN(point) || math.IsInf(point, 0) {
		return Delta{}, fmt.Errorf("delta point must be finite, got %v", point)
	}
	return Delta{point: point}, nil
}

func (d Delta) Name() string {
	return fmt.Sprintf("delta(%g)", d.point)
}

func (d Delta) Sample(_ *rand.Rand) float64 {
	return d.point
}

func (d Delta) LogProb(x float64) float64 {
	if x == d.point {
		return 0
	}
	return math.Inf(-1)
}

func (d Delta) Support() []float64 {
	return []float64{d.point}
}
