package dist

import (
	"fmt"
	"math"
	"math/rand"
)

const log2Pi = 1.8378770664093453

type Normal struct {
	mean  float64
	scale float64
}

func NewNormal(mean, scale float64) (Normal, error) {
	if scale <= 0 {
		return Normal{}, fmt.Errorf("normal scale must be > 0, got %v", scale)
	}
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return Normal{}, fmt.Errorf("normal mean must be finite, got %v", mean)
	}
	return Normal{mean: mean, scale: scale}, nil
}

func (d Normal) Name() string {
	return fmt.Sprintf("normal(%g, %g)", d.mean, d.scale)
}

func (d Normal) Mean() float64 { return d.mean }

func (d Normal) Scale() float64 { return d.scale }

func (d Normal) Sample(r *rand.Rand) float64 {
	return d.mean + d.scale*r.NormFloat64()
}

func (d Normal) LogProb(x float64) float64 {
	z := (x - d.mean) / d.scale
	return -0.5*z*z - math.Log(d.scale) - 0.5*log2Pi
}

type Uniform struct {
	low  float64
	high float64
}

func NewUniform(low, high float64) (Uniform, error) {
	if !(low < high) {
		return Uniform{}, fmt.Errorf("uniform requires low < high, got [%v, %v)", low, high)
	}
	return Uniform{low: low, high: high}, nil
}

func (d Uniform) Name() string {
	return fmt.Sprintf("uniform(%g, %g)", d.low, d.high)
}

func (d Uniform) Sample(r *rand.Rand) float64 {
	return d.low + (d.high-d.low)*r.Float64()
}

func (d Uniform) LogProb(x float64) float64 {
	if x < d.low || x >= d.high {
		return math.Inf(-1)
	}
	return -math.Log(d.high - d.low)
}

type Exponential struct {
	rate float64
}

func NewExponential(rate float64) (Exponential, error) {
	if rate <= 0 {
		return Exponential{}, fmt.Errorf("exponential rate must be > 0, got %v", rate)
	}
	return Exponential{rate: rate}, nil
}

func (d Exponential) Name() string {
	return fmt.Sprintf("exponential(%g)", d.rate)
}

func (d Exponential) Sample(r *rand.Rand) float64 {
	return r.ExpFloat64() / d.rate
}

func (d Exponential) LogProb(x float64) float64 {
	if x < 0 {
		return math.Inf(-1)
	}
	return math.Log(d.rate) - d.rate*x
}

type LogNormal struct {
	mu    float64
	sigma float64
}

func NewLogNormal(mu, sigma float64) (LogNormal, error) {
	if sigma <= 0 {
		return LogNormal{}, fmt.Errorf("lognormal sigma must be > 0, got %v", sigma)
	}
	return LogNormal{mu: mu, sigma: sigma}, nil
}

func (d LogNormal) Name() string {
	return fmt.Sprintf("lognormal(%g, %g)", d.mu, d.sigma)
}

func (d LogNormal) Sample(r *rand.Rand) float64 {
	return math.Exp(d.mu + d.sigma*r.NormFloat64())
}

func (d LogNormal) LogProb(x float64) float64 {
	if x <= 0 {
		return math.Inf(-1)
	}
	z := (math.Log(x) - d.mu) / d.sigma
	return -0.5*z*z - math.Log(x*d.sigma) - 0.5*log2Pi
}
