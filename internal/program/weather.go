package program

import (
	"tyche/internal/dist"
	"tyche/internal/effect"
)

// Weather draws a cloudy/sunny indicator, then a temperature whose
// distribution depends on it. Returns the temperature.
type Weather struct{}

func (Weather) Name() string {
	return "weather"
}

func (Weather) Description() string {
	return "bernoulli sky state conditioning a normal temperature"
}

func (Weather) Body() effect.Program {
	return func(h *effect.Handler) (float64, error) {
		_, temp, err := sampleWeather(h)
		return temp, err
	}
}

func sampleWeather(h *effect.Handler) (cloudy, temp float64, err error) {
	cloudyDist, err := dist.NewBernoulli(0.3)
	if err != nil {
		return 0, 0, err
	}
	cloudy, err = h.Sample("cloudy", cloudyDist)
	if err != nil {
		return 0, 0, err
	}

	mean, scale := 75.0, 15.0
	if cloudy == 1 {
		mean, scale = 55.0, 10.0
	}
	tempDist, err := dist.NewNormal(mean, scale)
	if err != nil {
		return 0, 0, err
	}
	temp, err = h.Sample("temp", tempDist)
	return cloudy, temp, err
}

// IceCream composes weather into a sales forecast. Both programs share one
// trace; site names stay disjoint by construction.
type IceCream struct{}

func (IceCream) Name() string {
	return "ice-cream"
}

func (IceCream) Description() string {
	return "expected ice cream sales given the weather"
}

func (IceCream) Body() effect.Program {
	return func(h *effect.Handler) (float64, error) {
		cloudy, temp, err := sampleWeather(h)
		if err != nil {
			return 0, err
		}

		expected := 50.0
		if cloudy == 0 && temp > 80 {
			expected = 200.0
		}
		salesDist, err := dist.NewNormal(expected, 10)
		if err != nil {
			return 0, err
		}
		return h.Sample("sales", salesDist)
	}
}
