// Package dist provides the distribution objects sampled at trace sites.
//
// A Distribution is immutable once constructed. Constructors validate their
// parameters; a handler never re-checks them.
package dist

import "math/rand"

// Distribution exposes sampling and log-density over float64 outcomes.
type Distribution interface {
	Name() string
	Sample(r *rand.Rand) float64
	LogProb(x float64) float64
}

// Enumerable is implemented by distributions with finite support.
type Enumerable interface {
	Distribution
	Support() []float64
}
