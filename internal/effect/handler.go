// Package effect interprets sample requests on behalf of stochastic
// functions. A Handler owns the mode, randomness and trace of exactly one
// execution; nothing in this package is process-global.
package effect

import (
	"fmt"
	"math/rand"

	"tyche/internal/dist"
	"tyche/internal/trace"
)

// Program is a stochastic function. All randomness flows through the
// handler it is invoked with; closures returned by a program sample against
// whichever handler they are later called with.
type Program func(h *Handler) (float64, error)

// chooser supplies enumerate-mode values. Installed by the enumeration
// engine, nil otherwise.
type chooser func(name string, d dist.Distribution) (float64, error)

// Handler mediates every sample request of one execution.
type Handler struct {
	mode         Mode
	rng          *rand.Rand
	tr           *trace.Trace
	ref          *trace.Trace
	observations map[string]float64
	logWeight    float64
	choose       chooser
}

// Sample draws, replays, conditions or enumerates one named site according
// to the handler mode. Exactly one site is appended per successful call, in
// call order. Names are unique across the whole execution, nested calls
// included; composed programs must pick distinct site names. A repeated
// name fails with trace.DuplicateSiteError before any new randomness is
// consumed.
func (h *Handler) Sample(name string, d dist.Distribution) (float64, error) {
	if d == nil {
		return 0, fmt.Errorf("sample %s: distribution is required", name)
	}
	if name == "" {
		return 0, fmt.Errorf("sample site name is required")
	}
	if _, exists := h.tr.Lookup(name); exists {
		return 0, trace.DuplicateSiteError{Site: name}
	}

	var (
		value    float64
		logProb  float64
		observed bool
	)
	switch h.mode {
	case ModeSample:
		value = d.Sample(h.rng)
		logProb = d.LogProb(value)
	case ModeReplay:
		site, ok := h.ref.Lookup(name)
		if !ok {
			return 0, trace.MissingSiteError{Site: name}
		}
		value = site.Value
		logProb = site.LogProb
	case ModeCondition:
		if forced, ok := h.observations[name]; ok {
			value = forced
			logProb = d.LogProb(value)
			h.logWeight += logProb
			observed = true
		} else {
			value = d.Sample(h.rng)
			logProb = d.LogProb(value)
		}
	case ModeEnumerate:
		chosen, err := h.choose(name, d)
		if err != nil {
			return 0, err
		}
		value = chosen
		logProb = d.LogProb(value)
	default:
		return 0, fmt.Errorf("unsupported execution mode: %s", h.mode)
	}

	if err := h.tr.Append(trace.Site{
		Name:         name,
		Distribution: d,
		Value:        value,
		LogProb:      logProb,
		Observed:     observed,
	}); err != nil {
		return 0, err
	}
	return value, nil
}

// Mode reports the handler's execution mode.
func (h *Handler) Mode() Mode {
	return h.mode
}

// LogWeight is the conditioning weight accumulated so far.
func (h *Handler) LogWeight() float64 {
	return h.logWeight
}
