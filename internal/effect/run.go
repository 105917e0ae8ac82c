package effect

import (
	"fmt"
	"math/rand"

	"tyche/internal/trace"
)

// RunOptions configures one execution. The zero value runs in sample mode
// with seed 0.
type RunOptions struct {
	Mode Mode
	Seed int64

	// Rand overrides the seeded source when set. The handler owns it for
	// the duration of the run.
	Rand *rand.Rand

	// Ref is the reference trace for replay mode.
	Ref *trace.Trace

	// Observations maps site names to forced values for condition mode.
	Observations map[string]float64
}

// Result carries the return value and finalized trace of one execution.
type Result struct {
	Value     float64
	Trace     *trace.Trace
	LogWeight float64
}

// Run executes a program under the requested mode. The trace is frozen on
// every exit path, including program failure.
func Run(program Program, opts RunOptions) (Result, error) {
	if program == nil {
		return Result{}, fmt.Errorf("program is required")
	}
	switch opts.Mode {
	case ModeSample, ModeCondition:
	case ModeReplay:
		if opts.Ref == nil {
			return Result{}, fmt.Errorf("replay mode requires a reference trace")
		}
	case ModeEnumerate:
		return Result{}, fmt.Errorf("enumerate mode runs through Enumerate")
	default:
		return Result{}, fmt.Errorf("unsupported execution mode: %s", opts.Mode)
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(opts.Seed))
	}
	h := &Handler{
		mode:         opts.Mode,
		rng:          rng,
		tr:           trace.New(),
		ref:          opts.Ref,
		observations: opts.Observations,
	}
	defer h.tr.Freeze()

	value, err := program(h)
	if err != nil {
		return Result{}, err
	}
	return Result{Value: value, Trace: h.tr, LogWeight: h.logWeight}, nil
}
