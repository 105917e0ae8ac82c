package effect

import (
	"errors"
	"fmt"

	"tyche/internal/dist"
	"tyche/internal/trace"
)

var (
	// ErrNotEnumerable reports a site whose distribution has no finite
	// support under enumerate mode.
	ErrNotEnumerable = errors.New("distribution is not enumerable")

	// ErrEnumerationBudget reports an enumeration that exceeded its
	// outcome or site budget, typically an unbounded recursive program.
	ErrEnumerationBudget = errors.New("enumeration budget exceeded")
)

// Outcome is one complete enumerated execution.
type Outcome struct {
	Value   float64
	Trace   *trace.Trace
	LogProb float64
}

type EnumerateOptions struct {
	// MaxOutcomes bounds the number of complete executions. Default 1024.
	MaxOutcomes int
	// MaxSites bounds sites per execution. Default 256.
	MaxSites int
}

// Enumerate runs a program once per reachable assignment of its
// finite-support sites, breadth-first over branch depth. The program must
// be deterministic given its sampled values; every site visited must carry
// an Enumerable distribution.
func Enumerate(program Program, opts EnumerateOptions) ([]Outcome, error) {
	if program == nil {
		return nil, fmt.Errorf("program is required")
	}
	if opts.MaxOutcomes <= 0 {
		opts.MaxOutcomes = 1024
	}
	if opts.MaxSites <= 0 {
		opts.MaxSites = 256
	}

	// Each queue entry is a forced value prefix in site call order. An
	// execution replays its prefix, takes the first support value at the
	// first free site, and queues the remaining support values as new
	// prefixes.
	queue := [][]float64{nil}
	outcomes := make([]Outcome, 0, 8)

	for len(queue) > 0 {
		if len(outcomes)+len(queue) > opts.MaxOutcomes {
			return nil, fmt.Errorf("%w: more than %d outcomes", ErrEnumerationBudget, opts.MaxOutcomes)
		}
		prefix := queue[0]
		queue = queue[1:]

		next := 0
		h := &Handler{mode: ModeEnumerate, tr: trace.New()}
		h.choose = func(name string, d dist.Distribution) (float64, error) {
			if next >= opts.MaxSites {
				return 0, fmt.Errorf("%w: more than %d sites at %s", ErrEnumerationBudget, opts.MaxSites, name)
			}
			if next < len(prefix) {
				value := prefix[next]
				next++
				return value, nil
			}

			enumerable, ok := d.(dist.Enumerable)
			if !ok {
				return 0, fmt.Errorf("%w: site %s uses %s", ErrNotEnumerable, name, d.Name())
			}
			support := enumerable.Support()
			if len(support) == 0 {
				return 0, fmt.Errorf("%w: site %s has empty support", ErrNotEnumerable, name)
			}

			// Values chosen so far this execution are exactly the
			// trace values; each alternative branches off them.
			sites := h.tr.Sites()
			for _, alt := range support[1:] {
				branch := make([]float64, 0, len(sites)+1)
				for _, site := range sites {
					branch = append(branch, site.Value)
				}
				queue = append(queue, append(branch, alt))
			}
			next++
			return support[0], nil
		}

		value, err := program(h)
		h.tr.Freeze()
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, Outcome{Value: value, Trace: h.tr, LogProb: h.tr.LogJoint()})
	}
	return outcomes, nil
}
