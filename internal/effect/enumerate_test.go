package effect

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tyche/internal/dist"
)

func TestEnumerateTwoFlipOutcomes(t *testing.T) {
	first, err := dist.NewBernoulli(0.5)
	require.NoError(t, err)
	second, err := dist.NewBernoulli(0.25)
	require.NoError(t, err)

	program := func(h *Handler) (float64, error) {
		a, err := h.Sample("a", first)
		if err != nil {
			return 0, err
		}
		b, err := h.Sample("b", second)
		if err != nil {
			return 0, err
		}
		return a + b, nil
	}

	outcomes, err := Enumerate(program, EnumerateOptions{})
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	totalMass := 0.0
	for _, outcome := range outcomes {
		assert.Equal(t, []string{"a", "b"}, outcome.Trace.Names())
		assert.True(t, outcome.Trace.Frozen())
		totalMass += math.Exp(outcome.LogProb)
	}
	assert.InDelta(t, 1.0, totalMass, 1e-9)
}

func TestEnumerateBranchingStructure(t *testing.T) {
	cloudy, err := dist.NewBernoulli(0.5)
	require.NoError(t, err)
	sunny, err := dist.NewCategorical([]float64{1, 1, 1})
	require.NoError(t, err)
	overcast, err := dist.NewDelta(0)
	require.NoError(t, err)

	// The second site's support depends on the first draw, so outcome
	// structure is discovered at runtime.
	program := func(h *Handler) (float64, error) {
		c, err := h.Sample("cloudy", cloudy)
		if err != nil {
			return 0, err
		}
		if c == 1 {
			return h.Sample("overcast", overcast)
		}
		return h.Sample("sunny", sunny)
	}

	outcomes, err := Enumerate(program, EnumerateOptions{})
	require.NoError(t, err)
	assert.Len(t, outcomes, 4)

	totalMass := 0.0
	for _, outcome := range outcomes {
		totalMass += math.Exp(outcome.LogProb)
	}
	assert.InDelta(t, 1.0, totalMass, 1e-9)
}

func TestEnumerateRejectsContinuousSite(t *testing.T) {
	normal, err := dist.NewNormal(0, 1)
	require.NoError(t, err)

	program := func(h *Handler) (float64, error) {
		return h.Sample("x", normal)
	}

	_, err = Enumerate(program, EnumerateOptions{})
	require.ErrorIs(t, err, ErrNotEnumerable)
}

func TestEnumerateUnboundedProgramHitsBudget(t *testing.T) {
	flip, err := dist.NewBernoulli(0.5)
	require.NoError(t, err)

	program := func(h *Handler) (float64, error) {
		for i := 0; ; i++ {
			x, err := h.Sample(fmt.Sprintf("x_%d", i), flip)
			if err != nil {
				return 0, err
			}
			if x == 1 {
				return float64(i), nil
			}
		}
	}

	_, err = Enumerate(program, EnumerateOptions{MaxSites: 16, MaxOutcomes: 8})
	require.ErrorIs(t, err, ErrEnumerationBudget)
}

func TestEnumerateDeltaOnlyProgram(t *testing.T) {
	point, err := dist.NewDelta(3)
	require.NoError(t, err)

	program := func(h *Handler) (float64, error) {
		return h.Sample("only", point)
	}

	outcomes, err := Enumerate(program, EnumerateOptions{})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, 3.0, outcomes[0].Value)
	assert.Equal(t, 0.0, outcomes[0].LogProb)
}
