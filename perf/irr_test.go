package perf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveIRRSimpleTenPercent(t *testing.T) {
	t.Parallel()

	// -1000 now, +1100 in one year: r = 10% exactly.
	flows := []CashFlow{
		{Years: 0, Amount: -1000},
		{Years: 1, Amount: 1100},
	}

	r, ok := SolveIRR(flows, SolveOptions{})
	require.True(t, ok)
	assert.InDelta(t, 0.10, r, 1e-6)
}

func TestSolveIRRAnnuity(t *testing.T) {
	t.Parallel()

	// Five annual payments of 300 against a 1000 outlay.
	// Known fixture: r ~ 15.2382%.
	flows := []CashFlow{
		{Years: 0, Amount: -1000},
		{Years: 1, Amount: 300},
		{Years: 2, Amount: 300},
		{Years: 3, Amount: 300},
		{Years: 4, Amount: 300},
		{Years: 5, Amount: 300},
	}

	r, ok := SolveIRR(flows, SolveOptions{})
	require.True(t, ok)
	assert.InDelta(t, 0.152382, r, 1e-4)
}

func TestSolveIRRNegativeRate(t *testing.T) {
	t.Parallel()

	// Losing money: -1000 becomes 800 after two years.
	flows := []CashFlow{
		{Years: 0, Amount: -1000},
		{Years: 2, Amount: 800},
	}

	r, ok := SolveIRR(flows, SolveOptions{})
	require.True(t, ok)
	// (1+r)^2 = 0.8 => r = sqrt(0.8) - 1
	assert.InDelta(t, math.Sqrt(0.8)-1, r, 1e-6)
}

func TestSolveIRRNoSolution(t *testing.T) {
	t.Parallel()

	// All-positive flows have no root; the solver must admit defeat
	// with (0, false), never fabricate a rate.
	flows := []CashFlow{
		{Years: 0, Amount: 1000},
		{Years: 1, Amount: 1000},
	}

	r, ok := SolveIRR(flows, SolveOptions{})
	assert.False(t, ok)
	assert.Zero(t, r)
}

func TestSolveIRRDegenerateInputs(t *testing.T) {
	t.Parallel()

	_, ok := SolveIRR(nil, SolveOptions{})
	assert.False(t, ok)

	_, ok = SolveIRR([]CashFlow{{Years: 0, Amount: -1000}}, SolveOptions{})
	assert.False(t, ok)
}

func TestSolveIRRRespectsMaxIterations(t *testing.T) {
	t.Parallel()

	flows := []CashFlow{
		{Years: 0, Amount: -1000},
		{Years: 1, Amount: 1100},
	}

	// One iteration from a far-off guess cannot converge.
	_, ok := SolveIRR(flows, SolveOptions{MaxIter: 1, Guess: 50})
	assert.False(t, ok)
}

func TestSolveIRRInjectableTolerance(t *testing.T) {
	t.Parallel()

	flows := []CashFlow{
		{Years: 0, Amount: -1000},
		{Years: 1, Amount: 1100},
	}

	r, ok := SolveIRR(flows, SolveOptions{Tol: 1e-12})
	require.True(t, ok)
	assert.InDelta(t, 0.10, r, 1e-9)
}
