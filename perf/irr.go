package perf

import "math"

// CashFlow is one signed flow for the IRR solver: negative for money
// going into the portfolio, positive for money coming out. Years is the
// elapsed time from the start of the evaluation window.
type CashFlow struct {
	Years  float64
	Amount float64
}

// SolveOptions tunes the IRR root finder. Zero values select defaults,
// so tests can pin tolerances without touching production call sites.
type SolveOptions struct {
	MaxIter int     // default 100
	Tol     float64 // NPV convergence tolerance, default 1e-7
	Guess   float64 // starting rate, default 0.1
}

const (
	irrMinRate = -0.99 // keep (1+r) positive, away from the pole at -1
	irrMaxRate = 100
	// A solved rate beyond +-1000%/yr is numerically "converged" but
	// economically meaningless; report non-convergence instead.
	irrPlausibleBound = 10
)

// SolveIRR finds the rate r with sum(cf_i / (1+r)^t_i) = 0 using damped
// Newton-Raphson. It reports (0, false) when the iteration does not
// converge or converges to an implausible rate; callers must treat the
// false case as "no meaningful IRR", never as a real 0%.
func SolveIRR(flows []CashFlow, opts SolveOptions) (float64, bool) {
	if len(flows) < 2 {
		return 0, false
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = 100
	}
	if opts.Tol <= 0 {
		opts.Tol = 1e-7
	}
	r := opts.Guess
	if r == 0 {
		r = 0.1
	}

	for i := 0; i < opts.MaxIter; i++ {
		npv, deriv := npvAndDerivative(flows, r)

		if math.Abs(npv) < opts.Tol {
			if math.Abs(r) > irrPlausibleBound {
				return 0, false
			}
			return r, true
		}
		if deriv == 0 || math.IsNaN(deriv) || math.IsInf(deriv, 0) {
			return 0, false
		}

		step := npv / deriv
		// Damp large jumps so the iteration cannot overshoot past the
		// pole at r = -1 and start oscillating.
		for math.Abs(step) > 0.5 {
			step /= 2
		}

		r -= step
		if r < irrMinRate {
			r = irrMinRate
		} else if r > irrMaxRate {
			r = irrMaxRate
		}
	}

	return 0, false
}

func npvAndDerivative(flows []CashFlow, r float64) (npv, deriv float64) {
	for _, cf := range flows {
		disc := math.Pow(1+r, cf.Years)
		npv += cf.Amount / disc
		deriv -= cf.Years * cf.Amount / (disc * (1 + r))
	}
	return npv, deriv
}
