package risk

import (
	"fmt"
	"math"
	"sort"
)

// VaREstimate is historical Value-at-Risk and Expected Shortfall at one
// confidence level, as a return fraction and in dollars.
type VaREstimate struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`  // return fraction, typically negative
	CVaR       float64 `json:"cvar"` // mean of the tail at or below VaR
	VaRAmount  float64 `json:"var_amount"`
	CVaRAmount float64 `json:"cvar_amount"`
	HorizonDays int    `json:"horizon_days"`
}

// PortfolioSeries collapses per-ticker daily returns into one
// value-weighted portfolio return series. Series of unequal length are
// aligned on their most recent observations. Fails with
// ErrInsufficientHistory when fewer than MinObservations remain.
func PortfolioSeries(returns map[string][]float64, weights map[string]float64) ([]float64, error) {
	n := alignedObservations(returns, weights)
	if n < MinObservations {
		return nil, fmt.Errorf("%w: %d observations, need %d", ErrInsufficientHistory, n, MinObservations)
	}

	out := make([]float64, n)
	for ticker, w := range weights {
		series := returns[ticker]
		offset := len(series) - n
		for i := 0; i < n; i++ {
			out[i] += w * series[offset+i]
		}
	}
	return out, nil
}

// alignedObservations is the series length PortfolioSeries aligns on:
// the shortest return series among the weighted tickers.
func alignedObservations(returns map[string][]float64, weights map[string]float64) int {
	n := -1
	for ticker := range weights {
		if l := len(returns[ticker]); n == -1 || l < n {
			n = l
		}
	}
	return max(n, 0)
}

// HistoricalVaR estimates VaR and CVaR from an observed return
// distribution: VaR at confidence p is the (1-p) percentile, CVaR the
// mean of everything at or below it. Both scale to the horizon by
// sqrt(horizonDays).
func HistoricalVaR(series []float64, confidence float64, horizonDays int, portfolioValue float64) (VaREstimate, error) {
	if len(series) < MinObservations {
		return VaREstimate{}, fmt.Errorf("%w: %d observations, need %d", ErrInsufficientHistory, len(series), MinObservations)
	}
	if confidence <= 0 || confidence >= 1 {
		return VaREstimate{}, fmt.Errorf("risk: confidence must be in (0,1), got %v", confidence)
	}
	if horizonDays <= 0 {
		horizonDays = 1
	}

	sorted := make([]float64, len(series))
	copy(sorted, series)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted)) * (1 - confidence))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	scale := math.Sqrt(float64(horizonDays))
	oneDayVaR := sorted[idx]

	var tailSum float64
	for i := 0; i <= idx; i++ {
		tailSum += sorted[i]
	}
	oneDayCVaR := tailSum / float64(idx+1)

	est := VaREstimate{
		Confidence:  confidence,
		VaR:         oneDayVaR * scale,
		CVaR:        oneDayCVaR * scale,
		HorizonDays: horizonDays,
	}
	est.VaRAmount = math.Abs(est.VaR) * portfolioValue
	est.CVaRAmount = math.Abs(est.CVaR) * portfolioValue
	return est, nil
}
