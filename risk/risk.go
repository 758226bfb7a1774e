// Package risk computes tail-loss, correlation, and concentration
// statistics over baskets of historical return series. All functions
// are pure; inputs are passed explicitly, never pulled from globals.
package risk

import (
	"errors"
	"fmt"
)

// ErrInsufficientHistory is returned when a series is too short to
// support a statistical estimate. Callers get a marked result, never a
// number fabricated from a handful of samples.
var ErrInsufficientHistory = errors.New("risk: insufficient history")

// MinObservations is the floor below which VaR and correlation refuse
// to produce figures. 252 observations (a trading year) is the
// recommended lookback; 30 is the hard minimum.
const MinObservations = 30

// Options configures one risk analysis.
type Options struct {
	// ConfidenceLevels for VaR/CVaR. Empty means {0.95, 0.99}.
	ConfidenceLevels []float64

	// HorizonDays scales one-day VaR by sqrt(horizon). Zero means 1.
	HorizonDays int

	// CorrelationThreshold marks pairs at or above it as redundant
	// exposure. Zero means 0.8.
	CorrelationThreshold float64

	// Sectors optionally maps ticker to sector for sector-level
	// concentration. Unmapped tickers fall under "unclassified".
	Sectors map[string]string
}

func (o Options) confidenceLevels() []float64 {
	if len(o.ConfidenceLevels) > 0 {
		return o.ConfidenceLevels
	}
	return []float64{0.95, 0.99}
}

func (o Options) horizonDays() int {
	if o.HorizonDays > 0 {
		return o.HorizonDays
	}
	return 1
}

func (o Options) correlationThreshold() float64 {
	if o.CorrelationThreshold > 0 {
		return o.CorrelationThreshold
	}
	return 0.8
}

// Metrics is the immutable result of one risk analysis.
type Metrics struct {
	// VaR holds one estimate per confidence level. Empty when
	// InsufficientHistory is set.
	VaR []VaREstimate `json:"var"`

	// InsufficientHistory marks that the return series were too short
	// for VaR and correlation; concentration figures are still valid.
	InsufficientHistory bool `json:"insufficient_history"`
	Observations        int  `json:"observations"`

	RedundantPairs []CorrelationPair `json:"redundant_pairs,omitempty"`

	Concentration        Concentration `json:"concentration"`
	DiversificationScore float64       `json:"diversification_score"`
}

// Compute runs the full risk analysis: VaR/CVaR at each confidence
// level, redundant-exposure correlation pairs, concentration, and the
// diversification score.
//
// returns maps ticker to its daily return series (ascending by date);
// weights are current position value shares summing to ~1; the
// portfolioValue scales VaR into dollars.
func Compute(returns map[string][]float64, weights map[string]float64, portfolioValue float64, opts Options) (Metrics, error) {
	if len(weights) == 0 {
		return Metrics{}, fmt.Errorf("risk: no positions to analyze")
	}

	m := Metrics{
		Concentration: Concentrations(weights, opts.Sectors),
	}
	m.DiversificationScore = DiversificationScore(m.Concentration)

	series, err := PortfolioSeries(returns, weights)
	if err != nil {
		if errors.Is(err, ErrInsufficientHistory) {
			m.InsufficientHistory = true
			m.Observations = alignedObservations(returns, weights)
			return m, nil
		}
		return Metrics{}, err
	}
	m.Observations = len(series)

	for _, conf := range opts.confidenceLevels() {
		est, err := HistoricalVaR(series, conf, opts.horizonDays(), portfolioValue)
		if err != nil {
			return Metrics{}, err
		}
		m.VaR = append(m.VaR, est)
	}

	pairs, err := RedundantPairs(returns, opts.correlationThreshold())
	if err != nil && !errors.Is(err, ErrInsufficientHistory) {
		return Metrics{}, err
	}
	m.RedundantPairs = pairs

	return m, nil
}
