package strategy

import (
	"context"
	"time"
)

// EqualWeight holds the first topN tickers of the universe at uniform
// weight. Useful as a buy-and-hold baseline and in conservation tests.
type EqualWeight struct{}

func (EqualWeight) Name() string { return "equal-weight" }

func (EqualWeight) Select(_ context.Context, universe []string, _ time.Time, topN int) ([]string, error) {
	if topN <= 0 || topN > len(universe) {
		topN = len(universe)
	}
	out := make([]string, topN)
	copy(out, universe[:topN])
	return out, nil
}

func (EqualWeight) Weights(tickers []string) map[string]float64 {
	return EqualWeights(tickers)
}

func init() {
	Register(EqualWeight{})
}
