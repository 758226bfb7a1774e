package risk

import (
	"fmt"
	"math"
	"sort"
)

// CorrelationPair is a pair of holdings whose return correlation meets
// the redundancy threshold.
type CorrelationPair struct {
	A           string  `json:"a"`
	B           string  `json:"b"`
	Correlation float64 `json:"correlation"`
}

// Pearson computes the correlation coefficient of two equal-length
// return series.
func Pearson(xs, ys []float64) (float64, error) {
	if len(xs) != len(ys) {
		return 0, fmt.Errorf("risk: series length mismatch, %d vs %d", len(xs), len(ys))
	}
	if len(xs) < MinObservations {
		return 0, fmt.Errorf("%w: %d observations, need %d", ErrInsufficientHistory, len(xs), MinObservations)
	}

	n := float64(len(xs))
	var meanX, meanY float64
	for i := range xs {
		meanX += xs[i]
		meanY += ys[i]
	}
	meanX /= n
	meanY /= n

	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		// A constant series has no co-movement to measure.
		return 0, nil
	}
	return cov / math.Sqrt(varX*varY), nil
}

// CorrelationMatrix computes pairwise Pearson correlations over the
// overlapping tail of each pair of series.
func CorrelationMatrix(returns map[string][]float64) (map[string]map[string]float64, error) {
	tickers := sortedKeys(returns)

	matrix := make(map[string]map[string]float64, len(tickers))
	for _, t := range tickers {
		matrix[t] = make(map[string]float64, len(tickers))
		matrix[t][t] = 1
	}

	for i := 0; i < len(tickers); i++ {
		for j := i + 1; j < len(tickers); j++ {
			a, b := tickers[i], tickers[j]
			xs, ys := alignTail(returns[a], returns[b])

			rho, err := Pearson(xs, ys)
			if err != nil {
				return nil, err
			}
			matrix[a][b] = rho
			matrix[b][a] = rho
		}
	}
	return matrix, nil
}

// RedundantPairs surfaces holding pairs whose |correlation| meets the
// threshold, sorted by |correlation| descending. Two highly correlated
// positions are one bet wearing two tickers.
func RedundantPairs(returns map[string][]float64, threshold float64) ([]CorrelationPair, error) {
	matrix, err := CorrelationMatrix(returns)
	if err != nil {
		return nil, err
	}

	tickers := sortedKeys(returns)
	var pairs []CorrelationPair
	for i := 0; i < len(tickers); i++ {
		for j := i + 1; j < len(tickers); j++ {
			rho := matrix[tickers[i]][tickers[j]]
			if math.Abs(rho) >= threshold {
				pairs = append(pairs, CorrelationPair{
					A:           tickers[i],
					B:           tickers[j],
					Correlation: rho,
				})
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].Correlation) > math.Abs(pairs[j].Correlation)
	})
	return pairs, nil
}

// alignTail truncates two series to their common most-recent length.
func alignTail(xs, ys []float64) ([]float64, []float64) {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	return xs[len(xs)-n:], ys[len(ys)-n:]
}

func sortedKeys(m map[string][]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
