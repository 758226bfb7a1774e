package risk

import "sort"

// Concentration captures how lumpy the portfolio is across positions
// and sectors.
type Concentration struct {
	// Weights are per-position value shares of the total.
	Weights map[string]float64 `json:"weights"`

	// Herfindahl is the sum of squared weights, in (0, 1]: 1/n for an
	// equal-weight book of n names, 1.0 for a single position.
	Herfindahl float64 `json:"herfindahl"`

	Top3 float64 `json:"top3"` // weight held by the 3 largest positions
	Top5 float64 `json:"top5"`

	MaxPosition float64 `json:"max_position"`

	SectorWeights map[string]float64 `json:"sector_weights,omitempty"`
	MaxSector     float64            `json:"max_sector"`

	Holdings int `json:"holdings"`
}

// Concentrations derives concentration figures from position weights.
// sectors optionally maps ticker to sector; unmapped tickers land in
// "unclassified".
func Concentrations(weights map[string]float64, sectors map[string]string) Concentration {
	c := Concentration{
		Weights:  weights,
		Holdings: len(weights),
	}

	sorted := make([]float64, 0, len(weights))
	for _, w := range weights {
		sorted = append(sorted, w)
		c.Herfindahl += w * w
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	c.Top3 = topN(sorted, 3)
	c.Top5 = topN(sorted, 5)
	if len(sorted) > 0 {
		c.MaxPosition = sorted[0]
	}

	// Sector figures only when a sector map is supplied; lumping every
	// ticker into one unknown bucket would read as max concentration.
	if len(sectors) > 0 {
		c.SectorWeights = make(map[string]float64)
		for ticker, w := range weights {
			sector := sectors[ticker]
			if sector == "" {
				sector = "unclassified"
			}
			c.SectorWeights[sector] += w
		}
		for _, w := range c.SectorWeights {
			if w > c.MaxSector {
				c.MaxSector = w
			}
		}
	}

	return c
}

// DiversificationScore grades concentration on a 0-100 scale. This is
// an explicit heuristic, not a statistically derived quantity: it
// penalizes Herfindahl concentration (up to 40 points), dominant
// sectors (up to 30) and dominant single positions (up to 20), and
// rewards holding count (up to 20), clamped to [0, 100].
func DiversificationScore(c Concentration) float64 {
	score := 100.0

	score -= 40 * c.Herfindahl

	switch {
	case c.MaxSector > 0.60:
		score -= 30
	case c.MaxSector > 0.45:
		score -= 20
	case c.MaxSector > 0.30:
		score -= 10
	}

	switch {
	case c.MaxPosition > 0.40:
		score -= 20
	case c.MaxPosition > 0.25:
		score -= 12
	case c.MaxPosition > 0.15:
		score -= 5
	}

	switch {
	case c.Holdings >= 20:
		score += 20
	case c.Holdings >= 12:
		score += 12
	case c.Holdings >= 6:
		score += 6
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

func topN(sortedDesc []float64, n int) float64 {
	if n > len(sortedDesc) {
		n = len(sortedDesc)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += sortedDesc[i]
	}
	return sum
}
