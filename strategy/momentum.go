package strategy

import (
	"context"
	"sort"
	"time"

	"github.com/rustyeddy/stocksim/market"
)

// Momentum ranks the universe by trailing return over a lookback window
// and holds the strongest topN at equal weight.
//
// Ranking reads only history dated <= the rebalance date, through the
// oracle's range lookup, so it cannot peek at future bars.
type Momentum struct {
	Oracle   market.PriceOracle
	Lookback int // calendar days, default 90
}

func NewMomentum(oracle market.PriceOracle, lookbackDays int) *Momentum {
	if lookbackDays <= 0 {
		lookbackDays = 90
	}
	return &Momentum{Oracle: oracle, Lookback: lookbackDays}
}

func (*Momentum) Name() string { return "momentum" }

func (m *Momentum) Select(ctx context.Context, universe []string, date time.Time, topN int) ([]string, error) {
	type ranked struct {
		ticker string
		ret    float64
	}

	start := date.AddDate(0, 0, -m.Lookback)

	var scores []ranked
	for _, ticker := range universe {
		bars, err := m.Oracle.HistoryRange(ctx, ticker, start, date)
		if err != nil {
			return nil, err
		}
		// Tickers without enough history simply don't rank.
		if len(bars) < 2 || bars[0].Close == 0 {
			continue
		}
		scores = append(scores, ranked{
			ticker: ticker,
			ret:    bars[len(bars)-1].Close/bars[0].Close - 1,
		})
	}

	// Strongest first; ties broken by ticker for a stable ordering.
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].ret != scores[j].ret {
			return scores[i].ret > scores[j].ret
		}
		return scores[i].ticker < scores[j].ticker
	})

	if topN <= 0 || topN > len(scores) {
		topN = len(scores)
	}
	out := make([]string, topN)
	for i := 0; i < topN; i++ {
		out[i] = scores[i].ticker
	}
	return out, nil
}

func (m *Momentum) Weights(tickers []string) map[string]float64 {
	return EqualWeights(tickers)
}
