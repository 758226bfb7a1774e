// Package sim executes a rules-based strategy over a rebalance schedule
// and produces the equity curve and trade log the analyzers consume.
package sim

import (
	"time"
)

// Position is one holding in the current portfolio state. Shares are
// whole (no fractional shares); CostBasis is the total cash paid to
// acquire the position, transaction costs included.
type Position struct {
	Ticker    string  `json:"ticker"`
	Shares    int64   `json:"shares"`
	CostBasis float64 `json:"cost_basis"`
}

// State is the simulator's cash/holdings state. It is created once at
// simulation start and mutated exactly once per rebalance date, by the
// single goroutine driving the run.
type State struct {
	Cash      float64             `json:"cash"`
	Positions map[string]Position `json:"positions"`
	AsOf      time.Time           `json:"as_of"`
}

func NewState(initialCash float64) *State {
	return &State{
		Cash:      initialCash,
		Positions: make(map[string]Position),
	}
}

// HoldingsValue prices every position with the supplied per-ticker
// prices. Tickers missing from the map contribute zero.
func (s *State) HoldingsValue(prices map[string]float64) float64 {
	var total float64
	for ticker, pos := range s.Positions {
		total += float64(pos.Shares) * prices[ticker]
	}
	return total
}

// TotalValue is cash plus holdings at the supplied prices.
func (s *State) TotalValue(prices map[string]float64) float64 {
	return s.Cash + s.HoldingsValue(prices)
}
