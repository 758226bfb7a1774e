package sim

import (
	"time"

	"github.com/rustyeddy/stocksim/journal"
)

// FlagKind classifies a degraded-data or skipped-step condition.
type FlagKind string

const (
	// FlagDataGap marks a ticker whose price was unavailable at a
	// rebalance date: sold at zero proceeds or skipped on buy.
	FlagDataGap FlagKind = "DATA_GAP"

	// FlagWeightSumMismatch marks a rebalance date whose acquisition
	// phase was skipped because the strategy's weights did not sum to
	// 1.0 within tolerance.
	FlagWeightSumMismatch FlagKind = "WEIGHT_SUM_MISMATCH"
)

// Flag records one degraded condition. Flags never abort the run; they
// travel with the result so reports can distinguish "computed with
// degraded data" from "fully computed".
type Flag struct {
	Date   time.Time `json:"date"`
	Ticker string    `json:"ticker,omitempty"` // empty for step-level flags
	Kind   FlagKind  `json:"kind"`
	Detail string    `json:"detail"`
}

// Result is the output of one simulation run. EquityCurve is ordered by
// date, one point per rebalance date; Trades in execution order.
type Result struct {
	EquityCurve []journal.EquityPoint `json:"equity_curve"`
	Trades      []journal.TradeRecord `json:"trade_log"`
	Flags       []Flag                `json:"flags,omitempty"`
	Final       *State                `json:"final_state"`
}

// Degraded reports whether any step ran on incomplete data.
func (r *Result) Degraded() bool {
	return len(r.Flags) > 0
}

// FlagsOn returns the flags raised at a given rebalance date.
func (r *Result) FlagsOn(date time.Time) []Flag {
	var out []Flag
	for _, f := range r.Flags {
		if f.Date.Equal(date) {
			out = append(out, f)
		}
	}
	return out
}
