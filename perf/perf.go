// Package perf derives return and risk-adjusted statistics from an
// equity curve and its trade log. All functions are pure over
// already-materialized inputs.
package perf

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rustyeddy/stocksim/journal"
)

const (
	tradingDaysPerYear = 252
	daysPerYear        = 365.25
)

// Metrics is the immutable result of one performance analysis.
type Metrics struct {
	TotalReturn        float64 `json:"total_return"`
	AnnualizedReturn   float64 `json:"annualized_return"`
	TimeWeightedReturn float64 `json:"time_weighted_return"` // cumulative, cash-flow timing removed
	AnnualizedTWR      float64 `json:"annualized_twr"`

	// MoneyWeightedReturn is the annual IRR of the run's cash flows.
	// When IRRConverged is false it is 0.0 and must be presented as
	// "not computed", not as a real zero.
	MoneyWeightedReturn float64 `json:"money_weighted_return"`
	IRRConverged        bool    `json:"irr_converged"`

	MaxDrawdown float64 `json:"max_drawdown"` // in [-1, 0]
	Volatility  float64 `json:"volatility"`   // annualized

	Sharpe  float64 `json:"sharpe"`
	Sortino float64 `json:"sortino"` // +Inf when no downside observations
	Calmar  float64 `json:"calmar"`

	// Trade statistics from matched BUY/SELL round trips.
	RoundTrips   int     `json:"round_trips"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// Compute analyzes an equity curve and trade log. The curve must be
// ordered by date with at least two points.
func Compute(curve []journal.EquityPoint, trades []journal.TradeRecord, riskFreeRate float64) (Metrics, error) {
	if len(curve) < 2 {
		return Metrics{}, fmt.Errorf("perf: need at least 2 equity points, got %d", len(curve))
	}
	for i := 1; i < len(curve); i++ {
		if !curve[i].Date.After(curve[i-1].Date) {
			return Metrics{}, fmt.Errorf("perf: equity curve not strictly increasing at %s",
				curve[i].Date.Format("2006-01-02"))
		}
	}

	start, end := curve[0].Date, curve[len(curve)-1].Date
	days := int(end.Sub(start).Hours() / 24)

	m := Metrics{Start: start, End: end, Days: days}

	first, last := curve[0].TotalValue, curve[len(curve)-1].TotalValue
	if first > 0 {
		m.TotalReturn = last/first - 1
	}
	m.AnnualizedReturn = annualize(m.TotalReturn, days)

	m.TimeWeightedReturn = timeWeightedReturn(curve, trades)
	m.AnnualizedTWR = annualize(m.TimeWeightedReturn, days)

	m.MoneyWeightedReturn, m.IRRConverged = moneyWeightedReturn(curve, trades)

	m.MaxDrawdown = MaxDrawdown(curve)

	rets := periodReturns(curve)
	m.Volatility = stdev(rets) * math.Sqrt(tradingDaysPerYear)

	excess := m.AnnualizedReturn - riskFreeRate
	if m.Volatility > 0 {
		m.Sharpe = excess / m.Volatility
	}

	downside := downsideStdev(rets) * math.Sqrt(tradingDaysPerYear)
	switch {
	case downside > 0:
		m.Sortino = excess / downside
	default:
		// No sub-target observations: infinitely good downside risk,
		// represented explicitly rather than leaking a NaN.
		m.Sortino = math.Inf(1)
	}

	if m.MaxDrawdown < 0 {
		m.Calmar = m.AnnualizedReturn / math.Abs(m.MaxDrawdown)
	}

	m.RoundTrips, m.WinRate, m.ProfitFactor = roundTripStats(trades)

	return m, nil
}

// timeWeightedReturn chains sub-period returns, splitting the window at
// every date a trade occurred. Cash-flow timing and size drop out, so
// the figure isolates strategy skill.
func timeWeightedReturn(curve []journal.EquityPoint, trades []journal.TradeRecord) float64 {
	flowDates := make(map[string]bool, len(trades))
	for _, t := range trades {
		flowDates[t.Date.Format("2006-01-02")] = true
	}

	chained := 1.0
	prev := curve[0]
	for _, p := range curve[1:] {
		isBoundary := flowDates[p.Date.Format("2006-01-02")] || p.Date.Equal(curve[len(curve)-1].Date)
		if !isBoundary {
			continue
		}
		if prev.TotalValue > 0 {
			chained *= p.TotalValue / prev.TotalValue
		}
		prev = p
	}
	return chained - 1
}

// moneyWeightedReturn solves the IRR of the run's signed cash flows:
// the initial value as the opening outlay, each strictly interim trade
// as a flow, and the final value as the closing inflow. Trades on the
// boundary dates are internal, not flows: the opening outlay already
// funds start-date buys, and the final value already reflects end-date
// trades, so counting either again would double them.
func moneyWeightedReturn(curve []journal.EquityPoint, trades []journal.TradeRecord) (float64, bool) {
	start := curve[0].Date
	end := curve[len(curve)-1].Date

	flows := []CashFlow{{Years: 0, Amount: -curve[0].TotalValue}}
	for _, t := range trades {
		if !t.Date.After(start) || !t.Date.Before(end) {
			continue
		}
		amount := t.GrossValue
		if t.Action == journal.Buy {
			amount = -amount
		}
		flows = append(flows, CashFlow{
			Years:  years(start, t.Date),
			Amount: amount,
		})
	}
	flows = append(flows, CashFlow{
		Years:  years(start, end),
		Amount: curve[len(curve)-1].TotalValue,
	})

	return SolveIRR(flows, SolveOptions{})
}

// MaxDrawdown is the deepest peak-to-trough decline of the curve,
// always in [-1, 0].
func MaxDrawdown(curve []journal.EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}

	peak := curve[0].TotalValue
	maxDD := 0.0
	for _, p := range curve {
		if p.TotalValue > peak {
			peak = p.TotalValue
		}
		if peak > 0 {
			dd := (p.TotalValue - peak) / peak
			if dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// roundTripStats matches each ticker's BUY/SELL pairs FIFO and counts
// wins on gross value. The original system hardcoded a 50% win rate;
// this computes it from actual entry/exit pairs.
func roundTripStats(trades []journal.TradeRecord) (trips int, winRate, profitFactor float64) {
	byTicker := make(map[string][]journal.TradeRecord)
	tickers := make([]string, 0)
	for _, t := range trades {
		if _, ok := byTicker[t.Ticker]; !ok {
			tickers = append(tickers, t.Ticker)
		}
		byTicker[t.Ticker] = append(byTicker[t.Ticker], t)
	}
	sort.Strings(tickers)

	wins := 0
	grossProfit, grossLoss := 0.0, 0.0

	for _, ticker := range tickers {
		var buys []journal.TradeRecord
		for _, t := range byTicker[ticker] {
			switch t.Action {
			case journal.Buy:
				buys = append(buys, t)
			case journal.Sell:
				if len(buys) == 0 {
					continue
				}
				entry := buys[0]
				buys = buys[1:]

				shares := min64(entry.Shares, t.Shares)
				pnl := float64(shares) * (t.Price - entry.Price)

				trips++
				if pnl > 0 {
					wins++
					grossProfit += pnl
				} else if pnl < 0 {
					grossLoss += -pnl
				}
			}
		}
	}

	if trips > 0 {
		winRate = float64(wins) / float64(trips)
	}
	if grossLoss > 0 {
		profitFactor = grossProfit / grossLoss
	}
	return trips, winRate, profitFactor
}

func periodReturns(curve []journal.EquityPoint) []float64 {
	rets := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].TotalValue
		if prev == 0 {
			rets = append(rets, 0)
			continue
		}
		rets = append(rets, curve[i].TotalValue/prev-1)
	}
	return rets
}

func annualize(totalReturn float64, days int) float64 {
	if days <= 0 || totalReturn <= -1 {
		return 0
	}
	return math.Pow(1+totalReturn, daysPerYear/float64(days)) - 1
}

func years(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24 / daysPerYear
}

func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	variance := 0.0
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= float64(len(xs) - 1)
	return math.Sqrt(variance)
}

// downsideStdev is the dispersion of only the negative observations,
// computed around zero (target return).
func downsideStdev(xs []float64) float64 {
	sum := 0.0
	n := 0
	for _, x := range xs {
		if x < 0 {
			sum += x * x
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
