package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/stocksim/journal"
	"github.com/rustyeddy/stocksim/market"
	"github.com/rustyeddy/stocksim/pkg/id"
	"github.com/rustyeddy/stocksim/strategy"
)

// Config holds the knobs for one simulation run.
type Config struct {
	InitialCash float64
	Commission  float64 // per-trade rate, e.g. 0.001
	Slippage    float64 // per-trade rate, e.g. 0.0005
	TopN        int     // positions the strategy is asked for

	// WeightTolerance bounds |sum(weights) - 1| before the acquisition
	// phase refuses to trade. Zero means the 1e-6 default.
	WeightTolerance float64

	// MaxParallel bounds the per-step price lookup fan-out. Zero means 8.
	MaxParallel int

	// LookupTimeout bounds each individual price lookup. Zero means 10s.
	LookupTimeout time.Duration
}

const (
	defaultWeightTolerance = 1e-6
	defaultMaxParallel     = 8
	defaultLookupTimeout   = 10 * time.Second
)

func (c Config) weightTolerance() float64 {
	if c.WeightTolerance > 0 {
		return c.WeightTolerance
	}
	return defaultWeightTolerance
}

func (c Config) maxParallel() int {
	if c.MaxParallel > 0 {
		return c.MaxParallel
	}
	return defaultMaxParallel
}

func (c Config) lookupTimeout() time.Duration {
	if c.LookupTimeout > 0 {
		return c.LookupTimeout
	}
	return defaultLookupTimeout
}

// Runner drives one simulation: per scheduled date it liquidates every
// position, asks the strategy for a fresh target allocation, and buys
// it. The full-liquidation policy always pays round-trip transaction
// costs, even for positions the strategy would keep; that is the
// reference behavior, not an incremental rebalance.
type Runner struct {
	Oracle   market.PriceOracle
	Strategy strategy.Strategy
	Journal  journal.Journal // optional; Memory is used when nil
	Config   Config
}

// Run executes the simulation over the scheduled dates, strictly in
// order. Per-ticker price failures degrade that ticker's contribution
// and raise a flag; they never abort the run.
func (r *Runner) Run(ctx context.Context, universe []string, dates []time.Time) (*Result, error) {
	if r.Oracle == nil {
		return nil, fmt.Errorf("sim: Oracle is required")
	}
	if r.Strategy == nil {
		return nil, fmt.Errorf("sim: Strategy is required")
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("sim: empty schedule")
	}
	if r.Config.InitialCash <= 0 {
		return nil, fmt.Errorf("sim: initial cash must be positive, got %v", r.Config.InitialCash)
	}

	jnl := r.Journal
	if jnl == nil {
		jnl = journal.NewMemory()
	}

	state := NewState(r.Config.InitialCash)
	result := &Result{Final: state}

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.step(ctx, state, universe, date, jnl, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// step runs the two-phase rebalance protocol for one date: sell
// everything, then buy the strategy's target allocation.
func (r *Runner) step(ctx context.Context, state *State, universe []string, date time.Time, jnl journal.Journal, result *Result) error {
	state.AsOf = date

	// Phase 1: liquidate every position at the point-in-time price.
	held := sortedTickers(state.Positions)
	prices := r.fetchPrices(ctx, held, date)

	for _, ticker := range held {
		pos := state.Positions[ticker]
		delete(state.Positions, ticker)

		price, ok := prices[ticker]
		if !ok {
			// No price inside the backward window: liquidated at zero
			// proceeds, flagged, still present in the trade log.
			result.Flags = append(result.Flags, Flag{
				Date:   date,
				Ticker: ticker,
				Kind:   FlagDataGap,
				Detail: "no price at liquidation, position written off",
			})
			slog.Warn("liquidating with no price", "ticker", ticker, "date", date.Format("2006-01-02"))
			price = 0
		}

		proceeds := float64(pos.Shares) * price * (1 - r.Config.Commission - r.Config.Slippage)
		state.Cash += proceeds

		rec := journal.TradeRecord{
			TradeID:    id.New(),
			Date:       date,
			Ticker:     ticker,
			Action:     journal.Sell,
			Shares:     pos.Shares,
			Price:      price,
			GrossValue: float64(pos.Shares) * price,
		}
		if err := jnl.RecordTrade(rec); err != nil {
			return fmt.Errorf("record sell: %w", err)
		}
		result.Trades = append(result.Trades, rec)
	}

	// Phase 2: acquire the target allocation.
	targets, err := r.Strategy.Select(ctx, universe, date, r.Config.TopN)
	if err != nil {
		return fmt.Errorf("strategy select at %s: %w", date.Format("2006-01-02"), err)
	}

	weights := r.Strategy.Weights(targets)
	holdPrices := make(map[string]float64, len(targets))

	if len(targets) == 0 {
		// An empty selection is a legitimate all-cash stance.
	} else if sum, ok := validWeightSum(targets, weights, r.Config.weightTolerance()); !ok {
		// Trading on a distorted allocation is worse than sitting in
		// cash for a period: skip the phase and flag the step.
		result.Flags = append(result.Flags, Flag{
			Date:   date,
			Kind:   FlagWeightSumMismatch,
			Detail: fmt.Sprintf("weights sum to %.6f, acquisition skipped", sum),
		})
		slog.Warn("weight sum mismatch, skipping acquisition", "date", date.Format("2006-01-02"), "sum", sum)
	} else {
		targetPrices := r.fetchPrices(ctx, targets, date)
		investable := state.Cash

		for _, ticker := range targets {
			price, ok := targetPrices[ticker]
			if !ok {
				result.Flags = append(result.Flags, Flag{
					Date:   date,
					Ticker: ticker,
					Kind:   FlagDataGap,
					Detail: "no price at acquisition, target skipped",
				})
				continue
			}

			targetValue := investable * weights[ticker]
			effective := price * (1 + r.Config.Commission + r.Config.Slippage)
			shares := int64(math.Floor(targetValue / effective))
			if shares <= 0 {
				continue
			}

			cost := float64(shares) * effective
			state.Cash -= cost
			state.Positions[ticker] = Position{
				Ticker:    ticker,
				Shares:    shares,
				CostBasis: cost,
			}
			holdPrices[ticker] = price

			rec := journal.TradeRecord{
				TradeID:    id.New(),
				Date:       date,
				Ticker:     ticker,
				Action:     journal.Buy,
				Shares:     shares,
				Price:      price,
				GrossValue: float64(shares) * price,
			}
			if err := jnl.RecordTrade(rec); err != nil {
				return fmt.Errorf("record buy: %w", err)
			}
			result.Trades = append(result.Trades, rec)
		}
	}

	point := journal.EquityPoint{
		Date:          date,
		Cash:          state.Cash,
		HoldingsValue: state.HoldingsValue(holdPrices),
	}
	point.TotalValue = point.Cash + point.HoldingsValue

	if err := jnl.RecordEquity(point); err != nil {
		return fmt.Errorf("record equity: %w", err)
	}
	result.EquityCurve = append(result.EquityCurve, point)

	return nil
}

// fetchPrices resolves point-in-time prices for tickers with a bounded
// parallel fan-out. Workers only read from the oracle and report back;
// the caller folds results into state. A per-ticker timeout or lookup
// error leaves that ticker out of the returned map.
func (r *Runner) fetchPrices(ctx context.Context, tickers []string, asOf time.Time) map[string]float64 {
	if len(tickers) == 0 {
		return map[string]float64{}
	}

	found := make([]bool, len(tickers))
	prices := make([]float64, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Config.maxParallel())

	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			lctx, cancel := context.WithTimeout(gctx, r.Config.lookupTimeout())
			defer cancel()

			price, err := r.Oracle.Price(lctx, ticker, asOf)
			if err != nil {
				if !errors.Is(err, market.ErrPriceUnavailable) {
					slog.Warn("price lookup failed", "ticker", ticker, "err", err)
				}
				return nil // isolated: missing price, not a run failure
			}
			prices[i] = price
			found[i] = true
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; Wait is the step barrier

	out := make(map[string]float64, len(tickers))
	for i, ticker := range tickers {
		if found[i] {
			out[ticker] = prices[i]
		}
	}
	return out
}

// validWeightSum checks the strategy's weights sum to 1 within tol over
// the selected tickers. The simulator never renormalizes.
func validWeightSum(tickers []string, weights map[string]float64, tol float64) (float64, bool) {
	var sum float64
	for _, t := range tickers {
		sum += weights[t]
	}
	return sum, math.Abs(sum-1) <= tol
}

func sortedTickers(positions map[string]Position) []string {
	out := make([]string, 0, len(positions))
	for t := range positions {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
