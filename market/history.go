package market

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// DefaultLookback is the backward search window for point-in-time
// lookups: wide enough to skip weekends and long holiday stretches,
// narrow enough not to fill gaps with stale prices.
const DefaultLookback = 10 * 24 * time.Hour

// History is an in-memory PriceOracle backed by per-ticker daily bars.
// Bars are kept ascending by date. Safe for concurrent reads.
type History struct {
	mu       sync.RWMutex
	bars     map[string][]Bar
	lookback time.Duration
}

func NewHistory() *History {
	return &History{
		bars:     make(map[string][]Bar),
		lookback: DefaultLookback,
	}
}

// SetLookback overrides the backward search window. Zero restores the
// default.
func (h *History) SetLookback(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d <= 0 {
		d = DefaultLookback
	}
	h.lookback = d
}

// Add inserts one bar for ticker, keeping the series sorted and
// replacing any existing bar on the same date.
func (h *History) Add(ticker string, b Bar) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b.Date = midnight(b.Date)
	series := h.bars[ticker]

	i := sort.Search(len(series), func(i int) bool {
		return !series[i].Date.Before(b.Date)
	})
	if i < len(series) && series[i].Date.Equal(b.Date) {
		series[i] = b
		return
	}

	series = append(series, Bar{})
	copy(series[i+1:], series[i:])
	series[i] = b
	h.bars[ticker] = series
}

// AddSeries bulk-inserts bars for ticker.
func (h *History) AddSeries(ticker string, bars []Bar) {
	for _, b := range bars {
		h.Add(ticker, b)
	}
}

// Tickers returns the tickers with at least one bar, sorted.
func (h *History) Tickers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.bars))
	for t := range h.bars {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Price implements PriceOracle. It returns the close of the most recent
// bar dated <= asOf within the lookback window, never a later one.
func (h *History) Price(ctx context.Context, ticker string, asOf time.Time) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	series := h.bars[ticker]
	if len(series) == 0 {
		return 0, fmt.Errorf("%w: %s has no history", ErrPriceUnavailable, ticker)
	}

	asOf = midnight(asOf)

	// first index with date > asOf; the bar before it is the candidate
	i := sort.Search(len(series), func(i int) bool {
		return series[i].Date.After(asOf)
	})
	if i == 0 {
		return 0, fmt.Errorf("%w: %s has no data on or before %s",
			ErrPriceUnavailable, ticker, asOf.Format("2006-01-02"))
	}

	b := series[i-1]
	if asOf.Sub(b.Date) > h.lookback {
		return 0, fmt.Errorf("%w: %s last traded %s, outside lookback window of %s",
			ErrPriceUnavailable, ticker, b.Date.Format("2006-01-02"),
			asOf.Format("2006-01-02"))
	}
	return b.Close, nil
}

// HistoryRange implements PriceOracle.
func (h *History) HistoryRange(ctx context.Context, ticker string, start, end time.Time) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	series := h.bars[ticker]
	start, end = midnight(start), midnight(end)

	lo := sort.Search(len(series), func(i int) bool {
		return !series[i].Date.Before(start)
	})
	hi := sort.Search(len(series), func(i int) bool {
		return series[i].Date.After(end)
	})
	if lo >= hi {
		return nil, nil
	}

	out := make([]Bar, hi-lo)
	copy(out, series[lo:hi])
	return out, nil
}

// DailyReturns converts a bar series into simple close-to-close returns.
// A series of n bars yields n-1 returns.
func DailyReturns(bars []Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	rets := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			rets = append(rets, 0)
			continue
		}
		rets = append(rets, bars[i].Close/prev-1)
	}
	return rets
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
