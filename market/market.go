// Package market defines historical price data and the point-in-time
// lookup contract consumed by the simulator.
package market

import (
	"context"
	"errors"
	"time"
)

// ErrPriceUnavailable is returned when no price exists for a ticker at
// or within the backward search window of the requested date. It is a
// per-ticker, recoverable condition, not a fatal one.
var ErrPriceUnavailable = errors.New("market: price unavailable")

// Bar is one daily close for a ticker.
type Bar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceOracle is the point-in-time price source.
//
// Price must never return data dated after asOf: a simulated decision at
// date D may only see prices with timestamp <= D.
type PriceOracle interface {
	// Price returns the close of the most recent trading day at or
	// before asOf, searching backward over a bounded window. Returns
	// ErrPriceUnavailable when no bar falls inside the window.
	Price(ctx context.Context, ticker string, asOf time.Time) (float64, error)

	// HistoryRange returns bars in [start, end], ascending by date,
	// no duplicate dates.
	HistoryRange(ctx context.Context, ticker string, start, end time.Time) ([]Bar, error)
}
