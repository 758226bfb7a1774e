// Package journal records the trades and equity curve a simulation
// produces, to CSV files or a SQLite database.
package journal

import "time"

// Action is the side of a simulated trade.
type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
)

// TradeRecord is one executed simulated trade. Written once by the
// simulator during a rebalance step, never mutated.
type TradeRecord struct {
	TradeID    string    `json:"trade_id"`
	Date       time.Time `json:"date"`
	Ticker     string    `json:"ticker"`
	Action     Action    `json:"action"`
	Shares     int64     `json:"shares"`
	Price      float64   `json:"price"`
	GrossValue float64   `json:"gross_value"`
}

// EquityPoint is the portfolio's value at one rebalance date.
type EquityPoint struct {
	Date          time.Time `json:"date"`
	TotalValue    float64   `json:"total_value"`
	Cash          float64   `json:"cash"`
	HoldingsValue float64   `json:"holdings_value"`
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquityPoint) error
	Close() error
}

// Memory keeps records in slices. Used as the default journal when a
// caller only wants the in-process result, and as a test double.
type Memory struct {
	Trades []TradeRecord
	Equity []EquityPoint
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) RecordTrade(t TradeRecord) error {
	m.Trades = append(m.Trades, t)
	return nil
}

func (m *Memory) RecordEquity(e EquityPoint) error {
	m.Equity = append(m.Equity, e)
	return nil
}

func (m *Memory) Close() error { return nil }
