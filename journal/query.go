package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	var rec TradeRecord
	var action string

	row := j.db.QueryRow(`
		SELECT trade_id, date, ticker, action, shares, price, gross_value
		FROM trades
		WHERE trade_id = ?`, tradeID)

	err := row.Scan(
		&rec.TradeID,
		&rec.Date,
		&rec.Ticker,
		&action,
		&rec.Shares,
		&rec.Price,
		&rec.GrossValue,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	rec.Action = Action(action)
	return rec, nil
}

// ListTradesBetween returns trades dated within [start, end), ordered
// by date then trade ID (ULIDs sort by creation time within a date).
func (j *SQLite) ListTradesBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, date, ticker, action, shares, price, gross_value
		FROM trades
		WHERE date >= ? AND date < ?
		ORDER BY date ASC, trade_id ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		var action string
		if err := rows.Scan(
			&rec.TradeID,
			&rec.Date,
			&rec.Ticker,
			&action,
			&rec.Shares,
			&rec.Price,
			&rec.GrossValue,
		); err != nil {
			return nil, err
		}
		rec.Action = Action(action)
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadEquityCurve returns the full recorded equity curve, ascending by
// date.
func (j *SQLite) LoadEquityCurve() ([]EquityPoint, error) {
	rows, err := j.db.Query(`
		SELECT date, total_value, cash, holdings_value
		FROM equity
		ORDER BY date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityPoint
	for rows.Next() {
		var p EquityPoint
		if err := rows.Scan(&p.Date, &p.TotalValue, &p.Cash, &p.HoldingsValue); err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
