package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, date, ticker, action, shares, price, gross_value)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Date, t.Ticker, string(t.Action),
		t.Shares, t.Price, t.GrossValue,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquityPoint) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(date, total_value, cash, holdings_value)
		VALUES (?, ?, ?, ?)`,
		e.Date, e.TotalValue, e.Cash, e.HoldingsValue,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
