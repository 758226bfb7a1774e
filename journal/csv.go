package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSV struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSV, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	closeBoth := func() {
		tf.Close()
		ef.Close()
	}

	if err := tw.Write([]string{"trade_id", "date", "ticker", "action", "shares", "price", "gross_value"}); err != nil {
		closeBoth()
		return nil, err
	}
	if err := ew.Write([]string{"date", "total_value", "cash", "holdings_value"}); err != nil {
		closeBoth()
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		closeBoth()
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		closeBoth()
		return nil, err
	}

	return &CSV{tw, ew, tf, ef}, nil
}

func (j *CSV) RecordTrade(t TradeRecord) error {
	j.trades.Write([]string{
		t.TradeID,
		t.Date.Format(time.RFC3339),
		t.Ticker,
		string(t.Action),
		strconv.FormatInt(t.Shares, 10),
		f(t.Price),
		f(t.GrossValue),
	})
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSV) RecordEquity(e EquityPoint) error {
	j.equity.Write([]string{
		e.Date.Format(time.RFC3339),
		f(e.TotalValue),
		f(e.Cash),
		f(e.HoldingsValue),
	})
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSV) Close() error {
	j.trades.Flush()
	j.equity.Flush()

	if err := j.trades.Error(); err != nil {
		return err
	}
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
