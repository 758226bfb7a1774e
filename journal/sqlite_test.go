package journal

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	j, err := NewSQLite(path)
	require.NoError(t, err)

	return j, path
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	assert.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	assert.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name IN ('trades','equity')`)
	assert.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		assert.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	assert.NoError(t, rows.Err())

	assert.True(t, found["trades"])
	assert.True(t, found["equity"])
}

func TestSQLiteTradeRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	rec := TradeRecord{
		TradeID:    "T1",
		Date:       date,
		Ticker:     "MSFT",
		Action:     Sell,
		Shares:     12,
		Price:      402.75,
		GrossValue: 4833.0,
	}

	require.NoError(t, j.RecordTrade(rec))

	got, err := j.GetTrade("T1")
	require.NoError(t, err)
	assert.Equal(t, rec.Ticker, got.Ticker)
	assert.Equal(t, Sell, got.Action)
	assert.Equal(t, int64(12), got.Shares)
	assert.InDelta(t, 402.75, got.Price, 1e-9)
	assert.InDelta(t, 4833.0, got.GrossValue, 1e-9)
	assert.True(t, got.Date.Equal(date))

	_, err = j.GetTrade("NOPE")
	assert.Error(t, err)
}

func TestSQLiteEquityCurve(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	d1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 1, 0)

	require.NoError(t, j.RecordEquity(EquityPoint{Date: d2, TotalValue: 11000, Cash: 500, HoldingsValue: 10500}))
	require.NoError(t, j.RecordEquity(EquityPoint{Date: d1, TotalValue: 10000, Cash: 10000, HoldingsValue: 0}))

	curve, err := j.LoadEquityCurve()
	require.NoError(t, err)
	require.Len(t, curve, 2)

	// ascending regardless of insert order
	assert.True(t, curve[0].Date.Equal(d1))
	assert.True(t, curve[1].Date.Equal(d2))
	assert.InDelta(t, 10000.0, curve[0].TotalValue, 1e-9)
	assert.InDelta(t, 11000.0, curve[1].TotalValue, 1e-9)
}
