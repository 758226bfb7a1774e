package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTradesBetween(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	base := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	mk := func(id string, offsetMonths int, action Action) TradeRecord {
		return TradeRecord{
			TradeID:    id,
			Date:       base.AddDate(0, offsetMonths, 0),
			Ticker:     "AAPL",
			Action:     action,
			Shares:     10,
			Price:      100,
			GrossValue: 1000,
		}
	}

	require.NoError(t, j.RecordTrade(mk("T1", 0, Buy)))
	require.NoError(t, j.RecordTrade(mk("T2", 1, Sell)))
	require.NoError(t, j.RecordTrade(mk("T3", 2, Buy)))

	t.Run("window covers subset", func(t *testing.T) {
		recs, err := j.ListTradesBetween(base, base.AddDate(0, 2, 0))
		require.NoError(t, err)
		require.Len(t, recs, 2, "end of window is exclusive")
		assert.Equal(t, "T1", recs[0].TradeID)
		assert.Equal(t, "T2", recs[1].TradeID)
	})

	t.Run("window covers all", func(t *testing.T) {
		recs, err := j.ListTradesBetween(base, base.AddDate(1, 0, 0))
		require.NoError(t, err)
		assert.Len(t, recs, 3)
	})

	t.Run("empty window", func(t *testing.T) {
		recs, err := j.ListTradesBetween(base.AddDate(-1, 0, 0), base)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})
}

func TestMemoryJournal(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	require.NoError(t, m.RecordTrade(TradeRecord{TradeID: "T1"}))
	require.NoError(t, m.RecordEquity(EquityPoint{TotalValue: 5}))
	require.NoError(t, m.Close())

	assert.Len(t, m.Trades, 1)
	assert.Len(t, m.Equity, 1)
}
