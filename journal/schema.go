package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	date DATETIME NOT NULL,
	ticker TEXT NOT NULL,
	action TEXT NOT NULL,
	shares INTEGER NOT NULL,
	price REAL NOT NULL,
	gross_value REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS equity (
	date DATETIME NOT NULL,
	total_value REAL NOT NULL,
	cash REAL NOT NULL,
	holdings_value REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(date);
CREATE INDEX IF NOT EXISTS idx_equity_date ON equity(date);
`
