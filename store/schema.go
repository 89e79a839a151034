package store

// Schema is applied every time a store is opened.
//
// The id index is not UNIQUE. BulkInsert enforces uniqueness of id on
// its own, so tables created without the index behave the same.
const Schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id TEXT,
	category TEXT,
	name TEXT,
	quantity INTEGER,
	amount_excl_tax REAL,
	amount_inc_tax REAL,
	transaction_date TEXT
);

CREATE INDEX IF NOT EXISTS idx_transactions_id ON transactions(id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(transaction_date);
CREATE INDEX IF NOT EXISTS idx_transactions_name ON transactions(name, transaction_date);
`

const insertOrIgnore = `
	INSERT INTO transactions
	(id, category, name, quantity, amount_excl_tax, amount_inc_tax, transaction_date)
	SELECT ?, ?, ?, ?, ?, ?, ?
	WHERE NOT EXISTS (SELECT 1 FROM transactions WHERE id = ?)`
