package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS fills (
	fill_id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	qty TEXT NOT NULL,
	price TEXT NOT NULL,
	commission TEXT NOT NULL,
	time DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS rejections (
	order_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	qty TEXT NOT NULL,
	kind TEXT NOT NULL,
	reason TEXT NOT NULL,
	time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fills_time ON fills(time);
CREATE INDEX IF NOT EXISTS idx_rejections_time ON rejections(time);
`

// SQLiteJournal appends audit rows to a SQLite database.
type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordFill(f FillRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO fills
		(fill_id, order_id, symbol, side, qty, price, commission, time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.FillID, f.OrderID, f.Symbol, string(f.Side),
		f.Qty.String(), f.Price.String(), f.Commission.String(), f.Time,
	)
	return err
}

func (j *SQLiteJournal) RecordRejection(r RejectionRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO rejections
		(order_id, symbol, side, qty, kind, reason, time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.OrderID, r.Symbol, string(r.Side),
		r.Qty.String(), string(r.Kind), r.Reason, r.Time,
	)
	return err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
