package portfolio

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/montewalk/quant/trading"
)

// Store is the durable home of the portfolio. Load reports absence
// via the bool so the caller can seed a default portfolio.
type Store interface {
	Load(ctx context.Context) (*trading.Portfolio, bool, error)
	Save(ctx context.Context, pf *trading.Portfolio) error
	Close() error
}

// Money columns are stored as TEXT so decimal values round-trip
// exactly; REAL columns would silently corrupt them.
const schema = `
CREATE TABLE IF NOT EXISTS portfolio (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	cash TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
	symbol TEXT PRIMARY KEY,
	qty TEXT NOT NULL,
	avg_price TEXT NOT NULL
);
`

// SQLiteStore persists the portfolio in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*trading.Portfolio, bool, error) {
	var cashStr string
	err := s.db.QueryRowContext(ctx, `SELECT cash FROM portfolio WHERE id = 1`).Scan(&cashStr)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load portfolio: %w", err)
	}

	cash, err := decimal.NewFromString(cashStr)
	if err != nil {
		return nil, false, fmt.Errorf("load portfolio: bad cash %q: %w", cashStr, err)
	}

	pf := trading.NewPortfolio(cash)

	rows, err := s.db.QueryContext(ctx, `SELECT symbol, qty, avg_price FROM positions`)
	if err != nil {
		return nil, false, fmt.Errorf("load positions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var symbol, qtyStr, avgStr string
		if err := rows.Scan(&symbol, &qtyStr, &avgStr); err != nil {
			return nil, false, fmt.Errorf("scan position: %w", err)
		}
		qty, err := decimal.NewFromString(qtyStr)
		if err != nil {
			return nil, false, fmt.Errorf("bad qty for %s: %w", symbol, err)
		}
		avg, err := decimal.NewFromString(avgStr)
		if err != nil {
			return nil, false, fmt.Errorf("bad avg_price for %s: %w", symbol, err)
		}
		pf.Positions[symbol] = trading.Position{Symbol: symbol, Qty: qty, AvgPrice: avg}
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("load positions: %w", err)
	}

	return pf, true, nil
}

// Save writes the whole portfolio in a single transaction; either the
// complete new state lands or nothing does.
func (s *SQLiteStore) Save(ctx context.Context, pf *trading.Portfolio) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save portfolio: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO portfolio (id, cash) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET cash = excluded.cash`,
		pf.Cash.String(),
	); err != nil {
		return fmt.Errorf("save cash: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM positions`); err != nil {
		return fmt.Errorf("clear positions: %w", err)
	}

	for symbol, pos := range pf.Positions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO positions (symbol, qty, avg_price) VALUES (?, ?, ?)`,
			symbol, pos.Qty.String(), pos.AvgPrice.String(),
		); err != nil {
			return fmt.Errorf("save position %s: %w", symbol, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
