package store

import (
	"context"
	"database/sql"
)

// Migrate brings the SQLite schema up to date, tracked by PRAGMA user_version.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS gold_rates (
  company_name TEXT NOT NULL,
  table_type TEXT NOT NULL CHECK (table_type IN ('OurRates', 'CustomerSell')),
  detail_name TEXT NOT NULL,
  we_buy TEXT NOT NULL,
  we_sell TEXT,
  updated_at TEXT NOT NULL,
  UNIQUE (company_name, table_type, detail_name)
);
`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS idx_gold_rates_updated
ON gold_rates(updated_at);
`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return tx.Commit()
}
