package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is the default single-file rate store.
type SQLite struct {
	Pool *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	pool.SetMaxOpenConns(1) // one writer
	pool.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.PingContext(pingCtx); err != nil {
		_ = pool.Close()
		return nil, err
	}
	if err := Migrate(ctx, pool); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{Pool: pool}, nil
}

func (d *SQLite) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Close()
}

// UpsertRate writes one row keyed by (company, table type, detail name).
// Re-writing identical values leaves the stored row untouched.
func (d *SQLite) UpsertRate(ctx context.Context, r RateRow) error {
	_, err := d.Pool.ExecContext(ctx, `
INSERT INTO gold_rates(company_name, table_type, detail_name, we_buy, we_sell, updated_at)
VALUES(?,?,?,?,?,?)
ON CONFLICT(company_name, table_type, detail_name) DO UPDATE SET
  we_buy = excluded.we_buy,
  we_sell = excluded.we_sell,
  updated_at = excluded.updated_at
WHERE gold_rates.we_buy IS NOT excluded.we_buy
   OR gold_rates.we_sell IS NOT excluded.we_sell;
`, r.Company, string(r.TableType), r.DetailName, r.WeBuy.String(), nullableDecimal(r.WeSell),
		r.updatedAt().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert rate %s/%s/%s: %w", r.Company, r.TableType, r.DetailName, err)
	}
	return nil
}

func (d *SQLite) ListRates(ctx context.Context, company string) ([]RateRow, error) {
	rows, err := d.Pool.QueryContext(ctx, `
SELECT company_name, table_type, detail_name, we_buy, we_sell, updated_at
FROM gold_rates
WHERE ? = '' OR company_name = ?
ORDER BY company_name, table_type, detail_name;
`, company, company)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RateRow
	for rows.Next() {
		var (
			r         RateRow
			tt, buy   string
			sell      sql.NullString
			updatedAt string
		)
		if err := rows.Scan(&r.Company, &tt, &r.DetailName, &buy, &sell, &updatedAt); err != nil {
			return nil, err
		}
		if err := r.fill(tt, buy, sell.String, sell.Valid); err != nil {
			return nil, err
		}
		r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}
