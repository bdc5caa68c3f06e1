package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores rates in a shared server database.
type Postgres struct {
	Pool *pgxpool.Pool
}

// OpenPostgres connects and ensures the schema. A non-empty password
// overrides whatever the DSN carries.
func OpenPostgres(ctx context.Context, dsn, password string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if password != "" {
		cfg.ConnConfig.Password = password
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if _, err := pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gold_rates (
  company_name TEXT NOT NULL,
  table_type TEXT NOT NULL CHECK (table_type IN ('OurRates', 'CustomerSell')),
  detail_name TEXT NOT NULL,
  we_buy NUMERIC(18,4) NOT NULL,
  we_sell NUMERIC(18,4),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (company_name, table_type, detail_name)
);`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create gold_rates: %w", err)
	}
	return &Postgres{Pool: pool}, nil
}

func (p *Postgres) Close() error {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
	return nil
}

func (p *Postgres) UpsertRate(ctx context.Context, r RateRow) error {
	_, err := p.Pool.Exec(ctx, `
INSERT INTO gold_rates(company_name, table_type, detail_name, we_buy, we_sell, updated_at)
VALUES($1, $2, $3, $4::numeric, $5::numeric, $6)
ON CONFLICT (company_name, table_type, detail_name) DO UPDATE SET
  we_buy = EXCLUDED.we_buy,
  we_sell = EXCLUDED.we_sell,
  updated_at = EXCLUDED.updated_at
WHERE gold_rates.we_buy IS DISTINCT FROM EXCLUDED.we_buy
   OR gold_rates.we_sell IS DISTINCT FROM EXCLUDED.we_sell`,
		r.Company, string(r.TableType), r.DetailName, r.WeBuy.String(), nullableDecimal(r.WeSell), r.updatedAt())
	if err != nil {
		return fmt.Errorf("upsert rate %s/%s/%s: %w", r.Company, r.TableType, r.DetailName, err)
	}
	return nil
}

func (p *Postgres) ListRates(ctx context.Context, company string) ([]RateRow, error) {
	rows, err := p.Pool.Query(ctx, `
SELECT company_name, table_type, detail_name, we_buy::text, we_sell::text, updated_at
FROM gold_rates
WHERE $1 = '' OR company_name = $1
ORDER BY company_name, table_type, detail_name`, company)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (RateRow, error) {
		var (
			r       RateRow
			tt, buy string
			sell    sql.NullString
		)
		if err := row.Scan(&r.Company, &tt, &r.DetailName, &buy, &sell, &r.UpdatedAt); err != nil {
			return RateRow{}, err
		}
		err := r.fill(tt, buy, sell.String, sell.Valid)
		return r, err
	})
}
