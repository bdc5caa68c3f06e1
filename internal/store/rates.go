package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"goldrates-engine/internal/domain"
)

// RateRow is a RateRecord with its storage key.
type RateRow struct {
	Company    string           `json:"company"`
	TableType  domain.TableType `json:"tableType"`
	DetailName string           `json:"detailName"`
	WeBuy      decimal.Decimal  `json:"weBuy"`
	WeSell     *decimal.Decimal `json:"weSell"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

func (r RateRow) updatedAt() time.Time {
	if r.UpdatedAt.IsZero() {
		return time.Now()
	}
	return r.UpdatedAt
}

func (r *RateRow) fill(tableType, buy, sell string, hasSell bool) error {
	tt, err := domain.ParseTableType(tableType)
	if err != nil {
		return err
	}
	r.TableType = tt
	if r.WeBuy, err = decimal.NewFromString(buy); err != nil {
		return fmt.Errorf("stored we_buy %q: %w", buy, err)
	}
	r.WeSell = nil
	if hasSell {
		d, err := decimal.NewFromString(sell)
		if err != nil {
			return fmt.Errorf("stored we_sell %q: %w", sell, err)
		}
		r.WeSell = &d
	}
	return nil
}

func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

// RateStore is the persistence surface a cycle needs.
type RateStore interface {
	UpsertRate(ctx context.Context, r RateRow) error
	ListRates(ctx context.Context, company string) ([]RateRow, error)
	Close() error
}

type SaveReport struct {
	Saved  int
	Failed int
}

// Save upserts every record of b under company, one row at a time. A failed
// row is reported and skipped; rows already written stay written.
func Save(ctx context.Context, s RateStore, company string, b domain.Batch, log *slog.Logger) (SaveReport, error) {
	if log == nil {
		log = slog.Default()
	}
	var (
		rep  SaveReport
		errs []error
		now  = time.Now().UTC()
	)
	for _, tbl := range b.Tables() {
		for _, rec := range tbl.Records {
			row := RateRow{
				Company:    company,
				TableType:  tbl.Type,
				DetailName: rec.DetailName,
				WeBuy:      rec.WeBuy,
				UpdatedAt:  now,
			}
			if tbl.Type == domain.OurRates {
				row.WeSell = rec.WeSell
			}
			if err := s.UpsertRate(ctx, row); err != nil {
				rep.Failed++
				errs = append(errs, err)
				log.Error("rate not saved", "company", company, "table", tbl.Type, "detail", rec.DetailName, "err", err)
				continue
			}
			rep.Saved++
		}
	}
	if len(errs) > 0 {
		return rep, fmt.Errorf("%d of %d rates not saved: %w", rep.Failed, rep.Saved+rep.Failed, errors.Join(errs...))
	}
	return rep, nil
}
