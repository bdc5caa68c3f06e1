package extract

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"goldrates-engine/internal/domain"
	"goldrates-engine/internal/scrapeerr"
)

// tableScan is what one matched table contributed.
type tableScan struct {
	dataRows int
	records  []domain.RateRecord
}

// Extract runs every shape of v over the page's tables. Per shape, scanning
// stops at the first table that yields records.
func Extract(doc *goquery.Document, v Variant, log *slog.Logger) (domain.Batch, *scrapeerr.Error) {
	if log == nil {
		log = slog.Default()
	}
	tables := doc.Find("table")
	log.Info("tables found", "site", v.Site(), "count", tables.Length())
	if tables.Length() == 0 {
		return domain.Batch{}, scrapeerr.New(scrapeerr.TableNotFound,
			"no tables on page", map[string]any{"tableCount": 0})
	}

	var (
		out        domain.Batch
		matched    = map[domain.TableType]int{}
		dataRows   int
		headerOnly int
	)

	for _, shape := range v.Shapes() {
		var recs []domain.RateRecord
		tables.EachWithBreak(func(i int, t *goquery.Selection) bool {
			if !shape.Match(t.Text()) {
				return true
			}
			matched[shape.Table]++
			scan := scanTable(t, shape, log.With("table", i, "shape", shape.Table))
			dataRows += scan.dataRows
			if scan.dataRows == 0 {
				headerOnly++
				log.Warn("matched table has no data rows", "table", i, "shape", shape.Table)
			}
			if len(scan.records) == 0 {
				return true
			}
			recs = scan.records
			return false
		})
		switch shape.Table {
		case domain.OurRates:
			out.OurRates = recs
		case domain.CustomerSell:
			out.CustomerSell = recs
		}
	}

	totalMatched := 0
	for _, n := range matched {
		totalMatched += n
	}
	details := map[string]any{"tableCount": tables.Length()}
	for tt, n := range matched {
		details["matched"+string(tt)] = n
	}

	switch {
	case totalMatched == 0:
		return domain.Batch{}, scrapeerr.New(scrapeerr.TableNotFound,
			fmt.Sprintf("no table on the %s page matched the expected headers", v.Site()), details)
	case !out.Empty():
		return out.Dedupe(), nil
	case headerOnly == totalMatched:
		return domain.Batch{}, scrapeerr.New(scrapeerr.DataStructure,
			"matched table(s) contain only header rows", details)
	default:
		details["dataRows"] = dataRows
		return domain.Batch{}, scrapeerr.New(scrapeerr.Extraction,
			"no rate values could be parsed from the matched table(s)", details)
	}
}

// ExtractHTML parses markup and extracts it with the variant for site.
func ExtractHTML(r io.Reader, site domain.Site, log *slog.Logger) (domain.Batch, *scrapeerr.Error) {
	v, err := For(site)
	if err != nil {
		return domain.Batch{}, scrapeerr.Newf(scrapeerr.Unknown, "%v", err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return domain.Batch{}, scrapeerr.Newf(scrapeerr.Unknown, "parse page: %v", err)
	}
	return Extract(doc, v, log)
}

func scanTable(t *goquery.Selection, shape Shape, log *slog.Logger) tableScan {
	var scan tableScan
	t.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i < shape.HeaderRows {
			return
		}
		cells := row.Find("td")
		label := ""
		if cells.Length() > 0 {
			label = CleanText(cells.First().Text())
		}
		if cells.Length() == 0 || shape.headerish(label) {
			return
		}
		scan.dataRows++

		if cells.Length() < shape.MinCells {
			log.Debug("row skipped: too few cells", "row", i, "cells", cells.Length())
			return
		}

		buyText := cells.Eq(1).Text()
		buy, kind := ParseAmount(buyText)
		if kind != AmountValue {
			log.Warn("row skipped: no buy value", "row", i, "label", label, "text", CleanText(buyText))
			return
		}

		rec := domain.RateRecord{WeBuy: buy}
		if shape.HasSell {
			sellText := cells.Eq(2).Text()
			v, kind := ParseAmount(sellText)
			switch kind {
			case AmountValue:
				rec.WeSell = &v
			case AmountInvalid:
				log.Warn("row skipped: unreadable sell value", "row", i, "label", label, "text", CleanText(sellText))
				return
			}
		}

		name, ok := shape.label(label)
		if !ok {
			log.Warn("row dropped: label not recognised", "row", i, "label", label)
			return
		}
		rec.DetailName = name
		scan.records = append(scan.records, rec)
		log.Debug("extracted", "detail", name, "buy", rec.WeBuy.String())
	})
	return scan
}
