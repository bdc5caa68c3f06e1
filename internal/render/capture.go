package render

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"goldrates-engine/internal/domain"
	"goldrates-engine/internal/extract"
	"goldrates-engine/internal/scrapeerr"
)

// CaptureSummary is printed on stdout after a capture run.
type CaptureSummary struct {
	Success         bool   `json:"success"`
	FilePath        string `json:"filePath,omitempty"`
	TableCount      int    `json:"tableCount"`
	FoundRatesTable bool   `json:"foundRatesTable"`
	Error           string `json:"error,omitempty"`
}

// Capture fetches a page and stores its markup for later replay through
// Run. args: url, output file, navigation timeout (ms), wait (ms).
func Capture(ctx context.Context, args []string, f Fetcher, stdout, stderr io.Writer) int {
	log := slog.New(slog.NewTextHandler(stderr, nil)).With("component", "capture")
	enc := json.NewEncoder(stdout)

	if len(args) < 2 {
		e := scrapeerr.Newf(scrapeerr.Unknown, "usage: capture <url> <outputFile> [navigationTimeoutMs] [waitAfterNavigationMs]")
		_ = enc.Encode(CaptureSummary{Error: e.Message})
		return fail(stderr, e)
	}
	target, path := args[0], args[1]
	nav, wait, err := parseTimings(args[2:])
	if err != nil {
		e := scrapeerr.Newf(scrapeerr.Unknown, "%v", err)
		_ = enc.Encode(CaptureSummary{Error: e.Message})
		return fail(stderr, e)
	}

	log.Info("capturing page", "url", target, "file", path)
	html, err := f.Fetch(ctx, target, nav, wait)
	if err != nil {
		e := asScrapeErr(err)
		_ = enc.Encode(CaptureSummary{Error: e.Message})
		return fail(stderr, e)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			e := scrapeerr.Newf(scrapeerr.Unknown, "create output dir: %v", err)
			_ = enc.Encode(CaptureSummary{Error: e.Message})
			return fail(stderr, e)
		}
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		e := scrapeerr.Newf(scrapeerr.Unknown, "write %s: %v", path, err)
		_ = enc.Encode(CaptureSummary{Error: e.Message})
		return fail(stderr, e)
	}

	sum, err := Summarize(html)
	if err != nil {
		log.Warn("captured markup did not parse", "err", err)
	}
	sum.Success = true
	sum.FilePath = path
	log.Info("capture written", "tables", sum.TableCount, "rates_table", sum.FoundRatesTable)
	_ = enc.Encode(sum)
	return 0
}

// Summarize counts tables and reports whether any known vendor shape
// matches one of them.
func Summarize(html string) (CaptureSummary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return CaptureSummary{}, err
	}
	var sum CaptureSummary
	tables := doc.Find("table")
	sum.TableCount = tables.Length()
	tables.EachWithBreak(func(_ int, t *goquery.Selection) bool {
		text := t.Text()
		for _, site := range domain.Sites {
			v, err := extract.For(site)
			if err != nil {
				continue
			}
			for _, sh := range v.Shapes() {
				if sh.Match(text) {
					sum.FoundRatesTable = true
					return false
				}
			}
		}
		return true
	})
	if sum.TableCount == 0 {
		return sum, errors.New("no tables in captured markup")
	}
	return sum, nil
}
