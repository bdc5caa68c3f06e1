package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"goldrates-engine/internal/domain"
	"goldrates-engine/internal/extract"
	"goldrates-engine/internal/scrapeerr"
)

const (
	DefaultNavigationTimeout = 30 * time.Second
	DefaultPostLoadWait      = 5 * time.Second
)

// Request is the decoded positional argument vector of a render run:
// site, target, navigation timeout (ms), post-navigation wait (ms).
type Request struct {
	Site       domain.Site
	Target     string
	Navigation time.Duration
	Wait       time.Duration
}

func ParseArgs(args []string) (Request, error) {
	if len(args) < 2 {
		return Request{}, errors.New("usage: render <site> <url|file> [navigationTimeoutMs] [waitAfterNavigationMs]")
	}
	site, err := domain.ParseSite(args[0])
	if err != nil {
		return Request{}, err
	}
	nav, wait, err := parseTimings(args[2:])
	if err != nil {
		return Request{}, err
	}
	return Request{Site: site, Target: strings.TrimSpace(args[1]), Navigation: nav, Wait: wait}, nil
}

// parseTimings reads the optional navigation timeout and post-navigation
// wait, both in milliseconds.
func parseTimings(args []string) (nav, wait time.Duration, err error) {
	nav, wait = DefaultNavigationTimeout, DefaultPostLoadWait
	if len(args) > 0 {
		if nav, err = parseMillis(args[0]); err != nil {
			return 0, 0, fmt.Errorf("navigation timeout: %w", err)
		}
	}
	if len(args) > 1 {
		if wait, err = parseMillis(args[1]); err != nil {
			return 0, 0, fmt.Errorf("post-navigation wait: %w", err)
		}
	}
	return nav, wait, nil
}

func parseMillis(s string) (time.Duration, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative duration %d", n)
	}
	return time.Duration(n) * time.Millisecond, nil
}

// Run performs one render: fetch, extract, print. It returns the process
// exit code. Failures are reported as a single sentinel line on stderr.
func Run(ctx context.Context, args []string, f Fetcher, stdout, stderr io.Writer) int {
	log := slog.New(slog.NewTextHandler(stderr, nil)).With("component", "render")

	req, err := ParseArgs(args)
	if err != nil {
		return fail(stderr, scrapeerr.Newf(scrapeerr.Unknown, "%v", err))
	}

	log.Info("loading page", "site", req.Site, "target", req.Target,
		"navigation_timeout", req.Navigation, "wait", req.Wait)
	html, err := Load(ctx, f, req.Target, req.Navigation, req.Wait)
	if err != nil {
		return fail(stderr, asScrapeErr(err))
	}

	batch, serr := extract.ExtractHTML(strings.NewReader(html), req.Site, log)
	if serr != nil {
		return fail(stderr, serr)
	}
	log.Info("extracted", "our_rates", len(batch.OurRates), "customer_sell", len(batch.CustomerSell))

	if batch.OurRates == nil {
		batch.OurRates = []domain.RateRecord{}
	}
	if batch.CustomerSell == nil {
		batch.CustomerSell = []domain.RateRecord{}
	}
	var out any = batch
	if !req.Site.Composite() {
		out = batch.OurRates
	}
	if err := json.NewEncoder(stdout).Encode(out); err != nil {
		return fail(stderr, scrapeerr.Newf(scrapeerr.Unknown, "write result: %v", err))
	}
	return 0
}

func fail(stderr io.Writer, e *scrapeerr.Error) int {
	_ = scrapeerr.Emit(stderr, e)
	return 1
}

func asScrapeErr(err error) *scrapeerr.Error {
	var se *scrapeerr.Error
	if errors.As(err, &se) {
		return se
	}
	return scrapeerr.Newf(scrapeerr.Unknown, "%v", err)
}
