package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"goldrates-engine/internal/scrapeerr"
)

// Fetcher returns the rendered markup of a page.
type Fetcher interface {
	Fetch(ctx context.Context, target string, nav, wait time.Duration) (string, error)
}

// NewFetcher picks a fetcher by name: "chrome" (default) or "http".
func NewFetcher(name string) (Fetcher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "chrome":
		return ChromeFetcher{}, nil
	case "http":
		return HTTPFetcher{}, nil
	}
	return nil, fmt.Errorf("unknown fetcher %q (want chrome or http)", name)
}

// isLocal reports whether target names a file instead of a web page.
func isLocal(target string) (string, bool) {
	if p, ok := strings.CutPrefix(target, "file://"); ok {
		return p, true
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return target, true
	}
	return "", false
}

// Load reads local files directly and hands everything else to f.
func Load(ctx context.Context, f Fetcher, target string, nav, wait time.Duration) (string, error) {
	if path, ok := isLocal(target); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", scrapeerr.New(scrapeerr.Navigation,
				fmt.Sprintf("failed to read %s", path), map[string]any{"originalError": err.Error()})
		}
		return string(b), nil
	}
	return f.Fetch(ctx, target, nav, wait)
}

// ChromeFetcher drives a headless Chrome through chromedp.
type ChromeFetcher struct {
	ExecPath string
}

func (c ChromeFetcher) Fetch(ctx context.Context, target string, nav, wait time.Duration) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if c.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.ExecPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := chromedp.Run(bctx); err != nil {
		return "", scrapeerr.New(scrapeerr.Unknown, "failed to start browser",
			map[string]any{"originalError": err.Error()})
	}

	navCtx, cancelNav := context.WithTimeout(bctx, nav)
	err := chromedp.Run(navCtx, chromedp.Navigate(target))
	cancelNav()
	if err != nil {
		return "", classifyChrome(target, err)
	}

	var html string
	if err := chromedp.Run(bctx,
		chromedp.Sleep(wait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", scrapeerr.New(scrapeerr.Unknown, "failed to read page content",
			map[string]any{"originalError": err.Error()})
	}
	return html, nil
}

var chromeNetworkErrors = []string{
	"net::ERR_NAME_NOT_RESOLVED",
	"net::ERR_INTERNET_DISCONNECTED",
	"net::ERR_CONNECTION_REFUSED",
	"net::ERR_CONNECTION_RESET",
	"net::ERR_ADDRESS_UNREACHABLE",
	"net::ERR_PROXY_CONNECTION_FAILED",
}

func classifyChrome(target string, err error) *scrapeerr.Error {
	msg := err.Error()
	typ := scrapeerr.Navigation
	for _, s := range chromeNetworkErrors {
		if strings.Contains(msg, s) {
			typ = scrapeerr.Network
			break
		}
	}
	return scrapeerr.New(typ, fmt.Sprintf("failed to load %s", target),
		map[string]any{"originalError": msg})
}

// HTTPFetcher does a plain GET. It suits pages whose tables are present in
// the served markup.
type HTTPFetcher struct {
	Client *http.Client
}

func (h HTTPFetcher) Fetch(ctx context.Context, target string, nav, _ time.Duration) (string, error) {
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: nav}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", scrapeerr.New(scrapeerr.Navigation, fmt.Sprintf("bad url %s", target),
			map[string]any{"originalError": err.Error()})
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; goldrates-engine)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return "", classifyHTTP(target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", scrapeerr.New(scrapeerr.Navigation,
			fmt.Sprintf("failed to load %s: %s", target, resp.Status),
			map[string]any{"status": resp.StatusCode})
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", scrapeerr.New(scrapeerr.Network, "failed to read response body",
			map[string]any{"originalError": err.Error()})
	}
	return string(b), nil
}

func classifyHTTP(target string, err error) *scrapeerr.Error {
	details := map[string]any{"originalError": err.Error()}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return scrapeerr.New(scrapeerr.Navigation, fmt.Sprintf("timed out loading %s", target), details)
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return scrapeerr.New(scrapeerr.Network, fmt.Sprintf("network error loading %s", target), details)
	}
	return scrapeerr.New(scrapeerr.Navigation, fmt.Sprintf("failed to load %s", target), details)
}
