package craigslist

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"gr-rentals/utils"
)

// fetchRawJS re-requests the current page from inside the browser so the
// response body comes back as raw XML instead of Chrome's rendered tree.
const fetchRawJS = `fetch(location.href, {credentials: 'include'}).then(function (r) {
	if (!r.ok) { throw new Error('status ' + r.status); }
	return r.text();
})`

// BrowserFetcher loads the feed through headless Chrome, for hosts that
// turn away plain HTTP clients.
type BrowserFetcher struct {
	timeout   time.Duration
	userAgent string
	chromeBin string
	logger    *utils.Logger
}

func NewBrowserFetcher(timeout time.Duration, userAgent, chromeBin string, logger *utils.Logger) *BrowserFetcher {
	return &BrowserFetcher{timeout: timeout, userAgent: userAgent, chromeBin: chromeBin, logger: logger}
}

func (b *BrowserFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	chromeBin := findChromeBinary(b.chromeBin)
	b.logger.Info("[craigslist] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(b.userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	taskCtx, cancelTask := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelTask()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, b.timeout)
	defer cancelTimeout()

	var body string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.Evaluate(fetchRawJS, &body, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: browser GET %s: %v", utils.ErrFetch, url, err)
	}
	return []byte(body), nil
}

// findChromeBinary locates Chrome/Chromium; configured wins.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
