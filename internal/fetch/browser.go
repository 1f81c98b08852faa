package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// MinContentLength is the shortest extracted text accepted from a plain
// HTTP fetch before falling back to a headless browser.
const MinContentLength = 500

// NeedsRender reports whether extracted text is too short to be the real
// posting, which usually means the page is rendered client side.
func NeedsRender(text string) bool {
	return len(strings.TrimSpace(text)) < MinContentLength
}

// Renderer returns the HTML of a page after scripts have run.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// ChromeRenderer renders pages with a headless Chrome via chromedp.
// Chrome or Chromium must be installed.
type ChromeRenderer struct {
	Timeout time.Duration
	// Settle is how long to wait after the body is ready.
	Settle time.Duration
	Logger *zap.Logger
}

// NewChromeRenderer returns a renderer with default timings.
func NewChromeRenderer(logger *zap.Logger) *ChromeRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChromeRenderer{Timeout: DefaultTimeout, Settle: 3 * time.Second, Logger: logger}
}

// Render implements Renderer.
func (r *ChromeRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("rendering page in headless browser", zap.String("url", pageURL))

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	browserCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(r.Settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", &Error{URL: pageURL, Message: "browser rendering failed", Cause: err}
	}

	logger.Debug("rendered page", zap.String("url", pageURL), zap.Int("bytes", len(html)))
	return html, nil
}

var _ Renderer = (*ChromeRenderer)(nil)

