package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// DefaultCacheTTL is how long an extracted posting is reused.
const DefaultCacheTTL = 24 * time.Hour

// ErrNoRenderer is returned when a page needs rendering but no Renderer is set.
var ErrNoRenderer = errors.New("page content too short and no renderer configured")

// Document is the extracted text of a job posting.
type Document struct {
	URL       string
	Platform  Platform
	Text      string
	Rendered  bool
	FromCache bool
}

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	HTTP     *Options
	Renderer Renderer
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// Fetcher retrieves job postings, falling back to a renderer for script
// heavy pages, and caches the extracted text in memory.
type Fetcher struct {
	http     *Options
	renderer Renderer
	cache    *cache.Cache
	logger   *zap.Logger
}

// NewFetcher creates a Fetcher. A nil config uses defaults without a renderer.
func NewFetcher(cfg *FetcherConfig) *Fetcher {
	if cfg == nil {
		cfg = &FetcherConfig{}
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	httpOpts := cfg.HTTP
	if httpOpts == nil {
		httpOpts = DefaultOptions()
	}
	return &Fetcher{
		http:     httpOpts,
		renderer: cfg.Renderer,
		cache:    cache.New(ttl, ttl*2),
		logger:   logger,
	}
}

// Fetch returns the posting text for pageURL.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Document, error) {
	if cached, ok := f.cache.Get(pageURL); ok {
		doc := cached.(Document)
		doc.FromCache = true
		f.logger.Debug("posting served from cache", zap.String("url", pageURL))
		return &doc, nil
	}

	platform := DetectPlatform(pageURL)
	sel := platform.Selectors()

	doc := Document{URL: pageURL, Platform: platform}
	result, err := Page(ctx, pageURL, f.http)
	if err == nil {
		doc.Text, err = ExtractText(result.HTML, sel)
		if err != nil {
			return nil, err
		}
	} else if f.renderer == nil {
		return nil, err
	} else {
		f.logger.Debug("HTTP fetch failed, trying renderer", zap.String("url", pageURL), zap.Error(err))
	}

	if NeedsRender(doc.Text) {
		if f.renderer == nil {
			if doc.Text == "" {
				return nil, &Error{URL: pageURL, Message: "no content extracted", Cause: ErrNoRenderer}
			}
		} else {
			html, rerr := f.renderer.Render(ctx, pageURL)
			if rerr != nil {
				if doc.Text == "" {
					return nil, rerr
				}
				f.logger.Warn("render failed, using HTTP content", zap.String("url", pageURL), zap.Error(rerr))
			} else {
				text, xerr := ExtractText(html, sel)
				if xerr != nil {
					return nil, xerr
				}
				if len(text) > len(doc.Text) {
					doc.Text = text
					doc.Rendered = true
				}
			}
		}
	}

	f.cache.SetDefault(pageURL, doc)
	f.logger.Info("fetched posting",
		zap.String("url", pageURL),
		zap.String("platform", string(platform)),
		zap.Int("chars", len(doc.Text)),
		zap.Bool("rendered", doc.Rendered))
	return &doc, nil
}

// Invalidate drops any cached posting for pageURL.
func (f *Fetcher) Invalidate(pageURL string) {
	f.cache.Delete(pageURL)
}
