// Package fetch downloads job-posting pages and reduces them to plain text
// suitable for building a search query.
package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for page requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; RecruitAgent/1.0)"

// MaxPageBytes caps how much of a page body is read.
const MaxPageBytes = 5 << 20

// Result holds a fetched page.
type Result struct {
	URL         string
	HTML        string
	ContentType string
	StatusCode  int
}

// Error represents an error while fetching a page.
type Error struct {
	URL        string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Options configures page fetching.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	Client    *http.Client
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// Page retrieves the HTML of a page. A non-200 status returns the partial
// result together with an *Error.
func Page(ctx context.Context, pageURL string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if err := validateURL(pageURL); err != nil {
		return nil, err
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &Error{URL: pageURL, Message: "failed to create request", Cause: err}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &Error{URL: pageURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageBytes))
	if err != nil {
		return nil, &Error{URL: pageURL, StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}

	result := &Result{
		URL:         pageURL,
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	if resp.StatusCode != http.StatusOK {
		return result, &Error{URL: pageURL, StatusCode: resp.StatusCode, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	if !isHTML(result.ContentType) {
		return result, &Error{URL: pageURL, StatusCode: resp.StatusCode, Message: fmt.Sprintf("unsupported content type %q", result.ContentType)}
	}

	return result, nil
}

func validateURL(pageURL string) error {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return &Error{URL: pageURL, Message: "invalid URL", Cause: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &Error{URL: pageURL, Message: "invalid URL: scheme must be http or https"}
	}
	return nil
}

// isHTML accepts HTML and plain text; an empty content type is accepted too.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml", "text/plain":
		return true
	}
	return false
}

// Selectors chooses which part of a page holds the content.
type Selectors struct {
	// Content is tried in order; the first match wins, else <body>.
	Content []string
	// Noise is removed before extraction.
	Noise []string
}

// boilerplate is removed from every page.
const boilerplate = "nav, footer, header, script, style, noscript, iframe, svg, .ad, .ads, .advertisement, .sidebar, .cookie-banner, .popup"

// ExtractText parses HTML and returns the main text, one non-empty line per block.
func ExtractText(html string, sel Selectors) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(boilerplate).Remove()
	if len(sel.Noise) > 0 {
		doc.Find(strings.Join(sel.Noise, ", ")).Remove()
	}

	content := doc.Find("body")
	for _, selector := range sel.Content {
		if match := doc.Find(selector); match.Length() > 0 {
			content = match.First()
			break
		}
	}

	// Separate block elements so their text does not run together.
	content.Find("p, li, h1, h2, h3, h4, h5, h6, div, br, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return collapseLines(content.Text()), nil
}

// JobPostingSelectors returns selectors for generic job board pages.
func JobPostingSelectors() []string {
	return []string{
		".job-description",
		"#job-description",
		".job-details",
		".posting-content",
		"[data-testid='job-description']",
		"[itemprop='description']",
		"main",
		"article",
		"#content",
	}
}

// collapseLines trims every line and drops empty ones.
func collapseLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
