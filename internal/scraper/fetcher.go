// Package scraper fetches a careers page and reduces it to plain text.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/khrees2412/coldreach/internal/logger"
)

const (
	// maxBodyBytes limits page downloads to 2MB.
	maxBodyBytes = 2 << 20

	// minContentLength is the text length below which a page is assumed to
	// be rendered client-side.
	minContentLength = 500

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// FetchError reports a page that could not be fetched or had no usable text.
type FetchError struct {
	URL     string
	Message string
	Cause   error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// RenderFunc returns the HTML of url after client-side rendering.
type RenderFunc func(ctx context.Context, url string) (string, error)

// Fetcher downloads pages over HTTP, optionally falling back to a headless
// browser for pages whose HTML carries little text.
type Fetcher struct {
	client *http.Client
	render RenderFunc
	logger *zap.Logger
}

type Option func(*Fetcher)

// WithBrowserFallback renders thin pages with headless Chrome.
func WithBrowserFallback(timeout time.Duration) Option {
	return func(f *Fetcher) {
		f.render = func(ctx context.Context, url string) (string, error) {
			return renderPage(ctx, url, timeout, f.logger)
		}
	}
}

// WithRenderer sets a custom render function for thin pages.
func WithRenderer(render RenderFunc) Option {
	return func(f *Fetcher) {
		f.render = render
	}
}

func NewFetcher(client *http.Client, log *zap.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{client: client, logger: logger.OrNop(log)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the cleaned text of the page at rawURL. It fails with
// *FetchError when the URL is invalid or unreachable, or the page has no text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := validateURL(rawURL); err != nil {
		return "", &FetchError{URL: rawURL, Message: "invalid URL", Cause: err}
	}

	log := f.logger.With(zap.String(logger.FieldURL, rawURL))

	html, err := f.get(ctx, rawURL)
	if err != nil {
		return "", &FetchError{URL: rawURL, Message: "request failed", Cause: err}
	}

	text, err := ExtractText(html)
	if err != nil {
		return "", &FetchError{URL: rawURL, Message: "parse HTML", Cause: err}
	}

	if len(text) < minContentLength && f.render != nil {
		log.Debug("page text is short, rendering in browser", zap.Int("text_length", len(text)))
		rendered, err := f.render(ctx, rawURL)
		if err != nil {
			log.Warn("browser rendering failed, using static HTML", zap.Error(err))
		} else if renderedText, err := ExtractText(rendered); err == nil && len(renderedText) > len(text) {
			text = renderedText
		}
	}

	if text == "" {
		return "", &FetchError{URL: rawURL, Message: "no content"}
	}

	log.Debug("page fetched", zap.Int("text_length", len(text)))
	return text, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	// Some sites block the default Go user agent
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
