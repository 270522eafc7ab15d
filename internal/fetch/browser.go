package fetch

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// MinContentLength is the minimum extracted text length to consider HTTP fetch successful.
// If content is shorter, we should fall back to browser rendering.
const MinContentLength = 500

// DefaultBrowserTimeout bounds a single headless render
const DefaultBrowserTimeout = 30 * time.Second

// ShouldUseBrowser returns true if the extracted text is too short,
// indicating the page is likely a JavaScript-rendered SPA.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// WithBrowser renders a page in a headless browser and returns the rendered HTML.
// Requires Chrome/Chromium to be installed on the system.
func WithBrowser(ctx context.Context, url string, timeout time.Duration, verbose bool) (string, error) {
	if verbose {
		log.Printf("[BROWSER] Starting headless browser for: %s", url)
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// give client-side rendering a moment
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", &Error{URL: url, Message: "browser rendering failed", Cause: err}
	}

	if verbose {
		log.Printf("[BROWSER] Rendered HTML: %d bytes", len(html))
	}

	return html, nil
}

// PageText fetches url over HTTP and, when allowed and the page looks like
// an SPA shell, re-renders it in a headless browser. Browser failures fall
// back to the HTTP text.
func PageText(ctx context.Context, url string, opts *Options, useBrowser, verbose bool) (string, error) {
	result, err := URL(ctx, url, opts)
	if err != nil {
		return "", err
	}
	text := result.Text

	if !useBrowser || !ShouldUseBrowser(text) {
		return text, nil
	}

	if verbose {
		log.Printf("[VERBOSE] Content too short (%d chars < %d), falling back to browser rendering...",
			len(text), MinContentLength)
	}
	html, err := WithBrowser(ctx, url, DefaultBrowserTimeout, verbose)
	if err != nil {
		log.Printf("[WARN] %v, using HTTP content", err)
		return text, nil
	}

	rendered, err := ExtractText(html)
	if err != nil {
		log.Printf("[WARN] browser content extraction failed: %v", err)
		return text, nil
	}
	return rendered, nil
}
