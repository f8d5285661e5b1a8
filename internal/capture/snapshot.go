// Package capture renders site pages in headless Chromium and saves PNG
// previews, used for social share cards and visual checks after deploys.
package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// Default capture parameters. 1200x630 is the usual share-card size.
const (
	DefaultWidth      = 1200
	DefaultHeight     = 630
	DefaultTimeoutSec = 30
)

// readySelector matches the main element once the layout has rendered.
const readySelector = `[data-ready="true"]`

// Options defines one snapshot run.
type Options struct {
	// BaseURL is the site origin, e.g. "http://127.0.0.1:8080".
	BaseURL string

	// Paths are the pages to capture, e.g. "/", "/events/7".
	Paths []string

	// OutDir receives one PNG per path.
	OutDir string

	// Width and Height are the viewport in pixels. If zero, DefaultWidth /
	// DefaultHeight are used.
	Width  int
	Height int

	// FullPage captures the whole scrollable page instead of the viewport.
	FullPage bool

	// Timeout bounds each page. If zero, DefaultTimeoutSec is used.
	Timeout time.Duration
}

// Snapshot opens each path in its own tab of one headless Chromium, waits for the page
// to mark itself ready and writes a PNG into OutDir. It returns the files
// written; a failing page does not stop the others.
func Snapshot(parentCtx context.Context, opts Options) ([]string, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("capture: BaseURL is required")
	}
	if opts.OutDir == "" {
		return nil, errors.New("capture: OutDir is required")
	}
	if len(opts.Paths) == 0 {
		opts.Paths = []string{"/"}
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	// The browser belongs to ctx, so it is started here rather than under a
	// page timeout that would tear it down with the page.
	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()
	if err := chromedp.Run(ctx); err != nil {
		return nil, fmt.Errorf("capture: failed to start browser: %w", err)
	}

	var written []string
	var errs []error
	for _, p := range opts.Paths {
		target, err := pageURL(opts.BaseURL, p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		png, err := shoot(ctx, target, opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("capture %s: %w", p, err))
			continue
		}
		out := filepath.Join(opts.OutDir, FileName(p))
		if err := os.WriteFile(out, png, 0o644); err != nil {
			errs = append(errs, fmt.Errorf("capture: failed to write PNG: %w", err))
			continue
		}
		written = append(written, out)
	}
	return written, errors.Join(errs...)
}

// shoot captures target in a fresh tab of the browser owned by browserCtx.
func shoot(browserCtx context.Context, target string, opts Options) ([]byte, error) {
	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	ctx, cancel := context.WithTimeout(tabCtx, opts.Timeout)
	defer cancel()

	var png []byte
	shot := chromedp.CaptureScreenshot(&png)
	if opts.FullPage {
		shot = chromedp.FullScreenshot(&png, 100)
	}
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(target),
		chromedp.WaitVisible(readySelector, chromedp.ByQuery),
		// Let web fonts and lazy images paint.
		chromedp.Sleep(500 * time.Millisecond),
		shot,
	}
	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("chromedp run failed: %w", err)
	}
	return png, nil
}

func pageURL(base, p string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("capture: bad base URL %q", base)
	}
	ref, err := url.Parse(p)
	if err != nil {
		return "", fmt.Errorf("capture: bad path %q: %w", p, err)
	}
	return u.ResolveReference(ref).String(), nil
}

// FileName maps a site path to its PNG name: "/" is home.png and
// "/events/7" is events-7.png.
func FileName(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	name := strings.Trim(p, "/")
	if name == "" {
		return "home.png"
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
	return name + ".png"
}
