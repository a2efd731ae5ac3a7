// Package browser drives a live host page in headless Chrome. It gives the engine the
// page's HTML, its sessionStorage, its pointer and mutation events and a place to inject
// the overlay.
package browser

import (
	"context"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"storformat/internal/errors"
	"storformat/internal/logging"
)

// Defaults
const (
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 900
	DefaultActionTimeout  = 10 * time.Second
)

// Evaluator runs JavaScript in the page and decodes the result into res
type Evaluator interface {
	Evaluate(ctx context.Context, expression string, res any) error
}

// Options configures a browser session
type Options struct {
	// ExecPath is the Chrome binary. Empty means detect, then let chromedp find one.
	ExecPath string

	// Headful shows the browser window
	Headful bool

	ViewportWidth  int
	ViewportHeight int

	// ActionTimeout bounds every round trip to the page
	ActionTimeout time.Duration
}

// Session is one browser tab
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	opts        Options
	log         *zap.Logger
}

// chromePaths are tried when CHROME_PATH is unset
var chromePaths = []string{
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/snap/bin/chromium",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
}

// DetectChromePath returns CHROME_PATH if it exists, else the first installed browser
// from a list of common locations, else ""
func DetectChromePath() string {
	if p := os.Getenv("CHROME_PATH"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range chromePaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// NewSession starts a browser. The session lives until Close or until ctx is done.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	if opts.ViewportWidth <= 0 {
		opts.ViewportWidth = DefaultViewportWidth
	}
	if opts.ViewportHeight <= 0 {
		opts.ViewportHeight = DefaultViewportHeight
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = DefaultActionTimeout
	}
	if opts.ExecPath == "" {
		opts.ExecPath = DetectChromePath()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.WindowSize(opts.ViewportWidth, opts.ViewportHeight),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.Headful {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}

	log := logging.Named("browser")
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithErrorf(log.Sugar().Debugf))

	// the first Run starts the browser
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		allocCancel()
		return nil, errors.Browser("start browser", err).WithContext("exec_path", opts.ExecPath)
	}
	log.Debug("browser started", zap.String("exec_path", opts.ExecPath))

	return &Session{ctx: tabCtx, cancel: cancel, allocCancel: allocCancel, opts: opts, log: log}, nil
}

// run executes actions on the tab, bounded by the action timeout and by ctx
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, s.opts.ActionTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url and waits for the body
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		return errors.Browser("navigate", err).WithContext("url", url)
	}
	return nil
}

// HTML returns the page's current document
func (s *Session) HTML(ctx context.Context) (string, error) {
	var markup string
	if err := s.run(ctx, chromedp.OuterHTML("html", &markup, chromedp.ByQuery)); err != nil {
		return "", errors.Browser("read page", err)
	}
	return markup, nil
}

// Location returns the page URL
func (s *Session) Location(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", errors.Browser("read location", err)
	}
	return loc, nil
}

// Evaluate implements Evaluator
func (s *Session) Evaluate(ctx context.Context, expression string, res any) error {
	if err := s.run(ctx, chromedp.Evaluate(expression, res)); err != nil {
		return errors.Browser("evaluate", err)
	}
	return nil
}

// Close shuts the tab and the browser down
func (s *Session) Close() error {
	s.cancel()
	s.allocCancel()
	return nil
}
