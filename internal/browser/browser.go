// Package browser owns everything that talks to Chrome over CDP:
// the session (local or remote), the page actions used by the
// scroll/click loop, and the network response capture.
//
// All chromedp usage is kept here so the menu model and the output
// writers do not depend on the browser implementation.
package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Options configures a locally launched Chrome.
type Options struct {
	Headless  bool   // run without a window
	ExecPath  string // Chrome binary, empty for chromedp's lookup
	UserAgent string // empty keeps Chrome's default
}

type Browser struct {
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

// New launches a local Chrome and opens a tab in it.
func New(ctx context.Context, opts Options, log *zap.Logger) (*Browser, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	return open(allocCtx, allocCancel, log)
}

// Connect attaches to an already running browser through its
// remote-debugging websocket URL and opens a new tab in it.
func Connect(ctx context.Context, cdpURL string, log *zap.Logger) (*Browser, error) {
	if cdpURL == "" {
		return nil, errors.New("browser: empty cdp url")
	}
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, cdpURL, chromedp.NoModifyURL)
	return open(allocCtx, allocCancel, log)
}

func open(allocCtx context.Context, allocCancel context.CancelFunc, log *zap.Logger) (*Browser, error) {
	ctx, cancel := chromedp.NewContext(allocCtx)

	// First Run starts the tab; the Network domain is needed by the capture.
	if err := chromedp.Run(ctx, network.Enable()); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("browser: open tab: %w", err)
	}

	return &Browser{
		ctx: ctx,
		cancel: func() {
			cancel()
			allocCancel()
		},
		log: log,
	}, nil
}

// Context is the chromedp context of the tab. Every page action
// must run on it or a context derived from it.
func (b *Browser) Context() context.Context { return b.ctx }

// Close closes the tab and releases the allocator.
func (b *Browser) Close() {
	b.cancel()
	b.log.Debug("browser closed")
}

// Page returns the page actions bound to this tab.
func (b *Browser) Page(sel Selectors) *ChromePage {
	return &ChromePage{sel: sel, log: b.log}
}
