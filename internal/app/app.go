// Package app is the orchestration point: it provisions a browser,
// subscribes the response capture, runs the scroll loop and writes
// the report.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/UniqueRed/DoorDashScraping/internal/browser"
	"github.com/UniqueRed/DoorDashScraping/internal/logging"
	"github.com/UniqueRed/DoorDashScraping/internal/menu"
	"github.com/UniqueRed/DoorDashScraping/internal/output"
	"github.com/UniqueRed/DoorDashScraping/internal/provision"
)

type App struct {
	cfg Config
	log *zap.Logger
}

// New completes cfg with defaults, validates it and builds the logger.
func New(cfg Config) (*App, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	return &App{cfg: cfg, log: log}, nil
}

func NewFromYAML(path string) (*App, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

func (a *App) Logger() *zap.Logger { return a.log }

// Run scrapes the configured store and writes the report.
func (a *App) Run(ctx context.Context) error {
	defer func() { _ = a.log.Sync() }()

	catalog, err := a.Scrape(ctx, menu.NewCatalog())
	if err != nil {
		return err
	}

	format, _ := output.ParseFormat(a.cfg.Format)
	if err := output.Write(a.cfg.Out, format, catalog); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	a.log.Info("done", zap.Int("items", catalog.Len()), zap.String("out", a.cfg.Out))
	return nil
}

// Scrape fills catalog from the store page and returns it. The remote
// browser is released on every return path.
func (a *App) Scrape(ctx context.Context, catalog *menu.Catalog) (*menu.Catalog, error) {
	a.log.Info("starting menu scrape",
		zap.String("store", a.cfg.StoreURL),
		zap.String("provider", a.cfg.Provider),
		zap.String("mode", a.cfg.Mode))

	b, release, err := a.openBrowser(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	capture := browser.Subscribe(b.Context(), catalog, browser.CaptureOptions{
		EndpointPrefix: a.cfg.EndpointPrefix,
	}, a.log)
	defer capture.Close()

	page := b.Page(a.cfg.selectors())
	opts := a.cfg.loopOptions()
	if err := page.Goto(b.Context(), a.cfg.StoreURL, opts.SettleDelay); err != nil {
		return nil, err
	}

	st, err := browser.NewScraper(page, opts, a.log).Run(b.Context())
	capture.Close()

	cs := capture.Stats()
	a.log.Info("scroll loop finished",
		zap.Int("iterations", st.Iterations),
		zap.Int("clicked", st.Clicked),
		zap.Int("skipped", st.Skipped),
		zap.Int("no_id", st.NoID),
		zap.Int64("responses", cs.Matched),
		zap.Int64("rejected", cs.Rejected),
		zap.Int("items", catalog.Len()))

	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", a.cfg.StoreURL, err)
	}
	return catalog, nil
}

// openBrowser acquires a browser tab for the configured provider.
// The returned release func must be called exactly once.
func (a *App) openBrowser(ctx context.Context) (*browser.Browser, func(), error) {
	if a.cfg.Provider == ProviderLocal {
		b, err := browser.New(ctx, browser.Options{
			Headless: a.cfg.Headless,
			ExecPath: a.cfg.ChromePath,
		}, a.log)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	}

	key, err := a.cfg.APIKey()
	if err != nil {
		return nil, nil, err
	}

	prov := provision.NewClient(a.cfg.ProvisionURL, key, a.log)
	inst, err := prov.StartBrowser(ctx)
	if err != nil {
		return nil, nil, err
	}

	stop := func() {
		// ctx may be cancelled by now; the instance is billed until stopped.
		sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := prov.Stop(sctx, inst.ID); err != nil {
			a.log.Error("failed to stop remote browser", zap.String("instance", inst.ID), zap.Error(err))
		}
	}

	cdpURL, err := prov.CDPURL(ctx, inst.ID)
	if err != nil {
		stop()
		return nil, nil, err
	}

	b, err := browser.Connect(ctx, cdpURL, a.log)
	if err != nil {
		stop()
		return nil, nil, err
	}

	return b, func() {
		b.Close()
		stop()
	}, nil
}
