package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"go.uber.org/zap"
)

// Mode selects how the loop decides it has reached the end of the menu.
type Mode string

const (
	// ModeCount only scrolls, and stops once the visible item count
	// has not grown for StableThreshold iterations.
	ModeCount Mode = "count"
	// ModeClick clicks every unseen item and stops once the viewport
	// reaches the bottom of the document.
	ModeClick Mode = "click"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCount, ModeClick:
		return Mode(s), nil
	case "":
		return ModeClick, nil
	}
	return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeCount, ModeClick)
}

type LoopOptions struct {
	Mode            Mode
	StableThreshold int           // count mode: unchanged iterations before stopping
	ScrollFraction  float64       // share of the viewport advanced per iteration
	SettleDelay     time.Duration // after each scroll and each closed item
	IDWait          time.Duration // bound on reading an item id
	OpenWait        time.Duration // bound on click + load
	CloseWait       time.Duration // bound on finding the close control
	MaxIterations   int           // 0 means no cap
}

func DefaultLoopOptions() LoopOptions {
	return LoopOptions{
		Mode:            ModeClick,
		StableThreshold: 3,
		ScrollFraction:  0.8,
		SettleDelay:     time.Second,
		IDWait:          5 * time.Second,
		OpenWait:        5 * time.Second,
		CloseWait:       3 * time.Second,
	}
}

// Stats summarises one Run.
type Stats struct {
	Iterations int
	Visible    int // items visible in the last iteration
	Clicked    int
	Skipped    int // already seen
	NoID       int // id not readable in time
}

// Scraper drives the scroll-and-discover loop over a Page.
// Records are not built here: clicking only triggers the backend
// fetch that the Capture turns into catalog entries.
type Scraper struct {
	page Page
	opts LoopOptions
	log  *zap.Logger
}

func NewScraper(page Page, opts LoopOptions, log *zap.Logger) *Scraper {
	def := DefaultLoopOptions()
	if opts.Mode == "" {
		opts.Mode = def.Mode
	}
	if opts.StableThreshold <= 0 {
		opts.StableThreshold = def.StableThreshold
	}
	if opts.ScrollFraction <= 0 {
		opts.ScrollFraction = def.ScrollFraction
	}
	if opts.IDWait <= 0 {
		opts.IDWait = def.IDWait
	}
	if opts.OpenWait <= 0 {
		opts.OpenWait = def.OpenWait
	}
	if opts.CloseWait <= 0 {
		opts.CloseWait = def.CloseWait
	}
	return &Scraper{page: page, opts: opts, log: log}
}

// Run scrolls through the page until the mode's end condition holds.
//
// End detection is a heuristic: a menu that stalls for the stability
// window ends the run early, and elements that keep re-rendering keep
// it going.
func (s *Scraper) Run(ctx context.Context) (Stats, error) {
	var st Stats

	viewport, err := s.page.ViewportHeight(ctx)
	if err != nil {
		return st, err
	}

	// Ids clicked during this run only.
	seen := make(map[string]struct{})

	var (
		offset    float64
		lastCount int
		stable    int
	)

	s.log.Info("starting scroll loop",
		zap.String("mode", string(s.opts.Mode)),
		zap.Float64("viewport", viewport))

	for {
		if s.opts.MaxIterations > 0 && st.Iterations >= s.opts.MaxIterations {
			s.log.Warn("iteration cap reached", zap.Int("iterations", st.Iterations))
			return st, nil
		}

		items, err := s.list(ctx, &st)
		if err != nil {
			return st, err
		}

		switch s.opts.Mode {
		case ModeCount:
			if len(items) == lastCount {
				stable++
				if stable >= s.opts.StableThreshold {
					s.log.Info("no more items", zap.Int("count", len(items)), zap.Int("iterations", st.Iterations))
					return st, nil
				}
			} else {
				stable = 0
			}
			lastCount = len(items)

		case ModeClick:
			if err := s.clickUnseen(ctx, items, seen, &st); err != nil {
				return st, err
			}
		}

		offset += viewport * s.opts.ScrollFraction
		if err := s.page.ScrollTo(ctx, offset); err != nil {
			return st, err
		}
		if err := sleep(ctx, s.opts.SettleDelay); err != nil {
			return st, err
		}

		if s.opts.Mode == ModeClick {
			bottom, err := s.page.AtBottom(ctx)
			if err != nil {
				return st, err
			}
			if bottom {
				// The last screen is only rendered now.
				items, err := s.list(ctx, &st)
				if err != nil {
					return st, err
				}
				if err := s.clickUnseen(ctx, items, seen, &st); err != nil {
					return st, err
				}
				s.log.Info("reached end of page",
					zap.Int("clicked", st.Clicked),
					zap.Int("iterations", st.Iterations))
				return st, nil
			}
		}
	}
}

// list reads the visible menu items and counts the iteration.
func (s *Scraper) list(ctx context.Context, st *Stats) ([]*cdp.Node, error) {
	items, err := s.page.MenuItems(ctx)
	if err != nil {
		return nil, err
	}
	st.Iterations++
	st.Visible = len(items)
	s.log.Debug("found menu items so far", zap.Int("count", len(items)), zap.Int("iteration", st.Iterations))
	s.logTexts(ctx, items)
	return items, nil
}

// logTexts writes the rendered text of every visible item at debug level.
func (s *Scraper) logTexts(ctx context.Context, items []*cdp.Node) {
	if !s.log.Core().Enabled(zap.DebugLevel) {
		return
	}
	for _, item := range items {
		textCtx, cancel := context.WithTimeout(ctx, s.opts.IDWait)
		text, err := s.page.ItemText(textCtx, item)
		cancel()
		if err != nil {
			s.log.Debug("item text unavailable", zap.Error(err))
			continue
		}
		s.log.Debug("menu item", zap.String("text", text))
	}
}

// clickUnseen opens every item whose id has not been clicked in this run.
func (s *Scraper) clickUnseen(ctx context.Context, items []*cdp.Node, seen map[string]struct{}, st *Stats) error {
	for _, item := range items {
		idCtx, cancel := context.WithTimeout(ctx, s.opts.IDWait)
		id, ok := s.page.ItemID(idCtx, item)
		cancel()
		if !ok {
			st.NoID++
			continue
		}
		if _, dup := seen[id]; dup {
			st.Skipped++
			continue
		}
		seen[id] = struct{}{}

		if err := s.openAndClose(ctx, item); err != nil {
			return fmt.Errorf("item %s: %w", id, err)
		}
		st.Clicked++
		s.log.Debug("item opened", zap.String("id", id))
	}
	return nil
}

// openAndClose opens the item's detail view and dismisses it again.
// Timeouts here are not recovered: the run stops with the error.
func (s *Scraper) openAndClose(ctx context.Context, item *cdp.Node) error {
	openCtx, cancel := context.WithTimeout(ctx, s.opts.OpenWait)
	err := s.page.OpenItem(openCtx, item)
	cancel()
	if err != nil {
		return err
	}

	closeCtx, cancel := context.WithTimeout(ctx, s.opts.CloseWait)
	err = s.page.CloseItem(closeCtx)
	cancel()
	if err != nil {
		return err
	}

	return sleep(ctx, s.opts.SettleDelay)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
