package browser

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Selectors describe the storefront markup the loop depends on.
// They are owned by the target site and break silently when it changes.
type Selectors struct {
	Item   string // menu item container
	ItemID string // attribute holding the site-assigned item id
	Close  string // control that dismisses the item detail view
}

// DefaultSelectors match the DoorDash store page.
var DefaultSelectors = Selectors{
	Item:   `div[data-testid="MenuItem"]`,
	ItemID: "data-item-id",
	Close:  `button[aria-label="Close"]`,
}

// Page is the set of page actions the scroll/click loop needs.
// Contexts passed to it must derive from the browser tab context.
type Page interface {
	ViewportHeight(ctx context.Context) (float64, error)
	MenuItems(ctx context.Context) ([]*cdp.Node, error)
	ScrollTo(ctx context.Context, y float64) error
	AtBottom(ctx context.Context) (bool, error)
	ItemID(ctx context.Context, item *cdp.Node) (string, bool)
	ItemText(ctx context.Context, item *cdp.Node) (string, error)
	OpenItem(ctx context.Context, item *cdp.Node) error
	CloseItem(ctx context.Context) error
}

var _ Page = (*ChromePage)(nil)

// ChromePage implements Page with chromedp.
type ChromePage struct {
	sel Selectors
	log *zap.Logger
}

// Goto navigates to url, waits for the body and lets the page settle
// before anything is measured.
func (p *ChromePage) Goto(ctx context.Context, url string, settle time.Duration) error {
	if err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(settle),
	); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	p.log.Debug("store page ready", zap.String("url", url))
	return nil
}

func (p *ChromePage) ViewportHeight(ctx context.Context) (float64, error) {
	var h float64
	if err := chromedp.Run(ctx, chromedp.Evaluate(`window.innerHeight`, &h)); err != nil {
		return 0, fmt.Errorf("viewport height: %w", err)
	}
	return h, nil
}

func (p *ChromePage) MenuItems(ctx context.Context) ([]*cdp.Node, error) {
	var nodes []*cdp.Node
	if err := chromedp.Run(ctx,
		chromedp.Nodes(p.sel.Item, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	); err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	return nodes, nil
}

func (p *ChromePage) ScrollTo(ctx context.Context, y float64) error {
	js := "window.scrollTo(0, " + strconv.FormatFloat(y, 'f', 0, 64) + ")"
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, nil)); err != nil {
		return fmt.Errorf("scroll to %.0f: %w", y, err)
	}
	return nil
}

// AtBottom reports whether the viewport's bottom edge has reached
// the end of the document.
func (p *ChromePage) AtBottom(ctx context.Context) (bool, error) {
	var bottom bool
	js := `Math.ceil(window.scrollY + window.innerHeight) >= document.documentElement.scrollHeight`
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &bottom)); err != nil {
		return false, fmt.Errorf("bottom check: %w", err)
	}
	return bottom, nil
}

// ItemID reads the item id attribute. ctx bounds the wait; a missing
// attribute or a timeout both yield ok=false.
func (p *ChromePage) ItemID(ctx context.Context, item *cdp.Node) (string, bool) {
	var (
		id string
		ok bool
	)
	err := chromedp.Run(ctx,
		chromedp.AttributeValue([]cdp.NodeID{item.NodeID}, p.sel.ItemID, &id, &ok, chromedp.ByNodeID),
	)
	if err != nil || !ok || id == "" {
		return "", false
	}
	return id, true
}

// ItemText returns the rendered text of the item.
func (p *ChromePage) ItemText(ctx context.Context, item *cdp.Node) (string, error) {
	var text string
	if err := chromedp.Run(ctx,
		chromedp.Text([]cdp.NodeID{item.NodeID}, &text, chromedp.ByNodeID),
	); err != nil {
		return "", fmt.Errorf("item text: %w", err)
	}
	return text, nil
}

// OpenItem clicks the item and waits for the page to be ready again.
// The click is what makes the site fetch the item-page payload.
func (p *ChromePage) OpenItem(ctx context.Context, item *cdp.Node) error {
	if err := chromedp.Run(ctx,
		chromedp.Click([]cdp.NodeID{item.NodeID}, chromedp.ByNodeID),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("open item: %w", err)
	}
	return nil
}

// CloseItem dismisses the detail view through its close control.
func (p *ChromePage) CloseItem(ctx context.Context) error {
	if err := chromedp.Run(ctx, chromedp.Click(p.sel.Close, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("close item: %w", err)
	}
	return nil
}
