package browser

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/UniqueRed/DoorDashScraping/internal/menu"
)

// DefaultEndpointPrefix identifies the item detail fetch on DoorDash.
const DefaultEndpointPrefix = "https://www.doordash.com/graphql/itemPage?operation=itemPage"

type CaptureOptions struct {
	EndpointPrefix string
}

type CaptureStats struct {
	Matched  int64 // responses whose URL matched the endpoint
	Accepted int64 // items upserted into the catalog
	Rejected int64 // payloads that could not be turned into items
}

type bodyFetcher func(ctx context.Context, id network.RequestID) ([]byte, error)

// Capture is a subscription to the tab's network responses for the
// duration of one scrape. Matching item-page responses are parsed and
// upserted into the catalog it was created with.
type Capture struct {
	ctx     context.Context // tab context, used for body fetches
	cancel  context.CancelFunc
	prefix  string
	catalog *menu.Catalog
	fetch   bodyFetcher
	log     *zap.Logger

	mu      sync.Mutex
	pending map[network.RequestID]string
	closed  bool
	wg      sync.WaitGroup

	matched  atomic.Int64
	accepted atomic.Int64
	rejected atomic.Int64
}

// Subscribe starts capturing on the tab behind ctx. The caller must
// Close the capture when the scrape is over.
func Subscribe(ctx context.Context, catalog *menu.Catalog, opts CaptureOptions, log *zap.Logger) *Capture {
	c := newCapture(ctx, catalog, opts, log, fetchResponseBody)
	// The listener is dropped by chromedp once its context is done.
	listenCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	chromedp.ListenTarget(listenCtx, c.onEvent)
	return c
}

func newCapture(ctx context.Context, catalog *menu.Catalog, opts CaptureOptions, log *zap.Logger, fetch bodyFetcher) *Capture {
	prefix := opts.EndpointPrefix
	if prefix == "" {
		prefix = DefaultEndpointPrefix
	}
	return &Capture{
		ctx:     ctx,
		cancel:  func() {},
		prefix:  prefix,
		catalog: catalog,
		fetch:   fetch,
		log:     log,
		pending: make(map[network.RequestID]string),
	}
}

// onEvent runs on chromedp's event loop and must not block.
// The body is only available once loading has finished, so matching
// responses are remembered until then and fetched off the loop.
func (c *Capture) onEvent(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		if menu.MatchesEndpoint(e.Request.URL, c.prefix) {
			c.log.Debug("item page request", zap.String("method", e.Request.Method), zap.String("url", e.Request.URL))
		}

	case *network.EventResponseReceived:
		if !menu.MatchesEndpoint(e.Response.URL, c.prefix) {
			return
		}
		c.mu.Lock()
		if !c.closed {
			c.pending[e.RequestID] = e.Response.URL
			c.matched.Add(1)
		}
		c.mu.Unlock()

	case *network.EventLoadingFinished:
		c.mu.Lock()
		url, ok := c.pending[e.RequestID]
		delete(c.pending, e.RequestID)
		if !ok || c.closed {
			c.mu.Unlock()
			return
		}
		c.wg.Add(1)
		c.mu.Unlock()

		go func(id network.RequestID, url string) {
			defer c.wg.Done()
			body, err := c.fetch(c.ctx, id)
			if err != nil {
				c.rejected.Add(1)
				c.log.Warn("item page body unavailable", zap.String("url", url), zap.Error(err))
				return
			}
			c.handle(url, body)
		}(e.RequestID, url)

	case *network.EventLoadingFailed:
		c.mu.Lock()
		delete(c.pending, e.RequestID)
		c.mu.Unlock()
	}
}

// handle parses one response body. A bad payload is logged and
// dropped; it never stops the capture.
func (c *Capture) handle(url string, body []byte) {
	items, err := menu.ParseItemPage(body)
	for _, it := range items {
		c.catalog.Upsert(it)
		c.accepted.Add(1)
		c.log.Info("captured item",
			zap.String("name", it.Name),
			zap.Float64("price", it.Price),
			zap.Int("options", len(it.Options)))
	}
	if err != nil {
		c.rejected.Add(1)
		c.log.Warn("item page payload rejected", zap.String("url", url), zap.Error(err))
	}
}

// Close deregisters the listener and waits for body fetches
// already in flight.
func (c *Capture) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.pending = make(map[network.RequestID]string)
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Capture) Stats() CaptureStats {
	return CaptureStats{
		Matched:  c.matched.Load(),
		Accepted: c.accepted.Load(),
		Rejected: c.rejected.Load(),
	}
}

func fetchResponseBody(ctx context.Context, id network.RequestID) ([]byte, error) {
	var body []byte
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		body, err = network.GetResponseBody(id).Do(ctx)
		return err
	}))
	return body, err
}
