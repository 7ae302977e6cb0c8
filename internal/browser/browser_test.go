package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/UniqueRed/DoorDashScraping/internal/menu"
)

const fixtureStore = `<!doctype html>
<html><body style="margin:0">
<div data-testid="MenuItem" data-item-id="101" style="height:120px" onclick="openItem(101)">Orange Chicken</div>
<div data-testid="MenuItem" data-item-id="102" style="height:120px" onclick="openItem(102)">Orange Chicken (family size)</div>
<div id="detail" style="display:none;position:fixed;top:300px;right:10px">
  <button aria-label="Close" onclick="closeItem()">x</button>
</div>
<script>
function openItem(id) {
  fetch('/graphql/itemPage?operation=itemPage&itemId=' + id).then(function (r) { return r.json(); });
  document.getElementById('detail').style.display = 'block';
}
function closeItem() {
  document.getElementById('detail').style.display = 'none';
}
</script>
</body></html>`

const fixtureItemPage = `{"data":{"itemPage":{"itemHeader":{"name":"Orange Chicken","description":"Tangy","unitAmount":1099},"optionLists":[{"options":[{"name":"Spicy","unitAmount":50}]}]}}}`

func findChrome() bool {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

func TestScrapeFixtureStore(t *testing.T) {
	if testing.Short() || !findChrome() {
		t.Skip("chrome not available")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/store", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/html")
		fmt.Fprint(w, fixtureStore)
	})
	mux.HandleFunc("/graphql/itemPage", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/json")
		fmt.Fprint(w, fixtureItemPage)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	log := zap.NewNop()
	b, err := New(ctx, Options{Headless: true}, log)
	require.NoError(t, err)
	defer b.Close()

	catalog := menu.NewCatalog()
	capture := Subscribe(b.Context(), catalog, CaptureOptions{
		EndpointPrefix: srv.URL + "/graphql/itemPage?operation=itemPage",
	}, log)
	defer capture.Close()

	page := b.Page(DefaultSelectors)
	require.NoError(t, page.Goto(b.Context(), srv.URL+"/store", 200*time.Millisecond))

	opts := DefaultLoopOptions()
	opts.SettleDelay = 200 * time.Millisecond
	st, err := NewScraper(page, opts, log).Run(b.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, st.Clicked)

	require.Eventually(t, func() bool {
		return capture.Stats().Accepted == 2
	}, 10*time.Second, 100*time.Millisecond)
	capture.Close()

	require.Equal(t, 1, catalog.Len())
	it, _ := catalog.Get("Orange Chicken")
	assert.Equal(t, menu.Item{
		Name:        "Orange Chicken",
		Description: "Tangy",
		Price:       10.99,
		Options:     []menu.Option{{Name: "Spicy", Price: 0.5}},
	}, it)
}
