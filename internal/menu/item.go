// Package menu holds the menu record model, the in-memory catalog
// and the parsing of item-page payloads returned by the storefront backend.
//
// Records are built only from captured network responses;
// nothing here talks to the browser.
package menu

import (
	"encoding/json"
	"sort"
	"sync"
)

// DefaultDescription is used when the payload carries no description.
const DefaultDescription = "No description"

// Option is a single selectable option of an item, flattened
// across all of the item's option lists.
type Option struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Item is one menu entry. Price is in major currency units.
type Item struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Options     []Option `json:"options"`
}

// Catalog maps item names to records. Safe for concurrent use:
// the capture listener writes while the loop is still running.
type Catalog struct {
	mu    sync.RWMutex
	items map[string]Item
}

func NewCatalog() *Catalog {
	return &Catalog{items: make(map[string]Item)}
}

// Upsert stores it under its name, replacing any earlier record
// with the same name.
func (c *Catalog) Upsert(it Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[it.Name] = it
}

func (c *Catalog) Get(name string) (Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.items[name]
	return it, ok
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Items returns a snapshot sorted by name.
func (c *Catalog) Items() []Item {
	c.mu.RLock()
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MarshalJSON encodes the catalog as an object keyed by item name.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return json.Marshal(c.items)
}
