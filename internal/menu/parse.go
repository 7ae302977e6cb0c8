package menu

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrNoItemPage  = errors.New("menu: payload has no itemPage")
	ErrMissingName = errors.New("menu: itemHeader has no name")
)

// MatchesEndpoint reports whether rawURL is an item-page fetch.
// The endpoint is identified by plain prefix equality
// (host + path + operation query parameter).
func MatchesEndpoint(rawURL, prefix string) bool {
	return prefix != "" && strings.HasPrefix(rawURL, prefix)
}

// ParseItemPage extracts items from an item-page GraphQL response.
//
// The body holds a single envelope ({"data":{"itemPage":...}}) or a
// batch of them. Only data.itemPage of each envelope is read; itemPage
// objects nested deeper (recommendations and the like) are ignored.
// Pages that can not be turned into an Item are reported in the
// returned error while the rest are still returned, in envelope order.
func ParseItemPage(body []byte) ([]Item, error) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode item page: %w", err)
	}

	var envelopes []interface{}
	switch t := v.(type) {
	case []interface{}:
		envelopes = t
	default:
		envelopes = []interface{}{t}
	}

	var pages []map[string]interface{}
	for _, e := range envelopes {
		if p, ok := itemPageOf(e); ok {
			pages = append(pages, p)
		}
	}
	if len(pages) == 0 {
		return nil, ErrNoItemPage
	}

	out := make([]Item, 0, len(pages))
	var errs []error
	for _, p := range pages {
		it, err := itemFromPage(p)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, it)
	}
	return out, errors.Join(errs...)
}

// itemPageOf returns envelope.data.itemPage.
func itemPageOf(envelope interface{}) (map[string]interface{}, bool) {
	obj, ok := envelope.(map[string]interface{})
	if !ok {
		return nil, false
	}
	data, ok := obj["data"].(map[string]interface{})
	if !ok {
		return nil, false
	}
	page, ok := data["itemPage"].(map[string]interface{})
	return page, ok
}

func itemFromPage(page map[string]interface{}) (Item, error) {
	header, _ := page["itemHeader"].(map[string]interface{})

	name := pickString(header, "name")
	if name == "" {
		return Item{}, ErrMissingName
	}

	desc := pickString(header, "description")
	if desc == "" {
		desc = DefaultDescription
	}

	it := Item{
		Name:        name,
		Description: desc,
		Price:       minorToMajor(header["unitAmount"]),
		Options:     []Option{},
	}

	// Lists without an "options" key add nothing.
	lists, _ := page["optionLists"].([]interface{})
	for _, l := range lists {
		list, ok := l.(map[string]interface{})
		if !ok {
			continue
		}
		opts, ok := list["options"].([]interface{})
		if !ok {
			continue
		}
		for _, o := range opts {
			opt, ok := o.(map[string]interface{})
			if !ok {
				continue
			}
			it.Options = append(it.Options, Option{
				Name:  pickString(opt, "name"),
				Price: minorToMajor(opt["unitAmount"]),
			})
		}
	}

	return it, nil
}

// pickString returns the first non-blank string field among keys.
// Whitespace-only values count as absent.
func pickString(obj map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// minorToMajor converts an amount in minor currency units (cents)
// to major units. Missing or unparseable amounts are 0.
func minorToMajor(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t / 100
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f / 100
	}
	return 0
}
