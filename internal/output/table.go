package output

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/UniqueRed/DoorDashScraping/internal/menu"
)

// WriteTable renders items as a box table, options indented
// under their item.
func WriteTable(w io.Writer, items []menu.Item) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Item", "Description", "Price"})

	for _, it := range items {
		t.AppendRow(table.Row{it.Name, it.Description, Price(it.Price)})
		for _, o := range it.Options {
			t.AppendRow(table.Row{"  + " + o.Name, "", Price(o.Price)})
		}
	}
	t.AppendFooter(table.Row{"", "Items", len(items)})

	t.Render()
	return nil
}
