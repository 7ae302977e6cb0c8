package output

import (
	"encoding/csv"
	"io"

	"github.com/UniqueRed/DoorDashScraping/internal/menu"
)

// WriteCSV writes one row per item and one row per option,
// options carrying their item's name in the first column.
func WriteCSV(w io.Writer, items []menu.Item) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"item", "description", "price", "option", "option_price"}); err != nil {
		return err
	}

	for _, it := range items {
		if err := cw.Write([]string{it.Name, it.Description, amount(it.Price), "", ""}); err != nil {
			return err
		}
		for _, o := range it.Options {
			if err := cw.Write([]string{it.Name, "", "", o.Name, amount(o.Price)}); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
