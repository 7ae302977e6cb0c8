// Package output renders a scraped catalog as a text report,
// a table, CSV or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/UniqueRed/DoorDashScraping/internal/menu"
)

type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatTable, FormatCSV, FormatJSON:
		return f, nil
	case "":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Price formats a positive amount as $X.XX. Zero and negative
// amounts render as an empty string so callers can omit them.
func Price(v float64) string {
	if v <= 0 {
		return ""
	}
	return fmt.Sprintf("$%.2f", v)
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// WriteReport writes the human readable listing.
func WriteReport(w io.Writer, items []menu.Item) error {
	for _, it := range items {
		fmt.Fprintf(w, "Item: %s\n", it.Name)
		fmt.Fprintf(w, "Description: %s\n", it.Description)
		if p := Price(it.Price); p != "" {
			fmt.Fprintf(w, "Price: %s\n", p)
		}
		if len(it.Options) > 0 {
			fmt.Fprintln(w, "Options:")
			for _, o := range it.Options {
				if p := Price(o.Price); p != "" {
					fmt.Fprintf(w, "  - %s: %s\n", o.Name, p)
				} else {
					fmt.Fprintf(w, "  - %s\n", o.Name)
				}
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes the catalog as an object keyed by item name.
func WriteJSON(w io.Writer, c *menu.Catalog) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// Write renders c in format to path; "-" or "" means stdout.
func Write(path string, format Format, c *menu.Catalog) error {
	if path == "" || path == "-" {
		return Render(os.Stdout, format, c)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return renderAndClose(f, format, c)
}

// renderAndClose reports the close error when rendering succeeded.
func renderAndClose(w io.WriteCloser, format Format, c *menu.Catalog) error {
	err := Render(w, format, c)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return err
}

func Render(w io.Writer, format Format, c *menu.Catalog) error {
	switch format {
	case FormatTable:
		return WriteTable(w, c.Items())
	case FormatCSV:
		return WriteCSV(w, c.Items())
	case FormatJSON:
		return WriteJSON(w, c)
	default:
		return WriteReport(w, c.Items())
	}
}
