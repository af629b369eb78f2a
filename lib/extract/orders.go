package extract

import (
	"fmt"
	"sbexport/lib/htmlutil"
	"sbexport/lib/record"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var OrderSchema = record.Schema{
	Fields:   []string{"Order ID", "Date", "Total", "Status", "Item Name", "Quantity"},
	FreeText: []string{"Item Name"},
}

// RowError is a row that could not be extracted, the rest of the page is
// still usable.
type RowError struct {
	Row   int
	Field string
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %v", e.Row, e.Field, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

var errMissing = fmt.Errorf("element not found")

// Orders extracts every order card on the page.
func Orders(doc *goquery.Selection, fm FieldMap) ([]record.Record, []RowError) {
	sel := fm.Orders

	var records []record.Record
	var rowErrors []RowError
	htmlutil.Find(doc, sel.Row).Each(func(i int, row *goquery.Selection) {
		id := htmlutil.Text(htmlutil.Find(row, sel.ID))
		if id == "" {
			rowErrors = append(rowErrors, RowError{Row: i, Field: "Order ID", Err: errMissing})
			return
		}

		dateText := htmlutil.Text(htmlutil.Find(row, sel.Date))
		date, err := NormalizeOrderDate(dateText)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Row: i, Field: "Date", Err: err})
			return
		}

		total := htmlutil.Text(htmlutil.Find(row, sel.Total))
		total = strings.TrimSpace(strings.Replace(total, "Total: ", "", 1))
		if total == "" {
			rowErrors = append(rowErrors, RowError{Row: i, Field: "Total", Err: errMissing})
			return
		}

		item := htmlutil.Text(htmlutil.Find(row, sel.Item))
		if item == "" {
			rowErrors = append(rowErrors, RowError{Row: i, Field: "Item Name", Err: errMissing})
			return
		}

		quantity := htmlutil.Text(htmlutil.Find(row, sel.Quantity))
		quantity = strings.TrimSpace(strings.Replace(quantity, "x", "", 1))

		records = append(records, record.Record{
			"Order ID":  id,
			"Date":      date,
			"Total":     total,
			"Status":    htmlutil.Text(htmlutil.Find(row, sel.Status)),
			"Item Name": item,
			"Quantity":  quantity,
		})
	})

	return records, rowErrors
}
