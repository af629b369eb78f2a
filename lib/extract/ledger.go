package extract

import (
	"fmt"
	"sbexport/lib/htmlutil"
	"sbexport/lib/record"
	"sbexport/lib/textutil"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var LedgerSchema = record.Schema{
	Fields:   []string{"ID", "Date", "Confirmation Date", "Vendor", "Type", "Purchase", "Amount", "Status"},
	FreeText: []string{"Vendor"},
}

// words a fallback amount's parent must mention so cashback amounts are
// not mistaken for the purchase.
var purchaseContext = []string{"purchase", "voucher", "amount:"}

// Ledger extracts the visible page of the cashback ledger. rows are dated
// with `year` until a year heading row changes it, the year in effect at
// the end of the page is returned for the next page.
func Ledger(doc *goquery.Selection, fm FieldMap, year string) ([]record.Record, string, []RowError) {
	sel := fm.Ledger
	purchaseLabels := textutil.NormalizeAll(sel.PurchaseLabel)
	isIdLine := func(text string) bool {
		return sel.IDLabel != "" && strings.Contains(text, sel.IDLabel)
	}
	isPurchaseLine := func(text string) bool {
		return textutil.MatchName(text, purchaseLabels)
	}

	var records []record.Record
	var rowErrors []RowError
	htmlutil.Find(doc, sel.Row).Each(func(i int, row *goquery.Selection) {
		if row.HasClass(sel.YearRowClass) {
			heading := htmlutil.Text(row.Find("p"))
			if heading != "" {
				year = heading
			}
			return
		}

		cells := row.ChildrenFiltered("td")
		if cells.Length() < 4 {
			return
		}

		dateCell := cells.Eq(0)
		date, err := NormalizeLedgerDate(
			htmlutil.Text(htmlutil.Find(dateCell, sel.DayMonth)),
			htmlutil.Text(htmlutil.Find(dateCell, sel.Clock)),
			year,
		)
		if err != nil {
			rowErrors = append(rowErrors, RowError{Row: i, Field: "Date", Err: err})
			return
		}

		description := htmlutil.Find(cells.Eq(1), sel.Description).First()
		lines := description.Find("p")
		vendor := htmlutil.Text(lines.Eq(0))
		if vendor == "" {
			rowErrors = append(rowErrors, RowError{Row: i, Field: "Vendor", Err: errMissing})
			return
		}

		amount := htmlutil.Text(htmlutil.Find(cells.Eq(2), sel.Amount))
		if amount == "" {
			rowErrors = append(rowErrors, RowError{Row: i, Field: "Amount", Err: errMissing})
			return
		}

		var fullText []string
		lines.Each(func(_ int, p *goquery.Selection) {
			fullText = append(fullText, htmlutil.Text(p))
		})
		id := TransactionID(htmlutil.Text(lines.Eq(1)))
		confirmed := ConfirmationDate(htmlutil.Text(lines.Eq(2)))

		detail := expandedRow(doc, row, sel)
		if id == "" {
			id = labelledValue(detail, sel.DetailLine, isIdLine, false)
		}
		purchase := labelledValue(detail, sel.DetailLine, isPurchaseLine, true)
		if purchase == "" {
			purchase = fallbackPurchase(detail, sel.PurchaseFallback)
		}

		records = append(records, record.Record{
			"ID":                id,
			"Date":              date,
			"Confirmation Date": confirmed,
			"Vendor":            vendor,
			"Type":              string(Classify(strings.Join(fullText, " "), id)),
			"Purchase":          purchase,
			"Amount":            amount,
			"Status":            htmlutil.Text(htmlutil.Find(cells.Eq(3), sel.Status)),
		})
	})

	return records, year, rowErrors
}

// expandedRow finds the detail row the site renders below an expanded
// ledger row, either as the next sibling or linked by data attributes.
func expandedRow(doc, row *goquery.Selection, sel LedgerSelectors) *goquery.Selection {
	next := row.Next()
	if !next.HasClass(sel.YearRowClass) && htmlutil.Find(next, sel.DetailCell).Length() > 0 {
		return next
	}
	rowId, ok := row.Attr("data-row-id")
	if ok && rowId != "" {
		return doc.Find(fmt.Sprintf(`tr[data-expanded-row="%s"]`, rowId)).First()
	}
	return next.Slice(0, 0)
}

// labelledValue returns the last span of the innermost line that
// matches. lines wrapping other matching lines are skipped.
func labelledValue(detail *goquery.Selection, lineSelector string, match func(string) bool, money bool) string {
	var value string
	htmlutil.Find(detail, lineSelector).EachWithBreak(func(_ int, line *goquery.Selection) bool {
		if !match(htmlutil.Text(line)) {
			return true
		}
		nested := htmlutil.Find(line, lineSelector).FilterFunction(func(_ int, inner *goquery.Selection) bool {
			return match(htmlutil.Text(inner))
		})
		if nested.Length() > 0 {
			return true
		}
		text := htmlutil.Text(line.Find("span").Last())
		if text == "" || (money && !strings.HasPrefix(text, "$")) {
			return true
		}
		value = text
		return false
	})
	return value
}

func fallbackPurchase(detail *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		var value string
		htmlutil.Find(detail, selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			text := htmlutil.Text(el)
			if !strings.HasPrefix(text, "$") {
				return true
			}
			parent := strings.ToLower(htmlutil.Text(el.Parent()))
			for _, word := range purchaseContext {
				if strings.Contains(parent, word) {
					value = text
					return false
				}
			}
			return true
		})
		if value != "" {
			return value
		}
	}
	return ""
}
