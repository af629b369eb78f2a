package extract

import (
	"fmt"
	"sbexport/lib/configutil"
)

// FieldMapVersion is bumped whenever the built in selectors change so
// stale override files can be spotted.
const FieldMapVersion = 4

type OrderSelectors struct {
	Row      string `json:"row"`
	ID       string `json:"id"`
	Date     string `json:"date"`
	Total    string `json:"total"`
	Status   string `json:"status"`
	Item     string `json:"item"`
	Quantity string `json:"quantity"`
}

type LedgerSelectors struct {
	// Table is waited on before the first page is read.
	Table         string   `json:"table"`
	Row           string   `json:"row"`
	YearRowClass  string   `json:"yearRowClass"`
	DayMonth      string   `json:"dayMonth"`
	Clock         string   `json:"clock"`
	Description   string   `json:"description"`
	Amount        string   `json:"amount"`
	Status        string   `json:"status"`
	DetailCell    string   `json:"detailCell"`
	DetailLine    string   `json:"detailLine"`
	IDLabel       string   `json:"idLabel"`
	PurchaseLabel []string `json:"purchaseLabel"`
	// tried in order when no labelled purchase amount is present.
	PurchaseFallback []string `json:"purchaseFallback"`
	NextButton       string   `json:"nextButton"`
	NextLabels       []string `json:"nextLabels"`
}

// OrderAPIPaths are dotted JSON paths into an order history record.
type OrderAPIPaths struct {
	ID           string `json:"id"`
	PaidAt       string `json:"paidAt"`
	TotalPaid    string `json:"totalPaid"`
	Subtotal     string `json:"subtotal"`
	CashbackUsed string `json:"cashbackUsed"`
	Merchant     string `json:"merchant"`
}

// FieldMap ties semantic fields to the selectors and JSON paths the site
// currently uses.
type FieldMap struct {
	Version  int             `json:"version"`
	Orders   OrderSelectors  `json:"orders"`
	Ledger   LedgerSelectors `json:"ledger"`
	OrderAPI OrderAPIPaths   `json:"orderApi"`
}

func DefaultFieldMap() FieldMap {
	return FieldMap{
		Version: FieldMapVersion,
		Orders: OrderSelectors{
			Row:      `[class*="d_flex border_solid_1px_"]`,
			ID:       `[class*="fs_sbds-global-font-size-4"]`,
			Date:     `[class*="fs_sbds-global-font-size-3"]`,
			Total:    `p[class*="fs_sbds-global-font-size-4"]:last-of-type`,
			Status:   `[class*="bg_sbds-status-color-success-lighter"]`,
			Item:     `[class*="-webkit-line-clamp_1"]`,
			Quantity: `[class*="flex_0_0_auto"]`,
		},
		Ledger: LedgerSelectors{
			Table:         "table tbody",
			Row:           "table tbody tr",
			YearRowClass:  "table-row-year",
			DayMonth:      "div > p",
			Clock:         "span",
			Description:   "div",
			Amount:        "p",
			Status:        ".MuiChip-label",
			DetailCell:    `td[colspan="4"]`,
			DetailLine:    "div",
			IDLabel:       "ID:",
			PurchaseLabel: []string{"Purchase Amount:", "Voucher Amount:"},
			PurchaseFallback: []string{
				`div[class*="flex_column"] span:last-child`,
				`div[class*="details"] span:last-child`,
				`div[class*="transaction-details"] span:last-child`,
				`div[class*="voucher"] span:last-child`,
				`div[class*="amount"] span:last-child`,
			},
			NextButton: "button",
			NextLabels: []string{"Next page", "Go to next page"},
		},
		OrderAPI: OrderAPIPaths{
			ID:           "orderNumber",
			PaidAt:       "paidAt",
			TotalPaid:    "totalPaid",
			Subtotal:     "subtotal",
			CashbackUsed: "cashbackUsed",
			Merchant:     "merchant.name",
		},
	}
}

// LoadFieldMap layers `name` (and its .local variant) over the built in
// map. a missing file is not an error.
func LoadFieldMap(name string) (FieldMap, error) {
	fm, err := configutil.ReadConfigWithDefaults(name, DefaultFieldMap())
	if err != nil {
		return FieldMap{}, fmt.Errorf("load field map: %w", err)
	}
	if fm.Version != FieldMapVersion {
		return fm, fmt.Errorf("field map %s is version %d, expected %d", name, fm.Version, FieldMapVersion)
	}
	return fm, nil
}
