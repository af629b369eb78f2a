package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sbexport/lib/record"
	"strconv"
)

var ErrNoPayload = errors.New("no json payload in response")

// APIPage is one decoded page of a JSON listing endpoint.
type APIPage struct {
	Records []record.Record
	// Next is the opaque continuation token, "" on the last page.
	Next string
	// Total is the record count the server reports, 0 when absent.
	Total int
}

type cashbackEnvelope struct {
	Data []json.RawMessage `json:"data"`
	Meta struct {
		Total      json.Number `json:"total"`
		Pagination struct {
			Next string `json:"next"`
		} `json:"pagination"`
	} `json:"meta"`
}

type paymentEnvelope struct {
	Data struct {
		Withdrawals []json.RawMessage `json:"withdrawals"`
	} `json:"data"`
	Meta struct {
		Total json.Number `json:"total"`
		Next  string      `json:"next"`
	} `json:"meta"`
}

type orderEnvelope struct {
	Data struct {
		Orders []json.RawMessage `json:"orders"`
	} `json:"data"`
}

var nextParamRegex = regexp.MustCompile(`next=([^&]+)`)

func parseTotal(n json.Number) int {
	if n == "" {
		return 0
	}
	total, err := strconv.Atoi(n.String())
	if err != nil {
		f, err := n.Float64()
		if err != nil {
			return 0
		}
		return int(f)
	}
	return total
}

// CashbackPage decodes a page of the cashback (money in) search API. the
// next token is the raw `next` query parameter of the pagination link,
// it is sent back exactly as received.
func CashbackPage(body []byte) (APIPage, error) {
	var envelope cashbackEnvelope
	err := json.Unmarshal(body, &envelope)
	if err != nil {
		return APIPage{}, fmt.Errorf("decode cashback page: %w", err)
	}
	records, err := record.Decode(envelope.Data)
	page := APIPage{
		Records: records,
		Total:   parseTotal(envelope.Meta.Total),
	}
	if err != nil {
		return page, fmt.Errorf("decode cashback page: %w", err)
	}
	groups := nextParamRegex.FindStringSubmatch(envelope.Meta.Pagination.Next)
	if groups != nil {
		page.Next = groups[1]
	}
	return page, nil
}

// PaymentPage decodes a page of the payment (money out) history API.
func PaymentPage(body []byte) (APIPage, error) {
	var envelope paymentEnvelope
	err := json.Unmarshal(body, &envelope)
	if err != nil {
		return APIPage{}, fmt.Errorf("decode payment page: %w", err)
	}
	records, err := record.Decode(envelope.Data.Withdrawals)
	page := APIPage{
		Records: records,
		Next:    envelope.Meta.Next,
		Total:   parseTotal(envelope.Meta.Total),
	}
	if err != nil {
		return page, fmt.Errorf("decode payment page: %w", err)
	}
	return page, nil
}

// the order history endpoint streams a server component payload, the
// json object sits on a single line among framing text.
var payloadRegex = regexp.MustCompile(`\{.*\}`)

// OrderHistoryPage decodes one response of the order history server
// action.
func OrderHistoryPage(body []byte) (APIPage, error) {
	payload := payloadRegex.Find(body)
	if payload == nil {
		return APIPage{}, ErrNoPayload
	}
	var envelope orderEnvelope
	err := json.Unmarshal(payload, &envelope)
	if err != nil {
		return APIPage{}, fmt.Errorf("%w: %v", ErrNoPayload, err)
	}
	records, err := record.Decode(envelope.Data.Orders)
	if err != nil {
		return APIPage{Records: records}, fmt.Errorf("decode order page: %w", err)
	}
	return APIPage{Records: records}, nil
}

var OrderSummarySchema = record.Schema{
	Fields:   []string{"Order Number", "Paid At", "Merchant", "Total Paid", "Subtotal", "Cashback Used", "Promotions"},
	FreeText: []string{"Merchant"},
}

// OrderSummary flattens an order history record for tabular output,
// promotions is derived from the amounts.
func OrderSummary(rec record.Record, paths OrderAPIPaths) record.Record {
	totalPaid := rec.LookupString(paths.TotalPaid)
	subtotal := rec.LookupString(paths.Subtotal)
	cashbackUsed := rec.LookupString(paths.CashbackUsed)
	return record.Record{
		"Order Number":  rec.LookupString(paths.ID),
		"Paid At":       rec.LookupString(paths.PaidAt),
		"Merchant":      rec.LookupString(paths.Merchant),
		"Total Paid":    totalPaid,
		"Subtotal":      subtotal,
		"Cashback Used": cashbackUsed,
		"Promotions":    Promotions(totalPaid, subtotal, cashbackUsed).String(),
	}
}
