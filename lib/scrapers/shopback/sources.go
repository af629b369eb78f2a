package shopback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sbexport/lib/export"
	"sbexport/lib/extract"
	"sbexport/lib/paginate"
	"sbexport/lib/poll"
	"sbexport/lib/record"
	"sbexport/lib/timezone"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	APIDelay         = 500 * time.Millisecond
	ScrollSettle     = 1500 * time.Millisecond
	ScrollTopSettle  = time.Second
	NextPageDelay    = time.Second
	TablePollDelay   = 500 * time.Millisecond
	TablePollRetries = 120
	ExpandSettle     = 100 * time.Millisecond
)

// Source binds a data source's fetching, extraction and output naming.
type Source struct {
	Name string
	// Base is the output file name without extension.
	Base     string
	Format   export.Format
	Table    string
	Schema   record.Schema
	Delay    time.Duration
	MaxPages int
	Strategy paginate.Strategy
	// Prepare runs once before the first page, it may be nil.
	Prepare func(ctx context.Context) error
	// Project reshapes records for flat formats (csv, sqlite), nil keeps
	// them as fetched.
	Project func(record.Record) record.Record
}

func fromAPIPage(page extract.APIPage) paginate.Page {
	return paginate.Page{
		Records: page.Records,
		Next:    paginate.Token(page.Next),
		Total:   page.Total,
	}
}

// CashbackSource pages through cashback earned, records are exported
// verbatim as JSON.
func CashbackSource(c *Client) Source {
	return Source{
		Name:   "cashback",
		Base:   "cashback_transactions_in",
		Format: export.FormatJSON,
		Table:  "cashback",
		Delay:  APIDelay,
		Strategy: paginate.TokenPager{
			FetchPage: func(ctx context.Context, token paginate.Token) (paginate.Page, error) {
				body, err := c.CashbackSearch(ctx, string(token))
				if err != nil {
					return paginate.Page{}, err
				}
				page, err := extract.CashbackPage(body)
				return fromAPIPage(page), err
			},
		},
	}
}

// PaymentsSource pages through cashback withdrawals.
func PaymentsSource(c *Client) Source {
	return Source{
		Name:   "payments",
		Base:   "cashback_transactions_out",
		Format: export.FormatJSON,
		Table:  "payments",
		Delay:  APIDelay,
		Strategy: paginate.TokenPager{
			FetchPage: func(ctx context.Context, token paginate.Token) (paginate.Page, error) {
				body, err := c.PaymentHistory(ctx, string(token))
				if err != nil {
					return paginate.Page{}, err
				}
				page, err := extract.PaymentPage(body)
				return fromAPIPage(page), err
			},
		},
	}
}

// OrdersSource walks the order history backwards in time starting at
// `now`, each page is requested with the paid time of the previous
// page's last order.
func OrdersSource(c *Client, fm extract.FieldMap, now time.Time) Source {
	paths := fm.OrderAPI
	return Source{
		Name:   "orders",
		Base:   "shopback_order_history",
		Format: export.FormatJSON,
		Table:  "orders",
		Schema: extract.OrderSummarySchema,
		Delay:  APIDelay,
		Strategy: paginate.LastItem{
			First: paginate.Token(timezone.Cursor(now)),
			FetchPage: func(ctx context.Context, token paginate.Token) (paginate.Page, error) {
				body, err := c.OrderHistory(ctx, string(token), DefaultOrderPageSize)
				if err != nil {
					return paginate.Page{}, err
				}
				page, err := extract.OrderHistoryPage(body)
				if errors.Is(err, extract.ErrNoPayload) {
					return paginate.Page{}, fmt.Errorf("%w: %w", paginate.ErrUnparseable, err)
				}
				return fromAPIPage(page), err
			},
			Cursor: func(r record.Record) paginate.Token {
				return paginate.Token(r.LookupString(paths.PaidAt))
			},
			Identity: func(r record.Record) string {
				return r.LookupString(paths.ID)
			},
		},
		Project: func(r record.Record) record.Record {
			return extract.OrderSummary(r, paths)
		},
	}
}

func reportRowErrors(ctx context.Context, source string, rowErrors []extract.RowError) {
	if len(rowErrors) == 0 {
		return
	}
	skippedRowCounter.Add(ctx, int64(len(rowErrors)), metric.WithAttributes(attribute.String("source", source)))
	for _, rowErr := range rowErrors {
		slog.WarnContext(ctx, "skipped row", "source", source, "row", rowErr.Row, "field", rowErr.Field, "err", rowErr.Err)
	}
}

type PageOptions struct {
	URL      string
	FieldMap extract.FieldMap
}

// OrdersScrollSource reads the rendered order history page, scrolling
// until no more orders load.
func OrdersScrollSource(b *Browser, opts PageOptions) Source {
	if opts.URL == "" {
		opts.URL = DefaultBaseUrl + "/ecommerce/order-history"
	}
	return Source{
		Name:   "orders-scroll",
		Base:   "shopback_orders",
		Format: export.FormatCSV,
		Table:  "orders",
		Schema: extract.OrderSchema,
		Prepare: func(ctx context.Context) error {
			return b.Open(ctx, opts.URL)
		},
		Strategy: paginate.Growth{
			Surface:      scrollSurface{browser: b},
			Settle:       ScrollSettle,
			RewindSettle: ScrollTopSettle,
			Extract: func(ctx context.Context) ([]record.Record, error) {
				doc, err := b.Document(ctx)
				if err != nil {
					return nil, err
				}
				records, rowErrors := extract.Orders(doc.Selection, opts.FieldMap)
				reportRowErrors(ctx, "orders-scroll", rowErrors)
				return records, nil
			},
		},
	}
}

// LedgerSource reads the cashback ledger table one page at a time using
// the table's next page button. rows are dated with the year of the
// last year heading seen, which carries over between pages.
func LedgerSource(b *Browser, opts PageOptions) Source {
	if opts.URL == "" {
		opts.URL = DefaultBaseUrl + "/cashback"
	}
	sel := opts.FieldMap.Ledger
	year := timezone.CurrentYear()

	extractPage := func(ctx context.Context, doc *goquery.Document) []record.Record {
		records, nextYear, rowErrors := extract.Ledger(doc.Selection, opts.FieldMap, year)
		reportRowErrors(ctx, "ledger", rowErrors)
		year = nextYear
		return records
	}

	return Source{
		Name:     "ledger",
		Base:     "shopback_cashback",
		Format:   export.FormatCSV,
		Table:    "ledger",
		Schema:   extract.LedgerSchema,
		Delay:    NextPageDelay,
		MaxPages: paginate.DefaultMaxPages,
		Prepare: func(ctx context.Context) error {
			err := b.Open(ctx, opts.URL)
			if err != nil {
				return err
			}
			err = poll.Until(ctx, poll.Options{
				Interval:    TablePollDelay,
				MaxAttempts: TablePollRetries,
			}, func(ctx context.Context) (bool, error) {
				return b.HasSelector(ctx, sel.Table)
			})
			if err != nil {
				return fmt.Errorf("wait for ledger table: %w", err)
			}
			return nil
		},
		Strategy: paginate.NextButton{
			Extract: func(ctx context.Context) ([]record.Record, error) {
				_, err := b.ExpandRows(ctx, sel.Row, sel.YearRowClass, sel.DetailCell, ExpandSettle)
				if err != nil {
					return nil, err
				}
				doc, err := b.Document(ctx)
				if err != nil {
					return nil, err
				}
				return extractPage(ctx, doc), nil
			},
			Next: func(ctx context.Context) (bool, error) {
				return b.ClickNext(ctx, sel.NextButton, sel.NextLabels)
			},
		},
	}
}
