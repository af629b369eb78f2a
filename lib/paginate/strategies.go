package paginate

import (
	"context"
	"errors"
	"log/slog"
	"sbexport/lib/poll"
	"sbexport/lib/record"
	"strconv"
	"time"
)

type FetchFunc func(ctx context.Context, token Token) (Page, error)

// TokenPager follows server issued continuation tokens. it stops when a
// page carries no next token or once the reported total is reached, an
// unreported total never stops it.
type TokenPager struct {
	First     Token
	FetchPage FetchFunc
}

func (p TokenPager) Start() Token {
	return p.First
}

func (p TokenPager) Fetch(ctx context.Context, token Token) (Page, error) {
	return p.FetchPage(ctx, token)
}

func (p TokenPager) Advance(state RunState, page Page) Step {
	step := Step{Keep: page.Records, Next: page.Next}
	if page.Next == "" {
		step.Done = true
	}
	if state.Total > 0 && len(state.Records)+len(state.Trim(page.Records)) >= state.Total {
		step.Done = true
	}
	return step
}

// LastItem derives the next cursor from the last record of each page,
// typically a timestamp. it stops on an empty page, on a page that ends
// with the same record as the previous one (that page is discarded) and
// when the response cannot be parsed.
type LastItem struct {
	First     Token
	FetchPage FetchFunc
	Cursor    func(record.Record) Token
	Identity  func(record.Record) string
}

func (l LastItem) Start() Token {
	return l.First
}

func (l LastItem) Fetch(ctx context.Context, token Token) (Page, error) {
	page, err := l.FetchPage(ctx, token)
	if errors.Is(err, ErrUnparseable) {
		slog.InfoContext(ctx, "unparseable page, treating as end of data", "cursor", token, "err", err)
		return Page{Exhausted: true}, nil
	}
	return page, err
}

func (l LastItem) Advance(state RunState, page Page) Step {
	if page.Exhausted || len(page.Records) == 0 {
		return Step{Done: true}
	}

	last := page.Records[len(page.Records)-1]
	previous, ok := state.Last()
	if ok && l.Identity(previous) == l.Identity(last) {
		return Step{Done: true}
	}

	next := l.Cursor(last)
	return Step{Keep: page.Records, Next: next, Done: next == ""}
}

// Surface is something that grows when scrolled, like an infinite list.
type Surface interface {
	// Advance scrolls to the end of the surface.
	Advance(ctx context.Context) error
	// Metric measures the surface, typically its scroll height.
	Metric(ctx context.Context) (int64, error)
	// Rewind scrolls back to the start.
	Rewind(ctx context.Context) error
}

// Growth scrolls a Surface until its metric stops changing between two
// consecutive iterations, then extracts everything in one pass. the
// metric is carried as the page token.
type Growth struct {
	Surface      Surface
	Settle       time.Duration
	RewindSettle time.Duration
	Extract      func(ctx context.Context) ([]record.Record, error)
	// Sleep defaults to poll.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (g Growth) sleep(ctx context.Context, d time.Duration) error {
	if g.Sleep != nil {
		return g.Sleep(ctx, d)
	}
	return poll.Sleep(ctx, d)
}

func (g Growth) Start() Token {
	return "0"
}

func (g Growth) Fetch(ctx context.Context, _ Token) (Page, error) {
	err := g.Surface.Advance(ctx)
	if err != nil {
		return Page{}, err
	}
	err = g.sleep(ctx, g.Settle)
	if err != nil {
		return Page{}, err
	}
	metric, err := g.Surface.Metric(ctx)
	if err != nil {
		return Page{}, err
	}
	return Page{Next: Token(strconv.FormatInt(metric, 10))}, nil
}

func (g Growth) Advance(state RunState, page Page) Step {
	return Step{Next: page.Next, Done: page.Next == state.Token}
}

func (g Growth) Finish(ctx context.Context) ([]record.Record, error) {
	err := g.Surface.Rewind(ctx)
	if err != nil {
		return nil, err
	}
	err = g.sleep(ctx, g.RewindSettle)
	if err != nil {
		return nil, err
	}
	return g.Extract(ctx)
}

// NextButton reads the page currently shown and then presses the
// control that shows the next one, it stops once there is no enabled
// control left.
type NextButton struct {
	Extract func(ctx context.Context) ([]record.Record, error)
	// Next reports whether the control was found and pressed.
	Next func(ctx context.Context) (bool, error)
}

func (n NextButton) Start() Token {
	return "1"
}

func (n NextButton) Fetch(ctx context.Context, token Token) (Page, error) {
	records, err := n.Extract(ctx)
	if err != nil {
		return Page{}, err
	}
	clicked, err := n.Next(ctx)
	if err != nil {
		return Page{Records: records}, err
	}
	if !clicked {
		return Page{Records: records}, nil
	}
	current, err := strconv.Atoi(string(token))
	if err != nil {
		current = 1
	}
	return Page{Records: records, Next: Token(strconv.Itoa(current + 1))}, nil
}

func (n NextButton) Advance(_ RunState, page Page) Step {
	return Step{Keep: page.Records, Next: page.Next, Done: page.Next == ""}
}
