package shopback

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

type BrowserOptions struct {
	// RemoteURL is the DevTools endpoint of an already running, logged in
	// Chrome (http://127.0.0.1:9222 or a ws:// debugger url). a new
	// browser is launched when it is empty.
	RemoteURL   string
	Headless    bool
	UserDataDir string
}

// Browser drives a single tab of a Chrome instance.
type Browser struct {
	ctx    context.Context
	cancel func()
}

// NewBrowser starts or attaches to Chrome. the tab lives until Close,
// cancelling ctx after NewBrowser returns only aborts the actions running
// under it so a final snapshot can still be taken.
func NewBrowser(ctx context.Context, opts BrowserOptions) (*Browser, error) {
	parent := ctx
	ctx = context.WithoutCancel(ctx)

	var allocCtx context.Context
	var cancelAlloc context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, opts.RemoteURL)
	} else {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
		if opts.UserDataDir != "" {
			allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
		}
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, allocOpts...)
	}

	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		slog.Debug(fmt.Sprintf(format, args...), "component", "chromedp")
	}))

	closeAll := func() {
		cancelTab()
		cancelAlloc()
	}

	// starts the browser or attaches to it.
	stop := context.AfterFunc(parent, closeAll)
	err := chromedp.Run(tabCtx)
	if !stop() || err != nil {
		closeAll()
		if err == nil {
			err = parent.Err()
		}
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &Browser{
		ctx:    tabCtx,
		cancel: closeAll,
	}, nil
}

func (b *Browser) Close() {
	b.cancel()
}

// run executes actions on the tab, aborting them when ctx is done.
func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func jsString(s string) string {
	encoded, _ := json.Marshal(s)
	return string(encoded)
}

func (b *Browser) Open(ctx context.Context, url string) error {
	ctx, span := tracer.Start(ctx, "browser:Open")
	defer span.End()

	return b.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (b *Browser) ScrollToBottom(ctx context.Context) error {
	return b.run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.documentElement.scrollHeight)`, nil))
}

func (b *Browser) ScrollToTop(ctx context.Context) error {
	return b.run(ctx, chromedp.Evaluate(`window.scrollTo(0, 0)`, nil))
}

func (b *Browser) ScrollHeight(ctx context.Context) (int64, error) {
	var height int64
	err := b.run(ctx, chromedp.Evaluate(`document.documentElement.scrollHeight`, &height))
	return height, err
}

// HTML is the serialized DOM as currently rendered.
func (b *Browser) HTML(ctx context.Context) (string, error) {
	var html string
	err := b.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (b *Browser) Document(ctx context.Context) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "browser:Document")
	defer span.End()

	html, err := b.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (b *Browser) HasSelector(ctx context.Context, selector string) (bool, error) {
	var found bool
	err := b.run(ctx, chromedp.Evaluate(
		fmt.Sprintf(`document.querySelector(%s) !== null`, jsString(selector)),
		&found,
	))
	return found, err
}

// ClickNext presses the first enabled button among `selector` whose text
// or aria-label is one of `labels`. it reports false when there is none.
func (b *Browser) ClickNext(ctx context.Context, selector string, labels []string) (bool, error) {
	encodedLabels, err := json.Marshal(labels)
	if err != nil {
		return false, err
	}
	script := fmt.Sprintf(`(() => {
	const labels = %s;
	const button = Array.from(document.querySelectorAll(%s)).find(b =>
		labels.includes(b.textContent.trim()) || labels.includes(b.getAttribute('aria-label')));
	if (!button || button.disabled) {
		return false;
	}
	button.click();
	return true;
})()`, encodedLabels, jsString(selector))

	var clicked bool
	err = b.run(ctx, chromedp.Evaluate(script, &clicked))
	return clicked, err
}

// ExpandRows clicks every ledger row that has no detail row below it yet
// and waits `settle` for the details to render. it returns how many rows
// were clicked.
func (b *Browser) ExpandRows(ctx context.Context, rowSelector, yearRowClass, detailSelector string, settle time.Duration) (int, error) {
	ctx, span := tracer.Start(ctx, "browser:ExpandRows")
	defer span.End()

	script := fmt.Sprintf(`(() => {
	let clicked = 0;
	for (const row of document.querySelectorAll(%s)) {
		if (row.classList.contains(%s) || row.querySelectorAll(':scope > td').length < 4) {
			continue;
		}
		const next = row.nextElementSibling;
		if (next && next.querySelector(%s)) {
			continue;
		}
		row.click();
		clicked++;
	}
	return clicked;
})()`, jsString(rowSelector), jsString(yearRowClass), jsString(detailSelector))

	var clicked int
	err := b.run(ctx,
		chromedp.Evaluate(script, &clicked),
		chromedp.Sleep(settle),
	)
	return clicked, err
}

// scrollSurface exposes the page's scroll height as a growing surface.
type scrollSurface struct {
	browser *Browser
}

func (s scrollSurface) Advance(ctx context.Context) error {
	return s.browser.ScrollToBottom(ctx)
}

func (s scrollSurface) Metric(ctx context.Context) (int64, error) {
	return s.browser.ScrollHeight(ctx)
}

func (s scrollSurface) Rewind(ctx context.Context) error {
	return s.browser.ScrollToTop(ctx)
}
