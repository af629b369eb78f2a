package paginate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sbexport/lib/poll"
	"sbexport/lib/record"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const DefaultMaxPages = 100

// Driver walks a Strategy page by page. runs are sequential, one fetch
// at a time with Delay between consecutive fetches.
type Driver struct {
	// Name labels logs, spans and metrics.
	Name     string
	Delay    time.Duration
	MaxPages int
	// Sleep defaults to poll.Sleep, tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Run fetches pages until the strategy is done, MaxPages is reached or a
// fetch fails. on failure the state gathered so far is returned, marked
// Incomplete, together with the error.
func (d Driver) Run(ctx context.Context, s Strategy) (RunState, error) {
	ctx, span := tracer.Start(ctx, "paginate:run", trace.WithAttributes(
		attribute.String("source", d.Name),
	))
	defer span.End()

	maxPages := d.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	sleep := d.Sleep
	if sleep == nil {
		sleep = poll.Sleep
	}
	attrs := metric.WithAttributes(attribute.String("source", d.Name))

	state := RunState{Token: s.Start()}
	for !state.Done {
		if state.Pages >= maxPages {
			slog.InfoContext(ctx, "page limit reached", "source", d.Name, "pages", state.Pages)
			state.Done = true
			break
		}

		if state.Pages > 0 {
			err := sleep(ctx, d.Delay)
			if err != nil {
				return d.fail(ctx, span, s, state, err, true)
			}
		}

		page, err := d.fetch(ctx, s, state)
		if err != nil {
			d.accumulate(ctx, &state, page.Records, attrs)
			return d.fail(ctx, span, s, state, fmt.Errorf("page %d: %w", state.Pages+1, err), true)
		}
		state.Pages++
		pageCounter.Add(ctx, 1, attrs)

		if state.Total == 0 && page.Total > 0 {
			state.Total = page.Total
			slog.InfoContext(ctx, "source reported total", "source", d.Name, "total", state.Total)
		}

		step := s.Advance(state, page)
		d.accumulate(ctx, &state, step.Keep, attrs)
		slog.DebugContext(ctx, "page done",
			"source", d.Name,
			"page", state.Pages,
			"fetched", len(page.Records),
			"accumulated", len(state.Records),
		)
		if step.Done {
			state.Done = true
			break
		}
		state.Token = step.Next
	}

	finisher, ok := s.(Finisher)
	if ok {
		records, err := finisher.Finish(ctx)
		d.accumulate(ctx, &state, records, attrs)
		if err != nil {
			return d.fail(ctx, span, s, state, fmt.Errorf("finish: %w", err), false)
		}
	}

	span.SetAttributes(
		attribute.Int("pages", state.Pages),
		attribute.Int("records", len(state.Records)),
	)
	return state, nil
}

func (d Driver) fetch(ctx context.Context, s Strategy, state RunState) (Page, error) {
	ctx, span := tracer.Start(ctx, "paginate:fetch", trace.WithAttributes(
		attribute.String("source", d.Name),
		attribute.Int("page", state.Pages+1),
	))
	defer span.End()

	page, err := s.Fetch(ctx, state.Token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Int("records", len(page.Records)))
	return page, err
}

func (d Driver) accumulate(ctx context.Context, state *RunState, records []record.Record, attrs metric.MeasurementOption) {
	kept, dropped := state.append(records)
	recordCounter.Add(ctx, int64(kept), attrs)
	if dropped > 0 {
		duplicateCounter.Add(ctx, int64(dropped), attrs)
		slog.DebugContext(ctx, "dropped boundary duplicate", "source", d.Name, "page", state.Pages)
	}
}

func (d Driver) fail(ctx context.Context, span trace.Span, s Strategy, state RunState, err error, finish bool) (RunState, error) {
	if finisher, ok := s.(Finisher); ok && finish {
		// the run context may already be cancelled, the snapshot is still
		// worth taking.
		records, finishErr := finisher.Finish(context.WithoutCancel(ctx))
		state.append(records)
		if finishErr != nil {
			err = errors.Join(err, fmt.Errorf("finish: %w", finishErr))
		}
	}

	state.Incomplete = true
	state.Err = err

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	slog.WarnContext(ctx, "run stopped early",
		"source", d.Name,
		"pages", state.Pages,
		"records", len(state.Records),
		"err", err,
	)
	return state, err
}
