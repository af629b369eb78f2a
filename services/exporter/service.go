package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sbexport/lib/export"
	"sbexport/lib/paginate"
	"sbexport/lib/record"
	"sbexport/lib/scrapers/shopback"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Service struct {
	Writer export.Writer
	// Format overrides every source's own output format when set.
	Format export.Format
	// Sleep replaces the wait between pages, nil uses the real clock.
	Sleep func(ctx context.Context, d time.Duration) error
}

type Result struct {
	Source  string
	RunID   string
	Records int
	Pages   int
	// Path is empty when nothing was written.
	Path    string
	Partial bool
	Err     error
}

func (r Result) Status() string {
	switch {
	case r.Path == "" && r.Err != nil:
		return "failed"
	case r.Path == "":
		return "empty"
	case r.Partial:
		return "partial"
	}
	return "complete"
}

func (s Service) format(source shopback.Source) export.Format {
	if s.Format != "" {
		return s.Format
	}
	return source.Format
}

// Export runs one source to completion and writes its output file. a
// run that fails part way still writes what it gathered, under a
// partial_ name, and reports the error in the result.
func (s Service) Export(ctx context.Context, source shopback.Source) Result {
	runId := uuid.NewString()
	ctx, span := tracer.Start(ctx, "exporter:Export", trace.WithAttributes(
		attribute.String("source", source.Name),
		attribute.String("run_id", runId),
	))
	defer span.End()

	result := Result{Source: source.Name, RunID: runId}
	logger := slog.With("source", source.Name, "run_id", runId)

	defer func() {
		runCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source", source.Name),
			attribute.String("status", result.Status()),
		))
		if result.Err != nil {
			span.RecordError(result.Err)
			span.SetStatus(codes.Error, result.Err.Error())
		}
	}()

	logger.InfoContext(ctx, "starting export")

	if source.Prepare != nil {
		err := source.Prepare(ctx)
		if err != nil {
			result.Err = fmt.Errorf("prepare %s: %w", source.Name, err)
			logger.ErrorContext(ctx, "export failed before the first page", "err", err)
			return result
		}
	}

	driver := paginate.Driver{
		Name:     source.Name,
		Delay:    source.Delay,
		MaxPages: source.MaxPages,
		Sleep:    s.Sleep,
	}
	state, runErr := driver.Run(ctx, source.Strategy)
	result.Pages = state.Pages
	result.Records = len(state.Records)
	result.Err = runErr

	if len(state.Records) == 0 {
		if runErr != nil {
			logger.ErrorContext(ctx, "export failed, no records to write", "pages", state.Pages, "err", runErr)
			return result
		}
		logger.InfoContext(ctx, "no records found, nothing written", "pages", state.Pages)
		return result
	}

	format := s.format(source)
	records := state.Records
	schema := source.Schema
	if format != export.FormatJSON && source.Project != nil {
		projected := make([]record.Record, len(records))
		for i, r := range records {
			projected[i] = source.Project(r)
		}
		records = projected
	}

	// a cancelled run still gets its partial file.
	path, err := s.Writer.Write(context.WithoutCancel(ctx), export.Export{
		Source:  source.Name,
		RunID:   runId,
		Base:    source.Base,
		Format:  format,
		Partial: state.Incomplete,
		Schema:  schema,
		Table:   source.Table,
		Records: records,
	})
	if err != nil {
		result.Err = errors.Join(runErr, fmt.Errorf("write %s export: %w", source.Name, err))
		logger.ErrorContext(ctx, "failed to write export", "err", err)
		return result
	}
	result.Path = path
	result.Partial = state.Incomplete

	if state.Incomplete {
		logger.WarnContext(ctx, "exported partial data",
			"path", path,
			"records", len(records),
			"pages", state.Pages,
			"err", runErr,
		)
		return result
	}
	logger.InfoContext(ctx, "export complete",
		"path", path,
		"records", len(records),
		"pages", state.Pages,
		"total", state.Total,
	)
	return result
}

// ExportAll exports the sources one after another and stops at the first
// one that fails, later sources are not attempted.
func (s Service) ExportAll(ctx context.Context, sources []shopback.Source) []Result {
	var results []Result
	for _, source := range sources {
		result := s.Export(ctx, source)
		results = append(results, result)
		if result.Err != nil {
			break
		}
	}
	return results
}
