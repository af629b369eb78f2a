package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sbexport/lib/record"
	"strings"
	"time"
)

type Format string

const (
	FormatCSV    Format = "csv"
	FormatJSON   Format = "json"
	FormatSQLite Format = "sqlite"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatSQLite, "db":
		return FormatSQLite, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

func (f Format) Ext() string {
	return "." + string(f)
}

// Filename is the fixed output name of a source, prefixed with
// "partial_" when the run did not finish.
func Filename(base string, format Format, partial bool) string {
	name := base + format.Ext()
	if partial {
		return "partial_" + name
	}
	return name
}

// Export is everything needed to write one output file.
type Export struct {
	Source  string
	RunID   string
	Base    string
	Format  Format
	Partial bool
	// Schema orders the columns of flat formats, it is inferred from the
	// records when empty.
	Schema record.Schema
	// Table names the SQLite table, it defaults to Source.
	Table   string
	Records []record.Record
}

// Writer places export files in Dir. files are written under a temporary
// name and renamed into place once complete.
type Writer struct {
	Dir string
	Now func() time.Time
}

func (w Writer) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w Writer) Write(ctx context.Context, e Export) (string, error) {
	dir := w.Dir
	if dir == "" {
		dir = "."
	}
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return "", err
	}

	schema := e.Schema
	if schema.IsZero() {
		schema = record.InferSchema(e.Records)
	}
	table := e.Table
	if table == "" {
		table = e.Source
	}

	final := filepath.Join(dir, Filename(e.Base, e.Format, e.Partial))
	tmp, err := os.CreateTemp(dir, ".sbexport-*"+e.Format.Ext())
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	switch e.Format {
	case FormatCSV:
		err = CSV(tmp, schema, e.Records)
	case FormatJSON:
		err = JSON(tmp, e.Records)
	case FormatSQLite:
		err = tmp.Close()
		if err == nil {
			err = SQLite(ctx, tmpName, table, schema, e.Records, RunInfo{
				RunID:      e.RunID,
				Source:     e.Source,
				Partial:    e.Partial,
				ExportedAt: w.now(),
			})
		}
	default:
		err = fmt.Errorf("unknown export format %q", e.Format)
	}
	if e.Format != FormatSQLite {
		closeErr := tmp.Close()
		if err == nil {
			err = closeErr
		}
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", final, err)
	}

	err = os.Rename(tmpName, final)
	if err != nil {
		return "", err
	}
	committed = true

	slog.InfoContext(ctx, "wrote export",
		"source", e.Source,
		"path", final,
		"records", len(e.Records),
		"partial", e.Partial,
	)
	return final, nil
}
