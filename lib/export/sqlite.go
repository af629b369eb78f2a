package export

import (
	"context"
	"database/sql"
	"fmt"
	"sbexport/lib/record"
	"strings"
	"time"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed sqlite_meta.sql
var metaSchema string

// RunInfo is stored alongside the records of an SQLite export.
type RunInfo struct {
	RunID      string
	Source     string
	Partial    bool
	ExportedAt time.Time
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// SQLite writes the records into `table` of a new database at path, one
// text column per schema field, plus a row describing the run.
func SQLite(ctx context.Context, path, table string, schema record.Schema, records []record.Record, info RunInfo) error {
	if schema.IsZero() {
		return fmt.Errorf("table %s has no columns", table)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, metaSchema)
	if err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}

	columns := make([]string, len(schema.Fields))
	placeholders := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		columns[i] = quoteIdent(f)
		placeholders[i] = "?"
	}

	_, err = tx.ExecContext(ctx, fmt.Sprintf(
		"create table %s (%s text)",
		quoteIdent(table),
		strings.Join(columns, " text, "),
	))
	if err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}

	insert, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"insert into %s (%s) values (%s)",
		quoteIdent(table),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	))
	if err != nil {
		return err
	}
	defer insert.Close()

	for i, r := range records {
		row := schema.Row(r)
		args := make([]any, len(row))
		for j, v := range row {
			args[j] = v
		}
		_, err = insert.ExecContext(ctx, args...)
		if err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	partial := 0
	if info.Partial {
		partial = 1
	}
	_, err = tx.ExecContext(ctx,
		"insert into export_runs (run_id, source, record_table, record_count, partial, exported_at) values (?, ?, ?, ?, ?, ?)",
		info.RunID, info.Source, table, len(records), partial, info.ExportedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	return tx.Commit()
}
