package commands

import (
	"io"
	"sbexport/services/exporter"

	"github.com/jedib0t/go-pretty/v6/table"
)

func printSummary(w io.Writer, results []exporter.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Source", "Status", "Pages", "Records", "File"})
	for _, r := range results {
		t.AppendRow(table.Row{r.Source, r.Status(), r.Pages, r.Records, r.Path})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
