package export

import (
	"bufio"
	"io"
	"sbexport/lib/record"
	"strings"
)

func quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func csvField(schema record.Schema, name, value string) string {
	if schema.IsFreeText(name) || strings.ContainsAny(value, ",\"\r\n") {
		return quote(value)
	}
	return value
}

// CSV writes a header row in schema order followed by one line per
// record. free text fields are always quoted, others only when they would
// otherwise break the row.
func CSV(w io.Writer, schema record.Schema, records []record.Record) error {
	buf := bufio.NewWriter(w)

	header := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		header[i] = csvField(record.Schema{}, f, f)
	}
	_, err := buf.WriteString(strings.Join(header, ",") + "\n")
	if err != nil {
		return err
	}

	for _, r := range records {
		row := schema.Row(r)
		for i, value := range row {
			row[i] = csvField(schema, schema.Fields[i], value)
		}
		_, err = buf.WriteString(strings.Join(row, ",") + "\n")
		if err != nil {
			return err
		}
	}
	return buf.Flush()
}
