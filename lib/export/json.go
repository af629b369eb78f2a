package export

import (
	"encoding/json"
	"io"
	"sbexport/lib/record"
)

// JSON writes the records as an indented array, in order and unchanged.
func JSON(w io.Writer, records []record.Record) error {
	if records == nil {
		records = []record.Record{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(records)
}
