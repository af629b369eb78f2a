package timezone

import (
	"time"
	_ "time/tzdata"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Australia/Sydney")
	if err != nil {
		panic(err)
	}
}

// the account pages render dates in Sydney time regardless of where
// the exporter runs.
func Now() time.Time {
	return time.Now().In(Location)
}

// CurrentYear is the store-local year as rendered in ledger headings.
func CurrentYear() string {
	return Now().Format("2006")
}

// Cursor renders t the way the order-history endpoint expects its
// `before` parameter, a UTC ISO timestamp with milliseconds.
func Cursor(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
