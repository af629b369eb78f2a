package shopback

import (
	"sbexport/lib/restyutil"
	"sbexport/lib/telemetry"
)

var tracer = telemetry.Tracer("sbexport.lib.scrapers.shopback")
var meter = telemetry.Meter("sbexport.lib.scrapers.shopback")

var skippedRowCounter, _ = meter.Int64Counter("shopback.skipped_rows")

var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput makes clients created afterwards dump every
// request/response pair to `out`.
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
