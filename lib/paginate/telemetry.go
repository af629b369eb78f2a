package paginate

import (
	"sbexport/lib/telemetry"
)

var tracer = telemetry.Tracer("sbexport.lib.paginate")
var meter = telemetry.Meter("sbexport.lib.paginate")

var pageCounter, _ = meter.Int64Counter("paginate.pages")
var recordCounter, _ = meter.Int64Counter("paginate.records")
var duplicateCounter, _ = meter.Int64Counter("paginate.boundary_duplicates")
