package exporter

import "sbexport/lib/telemetry"

var tracer = telemetry.Tracer("sbexport.services.exporter")
var meter = telemetry.Meter("sbexport.services.exporter")

var runCounter, _ = meter.Int64Counter("exporter.runs")
