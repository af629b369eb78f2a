package main

import (
	"context"
	"log/slog"
	"os"
	"sbexport/cmd/sbexport/commands"
	"sbexport/lib/telemetry"
	"sbexport/lib/util/serviceutil"
	"time"
)

func main() {
	ctx := serviceutil.SignalContext()

	tel, err := telemetry.SetupFromEnv(ctx, "sbexport")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	if tel.Enabled() {
		telemetry.InstrumentPerfStats(ctx, 5*time.Second)
	}

	code := commands.ExecuteContext(ctx)

	// flushes spans and metrics of failed runs too.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = tel.Shutdown(shutdownCtx)
	cancel()
	if err != nil {
		slog.Warn("failed to flush telemetry", "err", err)
	}

	os.Exit(code)
}
