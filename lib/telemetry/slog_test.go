package telemetry

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlogHandlerLevels(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(newSlogHandler(&out, false))
	logger.Debug("hidden page", "page", 1)
	logger.Info("export complete", "source", "cashback", "records", 3)

	require.NotContains(t, out.String(), "hidden page")
	require.Contains(t, out.String(), "export complete")
	require.Contains(t, out.String(), "source=cashback")
	// buffers are not terminals, so no escape codes.
	require.NotContains(t, out.String(), "\x1b[")

	out.Reset()
	logger = slog.New(newSlogHandler(&out, true))
	logger.Debug("fetched page", "page", 2)
	require.Contains(t, out.String(), "fetched page")
	require.Contains(t, out.String(), "slog_test.go")
}
