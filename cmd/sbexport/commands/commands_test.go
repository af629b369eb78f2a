package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sbexport/lib/export"
	"sbexport/services/exporter"
	"testing"

	"github.com/stretchr/testify/require"
)

func withFlags(t *testing.T, config, out, outFormat string) {
	prevConfig, prevOut, prevFormat := *configPath, *outDir, *format
	*configPath, *outDir, *format = config, out, outFormat
	t.Cleanup(func() {
		*configPath, *outDir, *format = prevConfig, prevOut, prevFormat
	})
}

func TestLoadConfigLayers(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(cookieEnv, "")

	require.NoError(t, os.WriteFile("sbexport.json5", []byte(`{
		// shared settings
		outDir: "exports",
		format: "json",
		cookie: "from-config",
	}`), 0600))
	require.NoError(t, os.WriteFile("sbexport.local.json5", []byte(`{format: "csv"}`), 0600))
	require.NoError(t, os.WriteFile(".env", []byte("SHOPBACK_COOKIE=from-dotenv\n"), 0600))
	os.Unsetenv(cookieEnv)

	withFlags(t, "sbexport.json5", "", "")
	cfg, err := loadConfig()
	require.NoError(t, err)
	require.Equal(t, "exports", cfg.OutDir)
	require.Equal(t, "csv", cfg.Format)
	require.Equal(t, "from-dotenv", cfg.Cookie)

	withFlags(t, "sbexport.json5", filepath.Join(dir, "flag"), "sqlite")
	cfg, err = loadConfig()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "flag"), cfg.OutDir)

	service, err := cfg.service()
	require.NoError(t, err)
	require.Equal(t, export.FormatSQLite, service.Format)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(cookieEnv, "")

	withFlags(t, "sbexport.json5", "", "")
	cfg, err := loadConfig()
	require.NoError(t, err)

	service, err := cfg.service()
	require.NoError(t, err)
	require.Equal(t, ".", service.Writer.Dir)
	require.Empty(t, service.Format)

	_, err = cfg.client()
	require.ErrorContains(t, err, cookieEnv)

	cfg.Format = "xml"
	_, err = cfg.service()
	require.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, []exporter.Result{
		{Source: "cashback", Pages: 3, Records: 42, Path: "cashback_transactions_in.json"},
		{Source: "payments", Pages: 2, Records: 4, Path: "partial_cashback_transactions_out.json", Partial: true, Err: errors.New("503")},
	})
	require.Contains(t, out.String(), "cashback_transactions_in.json")
	require.Contains(t, out.String(), "complete")
	require.Contains(t, out.String(), "partial")
}

func TestExecuteReturnsExitCode(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(cookieEnv, "")
	withFlags(t, "sbexport.json5", "", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	// no cookie, the command fails without exiting the process.
	rootCmd.SetArgs([]string{"cashback"})
	require.Equal(t, 1, ExecuteContext(context.Background()))

	rootCmd.SetArgs([]string{"--help"})
	require.Equal(t, 0, ExecuteContext(context.Background()))
}

func TestFirstFailure(t *testing.T) {
	broken := errors.New("503")
	require.NoError(t, firstFailure([]exporter.Result{{Source: "cashback"}}))

	err := firstFailure([]exporter.Result{
		{Source: "cashback"},
		{Source: "payments", Err: broken},
	})
	require.ErrorIs(t, err, broken)
	require.ErrorContains(t, err, "payments")
}
