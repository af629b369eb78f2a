package commands

import (
	"context"
	"fmt"
	"os"
	"sbexport/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	outDir     *string
	format     *string
	debug      *bool
	dumpHttp   *bool
)

var rootCmd = &cobra.Command{
	Use:   "sbexport",
	Short: "sbexport exports orders, cashback and payments from a shopback account.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*debug)
	},
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	configPath = flags.String("config", "sbexport.json5", "The config file to read, a sibling .local.json5 overrides it.")
	outDir = flags.StringP("out", "o", "", "The directory to write exports to (default: config outDir or the cwd).")
	format = flags.StringP("format", "f", "", "Override the output format of every source: csv, json or sqlite.")
	debug = flags.Bool("debug", false, "Enable debug logging.")
	dumpHttp = flags.Bool("dump-http", false, "Dump every http request/response to .dev/resty/shopback.")
}

// ExecuteContext runs the cli and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
