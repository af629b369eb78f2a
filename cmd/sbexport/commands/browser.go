package commands

import (
	"fmt"
	"sbexport/lib/scrapers/shopback"
	"sbexport/services/exporter"

	"github.com/spf13/cobra"
)

var chromeUrl *string
var pageUrl *string

func init() {
	for _, cmd := range []*cobra.Command{ordersScrollCmd, ledgerCmd} {
		rootCmd.AddCommand(cmd)
	}
	flags := rootCmd.PersistentFlags()
	chromeUrl = flags.String("chrome-url", "", "The DevTools url of a running, logged in chrome (ex. http://127.0.0.1:9222).")
	pageUrl = flags.String("page-url", "", "Override the page the dom sources open.")
}

type pageSource func(b *shopback.Browser, opts shopback.PageOptions) shopback.Source

func runPage(cmd *cobra.Command, path string, build pageSource) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	service, err := cfg.service()
	if err != nil {
		return fmt.Errorf("invalid output options: %w", err)
	}
	fm, err := cfg.fieldMap()
	if err != nil {
		return fmt.Errorf("load field map: %w", err)
	}

	browser, err := shopback.NewBrowser(cmd.Context(), cfg.browserOptions(*chromeUrl))
	if err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}
	defer browser.Close()

	opts := shopback.PageOptions{URL: cfg.pageURL(path), FieldMap: fm}
	if *pageUrl != "" {
		opts.URL = *pageUrl
	}

	result := service.Export(cmd.Context(), build(browser, opts))
	printSummary(cmd.OutOrStdout(), []exporter.Result{result})
	return firstFailure([]exporter.Result{result})
}

var ordersScrollCmd = &cobra.Command{
	Use:   "orders-scroll",
	Short: "Exports the rendered order history page to shopback_orders.csv by scrolling it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPage(cmd, "/ecommerce/order-history", shopback.OrdersScrollSource)
	},
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Exports the cashback ledger table to shopback_cashback.csv.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPage(cmd, "/cashback", shopback.LedgerSource)
	},
}
