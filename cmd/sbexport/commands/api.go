package commands

import (
	"fmt"
	"sbexport/lib/scrapers/shopback"
	"sbexport/lib/timezone"
	"sbexport/services/exporter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cashbackCmd, paymentsCmd, ordersCmd, allCmd)
}

type apiSources func(cfg Config, client *shopback.Client) ([]shopback.Source, error)

// runApi exports sources that only need the session cookie.
func runApi(cmd *cobra.Command, build apiSources) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	service, err := cfg.service()
	if err != nil {
		return fmt.Errorf("invalid output options: %w", err)
	}
	client, err := cfg.client()
	if err != nil {
		return fmt.Errorf("create shopback client: %w", err)
	}
	sources, err := build(cfg, client)
	if err != nil {
		return fmt.Errorf("configure sources: %w", err)
	}

	results := service.ExportAll(cmd.Context(), sources)
	printSummary(cmd.OutOrStdout(), results)
	return firstFailure(results)
}

func single(source func(*shopback.Client) shopback.Source) apiSources {
	return func(_ Config, client *shopback.Client) ([]shopback.Source, error) {
		return []shopback.Source{source(client)}, nil
	}
}

func orderSources(cfg Config, client *shopback.Client) ([]shopback.Source, error) {
	fm, err := cfg.fieldMap()
	if err != nil {
		return nil, err
	}
	return []shopback.Source{shopback.OrdersSource(client, fm, timezone.Now())}, nil
}

func allSources(cfg Config, client *shopback.Client) ([]shopback.Source, error) {
	orders, err := orderSources(cfg, client)
	if err != nil {
		return nil, err
	}
	return append([]shopback.Source{
		shopback.CashbackSource(client),
		shopback.PaymentsSource(client),
	}, orders...), nil
}

var cashbackCmd = &cobra.Command{
	Use:   "cashback",
	Short: "Exports cashback earned to cashback_transactions_in.json.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApi(cmd, single(shopback.CashbackSource))
	},
}

var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Exports cashback withdrawals to cashback_transactions_out.json.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApi(cmd, single(shopback.PaymentsSource))
	},
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "Exports the order history to shopback_order_history.json.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApi(cmd, orderSources)
	},
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Exports cashback, payments and orders in sequence, stopping at the first failure.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApi(cmd, allSources)
	},
}

// firstFailure is the error of the first source that did not complete.
func firstFailure(results []exporter.Result) error {
	for _, r := range results {
		if r.Err != nil {
			return fmt.Errorf("%s export did not complete: %w", r.Source, r.Err)
		}
	}
	return nil
}
