package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/opensox/paygate/internal/interfaces/cli/migrate"
	"github.com/opensox/paygate/internal/interfaces/cli/server"
	"github.com/opensox/paygate/internal/interfaces/cli/token"
	"github.com/opensox/paygate/internal/interfaces/cli/worker"
	"github.com/opensox/paygate/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "paygate",
		Short:   "paygate - payment webhook gateway",
		Long:    `paygate verifies payment provider webhooks, records payments, activates subscriptions and guards its routes with an IP ban list and rate limits.`,
		Version: version.Get().Version,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		worker.NewCommand(),
		migrate.NewCommand(),
		token.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
