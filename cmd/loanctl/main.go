// Package main is the catalog maintenance CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"loan-comparison-engine/internal/app"
	"loan-comparison-engine/internal/config"
	"loan-comparison-engine/internal/utils"
)

var (
	version = "dev"
	cfg     *config.Config
	rootCmd = &cobra.Command{
		Use:   "loanctl",
		Short: "Manage the loan product catalog",
		Long: `loanctl maintains the loan product catalog used by the comparison
and eligibility API: create the schema, seed the default banks, import or
export CSV catalogs and list what is currently stored.

Connection settings are read from the environment (or a .env file).`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(compareCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	utils.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg = loaded

	level := cfg.LogLevel
	if flagLevel, _ := cmd.Flags().GetString("log-level"); flagLevel != "" {
		level = flagLevel
	}
	if err := utils.InitLogger(level); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

// openApp connects to the configured backing services.
func openApp(cmd *cobra.Command) (*app.App, error) {
	return app.New(cmd.Context(), cfg)
}
