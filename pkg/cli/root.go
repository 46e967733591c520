// Package cli implements the dealquery command line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "dealquery",
		Short:         "Natural-language deal queries against a relational store",
		Long:          "dealquery answers free-form price and deal questions by selecting relevant tables semantically, planning joins, executing a validated step plan, and shaping the results.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file to load before reading the environment")

	rootCmd.AddCommand(newCatalogCmd(&envFile))
	rootCmd.AddCommand(newPlanCmd(&envFile))
	rootCmd.AddCommand(newQueryCmd(&envFile))

	return rootCmd
}
