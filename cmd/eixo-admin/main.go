package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"eixo/internal/cli"
	applog "eixo/internal/log"
)

var logLevel string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "eixo-admin",
		Short:         "Administrative tasks for an EIXO deployment",
		Long:          `Run schema migrations, toggle premium accounts and score quiz answers offline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd())
	root.AddCommand(premiumCmd())
	root.AddCommand(quizCmd())
	return root
}

func main() {
	cli.LoadEnvFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setupLogger() *applog.Logger {
	return cli.SetupLogger(logLevel, "admin")
}
