package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"eixo/internal/backend"
	"eixo/internal/cli"
	"eixo/internal/services"
	"eixo/internal/session"
)

func premiumCmd() *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:   "premium <email>",
		Short: "Grant or revoke the premium plan",
		Long: `Set the premium flag of the account registered with <email>.
Open sessions keep their current plan until the next login.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()
			cfg := cli.LoadAndValidateConfig(logger)
			if backend.BackendType(cfg.DataBackend) == backend.MemoryBackend {
				return fmt.Errorf("the memory backend does not outlive the server process")
			}

			bcfg := backend.FromAppConfig(cfg)
			bcfg.AMQPURL = ""
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
			if err != nil {
				return err
			}
			defer result.Cleanup()

			accounts := services.NewAccountService(result.Repository, session.NewStore(1, time.Minute), logger)
			u, err := accounts.SetPremiumByEmail(ctx, args[0], !off)
			if err != nil {
				return err
			}

			plan := "free"
			if u.Premium {
				plan = "premium"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now on the %s plan\n", u.Email, plan)
			return nil
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "revoke premium instead of granting it")
	return cmd
}
