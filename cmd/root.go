package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/brentspine/discord-ticketbot/internal/application"
	"github.com/brentspine/discord-ticketbot/internal/config"
	"github.com/brentspine/discord-ticketbot/internal/gateway"
)

var rootCmd = &cobra.Command{
	Use:   "ticketbot",
	Short: "Support ticket service",
	Long:  "Runs the support ticket system: lifecycle handling, escalation sweeps, bin consolidation, digests and the read API.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := application.New(ctx, cfg, gateway.NewLogNotifier())
		if err != nil {
			return err
		}
		return app.Run(ctx)
	},
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}
