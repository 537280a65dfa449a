package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/brentspine/discord-ticketbot/internal/application"
	"github.com/brentspine/discord-ticketbot/internal/config"
	"github.com/brentspine/discord-ticketbot/internal/gateway"
)

// One-shot maintenance commands, useful when the periodic schedulers are
// down or a run is needed out of cadence.

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one escalation sweep and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		app, err := application.New(cmd.Context(), cfg, gateway.NewLogNotifier())
		if err != nil {
			return err
		}
		sum := app.Sweeper().RunOnce(cmd.Context())
		log.Printf("sweep: %s", sum)
		return nil
	},
}

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Run one bin consolidation pass and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		app, err := application.New(cmd.Context(), cfg, gateway.NewLogNotifier())
		if err != nil {
			return err
		}
		app.Consolidator().RunOnce(cmd.Context())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(consolidateCmd)
}
