package cmd

import (
	"github.com/spf13/cobra"

	"github.com/brentspine/discord-ticketbot/internal/config"
	"github.com/brentspine/discord-ticketbot/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return database.MigrateUp(cfg.DatabaseURL())
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
