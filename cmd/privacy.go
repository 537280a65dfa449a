package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/brentspine/discord-ticketbot/internal/config"
	"github.com/brentspine/discord-ticketbot/internal/database"
	"github.com/brentspine/discord-ticketbot/internal/store"
)

var privacyCmd = &cobra.Command{
	Use:   "privacy <supporter-id> <true|false>",
	Short: "Hide or show a supporter in the published stats digests",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hide, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("second argument must be true or false: %w", err)
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		db, err := database.Open(cfg.DSN())
		if err != nil {
			return err
		}
		return store.New(db).SetHideStats(cmd.Context(), args[0], hide)
	},
}

func init() {
	rootCmd.AddCommand(privacyCmd)
}
