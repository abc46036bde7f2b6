package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkordes/tripmate/internal/database"
)

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "migrate the shared Postgres schema",
		Long: `migrate applies (--up) or rolls back one step of (--down) the Postgres
schema behind the shared tier. The local SQLite schema migrates itself on open.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			up, _ := cmd.Flags().GetBool("up")
			down, _ := cmd.Flags().GetBool("down")
			if cmd.Flags().Changed("down") && !cmd.Flags().Changed("up") {
				up = false
			}
			if up == down {
				return errors.New("exactly one of --up or --down is required")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required to migrate")
			}
			logger := newLogger(os.Stdout, cfg.LogLevel)

			dir := database.Up
			if down {
				dir = database.Down
			}
			versions, err := database.MigratePostgres(cmd.Context(), cfg.DatabaseURL, dir)
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				logger.Info("schema already up to date")
			}
			for _, v := range versions {
				logger.Info("migration applied", "version", v, "down", down)
			}
			return nil
		},
	}

	cmd.Flags().BoolP("up", "u", true, "apply every pending migration")
	cmd.Flags().BoolP("down", "d", false, "roll back the most recent migration")

	return cmd
}
