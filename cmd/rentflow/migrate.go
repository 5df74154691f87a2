package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/nurpe/rentflow/internal/config"
	"github.com/nurpe/rentflow/internal/db"
	"github.com/nurpe/rentflow/internal/logger"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(func(database *dbHandle) error {
					if err := db.Migrate(database.db); err != nil {
						return err
					}
					database.log.Info().Msg("migrations applied")
					return nil
				})
			},
		},
		migrateDownCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the applied schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDB(func(database *dbHandle) error {
					version, dirty, err := db.Version(database.db)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
					return nil
				})
			},
		},
	)
	return cmd
}

func migrateDownCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Revert the last migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(database *dbHandle) error {
				if err := db.Rollback(database.db, steps); err != nil {
					return err
				}
				database.log.Info().Int("steps", steps).Msg("migrations reverted")
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of migrations to revert")
	return cmd
}

type dbHandle struct {
	cfg *config.Config
	db  *gorm.DB
	log zerolog.Logger
}

func withDB(fn func(*dbHandle) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(cfg.Environment)
	database, err := db.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	return fn(&dbHandle{cfg: cfg, db: database, log: log})
}
