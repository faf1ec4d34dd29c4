package main

import (
	"child-growth-go/internal/config"
	"child-growth-go/internal/db"
	"child-growth-go/pkg/logger"
	"github.com/spf13/cobra"
)

func newMigrateCmd(log logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(log)
		},
	}
}

func runMigrations(log logger.Logger) error {
	cfg, err := config.Load(log)
	if err != nil {
		return err
	}

	conn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	applied, err := db.Migrate(conn, log)
	if err != nil {
		return err
	}
	log.Info("db: migrations complete", "applied", len(applied))
	return nil
}
