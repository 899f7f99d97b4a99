package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"salon-booking-backend/internal/analytics"
	"salon-booking-backend/internal/clock"
	"salon-booking-backend/internal/db"
	"salon-booking-backend/internal/reservation"
	"salon-booking-backend/internal/store"
)

func newSweepCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired holds once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg, err := load(logger)
			if err != nil {
				return err
			}
			gormDB, err := db.Open(&cfg.Database)
			if err != nil {
				return err
			}

			appStore := store.NewGormStore(gormDB)
			engine := reservation.New(appStore, clock.Real{}, nil, analytics.NewStoreRecorder(), reservation.WithLogger(logger))
			defer engine.Close()

			n, err := engine.CleanupExpiredHolds(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleaned %d expired holds\n", n)
			return nil
		},
	}
}

func newMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg, err := load(logger)
			if err != nil {
				return err
			}
			if _, err := db.Init(&cfg.Database); err != nil {
				return err
			}
			logger.Println("migrations applied")
			return nil
		},
	}
}
