package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"salon-booking-backend/internal/analytics"
	"salon-booking-backend/internal/api"
	"salon-booking-backend/internal/clock"
	"salon-booking-backend/internal/db"
	"salon-booking-backend/internal/reservation"
	"salon-booking-backend/internal/store"
)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the hold sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg, err := load(logger)
			if err != nil {
				return err
			}

			gormDB, err := db.Init(&cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			logger.Println("database initialized successfully")

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			appStore := store.NewGormStore(gormDB)

			sinks := []analytics.Sink{analytics.LogSink{Logger: logger}}
			if cfg.Analytics.AMQPURL != "" {
				amqpSink, err := analytics.NewAMQPSink(cfg.Analytics.AMQPURL, cfg.Analytics.AMQPQueue)
				if err != nil {
					logger.Printf("Warning: %v. Hold events will only be logged.", err)
				} else {
					defer amqpSink.Close()
					sinks = append(sinks, amqpSink)
				}
			}
			publisher := analytics.NewPublisher(cfg.Analytics.WorkerPoolSize, cfg.Analytics.QueueSize, sinks...)
			publisher.Start(ctx)

			engine := reservation.New(
				appStore,
				clock.Real{},
				reservation.NewWorkingHours(appStore, cfg.Reservation.Location, cfg.Reservation.AvailabilityCache),
				analytics.NewStoreRecorder(),
				reservation.WithHoldDuration(cfg.Reservation.HoldDuration),
				reservation.WithPublisher(publisher),
				reservation.WithLogger(logger),
			)
			defer engine.Close()

			// the first sweep reclaims holds whose timers died with the previous process
			sweeper := reservation.NewSweeper(engine, cfg.Reservation.SweepInterval)
			go sweeper.Run(ctx)

			router := api.NewRouter(api.NewHandler(engine, appStore, cfg.Server.SessionHeader), &cfg.Server)
			server := &http.Server{
				Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
				Handler: router,
			}

			serveErr := make(chan error, 1)
			go func() {
				logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
			}()

			select {
			case <-ctx.Done():
				logger.Println("Shutdown signal received, stopping services...")
			case err := <-serveErr:
				return fmt.Errorf("HTTP server ListenAndServe: %w", err)
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("HTTP server Shutdown: %w", err)
			}
			publisher.Wait()

			logger.Println("Server gracefully stopped")
			return nil
		},
	}
}
