package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"salon-booking-backend/config"
)

func main() {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "salond",
		Short:        "Salon slot reservation service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CONFIG_PATH or ./config/config.yaml)")

	load := func(logger *log.Logger) (*config.Config, error) {
		path := configPath
		if path == "" {
			path = os.Getenv("CONFIG_PATH")
		}
		if path == "" {
			path = "./config/config.yaml" // Default path for local development
		}
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
		}
		logger.Printf("configuration loaded successfully from %s", path)
		return cfg, nil
	}

	root.AddCommand(newServeCmd(load))
	root.AddCommand(newSweepCmd(load))
	root.AddCommand(newMigrateCmd(load))
	return root
}

type configLoader func(logger *log.Logger) (*config.Config, error)

func newLogger() *log.Logger {
	return log.New(os.Stdout, "salond ", log.LstdFlags)
}
