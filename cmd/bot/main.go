package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	appconfig "github.com/prestamax/chatbot/internal/config"
	"github.com/prestamax/chatbot/internal/server"
	"github.com/prestamax/chatbot/pkg/config"
	"github.com/prestamax/chatbot/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A local .env is a development convenience; absence is normal in
	// deployed environments.
	_ = godotenv.Load()

	var cfg appconfig.AppConfig
	configFile := os.Getenv("CONFIG_FILE")
	if err := config.GetConfig(&cfg, configFile, configFile == ""); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.NewLogger(logger.Config{
		Level:   logger.ParseLevel(cfg.Logging.Level),
		Format:  cfg.Logging.Format,
		Service: cfg.ServiceName,
	})

	log.Info("Starting bot",
		logger.StringField("service", cfg.ServiceName),
		logger.StringField("version", cfg.Version),
		logger.StringField("environment", cfg.Environment))

	s, err := server.New(context.Background(), &cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	return s.Run()
}
