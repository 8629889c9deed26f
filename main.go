package main

import (
	stdlog "log"
	"os"

	"github.com/joho/godotenv"

	"github.com/pinpon/datapipe/cmd"
	"github.com/pinpon/datapipe/internal/config"
	"github.com/pinpon/datapipe/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		stdlog.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load configuration
	cfg := config.Load()

	// Initialize logger with configuration
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}

	log := logger.WithComponent("main")
	log.Debug().Msg("Starting DataPipe CLI")

	cmd.Execute(cfg)

	log.Debug().Msg("DataPipe CLI shutdown")
	os.Exit(0)
}
