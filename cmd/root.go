package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pinpon/datapipe/internal/config"
	"github.com/pinpon/datapipe/internal/logger"
)

var version = "1.0.0"

// cfg is the process configuration, injected once by Execute.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "datapipe",
	Short: "DataPipe - tabular reporting and invoice sync over Google Sheets",
	Long: `DataPipe loads tabular records from uploaded files, Google Sheets or
Notion databases, normalizes their columns into the canonical financial
schema and computes KPIs over the result.

It also maintains the invoice sheet: upsert by ID, export of pending rows to
the accountant sheet, and folio/status sync back from it.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("DataPipe CLI executed")

		fmt.Println("Welcome to DataPipe!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

// Execute runs the CLI with the given configuration.
func Execute(c *config.Config) {
	cfg = c
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}

// newSignalContext creates a context with the given timeout that is also
// canceled by SIGINT/SIGTERM.
func newSignalContext(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling operation")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
