package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pinpon/datapipe/internal/kpi"
	"github.com/pinpon/datapipe/internal/logger"
	"github.com/pinpon/datapipe/internal/source"
	"github.com/pinpon/datapipe/internal/table"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a table from a file, Google Sheet or Notion database",
	Long: `Load tabular records from one data source, normalize the columns into
the canonical financial schema (precio_venta, costo_proveedor, iva, total)
and write the result as CSV.

Exactly one of --file, --sheet-url or --notion must be given.`,
	Example: `  # Normalize a local spreadsheet to stdout
  datapipe load --file ventas.xlsx

  # Normalize a CSV into a file and print KPIs
  datapipe load --file ventas.csv -o normalizado.csv --kpis

  # Load a shared Google Sheet (service account credentials from env)
  datapipe load --sheet-url "https://docs.google.com/spreadsheets/d/..."

  # Load the configured Notion database
  datapipe load --notion`,
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
	addSourceFlags(loadCmd)
	loadCmd.Flags().StringP("output", "o", "", "Output CSV path (default: stdout)")
	loadCmd.Flags().Bool("kpis", false, "Also print KPI metrics as JSON to stderr")
}

// addSourceFlags registers the shared data source selection flags.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("file", "", "Path to a .csv/.xlsx/.xls file")
	cmd.Flags().String("sheet-url", "", "URL of a Google Sheet to load")
	cmd.Flags().Bool("notion", false, "Load the configured Notion database")
	cmd.Flags().Int("timeout", 60, "Operation timeout in seconds")
}

// resolveSource loads the table from whichever source flag is set.
func resolveSource(cmd *cobra.Command, log zerolog.Logger) (*table.Table, error) {
	file, _ := cmd.Flags().GetString("file")
	sheetURL, _ := cmd.Flags().GetString("sheet-url")
	notion, _ := cmd.Flags().GetBool("notion")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	selected := 0
	for _, set := range []bool{file != "", sheetURL != "", notion} {
		if set {
			selected++
		}
	}
	if selected != 1 {
		return nil, fmt.Errorf("exactly one of --file, --sheet-url or --notion must be given")
	}

	ctx, cancel := newSignalContext(timeoutSecs, log)
	defer cancel()

	switch {
	case file != "":
		return loadFromFile(file, log)
	case sheetURL != "":
		return loadFromGoogleSheet(ctx, sheetURL)
	default:
		return loadFromNotion(ctx)
	}
}

func loadFromFile(path string, log zerolog.Logger) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close input file")
		}
	}()
	return source.LoadFile(filepath.Base(path), f)
}

func loadFromGoogleSheet(ctx context.Context, sheetURL string) (*table.Table, error) {
	creds, err := cfg.GoogleCredentials()
	if err != nil {
		return nil, err
	}
	return source.LoadGoogleSheet(ctx, creds, sheetURL)
}

func loadFromNotion(ctx context.Context) (*table.Table, error) {
	apiKey, databaseID, err := cfg.RequireNotion()
	if err != nil {
		return nil, err
	}
	return source.NewNotionClient(apiKey).LoadDatabase(ctx, databaseID)
}

func runLoad(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("load")

	t, err := resolveSource(cmd, log)
	if err != nil {
		return err
	}

	log.Info().Int("rows", t.Len()).Msg("Table loaded and normalized")

	outputPath, _ := cmd.Flags().GetString("output")
	if err := writeTableCSV(t, outputPath, log); err != nil {
		return err
	}

	if withKPIs, _ := cmd.Flags().GetBool("kpis"); withKPIs {
		metrics := kpi.NewEngine().Compute(t)
		jsonData, err := json.MarshalIndent(metrics, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode KPIs: %w", err)
		}
		fmt.Fprintln(os.Stderr, string(jsonData))
	}

	return nil
}

// writeTableCSV writes a table as CSV to a file, or stdout when path is empty.
func writeTableCSV(t *table.Table, path string, log zerolog.Logger) error {
	if path == "" {
		return t.WriteCSV(os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	log.Info().Str("output", path).Int("rows", t.Len()).Msg("CSV written")
	return nil
}
