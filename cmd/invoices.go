package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pinpon/datapipe/internal/invoices"
	"github.com/pinpon/datapipe/internal/kpi"
	"github.com/pinpon/datapipe/internal/logger"
	"github.com/pinpon/datapipe/internal/sheets"
	"github.com/pinpon/datapipe/internal/table"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Operate on the invoice sheet and the accountant export",
	Long: `Read, validate and upsert the invoice table persisted in the configured
Google Sheet, and run the accountant sync protocol: export rows with ESTATUS
"Por enviar" to the accountant sheet, and sync FOLIO/ESTATUS assignments back.

Required environment variables:
  SHEET_ID - spreadsheet document ID
  GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS - service account
  FACT_SHEET / CONT_SHEET - worksheet names (defaulted)`,
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the invoice table as CSV",
	RunE:  runInvoicesList,
}

var invoicesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the business-key invariant and print offending rows",
	RunE:  runInvoicesValidate,
}

var invoicesUpsertCmd = &cobra.Command{
	Use:   "upsert",
	Short: "Upsert rows into the invoice table by ID",
	Long: `Apply a JSON array of records to the invoice table. Records with an ID
matching an existing row update only the fields they carry; new IDs append a
row. Records without an ID are skipped. Nothing is written when the result
violates the business-key invariant.`,
	Example: `  echo '[{"ID":"42","ESTATUS":"Pagada"}]' | datapipe invoices upsert
  datapipe invoices upsert -f rows.json`,
	RunE: runInvoicesUpsert,
}

var invoicesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export rows with ESTATUS 'Por enviar' to the accountant sheet",
	RunE:  runInvoicesExport,
}

var invoicesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync FOLIO/ESTATUS back from the accountant sheet",
	RunE:  runInvoicesSync,
}

func init() {
	rootCmd.AddCommand(invoicesCmd)
	invoicesCmd.AddCommand(invoicesListCmd, invoicesValidateCmd, invoicesUpsertCmd, invoicesExportCmd, invoicesSyncCmd)

	invoicesCmd.PersistentFlags().String("token", "", "Shared access token (required when PIN_TOKEN is configured)")
	invoicesCmd.PersistentFlags().Int("timeout", 60, "Operation timeout in seconds")

	invoicesListCmd.Flags().Bool("summary", false, "Also print quick stats as JSON to stderr")
	invoicesUpsertCmd.Flags().StringP("file", "f", "", "JSON file with the rows to upsert (default: stdin)")
}

// requireToken enforces the shared-token gate on mutating commands.
func requireToken(cmd *cobra.Command) error {
	if cfg.PinToken == "" {
		return nil
	}
	token, _ := cmd.Flags().GetString("token")
	if token != cfg.PinToken {
		return fmt.Errorf("invalid access token, pass the configured token with --token")
	}
	return nil
}

// newInvoiceStore builds the sheets client and store, creating the invoice
// worksheet with its header when the document does not have it yet.
func newInvoiceStore(ctx context.Context) (*invoices.Store, *sheets.Service, error) {
	sheetID, err := cfg.RequireSheetID()
	if err != nil {
		return nil, nil, err
	}
	creds, err := cfg.GoogleCredentials()
	if err != nil {
		return nil, nil, err
	}
	svc, err := sheets.New(ctx, creds, sheetID)
	if err != nil {
		return nil, nil, err
	}
	if err := svc.EnsureSheet(ctx, cfg.InvoiceSheet, invoices.Columns); err != nil {
		return nil, nil, err
	}
	return invoices.NewStore(svc, cfg.InvoiceSheet), svc, nil
}

func invoiceContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	return newSignalContext(timeoutSecs, logger.WithComponent("invoices"))
}

func runInvoicesList(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoices")

	ctx, cancel := invoiceContext(cmd)
	defer cancel()

	store, _, err := newInvoiceStore(ctx)
	if err != nil {
		return err
	}

	t, err := store.Read(ctx)
	if err != nil {
		return err
	}

	if err := writeTableCSV(t, "", log); err != nil {
		return err
	}

	if withSummary, _ := cmd.Flags().GetBool("summary"); withSummary {
		summary := kpi.Summarize(t)
		jsonData, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode summary: %w", err)
		}
		fmt.Fprintln(os.Stderr, string(jsonData))
	}

	return nil
}

func runInvoicesValidate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoices")

	ctx, cancel := invoiceContext(cmd)
	defer cancel()

	store, _, err := newInvoiceStore(ctx)
	if err != nil {
		return err
	}

	t, err := store.Read(ctx)
	if err != nil {
		return err
	}

	ok, invalid, err := store.Validate(t)
	if err != nil {
		return err
	}
	if !ok {
		return reportInvalidRows(&invoices.ValidationError{Invalid: invalid})
	}

	log.Info().Int("rows", t.Len()).Msg("Invoice table is valid")
	fmt.Printf("OK: %d rows, no violations\n", t.Len())
	return nil
}

func runInvoicesUpsert(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("invoices")

	if err := requireToken(cmd); err != nil {
		return err
	}

	rows, err := readUpsertRows(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := invoiceContext(cmd)
	defer cancel()

	store, _, err := newInvoiceStore(ctx)
	if err != nil {
		return err
	}

	t, err := store.Upsert(ctx, rows)
	if err != nil {
		var validationErr *invoices.ValidationError
		if errors.As(err, &validationErr) {
			return reportInvalidRows(validationErr)
		}
		return err
	}

	log.Info().Int("rows", t.Len()).Msg("Upsert applied")
	fmt.Printf("Upserted. Table now has %d rows.\n", t.Len())
	return nil
}

func runInvoicesExport(cmd *cobra.Command, args []string) error {
	if err := requireToken(cmd); err != nil {
		return err
	}

	ctx, cancel := invoiceContext(cmd)
	defer cancel()

	store, svc, err := newInvoiceStore(ctx)
	if err != nil {
		return err
	}
	if err := svc.EnsureSheet(ctx, cfg.AccountantSheet, nil); err != nil {
		return err
	}

	exported, err := invoices.NewSyncer(store, cfg.AccountantSheet).ExportPending(ctx)
	if err != nil {
		var validationErr *invoices.ValidationError
		if errors.As(err, &validationErr) {
			return reportInvalidRows(validationErr)
		}
		return err
	}

	if exported.IsEmpty() {
		fmt.Println("No rows with ESTATUS = 'Por enviar'.")
		return nil
	}
	fmt.Printf("Exported %d rows to %q.\n", exported.Len(), cfg.AccountantSheet)
	return nil
}

func runInvoicesSync(cmd *cobra.Command, args []string) error {
	if err := requireToken(cmd); err != nil {
		return err
	}

	ctx, cancel := invoiceContext(cmd)
	defer cancel()

	store, _, err := newInvoiceStore(ctx)
	if err != nil {
		return err
	}

	t, err := invoices.NewSyncer(store, cfg.AccountantSheet).SyncFolios(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Synced. Invoice table has %d rows.\n", t.Len())
	return nil
}

// readUpsertRows decodes the JSON record array from -f or stdin.
func readUpsertRows(cmd *cobra.Command) ([]table.Row, error) {
	path, _ := cmd.Flags().GetString("file")

	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open rows file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var records []map[string]interface{}
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode rows JSON: %w", err)
	}

	rows := make([]table.Row, 0, len(records))
	for _, record := range records {
		row := make(table.Row, len(record))
		for field, value := range record {
			row[field] = cellFromJSON(value)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cellFromJSON(v interface{}) table.Cell {
	switch val := v.(type) {
	case nil:
		return table.Missing
	case string:
		return table.String(val)
	case float64:
		return table.NumberFromFloat(val)
	case bool:
		return table.Bool(val)
	default:
		return table.String(fmt.Sprint(val))
	}
}

// reportInvalidRows prints the offending rows so an operator can fix the
// source data, then propagates the error.
func reportInvalidRows(err *invoices.ValidationError) error {
	fmt.Fprintln(os.Stderr, "Rows with CONCEPTO set but missing business-key fields:")
	if csvErr := err.Invalid.WriteCSV(os.Stderr); csvErr != nil {
		return csvErr
	}
	return err
}
