// Package invoices implements the invoice dataset persisted in a remote
// spreadsheet: full-table reads and writes, business-key validation,
// upsert-by-ID, and the export/sync protocol against the accountant sheet.
//
// Every operation is a whole-table read-modify-write with no concurrency
// token: two concurrent callers mutating the same sheet race, and the last
// writer wins. Callers must serialize access externally.
package invoices

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pinpon/datapipe/internal/logger"
	"github.com/pinpon/datapipe/internal/table"
)

// Columns is the canonical invoice column order.
var Columns = []string{
	"ID", "FECHA", "PACIENTE", "HOSPITAL", "PROVEEDOR", "CATEGORIA", "CONCEPTO",
	"COSTO_MXN", "PRECIO_MXN", "IVA_16", "TOTAL_MXN", "ESTATUS", "FOLIO",
}

// monetaryColumns are backfilled with 0 rather than "".
var monetaryColumns = map[string]bool{
	"COSTO_MXN":  true,
	"PRECIO_MXN": true,
	"IVA_16":     true,
	"TOTAL_MXN":  true,
}

// businessKeyColumns must be non-blank on any row whose CONCEPTO is set.
var businessKeyColumns = []string{"ID", "FECHA", "PACIENTE", "HOSPITAL", "PROVEEDOR", "CATEGORIA"}

// ESTATUS values with protocol significance.
const (
	StatusPending = "Por enviar"
	StatusStamped = "Timbrada"
	StatusPaid    = "Pagada"
)

// SheetClient is the spreadsheet access the store needs. Implemented by
// sheets.Service; tests use an in-memory fake.
type SheetClient interface {
	ReadSheet(ctx context.Context, name string) ([][]string, error)
	OverwriteSheet(ctx context.Context, name string, values [][]interface{}) error
}

// Store reads and writes the invoice table.
type Store struct {
	client SheetClient
	sheet  string
	log    zerolog.Logger
}

// NewStore creates a store over the named invoice worksheet.
func NewStore(client SheetClient, sheetName string) *Store {
	return &Store{
		client: client,
		sheet:  sheetName,
		log:    logger.WithComponent("invoice-store"),
	}
}

// Read fetches the full invoice table. Required columns absent from the
// sheet are appended in canonical order, filled with 0 for the monetary
// columns and "" for everything else.
func (s *Store) Read(ctx context.Context) (*table.Table, error) {
	values, err := s.client.ReadSheet(ctx, s.sheet)
	if err != nil {
		return nil, err
	}

	var t *table.Table
	if len(values) == 0 {
		t = table.New()
	} else {
		t = table.FromGrid(values[0], values[1:])
	}

	for _, col := range Columns {
		if t.HasColumn(col) {
			continue
		}
		if monetaryColumns[col] {
			t.AddColumn(col, table.Number(decimal.Zero))
		} else {
			t.AddColumn(col, table.String(""))
		}
	}

	s.log.Debug().Str("sheet", s.sheet).Int("rows", t.Len()).Msg("Invoice table read")
	return t, nil
}

// Validate checks the business-key invariant and returns whether the table
// is valid together with the subset of invalid rows. An empty table is
// valid. A required column missing entirely is a SchemaError.
func (s *Store) Validate(t *table.Table) (bool, *table.Table, error) {
	if t.IsEmpty() {
		return true, table.New(Columns...), nil
	}

	var missing []string
	for _, col := range Columns {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return false, nil, &SchemaError{Sheet: s.sheet, Missing: missing}
	}

	invalid := t.Filter(func(r table.Row) bool {
		if strings.TrimSpace(r["CONCEPTO"].Text()) == "" {
			return false
		}
		for _, col := range businessKeyColumns {
			if blank(r[col]) {
				return true
			}
		}
		return false
	})

	return invalid.Len() == 0, invalid, nil
}

// Upsert merges the given rows into the invoice table by ID: existing rows
// take only the fields present on the input row, new IDs append a row with
// every unset column defaulted to "". Rows without an ID are skipped. The
// result is validated before the single full-table write; a ValidationError
// aborts with nothing written.
func (s *Store) Upsert(ctx context.Context, rows []table.Row) (*table.Table, error) {
	current, err := s.Read(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, current.Len())
	for i := 0; i < current.Len(); i++ {
		if id := strings.TrimSpace(current.Get(i, "ID").Text()); id != "" {
			index[id] = i
		}
	}

	applied, skipped := 0, 0
	for _, in := range rows {
		id := strings.TrimSpace(in["ID"].Text())
		if id == "" {
			skipped++
			continue
		}
		if i, ok := index[id]; ok {
			row := current.Row(i)
			for field, cell := range in {
				row[field] = cell
			}
		} else {
			row := make(table.Row, len(Columns))
			for _, col := range current.Columns() {
				row[col] = table.String("")
			}
			for field, cell := range in {
				row[field] = cell
			}
			current.Append(row)
			index[id] = current.Len() - 1
		}
		applied++
	}

	ok, invalid, err := s.Validate(current)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ValidationError{Invalid: invalid}
	}

	if err := s.write(ctx, current); err != nil {
		return nil, err
	}

	s.log.Info().
		Int("applied", applied).
		Int("skipped", skipped).
		Int("rows", current.Len()).
		Msg("Invoice upsert written")
	return current, nil
}

// write overwrites the invoice sheet with the full table.
func (s *Store) write(ctx context.Context, t *table.Table) error {
	return s.client.OverwriteSheet(ctx, s.sheet, tableValues(t))
}

// tableValues renders a table as a header row plus data rows for a sheet
// overwrite. Missing cells become empty strings.
func tableValues(t *table.Table) [][]interface{} {
	cols := t.Columns()
	values := make([][]interface{}, 0, t.Len()+1)

	header := make([]interface{}, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	values = append(values, header)

	for i := 0; i < t.Len(); i++ {
		row := make([]interface{}, len(cols))
		for j, col := range cols {
			row[j] = t.Get(i, col).Value()
		}
		values = append(values, row)
	}
	return values
}

// blank reports whether a cell is missing or holds only whitespace.
func blank(c table.Cell) bool {
	if c.IsMissing() {
		return true
	}
	if c.Kind() == table.KindString {
		return strings.TrimSpace(c.Text()) == ""
	}
	return false
}
