package invoices

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pinpon/datapipe/internal/logger"
	"github.com/pinpon/datapipe/internal/table"
)

// accountantColumns are the columns the folio sync reads back.
var accountantColumns = []string{"ID", "FOLIO", "ESTATUS"}

// Syncer moves rows between the invoice table and the accountant sheet.
// Like the store, its writes are whole-sheet overwrites with no concurrency
// token (last writer wins).
type Syncer struct {
	store           *Store
	accountantSheet string
	log             zerolog.Logger
}

// NewSyncer creates a syncer between the store's invoice sheet and the named
// accountant sheet.
func NewSyncer(store *Store, accountantSheet string) *Syncer {
	return &Syncer{
		store:           store,
		accountantSheet: accountantSheet,
		log:             logger.WithComponent("invoice-sync"),
	}
}

// ExportPending copies every row with ESTATUS exactly "Por enviar" to the
// accountant sheet, blanking FOLIO on each exported row. The accountant
// sheet is replaced wholesale, in the invoice table's column order. An empty
// selection returns without writing. The invoice table must pass business-key
// validation first; a ValidationError aborts the export.
func (s *Syncer) ExportPending(ctx context.Context) (*table.Table, error) {
	t, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}

	ok, invalid, err := s.store.Validate(t)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ValidationError{Invalid: invalid}
	}

	pending := t.Filter(func(r table.Row) bool {
		return r["ESTATUS"].Text() == StatusPending
	})
	if pending.IsEmpty() {
		s.log.Info().Msg("No rows with ESTATUS 'Por enviar', nothing exported")
		return pending, nil
	}

	// The accountant fills FOLIO in; exported rows always start blank.
	for i := 0; i < pending.Len(); i++ {
		pending.Set(i, "FOLIO", table.String(""))
	}

	if err := s.store.client.OverwriteSheet(ctx, s.accountantSheet, tableValues(pending)); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("sheet", s.accountantSheet).
		Int("rows", pending.Len()).
		Msg("Pending invoices exported")
	return pending, nil
}

// SyncFolios copies FOLIO and ESTATUS assigned by the accountant back into
// the invoice table, matching rows by ID. Blank-after-trim accountant values
// never overwrite existing data. When either table is empty the invoice
// table is returned untouched; otherwise it is written back unconditionally,
// even when no row changed.
func (s *Syncer) SyncFolios(ctx context.Context) (*table.Table, error) {
	inv, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}

	accValues, err := s.store.client.ReadSheet(ctx, s.accountantSheet)
	if err != nil {
		return nil, err
	}
	var acc *table.Table
	if len(accValues) == 0 {
		acc = table.New()
	} else {
		acc = table.FromGrid(accValues[0], accValues[1:])
	}

	if inv.IsEmpty() || acc.IsEmpty() {
		s.log.Info().Msg("Nothing to sync, one of the tables is empty")
		return inv, nil
	}

	var missing []string
	for _, col := range accountantColumns {
		if !acc.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Sheet: s.accountantSheet, Missing: missing}
	}

	type assignment struct {
		folio   string
		estatus string
	}
	lookup := make(map[string]assignment, acc.Len())
	for i := 0; i < acc.Len(); i++ {
		id := strings.TrimSpace(acc.Get(i, "ID").Text())
		if id == "" {
			continue
		}
		lookup[id] = assignment{
			folio:   acc.Get(i, "FOLIO").Text(),
			estatus: acc.Get(i, "ESTATUS").Text(),
		}
	}

	updated := 0
	for i := 0; i < inv.Len(); i++ {
		id := strings.TrimSpace(inv.Get(i, "ID").Text())
		a, ok := lookup[id]
		if id == "" || !ok {
			continue
		}
		if strings.TrimSpace(a.folio) != "" {
			inv.Set(i, "FOLIO", table.String(a.folio))
		}
		if strings.TrimSpace(a.estatus) != "" {
			inv.Set(i, "ESTATUS", table.String(a.estatus))
		}
		updated++
	}

	if err := s.store.write(ctx, inv); err != nil {
		return nil, err
	}

	s.log.Info().
		Int("matched", updated).
		Int("rows", inv.Len()).
		Msg("Folio sync written")
	return inv, nil
}
