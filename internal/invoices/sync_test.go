package invoices

import (
	"context"
	"errors"
	"testing"
)

const (
	factSheet = "FACTURAS"
	contSheet = "FACTURAS_PARA_CONTADOR"
)

func newSyncerFixture(f *fakeSheetClient) *Syncer {
	return NewSyncer(NewStore(f, factSheet), contSheet)
}

func TestExportPendingFiltersByStatus(t *testing.T) {
	f := newFakeSheetClient()
	seedInvoices(f, factSheet,
		invoiceRow("1", "consulta", StatusPending, "F-1"),
		invoiceRow("2", "cirugia", StatusStamped, "F-2"),
		invoiceRow("3", "material", StatusPending, ""),
		invoiceRow("4", "estudios", "por enviar", ""), // case differs: excluded
	)

	exported, err := newSyncerFixture(f).ExportPending(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if exported.Len() != 2 {
		t.Fatalf("exported = %d rows, want 2", exported.Len())
	}
	for i := 0; i < exported.Len(); i++ {
		if got := exported.Get(i, "ESTATUS").Text(); got != StatusPending {
			t.Errorf("row %d ESTATUS = %q", i, got)
		}
		// FOLIO resets on every exported row, even when previously set.
		if got := exported.Get(i, "FOLIO").Text(); got != "" {
			t.Errorf("row %d FOLIO = %q, want empty", i, got)
		}
	}

	// The accountant sheet now holds exactly the exported rows.
	written := f.sheets[contSheet]
	if len(written) != 3 {
		t.Fatalf("accountant sheet rows = %d, want header + 2", len(written))
	}
	if written[0][0] != "ID" || written[0][len(written[0])-1] != "FOLIO" {
		t.Errorf("header = %v, want invoice column order", written[0])
	}
}

func TestExportPendingEmptySelectionDoesNotWrite(t *testing.T) {
	f := newFakeSheetClient()
	seedInvoices(f, factSheet, invoiceRow("1", "consulta", StatusPaid, "F-1"))

	exported, err := newSyncerFixture(f).ExportPending(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if exported.Len() != 0 {
		t.Errorf("exported = %d, want 0", exported.Len())
	}
	if f.writes[contSheet] != 0 {
		t.Error("empty selection must not overwrite the accountant sheet")
	}
}

func TestExportPendingRejectsInvalidTable(t *testing.T) {
	f := newFakeSheetClient()
	seedInvoices(f, factSheet,
		[]string{"9", "", "", "", "", "", "servicio", "0", "0", "0", "0", StatusPending, ""},
	)

	_, err := newSyncerFixture(f).ExportPending(context.Background())
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if f.writes[contSheet] != 0 {
		t.Error("invalid table must not export")
	}
}

func TestSyncFoliosUpdatesMatchedRows(t *testing.T) {
	f := newFakeSheetClient()
	seedInvoices(f, factSheet,
		invoiceRow("1", "consulta", StatusPending, ""),
		invoiceRow("2", "cirugia", StatusPending, ""),
		invoiceRow("3", "material", StatusPending, ""),
	)
	f.sheets[contSheet] = [][]string{
		{"ID", "FOLIO", "ESTATUS"},
		{"1", "A-100", StatusStamped},
		{"2", "", ""}, // blanks never overwrite
	}

	got, err := newSyncerFixture(f).SyncFolios(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if got.Get(0, "FOLIO").Text() != "A-100" || got.Get(0, "ESTATUS").Text() != StatusStamped {
		t.Errorf("row 1 = %q/%q, want A-100/Timbrada",
			got.Get(0, "FOLIO").Text(), got.Get(0, "ESTATUS").Text())
	}
	if got.Get(1, "FOLIO").Text() != "" || got.Get(1, "ESTATUS").Text() != StatusPending {
		t.Errorf("row 2 overwritten by blanks: %q/%q",
			got.Get(1, "FOLIO").Text(), got.Get(1, "ESTATUS").Text())
	}
	if got.Get(2, "ESTATUS").Text() != StatusPending {
		t.Error("unmatched row changed")
	}
	if f.writes[factSheet] != 1 {
		t.Errorf("invoice sheet writes = %d, want 1", f.writes[factSheet])
	}
}

func TestSyncFoliosNeverErasesWithBlanks(t *testing.T) {
	f := newFakeSheetClient()
	seedInvoices(f, factSheet, invoiceRow("1", "consulta", StatusStamped, "F-7"))
	f.sheets[contSheet] = [][]string{
		{"ID", "FOLIO", "ESTATUS"},
		{"1", "   ", " "},
	}

	got, err := newSyncerFixture(f).SyncFolios(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.Get(0, "FOLIO").Text() != "F-7" {
		t.Errorf("FOLIO erased: %q", got.Get(0, "FOLIO").Text())
	}
	if got.Get(0, "ESTATUS").Text() != StatusStamped {
		t.Errorf("ESTATUS erased: %q", got.Get(0, "ESTATUS").Text())
	}
}

func TestSyncFoliosEmptyTablesDoNotWrite(t *testing.T) {
	// Empty accountant sheet.
	f := newFakeSheetClient()
	seedInvoices(f, factSheet, invoiceRow("1", "consulta", StatusPending, ""))

	got, err := newSyncerFixture(f).SyncFolios(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 1 {
		t.Errorf("rows = %d, want 1", got.Len())
	}
	if f.writes[factSheet] != 0 {
		t.Error("sync with empty accountant table must not write")
	}

	// Empty invoice sheet.
	f = newFakeSheetClient()
	seedInvoices(f, factSheet)
	f.sheets[contSheet] = [][]string{
		{"ID", "FOLIO", "ESTATUS"},
		{"1", "A-1", StatusPaid},
	}
	if _, err := newSyncerFixture(f).SyncFolios(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.writes[factSheet] != 0 {
		t.Error("sync with empty invoice table must not write")
	}
}

func TestSyncFoliosWritesEvenWhenNothingChanged(t *testing.T) {
	f := newFakeSheetClient()
	seedInvoices(f, factSheet, invoiceRow("1", "consulta", StatusPending, ""))
	f.sheets[contSheet] = [][]string{
		{"ID", "FOLIO", "ESTATUS"},
		{"999", "A-1", StatusPaid}, // no matching ID
	}

	if _, err := newSyncerFixture(f).SyncFolios(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.writes[factSheet] != 1 {
		t.Errorf("writes = %d, want 1 (sync writes back unconditionally)", f.writes[factSheet])
	}
}

func TestSyncFoliosSchemaError(t *testing.T) {
	f := newFakeSheetClient()
	seedInvoices(f, factSheet, invoiceRow("1", "consulta", StatusPending, ""))
	f.sheets[contSheet] = [][]string{
		{"ID", "FOLIO"}, // ESTATUS missing
		{"1", "A-1"},
	}

	_, err := newSyncerFixture(f).SyncFolios(context.Background())
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("err = %v, want *SchemaError", err)
	}
	if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != "ESTATUS" {
		t.Errorf("missing = %v, want [ESTATUS]", schemaErr.Missing)
	}
	if schemaErr.Sheet != contSheet {
		t.Errorf("sheet = %q, want %q", schemaErr.Sheet, contSheet)
	}
}

func TestSyncFoliosDuplicateAccountantIDsLastWins(t *testing.T) {
	f := newFakeSheetClient()
	seedInvoices(f, factSheet, invoiceRow("1", "consulta", StatusPending, ""))
	f.sheets[contSheet] = [][]string{
		{"ID", "FOLIO", "ESTATUS"},
		{"1", "OLD", ""},
		{"1", "NEW", ""},
	}

	got, err := newSyncerFixture(f).SyncFolios(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.Get(0, "FOLIO").Text() != "NEW" {
		t.Errorf("FOLIO = %q, want NEW (last duplicate wins)", got.Get(0, "FOLIO").Text())
	}
}
