package invoices

import (
	"fmt"
	"strings"

	"github.com/pinpon/datapipe/internal/table"
)

// SchemaError is returned when a required column is entirely absent from a
// table the protocol needs to operate on.
type SchemaError struct {
	// Sheet names the table the columns are missing from.
	Sheet string

	// Missing lists the absent required columns.
	Missing []string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Sheet != "" {
		return fmt.Sprintf("invoices: sheet %q is missing required columns: %s", e.Sheet, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("invoices: missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ValidationError is returned when rows violate the business-key invariant:
// a row with a non-blank CONCEPTO must carry all of its key fields. It
// carries the offending rows so callers can display them.
type ValidationError struct {
	Invalid *table.Table
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invoices: %d rows have CONCEPTO set but lack business-key fields (ID, FECHA, PACIENTE, HOSPITAL, PROVEEDOR, CATEGORIA)", e.Invalid.Len())
}
