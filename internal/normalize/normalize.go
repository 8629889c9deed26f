// Package normalize maps heterogeneous tabular input onto the canonical
// financial schema: alias-based column renaming, numeric coercion and the
// total/iva completion rules.
package normalize

import (
	"strings"

	"github.com/pinpon/datapipe/internal/table"
)

// Canonical field names targeted by alias matching.
const (
	FieldPrecioVenta    = "precio_venta"
	FieldCostoProveedor = "costo_proveedor"
	FieldIVA            = "iva"
	FieldTotal          = "total"
)

// aliases maps each canonical field to the labels recognized for it.
// Matching is exact on the trimmed, lowercased label.
var aliases = map[string][]string{
	FieldPrecioVenta:    {"precio_venta", "precio", "venta", "pv", "precio final", "monto", "importe"},
	FieldCostoProveedor: {"costo_proveedor", "costo", "cp", "costo unitario", "compra"},
	FieldIVA:            {"iva", "impuesto", "vat"},
	FieldTotal:          {"total", "importe_total", "monto_total"},
}

// numericFields lists the canonical columns coerced to numbers, in a fixed
// order so coercion is deterministic.
var numericFields = []string{FieldPrecioVenta, FieldCostoProveedor, FieldIVA, FieldTotal}

// Aliases returns the registered aliases for a canonical field.
func Aliases(field string) []string {
	return append([]string(nil), aliases[field]...)
}

// CanonicalFields returns the canonical field names in coercion order.
func CanonicalFields() []string {
	return append([]string(nil), numericFields...)
}

// CanonicalName resolves a column label to its canonical field name, or
// returns the label unchanged when it matches no alias.
func CanonicalName(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	for field, names := range aliases {
		for _, name := range names {
			if s == name {
				return field
			}
		}
	}
	return label
}

// Normalize returns a canonicalized copy of the table: columns renamed to
// their canonical names, the four canonical columns coerced to numbers
// (unparseable cells become Missing, never an error), and the total/iva
// derivations applied where their inputs exist. Nil and empty tables are
// returned unchanged. The input table is never mutated.
func Normalize(t *table.Table) *table.Table {
	if t.IsEmpty() {
		return t
	}

	out := t.Clone()
	for _, col := range out.Columns() {
		canon := CanonicalName(col)
		if canon != col && !out.HasColumn(canon) {
			out.RenameColumn(col, canon)
		}
	}

	for _, field := range numericFields {
		if out.HasColumn(field) {
			coerceNumeric(out, field)
		}
	}

	// Each derivation fires only when its target column is absent, so the
	// two can never feed each other.
	if !out.HasColumn(FieldTotal) && out.HasColumn(FieldPrecioVenta) && out.HasColumn(FieldIVA) {
		deriveColumn(out, FieldTotal, FieldPrecioVenta, FieldIVA, false)
	}
	if !out.HasColumn(FieldIVA) && out.HasColumn(FieldPrecioVenta) && out.HasColumn(FieldTotal) {
		deriveColumn(out, FieldIVA, FieldTotal, FieldPrecioVenta, true)
	}

	return out
}

// coerceNumeric rewrites every cell of a column as a number. Strings that do
// not parse, and missing cells, become Missing; booleans map to 1 and 0.
func coerceNumeric(t *table.Table, col string) {
	for i := 0; i < t.Len(); i++ {
		cell := t.Get(i, col)
		switch cell.Kind() {
		case table.KindNumber:
			// Already numeric.
		case table.KindString:
			if d, ok := table.ParseNumber(cell.Text()); ok {
				t.Set(i, col, table.Number(d))
			} else {
				t.Set(i, col, table.Missing)
			}
		case table.KindBool:
			if b, _ := cell.Bool(); b {
				t.Set(i, col, table.NumberFromFloat(1))
			} else {
				t.Set(i, col, table.NumberFromFloat(0))
			}
		default:
			t.Set(i, col, table.Missing)
		}
	}
}

// deriveColumn adds target as a+b (or a-b when subtract is true) per row,
// leaving Missing where either operand is not numeric.
func deriveColumn(t *table.Table, target, a, b string, subtract bool) {
	t.AddColumn(target, table.Missing)
	for i := 0; i < t.Len(); i++ {
		av, aok := t.Get(i, a).Number()
		bv, bok := t.Get(i, b).Number()
		if !aok || !bok {
			continue
		}
		if subtract {
			t.Set(i, target, table.Number(av.Sub(bv)))
		} else {
			t.Set(i, target, table.Number(av.Add(bv)))
		}
	}
}
