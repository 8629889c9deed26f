package kpi

import (
	"strings"

	"github.com/pinpon/datapipe/internal/table"
)

// Summary holds the quick stats shown alongside an invoice table: money
// totals and row counts per protocol status. Components whose column is
// absent stay at zero.
type Summary struct {
	IngresoPrecio float64 `json:"ingreso_precio"`
	IVA           float64 `json:"iva"`
	Total         float64 `json:"total"`
	PorEnviar     int     `json:"por_enviar"`
	Timbradas     int     `json:"timbradas"`
	Pagadas       int     `json:"pagadas"`
}

// Summarize computes the invoice quick stats. Monetary cells are parsed
// leniently: spreadsheet reads deliver numbers as strings.
func Summarize(t *table.Table) Summary {
	var s Summary
	if t.IsEmpty() {
		return s
	}

	s.IngresoPrecio = sumColumn(t, "PRECIO_MXN")
	s.IVA = sumColumn(t, "IVA_16")
	s.Total = sumColumn(t, "TOTAL_MXN")

	if t.HasColumn("ESTATUS") {
		for i := 0; i < t.Len(); i++ {
			switch strings.TrimSpace(t.Get(i, "ESTATUS").Text()) {
			case "Por enviar":
				s.PorEnviar++
			case "Timbrada":
				s.Timbradas++
			case "Pagada":
				s.Pagadas++
			}
		}
	}
	return s
}

func sumColumn(t *table.Table, col string) float64 {
	if !t.HasColumn(col) {
		return 0
	}
	sum := 0.0
	for i := 0; i < t.Len(); i++ {
		cell := t.Get(i, col)
		if v, ok := cell.Number(); ok {
			f, _ := v.Float64()
			sum += f
			continue
		}
		if d, ok := table.ParseNumber(cell.Text()); ok {
			f, _ := d.Float64()
			sum += f
		}
	}
	return sum
}
