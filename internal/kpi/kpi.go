// Package kpi computes aggregate financial metrics over normalized tables
// and quick summary stats over invoice tables.
package kpi

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pinpon/datapipe/internal/logger"
	"github.com/pinpon/datapipe/internal/normalize"
	"github.com/pinpon/datapipe/internal/table"
)

// UndefinedRatioPolicy selects how the IVA percentage average treats rows
// whose ratio is undefined (missing operand or zero sale price).
type UndefinedRatioPolicy int

const (
	// RatioAsZero counts undefined ratios as 0 in the average. This
	// understates the true mean but matches the historically observed
	// output, so it is the default.
	RatioAsZero UndefinedRatioPolicy = iota

	// RatioExcluded drops rows with undefined ratios from the average.
	RatioExcluded
)

// Metrics holds the computed KPIs. A nil field means the metric could not be
// computed because its input columns are absent, which is not an error.
type Metrics struct {
	TicketPromedio *float64 `json:"ticket_promedio,omitempty"`
	MargenPromedio *float64 `json:"margen_promedio,omitempty"`
	IVAPctProm     *float64 `json:"iva_pct_prom,omitempty"`
}

// Engine computes KPIs. The zero policy is RatioAsZero.
type Engine struct {
	ratioPolicy UndefinedRatioPolicy
	log         zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRatioPolicy overrides the undefined-ratio policy.
func WithRatioPolicy(p UndefinedRatioPolicy) Option {
	return func(e *Engine) { e.ratioPolicy = p }
}

// NewEngine creates a KPI engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		ratioPolicy: RatioAsZero,
		log:         logger.WithComponent("kpi"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute returns the metrics for a normalized table. Nil and empty tables
// yield zero-value Metrics.
func (e *Engine) Compute(t *table.Table) Metrics {
	var m Metrics
	if t.IsEmpty() {
		return m
	}

	m.TicketPromedio = meanOf(t, normalize.FieldTotal)
	m.MargenPromedio = meanMargin(t)
	m.IVAPctProm = e.meanIVAPct(t)

	e.log.Debug().
		Int("rows", t.Len()).
		Bool("ticket", m.TicketPromedio != nil).
		Bool("margen", m.MargenPromedio != nil).
		Bool("iva_pct", m.IVAPctProm != nil).
		Msg("Computed KPIs")

	return m
}

// meanOf averages the numeric cells of a column, skipping missing values.
// It returns nil when the column is absent or holds no numbers.
func meanOf(t *table.Table, col string) *float64 {
	if !t.HasColumn(col) {
		return nil
	}
	sum := decimal.Zero
	count := 0
	for i := 0; i < t.Len(); i++ {
		if v, ok := t.Get(i, col).Number(); ok {
			sum = sum.Add(v)
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return floatPtr(sum.Div(decimal.NewFromInt(int64(count))))
}

// meanMargin averages precio_venta - costo_proveedor per row. Rows missing
// either operand contribute no term. Requires both columns.
func meanMargin(t *table.Table) *float64 {
	if !t.HasColumn(normalize.FieldPrecioVenta) || !t.HasColumn(normalize.FieldCostoProveedor) {
		return nil
	}
	sum := decimal.Zero
	count := 0
	for i := 0; i < t.Len(); i++ {
		pv, pvOK := t.Get(i, normalize.FieldPrecioVenta).Number()
		cp, cpOK := t.Get(i, normalize.FieldCostoProveedor).Number()
		if !pvOK || !cpOK {
			continue
		}
		sum = sum.Add(pv.Sub(cp))
		count++
	}
	if count == 0 {
		return nil
	}
	return floatPtr(sum.Div(decimal.NewFromInt(int64(count))))
}

// meanIVAPct averages iva/precio_venta*100 across rows. Undefined ratios are
// handled per the engine's UndefinedRatioPolicy. Requires both columns.
func (e *Engine) meanIVAPct(t *table.Table) *float64 {
	if !t.HasColumn(normalize.FieldIVA) || !t.HasColumn(normalize.FieldPrecioVenta) {
		return nil
	}
	sum := decimal.Zero
	count := 0
	for i := 0; i < t.Len(); i++ {
		iva, ivaOK := t.Get(i, normalize.FieldIVA).Number()
		pv, pvOK := t.Get(i, normalize.FieldPrecioVenta).Number()
		if ivaOK && pvOK && !pv.IsZero() {
			sum = sum.Add(iva.Div(pv))
			count++
			continue
		}
		// Undefined ratio for this row.
		if e.ratioPolicy == RatioAsZero {
			count++
		}
	}
	if count == 0 {
		return nil
	}
	pct := sum.Div(decimal.NewFromInt(int64(count))).Mul(decimal.NewFromInt(100))
	return floatPtr(pct)
}

func floatPtr(d decimal.Decimal) *float64 {
	f, _ := d.Float64()
	return &f
}
