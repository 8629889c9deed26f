package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pinpon/datapipe/internal/kpi"
	"github.com/pinpon/datapipe/internal/logger"
)

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Compute KPI metrics over a data source",
	Long: `Load a table from one data source, normalize it and print the KPI
metrics (ticket_promedio, margen_promedio, iva_pct_prom) as JSON. Metrics
whose input columns are absent are omitted.`,
	Example: `  # KPIs of a local file
  datapipe kpi --file ventas.csv

  # KPIs of a Google Sheet, excluding undefined IVA ratios from the average
  datapipe kpi --sheet-url "https://docs.google.com/spreadsheets/d/..." --ratio-policy exclude`,
	RunE: runKPI,
}

func init() {
	rootCmd.AddCommand(kpiCmd)
	addSourceFlags(kpiCmd)
	kpiCmd.Flags().String("ratio-policy", "zero", "Undefined IVA ratio policy: zero or exclude")
}

func runKPI(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("kpi-cmd")

	policyName, _ := cmd.Flags().GetString("ratio-policy")
	var policy kpi.UndefinedRatioPolicy
	switch policyName {
	case "zero":
		policy = kpi.RatioAsZero
	case "exclude":
		policy = kpi.RatioExcluded
	default:
		return fmt.Errorf("unknown --ratio-policy %q (want zero or exclude)", policyName)
	}

	t, err := resolveSource(cmd, log)
	if err != nil {
		return err
	}

	metrics := kpi.NewEngine(kpi.WithRatioPolicy(policy)).Compute(t)
	jsonData, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode KPIs: %w", err)
	}

	fmt.Fprintln(os.Stdout, string(jsonData))
	return nil
}
