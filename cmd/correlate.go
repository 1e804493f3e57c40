package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paleofauna/crabstat/internal/pipeline"
	"github.com/paleofauna/crabstat/internal/report"
)

var correlateCmd = &cobra.Command{
	Use:   "correlate",
	Short: "Run the correlation and comparison suite",
	Long: `Runs the upstream stages (estimator, imputer, composed estimates)
and then the full correlation and comparison suite: size-isotope Pearson
tests, the Holm-adjusted correlation matrix, the published-equation
comparison, and per-pool water-vs-specimen tests.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}
		r, err := pipeline.ExecuteAll(cfg, logger)
		if err != nil {
			return err
		}
		fmt.Println(report.Suite(r.Suite))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(correlateCmd)
}
