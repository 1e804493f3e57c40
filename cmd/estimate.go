package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paleofauna/crabstat/internal/dataset"
	"github.com/paleofauna/crabstat/internal/pipeline"
	"github.com/paleofauna/crabstat/internal/report"
)

var estShowQuadratic bool

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Fit the dactyl-to-carapace estimator on the modern collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}
		moderns, err := dataset.LoadModern(cfg.ModernPath)
		if err != nil {
			return err
		}
		est, err := pipeline.FitEstimator(moderns.Specimens,
			cfg.ConfidenceLevel, cfg.SelectionAlpha, cfg.SelectionMinGain, logger)
		if err != nil {
			return err
		}
		fmt.Println(report.ModelSummary(est.Selected, est.TrainIDs))
		fmt.Println(report.Selection(est.Decision))
		if estShowQuadratic && !est.Decision.ChoseQuadratic {
			fmt.Println(report.ModelSummary(est.Quadratic, est.TrainIDs))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(estimateCmd)
	estimateCmd.Flags().BoolVar(&estShowQuadratic, "show-quadratic", false, "also print the rejected quadratic fit")
}
