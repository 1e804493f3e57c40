package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paleofauna/crabstat/internal/dataset"
	"github.com/paleofauna/crabstat/internal/pipeline"
	"github.com/paleofauna/crabstat/internal/report"
)

var imputeCompareRef bool

var imputeCmd = &cobra.Command{
	Use:   "impute",
	Short: "Fit the missing-dactyl imputer and apply it to the assemblage",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}
		moderns, err := dataset.LoadModern(cfg.ModernPath)
		if err != nil {
			return err
		}
		archs, err := dataset.LoadArch(cfg.ArchPath)
		if err != nil {
			return err
		}
		im, err := pipeline.FitImputer(moderns.Specimens, cfg.ConfidenceLevel, logger)
		if err != nil {
			return err
		}
		_, imps, err := im.Apply(archs.Specimens)
		if err != nil {
			return err
		}
		fmt.Println(report.ModelSummary(im.Model, nil))
		if len(imps) == 0 {
			fmt.Println("No specimens needed imputation.")
		}
		for _, p := range imps {
			fmt.Printf("- %s: RUD_H %.2f → RUD_V %.2f [%.2f, %.2f]\n",
				p.SpecID, p.RUDH, p.Filled.Fit, p.Filled.PredLow, p.Filled.PredHigh)
		}

		if imputeCompareRef {
			est, err := pipeline.FitEstimator(moderns.Specimens,
				cfg.ConfidenceLevel, cfg.SelectionAlpha, cfg.SelectionMinGain, logger)
			if err != nil {
				return err
			}
			ests, _, err := pipeline.ComposedEstimates(est, im, archs.Specimens)
			if err != nil {
				return err
			}
			var xs []float64
			for _, e := range ests {
				if e.RUDV.Valid {
					xs = append(xs, e.RUDV.Value)
				}
			}
			w, err := pipeline.CompareEquations(est.Selected, cfg.Reference, xs, cfg.ConfidenceLevel)
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Print(report.Welch(
				fmt.Sprintf("this study vs %s", cfg.Reference.Name),
				"complete composed RUD_V column", w))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(imputeCmd)
	imputeCmd.Flags().BoolVar(&imputeCompareRef, "compare-reference", false, "also compare against the configured published equation")
}
