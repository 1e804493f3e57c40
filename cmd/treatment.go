package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paleofauna/crabstat/internal/pipeline"
	"github.com/paleofauna/crabstat/internal/report"
)

var treatmentCmd = &cobra.Command{
	Use:   "treatment",
	Short: "Print the split-sample treatment-effect check",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(report.Treatment(pipeline.TreatmentCheck()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(treatmentCmd)
}
