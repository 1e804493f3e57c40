package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paleofauna/crabstat/internal/dataset"
	"github.com/paleofauna/crabstat/internal/report"
	"github.com/paleofauna/crabstat/internal/stats"
)

var describeCmd = &cobra.Command{
	Use:   "describe [modern|arch|water]",
	Short: "Print descriptive statistics for one input table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}
		sums := make(map[string]stats.Summary)
		add := func(name string, col []dataset.Measurement) {
			s, err := stats.Describe(dataset.Values(col))
			if err != nil {
				logger.Warn("no observations for variable", zap.String("variable", name))
				return
			}
			sums[name] = s
		}

		switch args[0] {
		case "modern":
			t, err := dataset.LoadModern(cfg.ModernPath)
			if err != nil {
				return err
			}
			sp := t.Specimens
			add("RUD_V", dataset.Pluck(sp, func(s dataset.ModernSpecimen) dataset.Measurement { return s.RUDV }))
			add("RUD_H", dataset.Pluck(sp, func(s dataset.ModernSpecimen) dataset.Measurement { return s.RUDH }))
			add("CA_H", dataset.Pluck(sp, func(s dataset.ModernSpecimen) dataset.Measurement { return s.CAH }))
			add("d13C", dataset.Pluck(sp, func(s dataset.ModernSpecimen) dataset.Measurement { return s.D13C }))
			add("d18O", dataset.Pluck(sp, func(s dataset.ModernSpecimen) dataset.Measurement { return s.D18O }))
			add("d18O_SMOW", dataset.Pluck(sp, func(s dataset.ModernSpecimen) dataset.Measurement { return s.D18OSMOW }))
		case "arch":
			t, err := dataset.LoadArch(cfg.ArchPath)
			if err != nil {
				return err
			}
			sp := t.Specimens
			add("RUD_V", dataset.Pluck(sp, func(s dataset.ArchSpecimen) dataset.Measurement { return s.RUDV }))
			add("RUD_H", dataset.Pluck(sp, func(s dataset.ArchSpecimen) dataset.Measurement { return s.RUDH }))
			add("CA_H", dataset.Pluck(sp, func(s dataset.ArchSpecimen) dataset.Measurement { return s.CAH }))
			add("d13C", dataset.Pluck(sp, func(s dataset.ArchSpecimen) dataset.Measurement { return s.D13C }))
			add("d18O", dataset.Pluck(sp, func(s dataset.ArchSpecimen) dataset.Measurement { return s.D18O }))
		case "water":
			t, err := dataset.LoadWater(cfg.WaterPath)
			if err != nil {
				return err
			}
			sp := t.Samples
			add("d18O_SMOW", dataset.Pluck(sp, func(s dataset.WaterSample) dataset.Measurement { return s.D18OSMOW }))
			add("Temp_C", dataset.Pluck(sp, func(s dataset.WaterSample) dataset.Measurement { return s.TempC }))
			add("pH", dataset.Pluck(sp, func(s dataset.WaterSample) dataset.Measurement { return s.PH }))
			add("Depth_cm", dataset.Pluck(sp, func(s dataset.WaterSample) dataset.Measurement { return s.DepthCM }))
		default:
			return fmt.Errorf("unknown table %q (want modern, arch, or water)", args[0])
		}

		fmt.Println(report.Describe(args[0], sums))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
