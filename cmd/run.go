package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/paleofauna/crabstat/internal/fsutil"
	"github.com/paleofauna/crabstat/internal/pipeline"
	"github.com/paleofauna/crabstat/internal/report"
)

var (
	runOutputPath string
	runNoManifest bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full four-stage pipeline and write the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}
		r, err := pipeline.ExecuteAll(cfg, logger)
		if err != nil {
			return err
		}
		md := report.FullRun(r)

		outPath := runOutputPath
		if outPath == "" {
			if err := fsutil.EnsureDir(cfg.OutputDir); err != nil {
				return fmt.Errorf("mkdir output dir: %w", err)
			}
			outPath = filepath.Join(cfg.OutputDir, "report-"+r.ID+".md")
		}
		if err := fsutil.SafeWriteFile(outPath, []byte(md)); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("✓ Wrote report to %s\n", outPath)

		if !runNoManifest {
			mPath, err := r.WriteManifest(cfg.OutputDir)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Wrote run manifest to %s\n", mPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runOutputPath, "output", "o", "", "path for the Markdown report (default <output_dir>/report-<run>.md)")
	runCmd.Flags().BoolVar(&runNoManifest, "no-manifest", false, "skip writing the YAML run manifest")
}
