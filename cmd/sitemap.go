package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/paleofauna/crabstat/internal/dataset"
	"github.com/paleofauna/crabstat/internal/geo"
)

var sitemapDryRun bool

var sitemapCmd = &cobra.Command{
	Use:   "sitemap",
	Short: "Download map tiles covering the sampling sites",
	Long: `Downloads one slippy-map tile per site from the configured tile
server into <output_dir>/tiles/. Purely a convenience for figures; the
statistical pipeline never touches the network.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}
		sites, err := dataset.LoadSites(cfg.SitesPath)
		if err != nil {
			return err
		}
		client := geo.NewTileClient(cfg.TileBaseURL, time.Duration(cfg.HTTPTimeoutSec)*time.Second)

		if sitemapDryRun {
			for _, s := range sites.Sites {
				fmt.Printf("%s: %s\n", s.ID, client.TileURL(s, cfg.TileZoom))
			}
			return nil
		}

		dir := filepath.Join(cfg.OutputDir, "tiles")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir tile dir: %w", err)
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		for _, s := range sites.Sites {
			body, err := client.FetchTile(ctx, s, cfg.TileZoom)
			if err != nil {
				logger.Warn("tile fetch failed", zap.String("site", s.ID), zap.Error(err))
				continue
			}
			path := filepath.Join(dir, s.ID+".png")
			if err := os.WriteFile(path, body, 0o644); err != nil {
				return fmt.Errorf("write tile: %w", err)
			}
			fmt.Printf("✓ %s → %s\n", s.ID, path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sitemapCmd)
	sitemapCmd.Flags().BoolVar(&sitemapDryRun, "dry-run", false, "print tile URLs without downloading")
}
