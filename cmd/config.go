package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/paleofauna/crabstat/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set crabstat configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("modern_path: %s\n", cfg.ModernPath)
		fmt.Printf("arch_path: %s\n", cfg.ArchPath)
		fmt.Printf("water_path: %s\n", cfg.WaterPath)
		fmt.Printf("sites_path: %s\n", cfg.SitesPath)
		fmt.Printf("output_dir: %s\n", cfg.OutputDir)
		fmt.Printf("confidence_level: %.3f\n", cfg.ConfidenceLevel)
		fmt.Printf("selection_alpha: %.3f\n", cfg.SelectionAlpha)
		fmt.Printf("selection_min_gain: %.3f\n", cfg.SelectionMinGain)
		fmt.Printf("reference_model: %s (CA_H = %.3f + %.3f * RUD_V)\n",
			cfg.Reference.Name, cfg.Reference.Intercept, cfg.Reference.Slope)
		if len(cfg.KnownOutliers) > 0 {
			fmt.Printf("known_outliers: %v\n", cfg.KnownOutliers)
		}
		if cfg.RestrictSquare != "" {
			fmt.Printf("restrict_square: %s\n", cfg.RestrictSquare)
		}
		fmt.Printf("pool_threshold_m: %.1f\n", cfg.PoolThresholdM)
		if len(cfg.PoolGroups) > 0 {
			fmt.Printf("pool_groups: %v\n", cfg.PoolGroups)
		}
		fmt.Printf("tile_base_url: %s\n", cfg.TileBaseURL)
		fmt.Printf("tile_zoom: %d\n", cfg.TileZoom)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "modern_path":
			cfg.ModernPath = val
		case "arch_path":
			cfg.ArchPath = val
		case "water_path":
			cfg.WaterPath = val
		case "sites_path":
			cfg.SitesPath = val
		case "output_dir":
			cfg.OutputDir = val
		case "confidence_level":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 || f >= 1 {
				return fmt.Errorf("invalid confidence_level: %v (want a value in (0,1))", val)
			}
			cfg.ConfidenceLevel = f
		case "selection_alpha":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 || f >= 1 {
				return fmt.Errorf("invalid selection_alpha: %v (want a value in (0,1))", val)
			}
			cfg.SelectionAlpha = f
		case "selection_min_gain":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f < 0 {
				return fmt.Errorf("invalid selection_min_gain: %v", val)
			}
			cfg.SelectionMinGain = f
		case "restrict_square":
			cfg.RestrictSquare = val
		case "pool_threshold_m":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("invalid pool_threshold_m: %v", val)
			}
			cfg.PoolThresholdM = f
		case "tile_base_url":
			cfg.TileBaseURL = val
		case "tile_zoom":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 || i > 19 {
				return fmt.Errorf("invalid tile_zoom: %v", val)
			}
			cfg.TileZoom = i
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
}
