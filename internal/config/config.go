package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ReferenceModel is a previously published dactyl-to-carapace regression,
// carried as named configuration so swapping the comparison target is a
// config change rather than a code edit.
type ReferenceModel struct {
	Name      string  `mapstructure:"name" yaml:"name"`
	Intercept float64 `mapstructure:"intercept" yaml:"intercept"`
	Slope     float64 `mapstructure:"slope" yaml:"slope"`
}

// Global configuration structure.
type Global struct {
	// Input tables.
	ModernPath string `mapstructure:"modern_path" yaml:"modern_path"`
	ArchPath   string `mapstructure:"arch_path" yaml:"arch_path"`
	WaterPath  string `mapstructure:"water_path" yaml:"water_path"`
	SitesPath  string `mapstructure:"sites_path" yaml:"sites_path"`

	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// Statistical parameters.
	ConfidenceLevel float64 `mapstructure:"confidence_level" yaml:"confidence_level"`
	// Model selection: the quadratic term must be significant below
	// SelectionAlpha AND improve adjusted R² by at least SelectionMinGain,
	// otherwise the linear model is kept.
	SelectionAlpha   float64 `mapstructure:"selection_alpha" yaml:"selection_alpha"`
	SelectionMinGain float64 `mapstructure:"selection_min_gain" yaml:"selection_min_gain"`

	Reference ReferenceModel `mapstructure:"reference_model" yaml:"reference_model"`

	// Analysis filters, part of each analysis definition.
	KnownOutliers  []string `mapstructure:"known_outliers" yaml:"known_outliers"`
	RestrictSquare string   `mapstructure:"restrict_square" yaml:"restrict_square"`

	// Pool grouping: manual assignments win; otherwise samples within
	// PoolThresholdM meters of each other are clustered.
	PoolThresholdM float64           `mapstructure:"pool_threshold_m" yaml:"pool_threshold_m"`
	PoolGroups     map[string]string `mapstructure:"pool_groups" yaml:"pool_groups,omitempty"`

	// Map output (optional, no effect on the pipeline).
	TileBaseURL    string `mapstructure:"tile_base_url" yaml:"tile_base_url"`
	TileZoom       int    `mapstructure:"tile_zoom" yaml:"tile_zoom"`
	HTTPTimeoutSec int    `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
}

// DefaultReference holds the published comparison equation used when the
// config does not name another (CA_H = intercept + slope * RUD_V).
var DefaultReference = ReferenceModel{
	Name:      "published-dactyl-carapace-1996",
	Intercept: 2.19,
	Slope:     1.876,
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.crabstat/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".crabstat")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CRABSTAT")
	v.AutomaticEnv()

	v.SetDefault("modern_path", "data/modern.csv")
	v.SetDefault("arch_path", "data/arch.csv")
	v.SetDefault("water_path", "data/water.csv")
	v.SetDefault("sites_path", "data/sites.csv")
	v.SetDefault("output_dir", "out")
	v.SetDefault("confidence_level", 0.95)
	v.SetDefault("selection_alpha", 0.05)
	v.SetDefault("selection_min_gain", 0.01)
	v.SetDefault("reference_model.name", DefaultReference.Name)
	v.SetDefault("reference_model.intercept", DefaultReference.Intercept)
	v.SetDefault("reference_model.slope", DefaultReference.Slope)
	v.SetDefault("pool_threshold_m", 15.0)
	v.SetDefault("tile_base_url", "https://tile.openstreetmap.org")
	v.SetDefault("tile_zoom", 15)
	v.SetDefault("http_timeout_sec", 20)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".crabstat")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		return nil, fmt.Errorf("confidence_level %v out of (0,1)", c.ConfidenceLevel)
	}
	if c.SelectionAlpha <= 0 || c.SelectionAlpha >= 1 {
		return nil, fmt.Errorf("selection_alpha %v out of (0,1)", c.SelectionAlpha)
	}
	return &c, nil
}
