package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/paleofauna/crabstat/internal/config"
	"github.com/paleofauna/crabstat/internal/dataset"
	"github.com/paleofauna/crabstat/internal/fsutil"
	"github.com/paleofauna/crabstat/internal/geo"
)

// Run holds everything one pipeline execution produced, in stage order.
// Stage outputs are immutable once set; later stages read, never mutate,
// earlier results.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Config     *config.Global

	Moderns dataset.Moderns
	Archs   dataset.Archs
	Waters  dataset.Waters
	Sites   dataset.Sites

	Treatment   TreatmentResult
	Estimator   *Estimator
	Imputer     *Imputer
	Imputations []Imputation
	Estimates   []CarapaceEstimate
	Suite       *SuiteResult
	PoolAssign  map[string]string
}

// ExecuteAll loads the four tables and runs the stages in dependency order.
func ExecuteAll(cfg *config.Global, log *zap.Logger) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Config:    cfg,
	}
	log.Info("pipeline start", zap.String("run_id", run.ID))

	var err error
	if run.Moderns, err = dataset.LoadModern(cfg.ModernPath); err != nil {
		return nil, err
	}
	if run.Archs, err = dataset.LoadArch(cfg.ArchPath); err != nil {
		return nil, err
	}
	if run.Waters, err = dataset.LoadWater(cfg.WaterPath); err != nil {
		return nil, err
	}
	if cfg.SitesPath != "" {
		if run.Sites, err = dataset.LoadSites(cfg.SitesPath); err != nil {
			return nil, err
		}
	}

	// Stage 1.
	run.Treatment = TreatmentCheck()

	// Stage 2.
	run.Estimator, err = FitEstimator(run.Moderns.Specimens,
		cfg.ConfidenceLevel, cfg.SelectionAlpha, cfg.SelectionMinGain, log)
	if err != nil {
		return nil, err
	}

	// Stage 3, composed with stage 2.
	run.Imputer, err = FitImputer(run.Moderns.Specimens, cfg.ConfidenceLevel, log)
	if err != nil {
		return nil, err
	}
	run.Estimates, run.Imputations, err = ComposedEstimates(run.Estimator, run.Imputer, run.Archs.Specimens)
	if err != nil {
		return nil, err
	}
	log.Info("carapace estimates composed",
		zap.Int("specimens", len(run.Estimates)),
		zap.Int("imputed", len(run.Imputations)),
	)

	// Stage 4.
	run.PoolAssign = resolvePoolGroups(cfg, run.Waters)
	run.Suite = RunSuite(cfg, run.Estimator, run.Estimates,
		run.Moderns.Specimens, run.Waters, run.PoolAssign, log)

	run.FinishedAt = time.Now().UTC()
	log.Info("pipeline done",
		zap.String("run_id", run.ID),
		zap.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)),
	)
	return run, nil
}

// resolvePoolGroups picks pool assignments by precedence: explicit config
// table, then the manual Pool_Group column, then distance clustering over
// sample coordinates.
func resolvePoolGroups(cfg *config.Global, waters dataset.Waters) map[string]string {
	out := geo.PoolGroups(waters.Samples, cfg.PoolThresholdM)
	for _, ws := range waters.Samples {
		if ws.PoolGroup != "" {
			out[ws.ID] = ws.PoolGroup
		}
	}
	for id, g := range cfg.PoolGroups {
		out[id] = g
	}
	return out
}

// Manifest is the YAML run record written next to the reports, enough to
// reproduce and audit a run without rerunning it.
type Manifest struct {
	RunID      string    `yaml:"run_id"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`

	Inputs []ManifestInput `yaml:"inputs"`

	ConfidenceLevel  float64 `yaml:"confidence_level"`
	SelectionAlpha   float64 `yaml:"selection_alpha"`
	SelectionMinGain float64 `yaml:"selection_min_gain"`
	ReferenceModel   string  `yaml:"reference_model"`

	SelectedModel  string            `yaml:"selected_model"`
	SelectionRule  string            `yaml:"selection_rule"`
	Coefficients   []float64         `yaml:"coefficients"`
	ImputedCount   int               `yaml:"imputed_count"`
	EstimatedCount int               `yaml:"estimated_count"`
	PoolGroups     map[string]string `yaml:"pool_groups,omitempty"`
	Skipped        []string          `yaml:"skipped_analyses,omitempty"`
}

// ManifestInput records one loaded table.
type ManifestInput struct {
	Path     string   `yaml:"path"`
	Rows     int      `yaml:"rows"`
	Warnings []string `yaml:"warnings,omitempty"`
}

// BuildManifest summarizes the run for the manifest file.
func (r *Run) BuildManifest() Manifest {
	m := Manifest{
		RunID:            r.ID,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
		ConfidenceLevel:  r.Config.ConfidenceLevel,
		SelectionAlpha:   r.Config.SelectionAlpha,
		SelectionMinGain: r.Config.SelectionMinGain,
		ReferenceModel:   r.Config.Reference.Name,
		SelectionRule:    r.Estimator.Decision.Rule,
		Coefficients:     r.Estimator.Selected.Coeffs,
		ImputedCount:     len(r.Imputations),
		PoolGroups:       r.PoolAssign,
	}
	m.SelectedModel = "linear"
	if r.Estimator.Decision.ChoseQuadratic {
		m.SelectedModel = "quadratic"
	}
	for _, e := range r.Estimates {
		if e.Estimate != nil {
			m.EstimatedCount++
		}
	}
	if r.Suite != nil {
		m.Skipped = r.Suite.Skipped
	}
	for _, p := range []dataset.Provenance{
		r.Moderns.Provenance, r.Archs.Provenance, r.Waters.Provenance, r.Sites.Provenance,
	} {
		if p.Path == "" {
			continue
		}
		m.Inputs = append(m.Inputs, ManifestInput{Path: p.Path, Rows: p.Rows, Warnings: p.Warnings})
	}
	return m
}

// WriteManifest writes the YAML manifest into dir.
func (r *Run) WriteManifest(dir string) (string, error) {
	if err := fsutil.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("mkdir output dir: %w", err)
	}
	b, err := yaml.Marshal(r.BuildManifest())
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(dir, "run-"+r.ID+".yaml")
	if err := fsutil.SafeWriteFile(path, b); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
