package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/paleofauna/crabstat/internal/config"
	"github.com/paleofauna/crabstat/internal/dataset"
	"github.com/paleofauna/crabstat/internal/stats"
)

// Imputer is stage 3: dactyl ventral length regressed on dactyl height over
// the modern reference collection, used to fill RUD_V on broken
// archaeological specimens.
type Imputer struct {
	Model *stats.Model
	Level float64
}

// FitImputer fits RUD_V = γ + δ·RUD_H on the modern reference collection.
func FitImputer(moderns []dataset.ModernSpecimen, level float64, log *zap.Logger) (*Imputer, error) {
	rudh := dataset.Pluck(moderns, func(s dataset.ModernSpecimen) dataset.Measurement { return s.RUDH })
	rudv := dataset.Pluck(moderns, func(s dataset.ModernSpecimen) dataset.Measurement { return s.RUDV })
	xs, ys, _, err := dataset.Paired(rudh, rudv)
	if err != nil {
		return nil, fmt.Errorf("imputer RUD_H/RUD_V: %w", err)
	}
	m, err := stats.FitLinear("RUD_H", "RUD_V", xs, ys)
	if err != nil {
		return nil, fmt.Errorf("imputer: %w", err)
	}
	if m.Degenerate {
		log.Warn("imputer fit is degenerate; coefficients may be unstable")
	}
	log.Info("imputer fitted",
		zap.Int("n", m.N),
		zap.Float64("intercept", m.Coeffs[0]),
		zap.Float64("slope", m.Coeffs[1]),
		zap.Float64("r2", m.R2),
	)
	return &Imputer{Model: m, Level: level}, nil
}

// Imputation records one filled RUD_V value.
type Imputation struct {
	SpecID string
	RUDH   float64
	Filled stats.Prediction
}

// Apply returns a new assemblage in which every specimen with RUD_H present
// and RUD_V missing gets a predicted RUD_V. A measured RUD_V is never
// overwritten; specimens lacking RUD_H are returned unchanged.
func (im *Imputer) Apply(arch []dataset.ArchSpecimen) ([]dataset.ArchSpecimen, []Imputation, error) {
	out := make([]dataset.ArchSpecimen, len(arch))
	copy(out, arch)
	var imps []Imputation
	for i, sp := range out {
		if sp.RUDV.Valid || !sp.RUDH.Valid {
			continue
		}
		p, err := im.Model.Predict(sp.RUDH.Value, im.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("impute RUD_V for %s: %w", sp.ID, err)
		}
		out[i].RUDV = dataset.Val(p.Fit)
		imps = append(imps, Imputation{SpecID: sp.ID, RUDH: sp.RUDH.Value, Filled: p})
	}
	return out, imps, nil
}

// CompareEquations is the imputer's standalone comparison mode: estimate the
// same inputs with this study's fitted model and with a published reference
// equation, then quantify the disagreement with Welch's t-test.
func CompareEquations(m *stats.Model, ref config.ReferenceModel, xs []float64, level float64) (stats.WelchResult, error) {
	if len(xs) == 0 {
		return stats.WelchResult{}, fmt.Errorf("compare equations: %w", dataset.ErrNoObservations)
	}
	ours := make([]float64, len(xs))
	theirs := make([]float64, len(xs))
	for i, x := range xs {
		ours[i] = m.Eval(x)
		theirs[i] = ref.Intercept + ref.Slope*x
	}
	res, err := stats.WelchTest(ours, theirs, level)
	if err != nil {
		return stats.WelchResult{}, fmt.Errorf("compare equations against %s: %w", ref.Name, err)
	}
	return res, nil
}
