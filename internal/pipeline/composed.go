package pipeline

import (
	"fmt"

	"github.com/paleofauna/crabstat/internal/dataset"
	"github.com/paleofauna/crabstat/internal/stats"
)

// RUDVSource says where the dactyl length feeding a carapace estimate came
// from.
type RUDVSource string

const (
	SourceMeasured RUDVSource = "measured"
	SourceImputed  RUDVSource = "imputed"
	SourceMissing  RUDVSource = "missing"
)

// CarapaceEstimate is the composed stage-2+3 output for one archaeological
// specimen. The original measurement fields ride along untouched so that the
// correlation suite can join size against isotopes.
type CarapaceEstimate struct {
	SpecID   string
	Square   string
	RUDV     dataset.Measurement
	Source   RUDVSource
	Estimate *stats.Prediction // nil when RUDV is missing
	D13C     dataset.Measurement
	D18O     dataset.Measurement
}

// ComposedEstimates chains the imputer and the estimator: measured RUD_V is
// preferred, imputed RUD_V fills the gaps, and specimens lacking RUD_H stay
// unestimated rather than being dropped.
func ComposedEstimates(est *Estimator, im *Imputer, arch []dataset.ArchSpecimen) ([]CarapaceEstimate, []Imputation, error) {
	filled, imps, err := im.Apply(arch)
	if err != nil {
		return nil, nil, err
	}
	imputed := make(map[string]bool, len(imps))
	for _, p := range imps {
		imputed[p.SpecID] = true
	}

	out := make([]CarapaceEstimate, len(filled))
	for i, sp := range filled {
		ce := CarapaceEstimate{
			SpecID: sp.ID,
			Square: sp.Square,
			RUDV:   sp.RUDV,
			Source: SourceMissing,
			D13C:   sp.D13C,
			D18O:   sp.D18O,
		}
		if sp.RUDV.Valid {
			ce.Source = SourceMeasured
			if imputed[sp.ID] {
				ce.Source = SourceImputed
			}
			p, err := est.Selected.Predict(sp.RUDV.Value, est.Level)
			if err != nil {
				return nil, nil, fmt.Errorf("composed estimate for %s: %w", sp.ID, err)
			}
			ce.Estimate = &p
		}
		out[i] = ce
	}
	return out, imps, nil
}

// EstimateColumn lifts composed estimates into a measurement column aligned
// with the input, for use in the correlation suite.
func EstimateColumn(ests []CarapaceEstimate) []dataset.Measurement {
	col := make([]dataset.Measurement, len(ests))
	for i, e := range ests {
		if e.Estimate != nil {
			col[i] = dataset.Val(e.Estimate.Fit)
		}
	}
	return col
}
