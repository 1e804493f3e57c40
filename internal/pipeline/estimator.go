package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/paleofauna/crabstat/internal/dataset"
	"github.com/paleofauna/crabstat/internal/stats"
)

// Estimator is stage 2: carapace height regressed on dactyl ventral length
// over the modern reference collection. Both candidate fits are kept for
// reporting; Selected is the one the rest of the pipeline uses.
type Estimator struct {
	Linear    *stats.Model
	Quadratic *stats.Model
	Selected  *stats.Model
	Decision  SelectionDecision
	Level     float64

	// TrainIDs are the modern specimen IDs that survived complete-case
	// filtering, aligned with the models' residuals and leverage.
	TrainIDs []string
}

// FitEstimator fits both candidate models on paired (RUD_V, CA_H) rows and
// applies the selection rule.
func FitEstimator(moderns []dataset.ModernSpecimen, level, alpha, minGain float64, log *zap.Logger) (*Estimator, error) {
	rudv := dataset.Pluck(moderns, func(s dataset.ModernSpecimen) dataset.Measurement { return s.RUDV })
	cah := dataset.Pluck(moderns, func(s dataset.ModernSpecimen) dataset.Measurement { return s.CAH })
	xs, ys, idx, err := dataset.Paired(rudv, cah)
	if err != nil {
		return nil, fmt.Errorf("estimator RUD_V/CA_H: %w", err)
	}

	lin, err := stats.FitLinear("RUD_V", "CA_H", xs, ys)
	if err != nil {
		return nil, fmt.Errorf("estimator: %w", err)
	}
	quad, err := stats.FitQuadratic("RUD_V", "CA_H", xs, ys)
	if err != nil {
		return nil, fmt.Errorf("estimator: %w", err)
	}
	dec, err := SelectModel(lin, quad, alpha, minGain, log)
	if err != nil {
		return nil, fmt.Errorf("estimator: %w", err)
	}

	est := &Estimator{Linear: lin, Quadratic: quad, Decision: dec, Level: level}
	est.Selected = lin
	if dec.ChoseQuadratic {
		est.Selected = quad
	}
	for _, i := range idx {
		est.TrainIDs = append(est.TrainIDs, moderns[i].ID)
	}
	if est.Selected.Degenerate {
		log.Warn("estimator fit is degenerate; coefficients may be unstable",
			zap.String("predictor", est.Selected.Predictor))
	}
	if hl := est.Selected.HighLeverage(); len(hl) > 0 {
		ids := make([]string, len(hl))
		for i, j := range hl {
			ids[i] = est.TrainIDs[j]
		}
		log.Info("high-leverage reference specimens", zap.Strings("spec_ids", ids))
	}
	return est, nil
}

// PredictionRow attaches a carapace prediction to one query specimen.
// Rows with missing RUD_V carry a nil prediction; missing-ness propagates,
// it is never an error.
type PredictionRow struct {
	SpecID string
	RUDV   dataset.Measurement
	Pred   *stats.Prediction
}

// PredictCarapace predicts CA_H for each query row with a non-missing RUD_V.
func (e *Estimator) PredictCarapace(ids []string, rudv []dataset.Measurement) ([]PredictionRow, error) {
	if len(ids) != len(rudv) {
		return nil, fmt.Errorf("predict carapace: %w: %d ids vs %d values", dataset.ErrLengthMismatch, len(ids), len(rudv))
	}
	rows := make([]PredictionRow, len(ids))
	for i := range ids {
		rows[i] = PredictionRow{SpecID: ids[i], RUDV: rudv[i]}
		if !rudv[i].Valid {
			continue
		}
		p, err := e.Selected.Predict(rudv[i].Value, e.Level)
		if err != nil {
			return nil, fmt.Errorf("predict carapace for %s: %w", ids[i], err)
		}
		rows[i].Pred = &p
	}
	return rows, nil
}
