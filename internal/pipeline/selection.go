package pipeline

import (
	"go.uber.org/zap"

	"github.com/paleofauna/crabstat/internal/stats"
)

// SelectionDecision records why the estimator kept the linear or the
// quadratic dactyl-carapace model. The original analysis made this call
// informally; here the rule is explicit and testable on its own.
type SelectionDecision struct {
	ChoseQuadratic bool
	FTest          stats.FTestResult
	AdjR2Linear    float64
	AdjR2Quadratic float64
	AdjR2Gain      float64
	Alpha          float64
	MinGain        float64
	Rule           string
}

// SelectModel prefers the quadratic fit only when its extra term is
// significant below alpha and adjusted R² improves by at least minGain.
func SelectModel(lin, quad *stats.Model, alpha, minGain float64, log *zap.Logger) (SelectionDecision, error) {
	ft, err := stats.CompareNested(lin, quad)
	if err != nil {
		return SelectionDecision{}, err
	}
	d := SelectionDecision{
		FTest:          ft,
		AdjR2Linear:    lin.AdjR2,
		AdjR2Quadratic: quad.AdjR2,
		AdjR2Gain:      quad.AdjR2 - lin.AdjR2,
		Alpha:          alpha,
		MinGain:        minGain,
	}
	switch {
	case ft.PValue >= alpha:
		d.Rule = "quadratic term not significant"
	case d.AdjR2Gain < minGain:
		d.Rule = "adjusted R² gain below threshold"
	default:
		d.ChoseQuadratic = true
		d.Rule = "quadratic term significant and adjusted R² improved"
	}
	log.Info("model selection",
		zap.Bool("chose_quadratic", d.ChoseQuadratic),
		zap.String("rule", d.Rule),
		zap.Float64("f_stat", ft.F),
		zap.Float64("p_value", ft.PValue),
		zap.Float64("adj_r2_linear", d.AdjR2Linear),
		zap.Float64("adj_r2_quadratic", d.AdjR2Quadratic),
	)
	return d, nil
}
