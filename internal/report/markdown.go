// Package report renders pipeline results as Markdown. It is a pure
// formatting layer: every number it prints was computed upstream.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/paleofauna/crabstat/internal/pipeline"
	"github.com/paleofauna/crabstat/internal/stats"
)

// Treatment renders the stage-1 split-sample table.
func Treatment(res pipeline.TreatmentResult) string {
	var b strings.Builder
	b.WriteString("[TREATMENT-EFFECT CHECK]\n")
	b.WriteString("| Sample | Variable | Untreated | Treated | Diff |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, p := range res.Pairs {
		fmt.Fprintf(&b, "| %s | %s | %.2f | %.2f | %+.2f |\n",
			p.SampleID, p.Variable, p.Untreated, p.Treated, p.Diff())
	}
	vars := make([]string, 0, len(res.MeanDiff))
	for v := range res.MeanDiff {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	b.WriteString("\n")
	for _, v := range vars {
		fmt.Fprintf(&b, "- mean %s shift: %+.3f per mil\n", v, res.MeanDiff[v])
	}
	return b.String()
}

// ModelSummary renders a fitted model with its diagnostics.
func ModelSummary(m *stats.Model, trainIDs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[MODEL %s ~ %s]\n", m.Response, m.Predictor)
	fmt.Fprintf(&b, "n=%d, residual df=%d\n\n", m.N, m.DF)
	b.WriteString("| Term | Estimate | Std. Error |\n")
	b.WriteString("| --- | --- | --- |\n")
	terms := []string{"(Intercept)", m.Predictor, m.Predictor + "^2"}
	for i, c := range m.Coeffs {
		fmt.Fprintf(&b, "| %s | %.4f | %.4f |\n", terms[i], c, m.StdErrs[i])
	}
	fmt.Fprintf(&b, "\nR² = %.4f, adjusted R² = %.4f, residual SE = %.4f\n",
		m.R2, m.AdjR2, seFromVariance(m.Sigma2))
	if m.Degenerate {
		b.WriteString("\n⚠ degenerate fit: predictor is collinear or near-constant; coefficients may be unstable\n")
	}
	if hl := m.HighLeverage(); len(hl) > 0 {
		b.WriteString("\nHigh-leverage observations:\n")
		for _, i := range hl {
			id := fmt.Sprintf("#%d", i+1)
			if i < len(trainIDs) {
				id = trainIDs[i]
			}
			fmt.Fprintf(&b, "- %s (h=%.3f, residual %+.3f)\n", id, m.Leverage[i], m.Residuals[i])
		}
	}
	return b.String()
}

// Selection renders the explicit model-selection decision.
func Selection(d pipeline.SelectionDecision) string {
	var b strings.Builder
	b.WriteString("[MODEL SELECTION]\n")
	chosen := "linear"
	if d.ChoseQuadratic {
		chosen = "quadratic"
	}
	fmt.Fprintf(&b, "Selected: %s (%s)\n", chosen, d.Rule)
	fmt.Fprintf(&b, "- F(%d, %d) = %.4f, p = %.4f (cutoff %.2f)\n", d.FTest.DF1, d.FTest.DF2, d.FTest.F, d.FTest.PValue, d.Alpha)
	fmt.Fprintf(&b, "- adjusted R²: linear %.4f, quadratic %.4f (min gain %.2f)\n",
		d.AdjR2Linear, d.AdjR2Quadratic, d.MinGain)
	return b.String()
}

// Predictions renders the composed per-specimen carapace estimates.
func Predictions(ests []pipeline.CarapaceEstimate) string {
	var b strings.Builder
	b.WriteString("[CARAPACE ESTIMATES]\n")
	pi := "PI"
	for _, e := range ests {
		if e.Estimate != nil {
			pi = fmt.Sprintf("%.0f%% PI", e.Estimate.Level*100)
			break
		}
	}
	fmt.Fprintf(&b, "| Spec | Square | RUD_V | Source | CA_H est | SE | %s |\n", pi)
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- |\n")
	for _, e := range ests {
		if e.Estimate == nil {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | NA | NA | NA |\n",
				e.SpecID, e.Square, e.RUDV, e.Source)
			continue
		}
		p := e.Estimate
		fmt.Fprintf(&b, "| %s | %s | %.2f | %s | %.2f | %.3f | [%.2f, %.2f] |\n",
			e.SpecID, e.Square, e.RUDV.Value, e.Source, p.Fit, p.SE, p.PredLow, p.PredHigh)
	}
	return b.String()
}

// Pearson renders one correlation analysis.
func Pearson(name, filter string, r stats.PearsonResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- %s: r = %.3f, t(%d) = %.3f, p = %.4f, %.0f%% CI [%.3f, %.3f] (n=%d; filter: %s)\n",
		name, r.R, r.DF, r.T, r.PValue, r.Level*100, r.CILow, r.CIHigh, r.N, filter)
	return b.String()
}

// Welch renders one mean-difference analysis.
func Welch(name, filter string, w stats.WelchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- %s: diff = %.3f, t = %.3f, df = %.1f, p = %.4f, %.0f%% CI [%.3f, %.3f] (n=%d vs %d; filter: %s)\n",
		name, w.Diff, w.T, w.DF, w.PValue, w.Level*100, w.CILow, w.CIHigh, w.NA, w.NB, filter)
	return b.String()
}

// Suite renders the stage-4 bundle.
func Suite(s *pipeline.SuiteResult) string {
	var b strings.Builder
	b.WriteString("[CORRELATION & COMPARISON SUITE]\n")
	for _, c := range s.Correlations {
		b.WriteString(Pearson(c.Name, c.Filter, c.Result))
	}
	if s.Matrix != nil {
		b.WriteString("\n[CORRELATION MATRIX, HOLM-ADJUSTED]\n")
		b.WriteString("| Pair | r | n | p | p (Holm) |\n")
		b.WriteString("| --- | --- | --- | --- | --- |\n")
		for _, p := range s.Matrix.Pairs {
			fmt.Fprintf(&b, "| %s ~ %s | %.3f | %d | %.4f | %.4f |\n",
				p.A, p.B, p.Test.R, p.Test.N, p.Test.PValue, p.PAdj)
		}
	}
	if s.Reference != nil {
		b.WriteString("\n[PUBLISHED-EQUATION COMPARISON]\n")
		b.WriteString(Welch(s.Reference.Name, s.Reference.Filter, s.Reference.Result))
	}
	if len(s.Pools) > 0 {
		b.WriteString("\n[POOL-GROUP COMPARISONS]\n")
		for _, p := range s.Pools {
			name := fmt.Sprintf("pool %s water vs specimen d18O_SMOW", p.Group)
			filter := fmt.Sprintf("%d water samples, %d specimens", p.NWater, p.NSpecimen)
			b.WriteString(Welch(name, filter, p.Result))
		}
	}
	if len(s.Skipped) > 0 {
		b.WriteString("\n[SKIPPED ANALYSES]\n")
		for _, sk := range s.Skipped {
			b.WriteString("- " + sk + "\n")
		}
	}
	return b.String()
}

// FullRun renders the whole notebook for one run.
func FullRun(r *pipeline.Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# crabstat run %s\n\n", r.ID)
	b.WriteString(Treatment(r.Treatment))
	b.WriteString("\n")
	b.WriteString(ModelSummary(r.Estimator.Selected, r.Estimator.TrainIDs))
	b.WriteString("\n")
	b.WriteString(Selection(r.Estimator.Decision))
	b.WriteString("\n")
	b.WriteString(ModelSummary(r.Imputer.Model, nil))
	if len(r.Imputations) > 0 {
		b.WriteString("\n[IMPUTED RUD_V]\n")
		for _, im := range r.Imputations {
			fmt.Fprintf(&b, "- %s: RUD_H %.2f → RUD_V %.2f [%.2f, %.2f]\n",
				im.SpecID, im.RUDH, im.Filled.Fit, im.Filled.PredLow, im.Filled.PredHigh)
		}
	}
	b.WriteString("\n")
	b.WriteString(Predictions(r.Estimates))
	b.WriteString("\n")
	b.WriteString(Suite(r.Suite))
	return b.String()
}

// Describe renders descriptive statistics for named columns.
func Describe(name string, sums map[string]stats.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[DESCRIPTIVE STATISTICS: %s]\n", name)
	b.WriteString("| Variable | n | Mean | SD | Min | Median | Max |\n")
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- |\n")
	names := make([]string, 0, len(sums))
	for k := range sums {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		s := sums[k]
		fmt.Fprintf(&b, "| %s | %d | %.3f | %.3f | %.3f | %.3f | %.3f |\n",
			k, s.N, s.Mean, s.SD, s.Min, s.Median, s.Max)
	}
	return b.String()
}

func seFromVariance(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}
