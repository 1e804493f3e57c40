package report

import (
	"strings"
	"testing"

	"github.com/paleofauna/crabstat/internal/dataset"
	"github.com/paleofauna/crabstat/internal/pipeline"
	"github.com/paleofauna/crabstat/internal/stats"
)

func fitLine(t *testing.T) *stats.Model {
	t.Helper()
	m, err := stats.FitLinear("RUD_V", "CA_H", []float64{10, 11, 12, 13, 14}, []float64{20.1, 21.9, 24.2, 25.8, 28.1})
	if err != nil {
		t.Fatalf("FitLinear: %v", err)
	}
	return m
}

func TestTreatmentRendering(t *testing.T) {
	md := Treatment(pipeline.TreatmentCheck())
	if !strings.Contains(md, "[TREATMENT-EFFECT CHECK]") {
		t.Fatalf("missing header:\n%s", md)
	}
	if !strings.Contains(md, "MC-03") || !strings.Contains(md, "AC-07") {
		t.Fatalf("missing sample rows:\n%s", md)
	}
	if !strings.Contains(md, "mean d13C shift") || !strings.Contains(md, "mean d18O shift") {
		t.Fatalf("missing mean shifts:\n%s", md)
	}
}

func TestModelSummaryRendering(t *testing.T) {
	m := fitLine(t)
	md := ModelSummary(m, []string{"M-01", "M-02", "M-03", "M-04", "M-05"})
	if !strings.Contains(md, "[MODEL CA_H ~ RUD_V]") {
		t.Fatalf("missing header:\n%s", md)
	}
	if !strings.Contains(md, "(Intercept)") || !strings.Contains(md, "| RUD_V |") {
		t.Fatalf("missing coefficient rows:\n%s", md)
	}
	if !strings.Contains(md, "adjusted R²") {
		t.Fatalf("missing fit quality:\n%s", md)
	}
	if strings.Contains(md, "degenerate fit") {
		t.Fatalf("healthy fit flagged as degenerate:\n%s", md)
	}

	m.Degenerate = true
	if !strings.Contains(ModelSummary(m, nil), "degenerate fit") {
		t.Fatal("degenerate flag not rendered as a warning")
	}
}

func TestSelectionRendering(t *testing.T) {
	d := pipeline.SelectionDecision{
		FTest:          stats.FTestResult{F: 1.2, DF1: 1, DF2: 5, PValue: 0.31},
		AdjR2Linear:    0.97,
		AdjR2Quadratic: 0.96,
		Alpha:          0.05,
		MinGain:        0.01,
		Rule:           "quadratic term not significant",
	}
	md := Selection(d)
	if !strings.Contains(md, "Selected: linear") {
		t.Fatalf("missing selection line:\n%s", md)
	}
	if !strings.Contains(md, "F(1, 5)") || !strings.Contains(md, "p = 0.3100") {
		t.Fatalf("missing test detail:\n%s", md)
	}

	d.ChoseQuadratic = true
	if !strings.Contains(Selection(d), "Selected: quadratic") {
		t.Fatal("quadratic decision not rendered")
	}
}

func TestPredictionsRendering(t *testing.T) {
	m := fitLine(t)
	p, err := m.Predict(13, 0.95)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	ests := []pipeline.CarapaceEstimate{
		{SpecID: "A-01", Square: "B2", RUDV: dataset.Val(13), Source: pipeline.SourceMeasured, Estimate: &p},
		{SpecID: "A-04", Square: "C1", Source: pipeline.SourceMissing},
	}
	md := Predictions(ests)
	if !strings.Contains(md, "[CARAPACE ESTIMATES]") {
		t.Fatalf("missing header:\n%s", md)
	}
	if !strings.Contains(md, "| A-01 | B2 | 13.00 | measured |") {
		t.Fatalf("missing estimated row:\n%s", md)
	}
	if !strings.Contains(md, "| A-04 | C1 | NA | missing | NA | NA | NA |") {
		t.Fatalf("missing NA row:\n%s", md)
	}
}

func TestSuiteRenderingListsSkips(t *testing.T) {
	s := &pipeline.SuiteResult{
		Skipped: []string{"CA_H_est ~ d13C: no valid observations"},
	}
	md := Suite(s)
	if !strings.Contains(md, "[CORRELATION & COMPARISON SUITE]") {
		t.Fatalf("missing header:\n%s", md)
	}
	if !strings.Contains(md, "[SKIPPED ANALYSES]") || !strings.Contains(md, "no valid observations") {
		t.Fatalf("missing skips:\n%s", md)
	}
}

func TestDescribeRendering(t *testing.T) {
	md := Describe("modern", map[string]stats.Summary{
		"RUD_V": {N: 5, Mean: 12, SD: 1.58, Min: 10, Median: 12, Max: 14},
	})
	if !strings.Contains(md, "[DESCRIPTIVE STATISTICS: modern]") {
		t.Fatalf("missing header:\n%s", md)
	}
	if !strings.Contains(md, "| RUD_V | 5 |") {
		t.Fatalf("missing variable row:\n%s", md)
	}
}
