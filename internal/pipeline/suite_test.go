package pipeline

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/paleofauna/crabstat/internal/config"
	"github.com/paleofauna/crabstat/internal/dataset"
)

func suiteConfig() *config.Global {
	return &config.Global{
		ConfidenceLevel:  0.95,
		SelectionAlpha:   0.05,
		SelectionMinGain: 0.01,
		Reference:        config.DefaultReference,
		PoolThresholdM:   15,
	}
}

func isotopeAssemblage() []dataset.ArchSpecimen {
	return []dataset.ArchSpecimen{
		{ID: "A-01", Square: "B2", RUDV: dataset.Val(7), RUDH: dataset.Val(3.5),
			D13C: dataset.Val(-9.0), D18O: dataset.Val(-3.0)},
		{ID: "A-02", Square: "B2", RUDH: dataset.Val(5),
			D13C: dataset.Val(-8.0), D18O: dataset.Val(-3.4)},
		{ID: "A-03", Square: "B2", RUDV: dataset.Val(9), RUDH: dataset.Val(4.5),
			D13C: dataset.Val(-8.5), D18O: dataset.Val(-2.9)},
		// Too broken to size: no dactyl at all, isotopes only.
		{ID: "A-04", Square: "C1",
			D13C: dataset.Val(-7.9), D18O: dataset.Val(-3.2)},
	}
}

func suiteInputs(t *testing.T) (*Estimator, []CarapaceEstimate) {
	t.Helper()
	log := zap.NewNop()
	est, err := FitEstimator(referenceModerns(), 0.95, 0.05, 0.01, log)
	if err != nil {
		t.Fatalf("FitEstimator: %v", err)
	}
	im, err := FitImputer(referenceModerns(), 0.95, log)
	if err != nil {
		t.Fatalf("FitImputer: %v", err)
	}
	ests, _, err := ComposedEstimates(est, im, isotopeAssemblage())
	if err != nil {
		t.Fatalf("ComposedEstimates: %v", err)
	}
	return est, ests
}

func poolModerns() []dataset.ModernSpecimen {
	return []dataset.ModernSpecimen{
		{ID: "M-11", WaterID: "W1", D18OSMOW: dataset.Val(1.1)},
		{ID: "M-12", WaterID: "W1", D18OSMOW: dataset.Val(1.3)},
		{ID: "M-13", WaterID: "W2", D18OSMOW: dataset.Val(0.9)},
	}
}

func poolWaters() dataset.Waters {
	return dataset.Waters{Samples: []dataset.WaterSample{
		{ID: "W1", D18OSMOW: dataset.Val(1.2)},
		{ID: "W2", D18OSMOW: dataset.Val(1.4)},
	}}
}

func TestRunSuiteComplete(t *testing.T) {
	est, ests := suiteInputs(t)
	cfg := suiteConfig()
	pools := map[string]string{"W1": "P1", "W2": "P1"}

	res := RunSuite(cfg, est, ests, poolModerns(), poolWaters(), pools, zap.NewNop())

	if len(res.Skipped) != 0 {
		t.Fatalf("skipped = %v, want none", res.Skipped)
	}
	if len(res.Correlations) != 2 {
		t.Fatalf("correlations = %d, want 2", len(res.Correlations))
	}
	for _, c := range res.Correlations {
		if c.Result.N != 3 {
			t.Fatalf("%s n = %d, want 3 complete pairs (A-04 missing stays out)", c.Name, c.Result.N)
		}
		if c.Filter != "complete cases, no exclusions" {
			t.Fatalf("%s filter = %q", c.Name, c.Filter)
		}
	}
	if res.Matrix == nil || len(res.Matrix.Pairs) != 3 {
		t.Fatalf("matrix = %+v", res.Matrix)
	}
	if res.Reference == nil || !strings.Contains(res.Reference.Name, config.DefaultReference.Name) {
		t.Fatalf("reference analysis = %+v", res.Reference)
	}
	if len(res.Pools) != 1 || res.Pools[0].Group != "P1" {
		t.Fatalf("pools = %+v", res.Pools)
	}
	if res.Pools[0].NWater != 2 || res.Pools[0].NSpecimen != 3 {
		t.Fatalf("pool sizes = %+v", res.Pools[0])
	}
}

func TestRunSuiteDocumentedExclusions(t *testing.T) {
	est, ests := suiteInputs(t)
	cfg := suiteConfig()
	cfg.KnownOutliers = []string{"A-01"}
	cfg.RestrictSquare = "B2"

	res := RunSuite(cfg, est, ests, nil, dataset.Waters{}, nil, zap.NewNop())

	// A-01 excluded and C1 filtered out leaves A-02 and A-03: too few pairs,
	// so the correlations are skipped rather than silently run.
	if len(res.Correlations) != 0 {
		t.Fatalf("correlations = %+v, want none after exclusion", res.Correlations)
	}
	if len(res.Skipped) == 0 {
		t.Fatal("undersized analyses should be recorded as skipped")
	}

	filter := describeFilter(cfg)
	if !strings.Contains(filter, "A-01") || !strings.Contains(filter, "B2") {
		t.Fatalf("filter description = %q", filter)
	}
}

func TestRunSuiteNeverAborts(t *testing.T) {
	est, _ := suiteInputs(t)
	cfg := suiteConfig()

	// No estimates at all: everything is skipped, nothing panics.
	res := RunSuite(cfg, est, nil, nil, dataset.Waters{}, nil, zap.NewNop())
	if len(res.Skipped) == 0 {
		t.Fatal("empty input should record skips")
	}
	if res.Matrix != nil || res.Reference != nil || len(res.Pools) != 0 {
		t.Fatalf("empty input should produce no analyses: %+v", res)
	}
}

func TestExcludeEstimates(t *testing.T) {
	_, ests := suiteInputs(t)
	kept := excludeEstimates(ests, []string{"A-02", "A-04"})
	if len(kept) != 2 || kept[0].SpecID != "A-01" || kept[1].SpecID != "A-03" {
		t.Fatalf("kept = %+v", kept)
	}
	if got := excludeEstimates(ests, nil); len(got) != len(ests) {
		t.Fatalf("no exclusions should keep all, got %d", len(got))
	}
}
