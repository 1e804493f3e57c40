package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/paleofauna/crabstat/internal/config"
	"github.com/paleofauna/crabstat/internal/dataset"
)

func TestResolvePoolGroupsPrecedence(t *testing.T) {
	waters := dataset.Waters{Samples: []dataset.WaterSample{
		// W1 and W2 are ~5 m apart and cluster together.
		{ID: "W1", Lat: dataset.Val(25.0), Lon: dataset.Val(35.0)},
		{ID: "W2", Lat: dataset.Val(25.00004), Lon: dataset.Val(35.0)},
		// W3 is far away but manually classified.
		{ID: "W3", Lat: dataset.Val(25.01), Lon: dataset.Val(35.0), PoolGroup: "MAN"},
		// W4 has no coordinates and no manual group.
		{ID: "W4"},
	}}
	cfg := &config.Global{
		PoolThresholdM: 15,
		PoolGroups:     map[string]string{"W1": "CFG"},
	}

	out := resolvePoolGroups(cfg, waters)
	if out["W1"] != "CFG" {
		t.Fatalf("config assignment should win: %v", out)
	}
	if out["W2"] != "P1" {
		t.Fatalf("W2 should keep its cluster label: %v", out)
	}
	if out["W3"] != "MAN" {
		t.Fatalf("manual column should beat clustering: %v", out)
	}
	if _, ok := out["W4"]; ok {
		t.Fatalf("sample without coordinates should stay unassigned: %v", out)
	}
}

func writeRunFixtures(t *testing.T) *config.Global {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	modern := strings.Join([]string{
		"Spec_ID,Wadi,Year,RUD_V,RUD_H,CA_H,d13C,d18O,d18O_SMOW,Water_ID",
		"M-01,Qudaid,2019,10,5,20,-9.8,-3.1,1.1,W1",
		"M-02,Qudaid,2019,11,5.5,22,-10.1,-2.9,1.3,W1",
		"M-03,Qudaid,2020,12,6,24,-9.5,-3.3,0.9,W2",
		"M-04,Qudaid,2020,13,6.5,26,-9.0,-3.0,1.2,W2",
		"M-05,Qudaid,2021,14,7,28,-8.8,-3.2,1.0,W1",
	}, "\n")
	arch := strings.Join([]string{
		"Spec_ID,Square,RUD_V,RUD_H,d13C,d18O",
		"A-01,B2,7,3.5,-9.0,-3.0",
		"A-02,B2,NA,5,-8.0,-3.4",
		"A-03,B2,9,4.5,-8.5,-2.9",
		"A-04,C1,NA,NA,-7.9,-3.2",
	}, "\n")
	water := strings.Join([]string{
		"Sample_ID,Wadi,d18O_SMOW,Lat,Lon",
		"W1,Qudaid,1.2,25.0,35.0",
		"W2,Qudaid,1.4,25.00004,35.0",
	}, "\n")
	sites := strings.Join([]string{
		"Site_ID,Wadi,Kind,Lat,Lon",
		"S1,Qudaid,collection,25.0,35.0",
	}, "\n")

	return &config.Global{
		ModernPath:       write("modern.csv", modern),
		ArchPath:         write("arch.csv", arch),
		WaterPath:        write("water.csv", water),
		SitesPath:        write("sites.csv", sites),
		OutputDir:        filepath.Join(dir, "out"),
		ConfidenceLevel:  0.95,
		SelectionAlpha:   0.05,
		SelectionMinGain: 0.01,
		Reference:        config.DefaultReference,
		PoolThresholdM:   15,
	}
}

func TestExecuteAll(t *testing.T) {
	cfg := writeRunFixtures(t)

	run, err := ExecuteAll(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("ExecuteAll: %v", err)
	}
	if run.ID == "" || run.FinishedAt.Before(run.StartedAt) {
		t.Fatalf("run bookkeeping = %q %v %v", run.ID, run.StartedAt, run.FinishedAt)
	}

	if len(run.Treatment.Pairs) != 6 {
		t.Fatalf("treatment pairs = %d", len(run.Treatment.Pairs))
	}
	if run.Estimator.Decision.ChoseQuadratic {
		t.Fatalf("exact linear reference data picked quadratic: %+v", run.Estimator.Decision)
	}
	if len(run.Imputations) != 1 || run.Imputations[0].SpecID != "A-02" {
		t.Fatalf("imputations = %+v", run.Imputations)
	}
	if len(run.Estimates) != 4 {
		t.Fatalf("estimates = %d, want 4", len(run.Estimates))
	}
	if run.Estimates[3].Source != SourceMissing {
		t.Fatalf("A-04 should stay unestimated: %+v", run.Estimates[3])
	}
	if run.PoolAssign["W1"] != "P1" || run.PoolAssign["W2"] != "P1" {
		t.Fatalf("pool assignment = %v", run.PoolAssign)
	}
	if run.Suite == nil || len(run.Suite.Correlations) != 2 {
		t.Fatalf("suite = %+v", run.Suite)
	}
	if len(run.Sites.Sites) != 1 {
		t.Fatalf("sites = %+v", run.Sites.Sites)
	}
}

func TestWriteManifest(t *testing.T) {
	cfg := writeRunFixtures(t)
	run, err := ExecuteAll(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("ExecuteAll: %v", err)
	}

	m := run.BuildManifest()
	if m.RunID != run.ID || m.SelectedModel != "linear" {
		t.Fatalf("manifest = %+v", m)
	}
	if m.ImputedCount != 1 || m.EstimatedCount != 3 {
		t.Fatalf("manifest counts = %+v", m)
	}
	if len(m.Inputs) != 4 {
		t.Fatalf("manifest inputs = %+v", m.Inputs)
	}

	path, err := run.WriteManifest(cfg.OutputDir)
	if err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, run.ID) || !strings.Contains(s, "selected_model: linear") {
		t.Fatalf("manifest content:\n%s", s)
	}
	if !strings.Contains(s, "modern.csv") {
		t.Fatalf("manifest missing inputs:\n%s", s)
	}
}
