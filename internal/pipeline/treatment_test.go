package pipeline

import (
	"math"
	"testing"
)

func TestTreatmentCheck(t *testing.T) {
	res := TreatmentCheck()
	if len(res.Pairs) != 6 {
		t.Fatalf("pairs = %d, want 6", len(res.Pairs))
	}
	seen := make(map[string]int)
	for _, p := range res.Pairs {
		seen[p.Variable]++
		if math.Abs(p.Diff()) > 0.1 {
			t.Fatalf("pair %s/%s shift %v implausibly large for split samples", p.SampleID, p.Variable, p.Diff())
		}
	}
	if seen["d13C"] != 3 || seen["d18O"] != 3 {
		t.Fatalf("pair counts = %v", seen)
	}
	if math.Abs(res.MeanDiff["d13C"]-0.04/3) > 1e-9 {
		t.Fatalf("mean d13C shift = %v", res.MeanDiff["d13C"])
	}
	if math.Abs(res.MeanDiff["d18O"]-0.02) > 1e-9 {
		t.Fatalf("mean d18O shift = %v", res.MeanDiff["d18O"])
	}
}
