package stats

import (
	"math"
	"testing"
)

func TestPearsonPerfectCorrelation(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}

	res, err := PearsonTest(x, y, 0.95)
	if err != nil {
		t.Fatalf("PearsonTest: %v", err)
	}
	if math.Abs(res.R-1) > 1e-12 {
		t.Fatalf("r = %v, want 1", res.R)
	}
	if res.PValue != 0 {
		t.Fatalf("p = %v, want 0 for a perfect correlation", res.PValue)
	}
	if res.DF != 3 {
		t.Fatalf("df = %d, want 3", res.DF)
	}
}

func TestPearsonSymmetric(t *testing.T) {
	x := []float64{1.2, 2.7, 3.1, 4.8, 5.5, 6.0}
	y := []float64{0.9, 2.1, 3.5, 4.0, 5.9, 5.2}

	a, err := PearsonTest(x, y, 0.95)
	if err != nil {
		t.Fatalf("PearsonTest(x,y): %v", err)
	}
	b, err := PearsonTest(y, x, 0.95)
	if err != nil {
		t.Fatalf("PearsonTest(y,x): %v", err)
	}
	if math.Abs(a.R-b.R) > 1e-12 || math.Abs(a.PValue-b.PValue) > 1e-12 {
		t.Fatalf("correlation not symmetric: %+v vs %+v", a, b)
	}
	if a.CILow > a.R || a.CIHigh < a.R {
		t.Fatalf("CI [%v, %v] does not bracket r=%v", a.CILow, a.CIHigh, a.R)
	}
}

func TestPearsonErrors(t *testing.T) {
	if _, err := PearsonTest([]float64{1, 2}, []float64{3, 4}, 0.95); err == nil {
		t.Fatal("n<3 should fail")
	}
	if _, err := PearsonTest([]float64{1, 2, 3}, []float64{1, 2}, 0.95); err == nil {
		t.Fatal("length mismatch should fail")
	}
	if _, err := PearsonTest([]float64{5, 5, 5, 5}, []float64{1, 2, 3, 4}, 0.95); err == nil {
		t.Fatal("constant column should fail")
	}
	if _, err := PearsonTest([]float64{1, 2, 3, 4}, []float64{1, 2, 3, 4}, 1.2); err == nil {
		t.Fatal("level outside (0,1) should fail")
	}
}

func TestWelchIdenticalSamples(t *testing.T) {
	a := []float64{1.0, 2.0, 3.0, 4.0}

	res, err := WelchTest(a, a, 0.95)
	if err != nil {
		t.Fatalf("WelchTest: %v", err)
	}
	if res.Diff != 0 || res.T != 0 {
		t.Fatalf("identical samples: diff=%v t=%v, want 0", res.Diff, res.T)
	}
	if math.Abs(res.PValue-1) > 1e-12 {
		t.Fatalf("p = %v, want 1", res.PValue)
	}
	if res.CILow > 0 || res.CIHigh < 0 {
		t.Fatalf("CI [%v, %v] should contain 0", res.CILow, res.CIHigh)
	}
}

func TestWelchClearSeparation(t *testing.T) {
	a := []float64{1.0, 1.1, 0.9, 1.05, 0.95}
	b := []float64{9.0, 9.2, 8.8, 9.1, 8.9}

	res, err := WelchTest(a, b, 0.95)
	if err != nil {
		t.Fatalf("WelchTest: %v", err)
	}
	if res.Diff >= 0 {
		t.Fatalf("diff = %v, want negative (mean A below mean B)", res.Diff)
	}
	if res.PValue > 1e-6 {
		t.Fatalf("p = %v, want tiny for well-separated samples", res.PValue)
	}
	if res.CILow <= res.Diff && res.Diff <= res.CIHigh {
		// ok, CI brackets the point estimate
	} else {
		t.Fatalf("CI [%v, %v] does not bracket diff=%v", res.CILow, res.CIHigh, res.Diff)
	}
	if res.CIHigh >= 0 {
		t.Fatalf("CI [%v, %v] should exclude 0 at this separation", res.CILow, res.CIHigh)
	}
}

func TestWelchErrors(t *testing.T) {
	if _, err := WelchTest([]float64{1}, []float64{1, 2}, 0.95); err == nil {
		t.Fatal("n<2 should fail")
	}
	if _, err := WelchTest([]float64{3, 3, 3}, []float64{5, 5, 5}, 0.95); err == nil {
		t.Fatal("two constant samples should fail")
	}
}

func TestHolmAdjust(t *testing.T) {
	ps := []float64{0.01, 0.04, 0.02}
	adj := HolmAdjust(ps)

	want := []float64{0.03, 0.04, 0.04}
	for i := range want {
		if math.Abs(adj[i]-want[i]) > 1e-12 {
			t.Fatalf("adj = %v, want %v", adj, want)
		}
	}
	for i := range ps {
		if adj[i] < ps[i] {
			t.Fatalf("adjusted p %v below raw %v", adj[i], ps[i])
		}
	}
}

func TestHolmAdjustClampsAtOne(t *testing.T) {
	adj := HolmAdjust([]float64{0.5, 0.6})
	if adj[0] != 1 || adj[1] != 1 {
		t.Fatalf("adj = %v, want [1 1]", adj)
	}
}

func TestHolmAdjustEmpty(t *testing.T) {
	if adj := HolmAdjust(nil); len(adj) != 0 {
		t.Fatalf("adj = %v, want empty", adj)
	}
}

func TestDescribe(t *testing.T) {
	s, err := Describe([]float64{3, 1, 2})
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if s.N != 3 || s.Min != 1 || s.Max != 3 {
		t.Fatalf("summary = %+v", s)
	}
	if math.Abs(s.Mean-2) > 1e-12 || math.Abs(s.Median-2) > 1e-12 {
		t.Fatalf("mean/median = %v/%v, want 2/2", s.Mean, s.Median)
	}
	if math.Abs(s.SD-1) > 1e-12 {
		t.Fatalf("sd = %v, want 1", s.SD)
	}

	if _, err := Describe(nil); err == nil {
		t.Fatal("empty column should fail")
	}
}
