package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// PearsonResult is a Pearson product-moment correlation test.
type PearsonResult struct {
	R      float64
	N      int
	T      float64
	DF     int
	PValue float64
	Level  float64
	// Fisher z-transform confidence interval for R.
	CILow, CIHigh float64
}

// PearsonTest correlates two equal-length columns. Missing values must
// already have been removed pairwise by the caller.
func PearsonTest(x, y []float64, level float64) (PearsonResult, error) {
	if len(x) != len(y) {
		return PearsonResult{}, fmt.Errorf("pearson: length mismatch %d vs %d", len(x), len(y))
	}
	n := len(x)
	if n < 3 {
		return PearsonResult{}, fmt.Errorf("pearson: need at least 3 paired observations, have %d", n)
	}
	if level <= 0 || level >= 1 {
		return PearsonResult{}, fmt.Errorf("pearson: level %v out of (0,1)", level)
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return PearsonResult{}, fmt.Errorf("pearson: constant input column")
	}
	res := PearsonResult{R: r, N: n, DF: n - 2, Level: level}

	if r2 := r * r; r2 < 1 {
		res.T = r * math.Sqrt(float64(n-2)/(1-r2))
	} else {
		res.T = math.Inf(1) * sign(r)
	}
	td := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	if math.IsInf(res.T, 0) {
		res.PValue = 0
	} else {
		res.PValue = 2 * td.CDF(-math.Abs(res.T))
	}

	if n <= 3 {
		res.CILow, res.CIHigh = -1, 1
		return res, nil
	}
	z := math.Atanh(r)
	se := 1 / math.Sqrt(float64(n-3))
	q := distuv.UnitNormal.Quantile(1 - (1-level)/2)
	res.CILow = math.Tanh(z - q*se)
	res.CIHigh = math.Tanh(z + q*se)
	return res, nil
}

// WelchResult is a two-sample mean-difference test with unequal variances.
type WelchResult struct {
	MeanA, MeanB  float64
	NA, NB        int
	Diff          float64 // MeanA - MeanB
	T             float64
	DF            float64 // Welch–Satterthwaite approximation
	PValue        float64
	Level         float64
	CILow, CIHigh float64 // confidence interval for the mean difference
}

// WelchTest compares the means of two columns of potentially unequal
// variance and length.
func WelchTest(a, b []float64, level float64) (WelchResult, error) {
	if len(a) < 2 || len(b) < 2 {
		return WelchResult{}, fmt.Errorf("welch: need at least 2 observations per sample, have %d and %d", len(a), len(b))
	}
	if level <= 0 || level >= 1 {
		return WelchResult{}, fmt.Errorf("welch: level %v out of (0,1)", level)
	}
	na, nb := float64(len(a)), float64(len(b))
	ma, mb := stat.Mean(a, nil), stat.Mean(b, nil)
	va, vb := stat.Variance(a, nil), stat.Variance(b, nil)

	res := WelchResult{
		MeanA: ma, MeanB: mb,
		NA: len(a), NB: len(b),
		Diff: ma - mb, Level: level,
	}
	sa, sb := va/na, vb/nb
	se := math.Sqrt(sa + sb)
	if se == 0 {
		return WelchResult{}, fmt.Errorf("welch: both samples are constant")
	}
	res.T = res.Diff / se
	res.DF = (sa + sb) * (sa + sb) / (sa*sa/(na-1) + sb*sb/(nb-1))

	td := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: res.DF}
	res.PValue = 2 * td.CDF(-math.Abs(res.T))
	q := td.Quantile(1 - (1-level)/2)
	res.CILow = res.Diff - q*se
	res.CIHigh = res.Diff + q*se
	return res, nil
}

// Summary is a descriptive-statistics bundle for one column.
type Summary struct {
	N      int
	Mean   float64
	SD     float64
	Min    float64
	Max    float64
	Median float64
}

// Describe summarizes a column with missing values already removed.
func Describe(xs []float64) (Summary, error) {
	if len(xs) == 0 {
		return Summary{}, fmt.Errorf("describe: empty column")
	}
	s := Summary{N: len(xs), Mean: stat.Mean(xs, nil)}
	if len(xs) > 1 {
		s.SD = math.Sqrt(stat.Variance(xs, nil))
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return s, nil
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
