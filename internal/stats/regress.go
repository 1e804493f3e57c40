package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Model is an ordinary-least-squares fit of a response on polynomial terms of
// a single predictor. A Model only exists after a successful fit, so
// prediction can never run against an unfitted handle.
type Model struct {
	Predictor string
	Response  string

	// Coeffs holds intercept, slope and (for Degree 2) the quadratic term.
	Coeffs  []float64
	StdErrs []float64
	Degree  int

	N      int
	DF     int // residual degrees of freedom, N - len(Coeffs)
	R2     float64
	AdjR2  float64
	RSS    float64
	Sigma2 float64 // residual variance RSS/DF

	Residuals []float64
	Leverage  []float64 // hat-matrix diagonal per training observation

	// Degenerate flags a collinear or near-constant predictor. The fit is
	// still returned; callers report it as a warning.
	Degenerate bool

	xtxInv *mat.Dense
}

// Prediction is one predicted response with its uncertainty at Level.
type Prediction struct {
	X     float64
	Fit   float64
	SE    float64 // standard error of the fitted mean
	Level float64

	// Confidence interval for the mean response.
	ConfLow, ConfHigh float64
	// Prediction interval for a new individual observation.
	PredLow, PredHigh float64
}

// condDegenerate is the design-matrix condition number past which a fit is
// flagged as degenerate. Past this point the coefficients are numerically
// unstable even though a least-squares solution still exists.
const condDegenerate = 1e6

// FitLinear fits response = a + b*x.
func FitLinear(predictor, response string, x, y []float64) (*Model, error) {
	return fitPoly(predictor, response, x, y, 1)
}

// FitQuadratic fits response = a + b*x + c*x^2.
func FitQuadratic(predictor, response string, x, y []float64) (*Model, error) {
	return fitPoly(predictor, response, x, y, 2)
}

func fitPoly(predictor, response string, x, y []float64, degree int) (*Model, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("fit %s ~ %s: length mismatch %d vs %d", response, predictor, len(x), len(y))
	}
	n := len(x)
	p := degree + 1
	if n < p+1 {
		return nil, fmt.Errorf("fit %s ~ %s: need at least %d observations, have %d", response, predictor, p+1, n)
	}

	X := mat.NewDense(n, p, nil)
	for i, xv := range x {
		t := 1.0
		for j := 0; j < p; j++ {
			X.Set(i, j, t)
			t *= xv
		}
	}
	yv := mat.NewVecDense(n, append([]float64(nil), y...))

	m := &Model{
		Predictor: predictor,
		Response:  response,
		Degree:    degree,
		N:         n,
		DF:        n - p,
		Coeffs:    make([]float64, p),
		StdErrs:   make([]float64, p),
		Residuals: make([]float64, n),
		Leverage:  make([]float64, n),
	}

	// The degeneracy check must run before solving: QR rejects a
	// near-singular design outright, but the contract is a flagged fit,
	// not a failure. Degenerate designs go through the SVD pseudo-inverse,
	// which always yields a (possibly unstable) least-squares solution.
	if mat.Cond(X, 2) > condDegenerate {
		m.Degenerate = true
	}
	if m.Degenerate {
		if err := solvePseudo(X, yv, m); err != nil {
			return nil, fmt.Errorf("fit %s ~ %s: %w", response, predictor, err)
		}
	} else {
		var qr mat.QR
		qr.Factorize(X)
		var beta mat.VecDense
		if err := qr.SolveVecTo(&beta, false, yv); err != nil {
			return nil, fmt.Errorf("fit %s ~ %s: singular design matrix: %w", response, predictor, err)
		}
		for j := 0; j < p; j++ {
			m.Coeffs[j] = beta.AtVec(j)
		}
		var xtx mat.Dense
		xtx.Mul(X.T(), X)
		m.xtxInv = mat.NewDense(p, p, nil)
		if err := m.xtxInv.Inverse(&xtx); err != nil {
			return nil, fmt.Errorf("fit %s ~ %s: singular design matrix: %w", response, predictor, err)
		}
	}

	meanY := stat.Mean(y, nil)
	var tss float64
	for i := 0; i < n; i++ {
		fit := m.Eval(x[i])
		r := y[i] - fit
		m.Residuals[i] = r
		m.RSS += r * r
		d := y[i] - meanY
		tss += d * d
	}
	if tss > 0 {
		m.R2 = 1 - m.RSS/tss
		m.AdjR2 = 1 - (1-m.R2)*float64(n-1)/float64(m.DF)
	}
	if m.DF > 0 {
		m.Sigma2 = m.RSS / float64(m.DF)
	}

	for j := 0; j < p; j++ {
		m.StdErrs[j] = math.Sqrt(m.Sigma2 * m.xtxInv.At(j, j))
	}
	for i := 0; i < n; i++ {
		m.Leverage[i] = m.quadForm(x[i])
	}
	return m, nil
}

// solvePseudo fills Coeffs and the (X'X) pseudo-inverse from a rank-truncated
// SVD. Singular values below a relative tolerance are dropped, so an exactly
// collinear design gets the minimum-norm solution instead of an error.
func solvePseudo(X *mat.Dense, y *mat.VecDense, m *Model) error {
	var svd mat.SVD
	if !svd.Factorize(X, mat.SVDThin) {
		return fmt.Errorf("svd factorization failed")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)
	tol := s[0] * 1e-12

	n, p := X.Dims()
	coef := make([]float64, p)
	for j := 0; j < p; j++ {
		if s[j] <= tol {
			continue
		}
		var dot float64
		for i := 0; i < n; i++ {
			dot += u.At(i, j) * y.AtVec(i)
		}
		coef[j] = dot / s[j]
	}
	for k := 0; k < p; k++ {
		var b float64
		for j := 0; j < p; j++ {
			b += v.At(k, j) * coef[j]
		}
		m.Coeffs[k] = b
	}

	m.xtxInv = mat.NewDense(p, p, nil)
	for a := 0; a < p; a++ {
		for c := 0; c < p; c++ {
			var sum float64
			for j := 0; j < p; j++ {
				if s[j] <= tol {
					continue
				}
				sum += v.At(a, j) * v.At(c, j) / (s[j] * s[j])
			}
			m.xtxInv.Set(a, c, sum)
		}
	}
	return nil
}

// Eval applies the fitted polynomial at x0 without interval bookkeeping.
func (m *Model) Eval(x0 float64) float64 {
	fit, t := 0.0, 1.0
	for _, c := range m.Coeffs {
		fit += c * t
		t *= x0
	}
	return fit
}

// quadForm computes x0' (X'X)^-1 x0 for the polynomial basis at x0.
func (m *Model) quadForm(x0 float64) float64 {
	p := len(m.Coeffs)
	row := make([]float64, p)
	t := 1.0
	for j := 0; j < p; j++ {
		row[j] = t
		t *= x0
	}
	var h float64
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			h += row[i] * m.xtxInv.At(i, j) * row[j]
		}
	}
	return h
}

// Predict returns the fitted value at x0 with confidence and prediction
// intervals at the given level (e.g. 0.95).
func (m *Model) Predict(x0, level float64) (Prediction, error) {
	if level <= 0 || level >= 1 {
		return Prediction{}, fmt.Errorf("predict: level %v out of (0,1)", level)
	}
	pr := Prediction{X: x0, Fit: m.Eval(x0), Level: level}
	h := m.quadForm(x0)
	pr.SE = math.Sqrt(m.Sigma2 * h)
	seNew := math.Sqrt(m.Sigma2 * (1 + h))

	var q float64
	if m.DF > 0 && m.Sigma2 > 0 {
		t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(m.DF)}
		q = t.Quantile(1 - (1-level)/2)
	}
	pr.ConfLow, pr.ConfHigh = pr.Fit-q*pr.SE, pr.Fit+q*pr.SE
	pr.PredLow, pr.PredHigh = pr.Fit-q*seNew, pr.Fit+q*seNew
	return pr, nil
}

// HighLeverage returns indices of training observations whose leverage
// exceeds the conventional 2p/n cutoff. Informational only.
func (m *Model) HighLeverage() []int {
	cutoff := 2 * float64(len(m.Coeffs)) / float64(m.N)
	var out []int
	for i, h := range m.Leverage {
		if h > cutoff {
			out = append(out, i)
		}
	}
	return out
}

// FTestResult compares two nested OLS fits.
type FTestResult struct {
	F      float64
	DF1    int
	DF2    int
	PValue float64
}

// CompareNested runs the extra-sum-of-squares F-test of the reduced model
// against the full model. The reduced model must be nested in the full one.
func CompareNested(reduced, full *Model) (FTestResult, error) {
	if reduced.N != full.N {
		return FTestResult{}, fmt.Errorf("nested F-test: models fit on different samples (%d vs %d)", reduced.N, full.N)
	}
	df1 := reduced.DF - full.DF
	df2 := full.DF
	if df1 <= 0 || df2 <= 0 {
		return FTestResult{}, fmt.Errorf("nested F-test: degrees of freedom %d/%d", df1, df2)
	}
	res := FTestResult{DF1: df1, DF2: df2}
	if full.RSS <= 0 {
		// Full model is an exact fit; any remaining reduced-model RSS is
		// infinitely significant, none at all is indistinguishable.
		if reduced.RSS > 0 {
			res.F = math.Inf(1)
			res.PValue = 0
		} else {
			res.PValue = 1
		}
		return res, nil
	}
	res.F = ((reduced.RSS - full.RSS) / float64(df1)) / (full.RSS / float64(df2))
	if res.F < 0 {
		res.F = 0
	}
	fd := distuv.F{D1: float64(df1), D2: float64(df2)}
	res.PValue = 1 - fd.CDF(res.F)
	return res, nil
}
