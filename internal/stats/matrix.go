package stats

import (
	"fmt"
	"sort"

	"github.com/paleofauna/crabstat/internal/dataset"
)

// NamedColumn pairs a variable name with its (possibly gappy) measurements.
type NamedColumn struct {
	Name string
	Col  []dataset.Measurement
}

// MatrixPair is one cell of the pairwise correlation matrix.
type MatrixPair struct {
	A, B string
	Test PearsonResult
	// PAdj is the Holm-adjusted p-value across all pairs of the matrix.
	PAdj float64
}

// MatrixResult holds all pairwise correlations among a fixed variable set,
// with familywise error correction applied over the whole family.
type MatrixResult struct {
	Names []string
	Pairs []MatrixPair
}

// CorrelationMatrix tests every pair among three or more named columns.
// Each pair is filtered to its own complete cases, so different pairs may
// have different sample sizes. Pairs with too few observations abort the
// matrix with an error naming the offending pair.
func CorrelationMatrix(vars []NamedColumn, level float64) (MatrixResult, error) {
	if len(vars) < 3 {
		return MatrixResult{}, fmt.Errorf("correlation matrix: need at least 3 variables, have %d", len(vars))
	}
	res := MatrixResult{Names: make([]string, len(vars))}
	for i, v := range vars {
		res.Names[i] = v.Name
	}
	for i := 0; i < len(vars); i++ {
		for j := i + 1; j < len(vars); j++ {
			xs, ys, _, err := dataset.Paired(vars[i].Col, vars[j].Col)
			if err != nil {
				return MatrixResult{}, fmt.Errorf("correlation matrix %s ~ %s: %w", vars[i].Name, vars[j].Name, err)
			}
			t, err := PearsonTest(xs, ys, level)
			if err != nil {
				return MatrixResult{}, fmt.Errorf("correlation matrix %s ~ %s: %w", vars[i].Name, vars[j].Name, err)
			}
			res.Pairs = append(res.Pairs, MatrixPair{A: vars[i].Name, B: vars[j].Name, Test: t})
		}
	}
	ps := make([]float64, len(res.Pairs))
	for i, p := range res.Pairs {
		ps[i] = p.Test.PValue
	}
	for i, adj := range HolmAdjust(ps) {
		res.Pairs[i].PAdj = adj
	}
	return res, nil
}

// HolmAdjust applies Holm's step-down familywise correction. Adjusted values
// are never below their raw p-values and preserve the significance ordering.
func HolmAdjust(ps []float64) []float64 {
	m := len(ps)
	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return ps[order[a]] < ps[order[b]] })

	adj := make([]float64, m)
	running := 0.0
	for rank, idx := range order {
		v := float64(m-rank) * ps[idx]
		if v > 1 {
			v = 1
		}
		if v < running {
			v = running // enforce monotonicity in the step-down order
		}
		running = v
		adj[idx] = v
	}
	return adj
}
