package dataset

import "fmt"

// Pluck extracts one measurement column from a slice of records.
func Pluck[T any](rows []T, f func(T) Measurement) []Measurement {
	out := make([]Measurement, len(rows))
	for i, r := range rows {
		out[i] = f(r)
	}
	return out
}

// Paired returns the complete-case rows of two aligned columns: the values
// where both measurements are valid, plus the original row indices that
// survived. Filtering is per-pair so that analyses over different variable
// subsets each keep their own maximal sample.
func Paired(x, y []Measurement) (xs, ys []float64, idx []int, err error) {
	if len(x) != len(y) {
		return nil, nil, nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(x), len(y))
	}
	for i := range x {
		if x[i].Valid && y[i].Valid {
			xs = append(xs, x[i].Value)
			ys = append(ys, y[i].Value)
			idx = append(idx, i)
		}
	}
	if len(xs) == 0 {
		return nil, nil, nil, ErrNoObservations
	}
	return xs, ys, idx, nil
}

// CompleteCases returns the values of rows where every listed column is
// valid, one output slice per input column, plus the surviving row indices.
func CompleteCases(cols ...[]Measurement) (vals [][]float64, idx []int, err error) {
	if len(cols) == 0 {
		return nil, nil, ErrNoObservations
	}
	n := len(cols[0])
	for _, c := range cols[1:] {
		if len(c) != n {
			return nil, nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, n, len(c))
		}
	}
	vals = make([][]float64, len(cols))
	for i := 0; i < n; i++ {
		ok := true
		for _, c := range cols {
			if !c[i].Valid {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		for j, c := range cols {
			vals[j] = append(vals[j], c[i].Value)
		}
		idx = append(idx, i)
	}
	if len(idx) == 0 {
		return nil, nil, ErrNoObservations
	}
	return vals, idx, nil
}

// Values drops missing entries from a single column.
func Values(col []Measurement) []float64 {
	var out []float64
	for _, m := range col {
		if m.Valid {
			out = append(out, m.Value)
		}
	}
	return out
}

// ExcludeIDs returns the archaeological specimens whose ID is not listed.
// Analysis definitions use this for documented outlier exclusions.
func ExcludeIDs(specs []ArchSpecimen, ids []string) []ArchSpecimen {
	if len(ids) == 0 {
		return specs
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	var out []ArchSpecimen
	for _, s := range specs {
		if !drop[s.ID] {
			out = append(out, s)
		}
	}
	return out
}

// FilterSquare restricts the assemblage to one excavation square.
func FilterSquare(specs []ArchSpecimen, square string) []ArchSpecimen {
	if square == "" {
		return specs
	}
	var out []ArchSpecimen
	for _, s := range specs {
		if s.Square == square {
			out = append(out, s)
		}
	}
	return out
}
