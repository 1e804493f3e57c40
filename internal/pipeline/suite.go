package pipeline

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/paleofauna/crabstat/internal/config"
	"github.com/paleofauna/crabstat/internal/dataset"
	"github.com/paleofauna/crabstat/internal/stats"
)

// Stage 4: stateless correlation and comparison analyses. Each analysis
// carries its own filter description; the filter is part of the analysis
// definition, not an incidental preprocessing step.

// CorrelationAnalysis is one named Pearson test over a filtered subset.
type CorrelationAnalysis struct {
	Name   string
	Filter string
	Result stats.PearsonResult
}

// WelchAnalysis is one named mean-difference test over a filtered subset.
type WelchAnalysis struct {
	Name   string
	Filter string
	Result stats.WelchResult
}

// PoolComparison compares water-source against dactyl-carbonate oxygen
// isotopes within one spatial pool group.
type PoolComparison struct {
	Group     string
	NWater    int
	NSpecimen int
	Result    stats.WelchResult
}

// SuiteResult bundles stage 4's outputs. Skipped lists analyses that could
// not run, with the subset/variable pair that caused it.
type SuiteResult struct {
	Correlations []CorrelationAnalysis
	Matrix       *stats.MatrixResult
	Reference    *WelchAnalysis
	Pools        []PoolComparison
	Skipped      []string
}

// RunSuite executes every stage-4 analysis. A failed analysis is recorded in
// Skipped and does not abort the rest of the suite; there are no retries.
func RunSuite(cfg *config.Global, est *Estimator, estimates []CarapaceEstimate,
	moderns []dataset.ModernSpecimen, waters dataset.Waters, pools map[string]string,
	log *zap.Logger) *SuiteResult {

	res := &SuiteResult{}
	level := cfg.ConfidenceLevel

	kept := excludeEstimates(estimates, cfg.KnownOutliers)
	if cfg.RestrictSquare != "" {
		var sq []CarapaceEstimate
		for _, e := range kept {
			if e.Square == cfg.RestrictSquare {
				sq = append(sq, e)
			}
		}
		kept = sq
	}
	filterDesc := describeFilter(cfg)

	sizeCol := EstimateColumn(kept)
	d13c := make([]dataset.Measurement, len(kept))
	d18o := make([]dataset.Measurement, len(kept))
	for i, e := range kept {
		d13c[i] = e.D13C
		d18o[i] = e.D18O
	}

	for _, an := range []struct {
		name string
		col  []dataset.Measurement
	}{
		{"CA_H_est ~ d13C", d13c},
		{"CA_H_est ~ d18O", d18o},
	} {
		xs, ys, _, err := dataset.Paired(sizeCol, an.col)
		if err != nil {
			res.skip(log, an.name, err)
			continue
		}
		t, err := stats.PearsonTest(xs, ys, level)
		if err != nil {
			res.skip(log, an.name, err)
			continue
		}
		res.Correlations = append(res.Correlations, CorrelationAnalysis{
			Name: an.name, Filter: filterDesc, Result: t,
		})
	}

	m, err := stats.CorrelationMatrix([]stats.NamedColumn{
		{Name: "CA_H_est", Col: sizeCol},
		{Name: "d13C", Col: d13c},
		{Name: "d18O", Col: d18o},
	}, level)
	if err != nil {
		res.skip(log, "correlation matrix", err)
	} else {
		res.Matrix = &m
	}

	// Published-equation comparison on the complete composed RUD_V column.
	var xs []float64
	for _, e := range kept {
		if e.RUDV.Valid {
			xs = append(xs, e.RUDV.Value)
		}
	}
	w, err := CompareEquations(est.Selected, cfg.Reference, xs, level)
	if err != nil {
		res.skip(log, "reference comparison", err)
	} else {
		res.Reference = &WelchAnalysis{
			Name:   fmt.Sprintf("this study vs %s", cfg.Reference.Name),
			Filter: filterDesc,
			Result: w,
		}
	}

	res.Pools = poolComparisons(res, waters, moderns, pools, level, log)
	return res
}

func (r *SuiteResult) skip(log *zap.Logger, name string, err error) {
	msg := fmt.Sprintf("%s: %v", name, err)
	r.Skipped = append(r.Skipped, msg)
	log.Warn("analysis skipped", zap.String("analysis", name), zap.Error(err))
}

// poolComparisons runs a Welch test per pool group: water d18O_SMOW against
// the water-referenced d18O of specimens associated to that group's samples.
func poolComparisons(res *SuiteResult, waters dataset.Waters, moderns []dataset.ModernSpecimen,
	pools map[string]string, level float64, log *zap.Logger) []PoolComparison {

	groupWater := make(map[string][]float64)
	sampleGroup := make(map[string]string)
	for _, ws := range waters.Samples {
		g := pools[ws.ID]
		if g == "" {
			continue
		}
		sampleGroup[ws.ID] = g
		if ws.D18OSMOW.Valid {
			groupWater[g] = append(groupWater[g], ws.D18OSMOW.Value)
		}
	}
	groupSpec := make(map[string][]float64)
	for _, sp := range moderns {
		g := sampleGroup[sp.WaterID]
		if g == "" || !sp.D18OSMOW.Valid {
			continue
		}
		groupSpec[g] = append(groupSpec[g], sp.D18OSMOW.Value)
	}

	groups := make([]string, 0, len(groupWater))
	for g := range groupWater {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	var out []PoolComparison
	for _, g := range groups {
		name := fmt.Sprintf("pool %s water vs specimen d18O_SMOW", g)
		w, err := stats.WelchTest(groupWater[g], groupSpec[g], level)
		if err != nil {
			res.skip(log, name, err)
			continue
		}
		out = append(out, PoolComparison{
			Group:     g,
			NWater:    len(groupWater[g]),
			NSpecimen: len(groupSpec[g]),
			Result:    w,
		})
	}
	return out
}

func excludeEstimates(ests []CarapaceEstimate, ids []string) []CarapaceEstimate {
	if len(ids) == 0 {
		return ests
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	var out []CarapaceEstimate
	for _, e := range ests {
		if !drop[e.SpecID] {
			out = append(out, e)
		}
	}
	return out
}

func describeFilter(cfg *config.Global) string {
	switch {
	case len(cfg.KnownOutliers) > 0 && cfg.RestrictSquare != "":
		return fmt.Sprintf("excluding %v; square %s only", cfg.KnownOutliers, cfg.RestrictSquare)
	case len(cfg.KnownOutliers) > 0:
		return fmt.Sprintf("excluding %v", cfg.KnownOutliers)
	case cfg.RestrictSquare != "":
		return fmt.Sprintf("square %s only", cfg.RestrictSquare)
	default:
		return "complete cases, no exclusions"
	}
}
