package pipeline

// Stage 1: split-sample check that the oxidative pre-treatment does not
// shift dactyl-carbonate isotope values. The measurements are a fixed
// published table; the stage computes nothing beyond per-pair differences.

// TreatmentPair is one split sample measured untreated and treated.
type TreatmentPair struct {
	SampleID  string
	Variable  string // "d13C" | "d18O"
	Untreated float64
	Treated   float64
}

// Diff is treated minus untreated.
func (p TreatmentPair) Diff() float64 { return p.Treated - p.Untreated }

// treatmentTable holds the split-sample measurements, per mil VPDB.
var treatmentTable = []TreatmentPair{
	{SampleID: "MC-03", Variable: "d13C", Untreated: -9.84, Treated: -9.79},
	{SampleID: "MC-03", Variable: "d18O", Untreated: -3.12, Treated: -3.05},
	{SampleID: "MC-11", Variable: "d13C", Untreated: -10.21, Treated: -10.27},
	{SampleID: "MC-11", Variable: "d18O", Untreated: -2.88, Treated: -2.94},
	{SampleID: "AC-07", Variable: "d13C", Untreated: -8.95, Treated: -8.90},
	{SampleID: "AC-07", Variable: "d18O", Untreated: -4.41, Treated: -4.36},
}

// TreatmentResult reports the split-sample differences per variable.
type TreatmentResult struct {
	Pairs    []TreatmentPair
	MeanDiff map[string]float64
}

// TreatmentCheck runs stage 1.
func TreatmentCheck() TreatmentResult {
	res := TreatmentResult{
		Pairs:    append([]TreatmentPair(nil), treatmentTable...),
		MeanDiff: make(map[string]float64),
	}
	counts := make(map[string]int)
	for _, p := range res.Pairs {
		res.MeanDiff[p.Variable] += p.Diff()
		counts[p.Variable]++
	}
	for v, n := range counts {
		res.MeanDiff[v] /= float64(n)
	}
	return res
}
