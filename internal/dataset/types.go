package dataset

import (
	"fmt"
	"strconv"
	"strings"
)

// Measurement is a numeric field that may be missing. Broken archaeological
// specimens and partial water-sample records leave gaps; a Measurement with
// Valid=false marks such a gap and is excluded per-analysis, never globally.
type Measurement struct {
	Value float64
	Valid bool
}

// Val wraps a known value.
func Val(v float64) Measurement { return Measurement{Value: v, Valid: true} }

// NA is the missing measurement.
func NA() Measurement { return Measurement{} }

func (m Measurement) String() string {
	if !m.Valid {
		return "NA"
	}
	return strconv.FormatFloat(m.Value, 'g', -1, 64)
}

// parseMeasurement maps empty cells and the usual missing markers to NA.
func parseMeasurement(s string) (Measurement, error) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "", "NA", "N/A", "NAN", "-":
		return NA(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NA(), fmt.Errorf("parse %q: %w", s, err)
	}
	return Val(v), nil
}

// ModernSpecimen is one row of the modern reference collection: a crab
// collected live at a known wadi, with paired dactyl and carapace
// measurements and dactyl-carbonate isotope ratios.
type ModernSpecimen struct {
	ID       string
	Wadi     string
	Year     int
	RUDV     Measurement // right upper dactyl ventral length, mm
	RUDH     Measurement // right upper dactyl height, mm
	CAH      Measurement // carapace height, mm
	D13C     Measurement // per mil VPDB
	D18O     Measurement // per mil VPDB
	D18OSMOW Measurement // per mil SMOW (water-referenced)
	WaterID  string      // optional key into the water-sample table
}

// ArchSpecimen is one row of the excavated assemblage. RUD_V is structurally
// missing on broken specimens; CA_H is never measured directly and is only
// ever estimated downstream.
type ArchSpecimen struct {
	ID     string
	Square string // excavation unit label
	RUDV   Measurement
	RUDH   Measurement
	CAH    Measurement
	D13C   Measurement
	D18O   Measurement
}

// WaterSample is a sampled water source, associated many-to-one from
// specimens via ModernSpecimen.WaterID.
type WaterSample struct {
	ID        string
	Wadi      string
	D18OSMOW  Measurement
	TempC     Measurement
	PH        Measurement
	DepthCM   Measurement
	PoolGroup string // manual proximity classification; may be empty
	Lat       Measurement
	Lon       Measurement
}

// Site is a named collection or excavation locality.
type Site struct {
	ID   string
	Wadi string
	Kind string // "collection" | "excavation" | "water"
	Lat  float64
	Lon  float64
}

// Provenance records where a table came from, for the run manifest.
type Provenance struct {
	Path     string
	Rows     int
	Warnings []string
}

// Moderns is a loaded modern-specimen table.
type Moderns struct {
	Specimens  []ModernSpecimen
	Provenance Provenance
}

// Archs is a loaded archaeological-specimen table.
type Archs struct {
	Specimens  []ArchSpecimen
	Provenance Provenance
}

// Waters is a loaded water-sample table.
type Waters struct {
	Samples    []WaterSample
	Provenance Provenance
}

// Sites is a loaded geolocation table.
type Sites struct {
	Sites      []Site
	Provenance Provenance
}

// ByID returns the water sample with the given ID, if present.
func (w Waters) ByID(id string) (WaterSample, bool) {
	for _, s := range w.Samples {
		if s.ID == id {
			return s, true
		}
	}
	return WaterSample{}, false
}
