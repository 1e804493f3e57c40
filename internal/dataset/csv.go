package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// table is a header-indexed view over a parsed CSV file.
type table struct {
	name   string
	header map[string]int
	rows   [][]string
}

func readTable(path string, required []string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		r.Comma = '\t'
	}

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty table", filepath.Base(path))
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	t := &table{name: filepath.Base(path), header: make(map[string]int, len(header))}
	for i, h := range header {
		t.header[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range required {
		if _, ok := t.header[strings.ToLower(col)]; !ok {
			return nil, fmt.Errorf("%s: missing column %s", t.name, col)
		}
	}
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(t.rows)+2, err)
		}
		row := make([]string, len(rec))
		copy(row, rec)
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func (t *table) str(row []string, col string) string {
	i, ok := t.header[strings.ToLower(col)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *table) meas(row []string, col string, warns *[]string, rowNum int) Measurement {
	m, err := parseMeasurement(t.str(row, col))
	if err != nil {
		*warns = append(*warns, fmt.Sprintf("%s row %d, %s: %v (treated as NA)", t.name, rowNum, col, err))
		return NA()
	}
	return m
}

// LoadModern reads the modern reference collection.
//
// Expected columns: Spec_ID, Wadi, Year, RUD_V, RUD_H, CA_H, d13C, d18O,
// d18O_SMOW, Water_ID. Numeric cells may hold NA.
func LoadModern(path string) (Moderns, error) {
	t, err := readTable(path, []string{"Spec_ID", "RUD_V", "RUD_H", "CA_H"})
	if err != nil {
		return Moderns{}, fmt.Errorf("modern table: %w", err)
	}
	out := Moderns{Provenance: Provenance{Path: path, Rows: len(t.rows)}}
	for i, row := range t.rows {
		n := i + 2 // 1-based file line, after header
		sp := ModernSpecimen{
			ID:      t.str(row, "Spec_ID"),
			Wadi:    t.str(row, "Wadi"),
			WaterID: t.str(row, "Water_ID"),
		}
		if y := t.str(row, "Year"); y != "" {
			if yr, err := strconv.Atoi(y); err == nil {
				sp.Year = yr
			} else {
				out.Provenance.Warnings = append(out.Provenance.Warnings,
					fmt.Sprintf("%s row %d: bad year %q", t.name, n, y))
			}
		}
		sp.RUDV = t.meas(row, "RUD_V", &out.Provenance.Warnings, n)
		sp.RUDH = t.meas(row, "RUD_H", &out.Provenance.Warnings, n)
		sp.CAH = t.meas(row, "CA_H", &out.Provenance.Warnings, n)
		sp.D13C = t.meas(row, "d13C", &out.Provenance.Warnings, n)
		sp.D18O = t.meas(row, "d18O", &out.Provenance.Warnings, n)
		sp.D18OSMOW = t.meas(row, "d18O_SMOW", &out.Provenance.Warnings, n)
		out.Specimens = append(out.Specimens, sp)
	}
	return out, nil
}

// LoadArch reads the excavated assemblage.
//
// Expected columns: Spec_ID, Square, RUD_V, RUD_H, d13C, d18O. CA_H is
// accepted if present but is normally absent.
func LoadArch(path string) (Archs, error) {
	t, err := readTable(path, []string{"Spec_ID", "RUD_H"})
	if err != nil {
		return Archs{}, fmt.Errorf("archaeological table: %w", err)
	}
	out := Archs{Provenance: Provenance{Path: path, Rows: len(t.rows)}}
	for i, row := range t.rows {
		n := i + 2
		sp := ArchSpecimen{
			ID:     t.str(row, "Spec_ID"),
			Square: t.str(row, "Square"),
		}
		sp.RUDV = t.meas(row, "RUD_V", &out.Provenance.Warnings, n)
		sp.RUDH = t.meas(row, "RUD_H", &out.Provenance.Warnings, n)
		sp.CAH = t.meas(row, "CA_H", &out.Provenance.Warnings, n)
		sp.D13C = t.meas(row, "d13C", &out.Provenance.Warnings, n)
		sp.D18O = t.meas(row, "d18O", &out.Provenance.Warnings, n)
		out.Specimens = append(out.Specimens, sp)
	}
	return out, nil
}

// LoadWater reads the water-sample table.
//
// Expected columns: Sample_ID, Wadi, d18O_SMOW; optional Temp_C, pH,
// Depth_cm, Pool_Group, Lat, Lon.
func LoadWater(path string) (Waters, error) {
	t, err := readTable(path, []string{"Sample_ID", "d18O_SMOW"})
	if err != nil {
		return Waters{}, fmt.Errorf("water table: %w", err)
	}
	out := Waters{Provenance: Provenance{Path: path, Rows: len(t.rows)}}
	for i, row := range t.rows {
		n := i + 2
		ws := WaterSample{
			ID:        t.str(row, "Sample_ID"),
			Wadi:      t.str(row, "Wadi"),
			PoolGroup: t.str(row, "Pool_Group"),
		}
		ws.D18OSMOW = t.meas(row, "d18O_SMOW", &out.Provenance.Warnings, n)
		ws.TempC = t.meas(row, "Temp_C", &out.Provenance.Warnings, n)
		ws.PH = t.meas(row, "pH", &out.Provenance.Warnings, n)
		ws.DepthCM = t.meas(row, "Depth_cm", &out.Provenance.Warnings, n)
		ws.Lat = t.meas(row, "Lat", &out.Provenance.Warnings, n)
		ws.Lon = t.meas(row, "Lon", &out.Provenance.Warnings, n)
		out.Samples = append(out.Samples, ws)
	}
	return out, nil
}

// LoadSites reads the geolocation table.
//
// Expected columns: Site_ID, Lat, Lon; optional Wadi, Kind.
func LoadSites(path string) (Sites, error) {
	t, err := readTable(path, []string{"Site_ID", "Lat", "Lon"})
	if err != nil {
		return Sites{}, fmt.Errorf("site table: %w", err)
	}
	out := Sites{Provenance: Provenance{Path: path, Rows: len(t.rows)}}
	for i, row := range t.rows {
		n := i + 2
		lat := t.meas(row, "Lat", &out.Provenance.Warnings, n)
		lon := t.meas(row, "Lon", &out.Provenance.Warnings, n)
		if !lat.Valid || !lon.Valid {
			out.Provenance.Warnings = append(out.Provenance.Warnings,
				fmt.Sprintf("%s row %d: site without coordinates skipped", t.name, n))
			continue
		}
		out.Sites = append(out.Sites, Site{
			ID:   t.str(row, "Site_ID"),
			Wadi: t.str(row, "Wadi"),
			Kind: t.str(row, "Kind"),
			Lat:  lat.Value,
			Lon:  lon.Value,
		})
	}
	return out, nil
}
