package geo

import (
	"fmt"
	"math"
	"sort"

	"github.com/paleofauna/crabstat/internal/dataset"
)

const earthRadiusM = 6371000.0

// HaversineM returns the great-circle distance in meters between two
// WGS84 coordinates.
func HaversineM(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(a))
}

// PoolGroups clusters water samples into spatial pool groups: samples whose
// pairwise distance is at or below thresholdM end up in the same group
// (single linkage). Samples without coordinates are left unassigned. Group
// labels are deterministic: P1, P2, ... in order of the lowest sample ID in
// each cluster.
func PoolGroups(samples []dataset.WaterSample, thresholdM float64) map[string]string {
	var located []dataset.WaterSample
	for _, s := range samples {
		if s.Lat.Valid && s.Lon.Valid {
			located = append(located, s)
		}
	}
	sort.Slice(located, func(i, j int) bool { return located[i].ID < located[j].ID })

	parent := make([]int, len(located))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	for i := 0; i < len(located); i++ {
		for j := i + 1; j < len(located); j++ {
			d := HaversineM(located[i].Lat.Value, located[i].Lon.Value,
				located[j].Lat.Value, located[j].Lon.Value)
			if d <= thresholdM {
				ri, rj := find(i), find(j)
				if ri != rj {
					if ri > rj {
						ri, rj = rj, ri
					}
					parent[rj] = ri
				}
			}
		}
	}

	label := make(map[int]string)
	next := 1
	out := make(map[string]string, len(located))
	for i, s := range located {
		r := find(i)
		if _, ok := label[r]; !ok {
			label[r] = fmt.Sprintf("P%d", next)
			next++
		}
		out[s.ID] = label[r]
	}
	return out
}
