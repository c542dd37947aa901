package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// MeansTable is the derived station × measurement-kind grid of arithmetic
// means. Stations and Kinds are sorted so output is deterministic. Cells for
// combinations with no extracted values are absent, never zero.
type MeansTable struct {
	Stations []string
	Kinds    []string

	cells      map[meansKey]float64
	computedAt time.Time
}

type meansKey struct {
	station string
	kind    string
}

// ComputeMeans groups the table's rows by (station, kind), ignoring rows
// without an extracted measurement, and averages the values per group. It
// fails with *NotLoadedError when the table is nil or extraction has not
// populated the derived columns yet — a silently empty grid would mask a
// caller ordering bug.
func ComputeMeans(table *StationTable) (*MeansTable, error) {
	if table == nil || !table.Extracted() {
		return nil, &NotLoadedError{Op: "compute means"}
	}

	sums := make(map[meansKey]float64)
	counts := make(map[meansKey]int)
	stations := make(map[string]struct{})
	kinds := make(map[string]struct{})

	for _, row := range table.Rows() {
		stations[row.StationID] = struct{}{}
		if !row.HasMeasurement() {
			continue
		}
		kinds[*row.Measurement] = struct{}{}
		key := meansKey{station: row.StationID, kind: *row.Measurement}
		sums[key] += *row.Value
		counts[key]++
	}

	m := &MeansTable{
		Stations:   sortedKeys(stations),
		Kinds:      sortedKeys(kinds),
		cells:      make(map[meansKey]float64, len(sums)),
		computedAt: clock.Now(),
	}
	for key, sum := range sums {
		m.cells[key] = sum / float64(counts[key])
	}
	return m, nil
}

// Mean returns the mean for a (station, kind) cell. The second return is
// false when that combination had no extracted values.
func (m *MeansTable) Mean(station, kind string) (float64, bool) {
	v, ok := m.cells[meansKey{station: station, kind: kind}]
	return v, ok
}

// ComputedAt returns when the grid was derived.
func (m *MeansTable) ComputedAt() time.Time { return m.computedAt }

// MarshalJSON renders the grid with one row of cells per station, kinds as
// columns, and null for cells with no data.
func (m *MeansTable) MarshalJSON() ([]byte, error) {
	grid := make([][]*float64, len(m.Stations))
	for i, station := range m.Stations {
		cells := make([]*float64, len(m.Kinds))
		for j, kind := range m.Kinds {
			if v, ok := m.Mean(station, kind); ok {
				mean := v
				cells[j] = &mean
			}
		}
		grid[i] = cells
	}

	return json.Marshal(struct {
		Stations    []string     `json:"stations"`
		Kinds       []string     `json:"kinds"`
		Means       [][]*float64 `json:"means"`
		ComputedAt  time.Time    `json:"computed_at"`
	}{
		Stations:   m.Stations,
		Kinds:      m.Kinds,
		Means:      grid,
		ComputedAt: m.computedAt,
	})
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
