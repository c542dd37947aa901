package domain

import "time"

// StationRow is one message from one weather station, plus the two derived
// columns written by extraction. Measurement and Value are nil until
// extraction runs, and stay nil when no pattern matched the message.
type StationRow struct {
	StationID string `csv:"Weather_station_ID" json:"station_id"`
	Message   string `csv:"Message" json:"message"`

	Measurement *string  `csv:"-" json:"measurement,omitempty"`
	Value       *float64 `csv:"-" json:"value,omitempty"`
}

// HasMeasurement reports whether extraction produced a value for this row.
func (r StationRow) HasMeasurement() bool {
	return r.Measurement != nil && r.Value != nil
}

// StationTable is an ordered sequence of station rows with lifecycle state.
// It is created by the loader, mutated in place once by extraction, and read
// by aggregation. Concurrent processing runs must each build their own table.
type StationTable struct {
	rows        []StationRow
	loadedAt    time.Time
	extracted   bool
	extractedAt time.Time
	malformed   int
}

// NewStationTable wraps loaded rows in a table, stamping the load time.
func NewStationTable(rows []StationRow) *StationTable {
	return &StationTable{
		rows:     rows,
		loadedAt: clock.Now(),
	}
}

// Len returns the number of rows.
func (t *StationTable) Len() int { return len(t.rows) }

// Rows returns the backing row slice. Extraction mutates rows through it.
func (t *StationTable) Rows() []StationRow { return t.rows }

// LoadedAt returns when the table was loaded from the source.
func (t *StationTable) LoadedAt() time.Time { return t.loadedAt }

// Extracted reports whether the derived columns have been populated.
func (t *StationTable) Extracted() bool { return t.extracted }

// ExtractedAt returns when extraction last ran, zero if it has not.
func (t *StationTable) ExtractedAt() time.Time { return t.extractedAt }

// MalformedCount returns how many rows matched a pattern but captured text
// that did not parse as a number during the last extraction run. Those rows
// carry no measurement.
func (t *StationTable) MalformedCount() int { return t.malformed }

func (t *StationTable) markExtracted(malformed int) {
	t.extracted = true
	t.extractedAt = clock.Now()
	t.malformed = malformed
}
