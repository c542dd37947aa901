package domain

import (
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPatterns(t *testing.T) PatternSet {
	t.Helper()
	set, err := CompilePatterns(DefaultPatternSpecs())
	require.NoError(t, err)
	return set
}

func TestCompilePatterns(t *testing.T) {
	t.Run("preserves order", func(t *testing.T) {
		set, err := CompilePatterns([]PatternSpec{
			{Kind: "Wind", Expr: `(\d+) km/h`},
			{Kind: "Rainfall", Expr: `(\d+(\.\d+)?)\s?mm`},
		})
		require.NoError(t, err)
		require.Len(t, set, 2)
		assert.Equal(t, "Wind", set[0].Kind)
		assert.Equal(t, "Rainfall", set[1].Kind)
	})

	t.Run("rejects empty set", func(t *testing.T) {
		_, err := CompilePatterns(nil)
		assert.Error(t, err)
	})

	t.Run("rejects invalid expression", func(t *testing.T) {
		_, err := CompilePatterns([]PatternSpec{{Kind: "Bad", Expr: `(\d+`}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Bad")
	})

	t.Run("rejects expression without capturing group", func(t *testing.T) {
		_, err := CompilePatterns([]PatternSpec{{Kind: "Bad", Expr: `\d+ mm`}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "capturing group")
	})

	t.Run("rejects duplicate kinds", func(t *testing.T) {
		_, err := CompilePatterns([]PatternSpec{
			{Kind: "Rainfall", Expr: `(\d+) mm`},
			{Kind: "Rainfall", Expr: `(\d+) in`},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate")
	})
}

func TestExtractOne(t *testing.T) {
	patterns := testPatterns(t)

	t.Run("numeric round-trip", func(t *testing.T) {
		ext, err := ExtractOne("12.5 mm", patterns)
		require.NoError(t, err)
		require.NotNil(t, ext)
		assert.Equal(t, "Rainfall", ext.Kind)
		assert.Equal(t, 12.5, ext.Value)
	})

	t.Run("integer capture with optional decimal group absent", func(t *testing.T) {
		ext, err := ExtractOne("Recorded 30 mm of rain overnight", patterns)
		require.NoError(t, err)
		require.NotNil(t, ext)
		assert.Equal(t, "Rainfall", ext.Kind)
		assert.Equal(t, 30.0, ext.Value)
	})

	t.Run("temperature", func(t *testing.T) {
		ext, err := ExtractOne("Midday high of 21.3 C", patterns)
		require.NoError(t, err)
		require.NotNil(t, ext)
		assert.Equal(t, "Temperature", ext.Kind)
		assert.Equal(t, 21.3, ext.Value)
	})

	t.Run("no pattern matches", func(t *testing.T) {
		ext, err := ExtractOne("Clear skies, no readings today", patterns)
		require.NoError(t, err)
		assert.Nil(t, ext)
	})

	t.Run("first pattern wins over later match", func(t *testing.T) {
		// "10 mm" satisfies Rainfall and "25 C" satisfies Temperature;
		// Rainfall is configured first so it must win.
		ext, err := ExtractOne("10 mm of rain at 25 C", patterns)
		require.NoError(t, err)
		require.NotNil(t, ext)
		assert.Equal(t, "Rainfall", ext.Kind)
		assert.Equal(t, 10.0, ext.Value)
	})

	t.Run("priority is configured order, not position in message", func(t *testing.T) {
		reversed, err := CompilePatterns([]PatternSpec{
			{Kind: "Temperature", Expr: `(\d+(\.\d+)?)\s?C`},
			{Kind: "Rainfall", Expr: `(\d+(\.\d+)?)\s?mm`},
		})
		require.NoError(t, err)

		ext, err := ExtractOne("10 mm of rain at 25 C", reversed)
		require.NoError(t, err)
		require.NotNil(t, ext)
		assert.Equal(t, "Temperature", ext.Kind)
		assert.Equal(t, 25.0, ext.Value)
	})

	t.Run("malformed capture", func(t *testing.T) {
		bad, err := CompilePatterns([]PatternSpec{
			{Kind: "Humidity", Expr: `humidity ([a-z]+)`},
		})
		require.NoError(t, err)

		_, err = ExtractOne("humidity high today", bad)
		require.Error(t, err)
		var malformed *MalformedNumberError
		require.ErrorAs(t, err, &malformed)
		assert.Equal(t, "Humidity", malformed.Kind)
		assert.Equal(t, "high", malformed.Capture)
	})
}

func TestExtractAll(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC))
	SetClock(fakeClock)
	t.Cleanup(func() { SetClock(nil) })

	patterns := testPatterns(t)
	extractor := NewPatternExtractor(patterns, slog.Default())

	t.Run("populates derived columns", func(t *testing.T) {
		table := NewStationTable([]StationRow{
			{StationID: "S1", Message: "Rainfall of 10.0 mm"},
			{StationID: "S1", Message: "Sensor offline"},
			{StationID: "S2", Message: "Temp reading 18.5 C"},
		})

		require.NoError(t, ExtractAll(table, extractor, slog.Default()))
		assert.True(t, table.Extracted())
		assert.Equal(t, fakeClock.Now(), table.ExtractedAt())

		rows := table.Rows()
		require.True(t, rows[0].HasMeasurement())
		assert.Equal(t, "Rainfall", *rows[0].Measurement)
		assert.Equal(t, 10.0, *rows[0].Value)
		assert.False(t, rows[1].HasMeasurement())
		require.True(t, rows[2].HasMeasurement())
		assert.Equal(t, "Temperature", *rows[2].Measurement)
		assert.Equal(t, 18.5, *rows[2].Value)
	})

	t.Run("chatter rows stay absent", func(t *testing.T) {
		table := NewStationTable([]StationRow{
			{StationID: "S1", Message: "Sensor offline"},
		})
		require.NoError(t, ExtractAll(table, extractor, slog.Default()))
		assert.False(t, table.Rows()[0].HasMeasurement())
	})

	t.Run("empty table", func(t *testing.T) {
		table := NewStationTable(nil)
		require.NoError(t, ExtractAll(table, extractor, slog.Default()))
		assert.True(t, table.Extracted())
		assert.Zero(t, table.Len())
	})

	t.Run("nil table", func(t *testing.T) {
		err := ExtractAll(nil, extractor, slog.Default())
		var notLoaded *NotLoadedError
		require.ErrorAs(t, err, &notLoaded)
	})

	t.Run("malformed capture recorded as absent", func(t *testing.T) {
		bad, err := CompilePatterns([]PatternSpec{
			{Kind: "Humidity", Expr: `humidity ([a-z]+)`},
			{Kind: "Rainfall", Expr: `(\d+(\.\d+)?)\s?mm`},
		})
		require.NoError(t, err)

		table := NewStationTable([]StationRow{
			{StationID: "S1", Message: "humidity high today"},
			{StationID: "S1", Message: "5 mm drizzle"},
		})
		require.NoError(t, ExtractAll(table, NewPatternExtractor(bad, slog.Default()), slog.Default()))

		rows := table.Rows()
		assert.False(t, rows[0].HasMeasurement())
		require.True(t, rows[1].HasMeasurement())
		assert.Equal(t, 5.0, *rows[1].Value)
		assert.Equal(t, 1, table.MalformedCount())
	})

	t.Run("idempotent", func(t *testing.T) {
		table := NewStationTable([]StationRow{
			{StationID: "S1", Message: "Rainfall of 10.0 mm"},
			{StationID: "S2", Message: "Sensor offline"},
		})

		require.NoError(t, ExtractAll(table, extractor, slog.Default()))
		first := snapshotColumns(table)
		require.NoError(t, ExtractAll(table, extractor, slog.Default()))
		assert.Equal(t, first, snapshotColumns(table))
	})
}

// snapshotColumns copies the derived columns for idempotence comparison.
func snapshotColumns(table *StationTable) []Extraction {
	out := make([]Extraction, table.Len())
	for i, row := range table.Rows() {
		if row.HasMeasurement() {
			out[i] = Extraction{Kind: *row.Measurement, Value: *row.Value}
		}
	}
	return out
}
