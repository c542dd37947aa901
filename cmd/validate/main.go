// Command validate performs integrity checks on a station CSV fixture: it
// runs the real load-extract-aggregate pipeline over the CSV, verifies that
// extraction is idempotent, and compares the computed means against the
// expected JSON produced by genmock.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -csv data/mock/stations.csv \
//	  -means data/mock/expected_means.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/weather-measurements-etl/internal/adapter/source"
	"github.com/couchcryptid/weather-measurements-etl/internal/domain"
)

const tolerance = 1e-9

// expectedGrid mirrors the MeansTable JSON shape.
type expectedGrid struct {
	Stations []string     `json:"stations"`
	Kinds    []string     `json:"kinds"`
	Means    [][]*float64 `json:"means"`
}

func main() {
	csvPath := flag.String("csv", "", "station CSV fixture")
	meansPath := flag.String("means", "", "expected means JSON fixture")
	flag.Parse()

	if *csvPath == "" || *meansPath == "" {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "missing required flags: -csv, -means")
		os.Exit(2)
	}

	failures, err := validate(*csvPath, *meansPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "validate:", err)
		os.Exit(1)
	}

	if len(failures) > 0 {
		for _, f := range failures {
			fmt.Println("FAIL:", f)
		}
		fmt.Printf("%d check(s) failed\n", len(failures))
		os.Exit(1)
	}
	fmt.Println("all checks passed")
}

func validate(csvPath, meansPath string) ([]string, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	patterns, err := domain.CompilePatterns(domain.DefaultPatternSpecs())
	if err != nil {
		return nil, err
	}
	extractor := domain.NewPatternExtractor(patterns, logger)

	loader := source.NewClient(10*time.Second, logger)
	table, err := loader.LoadTable(context.Background(), csvPath)
	if err != nil {
		return nil, err
	}

	var failures []string

	if err := domain.ExtractAll(table, extractor, logger); err != nil {
		return nil, err
	}
	first := snapshotColumns(table)

	// Extraction must be idempotent for a fixed pattern set.
	if err := domain.ExtractAll(table, extractor, logger); err != nil {
		return nil, err
	}
	if !columnsEqual(first, snapshotColumns(table)) {
		failures = append(failures, "extraction is not idempotent")
	}

	means, err := domain.ComputeMeans(table)
	if err != nil {
		return nil, err
	}

	expected, err := loadExpected(meansPath)
	if err != nil {
		return nil, err
	}

	failures = append(failures, compareGrids(expected, means)...)
	return failures, nil
}

func loadExpected(path string) (*expectedGrid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read expected means: %w", err)
	}
	var grid expectedGrid
	if err := json.Unmarshal(data, &grid); err != nil {
		return nil, fmt.Errorf("parse expected means: %w", err)
	}
	return &grid, nil
}

func compareGrids(expected *expectedGrid, means *domain.MeansTable) []string {
	var failures []string

	if !stringSlicesEqual(expected.Stations, means.Stations) {
		failures = append(failures, fmt.Sprintf("stations mismatch: want %v, got %v", expected.Stations, means.Stations))
	}
	if !stringSlicesEqual(expected.Kinds, means.Kinds) {
		failures = append(failures, fmt.Sprintf("kinds mismatch: want %v, got %v", expected.Kinds, means.Kinds))
	}
	if len(failures) > 0 {
		return failures
	}

	for i, station := range expected.Stations {
		for j, kind := range expected.Kinds {
			want := expected.Means[i][j]
			got, ok := means.Mean(station, kind)
			switch {
			case want == nil && ok:
				failures = append(failures, fmt.Sprintf("(%s, %s): want no data, got %g", station, kind, got))
			case want != nil && !ok:
				failures = append(failures, fmt.Sprintf("(%s, %s): want %g, got no data", station, kind, *want))
			case want != nil && math.Abs(*want-got) > tolerance:
				failures = append(failures, fmt.Sprintf("(%s, %s): want %g, got %g", station, kind, *want, got))
			}
		}
	}
	return failures
}

func snapshotColumns(table *domain.StationTable) []domain.Extraction {
	out := make([]domain.Extraction, table.Len())
	for i, row := range table.Rows() {
		if row.HasMeasurement() {
			out[i] = domain.Extraction{Kind: *row.Measurement, Value: *row.Value}
		}
	}
	return out
}

func columnsEqual(a, b []domain.Extraction) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
