// Command genmock generates mock data fixtures: a station message CSV and
// the means JSON expected after processing it. It uses the actual domain
// package under a fixed clock so the expected output matches real pipeline
// behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv-out data/mock/stations.csv \
//	  -means-out data/mock/expected_means.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/couchcryptid/weather-measurements-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

var baseTime = time.Date(2026, time.March, 14, 9, 0, 0, 0, time.UTC)

var chatter = []string{
	"Sensor offline for scheduled maintenance",
	"Clear skies, no readings today",
	"Observer reports equipment checked and nominal",
	"Battery low warning cleared",
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvOut := flag.String("csv-out", "", "output path for the mock station CSV")
	meansOut := flag.String("means-out", "", "output path for the expected means JSON")
	stations := flag.Int("stations", 5, "number of stations")
	perStation := flag.Int("rows", 12, "messages per station")
	seed := flag.Int64("seed", 42, "rng seed, fixed for reproducible fixtures")
	flag.Parse()

	if *csvOut == "" || *meansOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv-out, -means-out")
	}

	// Fix the clock for reproducible table timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(baseTime))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewSource(*seed))
	rows := make([]domain.StationRow, 0, *stations**perStation)
	for s := range *stations {
		stationID := fmt.Sprintf("S%d", s+1)
		for range *perStation {
			rows = append(rows, domain.StationRow{
				StationID: stationID,
				Message:   mockMessage(rng),
			})
		}
	}

	if err := writeCSV(*csvOut, rows); err != nil {
		return err
	}

	means, err := expectedMeans(rows)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(means, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal means: %w", err)
	}
	if err := os.WriteFile(*meansOut, data, 0o644); err != nil {
		return fmt.Errorf("write means fixture: %w", err)
	}

	fmt.Printf("wrote %d rows to %s and expected means to %s\n", len(rows), *csvOut, *meansOut)
	return nil
}

// mockMessage produces rainfall, temperature, or chatter text, roughly a
// third each, with one decimal so the fixture exercises fractional captures.
func mockMessage(rng *rand.Rand) string {
	switch rng.Intn(3) {
	case 0:
		return fmt.Sprintf("Rainfall of %.1f mm recorded at the gauge", rng.Float64()*40)
	case 1:
		return fmt.Sprintf("Midday temperature peaked at %.1f C", 5+rng.Float64()*30)
	default:
		return chatter[rng.Intn(len(chatter))]
	}
}

func writeCSV(path string, rows []domain.StationRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv fixture: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Weather_station_ID", "Message"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write([]string{row.StationID, row.Message}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// expectedMeans runs the real extraction and aggregation over the fixture rows.
func expectedMeans(rows []domain.StationRow) (*domain.MeansTable, error) {
	patterns, err := domain.CompilePatterns(domain.DefaultPatternSpecs())
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	table := domain.NewStationTable(rows)
	if err := domain.ExtractAll(table, domain.NewPatternExtractor(patterns, logger), logger); err != nil {
		return nil, err
	}
	return domain.ComputeMeans(table)
}
