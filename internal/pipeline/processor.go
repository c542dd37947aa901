// Package pipeline orchestrates the load-extract-aggregate pipeline and its
// refresh loop.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/weather-measurements-etl/internal/domain"
	"github.com/couchcryptid/weather-measurements-etl/internal/observability"
)

// TableLoader fetches the station table from a source locator.
type TableLoader interface {
	LoadTable(ctx context.Context, source string) (*domain.StationTable, error)
}

// RowPublisher forwards extracted rows downstream. Returns the number of
// rows published.
type RowPublisher interface {
	PublishRows(ctx context.Context, table *domain.StationTable) (int, error)
}

// Processor runs the pipeline: load the station table, extract measurements,
// optionally publish the results, and serve the latest snapshot to callers.
type Processor struct {
	loader          TableLoader
	extractor       domain.MessageExtractor
	publisher       RowPublisher // nil disables publishing
	logger          *slog.Logger
	metrics         *observability.Metrics
	source          string
	refreshInterval time.Duration

	mu    sync.RWMutex
	table *domain.StationTable
	ready atomic.Bool
}

// New creates a Processor. Pass a nil publisher to disable Kafka publishing.
func New(
	loader TableLoader,
	extractor domain.MessageExtractor,
	publisher RowPublisher,
	logger *slog.Logger,
	metrics *observability.Metrics,
	source string,
	refreshInterval time.Duration,
) *Processor {
	return &Processor{
		loader:          loader,
		extractor:       extractor,
		publisher:       publisher,
		logger:          logger,
		metrics:         metrics,
		source:          source,
		refreshInterval: refreshInterval,
	}
}

// Process executes one load-extract cycle and swaps in the new snapshot.
// Loader and extractor failures surface unchanged; there are no retries
// within a run. Each call builds a fresh table, so overlapping runs never
// share mutable state.
func (p *Processor) Process(ctx context.Context) (*domain.StationTable, error) {
	start := time.Now()

	table, err := p.loader.LoadTable(ctx, p.source)
	if err != nil {
		return nil, err
	}
	p.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	p.metrics.RowsLoaded.Add(float64(table.Len()))

	if err := domain.ExtractAll(table, p.extractor, p.logger); err != nil {
		return nil, err
	}

	extracted := p.recordExtractionMetrics(table)

	if p.publisher != nil {
		// Publishing is a side outlet: a sink outage must not fail the run.
		n, err := p.publisher.PublishRows(ctx, table)
		if err != nil {
			p.logger.Error("publish extracted rows failed", "error", err)
			p.metrics.PublishErrors.Inc()
		} else {
			p.metrics.RowsPublished.Add(float64(n))
		}
	}

	p.mu.Lock()
	p.table = table
	p.mu.Unlock()
	p.ready.Store(true)

	p.metrics.ProcessDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("processing run complete",
		"rows", table.Len(),
		"extracted", extracted,
		"no_match", table.Len()-extracted-table.MalformedCount(),
		"malformed", table.MalformedCount(),
	)
	return table, nil
}

func (p *Processor) recordExtractionMetrics(table *domain.StationTable) int {
	extracted := 0
	absent := 0
	for _, row := range table.Rows() {
		if row.HasMeasurement() {
			extracted++
			p.metrics.MeasurementsExtracted.WithLabelValues(*row.Measurement).Inc()
			continue
		}
		absent++
	}
	// Malformed captures are absent rows, but they count against their own
	// metric rather than the no-match one.
	malformed := table.MalformedCount()
	p.metrics.MalformedCaptures.Add(float64(malformed))
	p.metrics.RowsNoMatch.Add(float64(absent - malformed))
	return extracted
}

// Table returns the latest extracted snapshot, nil before the first
// successful Process.
func (p *Processor) Table() *domain.StationTable {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.table
}

// CalculateMeans derives the station × kind means grid from the latest
// snapshot. Before the first successful Process it fails with
// *domain.NotLoadedError rather than returning an empty grid.
func (p *Processor) CalculateMeans() (*domain.MeansTable, error) {
	table := p.Table()
	if table == nil {
		return nil, &domain.NotLoadedError{Op: "calculate means"}
	}
	return domain.ComputeMeans(table)
}

// CheckReadiness returns nil once at least one processing run has completed.
func (p *Processor) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return &domain.NotLoadedError{Op: "readiness check"}
	}
	return nil
}

// Run refreshes the snapshot until the context is cancelled: one Process per
// REFRESH_INTERVAL, with exponential backoff after failures.
func (p *Processor) Run(ctx context.Context) error {
	p.logger.Info("processor started", "source", p.source, "refresh_interval", p.refreshInterval)
	p.metrics.ProcessorRunning.Set(1)
	defer p.metrics.ProcessorRunning.Set(0)

	// Start at 200ms, double each failure, cap at 5s. Keeps the loop calm
	// during source outages without waiting a full refresh interval.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("processor stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if _, err := p.Process(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("processing run failed", "error", err)
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}

		backoff = 200 * time.Millisecond
		if !sleepWithContext(ctx, p.refreshInterval) {
			return nil
		}
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
