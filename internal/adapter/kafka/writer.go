// Package kafka publishes extracted measurements to a sink topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-measurements-etl/internal/config"
	"github.com/couchcryptid/weather-measurements-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces extracted measurement rows to a Kafka topic.
// It implements pipeline.RowPublisher.
type Writer struct {
	writer    *kafkago.Writer
	batchSize int
	logger    *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, batchSize: cfg.BatchSize, logger: logger}
}

// PublishRows serializes every row with an extracted measurement and writes
// them to the sink topic in batches of BATCH_SIZE. Rows without a
// measurement are skipped; keying by station ID keeps one station's
// measurements on one partition.
func (w *Writer) PublishRows(ctx context.Context, table *domain.StationTable) (int, error) {
	msgs := make([]kafkago.Message, 0, table.Len())
	for _, row := range table.Rows() {
		if !row.HasMeasurement() {
			continue
		}
		msg, err := serializeToMessage(row, table.ExtractedAt())
		if err != nil {
			return 0, err
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	published := 0
	for start := 0; start < len(msgs); start += w.batchSize {
		end := min(start+w.batchSize, len(msgs))
		if err := w.writer.WriteMessages(ctx, msgs[start:end]...); err != nil {
			return published, err
		}
		published += end - start
	}

	w.logger.Debug("published extracted rows", "count", published)
	return published, nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a station row into a Kafka message.
func serializeToMessage(row domain.StationRow, extractedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize station row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(row.StationID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "measurement", Value: []byte(*row.Measurement)},
			{Key: "extracted_at", Value: []byte(extractedAt.Format(time.RFC3339))},
		},
	}, nil
}
