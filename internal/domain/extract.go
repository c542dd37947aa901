package domain

import (
	"errors"
	"log/slog"
	"strconv"
)

// Extraction is the measurement pulled from a single message.
type Extraction struct {
	Kind  string
	Value float64
}

// MessageExtractor extracts a measurement from one message. A nil result with
// a nil error means no pattern matched, which is normal for chatter rows.
type MessageExtractor interface {
	ExtractMessage(message string) (*Extraction, error)
}

// ExtractOne scans a message against the pattern set in priority order and
// returns the first match. The value is the first capturing group that
// participated in the match, parsed as a float64; a participating group with
// unparsable text yields a *MalformedNumberError. (nil, nil) means no
// pattern matched.
func ExtractOne(message string, patterns PatternSet) (*Extraction, error) {
	for _, p := range patterns {
		m := p.Expr.FindStringSubmatch(message)
		if m == nil {
			continue
		}
		capture := firstCapture(m)
		value, err := strconv.ParseFloat(capture, 64)
		if err != nil {
			return nil, &MalformedNumberError{Kind: p.Kind, Capture: capture, Err: err}
		}
		return &Extraction{Kind: p.Kind, Value: value}, nil
	}
	return nil, nil
}

// firstCapture returns the first submatch group that participated in the
// match. Non-participating optional groups (e.g. an absent decimal part)
// come back as empty strings and are skipped.
func firstCapture(m []string) string {
	for _, group := range m[1:] {
		if group != "" {
			return group
		}
	}
	return ""
}

// PatternExtractor is the basic MessageExtractor backed directly by a
// PatternSet. Per-row match and no-match events are logged at debug level.
type PatternExtractor struct {
	patterns PatternSet
	logger   *slog.Logger
}

// NewPatternExtractor creates a PatternExtractor.
func NewPatternExtractor(patterns PatternSet, logger *slog.Logger) *PatternExtractor {
	return &PatternExtractor{patterns: patterns, logger: logger}
}

func (e *PatternExtractor) ExtractMessage(message string) (*Extraction, error) {
	ext, err := ExtractOne(message, e.patterns)
	if err != nil {
		return nil, err
	}
	if ext == nil {
		e.logger.Debug("no measurement match")
		return nil, nil
	}
	e.logger.Debug("measurement extracted", "kind", ext.Kind, "value", ext.Value)
	return ext, nil
}

// ExtractAll applies the extractor to every row's message, writing the
// Measurement and Value columns in place and marking the table extracted.
// Rows whose match captured a malformed number are recorded as having no
// measurement, logged at warn level, and counted via MalformedCount; any
// other extractor error aborts.
// An empty table is valid and comes back unchanged. Running ExtractAll twice
// with the same patterns produces identical columns.
func ExtractAll(table *StationTable, extractor MessageExtractor, logger *slog.Logger) error {
	if table == nil {
		return &NotLoadedError{Op: "extract measurements"}
	}

	rows := table.Rows()
	malformedCount := 0
	for i := range rows {
		ext, err := extractor.ExtractMessage(rows[i].Message)
		if err != nil {
			var malformed *MalformedNumberError
			if !errors.As(err, &malformed) {
				return err
			}
			logger.Warn("malformed numeric capture, recording no measurement",
				"station_id", rows[i].StationID,
				"kind", malformed.Kind,
				"capture", malformed.Capture,
			)
			rows[i].Measurement = nil
			rows[i].Value = nil
			malformedCount++
			continue
		}
		if ext == nil {
			rows[i].Measurement = nil
			rows[i].Value = nil
			continue
		}
		kind, value := ext.Kind, ext.Value
		rows[i].Measurement = &kind
		rows[i].Value = &value
	}

	table.markExtracted(malformedCount)
	return nil
}
