package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/weather-measurements-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	SourceURL       string
	SourceTimeout   time.Duration
	RefreshInterval time.Duration
	Patterns        []domain.PatternSpec

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional Kafka publishing of extracted measurements.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
	BatchSize      int

	// Extraction memo cache; 0 disables it.
	ExtractCacheSize int
}

// Load reads configuration from environment variables, applying defaults
// where unset. SOURCE_URL is the only required variable.
func Load() (*Config, error) {
	sourceTimeout, err := parsePositiveDuration("SOURCE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	refreshInterval, err := parsePositiveDuration("REFRESH_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	patterns, err := loadPatternSpecs()
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseExtractCacheSize()
	if err != nil {
		return nil, err
	}

	// No broker default: enabling the publisher requires naming brokers.
	var kafkaBrokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		kafkaBrokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		SourceURL:       os.Getenv("SOURCE_URL"),
		SourceTimeout:   sourceTimeout,
		RefreshInterval: refreshInterval,
		Patterns:        patterns,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   kafkaBrokers,
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "extracted-weather-measurements"),
		BatchSize:      batchSize,

		ExtractCacheSize: cacheSize,
	}

	if cfg.SourceURL == "" {
		return nil, errors.New("SOURCE_URL is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
	}

	return cfg, nil
}

// loadPatternSpecs reads the ordered pattern list from PATTERNS_FILE, a JSON
// array of {"kind","pattern"} objects. Array order is match priority. When
// unset, the built-in Rainfall/Temperature patterns apply.
func loadPatternSpecs() ([]domain.PatternSpec, error) {
	path := os.Getenv("PATTERNS_FILE")
	if path == "" {
		return domain.DefaultPatternSpecs(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read PATTERNS_FILE: %w", err)
	}

	var specs []domain.PatternSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parse PATTERNS_FILE: %w", err)
	}
	if len(specs) == 0 {
		return nil, errors.New("PATTERNS_FILE contains no patterns")
	}
	return specs, nil
}

func parsePositiveDuration(name, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, fallback))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + name)
	}
	return d, nil
}

func parseExtractCacheSize() (int, error) {
	s := os.Getenv("EXTRACT_CACHE_SIZE")
	if s == "" {
		return 1000, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid EXTRACT_CACHE_SIZE")
	}
	return n, nil
}
