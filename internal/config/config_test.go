package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/weather-measurements-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSourceURL = "https://example.com/weather.csv"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SOURCE_URL", testSourceURL)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testSourceURL, cfg.SourceURL)
	assert.Equal(t, 10*time.Second, cfg.SourceTimeout)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, domain.DefaultPatternSpecs(), cfg.Patterns)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "extracted-weather-measurements", cfg.KafkaSinkTopic)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 1000, cfg.ExtractCacheSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("SOURCE_URL", testSourceURL)
	t.Setenv("SOURCE_TIMEOUT", "3s")
	t.Setenv("REFRESH_INTERVAL", "30s")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("EXTRACT_CACHE_SIZE", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.SourceTimeout)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Zero(t, cfg.ExtractCacheSize)
}

func TestLoad_MissingSourceURL(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOURCE_URL")
}

func TestLoad_InvalidSourceTimeout(t *testing.T) {
	t.Setenv("SOURCE_URL", testSourceURL)
	t.Setenv("SOURCE_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOURCE_TIMEOUT")
}

func TestLoad_NegativeRefreshInterval(t *testing.T) {
	t.Setenv("SOURCE_URL", testSourceURL)
	t.Setenv("REFRESH_INTERVAL", "-1m")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REFRESH_INTERVAL")
}

func TestLoad_PatternsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.json")
	require.NoError(t, os.WriteFile(path, []byte(
		`[{"kind":"Wind","pattern":"(\\d+) km/h"},{"kind":"Rainfall","pattern":"(\\d+(\\.\\d+)?)\\s?mm"}]`,
	), 0o600))

	t.Setenv("SOURCE_URL", testSourceURL)
	t.Setenv("PATTERNS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Patterns, 2)
	assert.Equal(t, "Wind", cfg.Patterns[0].Kind, "file order defines match priority")
	assert.Equal(t, "Rainfall", cfg.Patterns[1].Kind)
}

func TestLoad_PatternsFileMissing(t *testing.T) {
	t.Setenv("SOURCE_URL", testSourceURL)
	t.Setenv("PATTERNS_FILE", filepath.Join(t.TempDir(), "nope.json"))
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PATTERNS_FILE")
}

func TestLoad_PatternsFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))

	t.Setenv("SOURCE_URL", testSourceURL)
	t.Setenv("PATTERNS_FILE", path)
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no patterns")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Run("unset", func(t *testing.T) {
		t.Setenv("SOURCE_URL", testSourceURL)
		t.Setenv("KAFKA_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "KAFKA_BROKERS")
	})

	t.Run("empty", func(t *testing.T) {
		t.Setenv("SOURCE_URL", testSourceURL)
		t.Setenv("KAFKA_ENABLED", "true")
		t.Setenv("KAFKA_BROKERS", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "KAFKA_BROKERS")
	})
}

func TestLoad_InvalidExtractCacheSize(t *testing.T) {
	t.Setenv("SOURCE_URL", testSourceURL)
	t.Setenv("EXTRACT_CACHE_SIZE", "-5")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXTRACT_CACHE_SIZE")
}
