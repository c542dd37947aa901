// Package source fetches the station table CSV from an HTTP(S) URL or a
// local file and decodes it into domain rows.
package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/weather-measurements-etl/internal/domain"
	"github.com/gocarina/gocsv"
)

const maxBodyBytes = 64 << 20 // refuse to buffer tables past 64 MiB

// Client loads the station table from a source locator. Locators beginning
// with http:// or https:// are fetched over the network; anything else is
// treated as a filesystem path.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a loader whose network reads are bounded by timeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// LoadTable fetches and decodes the station table. All failures — transport
// errors, non-200 responses, missing required columns, CSV syntax errors —
// come back as a *domain.LoadError wrapping the cause.
func (c *Client) LoadTable(ctx context.Context, source string) (*domain.StationTable, error) {
	data, err := c.fetch(ctx, source)
	if err != nil {
		return nil, &domain.LoadError{Source: source, Err: err}
	}

	rows, err := decodeCSV(data)
	if err != nil {
		return nil, &domain.LoadError{Source: source, Err: err}
	}

	c.logger.Info("station table loaded", "source", source, "rows", len(rows))
	return domain.NewStationTable(rows), nil
}

func (c *Client) fetch(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// decodeCSV validates the header and unmarshals rows. Columns beyond the
// required two are ignored.
func decodeCSV(data []byte) ([]domain.StationRow, error) {
	if err := validateHeader(data); err != nil {
		return nil, err
	}

	rows := []domain.StationRow{}
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	return rows, nil
}

func validateHeader(data []byte) error {
	reader := csv.NewReader(bytes.NewReader(data))
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}

	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[strings.TrimSpace(col)] = true
	}
	for _, required := range []string{"Weather_station_ID", "Message"} {
		if !present[required] {
			return fmt.Errorf("missing required column %q", required)
		}
	}
	return nil
}
