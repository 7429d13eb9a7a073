package metering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gridtally/gridtally/pkg/log"
	"github.com/gridtally/gridtally/pkg/types"
	"github.com/levenlabs/go-lflag"
)

// DefaultGranularity requests half-hourly buckets.
const DefaultGranularity = "hh"

var validGranularities = map[string]bool{
	"hh":    true,
	"day":   true,
	"week":  true,
	"month": true,
}

// Config holds the settings for the metering API.
type Config struct {
	APIURL      string
	APIKey      string
	MeterID     string
	Granularity string
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("metering-api-url is required")
	}
	if _, err := url.Parse(c.APIURL); err != nil {
		return fmt.Errorf("failed to parse metering url (%s): %w", c.APIURL, err)
	}
	if c.APIKey == "" {
		return errors.New("api-key is required")
	}
	if c.MeterID == "" {
		return errors.New("meter-id is required")
	}
	if !validGranularities[c.Granularity] {
		return fmt.Errorf("invalid granularity: %q", c.Granularity)
	}
	return nil
}

// Client loads energy consumption intervals for a single meter.
type Client struct {
	cfg    Config
	client *http.Client
}

// New returns a Client for the given config. The config is not validated.
func New(cfg Config, client *http.Client) *Client {
	if cfg.Granularity == "" {
		cfg.Granularity = DefaultGranularity
	}
	return &Client{
		cfg:    cfg,
		client: client,
	}
}

// Configured registers flags for the metering API and returns a Client that
// is populated once flags are parsed.
func Configured(client *http.Client) *Client {
	c := &Client{client: client}
	apiURL := lflag.String("metering-api-url", "https://api.openvolt.com/v1", "Base URL for the metering API")
	apiKey := lflag.RequiredString("api-key", "API key for the metering API")
	meterID := lflag.RequiredString("meter-id", "Meter to load interval data for")
	granularity := lflag.String("granularity", DefaultGranularity, "Interval granularity (hh, day, week, month)")

	lflag.Do(func() {
		c.cfg = Config{
			APIURL:      strings.TrimSuffix(*apiURL, "/"),
			APIKey:      *apiKey,
			MeterID:     *meterID,
			Granularity: *granularity,
		}
		if err := c.cfg.Validate(); err != nil {
			panic(fmt.Sprintf("metering validation failed: %v", err))
		}
	})

	return c
}

type intervalResponse struct {
	Data []types.EnergyInterval `json:"data"`
}

// LoadIntervals returns the consumption intervals between start and end in
// the order the API returned them.
func (c *Client) LoadIntervals(ctx context.Context, start, end time.Time) ([]types.EnergyInterval, error) {
	u, err := url.Parse(c.cfg.APIURL + "/interval-data")
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}

	params := url.Values{}
	params.Set("start_date", start.UTC().Format(time.RFC3339))
	params.Set("end_date", end.UTC().Format(time.RFC3339))
	params.Set("meter_id", c.cfg.MeterID)
	params.Set("granularity", c.cfg.Granularity)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	log.Ctx(ctx).DebugContext(ctx, "fetching interval data", slog.String("url", u.String()))

	resp, err := c.client.Do(req)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to fetch interval data", slog.Any("error", err))
		return nil, fmt.Errorf("failed to fetch interval data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metering api returned status: %d", resp.StatusCode)
	}

	var res intervalResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to decode interval data", slog.Any("error", err))
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"fetched interval data",
		slog.Int("count", len(res.Data)),
		slog.String("meterID", c.cfg.MeterID),
		slog.Time("start", start),
		slog.Time("end", end),
	)

	return res.Data, nil
}
