package grid

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

// LabelOffset shifts a metering window onto the grid API's labels. The grid
// API labels a half hour by its end while the metering API labels by start.
const LabelOffset = 30 * time.Minute

// pathTimeFormat is the ISO-8601 form the grid API accepts in its path.
const pathTimeFormat = "2006-01-02T15:04Z"

// Config holds the settings for the grid carbon API.
type Config struct {
	APIURL string
}

// Validate ensures the configuration is valid.
func (c Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("carbon-api-url is required")
	}
	if _, err := url.Parse(c.APIURL); err != nil {
		return fmt.Errorf("failed to parse carbon url (%s): %w", c.APIURL, err)
	}
	return nil
}

// Client loads carbon intensity and generation mix data from the grid API.
type Client struct {
	cfg    Config
	client *http.Client
}

// New returns a Client for the given config. The config is not validated.
func New(cfg Config, client *http.Client) *Client {
	return &Client{
		cfg:    cfg,
		client: client,
	}
}

// Configured registers flags for the grid API and returns a Client that is
// populated once flags are parsed.
func Configured(client *http.Client) *Client {
	c := &Client{client: client}
	apiURL := lflag.String("carbon-api-url", "https://api.carbonintensity.org.uk", "Base URL for the grid carbon intensity API")

	lflag.Do(func() {
		c.cfg = Config{APIURL: strings.TrimSuffix(*apiURL, "/")}
		if err := c.cfg.Validate(); err != nil {
			panic(fmt.Sprintf("grid validation failed: %v", err))
		}
	})

	return c
}

// shiftedWindow returns the grid API path segment covering the metering
// window [start, end].
func shiftedWindow(start, end time.Time) string {
	from := start.Add(LabelOffset).UTC().Format(pathTimeFormat)
	to := end.Add(LabelOffset).UTC().Format(pathTimeFormat)
	return from + "/" + to
}

type intensityResponse struct {
	Data []types.CarbonIntensityInterval `json:"data"`
}

type generationResponse struct {
	Data []types.GenerationMixInterval `json:"data"`
}

// LoadIntensity returns the carbon intensity intervals for the metering
// window [start, end].
func (c *Client) LoadIntensity(ctx context.Context, start, end time.Time) ([]types.CarbonIntensityInterval, error) {
	var res intensityResponse
	if err := c.get(ctx, "intensity", start, end, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// LoadGenerationMix returns the generation mix intervals for the metering
// window [start, end].
func (c *Client) LoadGenerationMix(ctx context.Context, start, end time.Time) ([]types.GenerationMixInterval, error) {
	var res generationResponse
	if err := c.get(ctx, "generation", start, end, &res); err != nil {
		return nil, err
	}
	for _, interval := range res.Data {
		for _, mix := range interval.GenerationMix {
			if !mix.Fuel.Valid() {
				log.Ctx(ctx).WarnContext(
					ctx,
					"unknown fuel in generation mix",
					slog.String("fuel", string(mix.Fuel)),
					slog.Time("from", interval.From.Time),
				)
			}
		}
	}
	return res.Data, nil
}

func (c *Client) get(ctx context.Context, resource string, start, end time.Time, v any) error {
	u := c.cfg.APIURL + "/" + resource + "/" + shiftedWindow(start, end)

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	log.Ctx(ctx).DebugContext(ctx, "fetching from grid api", slog.String("url", u))

	resp, err := c.client.Do(req)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to fetch from grid api", slog.String("resource", resource), slog.Any("error", err))
		return fmt.Errorf("failed to fetch %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("grid api returned status for %s: %d", resource, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to decode grid response", slog.String("resource", resource), slog.Any("error", err))
		return fmt.Errorf("failed to decode %s response: %w", resource, err)
	}
	log.Ctx(ctx).DebugContext(
		ctx,
		"fetched from grid api",
		slog.String("resource", resource),
		slog.Time("start", start),
		slog.Time("end", end),
	)
	return nil
}
