package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/Aryok23/garden-advisor/core"
)

const defaultWeatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// weatherCacheTTL keeps repeated lookups for the same location off the
// provider for a while; conditions don't change that fast.
const weatherCacheTTL = 10 * time.Minute

// WeatherReport is the condensed provider response plus watering advice.
type WeatherReport struct {
	Location    string  `json:"location"`
	TempC       float64 `json:"temp_c"`
	FeelsLikeC  float64 `json:"feels_like_c"`
	Humidity    int     `json:"humidity"`
	Description string  `json:"description"`
	WindSpeed   float64 `json:"wind_speed"`
	Advice      string  `json:"advice"`
}

// WeatherConfig configures the OpenWeatherMap client.
type WeatherConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// WeatherClient looks up current conditions with a TTL response cache.
type WeatherClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	cache   *ristretto.Cache
}

// NewWeatherClient builds the client. The cache is best-effort; a cache
// construction failure disables caching rather than the tool.
func NewWeatherClient(cfg WeatherConfig) *WeatherClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultWeatherBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 8 * time.Second
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 12,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		log.Warn().Err(err).Msg("weather cache disabled")
		cache = nil
	}

	return &WeatherClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		cache:   cache,
	}
}

// Lookup fetches current conditions for a location.
func (w *WeatherClient) Lookup(ctx context.Context, location string) (*WeatherReport, error) {
	if w.apiKey == "" {
		return nil, errors.New("weather provider not configured")
	}

	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New("location is required")
	}

	cacheKey := "weather:" + strings.ToLower(location)
	if w.cache != nil {
		if cached, ok := w.cache.Get(cacheKey); ok {
			if report, ok := cached.(*WeatherReport); ok {
				return report, nil
			}
		}
	}

	q := url.Values{}
	q.Set("q", location)
	q.Set("appid", w.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build weather request")
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "weather provider request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("weather provider returned %d for %q", resp.StatusCode, location)
	}

	var payload struct {
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "decode weather response")
	}

	report := &WeatherReport{
		Location:   location,
		TempC:      payload.Main.Temp,
		FeelsLikeC: payload.Main.FeelsLike,
		Humidity:   payload.Main.Humidity,
		WindSpeed:  payload.Wind.Speed,
	}
	if len(payload.Weather) > 0 {
		report.Description = payload.Weather[0].Description
	}
	report.Advice = wateringAdvice(report)

	if w.cache != nil {
		w.cache.SetWithTTL(cacheKey, report, 1, weatherCacheTTL)
	}

	return report, nil
}

// wateringAdvice derives a watering hint from current conditions.
func wateringAdvice(r *WeatherReport) string {
	desc := strings.ToLower(r.Description)
	switch {
	case strings.Contains(desc, "rain"), strings.Contains(desc, "drizzle"), strings.Contains(desc, "thunderstorm"):
		return "Rain expected - you can skip watering today."
	case r.Humidity < 40 || r.TempC > 30:
		return "Plants may need extra watering due to dry/hot conditions."
	default:
		return "Good conditions for a regular watering schedule."
	}
}

// Summary renders the report as observation text.
func (r *WeatherReport) Summary() string {
	return fmt.Sprintf("Weather in %s: %.1f°C (feels like %.1f°C), %s, humidity %d%%, wind %.1f m/s. %s",
		r.Location, r.TempC, r.FeelsLikeC, r.Description, r.Humidity, r.WindSpeed, r.Advice)
}

// Tool exposes the client as a registered capability.
func (w *WeatherClient) Tool() core.Tool {
	return New("weather").
		Description("Get current weather for a location, with watering advice for the garden. "+
			"Use when the user asks about weather or whether to water today.").
		Schema(BuildSchemaWithThought(map[string]interface{}{
			"location": StringProperty("City name, e.g. 'Jakarta' or 'New York'"),
		}, "location")).
		Timeout(10 * time.Second).
		Handler(func(ctx context.Context, params *core.ToolParams) (*core.ToolResult, error) {
			var in struct {
				core.BaseInput
				Location string `json:"location"`
			}
			if err := json.Unmarshal(params.Input, &in); err != nil {
				return &core.ToolResult{Success: false, Error: fmt.Sprintf("invalid input: %v", err)}, nil
			}

			report, err := w.Lookup(ctx, in.Location)
			if err != nil {
				return &core.ToolResult{
					Success: false,
					Error:   fmt.Sprintf("could not retrieve weather for %q: %v", in.Location, err),
				}, nil
			}

			return &core.ToolResult{
				Success: true,
				Data: map[string]interface{}{
					"report":  report,
					"message": report.Summary(),
				},
			}, nil
		}).
		Build()
}
