// Package config loads runtime settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Config is the full runtime configuration.
type Config struct {
	// Port is the HTTP gateway listen port.
	Port string

	// AnthropicAPIKey authenticates against the model provider. When empty
	// and UseMockLLM is false, startup fails.
	AnthropicAPIKey string

	// Model is the model used for the reasoning loop and reflection.
	Model string

	// UseMockLLM swaps the provider for a scripted backend; useful for
	// local development without a key.
	UseMockLLM bool

	// WeatherAPIKey is the OpenWeatherMap key. Empty disables live weather.
	WeatherAPIKey string

	// SearchEnabled turns on the web search tool.
	SearchEnabled bool

	// DataDir holds persistent state: vector store and reminder database.
	DataDir string

	// CorpusDir optionally points at extra knowledge documents to index.
	CorpusDir string

	ShortTermWindow int
	MaxSteps        int
	TurnBudget      time.Duration

	// MinSimilarity filters long-term memory recall.
	MinSimilarity float64

	// RelevanceThreshold filters knowledge retrieval.
	RelevanceThreshold float64

	// DedupeWindow collapses identical reminder requests.
	DedupeWindow time.Duration

	// ReflectionEnabled runs the answer quality pass.
	ReflectionEnabled bool

	LogLevel string
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env file")
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		Model:              getEnv("MODEL", "claude-sonnet-4-20250514"),
		UseMockLLM:         getBool("USE_MOCK_LLM", false),
		WeatherAPIKey:      os.Getenv("OPENWEATHER_API_KEY"),
		SearchEnabled:      getBool("SEARCH_ENABLED", false),
		DataDir:            getEnv("DATA_DIR", "./data"),
		CorpusDir:          os.Getenv("CORPUS_DIR"),
		ShortTermWindow:    getInt("SHORT_TERM_WINDOW", 10),
		MaxSteps:           getInt("MAX_STEPS", 6),
		TurnBudget:         getDuration("TURN_BUDGET", 60*time.Second),
		MinSimilarity:      getFloat("MIN_SIMILARITY", 0.3),
		RelevanceThreshold: getFloat("RELEVANCE_THRESHOLD", 0.3),
		DedupeWindow:       getDuration("DEDUPE_WINDOW", 10*time.Minute),
		ReflectionEnabled:  getBool("REFLECTION_ENABLED", true),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}

	if cfg.AnthropicAPIKey == "" && !cfg.UseMockLLM {
		return nil, errors.New("ANTHROPIC_API_KEY is required (or set USE_MOCK_LLM=true)")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid boolean, using default")
		return fallback
	}
	return parsed
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid integer, using default")
		return fallback
	}
	return parsed
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid float, using default")
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid duration, using default")
		return fallback
	}
	return parsed
}
