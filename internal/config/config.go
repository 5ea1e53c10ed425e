package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DatabaseURL      string
	KafkaBrokers     []string
	KafkaEventsTopic string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	// Ingestion cycle pacing.
	RefreshInterval time.Duration
	CycleCooldown   time.Duration
	GaugeBatchSize  int

	// External data sources.
	USGSBaseURL      string
	NWSBaseURL       string
	OpenMeteoBaseURL string
	SourceTimeout    time.Duration

	// Forecast caching.
	ForecastCacheSize int
	ForecastCacheTTL  time.Duration

	// Risk model inputs without a live source yet.
	SoilSaturationDefault float64
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "5m")
	if err != nil {
		return nil, err
	}
	cycleCooldown, err := parseDuration("CYCLE_COOLDOWN", "60s")
	if err != nil {
		return nil, err
	}
	sourceTimeout, err := parseDuration("SOURCE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("FORECAST_CACHE_TTL", "15m")
	if err != nil {
		return nil, err
	}

	batchSize, err := parsePositiveInt("GAUGE_BATCH_SIZE", 20)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("FORECAST_CACHE_SIZE", 500)
	if err != nil {
		return nil, err
	}

	soilSaturation, err := parseSoilSaturation()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		KafkaBrokers:     parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaEventsTopic: envOrDefault("KAFKA_EVENTS_TOPIC", "flood-events"),
		HTTPAddr:         envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,

		RefreshInterval: refreshInterval,
		CycleCooldown:   cycleCooldown,
		GaugeBatchSize:  batchSize,

		USGSBaseURL:      envOrDefault("USGS_BASE_URL", "https://waterservices.usgs.gov/nwis/iv"),
		NWSBaseURL:       envOrDefault("NWS_BASE_URL", "https://api.weather.gov"),
		OpenMeteoBaseURL: envOrDefault("OPENMETEO_BASE_URL", "https://api.open-meteo.com/v1/forecast"),
		SourceTimeout:    sourceTimeout,

		ForecastCacheSize: cacheSize,
		ForecastCacheTTL:  cacheTTL,

		SoilSaturationDefault: soilSaturation,
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaEventsTopic == "" {
		return nil, errors.New("KAFKA_EVENTS_TOPIC is required")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseSoilSaturation() (float64, error) {
	s := os.Getenv("SOIL_SATURATION_DEFAULT")
	if s == "" {
		return 50, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 100 {
		return 0, errors.New("invalid SOIL_SATURATION_DEFAULT")
	}
	return v, nil
}
