package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App struct {
		Port        string
		Debug       bool
		FrontendURL string
	}
	DB struct {
		Driver   string
		Host     string
		Port     string
		User     string
		Password string
		DBName   string
		SSLMode  string
	}
	Redis struct {
		Host     string
		Port     string
		Password string
		DB       int
	}
	Auth struct {
		JWTSecret string
		Issuer    string
	}
	Geo struct {
		DistanceMode  string
		CacheTTL      time.Duration
		DefaultRadius int
		DefaultLimit  int
		MaxLimit      int
		MaxRadius     int
	}
	Gacha struct {
		Policy  string
		Weights map[string]float64
		Public  bool
	}
	Geocoder struct {
		URL      string
		Timeout  time.Duration
		CacheTTL time.Duration
	}
	Advice struct {
		URL      string
		APIKey   string
		Model    string
		Timeout  time.Duration
		CacheTTL time.Duration
	}
	Workers struct {
		GeocodeCleanupEnabled  bool
		AnalyticsEnabled       bool
		GeocodeCleanupInterval time.Duration
		AnalyticsInterval      time.Duration
	}
	RateLimit struct {
		RequestsPerSecond int
		Burst             int
		SearchPerHour     int
		GachaPerHour      int
		AdvicePerHour     int
		Window            time.Duration
	}
}

func Load() *Config {
	cfg := &Config{}

	// App
	cfg.App.Port = getEnv("PORT", "8080")
	cfg.App.Debug = getEnvAsBool("DEBUG", false)
	cfg.App.FrontendURL = getEnv("FRONTEND_URL", "http://localhost:3000")

	// DB
	cfg.DB.Driver = getEnv("DB_DRIVER", "postgres")
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.DBName = getEnv("DB_NAME", "roro")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	// Redis
	cfg.Redis.Host = getEnv("REDIS_HOST", "localhost")
	cfg.Redis.Port = getEnv("REDIS_PORT", "6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", 0)

	// Auth
	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.Auth.Issuer = getEnv("JWT_ISSUER", "")

	// Geo search
	cfg.Geo.DistanceMode = getEnv("GEO_DISTANCE_MODE", "auto")
	cfg.Geo.CacheTTL = getEnvAsDuration("GEO_CACHE_TTL", 10*time.Minute)
	cfg.Geo.DefaultRadius = getEnvAsInt("GEO_DEFAULT_RADIUS", 2000)
	cfg.Geo.DefaultLimit = getEnvAsInt("GEO_DEFAULT_LIMIT", 20)
	cfg.Geo.MaxLimit = getEnvAsInt("GEO_MAX_LIMIT", 50)
	cfg.Geo.MaxRadius = getEnvAsInt("GEO_MAX_RADIUS", 50000)

	// Gacha
	cfg.Gacha.Policy = getEnv("GACHA_POLICY", "uniform")
	cfg.Gacha.Public = getEnvAsBool("GACHA_PUBLIC", false)
	weights, err := ParseWeights(getEnv("GACHA_WEIGHTS", "facility:0.25,advice:0.25,event:0.25,material:0.25"))
	if err == nil {
		cfg.Gacha.Weights = weights
	}

	// Geocoder
	cfg.Geocoder.URL = getEnv("GEOCODER_URL", "https://zipcloud.ibsnet.co.jp/api/search")
	cfg.Geocoder.Timeout = getEnvAsDuration("GEOCODER_TIMEOUT", 8*time.Second)
	cfg.Geocoder.CacheTTL = getEnvAsDuration("GEOCODE_CACHE_TTL", 30*24*time.Hour)

	// AI advice
	cfg.Advice.URL = getEnv("ADVICE_API_URL", "https://api.openai.com/v1/chat/completions")
	cfg.Advice.APIKey = getEnv("OPENAI_API_KEY", "")
	cfg.Advice.Model = getEnv("ADVICE_MODEL", "gpt-4o")
	cfg.Advice.Timeout = getEnvAsDuration("ADVICE_TIMEOUT", 20*time.Second)
	cfg.Advice.CacheTTL = getEnvAsDuration("ADVICE_CACHE_TTL", time.Hour)

	// Workers
	cfg.Workers.GeocodeCleanupEnabled = getEnvAsBool("GEOCODE_CLEANUP_ENABLED", true)
	cfg.Workers.AnalyticsEnabled = getEnvAsBool("ANALYTICS_WORKER_ENABLED", true)
	cfg.Workers.GeocodeCleanupInterval = getEnvAsDuration("WORKER_GEOCODE_CLEANUP_INTERVAL", 24*time.Hour)
	cfg.Workers.AnalyticsInterval = getEnvAsDuration("WORKER_ANALYTICS_INTERVAL", 5*time.Minute)

	// Rate Limit
	cfg.RateLimit.RequestsPerSecond = getEnvAsInt("RATE_LIMIT_RPS", 10)
	cfg.RateLimit.Burst = getEnvAsInt("RATE_LIMIT_BURST", 20)
	cfg.RateLimit.SearchPerHour = getEnvAsInt("RATE_LIMIT_SEARCH_PER_HOUR", 30)
	cfg.RateLimit.GachaPerHour = getEnvAsInt("RATE_LIMIT_GACHA_PER_HOUR", 5)
	cfg.RateLimit.AdvicePerHour = getEnvAsInt("RATE_LIMIT_ADVICE_PER_HOUR", 20)
	cfg.RateLimit.Window = getEnvAsDuration("RATE_LIMIT_WINDOW", time.Hour)

	return cfg
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or mysql, got %q", c.DB.Driver)
	}
	switch c.Geo.DistanceMode {
	case "auto", "native", "haversine":
	default:
		return fmt.Errorf("GEO_DISTANCE_MODE must be auto, native or haversine, got %q", c.Geo.DistanceMode)
	}
	if c.Geo.DefaultRadius <= 0 || c.Geo.DefaultLimit <= 0 || c.Geo.MaxLimit <= 0 || c.Geo.MaxRadius <= 0 {
		return fmt.Errorf("geo radius and limit settings must be positive")
	}
	if c.Geo.DefaultLimit > c.Geo.MaxLimit {
		return fmt.Errorf("GEO_DEFAULT_LIMIT %d exceeds GEO_MAX_LIMIT %d", c.Geo.DefaultLimit, c.Geo.MaxLimit)
	}
	switch c.Gacha.Policy {
	case "uniform":
	case "weighted":
		if c.Gacha.Weights == nil {
			return fmt.Errorf("GACHA_WEIGHTS is invalid")
		}
	default:
		return fmt.Errorf("GACHA_POLICY must be uniform or weighted, got %q", c.Gacha.Policy)
	}
	if c.Auth.JWTSecret == "" && !c.Gacha.Public {
		return fmt.Errorf("JWT_SECRET is required unless GACHA_PUBLIC is enabled")
	}
	if c.RateLimit.SearchPerHour <= 0 || c.RateLimit.GachaPerHour <= 0 || c.RateLimit.AdvicePerHour <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit settings must be positive")
	}
	if c.Geocoder.Timeout <= 0 {
		return fmt.Errorf("GEOCODER_TIMEOUT must be positive")
	}
	if c.Advice.Timeout <= 0 || c.Advice.CacheTTL <= 0 {
		return fmt.Errorf("ADVICE_TIMEOUT and ADVICE_CACHE_TTL must be positive")
	}
	return nil
}

// ParseWeights reads "type:weight,type:weight". Weights must be non-negative and sum to 1.
func ParseWeights(raw string) (map[string]float64, error) {
	weights := make(map[string]float64)
	var total float64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("weight %q is not in type:value form", part)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || w < 0 || math.IsNaN(w) {
			return nil, fmt.Errorf("weight %q is not a non-negative number", part)
		}
		weights[strings.TrimSpace(name)] = w
		total += w
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("no weights given")
	}
	if math.Abs(total-1) > 1e-6 {
		return nil, fmt.Errorf("weights sum to %.6f, want 1", total)
	}
	return weights, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if dur, err := time.ParseDuration(value); err == nil {
			return dur
		}
	}
	return defaultValue
}
