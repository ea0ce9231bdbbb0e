package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from .env.local if APP_ENV is "local"
func LoadEnv() {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development" // Default to development if not set
		os.Setenv("APP_ENV", appEnv)
	}

	if appEnv == "local" {
		err := godotenv.Load(".env.local") // Assumes .env.local exists where the binary is run
		if err != nil {
			log.Printf("Warning: .env.local file not found, or error loading: %v. Relying on system environment variables.", err)
		} else {
			log.Println("Loaded .env.local for local development.")
		}
	} else {
		log.Printf("Running in %s environment. Not loading .env.local.", appEnv)
	}
}

// Config is the storefront configuration read from the environment
type Config struct {
	AppEnv string

	// Products API
	APIBaseURL   string
	APIPrefix    string
	APITimeout   time.Duration
	APIRateLimit float64 // requests per second, 0 disables limiting
	PerPage      int

	// Presentation
	SearchDebounce time.Duration
	ScrollMargin   int

	// Response cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
	CacheSize     int

	// Catalog fixture store
	DB DBConfig

	MockCatalogPath string

	LogFile  string
	LogLevel string
}

// DBConfig selects and addresses the SQL fixture store
type DBConfig struct {
	Driver   string // "postgres" or "sqlite"; empty disables the store
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	Path     string // sqlite file
}

// Load reads the configuration, applying defaults for unset variables
func Load() (Config, error) {
	var errs []error
	cfg := Config{
		AppEnv:          getenv("APP_ENV", "development"),
		APIBaseURL:      os.Getenv("API_BASE_URL"),
		APIPrefix:       getenv("API_PREFIX", "/webapp/api"),
		APITimeout:      duration("API_TIMEOUT", 10*time.Second, &errs),
		APIRateLimit:    float("API_RATE_LIMIT", 0, &errs),
		PerPage:         integer("PER_PAGE", 8, &errs),
		SearchDebounce:  duration("SEARCH_DEBOUNCE", 300*time.Millisecond, &errs),
		ScrollMargin:    integer("SCROLL_MARGIN", 2, &errs),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         integer("REDIS_DB", 0, &errs),
		CacheTTL:        duration("CACHE_TTL", 5*time.Minute, &errs),
		CacheSize:       integer("CACHE_SIZE", 128, &errs),
		MockCatalogPath: os.Getenv("MOCK_CATALOG_PATH"),
		LogFile:         getenv("LOG_FILE", "storefront.log"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		DB: DBConfig{
			Driver:   os.Getenv("DB_DRIVER"),
			Host:     getenv("DB_HOST", "localhost"),
			Port:     getenv("DB_PORT", "5432"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Path:     getenv("DB_PATH", "catalog.sqlite"),
		},
	}

	if cfg.PerPage < 1 {
		errs = append(errs, fmt.Errorf("PER_PAGE must be positive, got %d", cfg.PerPage))
	}
	if cfg.APIRateLimit < 0 {
		errs = append(errs, fmt.Errorf("API_RATE_LIMIT must not be negative, got %g", cfg.APIRateLimit))
	}
	switch cfg.DB.Driver {
	case "", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver))
	}

	if len(errs) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func integer(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func float(key string, def float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}
