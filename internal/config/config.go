package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string

	// DBPoolSize caps the number of open connections shared by the
	// ingestion pipeline and the query side. Acquiring a connection
	// blocks until one is released.
	DBPoolSize int

	// EntityID stamps every ingested record with the owning entity.
	EntityID string

	// Seed drives the deterministic perturbation of replayed cache
	// data. Zero disables perturbation entirely.
	Seed int64

	// SeedPolicy selects the perturbation variant for the intraday
	// stream: "jitter" (default) or "rotate".
	SeedPolicy string

	BatchSize int

	// StartDate/EndDate, when both are set, override watermark-based
	// date-range discovery. Format: YYYY-MM-DD.
	StartDate string
	EndDate   string

	DeltaMode  bool
	UpsertMode bool

	// CacheDir holds the replayed 30-day sample caches.
	CacheDir string

	ListenAddr string

	// QueryFanout bounds the number of concurrent per-entity fetches
	// in multi-entity queries.
	QueryFanout int

	LogLevel    string
	LogEncoding string
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	cfg := &Config{
		DBHost:      getenv("DB_HOST", "localhost"),
		DBPort:      getenv("DB_PORT", "5432"),
		DBName:      getenv("DB_NAME", "pulseline"),
		DBUser:      getenv("DB_USER", "postgres"),
		DBPassword:  getenv("DB_PASSWORD", "password"),
		DBPoolSize:  getint("DB_POOL_SIZE", 10),
		EntityID:    getenv("ENTITY_ID", "default_user"),
		SeedPolicy:  getenv("APP_SEED_POLICY", "jitter"),
		BatchSize:   getint("BATCH_SIZE", 10000),
		StartDate:   os.Getenv("START_DATE"),
		EndDate:     os.Getenv("END_DATE"),
		DeltaMode:   getbool("DELTA_MODE", true),
		UpsertMode:  getbool("UPSERT_MODE", true),
		CacheDir:    getenv("CACHE_DIR", "cache"),
		ListenAddr:  getenv("APP_LISTEN_ADDR", ":8080"),
		QueryFanout: getint("QUERY_FANOUT", 5),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogEncoding: getenv("LOG_ENCODING", "json"),
	}

	if v := os.Getenv("DATA_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = seed
		}
	}

	return cfg
}

// Validate reports missing required settings. Called by the entry points
// before any I/O is attempted.
func (c *Config) Validate() error {
	var missing []string
	for _, f := range []struct{ key, val string }{
		{"DB_HOST", c.DBHost},
		{"DB_NAME", c.DBName},
		{"DB_USER", c.DBUser},
		{"DB_PASSWORD", c.DBPassword},
		{"ENTITY_ID", c.EntityID},
	} {
		if strings.TrimSpace(f.val) == "" {
			missing = append(missing, f.key)
		}
	}
	if len(missing) > 0 {
		return errors.New("missing required settings: " + strings.Join(missing, ", "))
	}
	if c.BatchSize <= 0 {
		return errors.New("BATCH_SIZE must be positive")
	}
	switch c.SeedPolicy {
	case "jitter", "rotate":
	default:
		return fmt.Errorf("invalid APP_SEED_POLICY %q (want jitter or rotate)", c.SeedPolicy)
	}
	return nil
}

// DatabaseURL composes the PostgreSQL DSN from the discrete settings.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getbool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true")
	}
	return def
}
