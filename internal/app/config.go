package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// defaultPointValues maps each supported pair to the fixed-point price
// scaling factor of the feed (yen pairs quote in thousandths).
var defaultPointValues = map[string]int{
	"EURUSD": 100_000,
	"GBPUSD": 100_000,
	"USDJPY": 1_000,
	"USDCAD": 100_000,
	"AUDUSD": 100_000,
	"USDCHF": 100_000,
}

// Config holds application configuration from env
type Config struct {
	Pairs       []string       // pairs to backfill, stable order
	PointValues map[string]int // pair -> fixed-point divisor

	BaseURL   string
	UserAgent string

	DataDir string
	LogDir  string

	RequestDelay     time.Duration // sleep after every fetch
	MaxHoursPerRun   int
	MaxRetries       int
	RetryDelay       time.Duration // base for exponential backoff
	HTTPTimeout      time.Duration
	RateLimitBackoff time.Duration // fixed cooldown on 429

	// Backfill walks backward from now down to this boundary.
	StartYear  int
	StartMonth int
	StartDay   int

	WriteEvery int // flush bars + save catalog every N fetches per pair
	Source     string
	LogLevel   string // debug | info | warn | error
}

// Load reads config from environment. A .env file is honored when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		PointValues:      defaultPointValues,
		BaseURL:          getEnv("FX_BASE_URL", "https://datafeed.dukascopy.com/datafeed"),
		UserAgent:        getEnv("FX_USER_AGENT", "fx-data/1.0 (historical FX research)"),
		DataDir:          getEnv("FX_DATA_DIR", "data"),
		LogDir:           getEnv("FX_LOG_DIR", "logs"),
		RequestDelay:     getEnvDuration("FX_REQUEST_DELAY", 250*time.Millisecond),
		MaxHoursPerRun:   getEnvInt("FX_MAX_HOURS_PER_RUN", 1500),
		MaxRetries:       getEnvInt("FX_MAX_RETRIES", 3),
		RetryDelay:       getEnvDuration("FX_RETRY_DELAY", 5*time.Second),
		HTTPTimeout:      getEnvDuration("FX_HTTP_TIMEOUT", 30*time.Second),
		RateLimitBackoff: getEnvDuration("FX_RATE_LIMIT_BACKOFF", 60*time.Second),
		StartYear:        getEnvInt("FX_START_YEAR", 2021),
		StartMonth:       getEnvInt("FX_START_MONTH", 1),
		StartDay:         getEnvInt("FX_START_DAY", 1),
		WriteEvery:       getEnvInt("FX_WRITE_EVERY", 50),
		Source:           getEnv("FX_SOURCE", "dukascopy"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	pairs, err := parsePairs(os.Getenv("FX_PAIRS"), cfg.PointValues)
	if err != nil {
		return nil, err
	}
	cfg.Pairs = pairs
	return cfg, nil
}

// parsePairs returns the configured subset of known pairs, or all of them in
// a fixed order when the env var is unset.
func parsePairs(s string, known map[string]int) ([]string, error) {
	if s == "" {
		return []string{"EURUSD", "GBPUSD", "USDJPY", "USDCAD", "AUDUSD", "USDCHF"}, nil
	}
	var pairs []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := known[p]; !ok {
			return nil, fmt.Errorf("unknown pair %q (no point value configured)", p)
		}
		pairs = append(pairs, p)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("FX_PAIRS set but empty")
	}
	return pairs, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// RawDir returns data/raw (one archived feed file per fetched hour).
func (c *Config) RawDir() string {
	return filepath.Join(c.DataDir, "raw")
}

// BarDir returns data/1m (per-pair yearly bar datasets).
func (c *Config) BarDir() string {
	return filepath.Join(c.DataDir, "1m")
}

// CatalogPath returns the slot catalog dataset path.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.DataDir, "catalog.parquet")
}

// ReportPath returns where the validation report is written.
func (c *Config) ReportPath() string {
	return filepath.Join(c.DataDir, "validation_report.json")
}

// StartBoundary returns the oldest instant the backfill targets.
func (c *Config) StartBoundary() time.Time {
	return time.Date(c.StartYear, time.Month(c.StartMonth), c.StartDay, 0, 0, 0, 0, time.UTC)
}
