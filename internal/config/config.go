package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	FetcherHTTP  = "http"
	FetcherColly = "colly"

	defaultPort          = "8081"
	defaultConcurrency   = 12
	maxConcurrency       = 32
	defaultFetchTimeout  = 8 * time.Second
	defaultBatchTimeout  = 25 * time.Second
	defaultCacheTTL      = 10 * time.Minute
	defaultMaxBodyBytes  = 10 << 20
	defaultAllowedOrigin = "http://localhost:4200"
)

// Config holds the process settings.
type Config struct {
	Port         string
	SourcesFile  string // empty means the embedded registry
	Fetcher      string // "http" or "colly"
	Concurrency  int
	FetchTimeout time.Duration
	BatchTimeout time.Duration
	CacheTTL     time.Duration // 0 disables the response cache
	MaxBodyBytes int64
	CORSOrigins  []string
	// AdminSecret guards the admin routes; empty means an ephemeral secret is generated.
	AdminSecret string
}

// Load reads configuration from environment variables. Malformed numbers fall
// back to their defaults with a log line; call Validate before use.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	fetcher := strings.ToLower(strings.TrimSpace(os.Getenv("FETCHER")))
	if fetcher == "" {
		fetcher = FetcherHTTP
	}

	concurrency := getInt("CONCURRENCY", defaultConcurrency)
	concurrency = max(1, min(maxConcurrency, concurrency))

	return &Config{
		Port:         port,
		SourcesFile:  os.Getenv("SOURCES_FILE"),
		Fetcher:      fetcher,
		Concurrency:  concurrency,
		FetchTimeout: getSeconds("FETCH_TIMEOUT_SECONDS", defaultFetchTimeout),
		BatchTimeout: getSeconds("BATCH_TIMEOUT_SECONDS", defaultBatchTimeout),
		CacheTTL:     getSeconds("CACHE_TTL_SECONDS", defaultCacheTTL),
		MaxBodyBytes: int64(getInt("MAX_BODY_BYTES", defaultMaxBodyBytes)),
		CORSOrigins:  corsOrigins(os.Getenv("CORS_ORIGINS")),
		AdminSecret:  strings.TrimSpace(os.Getenv("ADMIN_SECRET")),
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Fetcher != FetcherHTTP && c.Fetcher != FetcherColly {
		return fmt.Errorf("config: FETCHER must be %q or %q, got %q", FetcherHTTP, FetcherColly, c.Fetcher)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("config: FETCH_TIMEOUT_SECONDS must be positive")
	}
	if c.BatchTimeout <= c.FetchTimeout {
		return fmt.Errorf("config: BATCH_TIMEOUT_SECONDS (%s) must exceed FETCH_TIMEOUT_SECONDS (%s)", c.BatchTimeout, c.FetchTimeout)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("config: CACHE_TTL_SECONDS must not be negative")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("config: MAX_BODY_BYTES must be positive")
	}
	return nil
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("[config] %s=%q is not a number, using %d", key, raw, fallback)
		return fallback
	}
	return v
}

func getSeconds(key string, fallback time.Duration) time.Duration {
	return time.Duration(getInt(key, int(fallback/time.Second))) * time.Second
}

// corsOrigins always allows the local frontend plus any comma separated extras.
func corsOrigins(extra string) []string {
	origins := []string{defaultAllowedOrigin}
	for _, o := range strings.Split(extra, ",") {
		o = strings.TrimSpace(o)
		if o != "" && o != defaultAllowedOrigin {
			origins = append(origins, o)
		}
	}
	return origins
}
