package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// HTTP Server
	Port string

	// Storage
	DataBackend   string
	DataDirectory string
	SQLiteDBPath  string
	PostgresURL   string

	// AMQP
	AMQPURL              string
	AMQPExchange         string
	AMQPQueue            string
	AMQPEventsRoutingKey string

	// Scheduled imports
	ImportSchedule string
	ImportTimezone string
	ImportSources  string
	// ImportRoot confines local file sources of the server and the worker.
	// Empty disables local sources there.
	ImportRoot string

	// Summaries
	SummaryCacheSize int
	SummaryCacheTTL  time.Duration

	FetchTimeout      time.Duration
	FetchAllowPrivate bool
	LogLevel          string
}

// ImportSource pairs a profile with the source it is refreshed from.
type ImportSource struct {
	Profile string
	Source  string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:   getEnv("DATA_BACKEND", "memory"),
		DataDirectory: getEnv("DATA_DIRECTORY", "data"),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/tally.db"),
		PostgresURL:   getEnv("POSTGRES_URL", ""),

		AMQPURL:              getEnv("AMQP_URL", ""),
		AMQPExchange:         getEnv("AMQP_EXCHANGE", "tally"),
		AMQPQueue:            getEnv("AMQP_QUEUE", "import_requests"),
		AMQPEventsRoutingKey: getEnv("AMQP_EVENTS_ROUTING_KEY", "profile_updated"),

		ImportSchedule: getEnv("IMPORT_SCHEDULE", ""),
		ImportTimezone: getEnv("IMPORT_TIMEZONE", "UTC"),
		ImportSources:  getEnv("IMPORT_SOURCES", ""),
		ImportRoot:     getEnv("IMPORT_ROOT", ""),

		SummaryCacheSize: getEnvInt("SUMMARY_CACHE_SIZE", 32),
		SummaryCacheTTL:  getEnvDuration("SUMMARY_CACHE_TTL", 10*time.Minute),

		FetchTimeout:      getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchAllowPrivate: getEnvBool("FETCH_ALLOW_PRIVATE", false),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	return cfg
}

// Sources parses ImportSources, a ';' separated list of profile=source pairs.
// Blank entries are skipped.
func (c *Config) Sources() ([]ImportSource, error) {
	var out []ImportSource
	for _, entry := range strings.Split(c.ImportSources, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		profile, source, ok := strings.Cut(entry, "=")
		profile, source = strings.TrimSpace(profile), strings.TrimSpace(source)
		if !ok || profile == "" || source == "" {
			return nil, fmt.Errorf("invalid import source '%s': want profile=source", entry)
		}
		out = append(out, ImportSource{Profile: profile, Source: source})
	}
	return out, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite", "postgres"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "postgres":
		if c.PostgresURL == "" {
			errors = append(errors, "POSTGRES_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.PostgresURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL: %v", err))
		} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL scheme '%s': must be 'postgres' or 'postgresql'", u.Scheme))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ImportSchedule != "" {
		if _, err := cron.ParseStandard(c.ImportSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid import schedule '%s': %v", c.ImportSchedule, err))
		}
	}
	if _, err := time.LoadLocation(c.ImportTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid import timezone '%s': %v", c.ImportTimezone, err))
	}
	if _, err := c.Sources(); err != nil {
		errors = append(errors, err.Error())
	}
	if c.ImportRoot != "" {
		if info, err := os.Stat(c.ImportRoot); err != nil || !info.IsDir() {
			errors = append(errors, fmt.Sprintf("import root '%s' must be an existing directory", c.ImportRoot))
		}
	}

	if c.SummaryCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid summary cache size %d: must be at least 1", c.SummaryCacheSize))
	}
	if c.SummaryCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid summary cache TTL %v: must be at least 1 second", c.SummaryCacheTTL))
	}
	if c.FetchTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at least 1 second", c.FetchTimeout))
	} else if c.FetchTimeout > 10*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at most 10 minutes", c.FetchTimeout))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
