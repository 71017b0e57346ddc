package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/habit-tracker/internal/logging"
)

// Database drivers understood by the store.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DefaultSQLiteDSN is used when HABITS_DB_DSN is unset and the driver is sqlite.
const DefaultSQLiteDSN = "file:habits.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// Config captures environment driven configuration values for the habit service.
type Config struct {
	HTTPPort    int
	DBDriver    string
	DBDSN       string
	SessionTTL  time.Duration
	Location    *time.Location
	HeatmapDays int
	CORSOrigins []string
	LogLevel    slog.Level
	LogFormat   logging.Format
	LogFile     string
	// ReportCacheTTL is how long a dashboard report is reused. Zero, the
	// default, disables the cache. Entries are per process, so with several
	// replicas a write through one is not seen by another's cache until the
	// TTL runs out.
	ReportCacheTTL time.Duration
}

// Load parses configuration values from the current process environment.
//
// Optional values fall back to defaults. Missing required values and values
// that fail to parse are collected and reported together.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:    8080,
		DBDriver:    DriverSQLite,
		SessionTTL:  24 * time.Hour,
		Location:    time.UTC,
		HeatmapDays: 180,
		LogLevel:    slog.LevelInfo,
		LogFormat:   logging.FormatJSON,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := env("HABITS_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "HABITS_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if driver := strings.ToLower(env("HABITS_DB_DRIVER")); driver != "" {
		switch driver {
		case DriverSQLite, DriverPostgres:
			cfg.DBDriver = driver
		case "postgresql":
			cfg.DBDriver = DriverPostgres
		default:
			invalid = append(invalid, "HABITS_DB_DRIVER")
		}
	}

	cfg.DBDSN = env("HABITS_DB_DSN")
	if cfg.DBDSN == "" {
		if cfg.DBDriver == DriverPostgres {
			missing = append(missing, "HABITS_DB_DSN")
		} else {
			cfg.DBDSN = DefaultSQLiteDSN
		}
	}

	if ttlValue := env("HABITS_SESSION_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "HABITS_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if zone := env("HABITS_TIMEZONE"); zone != "" {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			invalid = append(invalid, "HABITS_TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	if daysValue := env("HABITS_HEATMAP_DAYS"); daysValue != "" {
		days, err := strconv.Atoi(daysValue)
		if err != nil || days < 7 {
			invalid = append(invalid, "HABITS_HEATMAP_DAYS")
		} else {
			cfg.HeatmapDays = days
		}
	}

	if cacheValue := env("HABITS_REPORT_CACHE_TTL"); cacheValue != "" {
		ttl, err := time.ParseDuration(cacheValue)
		if err != nil || ttl < 0 {
			invalid = append(invalid, "HABITS_REPORT_CACHE_TTL")
		} else {
			cfg.ReportCacheTTL = ttl
		}
	}

	if origins := env("HABITS_CORS_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimRight(strings.TrimSpace(origin), "/"); trimmed != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, trimmed)
			}
		}
	}

	if levelValue := env("HABITS_LOG_LEVEL"); levelValue != "" {
		level, err := logging.ParseLevel(levelValue)
		if err != nil {
			invalid = append(invalid, "HABITS_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if formatValue := env("HABITS_LOG_FORMAT"); formatValue != "" {
		format, err := logging.ParseFormat(formatValue)
		if err != nil {
			invalid = append(invalid, "HABITS_LOG_FORMAT")
		} else {
			cfg.LogFormat = format
		}
	}

	cfg.LogFile = env("HABITS_LOG_FILE")

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// LoggingOptions returns the logger settings derived from cfg.
func (c Config) LoggingOptions() logging.Options {
	return logging.Options{Level: c.LogLevel, Format: c.LogFormat, File: c.LogFile}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
