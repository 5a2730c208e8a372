package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const dateLayout = "2006-01-02"

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	Driver          string
	DSN             string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogQueries      bool

	// WindowDays is the length of the "recent year" window ending at the reference date.
	WindowDays int
	// ReferenceDate pins the end of the recent window. Empty means the latest measurement date.
	ReferenceDate string
	// StationID pins the station used by /tobs. Empty means the most active station.
	StationID string
}

// NewViper returns a viper instance with defaults registered and environment
// lookup enabled.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// SetDefaults registers default values for every key read by Load.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db_driver", "sqlite3")
	v.SetDefault("db_dsn", "")
	v.SetDefault("sqlite_path", "Resources/hawaii.sqlite")
	v.SetDefault("db_max_open_conns", 4)
	v.SetDefault("db_max_idle_conns", 4)
	v.SetDefault("db_conn_max_lifetime", "0s")
	v.SetDefault("db_log_queries", false)
	v.SetDefault("climate_window_days", 365)
	v.SetDefault("climate_reference_date", "")
	v.SetDefault("climate_station_id", "")
}

// Load builds a validated Config from v. Keys are matched case-insensitively,
// so APP_ENV in the environment and app_env in a config file are equivalent.
func Load(v *viper.Viper) (Config, error) {
	appEnv := strings.TrimSpace(v.GetString("app_env"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(v.GetString("log_level"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(v.GetString("http_addr"))
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	driver := strings.TrimSpace(v.GetString("db_driver"))
	switch driver {
	case "":
		driver = "sqlite3"
	case "sqlite3", "pgx":
	default:
		return Config{}, fmt.Errorf("invalid DB_DRIVER %q (allowed: sqlite3, pgx)", driver)
	}
	dsn := strings.TrimSpace(v.GetString("db_dsn"))
	path := strings.TrimSpace(v.GetString("sqlite_path"))
	if driver == "pgx" && dsn == "" {
		return Config{}, fmt.Errorf("DB_DSN is required when DB_DRIVER is pgx")
	}
	if driver == "sqlite3" && dsn == "" && path == "" {
		return Config{}, fmt.Errorf("one of SQLITE_PATH or DB_DSN is required")
	}

	maxOpenConns, err := parseInt(v, "db_max_open_conns")
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := parseInt(v, "db_max_idle_conns")
	if err != nil {
		return Config{}, err
	}

	connMaxLifetimeStr := strings.TrimSpace(v.GetString("db_conn_max_lifetime"))
	if connMaxLifetimeStr == "" {
		connMaxLifetimeStr = "0s"
	}
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	windowDays, err := parseInt(v, "climate_window_days")
	if err != nil {
		return Config{}, err
	}
	if windowDays <= 0 {
		return Config{}, fmt.Errorf("CLIMATE_WINDOW_DAYS must be > 0, got %d", windowDays)
	}

	referenceDate := strings.TrimSpace(v.GetString("climate_reference_date"))
	if referenceDate != "" {
		if _, err := time.Parse(dateLayout, referenceDate); err != nil {
			return Config{}, fmt.Errorf("invalid CLIMATE_REFERENCE_DATE %q (expected YYYY-MM-DD): %w", referenceDate, err)
		}
	}

	return Config{
		AppEnv:          appEnv,
		LogLevel:        level,
		HTTPAddr:        httpAddr,
		Driver:          driver,
		DSN:             dsn,
		Path:            path,
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
		LogQueries:      v.GetBool("db_log_queries"),
		WindowDays:      windowDays,
		ReferenceDate:   referenceDate,
		StationID:       strings.TrimSpace(v.GetString("climate_station_id")),
	}, nil
}

func parseInt(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", strings.ToUpper(key), raw, err)
	}
	return n, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
