package shared

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv            string
	LogLevel          string
	HTTPAddr          string
	RequestTimeout    time.Duration
	MetricsAddr       string
	MySQLDSN          string
	RedisAddr         string
	RedisDB           int
	RedisPass         string
	GeoBase           string
	GeoRPS            int
	GeoTimeout        time.Duration
	GeoTTL            time.Duration
	CacheTTL          time.Duration
	SnapshotLimit     int
	CountdownInterval time.Duration
	ImportFile        string
	ImportWorkers     int
	ImportSchedule    string
}

// Load reads the process environment. Keys missing there are taken from the
// dotenv file named by ENV_FILE (default .env) when it exists.
func Load() Config {
	dot := readDotEnv(os.Getenv("ENV_FILE"))
	env := func(k, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		if v := dot[k]; v != "" {
			return v
		}
		return def
	}
	atoi := func(k string, def int) int {
		if v := env(k, ""); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
			log.Warn().Str("key", k).Str("value", v).Msg("ignoring non-integer env value")
		}
		return def
	}
	c := Config{
		AppEnv:            env("APP_ENV", "prod"),
		LogLevel:          env("LOG_LEVEL", "info"),
		HTTPAddr:          env("HTTP_ADDR", ":8080"),
		RequestTimeout:    time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 5)) * time.Second,
		MetricsAddr:       env("METRICS_ADDR", ""),
		MySQLDSN:          env("MYSQL_DSN", "root:root@tcp(localhost:3306)/sweepstakes?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:         env("REDIS_ADDR", "localhost:6379"),
		RedisDB:           atoi("REDIS_DB", 0),
		RedisPass:         env("REDIS_PASSWORD", ""),
		GeoBase:           env("GEO_BASE_URL", "https://ipapi.co"),
		GeoRPS:            atoi("GEO_RPS", 1),
		GeoTimeout:        time.Duration(atoi("GEO_TIMEOUT_SECONDS", 5)) * time.Second,
		GeoTTL:            time.Duration(atoi("GEO_TTL_HOURS", 24)) * time.Hour,
		CacheTTL:          time.Duration(atoi("CACHE_TTL_SECONDS", 60)) * time.Second,
		SnapshotLimit:     atoi("SNAPSHOT_LIMIT", 10000),
		CountdownInterval: time.Duration(atoi("COUNTDOWN_INTERVAL_MS", 1000)) * time.Millisecond,
		ImportFile:        env("IMPORT_FILE", "listings.json"),
		ImportWorkers:     atoi("IMPORT_WORKERS", 4),
		ImportSchedule:    env("IMPORT_SCHEDULE", ""),
	}
	if c.GeoTTL <= 0 {
		c.GeoTTL = 24 * time.Hour
	}
	if c.CountdownInterval <= 0 {
		c.CountdownInterval = time.Second
	}
	return c
}

// readDotEnv parses the file without touching the process environment.
func readDotEnv(path string) map[string]string {
	if path == "" {
		path = ".env"
	}
	m, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Str("file", path).Msg("ignoring unreadable env file")
		}
		return nil
	}
	return m
}
