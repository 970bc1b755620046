// Package config reads devstore settings from the environment (and .env).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/duisenbekovayan/devstore/internal/storage"
)

type Config struct {
	HTTPAddr  string
	StaticDir string

	Storage storage.Config

	KafkaBroker   string
	KafkaTopic    string
	KafkaGroup    string
	KafkaDLQTopic string

	CatalogFile    string
	SearchDebounce time.Duration
	ToastTTL       time.Duration
	SessionTTL     time.Duration
	SessionSweep   time.Duration

	LogLevel string
}

// Load reads .env files if present, then the environment.
func Load(files ...string) (Config, error) {
	_ = godotenv.Load(files...)
	return FromEnv()
}

func FromEnv() (Config, error) {
	var (
		c    Config
		errs []string
	)
	dur := func(k, def string) time.Duration {
		v := getenv(k, def)
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Sprintf("%s=%q is not a positive duration", k, v))
		}
		return d
	}

	c.HTTPAddr = getenv("HTTP_ADDR", ":8080")
	c.StaticDir = getenv("STATIC_DIR", "./web")

	pgPort, err := strconv.Atoi(getenv("PG_PORT", "5432"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("PG_PORT=%q is not a port", os.Getenv("PG_PORT")))
	}
	dsn := storage.DSN(
		getenv("PG_HOST", "localhost"),
		pgPort,
		getenv("PG_USER", "devstore"),
		getenv("PG_PASSWORD", "devstore"),
		getenv("PG_DB", "devstore"),
	)
	c.Storage = storage.Config{
		Driver:      getenv("STORAGE_DRIVER", storage.DriverSQLite),
		SQLitePath:  getenv("STORAGE_PATH", "devstore.db"),
		PostgresDSN: dsn,
	}

	c.KafkaBroker = os.Getenv("KAFKA_BROKER")
	c.KafkaTopic = getenv("KAFKA_TOPIC", "cart-events")
	c.KafkaGroup = getenv("KAFKA_GROUP", "devstore-tail")
	c.KafkaDLQTopic = os.Getenv("KAFKA_DLQ_TOPIC")

	c.CatalogFile = os.Getenv("CATALOG_FILE")
	c.SearchDebounce = dur("SEARCH_DEBOUNCE", "180ms")
	c.ToastTTL = dur("TOAST_TTL", "1600ms")
	c.SessionTTL = dur("SESSION_TTL", "24h")
	c.SessionSweep = dur("SESSION_SWEEP", "10m")

	c.LogLevel = strings.ToLower(getenv("LOG_LEVEL", "info"))
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL=%q: %v", c.LogLevel, err))
	}

	if len(errs) > 0 {
		return c, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return c, nil
}

// KafkaBrokers is empty when event publishing is off.
func (c Config) KafkaBrokers() []string {
	if c.KafkaBroker == "" {
		return nil
	}
	var out []string
	for _, b := range strings.Split(c.KafkaBroker, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// Logger builds a production zap logger at the configured level.
func (c Config) Logger() (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
