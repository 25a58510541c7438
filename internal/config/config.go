// Package config reads service settings from the environment. A .env file in
// the working directory is loaded first when present; real environment
// variables take precedence over it.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrMissingSetting = errors.New("required setting is not set")

var defaultPorts = map[string]string{
	"gateway":   "8080",
	"orders":    "8081",
	"reporting": "8082",
}

type Config struct {
	ServiceName    string
	ServiceVersion string
	LogLevel       string
	Port           string

	// Storage
	PostgresURL    string
	PostgresSchema string
	MigrationsPath string

	// Messaging and cache
	KafkaBrokers  []string
	RedisURL      string
	StatsCacheTTL time.Duration

	// Orders
	PlaceholderImage  string
	PlaceholderItems  bool
	StrictTransitions bool

	// Reporting
	PopularProductsLimit int

	// Gateway upstreams
	OrdersServiceURL    string
	ReportingServiceURL string
}

// Load builds the configuration for serviceName. It never fails; use Require
// to check the settings a binary cannot run without.
func Load(serviceName string) *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName:    serviceName,
		ServiceVersion: getEnv("SERVICE_VERSION", "0.1.0"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Port:           getEnv("PORT", defaultPorts[serviceName]),

		PostgresURL:    getEnv("POSTGRES_URL", ""),
		PostgresSchema: getEnv("POSTGRES_SCHEMA", "orders"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),

		KafkaBrokers:  getEnvAsList("KAFKA_BROKERS"),
		RedisURL:      getEnv("REDIS_URL", ""),
		StatsCacheTTL: getEnvAsDuration("STATS_CACHE_TTL", 30*time.Second),

		PlaceholderImage:  getEnv("PLACEHOLDER_IMAGE", "/images/placeholder.png"),
		PlaceholderItems:  getEnvAsBool("ORDERS_PLACEHOLDER_ITEMS", false),
		StrictTransitions: getEnvAsBool("ORDERS_STRICT_TRANSITIONS", false),

		PopularProductsLimit: getEnvAsInt("POPULAR_PRODUCTS_LIMIT", 5),

		OrdersServiceURL:    getEnv("ORDERS_SERVICE_URL", ""),
		ReportingServiceURL: getEnv("REPORTING_SERVICE_URL", ""),
	}
}

// Require reports every listed environment key whose setting is empty.
func (c *Config) Require(keys ...string) error {
	values := map[string]bool{
		"POSTGRES_URL":          c.PostgresURL != "",
		"KAFKA_BROKERS":         len(c.KafkaBrokers) > 0,
		"REDIS_URL":             c.RedisURL != "",
		"ORDERS_SERVICE_URL":    c.OrdersServiceURL != "",
		"REPORTING_SERVICE_URL": c.ReportingServiceURL != "",
	}

	var errs []error
	for _, key := range keys {
		if !values[key] {
			errs = append(errs, &SettingError{Key: key})
		}
	}
	return errors.Join(errs...)
}

type SettingError struct {
	Key string
}

func (e *SettingError) Error() string {
	return e.Key + ": " + ErrMissingSetting.Error()
}

func (e *SettingError) Unwrap() error {
	return ErrMissingSetting
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

// getEnvAsList splits a comma-separated value, dropping empty entries.
func getEnvAsList(key string) []string {
	var list []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			list = append(list, part)
		}
	}
	return list
}
