package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration for the booking client and the
// development backend.
type Config struct {
	Env       string
	LogLevel  string
	LogFormat string

	// Client
	APIBaseURL          string
	APITimeout          time.Duration
	BookingEmail        string
	BookingPassword     string
	Timezone            string
	ClosePickerOnChange bool
	MetricsAddr         string

	// Development backend
	Port          string
	JWTSecret     string
	TokenTTL      time.Duration
	StoreBackend  string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	DatabaseURL   string
	OpenHour      int
	CloseHour     int
	LoginPerMin   float64
	LoginBurst    int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Env:                 getEnv("ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           strings.ToLower(strings.TrimSpace(getEnv("LOG_FORMAT", "json"))),
		APIBaseURL:          getEnv("API_BASE_URL", "http://localhost:3333"),
		APITimeout:          getEnvAsDuration("API_TIMEOUT", 15*time.Second),
		BookingEmail:        getEnv("BOOKING_EMAIL", ""),
		BookingPassword:     getEnv("BOOKING_PASSWORD", ""),
		Timezone:            getEnv("TIMEZONE", "Local"),
		ClosePickerOnChange: getEnvAsBool("CLOSE_PICKER_ON_CHANGE", true),
		MetricsAddr:         getEnv("METRICS_ADDR", ""),
		Port:                getEnv("PORT", "3333"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		TokenTTL:            getEnvAsDuration("TOKEN_TTL", 24*time.Hour),
		StoreBackend:        strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", "memory"))),
		RedisAddr:           getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisTLS:            getEnvAsBool("REDIS_TLS", false),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		OpenHour:            getEnvAsInt("OPEN_HOUR", 8),
		CloseHour:           getEnvAsInt("CLOSE_HOUR", 18),
		LoginPerMin:         getEnvAsFloat("LOGIN_RATE_PER_MINUTE", 10),
		LoginBurst:          getEnvAsInt("LOGIN_BURST", 5),
	}
}

// Location resolves Timezone, falling back to the process local zone.
func (c *Config) Location() *time.Location {
	if c == nil || c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
