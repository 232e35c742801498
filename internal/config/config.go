/**
 * @description
 * This package handles the configuration management for the agent portal. It uses
 * the Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultBackendBaseURL is the fixed production backend host. The portal talks to
// exactly one backend; everything else is configuration detail.
const DefaultBackendBaseURL = "https://web-production-fedb.up.railway.app"

// Config holds all the configuration variables for the agent portal.
// These values are loaded from environment variables.
type Config struct {
	ServerPort            string `mapstructure:"SERVER_PORT"`
	BackendBaseURL        string `mapstructure:"BACKEND_BASE_URL"`
	RequestTimeoutSeconds int    `mapstructure:"REQUEST_TIMEOUT_SECONDS"`
	RetryAttempts         int    `mapstructure:"RETRY_ATTEMPTS"`
	RetryDelayMs          int    `mapstructure:"RETRY_DELAY_MS"`
	SessionFile           string `mapstructure:"SESSION_FILE"`
	RedisURL              string `mapstructure:"REDIS_URL"`
	SessionRedisPrefix    string `mapstructure:"SESSION_REDIS_PREFIX"`
	MetricsRefreshSeconds int    `mapstructure:"METRICS_REFRESH_SECONDS"`
}

// RequestTimeout returns the per-request client timeout as a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// RetryDelay returns the delay between transport-error retries.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// MetricsRefreshInterval returns the dashboard poller interval. Zero disables
// background refresh.
func (c Config) MetricsRefreshInterval() time.Duration {
	return time.Duration(c.MetricsRefreshSeconds) * time.Second
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("BACKEND_BASE_URL", DefaultBackendBaseURL)
	viper.SetDefault("REQUEST_TIMEOUT_SECONDS", 30)
	viper.SetDefault("RETRY_ATTEMPTS", 3)
	viper.SetDefault("RETRY_DELAY_MS", 1000)
	viper.SetDefault("SESSION_FILE", "agent_session.json")
	viper.SetDefault("SESSION_REDIS_PREFIX", "agent_portal:session")
	viper.SetDefault("METRICS_REFRESH_SECONDS", 30)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("BACKEND_BASE_URL")
	_ = viper.BindEnv("REQUEST_TIMEOUT_SECONDS")
	_ = viper.BindEnv("RETRY_ATTEMPTS")
	_ = viper.BindEnv("RETRY_DELAY_MS")
	_ = viper.BindEnv("SESSION_FILE")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("SESSION_REDIS_PREFIX")
	_ = viper.BindEnv("METRICS_REFRESH_SECONDS")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	// Platform-provided PORT (Railway/Render) wins over SERVER_PORT.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	if strings.TrimSpace(config.ServerPort) == "" {
		config.ServerPort = "8080"
	}

	config.BackendBaseURL = normalizeBaseURL(config.BackendBaseURL)
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.SessionRedisPrefix = strings.TrimSpace(config.SessionRedisPrefix)
	if config.SessionRedisPrefix == "" {
		config.SessionRedisPrefix = "agent_portal:session"
	}
	if strings.TrimSpace(config.SessionFile) == "" {
		config.SessionFile = "agent_session.json"
	}

	if config.RequestTimeoutSeconds <= 0 {
		log.Printf("level=warn component=config msg=\"invalid request timeout; using default\" seconds=%d", config.RequestTimeoutSeconds)
		config.RequestTimeoutSeconds = 30
	}
	if config.RetryAttempts < 0 {
		log.Printf("level=warn component=config msg=\"negative retry attempts; coercing to zero\" attempts=%d", config.RetryAttempts)
		config.RetryAttempts = 0
	}
	if config.RetryDelayMs < 0 {
		config.RetryDelayMs = 0
	}
	if config.MetricsRefreshSeconds < 0 {
		log.Printf("level=warn component=config msg=\"negative metrics refresh interval; disabling poller\" seconds=%d", config.MetricsRefreshSeconds)
		config.MetricsRefreshSeconds = 0
	}

	return
}

// normalizeBaseURL pins the backend URL to HTTPS and strips trailing slashes.
// Mixed-content redirects bit earlier portal builds, so an http:// value is
// rewritten rather than rejected.
func normalizeBaseURL(raw string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return DefaultBackendBaseURL
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "http://") {
		log.Printf("level=warn component=config msg=\"backend url used http; rewriting to https\" url=%s", trimmed)
		return "https://" + trimmed[len("http://"):]
	}
	if !strings.HasPrefix(lower, "https://") {
		return "https://" + trimmed
	}
	return trimmed
}
