// Package config provides environment-based configuration management.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// DBConfig holds MySQL connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr string // host:port
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Port int
}

// FacebookApp is one registered Facebook application: webhook routes are
// created per app, and its access token is the first hop of the credential
// chain. The registry is loaded once at startup and injected explicitly,
// never read from ambient process state afterwards.
type FacebookApp struct {
	ID          string `json:"id"`
	AccessToken string `json:"access_token"`
	VerifyToken string `json:"verify_token"`

	// AppSecret enables HMAC SHA256 validation of delivery payloads when set.
	// Optional; deliveries are accepted unsigned when empty.
	AppSecret string `json:"app_secret,omitempty"`
}

// Config aggregates all configuration sections.
type Config struct {
	DB           DBConfig
	Redis        RedisConfig
	App          AppConfig
	FacebookApps []FacebookApp
}

// Load reads configuration from environment variables.
// Returns an error when critical variables are missing or malformed.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnvAsInt("DB_PORT", 3306)
	cfg.DB.User = getEnv("DB_USER", "root")
	cfg.DB.Password = getEnv("DB_PASS", "")
	cfg.DB.Database = getEnv("DB_NAME", "messenger_inbox")

	if cfg.DB.Password == "" {
		return nil, fmt.Errorf("DB_PASS environment variable is required")
	}

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.App.Port = getEnvAsInt("APP_PORT", 8080)

	// FB_APPS is a JSON array:
	// [{"id":"...","access_token":"...","verify_token":"..."}, ...]
	rawApps := os.Getenv("FB_APPS")
	if rawApps == "" {
		return nil, fmt.Errorf("FB_APPS environment variable is required")
	}
	if err := json.Unmarshal([]byte(rawApps), &cfg.FacebookApps); err != nil {
		return nil, fmt.Errorf("parse FB_APPS: %w", err)
	}
	if len(cfg.FacebookApps) == 0 {
		return nil, fmt.Errorf("FB_APPS must contain at least one application")
	}
	for i, app := range cfg.FacebookApps {
		if app.ID == "" || app.AccessToken == "" || app.VerifyToken == "" {
			return nil, fmt.Errorf("FB_APPS[%d]: id, access_token and verify_token are all required", i)
		}
	}

	return cfg, nil
}

// AppByID looks up a registered Facebook application.
func (c *Config) AppByID(appID string) (FacebookApp, bool) {
	for _, app := range c.FacebookApps {
		if app.ID == appID {
			return app, true
		}
	}
	return FacebookApp{}, false
}

// GetDSN returns the MySQL connection string.
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// getEnv reads an environment variable with a fallback default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as an integer with a fallback default.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
