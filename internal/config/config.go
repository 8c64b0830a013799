package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/ChakrapaniC/Senser-Dashboard-BE/internal/storage"
)

type Simulator struct {
	SensorType              string  `yaml:"sensor_type"`
	MinValue                float64 `yaml:"min_value"`
	MaxValue                float64 `yaml:"max_value"`
	GenerateIntervalSeconds int     `yaml:"generate_interval_seconds"`
	FlushIntervalSeconds    int     `yaml:"flush_interval_seconds"`
	RefreshIntervalSeconds  int     `yaml:"refresh_interval_seconds"`
	StalenessWindowSeconds  int     `yaml:"staleness_window_seconds"`
}

type Config struct {
	Port          string         `yaml:"port"`
	JWTSecret     string         `yaml:"jwt_secret"`
	TokenTTLHours int            `yaml:"token_ttl_hours"`
	NATSURL       string         `yaml:"nats_url"`
	Migrate       bool           `yaml:"migrate"`
	Database      storage.Config `yaml:"database"`
	Simulator     Simulator      `yaml:"simulator"`
}

func Default() *Config {
	return &Config{
		Port:          "3001",
		JWTSecret:     "",
		TokenTTLHours: 8,
		Database: storage.Config{
			Type:     "mysql",
			Host:     "localhost",
			Port:     3306,
			User:     "root",
			Password: "",
			Database: "sensor_dashboard",
		},
		Simulator: Simulator{
			SensorType:              "temp",
			MinValue:                20,
			MaxValue:                90,
			GenerateIntervalSeconds: 2,
			FlushIntervalSeconds:    5,
			RefreshIntervalSeconds:  30,
			StalenessWindowSeconds:  300,
		},
	}
}

// Load builds the configuration with priority: defaults < yaml file < env.
// A missing file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() {
	c.Port = getenv("PORT", c.Port)
	c.JWTSecret = getenv("JWT_SECRET", c.JWTSecret)
	c.TokenTTLHours = getenvInt("TOKEN_TTL_HOURS", c.TokenTTLHours)
	c.NATSURL = getenv("NATS_URL", c.NATSURL)
	if v := os.Getenv("MIGRATE"); v != "" {
		c.Migrate = v == "1" || v == "true"
	}
	c.Database.Type = getenv("DB_TYPE", c.Database.Type)
	c.Database.Host = getenv("DB_HOST", c.Database.Host)
	c.Database.Port = getenvInt("DB_PORT", c.Database.Port)
	c.Database.User = getenv("DB_USER", c.Database.User)
	c.Database.Password = getenv("DB_PASSWORD", c.Database.Password)
	c.Database.Database = getenv("DB_NAME", c.Database.Database)
	c.Database.SSLMode = getenv("DB_SSLMODE", c.Database.SSLMode)
}

func getenv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getenvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if parsed, err := strconv.Atoi(val); err == nil {
		return parsed
	}
	return fallback
}
