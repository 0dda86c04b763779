package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Progress  ProgressConfig  `mapstructure:"progress"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// GeneratorConfig points at the external AI plan generation service.
type GeneratorConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ProgressConfig tunes the derived-progress computation. WeekStart is
// configurable because the week boundary of the weekly aggregation is a
// locale decision, not a universal constant.
type ProgressConfig struct {
	WeeksBack int    `mapstructure:"weeks_back"`
	WeekStart string `mapstructure:"week_start"`
}

// WeekStartDay maps the configured week start name to a time.Weekday.
// Unrecognized values fall back to Sunday.
func (p ProgressConfig) WeekStartDay() time.Weekday {
	switch strings.ToLower(p.WeekStart) {
	case "monday":
		return time.Monday
	case "tuesday":
		return time.Tuesday
	case "wednesday":
		return time.Wednesday
	case "thursday":
		return time.Thursday
	case "friday":
		return time.Friday
	case "saturday":
		return time.Saturday
	default:
		return time.Sunday
	}
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// --- Environment Variable Handling ---
	viper.AutomaticEnv()
	// Use replacer for nested keys e.g., server.address -> SERVER_ADDRESS
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	// --- Set default values ---
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "easyfitness")
	viper.SetDefault("jwt.expiration", "24h")
	viper.SetDefault("generator.base_url", "http://localhost:8000/api")
	viper.SetDefault("generator.timeout", "60s")
	viper.SetDefault("progress.weeks_back", 8)
	viper.SetDefault("progress.week_start", "sunday")

	// --- Read Config File ---
	err = viper.ReadInConfig()
	// If the config file is missing we proceed on defaults and env vars.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	return config, nil
}
