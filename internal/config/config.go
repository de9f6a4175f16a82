package config

import (
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"pokernight-server/internal/util"
)

// Config provides configuration for the poker server
type Config struct {
	loaded bool

	RedisURL string `yaml:"redisUrl" envconfig:"redis_url"`
	Log      struct {
		Level             string `yaml:"level"`
		DisableAccessLogs bool   `yaml:"disableAccessLogs" envconfig:"disable_access_logs"`
	}
	AllowedOrigins []string `yaml:"allowedOrigins" envconfig:"allowed_origins"`
}

var config Config

// Instance returns a singleton instance.
// If the config hasn't been loaded, it will be loaded.
func Instance() Config {
	if !config.loaded {
		if err := Load(); err != nil {
			panic(err)
		}
	}

	return config
}

// Load will load the configuration from the YAML file (if present) with
// environment overrides
func Load() error {
	config = Config{RedisURL: "redis://localhost:6379/0"}

	configFile := util.Getenv("PN_CONFIG_FILE", "config.yaml")
	file, err := os.Open(configFile)
	if err == nil {
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(&config); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := envconfig.Process("pn", &config); err != nil {
		return err
	}

	config.loaded = true
	return nil
}
