package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// STUDYBUDDY_SERVER_PORT for server.port.
const EnvPrefix = "STUDYBUDDY"

// ConfigFlag is the command-line flag naming an explicit config file.
const ConfigFlag = "config"

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"port":            "server.port",
	"log-level":       "server.log_level",
	"database-driver": "database.driver",
	"database-url":    "database.url",
}

var defaults = map[string]interface{}{
	"server.port":                        8080,
	"server.log_level":                   "info",
	"server.cors_allowed_origins":        []string{"http://localhost:3000"},
	"server.shutdown_timeout_seconds":    10,
	"database.driver":                    "postgres",
	"database.max_open_conns":            10,
	"database.max_idle_conns":            5,
	"database.conn_max_lifetime_minutes": 5,
	"auth.token_lifetime_minutes":        60,
	"llm.model_name":                     "gemini-2.0-flash",
	"llm.max_retries":                    3,
	"llm.retry_delay_seconds":            2,
	"llm.timeout_seconds":                30,
	"llm.max_cards":                      10,
	"events.worker_count":                2,
	"events.queue_size":                  100,
}

// keys without a default still need an explicit env binding
var envOnlyKeys = []string{
	"database.url",
	"auth.jwt_secret",
	"llm.gemini_api_key",
}

// Load reads configuration from defaults, an optional config.yaml in the
// working directory, and environment variables.
func Load() (*Config, error) {
	return LoadWithFlags(nil)
}

// LoadWithFlags is Load with command-line overrides. Precedence, highest
// first: flags that were explicitly set, environment variables, the config
// file, defaults. A --config flag selects an explicit config file, which
// must then exist.
func LoadWithFlags(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	if err := readConfigFile(v, flags); err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func readConfigFile(v *viper.Viper, flags *pflag.FlagSet) error {
	explicit := ""
	if flags != nil {
		if flag := flags.Lookup(ConfigFlag); flag != nil {
			explicit = flag.Value.String()
		}
	}

	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", explicit, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}
