package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return load("")
}

// LoadFile loads configuration from an explicit config file. Unlike Load,
// a missing or unreadable file is an error. Environment variables still
// override values from the file.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path cannot be empty")
	}
	return load(path)
}

func load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		// Optional config file next to the binary; env vars still win
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Environment variables use the ENBOT_ prefix with underscores for
	// nesting, e.g. ENBOT_DATABASE_URL -> database.url
	v.SetEnvPrefix("ENBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration for field and cross-field errors.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Cross-field rules the tag language cannot express
	l := cfg.Learning
	if l.MinPriority > l.DefaultPriority || l.DefaultPriority > l.MaxPriority {
		return fmt.Errorf(
			"config validation failed: priorities must satisfy min <= default <= max, got %d/%d/%d",
			l.MinPriority, l.DefaultPriority, l.MaxPriority,
		)
	}

	g := cfg.Generation
	if g.MinExamples > g.MaxExamples {
		return fmt.Errorf(
			"config validation failed: min_examples %d exceeds max_examples %d",
			g.MinExamples, g.MaxExamples,
		)
	}

	return nil
}

// setDefaults registers every configuration key with its default value.
// Registering required keys with empty defaults makes them visible to
// AutomaticEnv, so they can be supplied by environment alone.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 30)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_lifetime_minutes", 60)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 7*24*60)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("learning.words_per_cycle", 10)
	v.SetDefault("learning.review_ratio", 0.3)
	v.SetDefault("learning.min_priority", 1)
	v.SetDefault("learning.max_priority", 5)
	v.SetDefault("learning.default_priority", 3)
	v.SetDefault("learning.repetition_intervals", []int{1, 3, 7, 14, 30, 90, 180})
	v.SetDefault("learning.day_start_hour", 3)

	v.SetDefault("notification.daily_reminder_hour", 9)
	v.SetDefault("notification.daily_check_interval_minutes", 60)
	v.SetDefault("notification.review_check_interval_minutes", 30)
	v.SetDefault("notification.error_backoff_seconds", 60)

	v.SetDefault("generation.gemini_api_key", "")
	v.SetDefault("generation.model_name", "gemini-2.0-flash")
	v.SetDefault("generation.max_retries", 3)
	v.SetDefault("generation.retry_delay_seconds", 2)
	v.SetDefault("generation.min_examples", 1)
	v.SetDefault("generation.max_examples", 3)
	v.SetDefault("generation.prompt_template", "")

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.stuck_task_age_minutes", 30)
	v.SetDefault("task.session_idle_timeout_minutes", 60)

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("logging.level", "info")
}
