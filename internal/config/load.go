package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable Load reads.
const EnvPrefix = "WORDCLAIM"

// legacyEnv maps configuration keys to the bare variable names used by
// existing deployments. They are consulted after the prefixed names.
var legacyEnv = map[string]string{
	"server.port":       "PORT",
	"server.upload_dir": "UPLOAD_DIR",
	"database.host":     "POSTGRES_HOST",
	"database.user":     "POSTGRES_USER",
	"database.password": "POSTGRES_PASSWORD",
	"database.name":     "POSTGRES_DATABASE",
}

// setDefaults registers every key, which also makes AutomaticEnv able to
// see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.upload_dir", "uploads")
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("server.max_upload_mb", 10)

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.connect_attempts", 10)
	v.SetDefault("database.connect_retry_delay_ms", 1000)

	v.SetDefault("pool.source_path", "")
	v.SetDefault("pool.claim_max_attempts", 10)
	v.SetDefault("pool.load_batch_size", 1000)

	v.SetDefault("reclaim.interval_seconds", 60)
	v.SetDefault("reclaim.timeout_seconds", 120)
	v.SetDefault("reclaim.redis_url", "")
	v.SetDefault("reclaim.lease_key", "wordclaim:reclaim:lease")

	v.SetDefault("window.duration_minutes", 12*60)

	v.SetDefault("ocr.provider", "tesseract")
	v.SetDefault("ocr.language", "por")
	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("ocr.gemini_api_key", "")
	v.SetDefault("ocr.gemini_model", "gemini-2.0-flash")

	v.SetDefault("auth.admin_secret", "")
	v.SetDefault("auth.token_lifetime_minutes", 60)
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate runs struct validation over cfg.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}
