package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Pool     PoolConfig     `mapstructure:"pool" validate:"required"`
	Reclaim  ReclaimConfig  `mapstructure:"reclaim" validate:"required"`
	Window   WindowConfig   `mapstructure:"window" validate:"required"`
	OCR      OCRConfig      `mapstructure:"ocr" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	UploadDir              string `mapstructure:"upload_dir" validate:"required"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`
	MaxUploadMB            int    `mapstructure:"max_upload_mb" validate:"gte=1,lte=100"`
}

// DatabaseConfig contains all database-related configuration settings.
// Either URL or Host must be set; when URL is empty the connection string
// is assembled from the individual fields.
type DatabaseConfig struct {
	URL                 string `mapstructure:"url" validate:"omitempty,url"`
	Host                string `mapstructure:"host" validate:"required_without=URL"`
	Port                int    `mapstructure:"port" validate:"gt=0,lt=65536"`
	User                string `mapstructure:"user"`
	Password            string `mapstructure:"password"`
	Name                string `mapstructure:"name"`
	SSLMode             string `mapstructure:"sslmode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns        int    `mapstructure:"max_open_conns" validate:"gte=1"`
	ConnectAttempts     int    `mapstructure:"connect_attempts" validate:"gte=1"`
	ConnectRetryDelayMS int    `mapstructure:"connect_retry_delay_ms" validate:"gte=0"`
}

// DSN returns the connection string for the pgx driver.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// PoolConfig covers the word pool itself.
type PoolConfig struct {
	// SourcePath is the text file used to populate an empty pool at startup.
	// Empty disables population.
	SourcePath       string `mapstructure:"source_path"`
	ClaimMaxAttempts int    `mapstructure:"claim_max_attempts" validate:"gte=1,lte=100"`
	LoadBatchSize    int    `mapstructure:"load_batch_size" validate:"gte=1,lte=5000"`
}

// ReclaimConfig controls the reclamation sweep and the shared claim timeout.
type ReclaimConfig struct {
	IntervalSeconds int    `mapstructure:"interval_seconds" validate:"gte=1"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds" validate:"gte=1"`
	RedisURL        string `mapstructure:"redis_url" validate:"omitempty,url"`
	LeaseKey        string `mapstructure:"lease_key" validate:"required"`
}

// Interval returns the sweep period.
func (r ReclaimConfig) Interval() time.Duration {
	return time.Duration(r.IntervalSeconds) * time.Second
}

// Timeout returns how long a claim may stay open before it is reclaimed.
func (r ReclaimConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// WindowConfig sets the registration window length.
type WindowConfig struct {
	DurationMinutes int `mapstructure:"duration_minutes" validate:"gte=1"`
}

// Duration returns the window length.
func (w WindowConfig) Duration() time.Duration {
	return time.Duration(w.DurationMinutes) * time.Minute
}

// OCRConfig selects and configures the text recognizer.
type OCRConfig struct {
	Provider      string `mapstructure:"provider" validate:"required,oneof=tesseract gemini"`
	Language      string `mapstructure:"language" validate:"required"`
	TesseractPath string `mapstructure:"tesseract_path"`
	GeminiAPIKey  string `mapstructure:"gemini_api_key" validate:"required_if=Provider gemini"`
	GeminiModel   string `mapstructure:"gemini_model" validate:"required_if=Provider gemini"`
}

// AuthConfig holds the optional admin guard settings.
type AuthConfig struct {
	AdminSecret          string `mapstructure:"admin_secret" validate:"omitempty,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gte=1"`
}
