// Package config defines the application configuration for the bot.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// AppConfig holds all application configuration
type AppConfig struct {
	// Service configuration
	ServiceName string `env:"SERVICE_NAME" yaml:"service_name" default:"prestamax-bot"`
	Version     string `env:"VERSION" yaml:"version" default:"dev"`
	Environment string `env:"ENVIRONMENT" yaml:"environment" default:"development"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`

	// Telegram transport configuration
	Telegram TelegramConfig `yaml:"telegram"`

	// Session lifecycle configuration
	Session SessionConfig `yaml:"session"`

	// Ledger storage configuration
	Ledger LedgerConfig `yaml:"ledger"`

	// External lending backend configuration
	Backend BackendConfig `yaml:"backend"`

	// Monitoring configuration
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" yaml:"level" default:"info"`
	Format string `env:"LOG_FORMAT" yaml:"format" default:"json"`
}

// Validate validates the configuration and returns an error if invalid
func (c *AppConfig) Validate() error {
	var result error

	// Validate log level
	validLevels := []string{"debug", "info", "warn", "error"}
	level := strings.ToLower(c.Logging.Level)
	valid := false
	for _, validLevel := range validLevels {
		if level == validLevel {
			valid = true
			break
		}
	}
	if !valid {
		result = multierror.Append(result, fmt.Errorf("log_level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}

	// Validate log format
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		result = multierror.Append(result, fmt.Errorf("log_format must be either 'json' or 'text', got %q", c.Logging.Format))
	}

	if err := c.Session.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Ledger.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Monitoring.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	return result
}

// SessionConfig holds the inactivity timeout and cleanup pacing knobs.
//
// The warning fires after WarnAfter of inactivity and the termination after
// TerminateAfter, both measured from the most recent renewal.
type SessionConfig struct {
	WarnAfter       time.Duration `env:"SESSION_WARN_AFTER" yaml:"warn_after" default:"3m"`
	TerminateAfter  time.Duration `env:"SESSION_TERMINATE_AFTER" yaml:"terminate_after" default:"5m"`
	ExitGrace       time.Duration `env:"SESSION_EXIT_GRACE" yaml:"exit_grace" default:"2s"`
	DeletePacing    time.Duration `env:"SESSION_DELETE_PACING" yaml:"delete_pacing" default:"50ms"`
	DeleteBatchSize int           `env:"SESSION_DELETE_BATCH_SIZE" yaml:"delete_batch_size" default:"10"`
	BatchDelay      time.Duration `env:"SESSION_BATCH_DELAY" yaml:"batch_delay" default:"500ms"`
}

// Validate checks that the timeout pair is coherent.
func (c SessionConfig) Validate() error {
	var result error
	if c.WarnAfter <= 0 {
		result = multierror.Append(result, fmt.Errorf("warn_after must be positive, got %s", c.WarnAfter))
	}
	if c.TerminateAfter <= c.WarnAfter {
		result = multierror.Append(result, fmt.Errorf("terminate_after (%s) must exceed warn_after (%s)", c.TerminateAfter, c.WarnAfter))
	}
	if c.DeleteBatchSize < 1 {
		result = multierror.Append(result, fmt.Errorf("delete_batch_size must be at least 1, got %d", c.DeleteBatchSize))
	}
	return result
}

// LedgerConfig holds the message ledger storage configuration.
type LedgerConfig struct {
	// Backend selects the FileProvider implementation: "local" or "s3".
	Backend string `env:"LEDGER_BACKEND" yaml:"backend" default:"local"`
	// DataDir is the base directory for the local backend.
	DataDir string `env:"LEDGER_DATA_DIR" yaml:"data_dir" default:"./data"`
	// File is the ledger document path, relative to the provider root.
	File string `env:"LEDGER_FILE" yaml:"file" default:"message_ledger.json"`
	// Bucket is the S3 bucket for the s3 backend.
	Bucket string `env:"LEDGER_S3_BUCKET" yaml:"bucket"`
	// RetentionHours is the idle age after which a chat's history is swept.
	RetentionHours int `env:"LEDGER_RETENTION_HOURS" yaml:"retention_hours" default:"24"`
	// SweepSchedule is the cron expression for the retention sweep.
	SweepSchedule string `env:"LEDGER_SWEEP_SCHEDULE" yaml:"sweep_schedule" default:"@hourly"`
}

// Validate checks storage backend coherence.
func (c LedgerConfig) Validate() error {
	var result error
	switch c.Backend {
	case "local":
		if c.DataDir == "" {
			result = multierror.Append(result, fmt.Errorf("data_dir is required for the local ledger backend"))
		}
	case "s3":
		if c.Bucket == "" {
			result = multierror.Append(result, fmt.Errorf("bucket is required for the s3 ledger backend"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("ledger backend must be 'local' or 's3', got %q", c.Backend))
	}
	if c.RetentionHours < 1 {
		result = multierror.Append(result, fmt.Errorf("retention_hours must be at least 1, got %d", c.RetentionHours))
	}
	return result
}

// BackendConfig holds the external lending backend configuration.
type BackendConfig struct {
	BaseURL string        `env:"BACKEND_BASE_URL" yaml:"base_url"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT" yaml:"timeout" default:"10s"`
}

// Enabled returns true if the backend collaborator is configured.
func (c *BackendConfig) Enabled() bool {
	return c.BaseURL != ""
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	MetricsEnabled     bool          `env:"METRICS_ENABLED" yaml:"metrics_enabled" default:"true"`
	MetricsPort        int           `env:"METRICS_PORT" yaml:"metrics_port" default:"9090"`
	HealthCheckTimeout time.Duration `env:"HEALTH_CHECK_TIMEOUT" yaml:"health_check_timeout" default:"10s"`
}

// Validate checks the monitoring port range.
func (c MonitoringConfig) Validate() error {
	if c.MetricsPort < 1 || c.MetricsPort > 65535 {
		return fmt.Errorf("metrics_port must be between 1 and 65535, got %d", c.MetricsPort)
	}
	return nil
}
