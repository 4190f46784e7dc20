package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the correlator binaries.
type Config struct {
	// ServerAddress is the HTTP listen address of the correlator
	// (also the target address for the alarm-sender tool).
	ServerAddress string `yaml:"server_addr"`
	// DatabaseURL is the Postgres DSN for the incident store.
	// When empty the correlator falls back to the in-memory store.
	DatabaseURL string `yaml:"database_url"`
	// WindowSeconds is the sliding flush window: every appended alarm
	// postpones the tenant flush by this many seconds.
	WindowSeconds int `yaml:"window_seconds"`
	// MaxBufferSize is the per-tenant buffer size that triggers an
	// immediate flush.
	MaxBufferSize int `yaml:"max_buffer_size"`
	// CorrelationWindowSeconds is the maximum gap between two alarms
	// for them to be considered temporally correlated.
	CorrelationWindowSeconds int `yaml:"correlation_window_seconds"`
	// EmergencyEntityTypes lists entity types whose alarms force
	// cluster severity to critical.
	EmergencyEntityTypes []string `yaml:"emergency_entity_types"`
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
	// Timeout is the duration for client network operations.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for correlator settings.
	DefaultConfigFilename = "alarm-correlator-settings.yaml"

	// DefaultWindowSeconds is the default sliding flush window.
	DefaultWindowSeconds = 300

	// DefaultMaxBufferSize is the default immediate-flush threshold.
	DefaultMaxBufferSize = 100

	// DefaultCorrelationWindowSeconds is the default temporal
	// correlation window.
	DefaultCorrelationWindowSeconds = 300

	// DefaultEmergencyEntityType forces critical severity when present
	// on a member alarm.
	DefaultEmergencyEntityType = "EMERGENCY_SERVICE"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errServerSocketRequired is returned when the server address is missing.
	errServerSocketRequired = errors.New("server address must be provided")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ServerAddress == "" {
		return errServerSocketRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	if cfg.WindowSeconds <= 0 {
		cfg.WindowSeconds = DefaultWindowSeconds
	}

	if cfg.MaxBufferSize <= 0 {
		cfg.MaxBufferSize = DefaultMaxBufferSize
	}

	if cfg.CorrelationWindowSeconds <= 0 {
		cfg.CorrelationWindowSeconds = DefaultCorrelationWindowSeconds
	}

	if len(cfg.EmergencyEntityTypes) == 0 {
		cfg.EmergencyEntityTypes = []string{DefaultEmergencyEntityType}
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return nil
}

// Window returns the sliding flush window as a duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// CorrelationWindow returns the temporal correlation window as a duration.
func (c *Config) CorrelationWindow() time.Duration {
	return time.Duration(c.CorrelationWindowSeconds) * time.Second
}
