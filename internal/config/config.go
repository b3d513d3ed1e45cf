package config

import (
	"bytes"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"rmvc/domain/dataset"
	"rmvc/domain/softset"
	"rmvc/internal"
	"rmvc/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Ingest   IngestConfig   `toml:"ingest"`
	Server   ServerConfig   `toml:"server"`
	Logging  LoggingConfig  `toml:"logging"`
}

// AnalysisConfig holds the soft-set and matrix settings
type AnalysisConfig struct {
	Orientation      string `toml:"orientation"`
	MinCriterionSize int    `toml:"min_criterion_size"`
	Workers          int    `toml:"workers"`
	Precision        int    `toml:"precision"`
}

// BuildOptions converts the analysis settings into soft-set build options.
// The orientation was checked by validateConfig.
func (c AnalysisConfig) BuildOptions() softset.BuildOptions {
	o, _ := dataset.ParseOrientation(c.Orientation)
	return softset.BuildOptions{Orientation: o, MinCriterionSize: c.MinCriterionSize}
}

// IngestConfig holds relation table parsing settings
type IngestConfig struct {
	Sheet           string  `toml:"sheet"`
	AcceptMarkers   bool    `toml:"accept_markers"`
	MalformedWarnAt float64 `toml:"malformed_warn_at"`
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string        `toml:"port"`
	GinMode         string        `toml:"gin_mode"`
	HistoryLimit    int           `toml:"history_limit"`
	MaxUploadBytes  int64         `toml:"max_upload_bytes"`
	ShutdownTimeout time.Duration `toml:"-"`
}

// LoggingConfig holds log level and destination
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Orientation:      string(dataset.RowsAreCandidates),
			MinCriterionSize: 1,
			Workers:          1,
			Precision:        4,
		},
		Ingest: IngestConfig{
			AcceptMarkers:   false,
			MalformedWarnAt: 0.2,
		},
		Server: ServerConfig{
			Port:            "8080",
			GinMode:         "release",
			HistoryLimit:    100,
			MaxUploadBytes:  32 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "INFO"},
	}
}

// Load reads the optional TOML file named by RMVC_CONFIG, applies
// environment overrides and validates the result.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("RMVC_CONFIG"))
}

// LoadFile is Load with an explicit TOML path; an empty path skips the file.
func LoadFile(path string) (*Config, error) {
	config := Default()

	if path != "" {
		if err := loadTOML(path, config); err != nil {
			return nil, errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	loadAnalysisConfig(&config.Analysis)
	loadIngestConfig(&config.Ingest)
	loadServerConfig(&config.Server)
	loadLoggingConfig(&config.Logging)

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadTOML(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.IOError("cannot read configuration file", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(config); err != nil {
		return errors.WithCode(errors.CodeConfigInvalid, err)
	}
	return nil
}

func loadAnalysisConfig(c *AnalysisConfig) {
	c.Orientation = getEnvOrDefault("RMVC_ORIENTATION", c.Orientation)
	c.MinCriterionSize = getEnvIntOrDefault("RMVC_MIN_CRITERION_SIZE", c.MinCriterionSize)
	c.Workers = getEnvIntOrDefault("RMVC_WORKERS", c.Workers)
	c.Precision = getEnvIntOrDefault("RMVC_PRECISION", c.Precision)
}

func loadIngestConfig(c *IngestConfig) {
	c.Sheet = getEnvOrDefault("RMVC_SHEET", c.Sheet)
	c.AcceptMarkers = getEnvBoolOrDefault("RMVC_ACCEPT_MARKERS", c.AcceptMarkers)
	c.MalformedWarnAt = getEnvFloatOrDefault("RMVC_MALFORMED_WARN_AT", c.MalformedWarnAt)
}

func loadServerConfig(c *ServerConfig) {
	c.Port = getEnvOrDefault("PORT", c.Port)
	c.GinMode = getEnvOrDefault("GIN_MODE", c.GinMode)
	c.HistoryLimit = getEnvIntOrDefault("RMVC_HISTORY_LIMIT", c.HistoryLimit)
	c.MaxUploadBytes = int64(getEnvIntOrDefault("RMVC_MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))
	c.ShutdownTimeout = getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
}

func loadLoggingConfig(c *LoggingConfig) {
	c.Level = getEnvOrDefault("LOG_LEVEL", c.Level)
	c.File = getEnvOrDefault("LOG_FILE", c.File)
}

func validateConfig(config *Config) error {
	if _, err := dataset.ParseOrientation(config.Analysis.Orientation); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	if config.Analysis.MinCriterionSize < 0 {
		return errors.ConfigInvalid("min criterion size cannot be negative")
	}
	if config.Analysis.Workers < 1 {
		return errors.ConfigInvalid("workers must be at least 1")
	}
	if config.Analysis.Precision < 0 || config.Analysis.Precision > 18 {
		return errors.ConfigInvalid("precision must be between 0 and 18")
	}
	if config.Ingest.MalformedWarnAt < 0 || config.Ingest.MalformedWarnAt > 1 {
		return errors.ConfigInvalid("malformed warning ratio must be between 0 and 1")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("server port is required")
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.ConfigInvalid("GIN_MODE must be debug, release or test")
	}
	if config.Server.MaxUploadBytes <= 0 {
		return errors.ConfigInvalid("max upload size must be positive")
	}
	if config.Server.HistoryLimit < 0 {
		return errors.ConfigInvalid("history limit cannot be negative")
	}
	if _, err := internal.ParseLevel(config.Logging.Level); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
