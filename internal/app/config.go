package app

import (
	"errors"
	"fmt"
	"time"
)

// Output formats accepted by Config.Format.
const (
	FormatJSON = "json"
	FormatHCL  = "hcl"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	DiagramPath string // hcl diagram file or directory
	KindsPath   string // extra kind manifests, optional

	Format     string
	OutputPath string // empty writes to the app's output writer

	PublishURL        string
	PublishNamespace  string
	PublishAckTimeout time.Duration // zero publishes without waiting for an ack

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.DiagramPath == "" {
		return nil, errors.New("DiagramPath is a required configuration field and cannot be empty")
	}

	switch cfg.Format {
	case "":
		cfg.Format = FormatJSON
	case FormatJSON, FormatHCL:
	default:
		return nil, fmt.Errorf("invalid format %q: must be 'json' or 'hcl'", cfg.Format)
	}

	if err := ValidateLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}
	if cfg.PublishNamespace != "" && cfg.PublishURL == "" {
		return nil, errors.New("a publish namespace needs a publish URL")
	}
	if cfg.PublishAckTimeout < 0 {
		return nil, fmt.Errorf("invalid publish ack timeout %s: must not be negative", cfg.PublishAckTimeout)
	}
	if cfg.PublishAckTimeout > 0 && cfg.PublishURL == "" {
		return nil, errors.New("a publish ack timeout needs a publish URL")
	}

	return &cfg, nil
}
