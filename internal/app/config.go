package app

import (
	"errors"
	"fmt"
)

// Output formats for compiled programs.
const (
	EmitText = "text"
	EmitHCL  = "hcl"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Paths    []string // .hcl files or directories with graphs and pipelines
	Pipeline string   // pipeline applied to every graph
	Emit     string   // output format of compiled programs

	LogFormat string
	LogLevel  string
	Workers   int // graphs compiled at once
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Paths) == 0 {
		return nil, errors.New("at least one graph path is required")
	}
	if cfg.Pipeline == "" {
		return nil, errors.New("Pipeline is a required configuration field and cannot be empty")
	}
	if cfg.Emit != EmitText && cfg.Emit != EmitHCL {
		return nil, fmt.Errorf("invalid emit format '%s': must be '%s' or '%s'", cfg.Emit, EmitText, EmitHCL)
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	return &cfg, nil
}
