// Package config defines the application configuration and its
// loading from files, environment variables, and flags.
package config

import (
	"fmt"
	"strings"
)

// Config is the root application configuration.
type Config struct {
	ModelsDir string `mapstructure:"models_dir"`
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	Detector DetectorConfig `mapstructure:"detector"`
	Server   ServerConfig   `mapstructure:"server"`
	Output   OutputConfig   `mapstructure:"output"`
	GPU      GPUConfig      `mapstructure:"gpu"`
}

// DetectorConfig controls model loading and inference thresholds.
type DetectorConfig struct {
	ModelPath     string  `mapstructure:"model_path"`
	LabelsPath    string  `mapstructure:"labels_path"`
	Confidence    float32 `mapstructure:"confidence"`
	IoUThreshold  float32 `mapstructure:"iou_threshold"`
	InputSize     int     `mapstructure:"input_size"`
	NumThreads    int     `mapstructure:"num_threads"`
	MaxDetections int     `mapstructure:"max_detections"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	CORSOrigins        string `mapstructure:"cors_origins"`
	MaxUploadMB        int    `mapstructure:"max_upload_mb"`
	TimeoutSec         int    `mapstructure:"timeout_sec"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec"`
}

// OutputConfig controls processed image encoding.
type OutputConfig struct {
	JPEGQuality int `mapstructure:"jpeg_quality"`
}

// GPUConfig controls CUDA acceleration.
type GPUConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Device        int    `mapstructure:"device"`
	MemoryLimitMB uint64 `mapstructure:"memory_limit_mb"`
}

// DefaultConfig returns the configuration used when no file, env
// vars, or flags override anything.
func DefaultConfig() *Config {
	return &Config{
		ModelsDir: "",
		LogLevel:  "info",
		LogFormat: "json",
		Detector: DetectorConfig{
			Confidence:    0.25,
			IoUThreshold:  0.45,
			InputSize:     640,
			NumThreads:    0,
			MaxDetections: 300,
		},
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8000,
			CORSOrigins:        "*",
			MaxUploadMB:        50,
			TimeoutSec:         120,
			ShutdownTimeoutSec: 10,
		},
		Output: OutputConfig{
			JPEGQuality: 90,
		},
		GPU: GPUConfig{
			Enabled: false,
			Device:  0,
		},
	}
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("invalid log format: %s (must be 'json' or 'text')", c.LogFormat)
	}

	if c.Detector.Confidence < 0 || c.Detector.Confidence > 1 {
		return fmt.Errorf("detector confidence must be in [0, 1], got %g", c.Detector.Confidence)
	}
	if c.Detector.IoUThreshold <= 0 || c.Detector.IoUThreshold > 1 {
		return fmt.Errorf("detector IoU threshold must be in (0, 1], got %g", c.Detector.IoUThreshold)
	}
	if c.Detector.InputSize <= 0 {
		return fmt.Errorf("detector input size must be positive, got %d", c.Detector.InputSize)
	}
	if c.Detector.MaxDetections <= 0 {
		return fmt.Errorf("detector max detections must be positive, got %d", c.Detector.MaxDetections)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in [1, 65535], got %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server max upload size must be positive, got %d", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("server timeout must be positive, got %d", c.Server.TimeoutSec)
	}

	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return fmt.Errorf("JPEG quality must be in [1, 100], got %d", c.Output.JPEGQuality)
	}

	if c.GPU.Enabled && c.GPU.Device < 0 {
		return fmt.Errorf("GPU device must be non-negative, got %d", c.GPU.Device)
	}

	return nil
}

// CORSOriginList splits the configured comma-separated origins.
func (c *ServerConfig) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
