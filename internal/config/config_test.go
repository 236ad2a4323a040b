package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfigIsValid(t *testing.T) {
	config := DefaultConfig()
	require.NoError(t, config.Validate())

	assert.Equal(t, 8000, config.Server.Port)
	assert.Equal(t, "*", config.Server.CORSOrigins)
	assert.InDelta(t, 0.25, config.Detector.Confidence, 1e-6)
	assert.Equal(t, 640, config.Detector.InputSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }},
		{name: "confidence out of range", mutate: func(c *Config) { c.Detector.Confidence = 2 }},
		{name: "zero IoU", mutate: func(c *Config) { c.Detector.IoUThreshold = 0 }},
		{name: "zero input size", mutate: func(c *Config) { c.Detector.InputSize = 0 }},
		{name: "port too large", mutate: func(c *Config) { c.Server.Port = 70000 }},
		{name: "zero upload limit", mutate: func(c *Config) { c.Server.MaxUploadMB = 0 }},
		{name: "bad JPEG quality", mutate: func(c *Config) { c.Output.JPEGQuality = 101 }},
		{name: "negative GPU device", mutate: func(c *Config) { c.GPU.Enabled = true; c.GPU.Device = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestCORSOriginList(t *testing.T) {
	s := ServerConfig{CORSOrigins: "*"}
	assert.Equal(t, []string{"*"}, s.CORSOriginList())

	s.CORSOrigins = "http://localhost:3000, https://app.example.com ,"
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, s.CORSOriginList())

	s.CORSOrigins = ""
	assert.Empty(t, s.CORSOriginList())
}

// writeConfigFile marshals a config fragment to a YAML file.
func writeConfigFile(t *testing.T, fragment map[string]any) string {
	t.Helper()
	data, err := yaml.Marshal(fragment)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "yodet.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadWithFile(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"log_level": "debug",
		"detector": map[string]any{
			"model_path": "/models/best_14.onnx",
			"confidence": 0.5,
		},
		"server": map[string]any{
			"port": 9090,
		},
	})

	loader := NewLoaderWith(viper.New())
	config, err := loader.LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "/models/best_14.onnx", config.Detector.ModelPath)
	assert.InDelta(t, 0.5, config.Detector.Confidence, 1e-6)
	assert.Equal(t, 9090, config.Server.Port)

	// Unset keys keep defaults.
	assert.Equal(t, "0.0.0.0", config.Server.Host)
	assert.InDelta(t, 0.45, config.Detector.IoUThreshold, 1e-6)
}

func TestLoadWithFileMissing(t *testing.T) {
	loader := NewLoaderWith(viper.New())
	_, err := loader.LoadWithFile("/nonexistent/yodet.yaml")
	assert.Error(t, err)
}

func TestLoadWithFileInvalidValues(t *testing.T) {
	path := writeConfigFile(t, map[string]any{
		"server": map[string]any{"port": -1},
	})

	loader := NewLoaderWith(viper.New())
	_, err := loader.LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("YODET_SERVER_PORT", "8123")
	t.Setenv("YODET_LOG_LEVEL", "warn")

	loader := NewLoaderWith(viper.New())
	config, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, 8123, config.Server.Port)
	assert.Equal(t, "warn", config.LogLevel)
}
