package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "yodet"

	// EnvPrefix is the prefix for environment variables, e.g.
	// YODET_SERVER_PORT overrides server.port.
	EnvPrefix = "YODET"
)

// Loader loads configuration from files, environment variables, and
// bound flags via viper.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance so cobra
// flag bindings take effect.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWith creates a loader on a dedicated viper instance,
// isolated from global state. Used by tests.
func NewLoaderWith(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load resolves the configuration from all sources and validates it.
// A missing config file is not an error; defaults and env vars apply.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.unmarshalAndValidate()
}

// LoadWithFile resolves configuration from a specific file path. An
// empty path falls back to the standard search paths.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	return l.unmarshalAndValidate()
}

func (l *Loader) unmarshalAndValidate() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &config, nil
}

// ConfigFileUsed returns the path of the config file actually read.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")

	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		l.v.AddConfigPath(filepath.Join(configDir, "yodet"))
	} else if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(filepath.Join(home, ".config", "yodet"))
	}

	l.v.AddConfigPath("/etc/yodet")
}

func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("models_dir", defaults.ModelsDir)
	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("log_format", defaults.LogFormat)

	l.v.SetDefault("detector.model_path", defaults.Detector.ModelPath)
	l.v.SetDefault("detector.labels_path", defaults.Detector.LabelsPath)
	l.v.SetDefault("detector.confidence", defaults.Detector.Confidence)
	l.v.SetDefault("detector.iou_threshold", defaults.Detector.IoUThreshold)
	l.v.SetDefault("detector.input_size", defaults.Detector.InputSize)
	l.v.SetDefault("detector.num_threads", defaults.Detector.NumThreads)
	l.v.SetDefault("detector.max_detections", defaults.Detector.MaxDetections)

	l.v.SetDefault("server.host", defaults.Server.Host)
	l.v.SetDefault("server.port", defaults.Server.Port)
	l.v.SetDefault("server.cors_origins", defaults.Server.CORSOrigins)
	l.v.SetDefault("server.max_upload_mb", defaults.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", defaults.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout_sec", defaults.Server.ShutdownTimeoutSec)

	l.v.SetDefault("output.jpeg_quality", defaults.Output.JPEGQuality)

	l.v.SetDefault("gpu.enabled", defaults.GPU.Enabled)
	l.v.SetDefault("gpu.device", defaults.GPU.Device)
	l.v.SetDefault("gpu.memory_limit_mb", defaults.GPU.MemoryLimitMB)
}
