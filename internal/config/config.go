package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/textsnap/internal/ocr"
)

// EnvPrefix prefixes every environment override, e.g. TEXTSNAP_LANGUAGE.
const EnvPrefix = "TEXTSNAP"

// Config holds the user's settings. It is read from file and environment
// and never written back.
type Config struct {
	// Language is the OCR language code.
	Language string `mapstructure:"language" yaml:"language"`

	// TessdataPrefix overrides where Tesseract looks for traineddata.
	TessdataPrefix string `mapstructure:"tessdata_prefix" yaml:"tessdata_prefix"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// Workers is the number of concurrent pipeline runs.
	Workers int `mapstructure:"workers" yaml:"workers"`

	// Attempts is how often a run is tried when the engine times out.
	Attempts int `mapstructure:"attempts" yaml:"attempts"`

	// SaveDir is where captures are stored when saving is requested.
	// Empty means the working directory.
	SaveDir string `mapstructure:"save_dir" yaml:"save_dir"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Language:  ocr.DefaultLanguage,
		LogLevel:  "info",
		LogFormat: "text",
		Workers:   2,
		Attempts:  1,
	}
}

// Validate checks every field.
func (c *Config) Validate() error {
	var errs []error
	if !ocr.IsSupported(c.Language) {
		errs = append(errs, fmt.Errorf("language %q is not supported (supported: %s)",
			c.Language, strings.Join(ocr.SupportedLanguages, ", ")))
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not valid", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format %q must be text or json", c.LogFormat))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.Attempts < 1 {
		errs = append(errs, fmt.Errorf("attempts must be at least 1, got %d", c.Attempts))
	}
	return errors.Join(errs...)
}

// YAML renders c as YAML.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v *viper.Viper

	mu        sync.RWMutex
	config    *Config
	reloadErr error
	callbacks []func(*Config)
}

// NewManager loads configuration from cfgFile, or when empty from
// textsnap.yaml in the working directory or $HOME/.textsnap. A missing
// config file is not an error; an invalid one is.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults, environment and config file.
func (cm *Manager) initViper(cfgFile string) error {
	v := cm.v
	d := DefaultConfig()
	v.SetDefault("language", d.Language)
	v.SetDefault("tessdata_prefix", d.TessdataPrefix)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("attempts", d.Attempts)
	v.SetDefault("save_dir", d.SaveDir)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("textsnap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.textsnap")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses and validates the current viper state.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Language = strings.ToLower(strings.TrimSpace(cfg.Language))
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe). The returned value
// must not be modified.
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// FileUsed returns the path of the loaded config file, or "" if none.
func (cm *Manager) FileUsed() string {
	return cm.v.ConfigFileUsed()
}

// ReloadError returns the error of the last failed reload, or nil when the
// last reload succeeded. A failed reload keeps the previous configuration.
func (cm *Manager) ReloadError() error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.reloadErr
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of the config file.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()

		cm.mu.Lock()
		cm.reloadErr = err
		if err != nil {
			cm.mu.Unlock()
			return
		}
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}
