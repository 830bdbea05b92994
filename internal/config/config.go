// Package config handles configuration loading using viper.
package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// GlobalConfig is the top-level configuration, mapped from the `dissect:`
// root key in a dissect.yml file.
type GlobalConfig struct {
	Registry   RegistryConfig   `mapstructure:"registry"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Log        LogConfig        `mapstructure:"log"`
}

// RegistryConfig overrides default dispatch behaviour.
type RegistryConfig struct {
	// PortOverrides maps a protocol name to a port (e.g. a site running SSH
	// on a non-standard port). Load only decodes it; nothing in this module
	// merges it into the classifier's PortMap.
	PortOverrides map[string]int `mapstructure:"port_overrides"`
}

// ClassifierConfig tunes the heuristic classifier.
type ClassifierConfig struct {
	// Threshold is the minimum confidence a candidate needs to be reported.
	Threshold float64 `mapstructure:"threshold"`
	// OnlineLearning is decoded by Load; nothing in this module reads it, so
	// dissector outcomes are not fed back into the Bayes classifier from it.
	OnlineLearning bool `mapstructure:"online_learning"`
}

// LogConfig configures the logging subsystem (internal/log).
type LogConfig struct {
	Level    string        `mapstructure:"level"`    // trace/debug/info/warn/error
	Pattern  string        `mapstructure:"pattern"`  // %time %level %field %msg %caller pattern
	Time     string        `mapstructure:"time"`     // time.Format layout
	Appender string        `mapstructure:"appender"` // console / file / both
	File     LogFileConfig `mapstructure:"file"`
}

// LogFileConfig configures rotated file output via lumberjack.
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// configRoot is the top-level wrapper matching the YAML structure `dissect: ...`.
type configRoot struct {
	Dissect GlobalConfig `mapstructure:"dissect"`
}

// Load reads configuration from path, applies defaults for anything unset,
// and validates the result.
func Load(path string) (*GlobalConfig, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg := root.Dissect
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("DISSECT")
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dissect.classifier.threshold", 0.7)
	v.SetDefault("dissect.classifier.online_learning", false)
	v.SetDefault("dissect.log.level", "info")
	v.SetDefault("dissect.log.pattern", "%time [%level] %field %msg (%caller)")
	v.SetDefault("dissect.log.time", "2006-01-02 15:04:05.000")
	v.SetDefault("dissect.log.appender", "console")
	v.SetDefault("dissect.log.file.max_size_mb", 100)
	v.SetDefault("dissect.log.file.max_age_days", 7)
	v.SetDefault("dissect.log.file.max_backups", 3)
}

func (cfg *GlobalConfig) applyDefaults() error {
	if cfg.Classifier.Threshold == 0 {
		cfg.Classifier.Threshold = 0.7
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Pattern == "" {
		cfg.Log.Pattern = "%time [%level] %field %msg (%caller)"
	}
	if cfg.Log.Time == "" {
		cfg.Log.Time = "2006-01-02 15:04:05.000"
	}
	if cfg.Log.Appender == "" {
		cfg.Log.Appender = "console"
	}
	return nil
}

var validLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validAppenders = map[string]bool{
	"console": true, "file": true, "both": true,
}

// Validate rejects a configuration that would fail later in a confusing way.
func (cfg *GlobalConfig) Validate() error {
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be trace/debug/info/warn/error)", cfg.Log.Level)
	}
	if !validAppenders[cfg.Log.Appender] {
		return fmt.Errorf("invalid log appender: %s (must be console/file/both)", cfg.Log.Appender)
	}
	if cfg.Log.Appender != "console" && cfg.Log.File.Path == "" {
		return fmt.Errorf("log appender %q requires log.file.path", cfg.Log.Appender)
	}
	if cfg.Classifier.Threshold < 0 || cfg.Classifier.Threshold > 1 {
		return fmt.Errorf("invalid classifier threshold: %f (must be within [0,1])", cfg.Classifier.Threshold)
	}
	return nil
}

// Watch loads path once, invokes onChange immediately with the result, then
// re-loads and re-invokes onChange whenever the file changes on disk. It
// never returns on success; callers typically run it in its own goroutine
// and stop it by cancelling the process (viper's underlying fsnotify watch
// has no explicit stop primitive).
func Watch(path string, onChange func(*GlobalConfig, error)) error {
	cfg, err := Load(path)
	onChange(cfg, err)

	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	v.OnConfigChange(func(in fsnotify.Event) {
		var root configRoot
		if err := v.Unmarshal(&root); err != nil {
			onChange(nil, fmt.Errorf("unmarshal config after change: %w", err))
			return
		}
		reloaded := root.Dissect
		if err := reloaded.applyDefaults(); err != nil {
			onChange(nil, err)
			return
		}
		if err := reloaded.Validate(); err != nil {
			onChange(nil, err)
			return
		}
		onChange(&reloaded, nil)
	})
	v.WatchConfig()
	return nil
}
