// Package config loads settings from defaults, an optional config file,
// an optional .env file and YOGA_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g.
// YOGA_SYNC_BASE_URL for sync.base_url.
const EnvPrefix = "YOGA"

// Output formats accepted by output.format.
var OutputFormats = []string{"table", "json", "yaml"}

// Config is the effective configuration.
type Config struct {
	DB        DBConfig        `mapstructure:"db" yaml:"db"`
	Sync      SyncConfig      `mapstructure:"sync" yaml:"sync"`
	Daemon    DaemonConfig    `mapstructure:"daemon" yaml:"daemon"`
	Mirror    MirrorConfig    `mapstructure:"mirror" yaml:"mirror"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

type DBConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type SyncConfig struct {
	// BaseURL of the remote server. Empty disables pushing.
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	QueueSize int           `mapstructure:"queue_size" yaml:"queue_size"`
}

type DaemonConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

type MirrorConfig struct {
	Addr         string `mapstructure:"addr" yaml:"addr"`
	SnapshotPath string `mapstructure:"snapshot_path" yaml:"snapshot_path"`
}

type LogConfig struct {
	// File enables a rotating log file next to stderr output.
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
}

type TelemetryConfig struct {
	// OTLPEndpoint enables trace export over OTLP/HTTP when set.
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
}

// Options select where settings are read from.
type Options struct {
	// ConfigFile is an explicit config file. When empty, "yoga.toml" or
	// "yoga.yaml" is looked up in the user config dir and the working
	// directory.
	ConfigFile string

	// EnvFile is loaded into the environment when it exists (default ".env").
	EnvFile string
}

// defaults maps every key to its default. Durations are strings so the
// same table serves viper and the TOML writer.
func defaults() map[string]any {
	return map[string]any{
		"db.path":                 filepath.Join(DataDir(), "yoga.db"),
		"sync.base_url":           "http://localhost:3000",
		"sync.timeout":            "30s",
		"sync.queue_size":         16,
		"daemon.debounce":         "500ms",
		"mirror.addr":             ":3000",
		"mirror.snapshot_path":    "",
		"log.file":                "",
		"log.max_size_mb":         10,
		"log.max_backups":         3,
		"log.max_age_days":        28,
		"log.compress":            false,
		"output.format":           "table",
		"telemetry.otlp_endpoint": "",
	}
}

// DataDir is where the store lives by default: $XDG_DATA_HOME/yoga or
// ~/.local/share/yoga.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "yoga")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".yoga"
	}
	return filepath.Join(home, ".local", "share", "yoga")
}

// ConfigDir is the user-level directory searched for yoga.toml/yoga.yaml.
func ConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".yoga"
	}
	return filepath.Join(dir, "yoga")
}

// New builds a viper instance with defaults, file and environment applied.
func New(opts Options) (*viper.Viper, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("yoga")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return v, nil
}

// Load decodes and validates the effective configuration.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later and obscurely.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty")
	}
	if c.Sync.Timeout <= 0 {
		return fmt.Errorf("sync.timeout must be positive (got %s)", c.Sync.Timeout)
	}
	if c.Sync.QueueSize <= 0 {
		return fmt.Errorf("sync.queue_size must be positive (got %d)", c.Sync.QueueSize)
	}
	if c.Daemon.Debounce <= 0 {
		return fmt.Errorf("daemon.debounce must be positive (got %s)", c.Daemon.Debounce)
	}
	valid := false
	for _, f := range OutputFormats {
		if c.Output.Format == f {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("output.format must be one of %s (got %q)", strings.Join(OutputFormats, ", "), c.Output.Format)
	}
	return nil
}

// YAML renders the configuration for display.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// WriteDefault writes a TOML file holding every default. An existing file
// is left alone unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// #nosec G304 - controlled path from CLI
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(nested(defaults())); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// nested turns {"a.b": 1} into {"a": {"b": 1}}.
func nested(flat map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any)
	for k, value := range flat {
		section, name, _ := strings.Cut(k, ".")
		if out[section] == nil {
			out[section] = make(map[string]any)
		}
		out[section][name] = value
	}
	return out
}

// Watch reloads the configuration when the config file changes and hands
// the result to onChange. Invalid edits are logged and ignored. Without a
// config file there is nothing to watch.
func Watch(v *viper.Viper, logger *log.Logger, onChange func(*Config)) bool {
	if v.ConfigFileUsed() == "" {
		return false
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Printf("Config file changed: %s (%s)", e.Name, e.Op)
		cfg, err := Load(v)
		if err != nil {
			logger.Printf("Ignoring config change: %v", err)
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return true
}
