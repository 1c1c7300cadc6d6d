// Package config loads the flexfx tool configuration from a YAML file,
// defaults and FLEXFX_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/moffa90/go-flexfx/midi"
)

// EnvPrefix prefixes every environment override, e.g. FLEXFX_TRANSFER_ACKTIMEOUT.
const EnvPrefix = "FLEXFX"

// PortConfig declares an endpoint explicitly, ahead of discovered ones.
type PortConfig struct {
	Name string `mapstructure:"name"`
	Path string `mapstructure:"path"`
	Kind string `mapstructure:"kind"`
	Baud int    `mapstructure:"baud"`
}

// DiscoveryConfig controls raw MIDI device discovery.
type DiscoveryConfig struct {
	Patterns []string `mapstructure:"patterns"`
}

// TransferConfig controls the acknowledgement wait.
type TransferConfig struct {
	AckTimeout   time.Duration `mapstructure:"ackTimeout"`
	PollInterval time.Duration `mapstructure:"pollInterval"`
}

// LumberjackConfig configures the rotated log file.
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig sets the log level and outputs.
type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
	Path string `mapstructure:"path"`
}

// Config is the top-level configuration.
type Config struct {
	Ports     []PortConfig    `mapstructure:"ports"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Transfer  TransferConfig  `mapstructure:"transfer"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// Load reads configuration from path, defaults and the environment.
// With an empty path, flexfx.yaml is searched in the working directory and
// $HOME/.config/flexfx; a missing file there is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/flexfx")
		v.SetConfigName("flexfx")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("discovery.patterns", midi.DefaultPatterns)

	v.SetDefault("transfer.ackTimeout", "0s")
	v.SetDefault("transfer.pollInterval", "1ms")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 10)
	v.SetDefault("logging.file.maxBackups", 3)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.path", "/metrics")
}

func (c *Config) validate() error {
	for i, p := range c.Ports {
		if p.Path == "" {
			return fmt.Errorf("ports[%d]: path is required", i)
		}
		switch midi.Kind(p.Kind) {
		case "", midi.KindRawMIDI, midi.KindSerial:
		default:
			return fmt.Errorf("ports[%d]: unknown kind %q", i, p.Kind)
		}
	}
	if c.Transfer.AckTimeout < 0 {
		return fmt.Errorf("transfer.ackTimeout must not be negative")
	}
	if c.Transfer.PollInterval < 0 {
		return fmt.Errorf("transfer.pollInterval must not be negative")
	}
	return nil
}

// Endpoints converts the configured ports to endpoints. Discover assigns
// their indices.
func (c *Config) Endpoints() []midi.Endpoint {
	eps := make([]midi.Endpoint, 0, len(c.Ports))
	for _, p := range c.Ports {
		kind := midi.Kind(p.Kind)
		if kind == "" {
			kind = midi.KindRawMIDI
		}
		baud := p.Baud
		if kind == midi.KindSerial && baud == 0 {
			baud = midi.DefaultBaud
		}
		name := p.Name
		if name == "" {
			name = p.Path
		}
		eps = append(eps, midi.Endpoint{
			Name: name,
			Path: p.Path,
			Kind: kind,
			Baud: baud,
		})
	}
	return eps
}
