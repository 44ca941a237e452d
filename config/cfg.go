package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

//go:embed config.yaml
var configDefaults []byte

type (
	LoggerConfig struct {
		Level       string `yaml:"level"`
		Destination string `yaml:"destination,omitempty"`
		Mode        string `yaml:"mode,omitempty"`
	}

	LoggingConfig struct {
		FileLogger    LoggerConfig `yaml:"file"`
		ConsoleLogger LoggerConfig `yaml:"console"`
	}

	Config struct {
		Version int           `yaml:"version"`
		Logging LoggingConfig `yaml:"logging"`
	}
)

func unmarshalConfig(data []byte, cfg *Config) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported configuration version %d", cfg.Version)
	}
	for name, lc := range map[string]LoggerConfig{"console": cfg.Logging.ConsoleLogger, "file": cfg.Logging.FileLogger} {
		switch lc.Level {
		case "", "none", "normal", "debug":
		default:
			return fmt.Errorf("invalid %s logger level %q", name, lc.Level)
		}
		switch lc.Mode {
		case "", "append", "overwrite":
		default:
			return fmt.Errorf("invalid %s logger mode %q", name, lc.Mode)
		}
	}
	return nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposing its values on top of embedded defaults, and validates the
// result. An empty path yields the defaults.
func LoadConfiguration(path string) (*Config, error) {
	cfg, err := unmarshalConfig(configDefaults, &Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to process default configuration: %w", err)
	}
	if len(path) > 0 {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// overwrite cfg values with values from the file
		if cfg, err = unmarshalConfig(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to process configuration file: %w", err)
		}
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Prepare returns the default embedded configuration.
func Prepare() ([]byte, error) {
	return configDefaults, nil
}

// Dump serializes active configuration back to YAML.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
