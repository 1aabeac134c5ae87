package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Listen         string `yaml:"listen"`
	LogLevel       string `yaml:"log_level"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

func Default() *Config {
	return &Config{
		Listen:         ":8089",
		LogLevel:       "info",
		MaxUploadBytes: 256 << 20, // full eMMC dumps get large
	}
}

// Load reads a YAML config file on top of the defaults. An empty path
// just returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	bin, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed reading config file")
	}
	if err := yaml.Unmarshal(bin, cfg); err != nil {
		return nil, errors.Wrap(err, "failed parsing config file")
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, errors.New("max_upload_bytes must be positive")
	}
	return cfg, nil
}
